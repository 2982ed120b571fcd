package climate

import (
	"time"
)

// Source indicates where a zone's effective target temperature came from.
type Source string

const (
	SourceOverride Source = "OVERRIDE"
	SourceSchedule Source = "SCHEDULE"
	SourceDefault  Source = "DEFAULT"
)

// An EffectiveTarget is the single target temperature driving a zone at a given instant. It is
// derived on every call and never cached.
type EffectiveTarget struct {
	ZoneId int
	Target float64
	Source Source
	// Ambiguous is set when more than one schedule band covered the instant, i.e. the schedule
	// data violates the non-overlap invariant. The result is still deterministic: the band with
	// the latest start wins.
	Ambiguous bool
}

// A Resolver derives a zone's effective target: an active override masks the schedule entirely,
// otherwise the schedule band covering the instant applies, otherwise the zone's (or the global)
// eco temperature. Resolve is read-only and safe for concurrent use.
type Resolver struct {
	zones          *Registry
	schedules      *ScheduleStore
	overrides      *OverrideStore
	ecoTemperature float64
}

func NewResolver(zones *Registry, schedules *ScheduleStore, overrides *OverrideStore, ecoTemperature float64) Resolver {
	return Resolver{
		zones:          zones,
		schedules:      schedules,
		overrides:      overrides,
		ecoTemperature: ecoTemperature,
	}
}

func (r Resolver) Resolve(zoneId int, at time.Time) (EffectiveTarget, error) {
	zone, ok := r.zones.Get(zoneId)
	if !ok {
		return EffectiveTarget{}, ErrUnknownZone
	}

	if override, found := r.overrides.Get(zoneId); found && override.Active {
		return EffectiveTarget{ZoneId: zoneId, Target: override.Target, Source: SourceOverride}, nil
	}

	if matched := r.schedules.matching(zoneId, at); len(matched) > 0 {
		// matching returns bands ordered by start time: the last one has the latest start,
		// which is the tie-break when the non-overlap invariant was violated.
		return EffectiveTarget{
			ZoneId:    zoneId,
			Target:    matched[len(matched)-1].Target,
			Source:    SourceSchedule,
			Ambiguous: len(matched) > 1,
		}, nil
	}

	target := r.ecoTemperature
	if zone.EcoTemperature != nil {
		target = *zone.EcoTemperature
	}
	return EffectiveTarget{ZoneId: zoneId, Target: target, Source: SourceDefault}, nil
}
