package climate

import (
	"context"
	"log/slog"
	"time"
)

type SensorReader interface {
	ReadTemperature(ctx context.Context, zoneId int) (float64, error)
}

// A Snapshot is a zone's state as presented to external callers: the measured temperature and the
// effective target driving the actuators. Temperature is nil when the zone's sensor has never
// produced a reading, so a dead sensor can't masquerade as an actual 0º measurement.
type Snapshot struct {
	ZoneId         int       `json:"id"`
	Name           string    `json:"name"`
	Temperature    *float64  `json:"current_temperature,omitempty"`
	Stale          bool      `json:"stale,omitempty"`
	Target         float64   `json:"target_temperature"`
	Source         Source    `json:"source"`
	OverrideActive bool      `json:"override_active"`
	Time           time.Time `json:"time"`
}

// A ZoneFacade combines a live sensor reading with the resolver's effective target. Sensor reads
// are bounded by a timeout; when one fails, the snapshot carries the zone's last known temperature
// marked stale, so temperature control never depends on sensor availability.
type ZoneFacade struct {
	zones    *Registry
	resolver Resolver
	sensors  SensorReader
	timeout  time.Duration
	logger   *slog.Logger

	// allows current time to be set during testing
	GetCurrentTime func() time.Time
}

func NewZoneFacade(zones *Registry, resolver Resolver, sensors SensorReader, timeout time.Duration, logger *slog.Logger) *ZoneFacade {
	return &ZoneFacade{
		zones:    zones,
		resolver: resolver,
		sensors:  sensors,
		timeout:  timeout,
		logger:   logger,
	}
}

func (f *ZoneFacade) now() time.Time {
	if f.GetCurrentTime != nil {
		return f.GetCurrentTime()
	}
	return time.Now()
}

func (f *ZoneFacade) Snapshot(ctx context.Context, zoneId int) (Snapshot, error) {
	zone, ok := f.zones.Get(zoneId)
	if !ok {
		return Snapshot{}, ErrUnknownZone
	}

	now := f.now()
	target, err := f.resolver.Resolve(zoneId, now)
	if err != nil {
		return Snapshot{}, err
	}
	if target.Ambiguous {
		f.logger.Warn("overlapping schedule bands", "zone", zone, "time", now)
	}

	snapshot := Snapshot{
		ZoneId: zoneId,
		Name:   zone.Name,
		Target: target.Target,
		Source: target.Source,
		// derived from the resolved target, not a second store read: the snapshot must be one
		// consistent observation even while the override is being mutated
		OverrideActive: target.Source == SourceOverride,
		Time:           now,
	}
	snapshot.Temperature, snapshot.Stale = f.readTemperature(ctx, zoneId)
	return snapshot, nil
}

// readTemperature reads the zone's sensor, falling back to the last known temperature when the
// sensor is unavailable or doesn't respond in time. It returns nil when no reading was ever
// recorded.
func (f *ZoneFacade) readTemperature(ctx context.Context, zoneId int) (*float64, bool) {
	subCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	temperature, err := f.sensors.ReadTemperature(subCtx, zoneId)
	if err == nil {
		_ = f.zones.SetTemperature(zoneId, temperature)
		return &temperature, false
	}
	f.logger.Warn("sensor unavailable. using last known temperature", "zone", zoneId, "err", err)
	if temperature, ok := f.zones.Temperature(zoneId); ok {
		return &temperature, true
	}
	return nil, true
}
