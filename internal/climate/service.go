package climate

import (
	"context"
	"fmt"
	"github.com/clambin/climate-controller/pkg/scheduler"
	"log/slog"
	"sync"
	"time"
)

type Notifier interface {
	Notify(string)
}

// An OverrideService owns all override mutations. Operations on the same zone are serialized
// through a per-zone critical section, so concurrent adjustments are applied as sequential deltas
// and never lost. Operations on different zones proceed independently.
type OverrideService struct {
	zones       *Registry
	overrides   *OverrideStore
	resolver    Resolver
	bounds      Bounds
	lockTimeout time.Duration
	notifier    Notifier
	logger      *slog.Logger

	// allows current time to be set during testing
	GetCurrentTime func() time.Time

	lock      sync.Mutex
	zoneLocks map[int]chan struct{}
	expiries  map[int]*scheduler.Job
}

func NewOverrideService(zones *Registry, overrides *OverrideStore, resolver Resolver, bounds Bounds, lockTimeout time.Duration, notifier Notifier, logger *slog.Logger) *OverrideService {
	return &OverrideService{
		zones:       zones,
		overrides:   overrides,
		resolver:    resolver,
		bounds:      bounds,
		lockTimeout: lockTimeout,
		notifier:    notifier,
		logger:      logger,
		zoneLocks:   make(map[int]chan struct{}),
		expiries:    make(map[int]*scheduler.Job),
	}
}

func (s *OverrideService) now() time.Time {
	if s.GetCurrentTime != nil {
		return s.GetCurrentTime()
	}
	return time.Now()
}

// Set creates the zone's override, or replaces its target if one already exists. The target is
// clamped to the bounds; the second return value reports whether it was. A non-zero duration makes
// the override expire on its own.
func (s *OverrideService) Set(ctx context.Context, zoneId int, target float64, duration time.Duration) (Override, bool, error) {
	zone, ok := s.zones.Get(zoneId)
	if !ok {
		return Override{}, false, ErrUnknownZone
	}
	release, err := s.acquire(ctx, zoneId, s.lockTimeout)
	if err != nil {
		return Override{}, false, err
	}
	defer release()

	override, clamped := s.write(zone, target, duration)
	return override, clamped, nil
}

// Adjust adds delta to the zone's current effective target, i.e. to what the user currently sees,
// whether that came from a schedule, a default or an earlier override. The result is clamped, so
// adjusting past a bound is a no-op, not an error.
func (s *OverrideService) Adjust(ctx context.Context, zoneId int, delta float64) (Override, bool, error) {
	zone, ok := s.zones.Get(zoneId)
	if !ok {
		return Override{}, false, ErrUnknownZone
	}
	release, err := s.acquire(ctx, zoneId, s.lockTimeout)
	if err != nil {
		return Override{}, false, err
	}
	defer release()

	// resolve inside the critical section: a concurrent adjustment must see this one's result
	current, err := s.resolver.Resolve(zoneId, s.now())
	if err != nil {
		return Override{}, false, err
	}
	override, clamped := s.write(zone, current.Target+delta, 0)
	return override, clamped, nil
}

// Clear removes the zone's override; resolution falls back to the schedule. Clearing a zone
// without an override is a no-op.
func (s *OverrideService) Clear(ctx context.Context, zoneId int) error {
	zone, ok := s.zones.Get(zoneId)
	if !ok {
		return ErrUnknownZone
	}
	release, err := s.acquire(ctx, zoneId, s.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	s.cancelExpiry(zoneId)
	if _, found := s.overrides.Get(zoneId); !found {
		return nil
	}
	s.overrides.delete(zoneId)
	s.logger.Info("manual override cleared", "zone", zone)
	s.notify(fmt.Sprintf("%s: manual temperature setting cleared. resuming schedule", zone.Name))
	return nil
}

// write performs the create-or-patch under the zone's critical section. It runs to completion
// regardless of the caller's context: a half-applied override would break the one-per-zone
// invariant.
func (s *OverrideService) write(zone Zone, target float64, duration time.Duration) (Override, bool) {
	clamped, wasClamped := s.bounds.Clamp(target)
	now := s.now()
	override := Override{ZoneId: zone.Id, Target: clamped, Active: true, Since: now}
	if duration > 0 {
		override.Until = now.Add(duration)
	}

	s.cancelExpiry(zone.Id)
	s.overrides.put(override)
	if duration > 0 {
		s.scheduleExpiry(zone, duration)
	}

	s.logger.Info("manual override set", "zone", zone, "override", override, "clamped", wasClamped)
	s.notify(fmt.Sprintf("%s: setting target temperature to %.1fº", zone.Name, clamped))
	return override, wasClamped
}

// scheduleExpiry sets up a job to deactivate the override once its duration has passed. The job
// is canceled when the override is replaced or cleared, which always happens under the zone's
// critical section before this job could acquire it.
func (s *OverrideService) scheduleExpiry(zone Zone, duration time.Duration) {
	job := scheduler.Schedule(context.Background(), scheduler.RunFunc(func(ctx context.Context) error {
		return s.expire(ctx, zone)
	}), duration)

	s.lock.Lock()
	defer s.lock.Unlock()
	s.expiries[zone.Id] = job
}

func (s *OverrideService) cancelExpiry(zoneId int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if job, ok := s.expiries[zoneId]; ok {
		job.Cancel()
		delete(s.expiries, zoneId)
	}
}

func (s *OverrideService) expire(ctx context.Context, zone Zone) error {
	release, err := s.acquire(ctx, zone.Id, 0)
	if err != nil {
		return err
	}
	defer release()

	override, found := s.overrides.Get(zone.Id)
	if !found || !override.Active || override.Until.IsZero() || override.Until.After(s.now()) {
		return nil
	}
	s.overrides.deactivate(zone.Id)
	s.logger.Info("manual override expired", "zone", zone)
	s.notify(fmt.Sprintf("%s: manual temperature setting expired. resuming schedule", zone.Name))
	return nil
}

// acquire enters the zone's critical section. A zero timeout waits until the context is done;
// otherwise the acquisition fails with ErrZoneBusy once the timeout has passed.
func (s *OverrideService) acquire(ctx context.Context, zoneId int, timeout time.Duration) (func(), error) {
	s.lock.Lock()
	sem, ok := s.zoneLocks[zoneId]
	if !ok {
		sem = make(chan struct{}, 1)
		s.zoneLocks[zoneId] = sem
	}
	s.lock.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-expired:
		return nil, ErrZoneBusy
	}
}

func (s *OverrideService) notify(msg string) {
	if s.notifier != nil {
		s.notifier.Notify(msg)
	}
}
