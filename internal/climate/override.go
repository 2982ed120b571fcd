package climate

import (
	"log/slog"
	"sync"
	"time"
)

// An Override is a user-set target temperature that masks the zone's schedule until it is cleared
// or expires. At most one override exists per zone.
type Override struct {
	ZoneId int
	Target float64
	// Active is forced to true on every write. An expired override is deactivated rather than
	// deleted, so callers can still observe it until the next write.
	Active bool
	Since  time.Time
	// Until is the override's expiry time. Zero means the override lasts until cleared.
	Until time.Time
}

func (o Override) LogValue() slog.Value {
	attrs := make([]slog.Attr, 2, 3)
	attrs[0] = slog.Float64("target", o.Target)
	attrs[1] = slog.Bool("active", o.Active)
	if !o.Until.IsZero() {
		attrs = append(attrs, slog.Time("until", o.Until))
	}
	return slog.GroupValue(attrs...)
}

// An OverrideStore holds at most one override per zone. It is owned by the OverrideService: all
// mutations go through the service's per-zone critical section. Reads return the full record
// atomically, so readers see either the pre- or the post-write override, never a torn one.
type OverrideStore struct {
	overrides map[int]Override
	lock      sync.RWMutex
}

func NewOverrideStore() *OverrideStore {
	return &OverrideStore{overrides: make(map[int]Override)}
}

func (s *OverrideStore) Get(zoneId int) (Override, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	override, ok := s.overrides[zoneId]
	return override, ok
}

func (s *OverrideStore) put(override Override) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.overrides[override.ZoneId] = override
}

func (s *OverrideStore) delete(zoneId int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.overrides, zoneId)
}

func (s *OverrideStore) deactivate(zoneId int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if override, ok := s.overrides[zoneId]; ok {
		override.Active = false
		s.overrides[zoneId] = override
	}
}
