package climate

import (
	"log/slog"
	"slices"
	"sync"
)

// A Zone is an independently controlled climate area. Its current temperature is measured by an
// external sensor; the engine only drives its target temperature.
type Zone struct {
	Id   int
	Name string
	// EcoTemperature, if set, is the zone's fallback target when neither an override nor a
	// schedule band applies. Zones without one fall back to the global eco temperature.
	EcoTemperature *float64
}

func (z Zone) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("id", z.Id),
		slog.String("name", z.Name),
	)
}

// A Registry holds all known zones and their last measured temperature. Zones are created and
// removed by administrative action; temperatures are written by the poller and the facade.
type Registry struct {
	zones        map[int]Zone
	temperatures map[int]float64
	lock         sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		zones:        make(map[int]Zone),
		temperatures: make(map[int]float64),
	}
}

func (r *Registry) Add(zone Zone) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.zones[zone.Id] = zone
}

func (r *Registry) Delete(id int) {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.zones, id)
	delete(r.temperatures, id)
}

func (r *Registry) Get(id int) (Zone, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	zone, ok := r.zones[id]
	return zone, ok
}

func (r *Registry) GetByName(name string) (Zone, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, zone := range r.zones {
		if zone.Name == name {
			return zone, true
		}
	}
	return Zone{}, false
}

// All returns all registered zones, ordered by id.
func (r *Registry) All() []Zone {
	r.lock.RLock()
	defer r.lock.RUnlock()
	zones := make([]Zone, 0, len(r.zones))
	for _, zone := range r.zones {
		zones = append(zones, zone)
	}
	slices.SortFunc(zones, func(a, b Zone) int { return a.Id - b.Id })
	return zones
}

// SetTemperature records the zone's last measured temperature.
func (r *Registry) SetTemperature(id int, temperature float64) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.zones[id]; !ok {
		return ErrUnknownZone
	}
	r.temperatures[id] = temperature
	return nil
}

// Temperature returns the zone's last measured temperature. The second return value is false if
// no measurement has been recorded yet.
func (r *Registry) Temperature(id int) (float64, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	temperature, ok := r.temperatures[id]
	return temperature, ok
}
