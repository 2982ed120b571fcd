package climate

import (
	"fmt"
	"github.com/clambin/go-common/set"
	"gopkg.in/yaml.v3"
	"io"
)

// ZoneConfig is one zone's entry in the zones configuration file.
type ZoneConfig struct {
	Id             int          `yaml:"id"`
	Name           string       `yaml:"name"`
	EcoTemperature *float64     `yaml:"eco,omitempty"`
	Schedule       []BandConfig `yaml:"schedule,omitempty"`
}

type BandConfig struct {
	Day    string    `yaml:"day"`
	Start  TimeOfDay `yaml:"start"`
	End    TimeOfDay `yaml:"end"`
	Target float64   `yaml:"target"`
}

// Load reads the zone configuration. Zone ids and names must be unique.
func Load(r io.Reader) ([]ZoneConfig, error) {
	var config struct {
		Zones []ZoneConfig `yaml:"zones"`
	}
	if err := yaml.NewDecoder(r).Decode(&config); err != nil {
		return nil, fmt.Errorf("invalid zone configuration: %w", err)
	}

	ids := set.Create[int]()
	names := set.Create[string]()
	for _, zone := range config.Zones {
		if zone.Name == "" {
			return nil, fmt.Errorf("zone %d: name is required", zone.Id)
		}
		if ids.Contains(zone.Id) {
			return nil, fmt.Errorf("duplicate zone id %d", zone.Id)
		}
		if names.Contains(zone.Name) {
			return nil, fmt.Errorf("duplicate zone name %q", zone.Name)
		}
		ids.Add(zone.Id)
		names.Add(zone.Name)
	}
	return config.Zones, nil
}

// Apply registers the configured zones and their schedules. Eco temperatures must lie within the
// schedule store's bounds: the resolver returns them verbatim, so an out-of-range one would bypass
// clamping.
func Apply(config []ZoneConfig, zones *Registry, schedules *ScheduleStore) error {
	for _, zoneConfig := range config {
		if zoneConfig.EcoTemperature != nil && !schedules.bounds.Contains(*zoneConfig.EcoTemperature) {
			return fmt.Errorf("zone %q: eco temperature %.1f outside %s", zoneConfig.Name, *zoneConfig.EcoTemperature, schedules.bounds)
		}
		bands := make([]Band, 0, len(zoneConfig.Schedule))
		for _, bandConfig := range zoneConfig.Schedule {
			day, err := ParseWeekday(bandConfig.Day)
			if err != nil {
				return fmt.Errorf("zone %q: %w", zoneConfig.Name, err)
			}
			bands = append(bands, Band{Day: day, Start: bandConfig.Start, End: bandConfig.End, Target: bandConfig.Target})
		}
		zones.Add(Zone{Id: zoneConfig.Id, Name: zoneConfig.Name, EcoTemperature: zoneConfig.EcoTemperature})
		if err := schedules.Set(zoneConfig.Id, bands); err != nil {
			return fmt.Errorf("zone %q: %w", zoneConfig.Name, err)
		}
	}
	return nil
}
