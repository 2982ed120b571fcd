package poller

import (
	"github.com/clambin/climate-controller/internal/climate"
	"log/slog"
	"time"
)

// An Update is one full sweep over all zones.
type Update struct {
	Zones     Zones     `json:"zones"`
	Timestamp time.Time `json:"timestamp"`
}

func (u Update) GetZoneID(name string) (int, bool) {
	for _, zone := range u.Zones {
		if zone.Name == name {
			return zone.ZoneId, true
		}
	}
	return 0, false
}

type Zones []climate.Snapshot

func (z Zones) LogValue() slog.Value {
	zones := make([]slog.Attr, 0, len(z))
	for _, zone := range z {
		attrs := make([]any, 0, 3)
		if zone.Temperature != nil {
			attrs = append(attrs, slog.Float64("temperature", *zone.Temperature))
		}
		attrs = append(attrs,
			slog.Float64("target", zone.Target),
			slog.String("source", string(zone.Source)),
		)
		zones = append(zones, slog.Group(zone.Name, attrs...))
	}
	return slog.GroupValue(zones...)
}
