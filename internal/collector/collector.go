// Package collector exports the latest zone states as Prometheus metrics.
package collector

import (
	"context"
	"github.com/clambin/climate-controller/internal/climate"
	"github.com/clambin/climate-controller/internal/poller"
	"github.com/prometheus/client_golang/prometheus"
	"log/slog"
	"sync"
)

var (
	zoneTemperatureCelsius = prometheus.NewDesc(
		prometheus.BuildFQName("climate", "zone", "temperature_celsius"),
		"Current temperature of this zone in degrees celsius",
		[]string{"zone_name"},
		nil,
	)
	zoneTargetTempCelsius = prometheus.NewDesc(
		prometheus.BuildFQName("climate", "zone", "target_temp_celsius"),
		"Target temperature of this zone in degrees celsius",
		[]string{"zone_name"},
		nil,
	)
	zoneTargetManualMode = prometheus.NewDesc(
		prometheus.BuildFQName("climate", "zone", "target_manual_mode"),
		"1 if this zone's target comes from a manual override",
		[]string{"zone_name"},
		nil,
	)
	zoneSensorStale = prometheus.NewDesc(
		prometheus.BuildFQName("climate", "zone", "sensor_stale"),
		"1 if this zone's sensor did not respond and the last known temperature is reported",
		[]string{"zone_name"},
		nil,
	)
)

var _ prometheus.Collector = &Collector{}

type Collector struct {
	Poller     poller.Poller
	Logger     *slog.Logger
	lock       sync.RWMutex
	lastUpdate *poller.Update
}

func (c *Collector) Run(ctx context.Context) error {
	c.Logger.Debug("started")
	defer c.Logger.Debug("stopped")

	ch := c.Poller.Subscribe()
	defer c.Poller.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-ch:
			c.lock.Lock()
			c.lastUpdate = &update
			c.lock.Unlock()
		}
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- zoneTemperatureCelsius
	ch <- zoneTargetTempCelsius
	ch <- zoneTargetManualMode
	ch <- zoneSensorStale
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if c.lastUpdate == nil {
		return
	}
	for _, zone := range c.lastUpdate.Zones {
		if zone.Temperature != nil {
			ch <- prometheus.MustNewConstMetric(zoneTemperatureCelsius, prometheus.GaugeValue, *zone.Temperature, zone.Name)
		}
		ch <- prometheus.MustNewConstMetric(zoneTargetTempCelsius, prometheus.GaugeValue, zone.Target, zone.Name)
		ch <- prometheus.MustNewConstMetric(zoneTargetManualMode, prometheus.GaugeValue, boolToFloat(zone.Source == climate.SourceOverride), zone.Name)
		ch <- prometheus.MustNewConstMetric(zoneSensorStale, prometheus.GaugeValue, boolToFloat(zone.Stale), zone.Name)
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
