package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testConfig(t *testing.T, zones string) *viper.Viper {
	t.Helper()
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("debug: true\n"), 0644))
	if zones != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "zones.yaml"), []byte(zones), 0644))
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	require.NoError(t, v.ReadInConfig())
	v.SetDefault("api.addr", ":8080")
	v.SetDefault("exporter.addr", ":9090")
	v.SetDefault("health.addr", ":8081")
	v.SetDefault("poller.interval", 10*time.Second)
	v.SetDefault("sensors.url", "http://localhost:8888")
	v.SetDefault("sensors.timeout", time.Second)
	v.SetDefault("limits.min", 5.0)
	v.SetDefault("limits.max", 30.0)
	v.SetDefault("defaults.temperature", 20.0)
	v.SetDefault("overrides.timeout", time.Second)
	v.SetDefault("slack.token", "")
	return v
}

func TestNew(t *testing.T) {
	cfg := testConfig(t, `zones:
  - id: 1
    name: living room
    schedule:
      - day: monday
        start: "06:00"
        end: "22:00"
        target: 21.0
`)

	m, err := New(cfg, prometheus.NewPedanticRegistry(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestNew_NoZonesFile(t *testing.T) {
	cfg := testConfig(t, "")

	m, err := New(cfg, prometheus.NewPedanticRegistry(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestNew_InvalidDefaultTemperature(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Set("defaults.temperature", 45.0)

	_, err := New(cfg, prometheus.NewPedanticRegistry(), slog.New(slog.DiscardHandler))
	assert.ErrorContains(t, err, "defaults.temperature 45.0 outside [5.0-30.0]")
}

func TestNew_InvalidZones(t *testing.T) {
	tests := []struct {
		name  string
		zones string
	}{
		{
			name: "duplicate zone",
			zones: `zones:
  - id: 1
    name: living room
  - id: 1
    name: bedroom
`,
		},
		{
			name: "eco out of range",
			zones: `zones:
  - id: 1
    name: living room
    eco: 45.0
`,
		},
		{
			name: "invalid schedule",
			zones: `zones:
  - id: 1
    name: living room
    schedule:
      - day: monday
        start: "22:00"
        end: "06:00"
        target: 21.0
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, tt.zones)
			_, err := New(cfg, prometheus.NewPedanticRegistry(), slog.New(slog.DiscardHandler))
			assert.Error(t, err)
		})
	}
}
