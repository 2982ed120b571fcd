// Package server assembles and runs all components: stores, resolver, override service, facade,
// sensor client, poller, collector, REST API and health endpoint.
package server

import (
	"errors"
	"fmt"
	"github.com/clambin/climate-controller/internal/api"
	"github.com/clambin/climate-controller/internal/climate"
	"github.com/clambin/climate-controller/internal/collector"
	"github.com/clambin/climate-controller/internal/health"
	"github.com/clambin/climate-controller/internal/notifier"
	"github.com/clambin/climate-controller/internal/poller"
	"github.com/clambin/climate-controller/internal/sensors"
	"github.com/clambin/go-common/taskmanager"
	"github.com/clambin/go-common/taskmanager/httpserver"
	promserver "github.com/clambin/go-common/taskmanager/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

var Cmd = cobra.Command{
	Use:   "serve",
	Short: "runs the climate controller",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger(viper.GetBool("debug"))
		logger.Info("climate-controller starting", "version", cmd.Root().Version)
		defer logger.Info("climate-controller stopped")

		m, err := New(viper.GetViper(), prometheus.DefaultRegisterer, logger)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return m.Run(ctx)
	},
}

func newLogger(debug bool) *slog.Logger {
	var opts slog.HandlerOptions
	if debug {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &opts))
}

func New(cfg *viper.Viper, registry prometheus.Registerer, logger *slog.Logger) (*taskmanager.Manager, error) {
	zoneConfig, err := loadZones(filepath.Join(filepath.Dir(cfg.ConfigFileUsed()), "zones.yaml"))
	if err != nil {
		return nil, fmt.Errorf("zones: %w", err)
	}

	bounds := climate.Bounds{Min: cfg.GetFloat64("limits.min"), Max: cfg.GetFloat64("limits.max")}
	defaultTemperature := cfg.GetFloat64("defaults.temperature")
	if !bounds.Contains(defaultTemperature) {
		return nil, fmt.Errorf("defaults.temperature %.1f outside %s", defaultTemperature, bounds)
	}
	zones := climate.NewRegistry()
	schedules := climate.NewScheduleStore(bounds)
	overrides := climate.NewOverrideStore()
	if err = climate.Apply(zoneConfig, zones, schedules); err != nil {
		return nil, fmt.Errorf("zones: %w", err)
	}

	resolver := climate.NewResolver(zones, schedules, overrides, defaultTemperature)

	notifiers := notifier.Notifiers{notifier.SLogNotifier{Logger: logger.With(slog.String("component", "notifier"))}}
	if token := cfg.GetString("slack.token"); token != "" {
		notifiers = append(notifiers, &notifier.SlackNotifier{
			Logger:      logger.With(slog.String("component", "notifier")),
			SlackSender: slack.New(token),
		})
	}

	service := climate.NewOverrideService(zones, overrides, resolver, bounds,
		cfg.GetDuration("overrides.timeout"),
		notifiers,
		logger.With(slog.String("component", "overrides")),
	)

	sensorClient := sensors.New(cfg.GetString("sensors.url"), registry, logger.With(slog.String("component", "sensors")))
	facade := climate.NewZoneFacade(zones, resolver, sensorClient,
		cfg.GetDuration("sensors.timeout"),
		logger.With(slog.String("component", "facade")),
	)

	return taskmanager.New(makeTasks(cfg, zones, schedules, service, facade, registry, logger)...), nil
}

func loadZones(path string) ([]climate.ZoneConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		return nil, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	return climate.Load(f)
}

func makeTasks(cfg *viper.Viper, zones *climate.Registry, schedules *climate.ScheduleStore, service *climate.OverrideService, facade *climate.ZoneFacade, registry prometheus.Registerer, l *slog.Logger) []taskmanager.Task {
	var tasks []taskmanager.Task

	// Poller
	p := poller.New(facade, zones, cfg.GetDuration("poller.interval"), l.With("component", "poller"))
	tasks = append(tasks, p)

	// Collector
	coll := &collector.Collector{Poller: p, Logger: l.With("component", "collector")}
	if registry != nil {
		registry.MustRegister(coll)
	}
	tasks = append(tasks, coll)

	// Prometheus Server
	tasks = append(tasks, promserver.New(promserver.WithAddr(cfg.GetString("exporter.addr"))))

	// Health Endpoint
	h := health.New(p, l.With("component", "health"))
	tasks = append(tasks, h)
	r := http.NewServeMux()
	r.Handle("/health", h)
	tasks = append(tasks, httpserver.New(cfg.GetString("health.addr"), r))

	// REST API
	s := api.New(facade, service, schedules, zones, registry, l.With("component", "api"))
	tasks = append(tasks, httpserver.New(cfg.GetString("api.addr"), s))

	return tasks
}
