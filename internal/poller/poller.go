package poller

import (
	"context"
	"github.com/clambin/climate-controller/internal/climate"
	"github.com/clambin/climate-controller/pkg/pubsub"
	"golang.org/x/sync/errgroup"
	"log/slog"
	"time"
)

type Poller interface {
	Subscribe() chan Update
	Unsubscribe(ch chan Update)
	Refresh()
}

type Snapshotter interface {
	Snapshot(ctx context.Context, zoneId int) (climate.Snapshot, error)
}

type ZoneLister interface {
	All() []climate.Zone
}

var _ Poller = &ZonePoller{}

// A ZonePoller periodically snapshots all zones and publishes the result to its subscribers.
// Refresh forces an immediate poll, e.g. right after an override was changed.
type ZonePoller struct {
	facade Snapshotter
	zones  ZoneLister
	*pubsub.Publisher[Update]
	interval time.Duration
	logger   *slog.Logger
	refresh  chan struct{}
}

func New(facade Snapshotter, zones ZoneLister, interval time.Duration, logger *slog.Logger) *ZonePoller {
	return &ZonePoller{
		facade:    facade,
		zones:     zones,
		Publisher: pubsub.New[Update](logger.With(slog.String("component", "pubsub"))),
		interval:  interval,
		logger:    logger,
		refresh:   make(chan struct{}),
	}
}

func (p *ZonePoller) Run(ctx context.Context) error {
	p.logger.Debug("started", slog.Duration("interval", p.interval))
	defer p.logger.Debug("stopped")

	timer := time.NewTicker(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		case <-p.refresh:
		}

		if err := p.poll(ctx); err != nil {
			p.logger.Error("failed to poll zones", slog.Any("err", err))
		}
	}
}

func (p *ZonePoller) Refresh() {
	p.refresh <- struct{}{}
}

func (p *ZonePoller) poll(ctx context.Context) error {
	start := time.Now()
	update, err := p.update(ctx)
	if err == nil {
		p.Publisher.Publish(update)
		p.logger.Debug("poll completed", slog.Duration("duration", time.Since(start)))
	}
	return err
}

func (p *ZonePoller) update(ctx context.Context) (Update, error) {
	zones := p.zones.All()
	snapshots := make([]climate.Snapshot, len(zones))

	var g errgroup.Group
	for i, zone := range zones {
		g.Go(func() error {
			var err error
			snapshots[i], err = p.facade.Snapshot(ctx, zone.Id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Update{}, err
	}
	return Update{Zones: snapshots, Timestamp: time.Now()}, nil
}
