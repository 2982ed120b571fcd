package poller

import (
	"context"
	"errors"
	"github.com/clambin/climate-controller/internal/climate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeFacade struct {
	err  error
	lock sync.Mutex
}

func (f *fakeFacade) Snapshot(_ context.Context, zoneId int) (climate.Snapshot, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.err != nil {
		return climate.Snapshot{}, f.err
	}
	temperature := 19.5
	return climate.Snapshot{ZoneId: zoneId, Name: "zone", Temperature: &temperature, Target: 21.0, Source: climate.SourceSchedule}, nil
}

type fakeZones struct{}

func (f fakeZones) All() []climate.Zone {
	return []climate.Zone{{Id: 1, Name: "zone"}}
}

func TestZonePoller_Run(t *testing.T) {
	f := fakeFacade{}
	p := New(&f, fakeZones{}, time.Hour, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() { errCh <- p.Run(ctx) }()

	ch := p.Subscribe()
	go p.Refresh()

	update := <-ch
	require.Len(t, update.Zones, 1)
	require.NotNil(t, update.Zones[0].Temperature)
	assert.Equal(t, 19.5, *update.Zones[0].Temperature)

	id, ok := update.GetZoneID("zone")
	require.True(t, ok)
	assert.Equal(t, 1, id)
	_, ok = update.GetZoneID("garage")
	assert.False(t, ok)

	p.Unsubscribe(ch)
	cancel()
	assert.NoError(t, <-errCh)
}

func TestZonePoller_Run_Errors(t *testing.T) {
	f := fakeFacade{err: errors.New("snapshot failed")}
	p := New(&f, fakeZones{}, 10*time.Millisecond, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() { errCh <- p.Run(ctx) }()

	ch := p.Subscribe()

	// nothing is published while polling fails
	select {
	case <-ch:
		t.Fatal("unexpected update")
	case <-time.After(100 * time.Millisecond):
	}

	// polling recovers on the next tick
	f.lock.Lock()
	f.err = nil
	f.lock.Unlock()
	assert.Eventually(t, func() bool {
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	p.Unsubscribe(ch)
	cancel()
	assert.NoError(t, <-errCh)
}
