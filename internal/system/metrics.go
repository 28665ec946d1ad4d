package system

import (
	"time"

	"github.com/tavernsim/server/internal/core/event"
	"github.com/tavernsim/server/internal/metrics"
	"github.com/tavernsim/server/internal/world"
)

// MetricsSystem feeds lifecycle events and the world head-count into the
// prometheus collector.
type MetricsSystem struct {
	bus       *event.Bus
	world     *world.State
	collector *metrics.Collector
	subs      []event.Subscription
}

func NewMetricsSystem(bus *event.Bus, ws *world.State, collector *metrics.Collector) *MetricsSystem {
	return &MetricsSystem{bus: bus, world: ws, collector: collector}
}

func (s *MetricsSystem) Name() string { return "MetricsSystem" }

func (s *MetricsSystem) Initialize() error {
	s.subs = append(s.subs,
		event.Subscribe(s.bus, func(event.CustomerSpawned) { s.collector.CustomerSpawned() }),
		event.Subscribe(s.bus, func(event.CustomerDeparted) { s.collector.CustomerDeparted() }),
		event.Subscribe(s.bus, func(ev event.DestinationStatusChanged) {
			s.collector.ObserveMove(string(ev.Destination), ev.Progress.String())
		}),
	)
	return nil
}

func (s *MetricsSystem) Update(_ time.Duration) error {
	s.collector.SetLiveCustomers(s.world.CustomerCount())
	return nil
}

func (s *MetricsSystem) Dispose() error {
	for _, sub := range s.subs {
		s.bus.Unsubscribe(sub)
	}
	s.subs = nil
	return nil
}
