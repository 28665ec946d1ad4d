package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tavernsim/server/internal/config"
	"github.com/tavernsim/server/internal/core/ecs"
	"github.com/tavernsim/server/internal/core/event"
	"github.com/tavernsim/server/internal/data"
	"github.com/tavernsim/server/internal/world"
)

// CustomerManager spawns customers during the day and sends them home in the
// evening. It owns the set of customers it is currently serving; the world
// owns the customers themselves.
//
// Sent-home customers are dropped from the tracked set immediately, while
// they are still walking to the exit. They no longer count against the caps,
// and the manager only hears about them again when they reach the exit and
// are despawned.
// TODO: decide whether walking-out customers should still count against
// max_on_one_time once a new day starts before they are gone.
type CustomerManager struct {
	bus     *event.Bus
	world   *world.State
	factory *world.CustomerFactory
	mover   *world.Mover
	log     *zap.Logger

	maxPerDay    int
	maxOnOneTime int

	live   []ecs.EntityID
	active bool
	subs   []event.Subscription

	// err holds a failure raised inside an event handler; the next Update
	// returns it so the runner can stop the loop.
	err error
}

func NewCustomerManager(bus *event.Bus, ws *world.State, factory *world.CustomerFactory, mover *world.Mover, caps config.CustomerConfig, log *zap.Logger) *CustomerManager {
	return &CustomerManager{
		bus:          bus,
		world:        ws,
		factory:      factory,
		mover:        mover,
		log:          log.Named("customers"),
		maxPerDay:    caps.MaxPerDay,
		maxOnOneTime: caps.MaxOnOneTime,
		live:         make([]ecs.EntityID, 0, caps.MaxOnOneTime),
		active:       true,
	}
}

func (m *CustomerManager) Name() string { return "CustomerManager" }

func (m *CustomerManager) Initialize() error {
	m.subs = append(m.subs,
		event.Subscribe(m.bus, m.onDayCycleChanged),
		event.Subscribe(m.bus, m.onDestinationStatus),
	)
	m.log.Info("CustomerManager initialized",
		zap.Int("max_per_day", m.maxPerDay),
		zap.Int("max_on_one_time", m.maxOnOneTime))
	return nil
}

// Update spawns at most one customer per tick while the tavern is open.
func (m *CustomerManager) Update(_ time.Duration) error {
	if err := m.err; err != nil {
		m.err = nil
		return err
	}
	if !m.active {
		return nil
	}
	if len(m.live) < m.maxOnOneTime {
		return m.spawn()
	}
	return nil
}

func (m *CustomerManager) Dispose() error {
	for _, s := range m.subs {
		m.bus.Unsubscribe(s)
	}
	m.subs = nil
	return nil
}

// Active reports whether the manager is currently spawning customers.
func (m *CustomerManager) Active() bool { return m.active }

// LiveCount returns the number of tracked customers.
func (m *CustomerManager) LiveCount() int { return len(m.live) }

// Live returns a copy of the tracked customer IDs in spawn order.
func (m *CustomerManager) Live() []ecs.EntityID {
	out := make([]ecs.EntityID, len(m.live))
	copy(out, m.live)
	return out
}

func (m *CustomerManager) spawn() error {
	if len(m.live) >= m.maxPerDay {
		return nil
	}
	if len(m.live) >= m.maxOnOneTime {
		return nil
	}

	c, err := m.factory.Create()
	if err != nil {
		return fmt.Errorf("spawn customer: %w", err)
	}
	m.live = append(m.live, c.ID)
	m.log.Debug("customer spawned",
		zap.Stringer("id", c.ID),
		zap.String("name", c.Name()),
		zap.Int("live", len(m.live)))
	event.Publish(m.bus, event.CustomerSpawned{
		ActorID:   c.ID,
		ActorName: c.Name(),
		Type:      c.Template.Type,
	})

	if err := m.mover.MoveTo(c, data.Reception); err != nil {
		return fmt.Errorf("spawn customer: %w", err)
	}
	return nil
}

func (m *CustomerManager) onDayCycleChanged(ev event.DayCycleChanged) {
	m.log.Debug("day cycle changed", zap.Stringer("state", ev.NewState))
	switch ev.NewState {
	case event.Day:
		m.active = true
	case event.Evening:
		m.active = false
		m.sendEveryoneHome()
	}
}

// sendEveryoneHome starts each tracked customer's walk to the exit without
// waiting for it, then forgets all of them.
func (m *CustomerManager) sendEveryoneHome() {
	for _, id := range m.live {
		c, ok := m.world.Customer(id)
		if !ok {
			continue
		}
		if err := m.mover.MoveTo(c, data.Exit); err != nil {
			m.fail(fmt.Errorf("send %s home: %w", c.Name(), err))
		}
	}
	if n := len(m.live); n > 0 {
		m.log.Info("customers sent home; no longer tracked while walking out", zap.Int("count", n))
	}
	m.live = m.live[:0]
}

// onDestinationStatus removes customers that have walked out of the tavern.
func (m *CustomerManager) onDestinationStatus(ev event.DestinationStatusChanged) {
	if ev.Progress != event.ProgressCompleted || ev.Destination != data.Exit {
		return
	}
	if _, ok := m.world.Customer(ev.ActorID); !ok {
		return
	}
	m.untrack(ev.ActorID)
	m.world.Despawn(ev.ActorID)
	event.Publish(m.bus, event.CustomerDeparted{
		ActorID:   ev.ActorID,
		ActorName: ev.ActorName,
	})
}

func (m *CustomerManager) untrack(id ecs.EntityID) {
	for i, live := range m.live {
		if live == id {
			m.live = append(m.live[:i], m.live[i+1:]...)
			return
		}
	}
}

func (m *CustomerManager) fail(err error) {
	m.log.Error("customer lifecycle failure", zap.Error(err))
	if m.err == nil {
		m.err = err
	}
}
