package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/tavernsim/server/internal/config"
	"github.com/tavernsim/server/internal/core/event"
)

// DayCycleManager is the two-state day/evening driver. Every state change is
// published, including a change to the state it is already in.
//
// With zero lengths configured the cycle only moves on ChangeState. A
// non-zero length switches to the other state after that much tick time.
type DayCycleManager struct {
	bus *event.Bus
	log *zap.Logger

	state         event.TimeOfDay
	dayLength     time.Duration
	eveningLength time.Duration
	elapsed       time.Duration
}

func NewDayCycleManager(bus *event.Bus, cfg config.DayCycleConfig, log *zap.Logger) *DayCycleManager {
	return &DayCycleManager{
		bus:           bus,
		log:           log.Named("daycycle"),
		dayLength:     cfg.DayLength,
		eveningLength: cfg.EveningLength,
	}
}

func (m *DayCycleManager) Name() string { return "DayCycleManager" }

// Initialize opens the day. Managers that need the startup broadcast must be
// registered before this one.
func (m *DayCycleManager) Initialize() error {
	m.state = event.Day
	m.elapsed = 0
	event.Publish(m.bus, event.DayCycleChanged{NewState: m.state})
	m.log.Info("DayCycleManager initialized", zap.Stringer("state", m.state))
	return nil
}

func (m *DayCycleManager) Update(dt time.Duration) error {
	limit := m.dayLength
	if m.state == event.Evening {
		limit = m.eveningLength
	}
	if limit <= 0 {
		return nil
	}
	m.elapsed += dt
	if m.elapsed >= limit {
		m.ChangeState(m.next())
	}
	return nil
}

func (m *DayCycleManager) Dispose() error { return nil }

// ChangeState switches to s and publishes it unconditionally.
func (m *DayCycleManager) ChangeState(s event.TimeOfDay) {
	m.state = s
	m.elapsed = 0
	m.log.Info("day cycle changed", zap.Stringer("state", s))
	event.Publish(m.bus, event.DayCycleChanged{NewState: s})
}

// State returns the current phase.
func (m *DayCycleManager) State() event.TimeOfDay { return m.state }

func (m *DayCycleManager) next() event.TimeOfDay {
	if m.state == event.Day {
		return event.Evening
	}
	return event.Day
}
