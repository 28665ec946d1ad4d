package system

import (
	"time"

	"github.com/tavernsim/server/internal/world"
)

// MovementSystem resumes every in-flight movement task once per tick.
// Register it after the managers that start moves, so a move started this
// tick also takes its first step this tick.
type MovementSystem struct {
	world *world.State
	mover *world.Mover
}

func NewMovementSystem(ws *world.State, mover *world.Mover) *MovementSystem {
	return &MovementSystem{world: ws, mover: mover}
}

func (s *MovementSystem) Name() string      { return "MovementSystem" }
func (s *MovementSystem) Initialize() error { return nil }
func (s *MovementSystem) Dispose() error    { return nil }

func (s *MovementSystem) Update(dt time.Duration) error {
	s.world.Customers(func(c *world.Customer) {
		s.mover.Step(c, dt)
	})
	return nil
}
