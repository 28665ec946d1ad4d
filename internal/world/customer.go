package world

import (
	"github.com/tavernsim/server/internal/core/ecs"
	"github.com/tavernsim/server/internal/data"
)

// CharacterState is the coarse activity of a character.
type CharacterState int

const (
	StateIdle CharacterState = iota
	StateMoving
)

func (s CharacterState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateMoving:
		return "Moving"
	}
	return "Unknown"
}

// Customer is a guest in the tavern. Accessed only from the tick goroutine.
type Customer struct {
	ID       ecs.EntityID
	Template *data.CustomerTemplate
	Position data.Vec2
	State    CharacterState

	// Destination is where the customer is heading; empty while idle.
	Destination data.DestinationID
	// At is the last destination the customer reached; empty before the first arrival.
	At data.DestinationID

	task *MoveTask // nil while idle
}

func (c *Customer) Name() string {
	if c.Template == nil {
		return c.ID.String()
	}
	return c.Template.Name
}

// Task returns the live movement task, or nil when the customer is idle.
func (c *Customer) Task() *MoveTask { return c.task }

// Moving reports whether a movement task is in flight.
func (c *Customer) Moving() bool { return c.task != nil && c.task.Live() }
