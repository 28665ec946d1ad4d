package event

import (
	"github.com/tavernsim/server/internal/core/ecs"
	"github.com/tavernsim/server/internal/data"
)

// TimeOfDay is the day-cycle phase. Customers only arrive during Day.
type TimeOfDay int

const (
	Day TimeOfDay = iota
	Evening
)

func (t TimeOfDay) String() string {
	switch t {
	case Day:
		return "Day"
	case Evening:
		return "Evening"
	}
	return "Unknown"
}

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ProgressState is the outcome of a movement task at the moment it was published.
type ProgressState int

const (
	ProgressNone ProgressState = iota
	ProgressInProgress
	ProgressCompleted
	ProgressFailed
)

func (p ProgressState) String() string {
	switch p {
	case ProgressNone:
		return "None"
	case ProgressInProgress:
		return "InProgress"
	case ProgressCompleted:
		return "Completed"
	case ProgressFailed:
		return "Failed"
	}
	return "Unknown"
}

func (p ProgressState) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

type DayCycleChanged struct {
	NewState TimeOfDay `json:"new_state"`
}

type DestinationStatusChanged struct {
	ActorID     ecs.EntityID       `json:"actor_id"`
	ActorName   string             `json:"character_name"`
	Destination data.DestinationID `json:"destination"`
	Progress    ProgressState      `json:"progress"`
}

type CustomerSpawned struct {
	ActorID   ecs.EntityID      `json:"actor_id"`
	ActorName string            `json:"character_name"`
	Type      data.CustomerType `json:"customer_type"`
}

type CustomerDeparted struct {
	ActorID   ecs.EntityID `json:"actor_id"`
	ActorName string       `json:"character_name"`
}
