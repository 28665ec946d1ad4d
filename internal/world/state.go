package world

import (
	"github.com/tavernsim/server/internal/core/ecs"
	"github.com/tavernsim/server/internal/data"
)

// State owns every character currently in the tavern. Accessed only from
// the game loop goroutine, so no locks.
//
// Despawned customers stay readable until FlushDespawned runs at the end of
// the tick, so handlers reacting to the same tick's events can still look
// them up.
type State struct {
	entities  *ecs.World
	customers *ecs.Store[Customer]
}

func NewState() *State {
	w := ecs.NewWorld()
	customers := ecs.NewStore[Customer]()
	w.Registry().Register(customers)
	return &State{entities: w, customers: customers}
}

// AddCustomer creates a customer entity at pos.
func (s *State) AddCustomer(tpl *data.CustomerTemplate, pos data.Vec2) *Customer {
	id := s.entities.CreateEntity()
	c := &Customer{
		ID:       id,
		Template: tpl,
		Position: pos,
		State:    StateIdle,
	}
	s.customers.Set(id, c)
	return c
}

// Customer returns the customer with the given ID, including ones queued
// for despawn this tick.
func (s *State) Customer(id ecs.EntityID) (*Customer, bool) {
	return s.customers.Get(id)
}

// Customers visits every customer in spawn order.
func (s *State) Customers(fn func(*Customer)) {
	s.customers.Each(func(_ ecs.EntityID, c *Customer) {
		fn(c)
	})
}

// CustomerCount includes customers queued for despawn this tick.
func (s *State) CustomerCount() int {
	return s.customers.Len()
}

// Despawn halts the customer's movement and queues it for destruction at the
// end of the tick. Unknown IDs are ignored.
func (s *State) Despawn(id ecs.EntityID) {
	c, ok := s.customers.Get(id)
	if !ok {
		return
	}
	if c.task != nil {
		c.task.cancelled = true
		c.task = nil
	}
	c.State = StateIdle
	c.Destination = ""
	s.entities.MarkForDestruction(id)
}

// PendingDespawn reports how many customers are queued for destruction.
func (s *State) PendingDespawn() int {
	return s.entities.PendingDestruction()
}

// FlushDespawned removes every queued customer and returns their IDs.
func (s *State) FlushDespawned() []ecs.EntityID {
	return s.entities.FlushDestroyQueue()
}
