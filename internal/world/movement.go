package world

import (
	"fmt"
	"time"

	"github.com/tavernsim/server/internal/core/event"
	"github.com/tavernsim/server/internal/data"
)

// DefaultArrivalEpsilon is how close (in world units) a character must get
// to its target before the move counts as completed.
const DefaultArrivalEpsilon = 0.1

// DestinationResolver maps a destination to its position.
type DestinationResolver interface {
	Resolve(id data.DestinationID) (data.Vec2, error)
}

// MoveTask is one in-flight move. It ends by arriving, by being superseded
// by a newer MoveTo, or by its customer being despawned. Both end states are
// terminal: a cancelled task never completes and a completed task is never
// cancelled.
type MoveTask struct {
	dest      data.DestinationID
	target    data.Vec2
	cancelled bool
	done      bool
	travelled float64
	elapsed   time.Duration
}

func (t *MoveTask) Destination() data.DestinationID { return t.dest }
func (t *MoveTask) Target() data.Vec2                { return t.target }
func (t *MoveTask) Cancelled() bool                  { return t.cancelled }
func (t *MoveTask) Done() bool                       { return t.done }
func (t *MoveTask) Live() bool                       { return !t.cancelled && !t.done }
func (t *MoveTask) Travelled() float64               { return t.travelled }
func (t *MoveTask) Elapsed() time.Duration           { return t.elapsed }

// Mover starts movement tasks and advances them one tick at a time. A task
// never runs on its own goroutine; MovementSystem calls Step once per tick.
type Mover struct {
	bus     *event.Bus
	dests   DestinationResolver
	speed   float64 // world units per second
	epsilon float64
}

func NewMover(bus *event.Bus, dests DestinationResolver, speed, epsilon float64) *Mover {
	if epsilon <= 0 {
		epsilon = DefaultArrivalEpsilon
	}
	return &Mover{bus: bus, dests: dests, speed: speed, epsilon: epsilon}
}

// MoveTo sends c toward dest. A move already in flight is cancelled first and
// reported as Failed for its own destination, then the new move is reported
// as InProgress. An unresolvable dest leaves c untouched.
func (m *Mover) MoveTo(c *Customer, dest data.DestinationID) error {
	target, err := m.dests.Resolve(dest)
	if err != nil {
		return fmt.Errorf("move %s: %w", c.Name(), err)
	}

	old := c.task
	if old != nil && !old.Live() {
		old = nil
	}
	if old != nil {
		old.cancelled = true
	}

	c.task = &MoveTask{dest: dest, target: target}
	c.Destination = dest
	c.State = StateMoving

	if old != nil {
		m.publish(c, old.dest, event.ProgressFailed)
	}
	m.publish(c, dest, event.ProgressInProgress)
	return nil
}

// Step advances c's live task by dt. The position moves at most speed×dt
// toward the target; once the remaining distance is within epsilon the task
// completes and Completed is published. Idle customers are left alone.
func (m *Mover) Step(c *Customer, dt time.Duration) {
	t := c.task
	if t == nil || !t.Live() {
		return
	}
	t.elapsed += dt

	next := data.MoveTowards(c.Position, t.target, m.speed*dt.Seconds())
	t.travelled += data.Distance(c.Position, next)
	c.Position = next

	if data.Distance(c.Position, t.target) > m.epsilon {
		return
	}
	t.done = true
	c.task = nil
	c.State = StateIdle
	c.Destination = ""
	c.At = t.dest
	m.publish(c, t.dest, event.ProgressCompleted)
}

// Halt cancels c's live task without publishing anything.
func (m *Mover) Halt(c *Customer) {
	if c.task != nil && c.task.Live() {
		c.task.cancelled = true
	}
	c.task = nil
	c.State = StateIdle
	c.Destination = ""
}

func (m *Mover) publish(c *Customer, dest data.DestinationID, p event.ProgressState) {
	event.Publish(m.bus, event.DestinationStatusChanged{
		ActorID:     c.ID,
		ActorName:   c.Name(),
		Destination: dest,
		Progress:    p,
	})
}
