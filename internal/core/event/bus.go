package event

import (
	"reflect"
	"sync"
)

// Bus is a synchronous, type-keyed publish/subscribe registry. The event kind
// is the Go type of the published value. Handlers run on the publishing
// goroutine in subscription order.
//
// A publish issued from inside a handler is queued and delivered only after
// the outer publish has reached all of its handlers, so the call stack never
// re-enters dispatch.
type Bus struct {
	mu       sync.Mutex // only protects handlers and nextID
	handlers map[reflect.Type][]handler
	nextID   uint64

	// Dispatch state. Touched only by the tick goroutine.
	queue       []pending
	dispatching bool

	sink Sink
}

type handler struct {
	id uint64
	fn func(any)
}

type pending struct {
	kind reflect.Type
	ev   any
}

// Subscription identifies one registration made by Subscribe. The zero value
// is never returned and unsubscribing it is a no-op.
type Subscription struct {
	kind reflect.Type
	id   uint64
}

// NewBus creates an empty bus. Every publish is forwarded to sink before
// delivery; nil means no diagnostics.
func NewBus(sink Sink) *Bus {
	if sink == nil {
		sink = NopSink{}
	}
	return &Bus{
		handlers: make(map[reflect.Type][]handler),
		sink:     sink,
	}
}

func kindOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Subscribe registers fn for every future publish of T. Registering the same
// function twice yields two deliveries per publish.
func Subscribe[T any](b *Bus, fn func(T)) Subscription {
	t := kindOf[T]()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	h := handler{
		id: b.nextID,
		fn: func(ev any) {
			v, _ := ev.(T)
			fn(v)
		},
	}
	b.handlers[t] = append(b.handlers[t], h)
	return Subscription{kind: t, id: h.id}
}

// Unsubscribe removes the registration identified by s. Removing a
// subscription that is no longer registered does nothing.
func (b *Bus) Unsubscribe(s Subscription) {
	if s.kind == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.handlers[s.kind]
	for i, h := range list {
		if h.id != s.id {
			continue
		}
		// Copy so snapshots held by an in-flight delivery stay intact.
		next := append(list[:i:i], list[i+1:]...)
		if len(next) == 0 {
			delete(b.handlers, s.kind)
		} else {
			b.handlers[s.kind] = next
		}
		return
	}
}

// Publish delivers ev to every handler subscribed to T.
func Publish[T any](b *Bus, ev T) {
	b.publish(kindOf[T](), ev)
}

// SubscriberCount reports how many registrations exist for T.
func SubscriberCount[T any](b *Bus) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[kindOf[T]()])
}

// Clear drops every registration. Only meant for a full reset.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[reflect.Type][]handler)
}

func (b *Bus) publish(kind reflect.Type, ev any) {
	b.record(kind, ev)
	b.queue = append(b.queue, pending{kind: kind, ev: ev})
	if b.dispatching {
		return
	}
	b.dispatching = true
	defer func() { b.dispatching = false }()

	for len(b.queue) > 0 {
		p := b.queue[0]
		b.queue[0] = pending{}
		b.queue = b.queue[1:]
		b.deliver(p)
	}
	b.queue = b.queue[:0]
}

// deliver runs against a snapshot of the handler list, so subscriptions
// added or removed by a handler take effect from the next publish.
func (b *Bus) deliver(p pending) {
	b.mu.Lock()
	handlers := b.handlers[p.kind]
	b.mu.Unlock()

	for _, h := range handlers {
		b.invoke(p.kind, h, p.ev)
	}
}

func (b *Bus) invoke(kind reflect.Type, h handler, ev any) {
	defer func() {
		if r := recover(); r != nil {
			b.fault(kind, r)
		}
	}()
	h.fn(ev)
}

func (b *Bus) record(kind reflect.Type, ev any) {
	defer func() { _ = recover() }()
	b.sink.Event(kind.String(), ev)
}

func (b *Bus) fault(kind reflect.Type, r any) {
	defer func() { _ = recover() }()
	b.sink.Fault(kind.String(), r)
}
