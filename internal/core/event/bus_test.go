package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type ping struct{ N int }
type pong struct{ N int }

type recordingSink struct {
	events []string
	faults []string
}

func (s *recordingSink) Event(kind string, _ any) { s.events = append(s.events, kind) }
func (s *recordingSink) Fault(kind string, _ any) { s.faults = append(s.faults, kind) }

type panickingSink struct{}

func (panickingSink) Event(string, any) { panic("sink event") }
func (panickingSink) Fault(string, any) { panic("sink fault") }

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	b := NewBus(nil)
	var got []string
	Subscribe(b, func(p ping) { got = append(got, "a") })
	Subscribe(b, func(p ping) { got = append(got, "b") })
	Subscribe(b, func(p ping) { got = append(got, "c") })

	Publish(b, ping{N: 1})

	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestPublishOnlyReachesMatchingKind(t *testing.T) {
	b := NewBus(nil)
	pings, pongs := 0, 0
	Subscribe(b, func(ping) { pings++ })
	Subscribe(b, func(pong) { pongs++ })

	Publish(b, ping{})
	Publish(b, ping{})

	assert.Equal(t, 2, pings)
	assert.Zero(t, pongs)
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	sink := &recordingSink{}
	b := NewBus(sink)

	assert.NotPanics(t, func() { Publish(b, pong{N: 3}) })
	assert.Equal(t, []string{"event.pong"}, sink.events)
}

func TestDuplicateSubscriptionDeliversTwice(t *testing.T) {
	b := NewBus(nil)
	calls := 0
	fn := func(ping) { calls++ }
	first := Subscribe(b, fn)
	Subscribe(b, fn)

	Publish(b, ping{})
	assert.Equal(t, 2, calls)

	b.Unsubscribe(first)
	Publish(b, ping{})
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, SubscriberCount[ping](b))
}

func TestUnsubscribeUnknownIsNoop(t *testing.T) {
	b := NewBus(nil)
	sub := Subscribe(b, func(ping) {})

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	b.Unsubscribe(Subscription{})

	assert.Zero(t, SubscriberCount[ping](b))
}

func TestHandlerPanicDoesNotStopDelivery(t *testing.T) {
	sink := &recordingSink{}
	b := NewBus(sink)
	var got []int
	Subscribe(b, func(p ping) { got = append(got, 1) })
	Subscribe(b, func(p ping) { panic("boom") })
	Subscribe(b, func(p ping) { got = append(got, 3) })

	require.NotPanics(t, func() { Publish(b, ping{}) })

	assert.Equal(t, []int{1, 3}, got)
	assert.Equal(t, []string{"event.ping"}, sink.faults)
}

func TestNestedPublishIsQueued(t *testing.T) {
	b := NewBus(nil)
	var trace []string
	Subscribe(b, func(p ping) {
		trace = append(trace, "ping-1")
		Publish(b, pong{N: p.N})
		trace = append(trace, "ping-1 done")
	})
	Subscribe(b, func(p ping) { trace = append(trace, "ping-2") })
	Subscribe(b, func(p pong) { trace = append(trace, "pong") })

	Publish(b, ping{N: 7})

	assert.Equal(t, []string{"ping-1", "ping-1 done", "ping-2", "pong"}, trace)
}

func TestNestedPublishesKeepFIFOOrder(t *testing.T) {
	b := NewBus(nil)
	var seen []int
	Subscribe(b, func(p ping) {
		seen = append(seen, p.N)
		if p.N == 0 {
			Publish(b, ping{N: 1})
			Publish(b, ping{N: 2})
		}
		if p.N == 1 {
			Publish(b, ping{N: 3})
		}
	})

	Publish(b, ping{N: 0})

	assert.Equal(t, []int{0, 1, 2, 3}, seen)
}

func TestSubscribeDuringDeliveryTakesEffectNextPublish(t *testing.T) {
	b := NewBus(nil)
	late := 0
	var once bool
	Subscribe(b, func(ping) {
		if !once {
			once = true
			Subscribe(b, func(ping) { late++ })
		}
	})

	Publish(b, ping{})
	assert.Zero(t, late)

	Publish(b, ping{})
	assert.Equal(t, 1, late)
}

func TestUnsubscribeDuringDeliveryKeepsSnapshot(t *testing.T) {
	b := NewBus(nil)
	calls := 0
	var second Subscription
	Subscribe(b, func(ping) { b.Unsubscribe(second) })
	second = Subscribe(b, func(ping) { calls++ })

	Publish(b, ping{})
	Publish(b, ping{})

	assert.Equal(t, 1, calls)
}

func TestSinkSeesEveryPublishBeforeDelivery(t *testing.T) {
	sink := &recordingSink{}
	b := NewBus(sink)
	var atDelivery int
	Subscribe(b, func(ping) { atDelivery = len(sink.events) })

	Publish(b, ping{})

	assert.Equal(t, 1, atDelivery)
}

func TestPanickingSinkIsSwallowed(t *testing.T) {
	b := NewBus(MultiSink{panickingSink{}})
	calls := 0
	Subscribe(b, func(ping) { calls++ })
	Subscribe(b, func(ping) { panic("handler") })

	require.NotPanics(t, func() { Publish(b, ping{}) })
	assert.Equal(t, 1, calls)
}

func TestMultiSinkContinuesPastPanickingSink(t *testing.T) {
	rec := &recordingSink{}
	m := MultiSink{panickingSink{}, rec}

	m.Event("k", nil)
	m.Fault("k", "x")

	assert.Equal(t, []string{"k"}, rec.events)
	assert.Equal(t, []string{"k"}, rec.faults)
}

func TestClearDropsAllSubscriptions(t *testing.T) {
	b := NewBus(nil)
	calls := 0
	Subscribe(b, func(ping) { calls++ })
	Subscribe(b, func(pong) { calls++ })

	b.Clear()
	Publish(b, ping{})
	Publish(b, pong{})

	assert.Zero(t, calls)
	assert.Zero(t, SubscriberCount[ping](b))
}

func TestZapSinkLogsEventsAndFaults(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := NewBus(NewZapSink(zap.New(core)))
	Subscribe(b, func(DayCycleChanged) { panic("bad handler") })

	Publish(b, DayCycleChanged{NewState: Evening})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "events", entries[0].LoggerName)
	assert.Equal(t, "event published", entries[0].Message)
	assert.Equal(t, "event.DayCycleChanged", entries[0].ContextMap()["kind"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "event handler panicked", entries[1].Message)
}
