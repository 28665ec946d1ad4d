package event

import "go.uber.org/zap"

// Sink receives a copy of every published event and every handler fault.
// Implementations must not block; the bus swallows sink panics.
type Sink interface {
	Event(kind string, payload any)
	Fault(kind string, recovered any)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Event(string, any) {}
func (NopSink) Fault(string, any) {}

// MultiSink fans out to several sinks in order. A panicking sink does not
// stop the others.
type MultiSink []Sink

func (m MultiSink) Event(kind string, payload any) {
	for _, s := range m {
		func() {
			defer func() { _ = recover() }()
			s.Event(kind, payload)
		}()
	}
}

func (m MultiSink) Fault(kind string, recovered any) {
	for _, s := range m {
		func() {
			defer func() { _ = recover() }()
			s.Fault(kind, recovered)
		}()
	}
}

// ZapSink writes events to a zap logger under the "events" category.
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log.Named("events")}
}

func (s *ZapSink) Event(kind string, payload any) {
	s.log.Info("event published", zap.String("kind", kind), zap.Any("data", payload))
}

func (s *ZapSink) Fault(kind string, recovered any) {
	s.log.Error("event handler panicked",
		zap.String("kind", kind),
		zap.Any("panic", recovered),
		zap.Stack("stack"),
	)
}
