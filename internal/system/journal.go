package system

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tavernsim/server/internal/persist"
)

// JournalWriter stores a batch of journal entries.
type JournalWriter interface {
	WriteJournal(ctx context.Context, entries []persist.JournalEntry) error
}

// JournalSystem is an event.Sink that buffers every published event and a
// Manager that writes the buffer out every interval ticks. Write failures
// are logged and the batch is dropped; the journal never stops the loop.
type JournalSystem struct {
	writer      JournalWriter
	log         *zap.Logger
	ticks       func() uint64
	interval    int
	maxBuffered int

	buf        []persist.JournalEntry
	sinceFlush int
	dropped    int
	now        func() time.Time
}

// NewJournalSystem buffers at most maxBuffered entries (0 = unbounded);
// ticks reports the current frame number for each entry.
func NewJournalSystem(writer JournalWriter, ticks func() uint64, intervalTicks, maxBuffered int, log *zap.Logger) *JournalSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &JournalSystem{
		writer:      writer,
		log:         log.Named("journal"),
		ticks:       ticks,
		interval:    intervalTicks,
		maxBuffered: maxBuffered,
		buf:         make([]persist.JournalEntry, 0, 64),
		now:         time.Now,
	}
}

func (s *JournalSystem) Name() string      { return "JournalSystem" }
func (s *JournalSystem) Initialize() error { return nil }

func (s *JournalSystem) Update(_ time.Duration) error {
	s.sinceFlush++
	if s.sinceFlush < s.interval {
		return nil
	}
	s.sinceFlush = 0
	s.flush()
	return nil
}

// Dispose writes whatever is still buffered.
func (s *JournalSystem) Dispose() error {
	s.flush()
	if s.dropped > 0 {
		s.log.Warn("journal entries dropped during run", zap.Int("dropped", s.dropped))
	}
	return nil
}

func (s *JournalSystem) Event(kind string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw, _ = json.Marshal(map[string]string{"unencodable": fmt.Sprintf("%+v", payload)})
	}
	s.append(persist.JournalEntry{Kind: kind, Payload: raw})
}

func (s *JournalSystem) Fault(kind string, recovered any) {
	raw, _ := json.Marshal(map[string]string{"panic": fmt.Sprint(recovered)})
	s.append(persist.JournalEntry{Kind: kind, Fault: true, Payload: raw})
}

// Buffered returns the number of entries waiting for the next flush.
func (s *JournalSystem) Buffered() int { return len(s.buf) }

// Dropped returns the number of entries lost to overflow or write failures.
func (s *JournalSystem) Dropped() int { return s.dropped }

func (s *JournalSystem) append(e persist.JournalEntry) {
	e.Tick = s.ticks()
	e.RecordedAt = s.now()
	if s.maxBuffered > 0 && len(s.buf) >= s.maxBuffered {
		copy(s.buf, s.buf[1:])
		s.buf = s.buf[:len(s.buf)-1]
		s.dropped++
	}
	s.buf = append(s.buf, e)
}

func (s *JournalSystem) flush() {
	if len(s.buf) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := len(s.buf)
	if err := s.writer.WriteJournal(ctx, s.buf); err != nil {
		s.dropped += n
		s.log.Warn("journal write failed, batch dropped", zap.Int("entries", n), zap.Error(err))
	} else {
		s.log.Debug("journal flushed", zap.Int("entries", n))
	}
	s.buf = make([]persist.JournalEntry, 0, cap(s.buf))
}
