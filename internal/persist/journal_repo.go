package persist

import (
	"context"
	"fmt"
	"time"
)

// JournalEntry is one published event (or handler fault) captured for
// offline inspection of a run.
type JournalEntry struct {
	Tick       uint64
	Kind       string
	Fault      bool
	Payload    []byte // JSON
	RecordedAt time.Time
}

type JournalRepo struct {
	db    *DB
	runID string
}

// NewJournalRepo writes entries tagged with runID, so several runs can share
// one table.
func NewJournalRepo(db *DB, runID string) *JournalRepo {
	return &JournalRepo{db: db, runID: runID}
}

func (r *JournalRepo) RunID() string { return r.runID }

// WriteJournal atomically writes a batch of entries in a single transaction.
func (r *JournalRepo) WriteJournal(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO event_journal (run_id, tick, kind, fault, payload, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			r.runID, int64(e.Tick), e.Kind, e.Fault, e.Payload, e.RecordedAt,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// CountByKind returns how many entries this run has written per event kind.
func (r *JournalRepo) CountByKind(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT kind, COUNT(*) FROM event_journal WHERE run_id = $1 GROUP BY kind`,
		r.runID,
	)
	if err != nil {
		return nil, fmt.Errorf("journal count: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("journal count scan: %w", err)
		}
		out[kind] = n
	}
	return out, rows.Err()
}
