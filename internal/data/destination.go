package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DestinationID names a location characters can walk to.
type DestinationID string

const (
	Exit      DestinationID = "exit"
	Reception DestinationID = "reception"
)

// ErrUnknownDestination is returned when a destination has no configured position.
var ErrUnknownDestination = errors.New("unknown destination")

// DestinationEntry is one row of destinations.yaml.
type DestinationEntry struct {
	ID       DestinationID `yaml:"id"`
	Position Vec2          `yaml:"position"`
	Note     string        `yaml:"note"`
}

// DestinationTable resolves destination IDs to fixed positions. Read-only
// after load.
type DestinationTable struct {
	byID  map[DestinationID]*DestinationEntry
	order []DestinationID
}

// LoadDestinationTable loads destinations.yaml.
func LoadDestinationTable(path string) (*DestinationTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read destination list: %w", err)
	}
	var entries []DestinationEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse destination list: %w", err)
	}
	return NewDestinationTable(entries)
}

func NewDestinationTable(entries []DestinationEntry) (*DestinationTable, error) {
	t := &DestinationTable{
		byID:  make(map[DestinationID]*DestinationEntry, len(entries)),
		order: make([]DestinationID, 0, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		if e.ID == "" {
			return nil, fmt.Errorf("destination #%d: missing id", i)
		}
		if _, dup := t.byID[e.ID]; dup {
			return nil, fmt.Errorf("destination %q: duplicate id", e.ID)
		}
		t.byID[e.ID] = e
		t.order = append(t.order, e.ID)
	}
	return t, nil
}

// Resolve returns the position of id or an error wrapping ErrUnknownDestination.
func (t *DestinationTable) Resolve(id DestinationID) (Vec2, error) {
	e, ok := t.byID[id]
	if !ok {
		return Vec2{}, fmt.Errorf("%w: %q", ErrUnknownDestination, id)
	}
	return e.Position, nil
}

// Require fails if any of ids cannot be resolved.
func (t *DestinationTable) Require(ids ...DestinationID) error {
	var errs []error
	for _, id := range ids {
		if _, err := t.Resolve(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IDs returns destination IDs in file order.
func (t *DestinationTable) IDs() []DestinationID {
	out := make([]DestinationID, len(t.order))
	copy(out, t.order)
	return out
}

// Count returns the number of destinations loaded.
func (t *DestinationTable) Count() int {
	return len(t.byID)
}
