package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// Store is a typed component store that remembers insertion order, so
// iteration (and therefore event order across entities) is deterministic.
type Store[T any] struct {
	index map[EntityID]int
	ids   []EntityID
	items []*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		index: make(map[EntityID]int, 32),
		ids:   make([]EntityID, 0, 32),
		items: make([]*T, 0, 32),
	}
}

// Set attaches c to id, replacing any previous component in place.
func (s *Store[T]) Set(id EntityID, c *T) {
	if i, ok := s.index[id]; ok {
		s.items[i] = c
		return
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	s.items = append(s.items, c)
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.items[i], true
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.index[id]
	return ok
}

// Remove drops id and keeps the relative order of the remaining entries.
func (s *Store[T]) Remove(id EntityID) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	delete(s.index, id)
	copy(s.ids[i:], s.ids[i+1:])
	s.ids = s.ids[:len(s.ids)-1]
	copy(s.items[i:], s.items[i+1:])
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	for j := i; j < len(s.ids); j++ {
		s.index[s.ids[j]] = j
	}
}

func (s *Store[T]) Len() int {
	return len(s.ids)
}

// Each visits entries in insertion order. fn may add or remove entries;
// the visit covers the entries present when Each was called.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	ids := make([]EntityID, len(s.ids))
	copy(ids, s.ids)
	for _, id := range ids {
		if c, ok := s.Get(id); ok {
			fn(id, c)
		}
	}
}
