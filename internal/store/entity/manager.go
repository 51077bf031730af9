// Package entity implements generic CRUD over a normalized collection of
// records sharing the common identity/timestamp shape. It never touches
// storage and never emits events; that is the caller's responsibility.
package entity

import (
	"sort"
	"time"
)

// Record is the self-referential constraint every managed type satisfies:
// identity plus a value-copy Stamp that refreshes UpdatedAt.
type Record[T any] interface {
	EntityID() string
	Stamp(now time.Time) T
}

// State is the serializable normalized shape of one collection.
// Invariants: AllIDs holds no duplicates, set(AllIDs) == set(keys(ByID)),
// and insertion order is preserved unless explicitly reordered.
type State[T Record[T]] struct {
	ByID        map[string]T `json:"byId"`
	AllIDs      []string     `json:"allIds"`
	Loading     bool         `json:"loading"`
	Error       string       `json:"error,omitempty"`
	LastUpdated *time.Time   `json:"lastUpdated,omitempty"`
}

// NewState returns an empty, well-formed state.
func NewState[T Record[T]]() State[T] {
	return State[T]{
		ByID:   make(map[string]T),
		AllIDs: []string{},
	}
}

// Manager provides the mutation and query surface over one collection.
type Manager[T Record[T]] struct {
	byID   map[string]T
	allIDs []string
}

// NewManager creates an empty manager.
func NewManager[T Record[T]]() *Manager[T] {
	return &Manager[T]{byID: make(map[string]T)}
}

// FromState creates a manager seeded from an existing normalized state.
// The input is copied; later mutations do not alias the source.
func FromState[T Record[T]](s State[T]) *Manager[T] {
	m := NewManager[T]()
	for _, id := range s.AllIDs {
		rec, ok := s.ByID[id]
		if !ok {
			continue // tolerate index drift on load
		}
		m.Add(rec)
	}
	return m
}

// ─── Mutations ──────────────────────────────────────────────────────────────

// Add inserts a record. Idempotent on id: re-adding an existing id overwrites
// the record without duplicating the index.
func (m *Manager[T]) Add(rec T) {
	id := rec.EntityID()
	if _, exists := m.byID[id]; !exists {
		m.allIDs = append(m.allIDs, id)
	}
	m.byID[id] = rec
}

// AddMany inserts records preserving argument order.
func (m *Manager[T]) AddMany(recs []T) {
	for _, rec := range recs {
		m.Add(rec)
	}
}

// Update applies mutate to the record and stamps UpdatedAt. A no-op on an
// unknown id; callers check existence first if absence should be an error.
// Returns whether the record existed.
func (m *Manager[T]) Update(id string, now time.Time, mutate func(T) T) bool {
	rec, ok := m.byID[id]
	if !ok {
		return false
	}
	m.byID[id] = mutate(rec).Stamp(now)
	return true
}

// Remove deletes a record and its index entry. A no-op on an unknown id.
func (m *Manager[T]) Remove(id string) bool {
	if _, ok := m.byID[id]; !ok {
		return false
	}
	delete(m.byID, id)
	for i, existing := range m.allIDs {
		if existing == id {
			m.allIDs = append(m.allIDs[:i:i], m.allIDs[i+1:]...)
			break
		}
	}
	return true
}

// RemoveMany deletes each id, skipping unknown ones.
func (m *Manager[T]) RemoveMany(ids []string) {
	for _, id := range ids {
		m.Remove(id)
	}
}

// Clear drops every record.
func (m *Manager[T]) Clear() {
	m.byID = make(map[string]T)
	m.allIDs = nil
}

// ─── Queries ────────────────────────────────────────────────────────────────

// Get returns the record for id.
func (m *Manager[T]) Get(id string) (T, bool) {
	rec, ok := m.byID[id]
	return rec, ok
}

// Has reports whether id is present.
func (m *Manager[T]) Has(id string) bool {
	_, ok := m.byID[id]
	return ok
}

// Count returns the number of records.
func (m *Manager[T]) Count() int { return len(m.byID) }

// All materializes every record in AllIDs order. Ids present in the index but
// absent from the map are filtered out rather than crashing.
func (m *Manager[T]) All() []T {
	out := make([]T, 0, len(m.allIDs))
	for _, id := range m.allIDs {
		if rec, ok := m.byID[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Query returns every record matching the predicate, in index order.
func (m *Manager[T]) Query(pred func(T) bool) []T {
	var out []T
	for _, id := range m.allIDs {
		rec, ok := m.byID[id]
		if ok && pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Find returns the first record matching the predicate in index order.
func (m *Manager[T]) Find(pred func(T) bool) (T, bool) {
	for _, id := range m.allIDs {
		rec, ok := m.byID[id]
		if ok && pred(rec) {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// SortBy returns all records ordered by the comparison function. The stored
// index order is untouched.
func (m *Manager[T]) SortBy(less func(a, b T) bool) []T {
	out := m.All()
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// GroupBy buckets records by the key function, preserving index order within
// each bucket.
func (m *Manager[T]) GroupBy(key func(T) string) map[string][]T {
	out := make(map[string][]T)
	for _, rec := range m.All() {
		k := key(rec)
		out[k] = append(out[k], rec)
	}
	return out
}

// Paginate returns the 1-based page of the given size in index order.
func (m *Manager[T]) Paginate(page, size int) []T {
	if page < 1 || size < 1 {
		return nil
	}
	all := m.All()
	start := (page - 1) * size
	if start >= len(all) {
		return nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// ─── Snapshot ───────────────────────────────────────────────────────────────

// State snapshots the collection back to its normalized shape. The returned
// map and slice are copies.
func (m *Manager[T]) State() State[T] {
	s := State[T]{
		ByID:   make(map[string]T, len(m.byID)),
		AllIDs: make([]string, len(m.allIDs)),
	}
	for id, rec := range m.byID {
		s.ByID[id] = rec
	}
	copy(s.AllIDs, m.allIDs)
	return s
}
