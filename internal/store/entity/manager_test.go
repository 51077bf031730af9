package entity

import (
	"testing"
	"time"
)

// note is a minimal record type for exercising the manager.
type note struct {
	ID        string
	Body      string
	Rank      int
	UpdatedAt time.Time
}

func (n note) EntityID() string { return n.ID }
func (n note) Stamp(now time.Time) note {
	n.UpdatedAt = now
	return n
}

func invariantHolds[T Record[T]](t *testing.T, m *Manager[T]) {
	t.Helper()
	s := m.State()
	if len(s.AllIDs) != len(s.ByID) {
		t.Fatalf("index has %d ids, map has %d records", len(s.AllIDs), len(s.ByID))
	}
	seen := make(map[string]bool, len(s.AllIDs))
	for _, id := range s.AllIDs {
		if seen[id] {
			t.Fatalf("duplicate id %q in index", id)
		}
		seen[id] = true
		if _, ok := s.ByID[id]; !ok {
			t.Fatalf("id %q in index but not in map", id)
		}
	}
}

func TestAdd_IdempotentOnID(t *testing.T) {
	m := NewManager[note]()
	m.Add(note{ID: "a", Body: "one"})
	m.Add(note{ID: "a", Body: "two"})

	if m.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", m.Count())
	}
	got, _ := m.Get("a")
	if got.Body != "two" {
		t.Errorf("re-add should overwrite, got body %q", got.Body)
	}
	invariantHolds(t, m)
}

func TestAdd_PreservesInsertionOrder(t *testing.T) {
	m := NewManager[note]()
	m.AddMany([]note{{ID: "c"}, {ID: "a"}, {ID: "b"}})

	all := m.All()
	want := []string{"c", "a", "b"}
	for i, rec := range all {
		if rec.ID != want[i] {
			t.Errorf("All()[%d].ID = %q, want %q", i, rec.ID, want[i])
		}
	}
	invariantHolds(t, m)
}

func TestUpdate_StampsUpdatedAt(t *testing.T) {
	m := NewManager[note]()
	m.Add(note{ID: "a", Body: "old"})

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ok := m.Update("a", now, func(n note) note {
		n.Body = "new"
		return n
	})
	if !ok {
		t.Fatal("Update returned false for existing id")
	}
	got, _ := m.Get("a")
	if got.Body != "new" {
		t.Errorf("Body = %q, want %q", got.Body, "new")
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, now)
	}
}

func TestUpdate_UnknownIDIsNoop(t *testing.T) {
	m := NewManager[note]()
	if m.Update("ghost", time.Now(), func(n note) note { return n }) {
		t.Error("Update on unknown id should return false")
	}
	if m.Count() != 0 {
		t.Error("Update on unknown id must not create a record")
	}
}

func TestRemove(t *testing.T) {
	m := NewManager[note]()
	m.AddMany([]note{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	if !m.Remove("b") {
		t.Fatal("Remove returned false for existing id")
	}
	if m.Remove("b") {
		t.Error("second Remove should be a no-op returning false")
	}
	if m.Has("b") {
		t.Error("removed id still present")
	}

	all := m.All()
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "c" {
		t.Errorf("order after removal = %v", all)
	}
	invariantHolds(t, m)
}

func TestRemoveMany_SkipsUnknown(t *testing.T) {
	m := NewManager[note]()
	m.AddMany([]note{{ID: "a"}, {ID: "b"}})
	m.RemoveMany([]string{"a", "ghost"})
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
	invariantHolds(t, m)
}

func TestQueryFindSort(t *testing.T) {
	m := NewManager[note]()
	m.AddMany([]note{
		{ID: "a", Rank: 3},
		{ID: "b", Rank: 1},
		{ID: "c", Rank: 2},
	})

	high := m.Query(func(n note) bool { return n.Rank >= 2 })
	if len(high) != 2 {
		t.Fatalf("Query returned %d records, want 2", len(high))
	}

	first, ok := m.Find(func(n note) bool { return n.Rank == 2 })
	if !ok || first.ID != "c" {
		t.Errorf("Find = (%v, %v), want c", first, ok)
	}

	sorted := m.SortBy(func(a, b note) bool { return a.Rank < b.Rank })
	if sorted[0].ID != "b" || sorted[2].ID != "a" {
		t.Errorf("SortBy order = %v", sorted)
	}
	// SortBy must not reorder the stored index.
	if all := m.All(); all[0].ID != "a" {
		t.Error("SortBy mutated stored order")
	}
}

func TestGroupBy(t *testing.T) {
	m := NewManager[note]()
	m.AddMany([]note{
		{ID: "a", Body: "x"},
		{ID: "b", Body: "y"},
		{ID: "c", Body: "x"},
	})
	groups := m.GroupBy(func(n note) string { return n.Body })
	if len(groups["x"]) != 2 || len(groups["y"]) != 1 {
		t.Errorf("GroupBy = %v", groups)
	}
	if groups["x"][0].ID != "a" || groups["x"][1].ID != "c" {
		t.Error("GroupBy should preserve index order inside buckets")
	}
}

func TestPaginate(t *testing.T) {
	m := NewManager[note]()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		m.Add(note{ID: id})
	}

	tests := []struct {
		page, size int
		wantIDs    []string
	}{
		{1, 2, []string{"a", "b"}},
		{2, 2, []string{"c", "d"}},
		{3, 2, []string{"e"}},
		{4, 2, nil},
		{0, 2, nil},
		{1, 0, nil},
	}
	for _, tt := range tests {
		got := m.Paginate(tt.page, tt.size)
		if len(got) != len(tt.wantIDs) {
			t.Errorf("Paginate(%d,%d) returned %d records, want %d", tt.page, tt.size, len(got), len(tt.wantIDs))
			continue
		}
		for i, rec := range got {
			if rec.ID != tt.wantIDs[i] {
				t.Errorf("Paginate(%d,%d)[%d] = %q, want %q", tt.page, tt.size, i, rec.ID, tt.wantIDs[i])
			}
		}
	}
}

func TestFromState_ToleratesIndexDrift(t *testing.T) {
	s := State[note]{
		ByID:   map[string]note{"a": {ID: "a"}},
		AllIDs: []string{"a", "phantom"},
	}
	m := FromState(s)
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
	if len(m.All()) != 1 {
		t.Error("All() should filter ids missing from the map")
	}
	invariantHolds(t, m)
}

func TestState_ReturnsCopies(t *testing.T) {
	m := NewManager[note]()
	m.Add(note{ID: "a", Body: "orig"})

	s := m.State()
	s.ByID["a"] = note{ID: "a", Body: "mutated"}
	s.AllIDs[0] = "mutated"

	got, _ := m.Get("a")
	if got.Body != "orig" {
		t.Error("State() must return a detached copy of the map")
	}
	if m.All()[0].ID != "a" {
		t.Error("State() must return a detached copy of the index")
	}
}

func TestClear(t *testing.T) {
	m := NewManager[note]()
	m.AddMany([]note{{ID: "a"}, {ID: "b"}})
	m.Clear()
	if m.Count() != 0 || len(m.All()) != 0 {
		t.Error("Clear should drop every record")
	}
	invariantHolds(t, m)
}
