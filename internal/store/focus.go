package store

import (
	"time"

	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/store/entity"
)

// ─── Focus Slice ────────────────────────────────────────────────────────────

// FocusSettings are focus-domain preferences, persisted with the slice.
type FocusSettings struct {
	DefaultTargetMinutes int  `json:"defaultTargetMinutes"`
	SoundEnabled         bool `json:"soundEnabled"`
}

// FocusStats are denormalized counters maintained on session completion.
type FocusStats struct {
	TotalSessions     int        `json:"totalSessions"`
	TotalFocusMinutes int        `json:"totalFocusMinutes"`
	TotalSeedsEarned  int        `json:"totalSeedsEarned"`
	LastSessionAt     *time.Time `json:"lastSessionAt,omitempty"`
}

// FocusState is the durable shape of the focus slice.
type FocusState struct {
	Sessions   entity.State[domain.FocusSession] `json:"sessions"`
	Categories entity.State[domain.Category]     `json:"categories"`
	Tags       entity.State[domain.Tag]          `json:"tags"`
	Settings   FocusSettings                     `json:"settings"`
	Stats      FocusStats                        `json:"stats"`
}

// FocusSlice owns sessions, categories and tags.
type FocusSlice struct {
	st          *Store
	sessions    *entity.Manager[domain.FocusSession]
	categories  *entity.Manager[domain.Category]
	tags        *entity.Manager[domain.Tag]
	settings    FocusSettings
	stats       FocusStats
	lastUpdated *time.Time
}

func newFocusSlice(st *Store) *FocusSlice {
	return &FocusSlice{
		st:         st,
		sessions:   entity.NewManager[domain.FocusSession](),
		categories: entity.NewManager[domain.Category](),
		tags:       entity.NewManager[domain.Tag](),
		settings:   FocusSettings{DefaultTargetMinutes: 25, SoundEnabled: true},
	}
}

func (f *FocusSlice) touch() {
	now := f.st.now()
	f.lastUpdated = &now
}

// ─── Category Actions ───────────────────────────────────────────────────────

// CreateCategory adds a category.
func (f *FocusSlice) CreateCategory(name, icon, color string, isDefault bool) (domain.Category, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()

	if name == "" {
		return domain.Category{}, domain.NewValidation("category_name", "category name is required")
	}
	c := domain.Category{
		Base:      domain.NewBase(f.st.newID(), f.st.now()),
		Name:      name,
		Icon:      icon,
		Color:     color,
		IsDefault: isDefault,
	}
	f.categories.Add(c)
	f.touch()
	f.st.emit(domain.EventCategoryCreated, c)
	return c, nil
}

// UpdateCategory mutates an existing category.
func (f *FocusSlice) UpdateCategory(id string, mutate func(domain.Category) domain.Category) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()

	if !f.categories.Update(id, f.st.now(), mutate) {
		return &domain.NotFoundError{Kind: "category", ID: id}
	}
	f.touch()
	if c, ok := f.categories.Get(id); ok {
		f.st.emit(domain.EventCategoryUpdated, c)
	}
	return nil
}

// DeleteCategory removes a category. Deletion is refused while any session or
// task still references it.
func (f *FocusSlice) DeleteCategory(id string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()

	if !f.categories.Has(id) {
		return &domain.NotFoundError{Kind: "category", ID: id}
	}
	if _, used := f.sessions.Find(func(s domain.FocusSession) bool { return s.CategoryID == id }); used {
		return domain.NewValidation("category_in_use", "category %q is referenced by a session", id)
	}
	if _, used := f.st.tasks.tasks.Find(func(t domain.Task) bool { return t.CategoryID == id }); used {
		return domain.NewValidation("category_in_use", "category %q is referenced by a task", id)
	}
	f.categories.Remove(id)
	f.touch()
	f.st.emit(domain.EventCategoryDeleted, id)
	return nil
}

// Category returns a category by id.
func (f *FocusSlice) Category(id string) (domain.Category, bool) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.categories.Get(id)
}

// Categories returns all categories in insertion order.
func (f *FocusSlice) Categories() []domain.Category {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.categories.All()
}

// HasCategory reports whether the category exists.
func (f *FocusSlice) HasCategory(id string) bool {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.categories.Has(id)
}

// ─── Tag Actions ────────────────────────────────────────────────────────────

// CreateTag adds a tag.
func (f *FocusSlice) CreateTag(name, color string) (domain.Tag, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()

	if name == "" {
		return domain.Tag{}, domain.NewValidation("tag_name", "tag name is required")
	}
	t := domain.Tag{
		Base:  domain.NewBase(f.st.newID(), f.st.now()),
		Name:  name,
		Color: color,
	}
	f.tags.Add(t)
	f.touch()
	f.st.emit(domain.EventTagCreated, t)
	return t, nil
}

// DeleteTag removes a tag unless a session or task references it.
func (f *FocusSlice) DeleteTag(id string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()

	if !f.tags.Has(id) {
		return &domain.NotFoundError{Kind: "tag", ID: id}
	}
	refsTag := func(ids []string) bool {
		for _, t := range ids {
			if t == id {
				return true
			}
		}
		return false
	}
	if _, used := f.sessions.Find(func(s domain.FocusSession) bool { return refsTag(s.TagIDs) }); used {
		return domain.NewValidation("tag_in_use", "tag %q is referenced by a session", id)
	}
	if _, used := f.st.tasks.tasks.Find(func(t domain.Task) bool { return refsTag(t.TagIDs) }); used {
		return domain.NewValidation("tag_in_use", "tag %q is referenced by a task", id)
	}
	f.tags.Remove(id)
	f.touch()
	f.st.emit(domain.EventTagDeleted, id)
	return nil
}

// Tags returns all tags.
func (f *FocusSlice) Tags() []domain.Tag {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.tags.All()
}

// ─── Session Record Actions ─────────────────────────────────────────────────
// The session controller drives these; validation of transitions lives there.

// PutSession inserts or overwrites a session record.
func (f *FocusSlice) PutSession(sess domain.FocusSession) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.sessions.Add(sess)
	f.touch()
}

// UpdateSession mutates a session record.
func (f *FocusSlice) UpdateSession(id string, mutate func(domain.FocusSession) domain.FocusSession) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()

	if !f.sessions.Update(id, f.st.now(), mutate) {
		return &domain.NotFoundError{Kind: "session", ID: id}
	}
	f.touch()
	return nil
}

// Session returns a session by id.
func (f *FocusSlice) Session(id string) (domain.FocusSession, bool) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.sessions.Get(id)
}

// Sessions returns all sessions in insertion order.
func (f *FocusSlice) Sessions() []domain.FocusSession {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.sessions.All()
}

// CurrentSession returns the singleton active-or-paused session, if any.
func (f *FocusSlice) CurrentSession() (domain.FocusSession, bool) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.sessions.Find(func(s domain.FocusSession) bool { return s.Status.IsCurrent() })
}

// FocusSettings returns the focus preferences.
func (f *FocusSlice) FocusSettings() FocusSettings {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.settings
}

// Stats returns the denormalized focus counters.
func (f *FocusSlice) Stats() FocusStats {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.stats
}

// ─── Reactions / Snapshot ───────────────────────────────────────────────────

// applySessionCompleted bumps the denormalized counters. Runs inside the
// emitting action; lock already held.
func (f *FocusSlice) applySessionCompleted(p domain.SessionCompletedPayload) {
	f.stats.TotalSessions++
	f.stats.TotalFocusMinutes += p.DurationMinutes
	f.stats.TotalSeedsEarned += p.SeedsEarned
	now := f.st.now()
	f.stats.LastSessionAt = &now
	f.touch()
}

// state snapshots the slice. Lock held by the store.
func (f *FocusSlice) state() FocusState {
	st := FocusState{
		Sessions:   f.sessions.State(),
		Categories: f.categories.State(),
		Tags:       f.tags.State(),
		Settings:   f.settings,
		Stats:      f.stats,
	}
	st.Sessions.LastUpdated = f.lastUpdated
	st.Categories.LastUpdated = f.lastUpdated
	st.Tags.LastUpdated = f.lastUpdated
	return st
}

// load replaces the slice's data from a deserialized state. Lock held.
func (f *FocusSlice) load(st FocusState) {
	f.sessions = entity.FromState(st.Sessions)
	f.categories = entity.FromState(st.Categories)
	f.tags = entity.FromState(st.Tags)
	f.settings = st.Settings
	if f.settings.DefaultTargetMinutes <= 0 {
		f.settings.DefaultTargetMinutes = 25
	}
	f.stats = st.Stats
	f.lastUpdated = st.Sessions.LastUpdated
}
