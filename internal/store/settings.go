package store

import (
	"time"

	"github.com/grove-app/grove/internal/domain"
)

// ─── Settings Slice ─────────────────────────────────────────────────────────

// SettingsSlice owns user preferences. Settings are a plain section, not a
// normalized collection.
type SettingsSlice struct {
	st          *Store
	current     domain.Settings
	lastUpdated *time.Time
}

func newSettingsSlice(st *Store) *SettingsSlice {
	return &SettingsSlice{st: st, current: domain.DefaultSettings()}
}

// Current returns the active preferences.
func (s *SettingsSlice) Current() domain.Settings {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.current
}

// Update applies a mutation to the preferences. A theme change additionally
// emits its own event so theme-sensitive consumers need not diff the payload.
func (s *SettingsSlice) Update(mutate func(domain.Settings) domain.Settings) (domain.Settings, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	next := mutate(s.current)
	if next.DailyGoalMinutes < 0 {
		return s.current, domain.NewValidation("daily_goal", "daily goal cannot be negative, got %d", next.DailyGoalMinutes)
	}
	switch next.Theme {
	case "system", "light", "dark":
	default:
		return s.current, domain.NewValidation("theme", "unknown theme %q", next.Theme)
	}

	prev := s.current
	s.current = next
	now := s.st.now()
	s.lastUpdated = &now

	s.st.emit(domain.EventSettingsUpdated, next)
	if prev.Theme != next.Theme {
		s.st.emit(domain.EventThemeChanged, next.Theme)
	}
	return next, nil
}
