// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of the engine; it depends on nothing.
package domain

import "time"

// ─── Base Entity ────────────────────────────────────────────────────────────

// Base carries the identity/timestamp shape shared by every record.
// ID is immutable and globally unique within its collection; UpdatedAt is
// refreshed on every mutation.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntityID returns the record's unique identifier.
func (b Base) EntityID() string { return b.ID }

// NewBase constructs a Base stamped with the given creation time.
func NewBase(id string, now time.Time) Base {
	return Base{ID: id, CreatedAt: now, UpdatedAt: now}
}

// ─── Category / Tag ─────────────────────────────────────────────────────────

// Category is a lightweight labeled record referenced by sessions and tasks.
// Deletion is blocked while referenced.
type Category struct {
	Base
	Name      string `json:"name"`
	Icon      string `json:"icon,omitempty"`
	Color     string `json:"color,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// Stamp returns a copy with UpdatedAt refreshed.
func (c Category) Stamp(now time.Time) Category {
	c.UpdatedAt = now
	return c
}

// Tag is a secondary label attached to sessions and tasks by id.
type Tag struct {
	Base
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Stamp returns a copy with UpdatedAt refreshed.
func (t Tag) Stamp(now time.Time) Tag {
	t.UpdatedAt = now
	return t
}

// ─── Settings ───────────────────────────────────────────────────────────────

// Settings holds user preferences. Persisted as a plain section, not a
// normalized collection.
type Settings struct {
	Theme                string `json:"theme"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	DailyGoalMinutes     int    `json:"dailyGoalMinutes"`
	WeekStartsOnMonday   bool   `json:"weekStartsOnMonday"`
}

// DefaultSettings returns the out-of-the-box preferences.
func DefaultSettings() Settings {
	return Settings{
		Theme:                "system",
		NotificationsEnabled: true,
		DailyGoalMinutes:     120,
		WeekStartsOnMonday:   true,
	}
}
