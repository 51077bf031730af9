package domain

import "time"

// ─── Social Types ───────────────────────────────────────────────────────────
// Squads and challenges are updated reactively from session-completion events,
// never written directly by session logic.

// MemberStats aggregates one member's contribution within a squad. The weekly
// counters reset when a new ISO week begins.
type MemberStats struct {
	WeeklyFocusMinutes int       `json:"weeklyFocusMinutes"`
	WeeklySessions     int       `json:"weeklySessions"`
	TotalSeedsEarned   int       `json:"totalSeedsEarned"`
	WeekStart          time.Time `json:"weekStart"`
}

// Squad is a group of users holding each other accountable.
type Squad struct {
	Base
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	OwnerID     string                 `json:"ownerId"`
	MemberIDs   []string               `json:"memberIds"`
	MemberStats map[string]MemberStats `json:"memberStats,omitempty"`
}

// Stamp returns a copy with UpdatedAt refreshed.
func (s Squad) Stamp(now time.Time) Squad {
	s.UpdatedAt = now
	return s
}

// HasMember reports whether the user belongs to the squad.
func (s Squad) HasMember(userID string) bool {
	for _, id := range s.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Challenge is a shared focus goal within a squad. Progress maps member id to
// accumulated focus minutes.
type Challenge struct {
	Base
	SquadID     string         `json:"squadId"`
	Name        string         `json:"name"`
	GoalMinutes int            `json:"goalMinutes"`
	Progress    map[string]int `json:"progress,omitempty"`
	StartDate   time.Time      `json:"startDate"`
	EndDate     time.Time      `json:"endDate"`
	Active      bool           `json:"active"`
}

// Stamp returns a copy with UpdatedAt refreshed.
func (c Challenge) Stamp(now time.Time) Challenge {
	c.UpdatedAt = now
	return c
}

// TotalProgress sums all members' contributed minutes.
func (c Challenge) TotalProgress() int {
	total := 0
	for _, m := range c.Progress {
		total += m
	}
	return total
}

// WeekStart returns the start of the week containing t, honoring the
// Monday-start convention.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday == 0
	return day.AddDate(0, 0, -offset)
}
