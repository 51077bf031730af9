package domain

import "time"

// ─── Task Types ─────────────────────────────────────────────────────────────

// TaskStatus is the lifecycle state of a scheduled task.
type TaskStatus string

const (
	TaskScheduled TaskStatus = "scheduled"
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
	TaskCancelled TaskStatus = "cancelled"
)

// TaskProgress tracks how much focus time a task has accumulated.
// FocusTimeSpent, EstimatedTime and ActualTime are minutes.
type TaskProgress struct {
	Completed      bool `json:"completed"`
	FocusTimeSpent int  `json:"focusTimeSpent"`
	EstimatedTime  int  `json:"estimatedTime"`
	ActualTime     int  `json:"actualTime"`
}

// Task is a schedulable unit of work. It accumulates focus time from linked
// sessions through the event bus rather than by direct mutation.
type Task struct {
	Base
	Title           string       `json:"title"`
	Date            time.Time    `json:"date"`
	StartTime       string       `json:"startTime,omitempty"` // "HH:MM" wall time
	Duration        int          `json:"duration"`            // planned minutes
	CategoryID      string       `json:"categoryId,omitempty"`
	TagIDs          []string     `json:"tagIds,omitempty"`
	Status          TaskStatus   `json:"status"`
	Progress        TaskProgress `json:"progress"`
	FocusSessionIDs []string     `json:"focusSessionIds,omitempty"`
}

// Stamp returns a copy with UpdatedAt refreshed.
func (t Task) Stamp(now time.Time) Task {
	t.UpdatedAt = now
	return t
}

// SameDay reports whether the task is scheduled on the given calendar day.
func (t Task) SameDay(day time.Time) bool {
	y1, m1, d1 := t.Date.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
