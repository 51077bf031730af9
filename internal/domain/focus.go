package domain

import (
	"math"
	"time"
)

// ─── Session Status ─────────────────────────────────────────────────────────

// SessionStatus is the lifecycle state of a focus session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// IsCurrent reports whether the status belongs to the "current session"
// singleton (at most one session store-wide may carry it).
func (s SessionStatus) IsCurrent() bool {
	return s == SessionActive || s == SessionPaused
}

// IsTerminal reports whether the status ends the session lifecycle.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// ─── Focus Session ──────────────────────────────────────────────────────────

// PauseInterval records one pause window within a session. EndTime equals
// StartTime while the pause is still open; it is corrected on resume, or at
// the terminal transition for a session that ends while paused.
type PauseInterval struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// FocusSession is a single timed focus block. Duration and TargetDuration are
// minutes; Duration only becomes meaningful once the status leaves active.
type FocusSession struct {
	Base
	UserID         string          `json:"userId"`
	StartTime      time.Time       `json:"startTime"`
	EndTime        *time.Time      `json:"endTime,omitempty"`
	Duration       int             `json:"duration"`
	TargetDuration int             `json:"targetDuration"`
	CategoryID     string          `json:"categoryId"`
	TagIDs         []string        `json:"tagIds,omitempty"`
	TaskID         string          `json:"taskId,omitempty"`
	Description    string          `json:"description,omitempty"`
	Status         SessionStatus   `json:"status"`
	SeedsEarned    int             `json:"seedsEarned"`
	PauseHistory   []PauseInterval `json:"pauseHistory,omitempty"`
}

// Stamp returns a copy with UpdatedAt refreshed.
func (s FocusSession) Stamp(now time.Time) FocusSession {
	s.UpdatedAt = now
	return s
}

// PausedDuration sums all closed pause intervals.
func (s FocusSession) PausedDuration() time.Duration {
	var total time.Duration
	for _, p := range s.PauseHistory {
		if p.EndTime.After(p.StartTime) {
			total += p.EndTime.Sub(p.StartTime)
		}
	}
	return total
}

// Elapsed returns the focused wall time accumulated by now, excluding pauses.
// While the session is paused its open interval counts as paused up to now,
// so elapsed time stands still for the whole pause.
func (s FocusSession) Elapsed(now time.Time) time.Duration {
	paused := s.PausedDuration()
	if s.Status == SessionPaused {
		if n := len(s.PauseHistory); n > 0 {
			if p := s.PauseHistory[n-1]; !p.EndTime.After(p.StartTime) {
				paused += now.Sub(p.StartTime)
			}
		}
	}
	elapsed := now.Sub(s.StartTime) - paused
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}

// Remaining returns the countdown left at now, floored at zero.
func (s FocusSession) Remaining(now time.Time) time.Duration {
	remaining := time.Duration(s.TargetDuration)*time.Minute - s.Elapsed(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// ─── Session Limits ─────────────────────────────────────────────────────────

// MaxTargetMinutes is the longest session a user may start.
const MaxTargetMinutes = 180

// ─── Seed Reward Formula ────────────────────────────────────────────────────

// Seed multiplier tiers by completion rate.
const (
	fullCompletionRate    = 0.9
	partialCompletionRate = 0.7
	fullMultiplier        = 1.5
	partialMultiplier     = 1.2
)

// SeedReward computes seeds earned for a completed session.
// base = floor(durationMinutes/60); multiplier 1.5 when completion ≥ 0.9,
// 1.2 when ≥ 0.7, else 1.0; reward = floor(base × multiplier).
func SeedReward(durationMinutes, targetMinutes int) int {
	if durationMinutes <= 0 || targetMinutes <= 0 {
		return 0
	}
	base := durationMinutes / 60
	rate := float64(durationMinutes) / float64(targetMinutes)
	multiplier := 1.0
	switch {
	case rate >= fullCompletionRate:
		multiplier = fullMultiplier
	case rate >= partialCompletionRate:
		multiplier = partialMultiplier
	}
	return int(math.Floor(float64(base) * multiplier))
}
