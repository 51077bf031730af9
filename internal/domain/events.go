package domain

import "time"

// ─── Canonical Event Types ──────────────────────────────────────────────────
// The event bus is the only channel through which one domain slice reacts to
// another. These constants name every cross-domain event the engine emits.

const (
	// Session lifecycle
	EventSessionStarted   = "session.started"
	EventSessionPaused    = "session.paused"
	EventSessionResumed   = "session.resumed"
	EventSessionCompleted = "session.completed"
	EventSessionCancelled = "session.cancelled"

	// Task lifecycle
	EventTaskCreated   = "task.created"
	EventTaskUpdated   = "task.updated"
	EventTaskCompleted = "task.completed"
	EventTaskDeleted   = "task.deleted"

	// Category / tag lifecycle
	EventCategoryCreated = "category.created"
	EventCategoryUpdated = "category.updated"
	EventCategoryDeleted = "category.deleted"
	EventTagCreated      = "tag.created"
	EventTagDeleted      = "tag.deleted"

	// Reward economy
	EventSeedsEarned = "reward.earned"
	EventSeedsSpent  = "reward.spent"

	// Social membership
	EventSquadJoined       = "squad.joined"
	EventSquadLeft         = "squad.left"
	EventChallengeCreated  = "challenge.created"
	EventChallengeProgress = "challenge.progress"

	// Settings
	EventSettingsUpdated = "settings.updated"
	EventThemeChanged    = "settings.theme_changed"

	// Native blocking adapter boundary
	EventAppRegistered     = "app.registered"
	EventAppLaunchBlocked  = "app.launch_blocked"
	EventAppUnlocked       = "app.unlocked"
	EventAppUnlockExpired  = "app.unlock_expired"

	// UI notifications (consumed by the out-of-scope UI layer)
	EventUINotification = "ui.notification"
	EventUIError        = "ui.error"
)

// ─── Event Payloads ─────────────────────────────────────────────────────────

// SessionEventPayload accompanies session lifecycle events other than
// completion.
type SessionEventPayload struct {
	SessionID string `json:"sessionId"`
}

// SessionCompletedPayload carries the reward data for a completed session.
type SessionCompletedPayload struct {
	SessionID       string `json:"sessionId"`
	TaskID          string `json:"taskId,omitempty"`
	UserID          string `json:"userId"`
	SeedsEarned     int    `json:"seedsEarned"`
	DurationMinutes int    `json:"duration"`
}

// RewardEventPayload accompanies reward.earned / reward.spent.
type RewardEventPayload struct {
	TransactionID string `json:"transactionId"`
	Amount        int    `json:"amount"`
	Balance       int    `json:"balance"`
	Source        string `json:"source"`
}

// SquadEventPayload accompanies squad membership events.
type SquadEventPayload struct {
	SquadID string `json:"squadId"`
	UserID  string `json:"userId"`
}

// BlockedLaunchPayload is the contract with the native app-blocking adapter:
// it reports an attempted launch of a restricted app.
type BlockedLaunchPayload struct {
	BundleIdentifier string    `json:"bundleIdentifier"`
	Timestamp        time.Time `json:"timestamp"`
}

// AppUnlockPayload accompanies app.unlocked and app.unlock_expired.
type AppUnlockPayload struct {
	BundleIdentifier string    `json:"bundleIdentifier"`
	ExpiresAt        time.Time `json:"expiresAt"`
	CostSeeds        int       `json:"costSeeds,omitempty"`
}
