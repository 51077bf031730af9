package domain

import "time"

// ─── Reward Ledger Types ────────────────────────────────────────────────────

// TransactionType is the direction of a seed transaction.
type TransactionType string

const (
	TxEarned TransactionType = "earned"
	TxSpent  TransactionType = "spent"
)

// RewardTransaction is a single row in the append-only seed ledger.
// balance = Σearned − Σspent must always reconcile with the log.
type RewardTransaction struct {
	Base
	Amount   int               `json:"amount"`
	Type     TransactionType   `json:"type"`
	Source   string            `json:"source"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Stamp returns a copy with UpdatedAt refreshed.
func (t RewardTransaction) Stamp(now time.Time) RewardTransaction {
	t.UpdatedAt = now
	return t
}

// Well-known transaction sources.
const (
	SourceFocusSession = "focus_session"
	SourceAppUnlock    = "app_unlock"
	SourceChallenge    = "challenge"
	SourceManual       = "manual"
)

// ─── Unlockable Apps ────────────────────────────────────────────────────────

// UnlockableApp is a restricted app that can be temporarily unlocked by
// spending seeds.
type UnlockableApp struct {
	Base
	BundleIdentifier string `json:"bundleIdentifier"`
	Name             string `json:"name"`
	CostSeeds        int    `json:"costSeeds"`
	UnlockMinutes    int    `json:"unlockMinutes"`
}

// Stamp returns a copy with UpdatedAt refreshed.
func (a UnlockableApp) Stamp(now time.Time) UnlockableApp {
	a.UpdatedAt = now
	return a
}
