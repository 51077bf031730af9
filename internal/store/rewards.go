package store

import (
	"time"

	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/store/entity"
)

// ─── Rewards Slice ──────────────────────────────────────────────────────────

// RewardsState is the durable shape of the reward economy. The ledger is
// append-only; Balance must always equal ΣTxEarned − ΣTxSpent.
type RewardsState struct {
	Balance        int                                    `json:"balance"`
	TotalEarned    int                                    `json:"totalEarned"`
	TotalSpent     int                                    `json:"totalSpent"`
	Transactions   entity.State[domain.RewardTransaction] `json:"transactions"`
	UnlockableApps entity.State[domain.UnlockableApp]     `json:"unlockableApps"`
}

// RewardsSlice owns the seed ledger and the unlockable-app catalog.
type RewardsSlice struct {
	st             *Store
	balance        int
	totalEarned    int
	totalSpent     int
	transactions   *entity.Manager[domain.RewardTransaction]
	unlockableApps *entity.Manager[domain.UnlockableApp]
	lastUpdated    *time.Time
}

func newRewardsSlice(st *Store) *RewardsSlice {
	return &RewardsSlice{
		st:             st,
		transactions:   entity.NewManager[domain.RewardTransaction](),
		unlockableApps: entity.NewManager[domain.UnlockableApp](),
	}
}

func (r *RewardsSlice) touch() {
	now := r.st.now()
	r.lastUpdated = &now
}

// ─── Ledger Actions ─────────────────────────────────────────────────────────

// EarnSeeds appends an earn transaction and credits the balance.
func (r *RewardsSlice) EarnSeeds(amount int, source string, metadata map[string]string) (domain.RewardTransaction, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if amount <= 0 {
		return domain.RewardTransaction{}, domain.NewValidation("amount_positive", "earn amount must be positive, got %d", amount)
	}
	return r.earn(amount, source, metadata), nil
}

// SpendSeeds appends a spend transaction and debits the balance.
func (r *RewardsSlice) SpendSeeds(amount int, source string, metadata map[string]string) (domain.RewardTransaction, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if amount <= 0 {
		return domain.RewardTransaction{}, domain.NewValidation("amount_positive", "spend amount must be positive, got %d", amount)
	}
	if amount > r.balance {
		return domain.RewardTransaction{}, domain.NewValidation("insufficient_balance", "balance %d cannot cover %d seeds", r.balance, amount)
	}

	tx := domain.RewardTransaction{
		Base:     domain.NewBase(r.st.newID(), r.st.now()),
		Amount:   amount,
		Type:     domain.TxSpent,
		Source:   source,
		Metadata: metadata,
	}
	r.transactions.Add(tx)
	r.balance -= amount
	r.totalSpent += amount
	r.touch()
	r.st.emit(domain.EventSeedsSpent, domain.RewardEventPayload{
		TransactionID: tx.ID,
		Amount:        amount,
		Balance:       r.balance,
		Source:        source,
	})
	return tx, nil
}

// earn is the lock-held credit path shared by the public action and the
// session-completion reaction.
func (r *RewardsSlice) earn(amount int, source string, metadata map[string]string) domain.RewardTransaction {
	tx := domain.RewardTransaction{
		Base:     domain.NewBase(r.st.newID(), r.st.now()),
		Amount:   amount,
		Type:     domain.TxEarned,
		Source:   source,
		Metadata: metadata,
	}
	r.transactions.Add(tx)
	r.balance += amount
	r.totalEarned += amount
	r.touch()
	r.st.emit(domain.EventSeedsEarned, domain.RewardEventPayload{
		TransactionID: tx.ID,
		Amount:        amount,
		Balance:       r.balance,
		Source:        source,
	})
	return tx
}

// Balance returns the current seed balance.
func (r *RewardsSlice) Balance() int {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.balance
}

// Totals returns lifetime earned and spent seeds.
func (r *RewardsSlice) Totals() (earned, spent int) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.totalEarned, r.totalSpent
}

// Transactions returns the ledger in append order.
func (r *RewardsSlice) Transactions() []domain.RewardTransaction {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.transactions.All()
}

// Reconcile recomputes the balance from the transaction log and reports
// whether it matches the tracked balance.
func (r *RewardsSlice) Reconcile() (derived int, ok bool) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, tx := range r.transactions.All() {
		switch tx.Type {
		case domain.TxEarned:
			derived += tx.Amount
		case domain.TxSpent:
			derived -= tx.Amount
		}
	}
	return derived, derived == r.balance
}

// ─── Unlockable App Actions ─────────────────────────────────────────────────

// AddUnlockableApp registers a restricted app priced in seeds.
func (r *RewardsSlice) AddUnlockableApp(bundleID, name string, costSeeds, unlockMinutes int) (domain.UnlockableApp, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if bundleID == "" {
		return domain.UnlockableApp{}, domain.NewValidation("bundle_identifier", "bundle identifier is required")
	}
	if costSeeds < 0 || unlockMinutes <= 0 {
		return domain.UnlockableApp{}, domain.NewValidation("unlock_pricing", "cost must be ≥ 0 and unlock minutes positive")
	}
	app := domain.UnlockableApp{
		Base:             domain.NewBase(r.st.newID(), r.st.now()),
		BundleIdentifier: bundleID,
		Name:             name,
		CostSeeds:        costSeeds,
		UnlockMinutes:    unlockMinutes,
	}
	r.unlockableApps.Add(app)
	r.touch()
	r.st.emit(domain.EventAppRegistered, app)
	return app, nil
}

// AppByBundleID finds an unlockable app by its bundle identifier.
func (r *RewardsSlice) AppByBundleID(bundleID string) (domain.UnlockableApp, bool) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.unlockableApps.Find(func(a domain.UnlockableApp) bool {
		return a.BundleIdentifier == bundleID
	})
}

// UnlockableApps returns the catalog.
func (r *RewardsSlice) UnlockableApps() []domain.UnlockableApp {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.unlockableApps.All()
}

// ─── Reactions / Snapshot ───────────────────────────────────────────────────

// applySessionCompleted accrues the session reward. Lock already held.
func (r *RewardsSlice) applySessionCompleted(p domain.SessionCompletedPayload) {
	if p.SeedsEarned <= 0 {
		return
	}
	r.earn(p.SeedsEarned, domain.SourceFocusSession, map[string]string{
		"sessionId": p.SessionID,
	})
}

func (r *RewardsSlice) state() RewardsState {
	st := RewardsState{
		Balance:        r.balance,
		TotalEarned:    r.totalEarned,
		TotalSpent:     r.totalSpent,
		Transactions:   r.transactions.State(),
		UnlockableApps: r.unlockableApps.State(),
	}
	st.Transactions.LastUpdated = r.lastUpdated
	st.UnlockableApps.LastUpdated = r.lastUpdated
	return st
}

func (r *RewardsSlice) load(st RewardsState) {
	r.transactions = entity.FromState(st.Transactions)
	r.unlockableApps = entity.FromState(st.UnlockableApps)
	r.lastUpdated = st.Transactions.LastUpdated

	// The ledger is authoritative; recompute the aggregates instead of
	// trusting persisted values that may have drifted.
	r.balance, r.totalEarned, r.totalSpent = 0, 0, 0
	for _, tx := range r.transactions.All() {
		switch tx.Type {
		case domain.TxEarned:
			r.balance += tx.Amount
			r.totalEarned += tx.Amount
		case domain.TxSpent:
			r.balance -= tx.Amount
			r.totalSpent += tx.Amount
		}
	}
}
