package store

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/grove-app/grove/internal/bus"
	"github.com/grove-app/grove/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)}
	b := bus.New(zap.NewNop())
	return New(clk, b, zap.NewNop(), "user-1"), clk
}

func TestRewardsLedgerReconciles(t *testing.T) {
	s, _ := newTestStore(t)
	r := s.Rewards()

	if _, err := r.EarnSeeds(10, domain.SourceManual, nil); err != nil {
		t.Fatalf("earn: %v", err)
	}
	if _, err := r.EarnSeeds(5, domain.SourceChallenge, nil); err != nil {
		t.Fatalf("earn: %v", err)
	}
	if _, err := r.SpendSeeds(7, domain.SourceAppUnlock, nil); err != nil {
		t.Fatalf("spend: %v", err)
	}

	if got := r.Balance(); got != 8 {
		t.Fatalf("balance = %d, want 8", got)
	}
	derived, ok := r.Reconcile()
	if !ok || derived != 8 {
		t.Fatalf("reconcile = (%d, %v), want (8, true)", derived, ok)
	}
	earned, spent := r.Totals()
	if earned != 15 || spent != 7 {
		t.Fatalf("totals = (%d, %d), want (15, 7)", earned, spent)
	}
}

func TestSpendSeedsInsufficientBalance(t *testing.T) {
	s, _ := newTestStore(t)
	r := s.Rewards()

	if _, err := r.SpendSeeds(1, domain.SourceAppUnlock, nil); !domain.IsValidation(err) {
		t.Fatalf("spend on empty balance: got %v, want validation error", err)
	}
	if got := len(r.Transactions()); got != 0 {
		t.Fatalf("failed spend left %d transactions in the ledger", got)
	}
}

func TestEarnSeedsRejectsNonPositive(t *testing.T) {
	s, _ := newTestStore(t)
	for _, amount := range []int{0, -3} {
		if _, err := s.Rewards().EarnSeeds(amount, domain.SourceManual, nil); !domain.IsValidation(err) {
			t.Fatalf("earn %d: got %v, want validation error", amount, err)
		}
	}
}

func TestCategoryDeletionGuard(t *testing.T) {
	s, clk := newTestStore(t)
	f := s.Focus()

	cat, err := f.CreateCategory("Deep Work", "brain", "#336699", false)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	f.PutSession(domain.FocusSession{
		Base:       domain.NewBase("sess-1", clk.Now()),
		UserID:     s.UserID(),
		StartTime:  clk.Now(),
		CategoryID: cat.ID,
		Status:     domain.SessionCompleted,
	})

	if err := f.DeleteCategory(cat.ID); !domain.IsValidation(err) {
		t.Fatalf("delete referenced category: got %v, want validation error", err)
	}
	if !f.HasCategory(cat.ID) {
		t.Fatal("refused deletion must leave the category in place")
	}

	free, err := f.CreateCategory("Idle", "", "", false)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if err := f.DeleteCategory(free.ID); err != nil {
		t.Fatalf("delete unreferenced category: %v", err)
	}
}

func TestTagDeletionGuard(t *testing.T) {
	s, _ := newTestStore(t)
	f := s.Focus()

	tag, err := f.CreateTag("urgent", "#ff0000")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	if _, err := s.Tasks().CreateTask("write report", time.Now(), "09:00", 30, "", []string{tag.ID}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := f.DeleteTag(tag.ID); !domain.IsValidation(err) {
		t.Fatalf("delete referenced tag: got %v, want validation error", err)
	}
}

func TestCreateTaskValidations(t *testing.T) {
	s, _ := newTestStore(t)
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	if _, err := s.Tasks().CreateTask("", day, "09:00", 30, "", nil); !domain.IsValidation(err) {
		t.Fatalf("empty title: got %v, want validation error", err)
	}
	if _, err := s.Tasks().CreateTask("x", day, "09:00", 0, "", nil); !domain.IsValidation(err) {
		t.Fatalf("zero duration: got %v, want validation error", err)
	}
	if _, err := s.Tasks().CreateTask("x", day, "09:00", 30, "no-such-cat", nil); !domain.IsValidation(err) {
		t.Fatalf("unknown category: got %v, want validation error", err)
	}
}

func TestCompleteTaskTwiceIsInvalidState(t *testing.T) {
	s, _ := newTestStore(t)
	task, err := s.Tasks().CreateTask("review", time.Now(), "10:00", 25, "", nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := s.Tasks().CompleteTask(task.ID); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if err := s.Tasks().CompleteTask(task.ID); !domain.IsInvalidState(err) {
		t.Fatalf("second complete: got %v, want invalid state error", err)
	}
}

// TestSessionCompletedReactionChain drives the cross-domain wiring: one
// session.completed event must update focus stats, the seed ledger, the
// linked task, and squad member stats, all within a single consistent view.
func TestSessionCompletedReactionChain(t *testing.T) {
	s, clk := newTestStore(t)

	task, err := s.Tasks().CreateTask("thesis chapter", clk.Now(), "09:00", 60, "", nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	squad, err := s.Social().CreateSquad("library crew", "")
	if err != nil {
		t.Fatalf("create squad: %v", err)
	}
	ch, err := s.Social().CreateChallenge(squad.ID, "march sprint", 500, clk.Now().Add(-time.Hour), clk.Now().Add(72*time.Hour))
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}

	s.Publish(domain.EventSessionCompleted, domain.SessionCompletedPayload{
		SessionID:       "sess-1",
		TaskID:          task.ID,
		UserID:          s.UserID(),
		SeedsEarned:     3,
		DurationMinutes: 130,
	})

	if got := s.Rewards().Balance(); got != 3 {
		t.Errorf("balance = %d, want 3", got)
	}
	txs := s.Rewards().Transactions()
	if len(txs) != 1 || txs[0].Source != domain.SourceFocusSession {
		t.Errorf("ledger = %+v, want one focus_session earn", txs)
	}

	stats := s.Focus().Stats()
	if stats.TotalSessions != 1 || stats.TotalFocusMinutes != 130 || stats.TotalSeedsEarned != 3 {
		t.Errorf("focus stats = %+v", stats)
	}

	got, _ := s.Tasks().Task(task.ID)
	if got.Progress.FocusTimeSpent != 130 || got.Status != domain.TaskActive {
		t.Errorf("task after reaction = %+v", got)
	}
	if len(got.FocusSessionIDs) != 1 || got.FocusSessionIDs[0] != "sess-1" {
		t.Errorf("task session links = %v", got.FocusSessionIDs)
	}

	sq, _ := s.Social().Squad(squad.ID)
	ms := sq.MemberStats[s.UserID()]
	if ms.WeeklyFocusMinutes != 130 || ms.WeeklySessions != 1 || ms.TotalSeedsEarned != 3 {
		t.Errorf("member stats = %+v", ms)
	}

	for _, c := range s.Social().Challenges() {
		if c.ID == ch.ID && c.Progress[s.UserID()] != 130 {
			t.Errorf("challenge progress = %d, want 130", c.Progress[s.UserID()])
		}
	}
}

func TestSessionCompletedWithoutRewardLeavesLedgerAlone(t *testing.T) {
	s, _ := newTestStore(t)
	s.Publish(domain.EventSessionCompleted, domain.SessionCompletedPayload{
		SessionID:       "sess-1",
		UserID:          s.UserID(),
		SeedsEarned:     0,
		DurationMinutes: 50,
	})
	if got := len(s.Rewards().Transactions()); got != 0 {
		t.Fatalf("zero-seed completion minted %d transactions", got)
	}
	if got := s.Focus().Stats().TotalSessions; got != 1 {
		t.Fatalf("total sessions = %d, want 1", got)
	}
}

func TestWeeklyMemberStatsReset(t *testing.T) {
	s, clk := newTestStore(t)
	if _, err := s.Social().CreateSquad("crew", ""); err != nil {
		t.Fatalf("create squad: %v", err)
	}

	complete := func(minutes int) {
		s.Publish(domain.EventSessionCompleted, domain.SessionCompletedPayload{
			SessionID:       "sess",
			UserID:          s.UserID(),
			DurationMinutes: minutes,
		})
	}
	complete(60)
	clk.advance(8 * 24 * time.Hour) // into the next week
	complete(30)

	sq := s.Social().UserSquads()[0]
	ms := sq.MemberStats[s.UserID()]
	if ms.WeeklyFocusMinutes != 30 || ms.WeeklySessions != 1 {
		t.Fatalf("stats after week rollover = %+v, want weekly counters reset", ms)
	}
}

func TestSquadMembership(t *testing.T) {
	s, _ := newTestStore(t)
	squad, err := s.Social().CreateSquad("crew", "desc")
	if err != nil {
		t.Fatalf("create squad: %v", err)
	}

	if err := s.Social().JoinSquad(squad.ID); !domain.IsValidation(err) {
		t.Fatalf("rejoin own squad: got %v, want validation error", err)
	}
	if err := s.Social().LeaveSquad(squad.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := s.Social().LeaveSquad(squad.ID); !domain.IsValidation(err) {
		t.Fatalf("leave twice: got %v, want validation error", err)
	}
	if err := s.Social().JoinSquad("nope"); !domain.IsNotFound(err) {
		t.Fatalf("join unknown squad: got %v, want not found", err)
	}
}

func TestSettingsUpdateEmitsThemeChange(t *testing.T) {
	s, _ := newTestStore(t)

	var events []string
	unsub := s.Bus().On("*", func(e bus.Event) { events = append(events, e.Type) })
	defer unsub()

	next, err := s.Settings().Update(func(st domain.Settings) domain.Settings {
		st.Theme = "dark"
		return st
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if next.Theme != "dark" {
		t.Fatalf("theme = %q", next.Theme)
	}

	var sawUpdated, sawTheme bool
	for _, typ := range events {
		switch typ {
		case domain.EventSettingsUpdated:
			sawUpdated = true
		case domain.EventThemeChanged:
			sawTheme = true
		}
	}
	if !sawUpdated || !sawTheme {
		t.Fatalf("events = %v, want settings.updated and settings.theme_changed", events)
	}

	// No theme change → no theme event.
	events = nil
	if _, err := s.Settings().Update(func(st domain.Settings) domain.Settings {
		st.DailyGoalMinutes = 90
		return st
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	for _, typ := range events {
		if typ == domain.EventThemeChanged {
			t.Fatal("goal-only update emitted a theme change")
		}
	}
}

func TestSettingsUpdateRejectsBadValues(t *testing.T) {
	s, _ := newTestStore(t)
	before := s.Settings().Current()

	if _, err := s.Settings().Update(func(st domain.Settings) domain.Settings {
		st.Theme = "neon"
		return st
	}); !domain.IsValidation(err) {
		t.Fatalf("bad theme: got %v, want validation error", err)
	}
	if _, err := s.Settings().Update(func(st domain.Settings) domain.Settings {
		st.DailyGoalMinutes = -1
		return st
	}); !domain.IsValidation(err) {
		t.Fatalf("negative goal: got %v, want validation error", err)
	}
	if got := s.Settings().Current(); got != before {
		t.Fatalf("rejected update mutated settings: %+v", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, clk := newTestStore(t)

	cat, _ := s.Focus().CreateCategory("Deep Work", "", "", true)
	task, _ := s.Tasks().CreateTask("draft", clk.Now(), "09:00", 45, cat.ID, nil)
	s.Rewards().EarnSeeds(12, domain.SourceManual, nil)
	s.Social().CreateSquad("crew", "")
	s.Settings().Update(func(st domain.Settings) domain.Settings {
		st.Theme = "light"
		return st
	})

	snap := s.Snapshot()

	fresh := New(clk, bus.New(zap.NewNop()), zap.NewNop(), s.UserID())
	fresh.ApplySnapshot(snap)

	if !fresh.Focus().HasCategory(cat.ID) {
		t.Error("category lost across snapshot")
	}
	if _, ok := fresh.Tasks().Task(task.ID); !ok {
		t.Error("task lost across snapshot")
	}
	if got := fresh.Rewards().Balance(); got != 12 {
		t.Errorf("balance = %d, want 12", got)
	}
	if got := len(fresh.Social().Squads()); got != 1 {
		t.Errorf("squads = %d, want 1", got)
	}
	if got := fresh.Settings().Current().Theme; got != "light" {
		t.Errorf("theme = %q, want light", got)
	}

	// Actions keep working on the rehydrated store.
	if _, err := fresh.Rewards().SpendSeeds(5, domain.SourceAppUnlock, nil); err != nil {
		t.Fatalf("spend after rehydration: %v", err)
	}
	if derived, ok := fresh.Rewards().Reconcile(); !ok || derived != 7 {
		t.Fatalf("reconcile after rehydration = (%d, %v)", derived, ok)
	}
}
