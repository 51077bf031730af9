package persist

import (
	"errors"
	"testing"

	"github.com/grove-app/grove/internal/domain"
)

func v1Document() map[string]any {
	return map[string]any{
		"focus": map[string]any{
			"sessions": map[string]any{
				"byId": map[string]any{
					"s1": map[string]any{"id": "s1", "status": "completed"},
				},
				"allIds": []any{"s1"},
			},
			"categories": map[string]any{"byId": map[string]any{}, "allIds": []any{}},
		},
		"rewards": map[string]any{
			"history": map[string]any{
				"byId": map[string]any{
					"t1": map[string]any{"id": "t1", "amount": float64(5), "type": "earned"},
					"t2": map[string]any{"id": "t2", "amount": float64(2), "type": "spent"},
				},
				"allIds": []any{"t1", "t2"},
			},
		},
	}
}

func TestMigrateFromV1(t *testing.T) {
	doc, err := Migrate(v1Document(), 1)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	rewards := doc["rewards"].(map[string]any)
	if _, has := rewards["history"]; has {
		t.Error("history survived the rename")
	}
	txs, ok := rewards["transactions"].(map[string]any)
	if !ok {
		t.Fatal("transactions collection missing after migration")
	}
	if got := len(txs["byId"].(map[string]any)); got != 2 {
		t.Errorf("ledger entries = %d, want 2", got)
	}
	if rewards["totalEarned"] != float64(5) || rewards["totalSpent"] != float64(2) {
		t.Errorf("totals = %v / %v, want 5 / 2", rewards["totalEarned"], rewards["totalSpent"])
	}
	if rewards["balance"] != float64(3) {
		t.Errorf("derived balance = %v, want 3", rewards["balance"])
	}

	focus := doc["focus"].(map[string]any)
	sess := focus["sessions"].(map[string]any)["byId"].(map[string]any)["s1"].(map[string]any)
	if _, has := sess["pauseHistory"]; !has {
		t.Error("pauseHistory not backfilled")
	}
	if _, has := focus["tags"]; !has {
		t.Error("tags collection not added")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	once, err := Migrate(v1Document(), 1)
	if err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	// Re-running every step on already-migrated data must change nothing.
	balance := once["rewards"].(map[string]any)["balance"]
	for _, m := range migrations {
		again, err := m.Apply(once)
		if err != nil {
			t.Fatalf("re-apply from %d: %v", m.From, err)
		}
		once = again
	}
	if got := once["rewards"].(map[string]any)["balance"]; got != balance {
		t.Errorf("balance changed on re-apply: %v → %v", balance, got)
	}
	if _, has := once["rewards"].(map[string]any)["history"]; has {
		t.Error("history reappeared")
	}
}

func TestMigrateCurrentVersionIsNoop(t *testing.T) {
	doc := map[string]any{"rewards": map[string]any{"transactions": map[string]any{}}}
	got, err := Migrate(doc, CurrentVersion)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("document changed: %v", got)
	}
}

func TestMigrateRejectsFutureVersion(t *testing.T) {
	_, err := Migrate(map[string]any{}, CurrentVersion+1)
	var merr *domain.MigrationError
	if !errors.As(err, &merr) {
		t.Fatalf("got %v, want MigrationError", err)
	}
	if merr.FromVersion != CurrentVersion+1 {
		t.Errorf("FromVersion = %d", merr.FromVersion)
	}
}

func TestMigrateReportsBadLedgerEntry(t *testing.T) {
	doc := map[string]any{
		"rewards": map[string]any{
			"history": map[string]any{
				"byId":   map[string]any{"t1": "not an object"},
				"allIds": []any{"t1"},
			},
		},
	}
	_, err := Migrate(doc, 1)
	var merr *domain.MigrationError
	if !errors.As(err, &merr) {
		t.Fatalf("got %v, want MigrationError", err)
	}
	if merr.FromVersion != 1 {
		t.Errorf("FromVersion = %d, want 1", merr.FromVersion)
	}
}
