package persist

import (
	"fmt"

	"github.com/grove-app/grove/internal/domain"
)

// CurrentVersion is the schema version this build writes.
const CurrentVersion = 3

// A migration transforms the raw snapshot document from From to From+1. It
// must be pure (no I/O, input not mutated in place beyond its own copies) and
// idempotent: running it on already-migrated data changes nothing.
type migration struct {
	From  int
	Apply func(doc map[string]any) (map[string]any, error)
}

var migrations = []migration{
	{From: 1, Apply: migrateV1RewardLedger},
	{From: 2, Apply: migrateV2PauseHistoryAndTags},
}

// Migrate walks the chain from the stored version up to CurrentVersion.
// A nil error guarantees the returned document is at CurrentVersion.
func Migrate(doc map[string]any, fromVersion int) (map[string]any, error) {
	if fromVersion > CurrentVersion {
		return nil, &domain.MigrationError{
			FromVersion: fromVersion,
			Err:         fmt.Errorf("stored version %d is newer than supported version %d", fromVersion, CurrentVersion),
		}
	}
	for v := fromVersion; v < CurrentVersion; v++ {
		var step *migration
		for i := range migrations {
			if migrations[i].From == v {
				step = &migrations[i]
				break
			}
		}
		if step == nil {
			return nil, &domain.MigrationError{
				FromVersion: v,
				Err:         fmt.Errorf("no migration registered from version %d", v),
			}
		}
		next, err := step.Apply(doc)
		if err != nil {
			return nil, &domain.MigrationError{FromVersion: v, Err: err}
		}
		doc = next
	}
	return doc, nil
}

// migrateV1RewardLedger renames the v1 rewards "history" collection to
// "transactions" and derives the lifetime totals from the ledger.
func migrateV1RewardLedger(doc map[string]any) (map[string]any, error) {
	rewards, ok := doc["rewards"].(map[string]any)
	if !ok {
		return doc, nil
	}
	if _, done := rewards["transactions"]; done {
		return doc, nil
	}
	ledger, _ := rewards["history"].(map[string]any)
	if ledger == nil {
		ledger = map[string]any{"byId": map[string]any{}, "allIds": []any{}}
	}
	rewards["transactions"] = ledger
	delete(rewards, "history")

	var earned, spent float64
	if byID, ok := ledger["byId"].(map[string]any); ok {
		for _, raw := range byID {
			tx, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("rewards ledger entry is not an object")
			}
			amount, _ := tx["amount"].(float64)
			switch tx["type"] {
			case "earned":
				earned += amount
			case "spent":
				spent += amount
			}
		}
	}
	rewards["totalEarned"] = earned
	rewards["totalSpent"] = spent
	if _, ok := rewards["balance"]; !ok {
		rewards["balance"] = earned - spent
	}
	return doc, nil
}

// migrateV2PauseHistoryAndTags backfills the pauseHistory field on sessions
// recorded before pause tracking existed, and adds the tags collection to the
// focus section.
func migrateV2PauseHistoryAndTags(doc map[string]any) (map[string]any, error) {
	focus, ok := doc["focus"].(map[string]any)
	if !ok {
		return doc, nil
	}
	if sessions, ok := focus["sessions"].(map[string]any); ok {
		if byID, ok := sessions["byId"].(map[string]any); ok {
			for _, raw := range byID {
				sess, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				if _, has := sess["pauseHistory"]; !has {
					sess["pauseHistory"] = []any{}
				}
			}
		}
	}
	if _, has := focus["tags"]; !has {
		focus["tags"] = map[string]any{"byId": map[string]any{}, "allIds": []any{}}
	}
	return doc, nil
}
