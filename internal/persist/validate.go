package persist

import (
	"fmt"

	"github.com/grove-app/grove/internal/domain"
)

// Validate structurally checks the snapshot document and repairs anything
// malformed with an empty-but-well-formed default. Repairs are reported as
// IntegrityErrors for logging; validation itself never fails.
func Validate(doc map[string]any) (map[string]any, []domain.IntegrityError) {
	var repairs []domain.IntegrityError
	repair := func(section, detail string) {
		repairs = append(repairs, domain.IntegrityError{Section: section, Detail: detail})
	}

	if doc == nil {
		doc = map[string]any{}
		repair("snapshot", "document missing, replaced with defaults")
	}

	focus := ensureObject(doc, "focus", repair)
	ensureCollection(focus, "focus", "sessions", repair)
	ensureCollection(focus, "focus", "categories", repair)
	ensureCollection(focus, "focus", "tags", repair)
	ensureObject(focus, "settings", func(_, detail string) { repair("focus", detail) })
	ensureObject(focus, "stats", func(_, detail string) { repair("focus", detail) })

	tasks := ensureObject(doc, "tasks", repair)
	ensureCollection(tasks, "tasks", "tasks", repair)
	if _, ok := tasks["viewMode"].(string); !ok {
		tasks["viewMode"] = "day"
		repair("tasks", "viewMode missing or not a string")
	}

	rewards := ensureObject(doc, "rewards", repair)
	ensureCollection(rewards, "rewards", "transactions", repair)
	ensureCollection(rewards, "rewards", "unlockableApps", repair)
	for _, field := range []string{"balance", "totalEarned", "totalSpent"} {
		if _, ok := rewards[field].(float64); !ok {
			rewards[field] = float64(0)
			repair("rewards", fmt.Sprintf("%s missing or not a number", field))
		}
	}

	social := ensureObject(doc, "social", repair)
	ensureCollection(social, "social", "squads", repair)
	ensureCollection(social, "social", "challenges", repair)

	settings, hadSettings := doc["settings"].(map[string]any)
	if !hadSettings {
		settings = map[string]any{
			"theme":                "system",
			"notificationsEnabled": true,
			"dailyGoalMinutes":     float64(120),
			"weekStartsOnMonday":   true,
		}
		doc["settings"] = settings
		repair("settings", "section missing or not an object")
	} else if _, ok := settings["theme"].(string); !ok {
		settings["theme"] = "system"
		repair("settings", "theme missing or not a string")
	}

	return doc, repairs
}

// ensureObject guarantees doc[key] is an object, substituting an empty one.
func ensureObject(doc map[string]any, key string, repair func(section, detail string)) map[string]any {
	if obj, ok := doc[key].(map[string]any); ok {
		return obj
	}
	obj := map[string]any{}
	doc[key] = obj
	repair(key, "section missing or not an object")
	return obj
}

// ensureCollection guarantees obj[key] has the normalized {byId, allIds}
// shape and that every indexed id resolves to an object.
func ensureCollection(obj map[string]any, section, key string, repair func(section, detail string)) {
	coll, ok := obj[key].(map[string]any)
	if !ok {
		obj[key] = map[string]any{"byId": map[string]any{}, "allIds": []any{}}
		repair(section, fmt.Sprintf("%s collection missing or malformed", key))
		return
	}
	byID, ok := coll["byId"].(map[string]any)
	if !ok {
		byID = map[string]any{}
		coll["byId"] = byID
		repair(section, fmt.Sprintf("%s.byId missing or not an object", key))
	}
	allIDs, ok := coll["allIds"].([]any)
	if !ok {
		allIDs = []any{}
		coll["allIds"] = rebuildIndex(byID)
		repair(section, fmt.Sprintf("%s.allIds missing or not an array", key))
		return
	}
	// Drop index entries that do not resolve; FromState would skip them
	// anyway, but a repaired snapshot should not carry drift forward.
	kept := make([]any, 0, len(allIDs))
	for _, raw := range allIDs {
		id, ok := raw.(string)
		if !ok {
			repair(section, fmt.Sprintf("%s.allIds holds a non-string entry", key))
			continue
		}
		if _, exists := byID[id]; !exists {
			repair(section, fmt.Sprintf("%s index references unknown id %q", key, id))
			continue
		}
		kept = append(kept, raw)
	}
	if len(kept) != len(allIDs) {
		coll["allIds"] = kept
	}
}

func rebuildIndex(byID map[string]any) []any {
	ids := make([]any, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	return ids
}
