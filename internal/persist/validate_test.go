package persist

import (
	"testing"
)

func TestValidateSynthesizesMissingSections(t *testing.T) {
	doc, repairs := Validate(map[string]any{})
	if len(repairs) == 0 {
		t.Fatal("empty document produced no repairs")
	}
	for _, section := range []string{"focus", "tasks", "rewards", "social", "settings"} {
		if _, ok := doc[section].(map[string]any); !ok {
			t.Errorf("section %s not synthesized", section)
		}
	}
	focus := doc["focus"].(map[string]any)
	sessions := focus["sessions"].(map[string]any)
	if _, ok := sessions["byId"].(map[string]any); !ok {
		t.Error("sessions.byId not well-formed")
	}
	if _, ok := sessions["allIds"].([]any); !ok {
		t.Error("sessions.allIds not well-formed")
	}
	if doc["settings"].(map[string]any)["theme"] != "system" {
		t.Error("settings default theme not applied")
	}
}

func TestValidateDropsIndexDrift(t *testing.T) {
	doc := map[string]any{
		"focus": map[string]any{
			"sessions": map[string]any{
				"byId": map[string]any{
					"s1": map[string]any{"id": "s1"},
				},
				"allIds": []any{"s1", "ghost", float64(7)},
			},
		},
	}
	repaired, repairs := Validate(doc)
	allIDs := repaired["focus"].(map[string]any)["sessions"].(map[string]any)["allIds"].([]any)
	if len(allIDs) != 1 || allIDs[0] != "s1" {
		t.Fatalf("allIds after repair = %v, want [s1]", allIDs)
	}
	if len(repairs) < 2 {
		t.Errorf("repairs = %v, want drift entries reported", repairs)
	}
}

func TestValidateRepairsWrongTypes(t *testing.T) {
	doc := map[string]any{
		"rewards": map[string]any{
			"balance":      "twelve",
			"transactions": "nope",
		},
		"tasks": map[string]any{"viewMode": float64(3)},
	}
	repaired, repairs := Validate(doc)
	rewards := repaired["rewards"].(map[string]any)
	if rewards["balance"] != float64(0) {
		t.Errorf("balance = %v, want repaired 0", rewards["balance"])
	}
	if _, ok := rewards["transactions"].(map[string]any); !ok {
		t.Error("transactions not rebuilt")
	}
	if repaired["tasks"].(map[string]any)["viewMode"] != "day" {
		t.Error("viewMode not repaired")
	}
	if len(repairs) == 0 {
		t.Error("no repairs reported")
	}
}

func TestValidateLeavesHealthyDocumentAlone(t *testing.T) {
	doc, _ := Validate(map[string]any{})
	// A document that just passed validation must validate cleanly.
	_, repairs := Validate(doc)
	if len(repairs) != 0 {
		t.Fatalf("second validation still repaired: %v", repairs)
	}
}
