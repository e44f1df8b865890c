// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"testing"

	"github.com/Dforgeek/xUI/models"
)

func TestMergePrecedence(t *testing.T) {
	baseline := models.AnswerMap{"q1": 3, "q2": "old note"}
	local := models.AnswerMap{"q1": 8}
	profile := models.ProfileAnswer{FirstName: "Alice", LastName: "Reviewer", Email: "alice@example.com"}

	out := Merge(baseline, local, profile)

	if out["q1"] != 8 {
		t.Errorf("Expected local q1 to win over baseline, got %v", out["q1"])
	}
	if out["q2"] != "old note" {
		t.Errorf("Expected baseline q2 to survive, got %v", out["q2"])
	}
	got, ok := out[models.ProfileBlockID].(models.ProfileAnswer)
	if !ok || got.Email != "alice@example.com" {
		t.Errorf("Expected server profile in merged map, got %v", out[models.ProfileBlockID])
	}
}

func TestMergeProfileOverridesLocal(t *testing.T) {
	// A stale cached profile must never shadow the server's identity.
	local := models.AnswerMap{models.ProfileBlockID: map[string]any{"firstName": "Imposter"}}
	profile := models.ProfileAnswer{FirstName: "Alice", LastName: "Reviewer", Email: "alice@example.com"}

	out := Merge(nil, local, profile)

	got, ok := out[models.ProfileBlockID].(models.ProfileAnswer)
	if !ok || got.FirstName != "Alice" {
		t.Errorf("Expected profile to override local cache, got %v", out[models.ProfileBlockID])
	}
}

func TestMergeNilInputs(t *testing.T) {
	out := Merge(nil, nil, models.ProfileAnswer{FirstName: "Bob"})
	if len(out) != 1 {
		t.Errorf("Expected only the profile slot, got %v", out)
	}
}

func TestAnswerableMap(t *testing.T) {
	blocks := []models.Block{
		{ID: models.ProfileBlockID, Type: models.BlockProfile},
		{ID: "q1", Type: models.BlockRating, Min: 1, Max: 10},
		{ID: "q2", Type: models.BlockText, Optional: true},
		{ID: "q3", Type: models.BlockText, Optional: true},
	}
	answers := models.AnswerMap{
		models.ProfileBlockID: models.ProfileAnswer{FirstName: "Alice"},
		"q1":                  7,
		"q2":                  nil,
		"stray":               "not a block",
	}

	out := answerableMap(blocks, answers)

	if len(out) != 1 || out["q1"] != 7 {
		t.Errorf("Expected only q1 on the wire, got %v", out)
	}
	if _, ok := out[models.ProfileBlockID]; ok {
		t.Error("Profile must never go on the wire")
	}
	if _, ok := out["q2"]; ok {
		t.Error("Nil answers must be absent, not null")
	}
}

func TestDiff(t *testing.T) {
	baseline := models.AnswerMap{"q1": 7, "q2": "same", "q3": "gone"}
	next := models.AnswerMap{"q1": 9, "q2": "same", "q4": "new"}

	out := diff(next, baseline)

	if len(out) != 2 {
		t.Fatalf("Expected 2 changed keys, got %v", out)
	}
	if out["q1"] != 9 {
		t.Errorf("Expected changed q1 in delta, got %v", out["q1"])
	}
	if out["q4"] != "new" {
		t.Errorf("Expected added q4 in delta, got %v", out["q4"])
	}
	// q3 dropped from next produces no tombstone: PATCH merges by key.
	if _, ok := out["q3"]; ok {
		t.Error("Removed keys must not appear in the delta")
	}
}
