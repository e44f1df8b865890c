// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package validate

import (
	"encoding/json"
	"testing"

	"github.com/Dforgeek/xUI/models"
)

func TestValidRating(t *testing.T) {
	required := models.Block{ID: "q1", Type: models.BlockRating, Min: 1, Max: 10}
	optional := models.Block{ID: "q1", Type: models.BlockRating, Min: 1, Max: 10, Optional: true}

	tests := []struct {
		name    string
		block   models.Block
		answers models.AnswerMap
		want    bool
	}{
		{"unanswered required", required, models.AnswerMap{}, false},
		{"unanswered optional", optional, models.AnswerMap{}, true},
		{"nil required", required, models.AnswerMap{"q1": nil}, false},
		{"nil optional", optional, models.AnswerMap{"q1": nil}, true},
		{"in range", required, models.AnswerMap{"q1": 7}, true},
		{"at min", required, models.AnswerMap{"q1": 1}, true},
		{"at max", required, models.AnswerMap{"q1": 10}, true},
		{"below min", required, models.AnswerMap{"q1": 0}, false},
		{"above max", required, models.AnswerMap{"q1": 11}, false},
		{"out of range optional", optional, models.AnswerMap{"q1": 11}, false},
		{"json float encoding", required, models.AnswerMap{"q1": float64(7)}, true},
		{"fractional float", required, models.AnswerMap{"q1": 6.5}, false},
		{"json.Number", required, models.AnswerMap{"q1": json.Number("4")}, true},
		{"string answer", required, models.AnswerMap{"q1": "7"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.block, tt.answers); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Blocks defined without bounds get the 1..10 defaults.
func TestValidRatingDefaults(t *testing.T) {
	block := models.Block{ID: "q1", Type: models.BlockRating}

	if !Valid(block, models.AnswerMap{"q1": 10}) {
		t.Error("Expected 10 to satisfy default bounds")
	}
	if Valid(block, models.AnswerMap{"q1": 0}) {
		t.Error("Expected 0 to fail default bounds")
	}
	if Valid(block, models.AnswerMap{"q1": 11}) {
		t.Error("Expected 11 to fail default bounds")
	}
}

func TestValidText(t *testing.T) {
	required := models.Block{ID: "q2", Type: models.BlockText, MinLength: 5}
	optional := models.Block{ID: "q2", Type: models.BlockText, MinLength: 5, Optional: true}
	noMin := models.Block{ID: "q2", Type: models.BlockText}

	tests := []struct {
		name    string
		block   models.Block
		answers models.AnswerMap
		want    bool
	}{
		{"unanswered required", required, models.AnswerMap{}, false},
		{"unanswered optional", optional, models.AnswerMap{}, true},
		{"empty required", required, models.AnswerMap{"q2": ""}, false},
		{"whitespace only required", required, models.AnswerMap{"q2": "   "}, false},
		{"whitespace only optional", optional, models.AnswerMap{"q2": "   "}, true},
		{"long enough", required, models.AnswerMap{"q2": "plenty of text"}, true},
		{"too short after trim", required, models.AnswerMap{"q2": "  hi  "}, false},
		{"exactly minLength", required, models.AnswerMap{"q2": "12345"}, true},
		{"unicode counts runes", required, models.AnswerMap{"q2": "ёжик!"}, true},
		{"any non-blank without minLength", noMin, models.AnswerMap{"q2": "x"}, true},
		{"non-string answer", required, models.AnswerMap{"q2": 42}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.block, tt.answers); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidProfile(t *testing.T) {
	block := models.Block{ID: models.ProfileBlockID, Type: models.BlockProfile}

	tests := []struct {
		name   string
		answer any
		want   bool
	}{
		{"unanswered", nil, false},
		{"complete with email", models.ProfileAnswer{FirstName: "Bob", LastName: "Lee", Email: "bob@example.com"}, true},
		{"complete with telegram", models.ProfileAnswer{FirstName: "Bob", LastName: "Lee", Telegram: "@bob"}, true},
		{"both contacts", models.ProfileAnswer{FirstName: "Bob", LastName: "Lee", Email: "bob@example.com", Telegram: "@bob"}, true},
		{"no contact", models.ProfileAnswer{FirstName: "Bob", LastName: "Lee"}, false},
		{"bad email only", models.ProfileAnswer{FirstName: "Bob", LastName: "Lee", Email: "not-an-email"}, false},
		{"bad email but telegram", models.ProfileAnswer{FirstName: "Bob", LastName: "Lee", Email: "nope", Telegram: "@bob"}, true},
		{"missing first name", models.ProfileAnswer{LastName: "Lee", Email: "bob@example.com"}, false},
		{"blank last name", models.ProfileAnswer{FirstName: "Bob", LastName: "  ", Email: "bob@example.com"}, false},
		{"decoded map form", map[string]any{"firstName": "Bob", "lastName": "Lee", "telegram": "@bob"}, true},
		{"decoded map missing contact", map[string]any{"firstName": "Bob", "lastName": "Lee"}, false},
		{"wrong type", "Bob Lee", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := models.AnswerMap{}
			if tt.answer != nil {
				answers[models.ProfileBlockID] = tt.answer
			}
			if got := Valid(block, answers); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidUnknownType(t *testing.T) {
	block := models.Block{ID: "q9", Type: "matrix"}
	if Valid(block, models.AnswerMap{"q9": "anything"}) {
		t.Error("Expected unknown block type to fail closed")
	}
}

func TestEmail(t *testing.T) {
	valid := []string{"a@b.co", "first.last@sub.domain.org", "  padded@example.com  "}
	invalid := []string{"", "plain", "a@b", "a b@c.d", "@example.com", "a@.com "}

	for _, s := range valid {
		if !Email(s) {
			t.Errorf("Email(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if Email(s) {
			t.Errorf("Email(%q) = true, want false", s)
		}
	}
}

func TestFirstInvalid(t *testing.T) {
	blocks := []models.Block{
		{ID: "profile", Type: models.BlockProfile},
		{ID: "q1", Type: models.BlockRating},
		{ID: "q2", Type: models.BlockText, Optional: true},
	}
	profile := models.ProfileAnswer{FirstName: "Bob", LastName: "Lee", Telegram: "@bob"}

	tests := []struct {
		name    string
		answers models.AnswerMap
		want    int
	}{
		{"nothing answered", models.AnswerMap{}, 0},
		{"profile only", models.AnswerMap{"profile": profile}, 1},
		{"all satisfied", models.AnswerMap{"profile": profile, "q1": 5}, -1},
		{"middle invalid", models.AnswerMap{"profile": profile, "q1": 99, "q2": "ok"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstInvalid(blocks, tt.answers); got != tt.want {
				t.Errorf("FirstInvalid() = %d, want %d", got, tt.want)
			}
			if wantAll := tt.want == -1; AllValid(blocks, tt.answers) != wantAll {
				t.Errorf("AllValid() mismatch for %s", tt.name)
			}
		})
	}
}
