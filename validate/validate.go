// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package validate

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/Dforgeek/xUI/models"
)

// Deliberately permissive: a local part, an @, and a dot-containing
// domain. Not full RFC validation.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// Valid reports whether the answer map satisfies the block. It is a pure
// predicate: an incomplete block is the normal "cannot advance yet" state,
// never an error. Unknown block types fail closed.
func Valid(block models.Block, answers models.AnswerMap) bool {
	block = block.Normalize()
	answer, answered := answers[block.ID]

	switch block.Type {
	case models.BlockRating:
		if !answered || answer == nil {
			return block.Optional
		}
		n, ok := IntValue(answer)
		return ok && n >= block.Min && n <= block.Max

	case models.BlockText:
		var s string
		if answered && answer != nil {
			str, ok := answer.(string)
			if !ok {
				return false
			}
			s = str
		}
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return block.Optional
		}
		return len([]rune(trimmed)) >= block.MinLength

	case models.BlockProfile:
		p, ok := profileValue(answer)
		if !ok {
			return false
		}
		if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
			return false
		}
		return hasContact(p)

	default:
		return false
	}
}

// AllValid reports whether every block in the sequence is satisfied.
func AllValid(blocks []models.Block, answers models.AnswerMap) bool {
	return FirstInvalid(blocks, answers) == -1
}

// FirstInvalid returns the index of the first unsatisfied block, or -1
// when the whole sequence is satisfied.
func FirstInvalid(blocks []models.Block, answers models.AnswerMap) int {
	for i, b := range blocks {
		if !Valid(b, answers) {
			return i
		}
	}
	return -1
}

// hasContact is the derived contact flag: a well-formed email or a
// non-empty telegram handle.
func hasContact(p models.ProfileAnswer) bool {
	return Email(p.Email) || strings.TrimSpace(p.Telegram) != ""
}

// IntValue coerces an answer to an integer. JSON decoding produces
// float64 (or json.Number), in-process answers are int; a fractional
// value is not an integer answer.
func IntValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

// profileValue coerces a profile answer from either its in-process struct
// form or the map form produced by JSON decoding.
func profileValue(v any) (models.ProfileAnswer, bool) {
	switch p := v.(type) {
	case models.ProfileAnswer:
		return p, true
	case *models.ProfileAnswer:
		if p == nil {
			return models.ProfileAnswer{}, false
		}
		return *p, true
	case map[string]any:
		out := models.ProfileAnswer{}
		out.FirstName, _ = p["firstName"].(string)
		out.LastName, _ = p["lastName"].(string)
		out.Email, _ = p["email"].(string)
		out.Telegram, _ = p["telegram"].(string)
		return out, true
	default:
		return models.ProfileAnswer{}, false
	}
}
