// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"reflect"

	"github.com/Dforgeek/xUI/models"
)

// Merge combines the three answer sources on load. Precedence, lowest to
// highest: baseline (last submitted state), local (may hold newer unsaved
// edits), then the server-sourced profile. Identity is not user-editable
// and never comes from local cache.
func Merge(baseline, local models.AnswerMap, profile models.ProfileAnswer) models.AnswerMap {
	out := models.AnswerMap{}
	for k, v := range baseline {
		out[k] = v
	}
	for k, v := range local {
		out[k] = v
	}
	out[models.ProfileBlockID] = profile
	return out
}

// answerableMap is what goes on the wire: the profile block is excluded,
// and skipped optionals are simply absent rather than sent as null.
func answerableMap(blocks []models.Block, answers models.AnswerMap) models.AnswerMap {
	out := models.AnswerMap{}
	for _, b := range blocks {
		if b.Type == models.BlockProfile {
			continue
		}
		if v, ok := answers[b.ID]; ok && v != nil {
			out[b.ID] = v
		}
	}
	return out
}

// diff returns the keys of next whose value changed relative to the
// baseline. The server's PATCH is a merge-by-key, so removed keys need no
// tombstones: an answer once submitted stays until overwritten.
func diff(next, baseline models.AnswerMap) models.AnswerMap {
	out := models.AnswerMap{}
	for k, v := range next {
		if prev, ok := baseline[k]; !ok || !reflect.DeepEqual(prev, v) {
			out[k] = v
		}
	}
	return out
}
