// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// GenerateLinkToken creates a random single-use link token for a
// (survey, respondent) pair. 24 bytes = 192 bits of entropy, URL-safe
// base64 without padding, so it survives being pasted into a URL path.
func GenerateLinkToken() (string, error) {
	b := make([]byte, 24)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate link token: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// NewID creates a prefixed opaque id ("srv_...", "rsp_...", "usr_...").
// The prefix makes ids self-describing in logs and URLs.
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
