// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Dforgeek/xUI/models"
)

// TokenHeader carries the link token on response calls.
const TokenHeader = "X-Survey-Token"

// ErrConflict tags a create call that collided with an already-existing
// response for the same token. It is the one recoverable sync failure.
var ErrConflict = errors.New("response already exists")

// AccessError is a failed token resolution: invalid, revoked, or not
// found. It carries the status and body text verbatim so the caller never
// has to guess a reason. Fatal for the session.
type AccessError struct {
	Code    int
	Message string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("access denied (%d): %s", e.Code, e.Message)
}

// APIError is a non-success outcome of a create or patch call.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("survey api: %d: %s", e.StatusCode, e.Body)
}

// Client talks to the remote survey service over HTTP+JSON.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the service at baseURL.
func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, http.DefaultClient)
}

// NewWithHTTPClient injects the transport. Used by tests.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Resolve exchanges a link token for the survey snapshot and any prior
// response attached to the token server-side. The returned snapshot
// always begins with the synthetic profile block, regardless of what the
// remote defines.
func (c *Client) Resolve(ctx context.Context, token string) (*models.Snapshot, *models.PriorResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/surveys/access/"+token, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build access request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("access request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &AccessError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var env models.AccessEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, fmt.Errorf("decode access envelope: %w", err)
	}

	snap := &models.Snapshot{
		SurveyID:         env.Survey.SurveyID,
		Title:            env.Survey.Title,
		Deadline:         env.Survey.Deadline,
		Blocks:           withProfileFirst(env.Survey.Blocks),
		Respondent:       env.Survey.Respondent,
		Subject:          env.Survey.Subject,
		IsClosedByServer: env.IsClosed,
	}
	return snap, env.Response, nil
}

// CreateResponse submits a first response. A 409 from the server comes
// back wrapped in ErrConflict so the caller can take the recovery path;
// every other non-success is a terminal *APIError.
func (c *Client) CreateResponse(ctx context.Context, surveyID, token string, sub models.ResponseSubmission) (models.ResponseIdentity, error) {
	var created models.ResponseCreated
	err := c.call(ctx, http.MethodPost, fmt.Sprintf("/v1/surveys/%s/responses", surveyID), token, sub, http.StatusCreated, &created)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return models.ResponseIdentity{}, fmt.Errorf("%w: %s", ErrConflict, apiErr.Body)
		}
		return models.ResponseIdentity{}, err
	}
	return models.ResponseIdentity{ResponseID: created.ResponseID, Version: created.Version}, nil
}

// PatchResponse merges an answer delta into an existing response and
// returns the server's new version.
func (c *Client) PatchResponse(ctx context.Context, surveyID, responseID, token string, upd models.ResponseUpdate) (models.ResponseIdentity, error) {
	var updated models.ResponseUpdated
	err := c.call(ctx, http.MethodPatch, fmt.Sprintf("/v1/surveys/%s/responses/%s", surveyID, responseID), token, upd, http.StatusOK, &updated)
	if err != nil {
		return models.ResponseIdentity{}, err
	}
	return models.ResponseIdentity{ResponseID: updated.ResponseID, Version: updated.Version}, nil
}

func (c *Client) call(ctx context.Context, method, path, token string, payload any, wantStatus int, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TokenHeader, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// withProfileFirst drops any remote profile block and injects the
// synthetic one at position 0, so every survey starts with identity
// confirmation.
func withProfileFirst(blocks []models.Block) []models.Block {
	out := make([]models.Block, 0, len(blocks)+1)
	out = append(out, models.Block{
		ID:   models.ProfileBlockID,
		Type: models.BlockProfile,
		Name: "Your profile",
	})
	for _, b := range blocks {
		if b.Type == models.BlockProfile {
			continue
		}
		out = append(out, b.Normalize())
	}
	return out
}
