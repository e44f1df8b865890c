// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dforgeek/xUI/models"
)

func accessPayload(deadline time.Time, closed bool, prior *models.PriorResponse) models.AccessEnvelope {
	return models.AccessEnvelope{
		Now:      time.Now().UTC(),
		IsClosed: closed,
		Survey: models.Survey{
			SurveyID: "srv_1",
			Title:    "360 Survey",
			Deadline: deadline,
			Respondent: models.Respondent{
				RespondentID: "usr_2", FirstName: "Bob", LastName: "Lee", Email: "bob@example.com",
			},
			Subject: models.Subject{SubjectID: "usr_1", FirstName: "Alice", LastName: "Kim"},
			Blocks: []models.Block{
				{ID: "q1", Type: models.BlockRating, Name: "Effectiveness", Question: "Rate it"},
				{ID: "q2", Type: models.BlockText, Name: "Comments", Prompt: "Say more", Optional: true},
			},
		},
		Response: prior,
	}
}

func TestResolve(t *testing.T) {
	deadline := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/surveys/access/tok123" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(accessPayload(deadline, false, nil))
	}))
	defer server.Close()

	snap, prior, err := New(server.URL).Resolve(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if prior != nil {
		t.Errorf("Expected no prior response, got %+v", prior)
	}
	if snap.SurveyID != "srv_1" {
		t.Errorf("Unexpected survey id %s", snap.SurveyID)
	}
	if !snap.Deadline.Equal(deadline) {
		t.Errorf("Expected deadline %v, got %v", deadline, snap.Deadline)
	}

	// Profile block injected first, remote blocks normalized after it
	if len(snap.Blocks) != 3 {
		t.Fatalf("Expected 3 blocks, got %d", len(snap.Blocks))
	}
	if snap.Blocks[0].ID != models.ProfileBlockID || snap.Blocks[0].Type != models.BlockProfile {
		t.Errorf("Expected synthetic profile block first, got %+v", snap.Blocks[0])
	}
	if snap.Blocks[1].Min != 1 || snap.Blocks[1].Max != 10 {
		t.Errorf("Expected normalized rating bounds [1,10], got [%d,%d]", snap.Blocks[1].Min, snap.Blocks[1].Max)
	}
}

// A remote-defined profile block is dropped in favor of the synthetic one.
func TestResolveDropsRemoteProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := accessPayload(time.Now().Add(time.Hour), false, nil)
		env.Survey.Blocks = append([]models.Block{
			{ID: "remote-profile", Type: models.BlockProfile, Name: "Who are you"},
		}, env.Survey.Blocks...)
		json.NewEncoder(w).Encode(env)
	}))
	defer server.Close()

	snap, _, err := New(server.URL).Resolve(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	count := 0
	for _, b := range snap.Blocks {
		if b.Type == models.BlockProfile {
			count++
			if b.ID != models.ProfileBlockID {
				t.Errorf("Expected only the synthetic profile block, found %s", b.ID)
			}
		}
	}
	if count != 1 {
		t.Errorf("Expected exactly one profile block, got %d", count)
	}
}

func TestResolveCarriesPriorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(accessPayload(time.Now().Add(time.Hour), true, &models.PriorResponse{
			ResponseID: "rsp_7", Version: 3, Answers: models.AnswerMap{"q1": 5},
		}))
	}))
	defer server.Close()

	snap, prior, err := New(server.URL).Resolve(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !snap.IsClosedByServer {
		t.Error("Expected server closure flag")
	}
	if prior == nil || prior.ResponseID != "rsp_7" || prior.Version != 3 {
		t.Fatalf("Expected prior response rsp_7 v3, got %+v", prior)
	}
	if got, ok := prior.Answers["q1"].(float64); !ok || got != 5 {
		t.Errorf("Expected prior answer 5, got %v", prior.Answers["q1"])
	}
}

func TestResolveAccessError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	_, _, err := New(server.URL).Resolve(context.Background(), "bad")
	var accessErr *AccessError
	if !errors.As(err, &accessErr) {
		t.Fatalf("Expected *AccessError, got %v", err)
	}
	if accessErr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", accessErr.Code)
	}
}

func TestCreateResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/surveys/srv_1/responses" {
			t.Errorf("Unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(TokenHeader) != "tok" {
			t.Errorf("Expected token header, got %q", r.Header.Get(TokenHeader))
		}
		var sub models.ResponseSubmission
		json.NewDecoder(r.Body).Decode(&sub)
		if got, ok := sub.Answers["q1"].(float64); !ok || got != 8 {
			t.Errorf("Expected submitted answer 8, got %v", sub.Answers["q1"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.ResponseCreated{
			ResponseID: "rsp_1", SurveyID: "srv_1", SubmittedAt: time.Now(), Version: 1,
		})
	}))
	defer server.Close()

	id, err := New(server.URL).CreateResponse(context.Background(), "srv_1", "tok", models.ResponseSubmission{
		Answers: models.AnswerMap{"q1": 8},
	})
	if err != nil {
		t.Fatalf("CreateResponse() error = %v", err)
	}
	if id.ResponseID != "rsp_1" || id.Version != 1 {
		t.Errorf("Unexpected identity %+v", id)
	}
}

func TestCreateResponseConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Conflict"}`, http.StatusConflict)
	}))
	defer server.Close()

	_, err := New(server.URL).CreateResponse(context.Background(), "srv_1", "tok", models.ResponseSubmission{})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
}

func TestCreateResponseOtherError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Gone"}`, http.StatusGone)
	}))
	defer server.Close()

	_, err := New(server.URL).CreateResponse(context.Background(), "srv_1", "tok", models.ResponseSubmission{})
	if errors.Is(err, ErrConflict) {
		t.Fatal("410 must not map to ErrConflict")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusGone {
		t.Fatalf("Expected *APIError 410, got %v", err)
	}
}

func TestPatchResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/v1/surveys/srv_1/responses/rsp_1" {
			t.Errorf("Unexpected %s %s", r.Method, r.URL.Path)
		}
		var upd models.ResponseUpdate
		json.NewDecoder(r.Body).Decode(&upd)
		if len(upd.AnswersDelta) != 1 {
			t.Errorf("Expected single-key delta, got %v", upd.AnswersDelta)
		}
		json.NewEncoder(w).Encode(models.ResponseUpdated{
			ResponseID: "rsp_1", SurveyID: "srv_1", UpdatedAt: time.Now(), Version: 2,
		})
	}))
	defer server.Close()

	id, err := New(server.URL).PatchResponse(context.Background(), "srv_1", "rsp_1", "tok", models.ResponseUpdate{
		AnswersDelta: models.AnswerMap{"q1": 9},
	})
	if err != nil {
		t.Fatalf("PatchResponse() error = %v", err)
	}
	if id.Version != 2 {
		t.Errorf("Expected version 2, got %d", id.Version)
	}
}

func TestPatchResponseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Conflict","message":"Response locked (finalized)"}`, http.StatusConflict)
	}))
	defer server.Close()

	_, err := New(server.URL).PatchResponse(context.Background(), "srv_1", "rsp_1", "tok", models.ResponseUpdate{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("Expected *APIError 409, got %v", err)
	}
}
