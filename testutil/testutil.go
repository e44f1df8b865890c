// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Dforgeek/xUI/auth"
	"github.com/Dforgeek/xUI/cliparse"
	"github.com/Dforgeek/xUI/db"
)

// SetupTestDB creates a fresh in-memory database with the full schema.
// The single-connection limit keeps every query on the same in-memory
// sqlite instance.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3344,
		DatabaseURL:  ":memory:",
		DatabaseType: "sqlite",
	}
}

// CreateTestUser inserts a user and returns its id
func CreateTestUser(t *testing.T, conn *sql.DB, firstName, lastName, email, telegram string) string {
	t.Helper()

	userID := auth.NewID("usr")
	_, err := conn.Exec(`
		INSERT INTO user_info (id, first_name, last_name, email, telegram)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, firstName, lastName, nullable(email), nullable(telegram))
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID
}

// CreateTestQuestion inserts a question into the bank and returns its id.
// params is the JSON params column, may be empty.
func CreateTestQuestion(t *testing.T, conn *sql.DB, text, qtype, params string) string {
	t.Helper()

	questionID := auth.NewID("qst")
	_, err := conn.Exec(`
		INSERT INTO question (id, question_text, question_type, params)
		VALUES ($1, $2, $3, $4)
	`, questionID, text, qtype, nullable(params))
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}

	return questionID
}

// CreateTestSurvey inserts a survey with the given question set and
// returns the survey id
func CreateTestSurvey(t *testing.T, conn *sql.DB, subjectID, respondentID string, deadline time.Time, questionIDs ...string) string {
	t.Helper()

	surveyID := auth.NewID("srv")
	_, err := conn.Exec(`
		INSERT INTO survey (id, subject_user_id, respondent_user_id, title, review_type, anonymous, is_closed, created_at, deadline)
		VALUES ($1, $2, $3, 'Test Survey', '360', FALSE, FALSE, $4, $5)
	`, surveyID, subjectID, respondentID, time.Now().UTC(), deadline)
	if err != nil {
		t.Fatalf("Failed to create test survey: %v", err)
	}

	for i, qid := range questionIDs {
		_, err := conn.Exec(`
			INSERT INTO survey_question (survey_id, question_id, position, optional)
			VALUES ($1, $2, $3, FALSE)
		`, surveyID, qid, i)
		if err != nil {
			t.Fatalf("Failed to attach test question: %v", err)
		}
	}

	return surveyID
}

// CreateTestLink mints a link token for a survey/respondent pair
func CreateTestLink(t *testing.T, conn *sql.DB, surveyID, respondentID string) string {
	t.Helper()

	token, err := auth.GenerateLinkToken()
	if err != nil {
		t.Fatalf("Failed to generate link token: %v", err)
	}
	_, err = conn.Exec(`
		INSERT INTO link_token (token, survey_id, respondent_user_id, created_at, is_revoked)
		VALUES ($1, $2, $3, $4, FALSE)
	`, token, surveyID, respondentID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test link: %v", err)
	}

	return token
}

// CreateTestResponse inserts a stored response and returns its id
func CreateTestResponse(t *testing.T, conn *sql.DB, surveyID, respondentID, token string, version int64, answers map[string]any) string {
	t.Helper()

	raw, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("Failed to marshal answers: %v", err)
	}

	responseID := auth.NewID("rsp")
	now := time.Now().UTC()
	_, err = conn.Exec(`
		INSERT INTO response (id, survey_id, respondent_user_id, link_token, version, answers, submitted_at, updated_at, finalized)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, FALSE)
	`, responseID, surveyID, respondentID, token, version, string(raw), now)
	if err != nil {
		t.Fatalf("Failed to create test response: %v", err)
	}

	return responseID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
