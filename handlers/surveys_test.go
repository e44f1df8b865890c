// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dforgeek/xUI/models"
	"github.com/Dforgeek/xUI/testutil"
)

func TestInitiateSurvey(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	handler := NewSurveysHandler(conn, testutil.GetTestConfig())

	subjectID := testutil.CreateTestUser(t, conn, "Alice", "Subject", "alice@example.com", "")
	reviewer1 := testutil.CreateTestUser(t, conn, "Bob", "Reviewer", "bob@example.com", "")
	reviewer2 := testutil.CreateTestUser(t, conn, "Carol", "Reviewer", "", "@carol")
	q1 := testutil.CreateTestQuestion(t, conn, "Rate collaboration", "rating", "")
	q2 := testutil.CreateTestQuestion(t, conn, "Free-form feedback", "text", "")

	req := testutil.MakeRequest("POST", "/v1/surveys/initiate", models.InitiateSurveyRequest{
		SubjectUserID:   subjectID,
		ReviewerUserIDs: []string{reviewer1, reviewer2, reviewer1},
		QuestionIDs:     []string{q1, q2, q1},
		Deadline:        time.Now().UTC().Add(7 * 24 * time.Hour),
		ReviewType:      models.ReviewType360,
	}, nil)
	w := httptest.NewRecorder()
	handler.Initiate(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.InitiateSurveyResponse
	testutil.AssertJSON(t, w, &resp)

	// Duplicates collapse; a 360 adds the subject's self-assessment
	if len(resp.BatchCreated) != 3 {
		t.Fatalf("Expected 3 personal surveys, got %d", len(resp.BatchCreated))
	}
	if resp.QuestionsCount != 2 {
		t.Errorf("Expected 2 questions, got %d", resp.QuestionsCount)
	}

	respondents := map[string]bool{}
	for _, cs := range resp.BatchCreated {
		respondents[cs.RespondentID] = true
		if cs.LinkToken == "" {
			t.Error("Expected a link token per survey")
		}

		var count int
		if err := conn.QueryRow(`SELECT COUNT(*) FROM survey_question WHERE survey_id = $1`, cs.SurveyID).Scan(&count); err != nil {
			t.Fatalf("Failed to count survey questions: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 questions on %s, got %d", cs.SurveyID, count)
		}
	}
	if !respondents[subjectID] {
		t.Error("Expected subject to be auto-included as a 360 reviewer")
	}
}

func TestInitiateSurveyValidation(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	handler := NewSurveysHandler(conn, testutil.GetTestConfig())

	subjectID := testutil.CreateTestUser(t, conn, "Alice", "Subject", "", "")
	reviewerID := testutil.CreateTestUser(t, conn, "Bob", "Reviewer", "", "")
	qID := testutil.CreateTestQuestion(t, conn, "Rate", "rating", "")
	deadline := time.Now().UTC().Add(24 * time.Hour)

	tests := []struct {
		name string
		req  models.InitiateSurveyRequest
	}{
		{"missing subject", models.InitiateSurveyRequest{
			ReviewerUserIDs: []string{reviewerID}, QuestionIDs: []string{qID}, Deadline: deadline,
		}},
		{"unknown subject", models.InitiateSurveyRequest{
			SubjectUserID: "usr_missing", ReviewerUserIDs: []string{reviewerID}, QuestionIDs: []string{qID}, Deadline: deadline,
		}},
		{"no reviewers", models.InitiateSurveyRequest{
			SubjectUserID: subjectID, QuestionIDs: []string{qID}, Deadline: deadline,
		}},
		{"unknown reviewer", models.InitiateSurveyRequest{
			SubjectUserID: subjectID, ReviewerUserIDs: []string{"usr_missing"}, QuestionIDs: []string{qID}, Deadline: deadline,
		}},
		{"no questions", models.InitiateSurveyRequest{
			SubjectUserID: subjectID, ReviewerUserIDs: []string{reviewerID}, Deadline: deadline,
		}},
		{"unknown question", models.InitiateSurveyRequest{
			SubjectUserID: subjectID, ReviewerUserIDs: []string{reviewerID}, QuestionIDs: []string{"qst_missing"}, Deadline: deadline,
		}},
		{"missing deadline", models.InitiateSurveyRequest{
			SubjectUserID: subjectID, ReviewerUserIDs: []string{reviewerID}, QuestionIDs: []string{qID},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/v1/surveys/initiate", tt.req, nil)
			w := httptest.NewRecorder()
			handler.Initiate(w, req)
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestListSurveys(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	handler := NewSurveysHandler(conn, testutil.GetTestConfig())

	subjectID := testutil.CreateTestUser(t, conn, "Alice", "Subject", "", "")
	reviewer1 := testutil.CreateTestUser(t, conn, "Bob", "Reviewer", "bob@example.com", "")
	reviewer2 := testutil.CreateTestUser(t, conn, "Carol", "Reviewer", "", "")
	q := testutil.CreateTestQuestion(t, conn, "Rate", "rating", "")

	s1 := testutil.CreateTestSurvey(t, conn, subjectID, reviewer1, time.Now().UTC().Add(time.Hour), q)
	s2 := testutil.CreateTestSurvey(t, conn, subjectID, reviewer2, time.Now().UTC().Add(-time.Hour), q)
	token1 := testutil.CreateTestLink(t, conn, s1, reviewer1)
	testutil.CreateTestResponse(t, conn, s1, reviewer1, token1, 4, map[string]any{blockIDFor(q): 8})

	req := testutil.MakeRequest("GET", "/v1/surveys?subjectUserId="+subjectID+"&includeLinks=true", nil, nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var items []models.SurveyListItem
	testutil.AssertJSON(t, w, &items)
	if len(items) != 2 {
		t.Fatalf("Expected 2 surveys, got %d", len(items))
	}

	byID := map[string]models.SurveyListItem{}
	for _, item := range items {
		byID[item.SurveyID] = item
	}

	first := byID[s1]
	if !first.HasResponse {
		t.Error("Expected hasResponse on answered survey")
	}
	if first.ResponseVersion == nil || *first.ResponseVersion != 4 {
		t.Errorf("Expected responseVersion 4, got %v", first.ResponseVersion)
	}
	if first.LinkToken != token1 {
		t.Errorf("Expected link token in listing, got %q", first.LinkToken)
	}
	if first.IsClosed {
		t.Error("Expected open survey")
	}

	second := byID[s2]
	if second.HasResponse {
		t.Error("Expected no response on second survey")
	}
	if !second.IsClosed {
		t.Error("Expected past-deadline survey to list as closed")
	}

	// Respondent filter narrows to one survey
	req = testutil.MakeRequest("GET", "/v1/surveys?respondentUserId="+reviewer2, nil, nil)
	w = httptest.NewRecorder()
	handler.List(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &items)
	if len(items) != 1 || items[0].SurveyID != s2 {
		t.Errorf("Expected only %s, got %v", s2, items)
	}
}

func TestListSurveysBadPaging(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	handler := NewSurveysHandler(conn, testutil.GetTestConfig())

	for _, query := range []string{"limit=0", "limit=5000", "limit=abc", "offset=-1"} {
		req := testutil.MakeRequest("GET", "/v1/surveys?"+query, nil, nil)
		w := httptest.NewRecorder()
		handler.List(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	}
}
