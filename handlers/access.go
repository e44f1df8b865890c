// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dforgeek/xUI/cliparse"
	"github.com/Dforgeek/xUI/middleware"
	"github.com/Dforgeek/xUI/models"
)

type AccessHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAccessHandler(db *sql.DB, cfg cliparse.Config) *AccessHandler {
	return &AccessHandler{db: db, cfg: cfg}
}

// Access handles GET /v1/surveys/access/:token
//
// A closed or past-deadline survey still resolves: the envelope comes
// back with isClosed set so the caller can render the closed state
// instead of an error page.
func (h *AccessHandler) Access(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "token is required")
		return
	}

	lc, err := loadLinkContext(h.db, token)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	if err != nil {
		slog.Error("failed to resolve link token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := time.Now().UTC()

	_, err = h.db.Exec(`
		UPDATE link_token SET last_access_at = $1 WHERE token = $2
	`, now, token)
	if err != nil {
		// Non-fatal: access tracking only
		slog.Warn("failed to record link access", "error", err, "survey_id", lc.SurveyID)
	}

	blocks, err := buildBlocks(h.db, lc.SurveyID)
	if err != nil {
		slog.Error("failed to load survey blocks", "error", err, "survey_id", lc.SurveyID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	prior, err := h.loadPriorResponse(lc.SurveyID, lc.RespondentID)
	if err != nil {
		slog.Error("failed to load prior response", "error", err, "survey_id", lc.SurveyID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("survey access resolved",
		"survey_id", lc.SurveyID, "respondent_id", lc.RespondentID,
		"is_closed", lc.closedAt(now), "has_response", prior != nil)

	middleware.JSONResponse(w, http.StatusOK, models.AccessEnvelope{
		Now:      now,
		IsClosed: lc.closedAt(now),
		Survey: models.Survey{
			SurveyID:   lc.SurveyID,
			Title:      surveyTitle(lc.Title, lc.ReviewType),
			Deadline:   lc.Deadline,
			Respondent: lc.Respondent,
			Subject:    lc.Subject,
			Blocks:     blocks,
		},
		Response: prior,
	})
}

// loadPriorResponse returns the respondent's stored submission for the
// survey, or nil when none exists yet.
func (h *AccessHandler) loadPriorResponse(surveyID, respondentID string) (*models.PriorResponse, error) {
	var (
		prior      models.PriorResponse
		rawAnswers string
	)
	err := h.db.QueryRow(`
		SELECT id, version, answers FROM response
		WHERE survey_id = $1 AND respondent_user_id = $2
	`, surveyID, respondentID).Scan(&prior.ResponseID, &prior.Version, &rawAnswers)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(rawAnswers), &prior.Answers); err != nil {
		slog.Warn("stored answers are not valid JSON", "response_id", prior.ResponseID, "error", err)
		prior.Answers = nil
	}
	return &prior, nil
}
