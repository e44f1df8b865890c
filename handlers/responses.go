// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dforgeek/xUI/auth"
	"github.com/Dforgeek/xUI/client"
	"github.com/Dforgeek/xUI/cliparse"
	"github.com/Dforgeek/xUI/middleware"
	"github.com/Dforgeek/xUI/models"
)

type ResponsesHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResponsesHandler(db *sql.DB, cfg cliparse.Config) *ResponsesHandler {
	return &ResponsesHandler{db: db, cfg: cfg}
}

// authenticate resolves the X-Survey-Token header. On failure it writes
// the 401 itself and returns false.
func (h *ResponsesHandler) authenticate(w http.ResponseWriter, r *http.Request) (*linkContext, bool) {
	token := r.Header.Get(client.TokenHeader)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Missing X-Survey-Token")
		return nil, false
	}

	lc, err := loadLinkContext(h.db, token)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid token")
		return nil, false
	}
	if err != nil {
		slog.Error("failed to resolve link token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return nil, false
	}
	return lc, true
}

// Create handles POST /v1/surveys/:id/responses
func (h *ResponsesHandler) Create(w http.ResponseWriter, r *http.Request) {
	surveyID := r.PathValue("id")
	if surveyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "surveyId is required")
		return
	}

	lc, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if lc.SurveyID != surveyID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Token not allowed for this survey")
		return
	}

	now := time.Now().UTC()
	if lc.closedAt(now) {
		middleware.ErrorResponse(w, http.StatusGone, "Survey deadline passed")
		return
	}

	var req models.ResponseSubmission
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Answers == nil {
		req.Answers = models.AnswerMap{}
	}

	blocks, err := buildBlocks(h.db, surveyID)
	if err != nil {
		slog.Error("failed to load survey blocks", "error", err, "survey_id", surveyID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if msg, ok := validateAnswers(req.Answers, blocks); !ok {
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, msg)
		return
	}

	rawAnswers, err := json.Marshal(req.Answers)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid answers")
		return
	}
	var rawMeta any
	if req.Client != nil {
		b, err := json.Marshal(req.Client)
		if err == nil {
			rawMeta = string(b)
		}
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var existingID string
	err = tx.QueryRow(`
		SELECT id FROM response WHERE survey_id = $1 AND respondent_user_id = $2
	`, surveyID, lc.RespondentID).Scan(&existingID)
	if err == nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Response already exists; use PATCH to update")
		return
	}
	if err != sql.ErrNoRows {
		slog.Error("failed to query response", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	responseID := auth.NewID("rsp")
	_, err = tx.Exec(`
		INSERT INTO response (id, survey_id, respondent_user_id, link_token, version, answers, client_meta, submitted_at, updated_at, finalized)
		VALUES ($1, $2, $3, $4, 1, $5, $6, $7, $7, FALSE)
	`, responseID, surveyID, lc.RespondentID, lc.Token, string(rawAnswers), rawMeta, now)
	if err != nil {
		// Lost a race with another create for the same respondent
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Response already exists; use PATCH to update")
			return
		}
		slog.Error("failed to insert response", "error", err, "survey_id", surveyID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save response")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save response")
		return
	}

	slog.Info("response created", "survey_id", surveyID, "response_id", responseID)

	middleware.JSONResponse(w, http.StatusCreated, models.ResponseCreated{
		ResponseID:  responseID,
		SurveyID:    surveyID,
		SubmittedAt: now,
		Version:     1,
	})
}

// Update handles PATCH /v1/surveys/:id/responses/:responseId
//
// The delta is merged by key over the stored answer set; explicit nulls
// are kept so an optional block can be cleared. The version column only
// ever advances here, guarded by the version the row was read at.
func (h *ResponsesHandler) Update(w http.ResponseWriter, r *http.Request) {
	surveyID := r.PathValue("id")
	responseID := r.PathValue("responseId")
	if surveyID == "" || responseID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "surveyId and responseId are required")
		return
	}

	lc, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if lc.SurveyID != surveyID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Token not allowed")
		return
	}

	var req models.ResponseUpdate
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var (
		version    int64
		rawAnswers string
		finalized  bool
	)
	err = tx.QueryRow(`
		SELECT version, answers, finalized FROM response
		WHERE id = $1 AND survey_id = $2 AND respondent_user_id = $3
	`, responseID, surveyID, lc.RespondentID).Scan(&version, &rawAnswers, &finalized)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Response not found")
		return
	}
	if err != nil {
		slog.Error("failed to query response", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := time.Now().UTC()
	if now.After(lc.Deadline) {
		middleware.ErrorResponse(w, http.StatusConflict, "Response locked (deadline passed)")
		return
	}
	if lc.IsClosed {
		middleware.ErrorResponse(w, http.StatusConflict, "Response locked (survey closed)")
		return
	}
	if finalized {
		middleware.ErrorResponse(w, http.StatusConflict, "Response locked (finalized)")
		return
	}

	blocks, err := buildBlocks(h.db, surveyID)
	if err != nil {
		slog.Error("failed to load survey blocks", "error", err, "survey_id", surveyID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if msg, ok := validateAnswers(req.AnswersDelta, blocks); !ok {
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, msg)
		return
	}

	merged := models.AnswerMap{}
	if err := json.Unmarshal([]byte(rawAnswers), &merged); err != nil {
		slog.Warn("stored answers are not valid JSON", "response_id", responseID, "error", err)
		merged = models.AnswerMap{}
	}
	for k, v := range req.AnswersDelta {
		merged[k] = v
	}

	rawMerged, err := json.Marshal(merged)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid answers")
		return
	}
	var rawMeta any
	if req.Client != nil {
		b, err := json.Marshal(req.Client)
		if err == nil {
			rawMeta = string(b)
		}
	}

	newVersion := version + 1
	res, err := tx.Exec(`
		UPDATE response
		SET answers = $1, version = $2, updated_at = $3, client_meta = COALESCE($4, client_meta)
		WHERE id = $5 AND version = $6
	`, string(rawMerged), newVersion, now, rawMeta, responseID, version)
	if err != nil {
		slog.Error("failed to update response", "error", err, "response_id", responseID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update response")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Response version changed; retry")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update response")
		return
	}

	slog.Info("response updated", "survey_id", surveyID, "response_id", responseID, "version", newVersion)

	middleware.JSONResponse(w, http.StatusOK, models.ResponseUpdated{
		ResponseID: responseID,
		SurveyID:   surveyID,
		UpdatedAt:  now,
		Version:    newVersion,
	})
}
