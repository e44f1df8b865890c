// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Dforgeek/xUI/auth"
	"github.com/Dforgeek/xUI/cliparse"
	"github.com/Dforgeek/xUI/middleware"
	"github.com/Dforgeek/xUI/models"
)

type SurveysHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewSurveysHandler(db *sql.DB, cfg cliparse.Config) *SurveysHandler {
	return &SurveysHandler{db: db, cfg: cfg}
}

// List handles GET /v1/surveys
func (h *SurveysHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 100
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	offset := 0
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "offset must be non-negative")
			return
		}
		offset = n
	}
	includeLinks := q.Get("includeLinks") == "true" || q.Get("includeLinks") == "1"

	query := `
		SELECT s.id, s.title, s.review_type, s.is_closed, s.created_at, s.deadline,
		       subj.id, subj.first_name, subj.last_name,
		       r.id, r.first_name, r.last_name, r.email, r.telegram
		FROM survey s
		JOIN user_info subj ON subj.id = s.subject_user_id
		JOIN user_info r ON r.id = s.respondent_user_id
	`
	var (
		args  []any
		where string
	)
	if v := q.Get("subjectUserId"); v != "" {
		args = append(args, v)
		where = " WHERE s.subject_user_id = $" + strconv.Itoa(len(args))
	}
	if v := q.Get("respondentUserId"); v != "" {
		args = append(args, v)
		cond := "s.respondent_user_id = $" + strconv.Itoa(len(args))
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}
	args = append(args, limit, offset)
	query += where + " ORDER BY s.created_at DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := h.db.Query(query, args...)
	if err != nil {
		slog.Error("failed to query surveys", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	now := time.Now().UTC()
	items := []models.SurveyListItem{}
	for rows.Next() {
		var (
			item      models.SurveyListItem
			title     sql.NullString
			rEmail    sql.NullString
			rTelegram sql.NullString
		)
		err := rows.Scan(
			&item.SurveyID, &title, &item.ReviewType, &item.IsClosed, &item.CreatedAt, &item.Deadline,
			&item.Subject.SubjectID, &item.Subject.FirstName, &item.Subject.LastName,
			&item.Respondent.RespondentID, &item.Respondent.FirstName, &item.Respondent.LastName, &rEmail, &rTelegram,
		)
		if err != nil {
			slog.Error("failed to scan survey", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		item.Title = title.String
		item.Respondent.Email = rEmail.String
		item.Respondent.Telegram = rTelegram.String
		if now.After(item.Deadline) {
			item.IsClosed = true
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate surveys", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	for i := range items {
		// MAX over zero rows yields NULL, not ErrNoRows
		var version sql.NullInt64
		err := h.db.QueryRow(`
			SELECT MAX(version) FROM response WHERE survey_id = $1
		`, items[i].SurveyID).Scan(&version)
		if err != nil {
			slog.Error("failed to query response versions", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if version.Valid {
			items[i].HasResponse = true
			items[i].ResponseVersion = &version.Int64
		}

		if includeLinks {
			var token string
			err := h.db.QueryRow(`
				SELECT token FROM link_token WHERE survey_id = $1
				ORDER BY created_at DESC LIMIT 1
			`, items[i].SurveyID).Scan(&token)
			if err == nil {
				items[i].LinkToken = token
			} else if err != sql.ErrNoRows {
				slog.Error("failed to query link token", "error", err)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
				return
			}
		}
	}

	middleware.JSONResponse(w, http.StatusOK, items)
}

// Initiate handles POST /v1/surveys/initiate
//
// Creates one personal survey per reviewer, all sharing the same
// question set and deadline, and mints a link token for each.
func (h *SurveysHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req models.InitiateSurveyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.SubjectUserID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "subjectUserId is required")
		return
	}
	if req.Deadline.IsZero() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "deadlineISO is required")
		return
	}
	if req.ReviewType == "" {
		req.ReviewType = models.ReviewType360
	}

	if !h.userExists(req.SubjectUserID) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "subjectUserId not found")
		return
	}

	if len(req.ReviewerUserIDs) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "reviewerUserIds must contain at least one user")
		return
	}
	seen := make(map[string]bool)
	var reviewers []string
	for _, id := range req.ReviewerUserIDs {
		if !seen[id] {
			seen[id] = true
			reviewers = append(reviewers, id)
		}
	}
	// A 360 review includes a self-assessment
	if req.ReviewType == models.ReviewType360 && !seen[req.SubjectUserID] {
		reviewers = append(reviewers, req.SubjectUserID)
	}
	for _, id := range reviewers {
		if !h.userExists(id) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Some reviewerUserIds do not exist")
			return
		}
	}

	if len(req.QuestionIDs) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "No questions selected")
		return
	}
	qSeen := make(map[string]bool)
	var questionIDs []string
	for _, id := range req.QuestionIDs {
		if !qSeen[id] {
			qSeen[id] = true
			questionIDs = append(questionIDs, id)
		}
	}
	for _, id := range questionIDs {
		var exists bool
		err := h.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM question WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			slog.Error("failed to query question", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !exists {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Some questionIds do not exist")
			return
		}
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	created := make([]models.InitiatedSurvey, 0, len(reviewers))
	for _, respondentID := range reviewers {
		surveyID := auth.NewID("srv")
		_, err := tx.Exec(`
			INSERT INTO survey (id, subject_user_id, respondent_user_id, title, review_type, anonymous, is_closed, created_at, deadline)
			VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8)
		`, surveyID, req.SubjectUserID, respondentID, req.Title, req.ReviewType, req.Anonymous, now, req.Deadline.UTC())
		if err != nil {
			slog.Error("failed to insert survey", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to initiate surveys")
			return
		}

		for i, qid := range questionIDs {
			_, err := tx.Exec(`
				INSERT INTO survey_question (survey_id, question_id, position, optional)
				VALUES ($1, $2, $3, FALSE)
			`, surveyID, qid, i)
			if err != nil {
				slog.Error("failed to insert survey question", "error", err)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to initiate surveys")
				return
			}
		}

		token, err := auth.GenerateLinkToken()
		if err != nil {
			slog.Error("failed to generate link token", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to initiate surveys")
			return
		}
		_, err = tx.Exec(`
			INSERT INTO link_token (token, survey_id, respondent_user_id, created_at, is_revoked)
			VALUES ($1, $2, $3, $4, FALSE)
		`, token, surveyID, respondentID, now)
		if err != nil {
			slog.Error("failed to insert link token", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to initiate surveys")
			return
		}

		created = append(created, models.InitiatedSurvey{
			SurveyID:     surveyID,
			RespondentID: respondentID,
			LinkToken:    token,
		})
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to initiate surveys")
		return
	}

	slog.Info("surveys initiated",
		"subject_id", req.SubjectUserID, "count", len(created), "questions", len(questionIDs))

	middleware.JSONResponse(w, http.StatusCreated, models.InitiateSurveyResponse{
		BatchCreated:   created,
		QuestionsCount: len(questionIDs),
	})
}

func (h *SurveysHandler) userExists(id string) bool {
	var exists bool
	if err := h.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM user_info WHERE id = $1)`, id).Scan(&exists); err != nil {
		slog.Error("failed to query user", "error", err, "user_id", id)
		return false
	}
	return exists
}
