// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dforgeek/xUI/models"
	"github.com/Dforgeek/xUI/validate"
)

// linkContext is everything a token resolves to: the link itself, the
// survey it grants access to, and the two people involved.
type linkContext struct {
	Token        string
	SurveyID     string
	Title        string
	ReviewType   string
	IsClosed     bool
	CreatedAt    time.Time
	Deadline     time.Time
	RespondentID string
	Respondent   models.Respondent
	Subject      models.Subject
}

// closedAt reports whether the survey is closed at the given instant,
// either by the explicit flag or by the deadline having passed.
func (lc *linkContext) closedAt(now time.Time) bool {
	return lc.IsClosed || now.After(lc.Deadline)
}

// loadLinkContext resolves a link token to its survey and participants.
// Returns sql.ErrNoRows for unknown or revoked tokens.
func loadLinkContext(db *sql.DB, token string) (*linkContext, error) {
	var (
		lc        linkContext
		title     sql.NullString
		rEmail    sql.NullString
		rTelegram sql.NullString
	)

	err := db.QueryRow(`
		SELECT lt.token, lt.survey_id,
		       s.title, s.review_type, s.is_closed, s.created_at, s.deadline,
		       r.id, r.first_name, r.last_name, r.email, r.telegram,
		       subj.id, subj.first_name, subj.last_name
		FROM link_token lt
		JOIN survey s ON s.id = lt.survey_id
		JOIN user_info r ON r.id = lt.respondent_user_id
		JOIN user_info subj ON subj.id = s.subject_user_id
		WHERE lt.token = $1 AND lt.is_revoked = FALSE
	`, token).Scan(
		&lc.Token, &lc.SurveyID,
		&title, &lc.ReviewType, &lc.IsClosed, &lc.CreatedAt, &lc.Deadline,
		&lc.Respondent.RespondentID, &lc.Respondent.FirstName, &lc.Respondent.LastName, &rEmail, &rTelegram,
		&lc.Subject.SubjectID, &lc.Subject.FirstName, &lc.Subject.LastName,
	)
	if err != nil {
		return nil, err
	}

	lc.Title = title.String
	lc.Respondent.Email = rEmail.String
	lc.Respondent.Telegram = rTelegram.String
	lc.RespondentID = lc.Respondent.RespondentID
	return &lc, nil
}

// questionParams is the shape of the question.params JSON column.
type questionParams struct {
	Min         *int   `json:"min,omitempty"`
	Max         *int   `json:"max,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	MinLength   *int   `json:"minLength,omitempty"`
}

// blockIDFor derives the wire block id from a question id.
func blockIDFor(questionID string) string {
	return "q" + strings.TrimPrefix(questionID, "qst_")
}

// buildBlocks loads a survey's ordered question set and converts each
// question to its wire block form.
func buildBlocks(db *sql.DB, surveyID string) ([]models.Block, error) {
	rows, err := db.Query(`
		SELECT sq.question_id, sq.optional, q.question_text, q.question_type, q.params
		FROM survey_question sq
		JOIN question q ON q.id = sq.question_id
		WHERE sq.survey_id = $1
		ORDER BY sq.position
	`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []models.Block
	for rows.Next() {
		var (
			questionID string
			optional   bool
			text       string
			qtype      string
			rawParams  sql.NullString
		)
		if err := rows.Scan(&questionID, &optional, &text, &qtype, &rawParams); err != nil {
			return nil, err
		}

		var params questionParams
		if rawParams.Valid && rawParams.String != "" {
			if err := json.Unmarshal([]byte(rawParams.String), &params); err != nil {
				slog.Warn("ignoring malformed question params", "question_id", questionID, "error", err)
			}
		}

		b := models.Block{
			ID:       blockIDFor(questionID),
			Type:     qtype,
			Name:     blockName(text, questionID),
			Optional: optional,
		}
		switch qtype {
		case models.BlockRating:
			b.Question = text
			if params.Min != nil {
				b.Min = *params.Min
			}
			if params.Max != nil {
				b.Max = *params.Max
			}
		case models.BlockText:
			b.Prompt = text
			b.Placeholder = params.Placeholder
			if params.MinLength != nil {
				b.MinLength = *params.MinLength
			}
		}
		blocks = append(blocks, b.Normalize())
	}
	return blocks, rows.Err()
}

// blockName derives a short display name from the question text: its
// first line, truncated to 80 runes.
func blockName(text, questionID string) string {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if runes := []rune(line); len(runes) > 80 {
		line = string(runes[:80])
	}
	if line == "" {
		return "Question " + strings.TrimPrefix(questionID, "qst_")
	}
	return line
}

// validateAnswers checks each submitted key against the survey's block
// definitions. Only keys present in the map are checked; an explicit
// null on a required block is rejected, an absent key is not.
func validateAnswers(answers models.AnswerMap, blocks []models.Block) (string, bool) {
	byID := make(map[string]models.Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}

	for id, val := range answers {
		b, ok := byID[id]
		if !ok {
			return "Unknown block id: " + id, false
		}
		if val == nil {
			if !b.Optional {
				return "Block " + id + " is required", false
			}
			continue
		}
		switch b.Type {
		case models.BlockRating:
			n, ok := validate.IntValue(val)
			if !ok {
				return "Block " + id + " must be integer", false
			}
			if n < b.Min || n > b.Max {
				return fmt.Sprintf("Block %s out of range [%d,%d]", id, b.Min, b.Max), false
			}
		case models.BlockText:
			s, ok := val.(string)
			if !ok {
				return "Block " + id + " must be string", false
			}
			if b.MinLength > 0 && len([]rune(s)) < b.MinLength {
				return fmt.Sprintf("Block %s minLength=%d", id, b.MinLength), false
			}
		default:
			return "Block " + id + " is not answerable", false
		}
	}
	return "", true
}

// isUniqueViolation matches the duplicate-key errors of both drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// surveyTitle applies the default title for surveys created without one.
func surveyTitle(title, reviewType string) string {
	if title != "" {
		return title
	}
	if reviewType != "" {
		return strings.ToUpper(reviewType) + " Engineering 360"
	}
	return "360 Survey"
}
