// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the service.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The schema text is shared between sqlite and postgres: ids are opaque
// TEXT generated in Go, timestamps are written by the application, and
// answers are stored as JSON text.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- People (subjects and respondents)
CREATE TABLE IF NOT EXISTS user_info (
    id TEXT PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    email TEXT,
    telegram TEXT
);

-- Question bank
CREATE TABLE IF NOT EXISTS question (
    id TEXT PRIMARY KEY,
    question_text TEXT NOT NULL,
    question_type TEXT NOT NULL CHECK (question_type IN ('rating', 'text')),
    params TEXT
);

-- One personal survey per (subject, respondent) pair
CREATE TABLE IF NOT EXISTS survey (
    id TEXT PRIMARY KEY,
    subject_user_id TEXT NOT NULL REFERENCES user_info(id) ON DELETE CASCADE,
    respondent_user_id TEXT NOT NULL REFERENCES user_info(id) ON DELETE CASCADE,
    title TEXT,
    review_type TEXT NOT NULL DEFAULT '360',
    anonymous BOOLEAN NOT NULL DEFAULT FALSE,
    is_closed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL,
    deadline TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_survey_subject ON survey(subject_user_id);
CREATE INDEX IF NOT EXISTS idx_survey_respondent ON survey(respondent_user_id);

-- Ordered question set per survey
CREATE TABLE IF NOT EXISTS survey_question (
    survey_id TEXT NOT NULL REFERENCES survey(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL REFERENCES question(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    optional BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (survey_id, question_id)
);

CREATE INDEX IF NOT EXISTS idx_survey_question_survey ON survey_question(survey_id);

-- Single-use link tokens
CREATE TABLE IF NOT EXISTS link_token (
    token TEXT PRIMARY KEY,
    survey_id TEXT NOT NULL REFERENCES survey(id) ON DELETE CASCADE,
    respondent_user_id TEXT NOT NULL REFERENCES user_info(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL,
    last_access_at TIMESTAMP,
    is_revoked BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_link_token_survey ON link_token(survey_id);

-- One response per respondent per survey; version is the optimistic
-- concurrency token and only this service ever advances it
CREATE TABLE IF NOT EXISTS response (
    id TEXT PRIMARY KEY,
    survey_id TEXT NOT NULL REFERENCES survey(id) ON DELETE CASCADE,
    respondent_user_id TEXT NOT NULL REFERENCES user_info(id) ON DELETE CASCADE,
    link_token TEXT NOT NULL,
    version BIGINT NOT NULL DEFAULT 1,
    answers TEXT NOT NULL,
    client_meta TEXT,
    submitted_at TIMESTAMP,
    updated_at TIMESTAMP,
    finalized BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE (survey_id, respondent_user_id)
);

CREATE INDEX IF NOT EXISTS idx_response_survey ON response(survey_id);
CREATE INDEX IF NOT EXISTS idx_response_token ON response(link_token);
`
