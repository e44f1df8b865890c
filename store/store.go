// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Dforgeek/xUI/models"
)

// Namespace for the in-progress answer blob. Answers are kept under one
// fixed key; response identities are kept per survey.
const answersNS = "answers/current"

func identityNS(surveyID string) string { return "response/" + surveyID }

const schema = `
CREATE TABLE IF NOT EXISTS local_kv (
	ns         TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store is durable local persistence for a respondent's in-progress
// answers and last known response identity, backed by a sqlite file.
// All writes are best-effort: callers are expected to discard the error
// from Save* calls, so a broken disk degrades the session to memory-only
// instead of blocking traversal.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the local store at path. Use ":memory:"
// for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("local store pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("local store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadAnswers returns the persisted answer map. Absent or corrupt data
// degrades to an empty map; a half-written blob must never take the
// session down.
func (s *Store) LoadAnswers() models.AnswerMap {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM local_kv WHERE ns = $1`, answersNS).Scan(&payload)
	if err != nil {
		return models.AnswerMap{}
	}
	var m models.AnswerMap
	if err := json.Unmarshal([]byte(payload), &m); err != nil || m == nil {
		return models.AnswerMap{}
	}
	return m
}

// SaveAnswers persists the answer map under the fixed namespace.
func (s *Store) SaveAnswers(m models.AnswerMap) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	return s.put(answersNS, string(payload))
}

// LoadIdentity returns the last known response identity for a survey, or
// the zero identity when absent or corrupt.
func (s *Store) LoadIdentity(surveyID string) models.ResponseIdentity {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM local_kv WHERE ns = $1`, identityNS(surveyID)).Scan(&payload)
	if err != nil {
		return models.ResponseIdentity{}
	}
	var id models.ResponseIdentity
	if err := json.Unmarshal([]byte(payload), &id); err != nil {
		return models.ResponseIdentity{}
	}
	return id
}

// SaveIdentity persists the response identity under the survey's
// namespace, overwriting any prior value.
func (s *Store) SaveIdentity(surveyID string, id models.ResponseIdentity) error {
	payload, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	return s.put(identityNS(surveyID), string(payload))
}

// Clear removes the answer blob and the survey's response identity.
func (s *Store) Clear(surveyID string) error {
	_, err := s.db.Exec(`DELETE FROM local_kv WHERE ns IN ($1, $2)`, answersNS, identityNS(surveyID))
	if err != nil {
		return fmt.Errorf("clear local store: %w", err)
	}
	return nil
}

func (s *Store) put(ns, payload string) error {
	_, err := s.db.Exec(`
		INSERT INTO local_kv (ns, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT(ns) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, ns, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write %s: %w", ns, err)
	}
	return nil
}
