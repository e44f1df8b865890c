// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import "github.com/Dforgeek/xUI/models"

// Memory is a non-durable store for demo mode and tests. Semantics match
// Store: loads degrade to empty values, writes never fail.
type Memory struct {
	answers    models.AnswerMap
	identities map[string]models.ResponseIdentity
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{identities: make(map[string]models.ResponseIdentity)}
}

func (m *Memory) LoadAnswers() models.AnswerMap {
	if m.answers == nil {
		return models.AnswerMap{}
	}
	return m.answers.Clone()
}

func (m *Memory) SaveAnswers(answers models.AnswerMap) error {
	m.answers = answers.Clone()
	return nil
}

func (m *Memory) LoadIdentity(surveyID string) models.ResponseIdentity {
	return m.identities[surveyID]
}

func (m *Memory) SaveIdentity(surveyID string, id models.ResponseIdentity) error {
	m.identities[surveyID] = id
	return nil
}

func (m *Memory) Clear(surveyID string) error {
	m.answers = nil
	delete(m.identities, surveyID)
	return nil
}
