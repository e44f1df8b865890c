// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dforgeek/xUI/client"
	"github.com/Dforgeek/xUI/models"
)

// SyncError is a terminal submit/update failure for one attempt. The
// traversal state is not advanced; the caller may retry manually by
// re-invoking Advance.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string { return fmt.Sprintf("sync %s: %v", e.Op, e.Err) }
func (e *SyncError) Unwrap() error { return e.Err }

// submit is the submit-or-update engine. No identity yet means create;
// a create that hits a conflict re-resolves to adopt the server's
// authoritative identity and retries exactly once as an update. There
// are no other retries anywhere in the engine.
func (s *Session) submit(ctx context.Context) error {
	if s.api == nil {
		// Demo mode has no remote: submitting is trivially successful.
		return nil
	}

	answerable := answerableMap(s.snapshot.Blocks, s.answers)
	meta := s.clientMeta()

	if !s.identity.Exists() {
		id, err := s.api.CreateResponse(ctx, s.snapshot.SurveyID, s.token, models.ResponseSubmission{
			Answers: answerable,
			Client:  meta,
		})
		switch {
		case err == nil:
			s.adoptIdentity(id)
			s.baseline = answerable.Clone()
			slog.Info("response created", "survey_id", s.snapshot.SurveyID, "response_id", id.ResponseID, "version", id.Version)
			return nil
		case errors.Is(err, client.ErrConflict):
			return s.recoverConflict(ctx, answerable, meta)
		default:
			return &SyncError{Op: "create", Err: err}
		}
	}

	return s.update(ctx, answerable, meta)
}

// update patches the existing response. The delta against the baseline
// and the full answerable map are equivalent on the server (PATCH is a
// merge-by-key); the delta is preferred when a baseline is known.
func (s *Session) update(ctx context.Context, answerable models.AnswerMap, meta *models.ClientMeta) error {
	delta := answerable
	if s.baseline != nil {
		delta = diff(answerable, s.baseline)
	}

	id, err := s.api.PatchResponse(ctx, s.snapshot.SurveyID, s.identity.ResponseID, s.token, models.ResponseUpdate{
		AnswersDelta: delta,
		Client:       meta,
	})
	if err != nil {
		return &SyncError{Op: "update", Err: err}
	}

	s.adoptIdentity(id)
	s.baseline = answerable.Clone()
	slog.Info("response updated", "survey_id", s.snapshot.SurveyID, "response_id", id.ResponseID, "version", id.Version)
	return nil
}

// recoverConflict handles a create racing an already-existing response
// (two tabs, or a reload racing an in-flight submit): re-resolve the
// token to learn the server's {responseId, version}, adopt it, and retry
// once as an update carrying the same answerable map.
func (s *Session) recoverConflict(ctx context.Context, answerable models.AnswerMap, meta *models.ClientMeta) error {
	slog.Warn("create conflict, re-resolving to adopt server response", "survey_id", s.snapshot.SurveyID)

	snap, prior, err := s.api.Resolve(ctx, s.token)
	if err != nil {
		return &SyncError{Op: "conflict recovery", Err: err}
	}
	if prior == nil {
		return &SyncError{Op: "conflict recovery", Err: errors.New("server reported a conflict but no existing response")}
	}

	// Closure may have flipped server-side since the session started.
	s.snapshot.IsClosedByServer = snap.IsClosedByServer

	s.adoptIdentity(models.ResponseIdentity{ResponseID: prior.ResponseID, Version: prior.Version})
	s.baseline = filterToBlocks(s.snapshot, prior.Answers)

	id, err := s.api.PatchResponse(ctx, s.snapshot.SurveyID, s.identity.ResponseID, s.token, models.ResponseUpdate{
		AnswersDelta: answerable,
		Client:       meta,
	})
	if err != nil {
		return &SyncError{Op: "conflict retry", Err: err}
	}

	s.adoptIdentity(id)
	s.baseline = answerable.Clone()
	slog.Info("conflict recovered", "survey_id", s.snapshot.SurveyID, "response_id", id.ResponseID, "version", id.Version)
	return nil
}

// adoptIdentity records a server-reported identity and persists it
// immediately, so an edit in the same session or after a reload becomes
// an update instead of a duplicate create.
func (s *Session) adoptIdentity(id models.ResponseIdentity) {
	s.identity = id
	_ = s.storage.SaveIdentity(s.snapshot.SurveyID, id)
}

// clientMeta is diagnostic only; the server stores it verbatim.
func (s *Session) clientMeta() *models.ClientMeta {
	zone, _ := s.now().Zone()
	return &models.ClientMeta{
		UserAgent:   "xui-survey-engine/1.0",
		Timezone:    zone,
		StartedAt:   s.startedAt.UTC().Format(time.RFC3339),
		SubmittedAt: s.now().UTC().Format(time.RFC3339),
	}
}
