// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Dforgeek/xUI/models"
	"github.com/Dforgeek/xUI/validate"
)

// State is the traversal state of a session.
type State int

const (
	StateLoading State = iota
	StateError
	StateActive
	StateClosed
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

var (
	// ErrClosed is returned by transitions once the survey is closed.
	ErrClosed = errors.New("survey is closed")
	// ErrBusy is returned while a submit is in flight. At-most-one
	// in-flight submit per session is caller discipline; this is the
	// session's side of that contract.
	ErrBusy = errors.New("submit in flight")
	// ErrNotResolved is returned by operations that need a snapshot
	// while the session is still loading or failed to resolve.
	ErrNotResolved = errors.New("session not resolved")
)

// Storage is the local persistence capability the session writes through
// to. Save errors are deliberately discarded at call sites: storage is
// best-effort and never blocks traversal.
type Storage interface {
	LoadAnswers() models.AnswerMap
	SaveAnswers(models.AnswerMap) error
	LoadIdentity(surveyID string) models.ResponseIdentity
	SaveIdentity(surveyID string, id models.ResponseIdentity) error
	Clear(surveyID string) error
}

// API is the remote survey service surface the session needs.
// *client.Client satisfies it.
type API interface {
	Resolve(ctx context.Context, token string) (*models.Snapshot, *models.PriorResponse, error)
	CreateResponse(ctx context.Context, surveyID, token string, sub models.ResponseSubmission) (models.ResponseIdentity, error)
	PatchResponse(ctx context.Context, surveyID, responseID, token string, upd models.ResponseUpdate) (models.ResponseIdentity, error)
}

// Session owns one respondent's traversal through one survey: current
// position, visited set, answers, response identity, and the
// submit-or-update engine. All session-wide mutable state lives here;
// there are no package-level singletons.
//
// A Session is not safe for concurrent use. The model is a single
// cooperative writer: one logical actor drives transitions and suspends
// on Advance while a submit is in flight.
type Session struct {
	token   string
	api     API
	storage Storage
	now     func() time.Time

	state      State
	resolveErr error
	snapshot   *models.Snapshot
	answers    models.AnswerMap
	baseline   models.AnswerMap
	identity   models.ResponseIdentity
	position   int
	visited    map[int]bool
	busy       bool
	startedAt  time.Time
}

// New returns a session in StateLoading, awaiting Start.
func New(api API, storage Storage, token string) *Session {
	return &Session{
		token:   token,
		api:     api,
		storage: storage,
		now:     time.Now,
		state:   StateLoading,
		visited: make(map[int]bool),
	}
}

// NewDemo returns a self-contained session with no remote dependency:
// no Loading state, no network on submit. The profile block is injected
// at position 0 exactly as the resolver would.
func NewDemo(storage Storage, snap models.Snapshot) *Session {
	s := &Session{
		storage: storage,
		now:     time.Now,
		visited: make(map[int]bool),
	}
	if snap.Deadline.IsZero() {
		snap.Deadline = time.Now().Add(14 * 24 * time.Hour)
	}
	blocks := make([]models.Block, 0, len(snap.Blocks)+1)
	blocks = append(blocks, models.Block{ID: models.ProfileBlockID, Type: models.BlockProfile, Name: "Your profile"})
	for _, b := range snap.Blocks {
		if b.Type == models.BlockProfile {
			continue
		}
		blocks = append(blocks, b.Normalize())
	}
	snap.Blocks = blocks
	s.snapshot = &snap
	s.installAnswers()
	s.startedAt = s.now()
	s.enterStart()
	return s
}

// Start resolves the link token and computes the initial position. A
// resolve failure is terminal: the session parks in StateError and only a
// fresh session can retry.
func (s *Session) Start(ctx context.Context) error {
	if s.state != StateLoading {
		return nil
	}

	snap, prior, err := s.api.Resolve(ctx, s.token)
	if err != nil {
		s.state = StateError
		s.resolveErr = err
		return err
	}
	s.snapshot = snap

	// The server's identity is authoritative; the local copy only covers
	// the case where the access payload carries none.
	if prior != nil {
		s.identity = models.ResponseIdentity{ResponseID: prior.ResponseID, Version: prior.Version}
		s.baseline = filterToBlocks(snap, prior.Answers)
		_ = s.storage.SaveIdentity(snap.SurveyID, s.identity)
	} else {
		s.identity = s.storage.LoadIdentity(snap.SurveyID)
	}

	local := filterToBlocks(snap, s.storage.LoadAnswers())
	s.answers = Merge(s.baseline, local, profileFromRespondent(snap.Respondent))
	_ = s.storage.SaveAnswers(s.answers)

	s.startedAt = s.now()
	s.enterStart()

	slog.Info("survey resolved",
		"survey_id", snap.SurveyID,
		"blocks", len(snap.Blocks),
		"deadline", humanize.Time(snap.Deadline),
		"state", s.state.String(),
		"position", s.position,
	)
	return nil
}

// enterStart computes the opening state and visited set from the merged
// answers and known identity.
func (s *Session) enterStart() {
	if s.closedNow() {
		s.state = StateClosed
		s.visited[0] = true
		return
	}

	if s.identity.Exists() {
		s.state = StateSubmitted
		for i := range s.snapshot.Blocks {
			s.visited[i] = true
		}
		s.position = len(s.snapshot.Blocks) - 1
		return
	}

	s.state = StateActive
	s.position = validate.FirstInvalid(s.snapshot.Blocks, s.answers)
	if s.position == -1 {
		s.position = len(s.snapshot.Blocks) - 1
	}
	// The respondent traversed everything up to the resume point before
	// the reload; those indices stay jumpable.
	for i := 0; i <= s.position; i++ {
		s.visited[i] = true
	}
}

// State returns the current state, accounting for closure becoming true
// since the last transition.
func (s *Session) State() State {
	s.checkClosure()
	return s.state
}

// Err returns the terminal resolve failure, if any.
func (s *Session) Err() error { return s.resolveErr }

// Position returns the current block index.
func (s *Session) Position() int { return s.position }

// Busy reports whether a submit is in flight. Callers must not start a
// second submit while true.
func (s *Session) Busy() bool { return s.busy }

// Identity returns the last adopted response identity.
func (s *Session) Identity() models.ResponseIdentity { return s.identity }

// Snapshot returns the resolved survey, or nil before resolve.
func (s *Session) Snapshot() *models.Snapshot { return s.snapshot }

// Block returns the current block.
func (s *Session) Block() models.Block {
	return s.snapshot.Blocks[s.position]
}

// Answers returns a copy of the current answer map.
func (s *Session) Answers() models.AnswerMap {
	return s.answers.Clone()
}

// Visited reports whether index i has been the current position.
func (s *Session) Visited(i int) bool { return s.visited[i] }

// CanAdvance reports whether the current block is satisfied.
func (s *Session) CanAdvance() bool {
	return validate.Valid(s.snapshot.Blocks[s.position], s.answers)
}

// SetAnswer records an answer and mirrors it to local storage. Keys
// outside the survey's block sequence are ignored, keeping the answer
// map scoped to the snapshot. Storage failure is swallowed: the session
// keeps working from memory.
func (s *Session) SetAnswer(blockID string, value any) {
	if s.snapshot == nil || s.snapshot.BlockIndex(blockID) == -1 {
		return
	}
	if s.answers == nil {
		s.answers = models.AnswerMap{}
	}
	s.answers[blockID] = value
	_ = s.storage.SaveAnswers(s.answers)
}

// ClearAnswer removes an answer (back to "unanswered").
func (s *Session) ClearAnswer(blockID string) {
	delete(s.answers, blockID)
	_ = s.storage.SaveAnswers(s.answers)
}

// Advance moves forward one block if the current block is satisfied.
// On the last block it instead runs the submit-or-update engine and
// enters StateSubmitted on success. An unsatisfied block is a no-op, not
// an error; a failed submit leaves the position unchanged and returns
// the failure for the caller to report.
func (s *Session) Advance(ctx context.Context) error {
	if s.busy {
		return ErrBusy
	}
	if s.snapshot == nil {
		return ErrNotResolved
	}
	s.checkClosure()
	if s.state == StateClosed {
		return ErrClosed
	}
	if s.state != StateActive {
		return nil
	}
	if !validate.Valid(s.snapshot.Blocks[s.position], s.answers) {
		return nil
	}

	if s.position < len(s.snapshot.Blocks)-1 {
		s.position++
		s.visited[s.position] = true
		return nil
	}

	s.busy = true
	defer func() { s.busy = false }()
	if err := s.submit(ctx); err != nil {
		return err
	}
	s.state = StateSubmitted
	return nil
}

// Retreat moves back one block. Always permitted while active,
// regardless of validity.
func (s *Session) Retreat() {
	s.checkClosure()
	if s.state != StateActive {
		return
	}
	if s.position > 0 {
		s.position--
	}
}

// Jump moves to a previously visited index.
func (s *Session) Jump(i int) {
	s.checkClosure()
	if s.state != StateActive {
		return
	}
	if s.visited[i] {
		s.position = i
	}
}

// Edit re-enters active traversal from the submitted/review state,
// keeping all answers. Position is recomputed as the first unsatisfied
// block, or the last when everything is satisfied.
func (s *Session) Edit() {
	s.checkClosure()
	if s.state != StateSubmitted {
		return
	}
	s.state = StateActive
	s.position = validate.FirstInvalid(s.snapshot.Blocks, s.answers)
	if s.position == -1 {
		s.position = len(s.snapshot.Blocks) - 1
	}
}

// Reset wipes local state for this survey: answers back to just the
// respondent's identity, visited set back to position 0, traversal back
// to the start. Available from any state with a snapshot; a session that
// never resolved has nothing to reset.
func (s *Session) Reset() error {
	if s.state == StateLoading {
		return ErrNotResolved
	}
	if s.snapshot == nil {
		return ErrNotResolved
	}
	_ = s.storage.Clear(s.snapshot.SurveyID)
	s.installAnswers()
	s.position = 0
	s.visited = map[int]bool{0: true}
	s.state = StateActive
	s.checkClosure()
	return nil
}

// installAnswers seeds the answer map with just the profile slot.
func (s *Session) installAnswers() {
	s.answers = models.AnswerMap{
		models.ProfileBlockID: profileFromRespondent(s.snapshot.Respondent),
	}
	s.baseline = nil
	s.identity = models.ResponseIdentity{}
	_ = s.storage.SaveAnswers(s.answers)
}

// DaysRemaining is the whole days until the deadline, rounded up.
func (s *Session) DaysRemaining() int {
	return int(math.Ceil(s.snapshot.Deadline.Sub(s.now()).Hours() / 24))
}

// Remaining phrases the deadline for display ("2 days from now").
func (s *Session) Remaining() string {
	if s.State() == StateClosed {
		return "closed"
	}
	return humanize.Time(s.snapshot.Deadline)
}

// closedNow computes the closure condition. The server-reported flag is
// sticky and takes precedence even when the local clock disagrees.
func (s *Session) closedNow() bool {
	if s.snapshot.IsClosedByServer {
		return true
	}
	return s.DaysRemaining() <= 0
}

// checkClosure flips the session to StateClosed the moment the closure
// condition holds. Loading and Error have no snapshot to judge by.
func (s *Session) checkClosure() {
	if s.snapshot == nil || s.state == StateError {
		return
	}
	if s.state != StateClosed && s.closedNow() {
		s.state = StateClosed
		slog.Info("survey closed", "survey_id", s.snapshot.SurveyID, "server_flag", s.snapshot.IsClosedByServer)
	}
}

func profileFromRespondent(r models.Respondent) models.ProfileAnswer {
	return models.ProfileAnswer{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Telegram:  r.Telegram,
	}
}

// filterToBlocks drops keys that are not block ids of the snapshot,
// keeping the answer map scoped to the survey.
func filterToBlocks(snap *models.Snapshot, m models.AnswerMap) models.AnswerMap {
	if m == nil {
		return nil
	}
	out := models.AnswerMap{}
	for k, v := range m {
		if snap.BlockIndex(k) != -1 {
			out[k] = v
		}
	}
	return out
}
