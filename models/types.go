// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Block type constants
const (
	BlockProfile = "profile"
	BlockRating  = "rating"
	BlockText    = "text"
)

// ProfileBlockID is the id of the synthetic identity block injected at
// position 0 of every survey.
const ProfileBlockID = "profile"

// Survey review type constants
const (
	ReviewType360  = "360"
	ReviewTypePeer = "peer"
)

// Rating defaults applied when a block definition omits its bounds
const (
	DefaultRatingMin = 1
	DefaultRatingMax = 10
)

// Block is one question/step in the survey sequence. It is a tagged union
// over Type; rating and text carry their own parameters, profile carries
// none and validates against respondent identity instead.
type Block struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Optional bool   `json:"optional"`

	// rating
	Question string `json:"question,omitempty"`
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`

	// text
	Prompt      string `json:"prompt,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	MinLength   int    `json:"minLength,omitempty"`
}

// Normalize fills in rating bounds for definitions that omit them.
func (b Block) Normalize() Block {
	if b.Type == BlockRating && b.Min == 0 && b.Max == 0 {
		b.Min = DefaultRatingMin
		b.Max = DefaultRatingMax
	}
	return b
}

// AnswerMap holds in-progress answers keyed by block id. Values are int
// for rating blocks, string for text blocks, and a ProfileAnswer (or its
// decoded JSON map form) for the profile block. A missing key means
// unanswered.
type AnswerMap map[string]any

// Clone returns a shallow copy. Answer values are replaced wholesale on
// every edit, so a shallow copy is enough to detach two maps.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ProfileAnswer is the structured value stored under the profile block.
type ProfileAnswer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Telegram  string `json:"telegram,omitempty"`
}

// Respondent identifies the person filling in the survey.
type Respondent struct {
	RespondentID string `json:"respondentId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email,omitempty"`
	Telegram     string `json:"telegram,omitempty"`
}

// Subject identifies the person the feedback is about.
type Subject struct {
	SubjectID string `json:"subjectId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Survey is the wire form of a survey definition.
type Survey struct {
	SurveyID   string     `json:"surveyId"`
	Title      string     `json:"title"`
	Deadline   time.Time  `json:"deadlineISO"`
	Respondent Respondent `json:"respondent"`
	Subject    Subject    `json:"subject"`
	Blocks     []Block    `json:"blocks"`
}

// ResponseIdentity is the server-assigned identity of a stored submission.
// The zero value means "no submission exists yet". Version is only ever
// set from a server response, never advanced locally.
type ResponseIdentity struct {
	ResponseID string `json:"responseId"`
	Version    int64  `json:"version"`
}

// Exists reports whether the identity refers to a stored response.
func (id ResponseIdentity) Exists() bool { return id.ResponseID != "" }

// PriorResponse is an existing submission attached to a link token, as
// reported by the access endpoint. Answers is the server's stored answer
// set and becomes the client's baseline.
type PriorResponse struct {
	ResponseID string    `json:"responseId"`
	Version    int64     `json:"version"`
	Answers    AnswerMap `json:"answers,omitempty"`
}

// AccessEnvelope is the payload of GET /v1/surveys/access/{token}.
type AccessEnvelope struct {
	Now      time.Time      `json:"nowISO"`
	IsClosed bool           `json:"isClosed"`
	Survey   Survey         `json:"survey"`
	Response *PriorResponse `json:"response,omitempty"`
}

// Snapshot is the session-lifetime view of a resolved survey. Read-only
// after resolve except for the server closure flag.
type Snapshot struct {
	SurveyID         string
	Title            string
	Deadline         time.Time
	Blocks           []Block
	Respondent       Respondent
	Subject          Subject
	IsClosedByServer bool
}

// BlockIndex returns the position of a block id, or -1.
func (s *Snapshot) BlockIndex(id string) int {
	for i, b := range s.Blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// ClientMeta carries diagnostic submission metadata. The server stores it
// verbatim and never validates it.
type ClientMeta struct {
	UserAgent   string `json:"userAgent,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	StartedAt   string `json:"startedAtISO,omitempty"`
	SubmittedAt string `json:"submittedAtISO,omitempty"`
}

// Request types

type ResponseSubmission struct {
	Answers AnswerMap   `json:"answers"`
	Client  *ClientMeta `json:"client,omitempty"`
}

type ResponseUpdate struct {
	AnswersDelta AnswerMap   `json:"answersDelta"`
	Client       *ClientMeta `json:"client,omitempty"`
}

type InitiateSurveyRequest struct {
	SubjectUserID   string    `json:"subjectUserId"`
	ReviewerUserIDs []string  `json:"reviewerUserIds"`
	QuestionIDs     []string  `json:"questionIds"`
	Deadline        time.Time `json:"deadlineISO"`
	ReviewType      string    `json:"reviewType"`
	Title           string    `json:"title,omitempty"`
	Anonymous       bool      `json:"anonymous"`
}

// Response types

type ResponseCreated struct {
	ResponseID  string    `json:"responseId"`
	SurveyID    string    `json:"surveyId"`
	SubmittedAt time.Time `json:"submittedAtISO"`
	Version     int64     `json:"version"`
}

type ResponseUpdated struct {
	ResponseID string    `json:"responseId"`
	SurveyID   string    `json:"surveyId"`
	UpdatedAt  time.Time `json:"updatedAtISO"`
	Version    int64     `json:"version"`
}

type InitiatedSurvey struct {
	SurveyID     string `json:"surveyId"`
	RespondentID string `json:"respondentUserId"`
	LinkToken    string `json:"linkToken"`
}

type InitiateSurveyResponse struct {
	BatchCreated   []InitiatedSurvey `json:"batchCreated"`
	QuestionsCount int               `json:"questionsCount"`
}

type SurveyListItem struct {
	SurveyID        string     `json:"surveyId"`
	CreatedAt       time.Time  `json:"createdAtISO"`
	Deadline        time.Time  `json:"deadlineISO"`
	IsClosed        bool       `json:"isClosed"`
	ReviewType      string     `json:"reviewType"`
	Title           string     `json:"title,omitempty"`
	Subject         Subject    `json:"subject"`
	Respondent      Respondent `json:"respondent"`
	HasResponse     bool       `json:"hasResponse"`
	ResponseVersion *int64     `json:"responseVersion,omitempty"`
	LinkToken       string     `json:"linkToken,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
