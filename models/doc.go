// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the wire and domain types shared by the survey
engine and the survey service.

# Blocks

A Block is one question/step in the survey sequence, a tagged union over
Type:

  - profile: synthetic identity block, always at position 0
  - rating: integer answer within [Min, Max] (defaults 1..10)
  - text: string answer with an optional MinLength

Blocks are immutable once loaded; the survey definition owns its ordered
sequence.

# Answers

AnswerMap maps block id to answer value: int for rating, string for text,
ProfileAnswer for the profile block. A missing key means unanswered.

# Response identity

ResponseIdentity is the server-assigned {responseId, version} pair for a
stored submission. The server is the only authority on version; clients
adopt it from responses and never advance it themselves.

# Wire types

Request/response payloads for the v1 API:

  - AccessEnvelope: GET /v1/surveys/access/{token}
  - ResponseSubmission / ResponseCreated: POST .../responses
  - ResponseUpdate / ResponseUpdated: PATCH .../responses/{responseId}
  - InitiateSurveyRequest / InitiateSurveyResponse: POST /v1/surveys/initiate
  - SurveyListItem: GET /v1/surveys
  - ErrorResponse: error, message

# Id conventions

Public ids are prefixed opaque strings: srv_ for surveys, rsp_ for
responses, usr_ for users. Block ids are q<n> plus the synthetic "profile".
*/
package models
