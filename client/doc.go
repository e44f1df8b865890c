// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package client is the HTTP+JSON client for the remote survey service.

Three calls, mapping one-to-one onto the v1 API:

  - Resolve: GET /v1/surveys/access/{token}
  - CreateResponse: POST /v1/surveys/{surveyId}/responses
  - PatchResponse: PATCH /v1/surveys/{surveyId}/responses/{responseId}

Resolve failures surface as *AccessError carrying the status and body
verbatim: fatal for the session, no retry without a fresh start. Create
and patch failures surface as *APIError, except a create that hits a 409:
that comes back wrapped in ErrConflict, the single recoverable outcome
(another submission for the token already exists; the session re-resolves
and retries once as a patch).

Resolve also normalizes the block sequence: rating defaults are applied
and the synthetic profile block is injected at position 0 regardless of
what the remote defines.
*/
package client
