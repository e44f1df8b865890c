// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the survey API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - AccessHandler: Link-token resolution (survey envelope)
  - ResponsesHandler: Response creation and patching
  - SurveysHandler: Survey listing and batch initiation

Handlers are created via constructor functions that accept *sql.DB and Config:

	accessHandler := handlers.NewAccessHandler(db, cfg)

# Respondent Flow

Respondents interact through a link token only:

	GET   /v1/surveys/access/{token}                → Access (survey envelope)
	POST  /v1/surveys/{id}/responses                → Create (version 1)
	PATCH /v1/surveys/{id}/responses/{responseId}   → Update (version + 1)

Create and Update require the X-Survey-Token header. Access of a closed
or past-deadline survey returns the envelope with isClosed set rather
than an error, so clients can render the closed state. Create past the
deadline returns 410; Update past the deadline returns 409 (locked).

# Versioning

Each stored response carries a version counter that starts at 1 and is
advanced only here, one step per successful PATCH. Clients echo the
version they last saw; a duplicate create attempt gets 409 and is
expected to re-resolve via Access and retry with PATCH.

# Administration

Survey setup is a trusted-caller surface with no token auth:

	GET  /v1/surveys          → List (filter by subject/respondent)
	POST /v1/surveys/initiate → Initiate (one personal survey per reviewer)
*/
package handlers
