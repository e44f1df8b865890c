// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the survey API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Respondent operations (link-token auth via path or X-Survey-Token):

	GET   /v1/surveys/access/{token}              - Resolve survey envelope
	POST  /v1/surveys/{id}/responses              - Create response
	PATCH /v1/surveys/{id}/responses/{responseId} - Patch response

Survey administration (trusted callers):

	GET  /v1/surveys          - List surveys
	POST /v1/surveys/initiate - Create surveys for a review batch

# Handler Initialization

The router creates handler instances with dependency injection:

	accessHandler := handlers.NewAccessHandler(db, cfg)
	responsesHandler := handlers.NewResponsesHandler(db, cfg)
	surveysHandler := handlers.NewSurveysHandler(db, cfg)

All handlers receive the database connection and configuration.
*/
package router
