// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/Dforgeek/xUI/cliparse"
	"github.com/Dforgeek/xUI/handlers"
	"github.com/Dforgeek/xUI/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	accessHandler := handlers.NewAccessHandler(db, cfg)
	responsesHandler := handlers.NewResponsesHandler(db, cfg)
	surveysHandler := handlers.NewSurveysHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Respondent operations (link-token auth)
	mux.HandleFunc("GET /v1/surveys/access/{token}", middleware.WithLogging(accessHandler.Access))
	mux.HandleFunc("POST /v1/surveys/{id}/responses", middleware.WithLogging(responsesHandler.Create))
	mux.HandleFunc("PATCH /v1/surveys/{id}/responses/{responseId}", middleware.WithLogging(responsesHandler.Update))

	// Survey administration (trusted callers)
	mux.HandleFunc("GET /v1/surveys", middleware.WithLogging(surveysHandler.List))
	mux.HandleFunc("POST /v1/surveys/initiate", middleware.WithLogging(surveysHandler.Initiate))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("xUI survey API v1"))
	})

	return mux
}
