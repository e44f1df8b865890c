// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP helpers shared by all handlers.

# Helpers

  - WithLogging: request start/completion logging with duration
  - JSONResponse: write a JSON body with a status code
  - ErrorResponse: write a models.ErrorResponse
  - ParseJSONBody: decode a JSON request body
  - CORS: cross-origin headers for the survey frontend, including the
    X-Survey-Token header used by response submission
*/
package middleware
