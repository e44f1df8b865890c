// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the xUI survey API server.

xUI is a 360-review survey system: each review batch creates one
personal survey per reviewer, reached through a single-use link token.
Respondents step through the survey one block at a time in the client
engine (see the session package) and their answers sync back here with
optimistic versioning.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=surveys.db go run main.go

Or with flags:

	go run main.go -p 3344 -d "postgres://..." -t postgres

A .env file in the working directory is loaded if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): Connection string or sqlite file path

Optional settings:

  - PORT (-p): Server port (default: 3344)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (access, responses, surveys)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Wire types shared by server and client
  - auth: Link-token and id generation
  - db: Schema creation
  - cliparse: Configuration parsing

The client engine lives alongside the server:

  - client: HTTP access to this API
  - validate: Block-level answer validation
  - store: Durable local answer/identity persistence
  - session: Traversal state machine and sync engine

See package documentation for each component.
*/
package main
