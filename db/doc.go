// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation for the survey service.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and
indexes.

# Tables

  - user_info: subjects and respondents
  - question: the question bank (rating/text with JSON params)
  - survey: one personal survey per (subject, respondent) pair
  - survey_question: ordered question set per survey
  - link_token: single-use access credentials
  - response: one versioned answer set per respondent per survey

# Relationships

	user_info 1──* survey (as subject, as respondent)
	survey 1──* survey_question *──1 question
	survey 1──* link_token
	survey 1──* response

All foreign keys use ON DELETE CASCADE.

# Portability

One schema string serves both sqlite (modernc.org/sqlite) and postgres
(lib/pq): ids are opaque TEXT generated in Go, timestamps are written by
the application, answers and question params are JSON text, and
placeholders use the $N form both drivers accept.
*/
package db
