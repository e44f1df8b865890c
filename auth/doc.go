// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth generates link tokens and opaque ids for the survey service.

GenerateLinkToken mints the single-use credential a respondent receives;
the engine treats it as opaque and the service validates it on every
call. NewID produces prefixed opaque ids (srv_, rsp_, usr_) for rows.

There is no account system: a link token IS the respondent's credential
for exactly one survey.
*/
package auth
