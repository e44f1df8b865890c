// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session is the survey traversal and synchronization engine.

# State machine

A Session moves through five states:

	Loading      → Active        (resolve ok, at the resume position)
	Loading      → Error         (resolve failed, terminal)
	Active(i)    → Active(i+1)   (advance, block i valid)
	Active(i)    → Active(i-1)   (retreat, always permitted)
	Active(i)    → Active(j)     (jump, j visited)
	Active(last) → Submitted     (advance, valid, submit ok)
	Submitted    → Active        (edit, at first invalid, answers kept)
	any          → Closed        (closure, suppresses everything)

The visited set only grows; position 0 is visited on entry. Closure is
the server-reported flag (sticky, takes precedence) or local ceil-days
remaining ≤ 0. Reset is available from any resolved state and returns to
Active(0) with only the profile answer.

# Synchronization

On the last advance the session submits: create when no response
identity is known, update otherwise. A create that collides with an
existing response (two tabs, a reload racing an in-flight submit)
re-resolves the token, adopts the server's {responseId, version}, and
retries exactly once as an update. Versions are only ever adopted from
server responses and are persisted to local storage before the traversal
state advances. All other failures are terminal for the attempt and the
caller may retry manually.

# Caller discipline

A Session is single-writer and not safe for concurrent use. At most one
submit may be in flight; Busy reports the in-flight window and Advance
returns ErrBusy inside it. Answer writes mirror to local storage
best-effort; the discarded Save error at each call site is the policy,
not an oversight.

# Demo mode

NewDemo builds a session with no token and no remote: no Loading state,
and submitting succeeds without a network call. Used for self-contained
walkthroughs of the block sequence.
*/
package session
