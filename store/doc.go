// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the engine's durable local persistence: the in-progress
answer map under one fixed namespace and the last known response identity
under a per-survey namespace, in a single sqlite key-value table.

# Failure policy

Storage is strictly best-effort. Loads degrade to empty values when data
is absent or corrupt; Save* return an error that callers deliberately
discard. A storage failure must never block traversal: the session keeps
working from memory and the next successful write repairs the blob.

# Scoping

The answer blob lives under a fixed namespace ("answers/current"),
mirroring the single active session; identities are scoped per survey id
so that two surveys never interfere. There is one logical writer (the
active session), so no locking beyond sqlite's own.

Memory provides the same semantics without a file, for demo mode and
tests.
*/
package store
