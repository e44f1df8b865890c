// Copyright (c) 2025 the xUI authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package validate decides block completeness.

Valid(block, answers) is a pure predicate with no side effects. An
unsatisfied block is the normal "cannot advance yet" state of the
traversal, represented as false rather than an error.

Rules per block type:

  - rating: optional and unanswered is valid; otherwise the value must be
    an integer within [Min, Max] inclusive
  - text: optional and trimmed-empty is valid; otherwise the trimmed
    length must reach MinLength (and be non-empty)
  - profile: both name fields non-empty after trimming, and at least one
    contact (well-formed email or non-empty telegram)
  - anything else: invalid, fails closed

The email check is deliberately permissive (local part, @, dot-containing
domain) and is not full RFC validation.
*/
package validate
