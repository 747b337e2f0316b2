package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database, or is not visible to the caller.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. title too short, unknown category, negative cost).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned by service functions when the caller is not allowed
// to perform the operation (not a participant, not the creator or an owner).
// Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write collides with existing state,
// e.g. a unique constraint violation. Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrNotVoting is returned when a vote or finalize targets an activity whose
// status is not voting. Handlers should map this to HTTP 409.
var ErrNotVoting = errors.New("activity is not open for voting")

// ErrNoVotes is returned by finalize when no votes have been cast yet.
// Handlers should map this to HTTP 409.
var ErrNoVotes = errors.New("no votes have been cast")
