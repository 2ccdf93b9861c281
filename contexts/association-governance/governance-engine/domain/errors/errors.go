package errors

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid governance request")
	ErrInvalidCandidate    = errors.New("candidate is not eligible for this election")
	ErrInvalidChoice       = errors.New("ballot choice is not allowed in this round")
	ErrMalformedAddress    = errors.New("malformed address encoding")
	ErrUnauthenticated     = errors.New("bearer credential could not be resolved")
	ErrAssociationNotFound = errors.New("association not found")
	ErrRoundNotFound       = errors.New("round not found")
	ErrSanctionNotFound    = errors.New("sanction record not found")

	ErrNotAMember    = errors.New("user is not a current member of the association")
	ErrNotEligible   = errors.New("user is not eligible for this action")
	ErrSelfReport    = errors.New("members cannot report themselves")
	ErrAlreadyMember = errors.New("user is already a member of the association")

	ErrAlreadyVoted     = errors.New("voter already cast a ballot in this round")
	ErrDuplicateReport  = errors.New("reporter already reported this violation in the current window")
	ErrRoundClosed      = errors.New("round is closed")
	ErrRoundAlreadyOpen = errors.New("round already exists")
	ErrRoundNotOpen     = errors.New("round has not opened yet")
	ErrRoundAborted     = errors.New("round was aborted")

	ErrNoSuchRule       = errors.New("rule does not exist in the association rule set")
	ErrRuleSetSealed    = errors.New("rule set changes only through passed motions once voting has begun")
	ErrCapacityExceeded = errors.New("association member cap exceeded")

	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
	ErrServiceAccountExists   = errors.New("service account already registered")
	ErrConflict               = errors.New("governance state conflict")

	// ErrInvariantViolation marks programming errors such as tallying an open
	// round. Callers must surface it, never coerce it into an outcome.
	ErrInvariantViolation = errors.New("governance invariant violated")
)
