package service

import "errors"

// Failure taxonomy for workflow operations. Authorization and
// precondition failures are terminal for the call and are returned to
// the caller verbatim; only ErrConflict is a candidate for caller-side
// re-read-and-retry.
var (
	// ErrUnauthenticated means no actor could be resolved for the request
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the actor lacks the required role or ownership
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the entity or token does not exist
	ErrNotFound = errors.New("not found")

	// ErrExpired means a link or quotation is past its validity
	ErrExpired = errors.New("expired")

	// ErrConflict means a decisive response was already recorded, or a
	// guarded update lost the race to a concurrent writer
	ErrConflict = errors.New("conflict")

	// ErrValidation means a mandatory field is missing or malformed
	ErrValidation = errors.New("validation failed")

	// ErrAuditFailed means the state mutation committed but the audit
	// entry could not be written. The operation is reported as failed so
	// this partially-applied case stays visible and monitorable.
	ErrAuditFailed = errors.New("audit write failed after state change")
)
