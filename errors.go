package iamkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for iamkit operations. Handlers translate these to
// transport-specific responses; the core never downgrades a denial.
var (
	// ErrNotFound is returned when an actor, target, role or permission id
	// does not resolve to an active (non-tombstoned) record.
	ErrNotFound = errors.New("iamkit: not found")

	// ErrBadRequest is returned for malformed input: empty permission lists,
	// non-positive ids, invalid enum values.
	ErrBadRequest = errors.New("iamkit: bad request")

	// ErrUnauthorized is returned when the policy evaluator or assignment
	// manager denies an operation. It always carries a Reason.
	ErrUnauthorized = errors.New("iamkit: unauthorized")

	// ErrDuplicate is returned when a uniqueness rule among active records is
	// violated (email, role name, company domain).
	ErrDuplicate = errors.New("iamkit: duplicate")

	// ErrInternal is returned for unexpected collaborator failures, not for
	// policy outcomes.
	ErrInternal = errors.New("iamkit: internal error")
)

// Error wraps a sentinel error with operation context.
type Error struct {
	Err       error     // Underlying sentinel error
	Message   string    // Additional context
	Reason    Reason    // Denial reason (for ErrUnauthorized)
	Operation Operation // Operation being evaluated (if applicable)
	CompanyID int64     // Company involved (if applicable)
	UserID    int64     // Target user involved (if applicable)
	ActorID   int64     // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Reason != "":
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Reason)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Reason)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithReason attaches the policy denial reason.
func (e *Error) WithReason(reason Reason) *Error {
	e.Reason = reason
	return e
}

// WithOperation attaches the operation being evaluated.
func (e *Error) WithOperation(op Operation) *Error {
	e.Operation = op
	return e
}

// WithCompany attaches the company involved.
func (e *Error) WithCompany(companyID int64) *Error {
	e.CompanyID = companyID
	return e
}

// WithUser attaches the target user involved.
func (e *Error) WithUser(userID int64) *Error {
	e.UserID = userID
	return e
}

// WithActor attaches the acting user.
func (e *Error) WithActor(actorID int64) *Error {
	e.ActorID = actorID
	return e
}

// denied builds the canonical unauthorized error from a Decision.
func denied(d Decision, op Operation, actorID int64) *Error {
	return NewError(ErrUnauthorized, "operation denied").
		WithReason(d.Reason).
		WithOperation(op).
		WithActor(actorID)
}

// IsNotFound checks if an error is a missing-or-tombstoned record error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBadRequest checks if an error is a malformed-input error.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsUnauthorized checks if an error is a policy denial.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsDuplicate checks if an error is a uniqueness violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// DenialReason extracts the reason code from a policy denial.
// Returns the empty Reason when err is not an iamkit denial.
func DenialReason(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
