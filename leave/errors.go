/*
errors.go - Centralized error taxonomy for the leave workflow

PURPOSE:
  All business-rule violations in one place. Each carries a stable
  machine-readable kind (for the HTTP layer) plus a human-readable message
  with the relevant numbers interpolated.

ERROR CATEGORIES:
  1. Not-found errors - missing employee or request ids
  2. Validation errors - rule violations on applyLeave
  3. Transition errors - illegal state machine moves
  4. Forbidden - cancel attempted by someone other than the requester

None of these are retried: they represent rule violations, not transient
failures. Store/infrastructure failures are NOT part of this taxonomy; they
propagate wrapped and map to KindInternal.

USAGE:
  if errors.Is(err, leave.ErrInsufficientBalance) { ... }

  var ibe *leave.InsufficientBalanceError
  if errors.As(err, &ibe) { ... ibe.Requested, ibe.Available ... }
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/breakbook/leave-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when the referenced employee does not exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRequestNotFound is returned when the referenced leave request does not exist.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrInactiveEmployee is returned when an inactive employee applies for leave.
	ErrInactiveEmployee = errors.New("employee is inactive")

	// ErrInvalidDateRange is returned when the start date is after the end date.
	ErrInvalidDateRange = errors.New("start date after end date")

	// ErrPreEmploymentLeave is returned when leave starts before the join date.
	ErrPreEmploymentLeave = errors.New("leave starts before joining date")

	// ErrZeroWorkingDays is returned when the range contains no working days.
	ErrZeroWorkingDays = errors.New("requested range contains no working days")

	// ErrInsufficientBalance is returned when the request exceeds available days.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrOverlappingRequest is returned when an active request already covers
	// part of the range.
	ErrOverlappingRequest = errors.New("overlapping leave request exists")

	// ErrInvalidTransition is returned on any transition out of a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateEmail is returned when an employee's email is already in
	// use by another employee.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrForbidden is returned when someone other than the requesting employee
	// tries to cancel a request.
	ErrForbidden = errors.New("not allowed to cancel this request")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports a balance shortage with the numbers the
// caller needs to show the user.
type InsufficientBalanceError struct {
	EmployeeID string
	Requested  int
	Available  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("requested days (%d) exceed available balance (%s)", e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// OverlapError reports which existing request blocks the new range.
type OverlapError struct {
	EmployeeID string
	Start      calendar.Date
	End        calendar.Date
	ExistingID string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("range [%s, %s] overlaps active request %s", e.Start, e.End, e.ExistingID)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingRequest }

// TransitionError reports an illegal state machine move.
type TransitionError struct {
	RequestID string
	Status    Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("request %s is %s; only pending requests can transition", e.RequestID, e.Status)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR KINDS - Stable machine-readable codes for the wire
// =============================================================================

const (
	KindNotFound            = "NOT_FOUND"
	KindInactiveEmployee    = "INACTIVE_EMPLOYEE"
	KindInvalidDateRange    = "INVALID_DATE_RANGE"
	KindPreEmploymentLeave  = "PRE_EMPLOYMENT_LEAVE"
	KindZeroWorkingDays     = "ZERO_WORKING_DAYS"
	KindInsufficientBalance = "INSUFFICIENT_BALANCE"
	KindOverlappingRequest  = "OVERLAPPING_REQUEST"
	KindInvalidTransition   = "INVALID_TRANSITION"
	KindDuplicateEmail      = "DUPLICATE_EMAIL"
	KindForbidden           = "FORBIDDEN"
	KindInternal            = "INTERNAL"
)

// Kind maps an error to its stable machine-readable kind. Unknown errors are
// infrastructure failures and map to KindInternal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrEmployeeNotFound), errors.Is(err, ErrRequestNotFound):
		return KindNotFound
	case errors.Is(err, ErrInactiveEmployee):
		return KindInactiveEmployee
	case errors.Is(err, ErrInvalidDateRange):
		return KindInvalidDateRange
	case errors.Is(err, ErrPreEmploymentLeave):
		return KindPreEmploymentLeave
	case errors.Is(err, ErrZeroWorkingDays):
		return KindZeroWorkingDays
	case errors.Is(err, ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, ErrOverlappingRequest):
		return KindOverlappingRequest
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrDuplicateEmail):
		return KindDuplicateEmail
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) || errors.Is(err, ErrRequestNotFound)
}

// IsClientError reports whether the error is the caller's fault (a rule
// violation) as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return Kind(err) != KindInternal
}
