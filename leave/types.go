package leave

import (
	"time"

	"github.com/breakbook/leave-engine/calendar"
)

// =============================================================================
// STATUS - Leave request lifecycle
// =============================================================================

// Status is the lifecycle state of a leave request. PENDING is the only
// non-terminal state; APPROVED, REJECTED and CANCELLED are terminal and no
// transition originates from them.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool { return s != StatusPending }

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether requests in this status hold balance and block
// overlapping requests. CANCELLED and REJECTED requests never count.
func (s Status) Active() bool { return s == StatusPending || s == StatusApproved }

// =============================================================================
// EMPLOYEE - Read-only view from the directory
// =============================================================================

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "ACTIVE"
	EmployeeInactive EmployeeStatus = "INACTIVE"
)

// Employee is the directory record as this engine sees it. The engine only
// reads join date, status and the quota fields; everything else is carried
// for the API layer.
type Employee struct {
	ID         string
	Name       string
	Email      string
	Department string
	JoinDate   calendar.Date
	Status     EmployeeStatus

	// Per-employee quota overrides. When both are nil the deployment-default
	// accrual policy applies. FlatDays selects a flat grant, AnnualQuota a
	// prorated one; FlatDays wins if both are set.
	FlatDays    *float64
	AnnualQuota *float64

	CreatedAt time.Time
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

// LeaveRequest is a request to take leave over [StartDate, EndDate].
// Identity, employee reference, dates and DaysRequested are immutable after
// creation; only Status and the decision metadata change, exactly once.
type LeaveRequest struct {
	ID         string
	EmployeeID string
	StartDate  calendar.Date
	EndDate    calendar.Date

	// DaysRequested is the working-day count of [StartDate, EndDate], computed
	// once at creation and frozen. It is never recomputed, even if the holiday
	// calendar changes before approval.
	DaysRequested int

	Reason string
	Status Status

	// Decision metadata, set only when the request is approved or rejected.
	ApproverID      string
	ApproverRemarks string
	DecidedAt       *time.Time

	CreatedAt time.Time
}

// Decision carries the metadata written alongside a status transition.
// DecidedAt is nil for cancellations.
type Decision struct {
	ApproverID string
	Remarks    string
	DecidedAt  *time.Time
}

// Filter selects leave requests for listing. Zero-valued fields match
// everything.
type Filter struct {
	EmployeeID string
	Status     Status
	From       *calendar.Date
	To         *calendar.Date
}
