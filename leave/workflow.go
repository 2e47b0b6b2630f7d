/*
Package leave implements the leave request state machine and its validation
rules.

PURPOSE:
  This is the orchestration layer of the engine. Applying for leave runs the
  full validation chain (employee, dates, working days, balance, overlap) and
  persists a PENDING request; approve/reject/cancel perform single guarded
  transitions out of PENDING.

REQUEST FLOW:

  Apply ──▶ PENDING ──▶ APPROVED   (approver, remarks, decision time)
                   ──▶ REJECTED   (approver, remarks, decision time)
                   ──▶ CANCELLED  (requesting employee only)

  APPROVED, REJECTED and CANCELLED are terminal. Any transition attempt out
  of a terminal state fails with ErrInvalidTransition.

VALIDATION ORDER (Apply):
  1. employee exists            -> ErrEmployeeNotFound
  2. employee is active         -> ErrInactiveEmployee
  3. start <= end               -> ErrInvalidDateRange
  4. start >= join date         -> ErrPreEmploymentLeave
  5. working days >= 1          -> ErrZeroWorkingDays
  6. days <= available balance  -> InsufficientBalanceError
  7. no active overlap          -> OverlapError
  The first failing check determines the reported error; a failed check
  leaves nothing persisted.

CONCURRENCY:
  Apply holds a per-employee mutex across steps 1-7 plus the insert, so two
  concurrent applications cannot both pass the balance/overlap checks.
  Approve/reject/cancel rely on the store's compare-and-set transition
  instead: the PENDING precondition is checked at write time.

DETERMINISM:
  No ambient clock. Creation timestamps come from the injectable Now field;
  the accrual reference date for the balance check is the request's end date,
  so mid-range accrual under a prorated policy is credited.

SEE ALSO:
  - errors.go: the error taxonomy Apply and the transitions report
  - balance/: availability computation
  - calendar/: working-day and overlap math
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/breakbook/leave-engine/balance"
	"github.com/breakbook/leave-engine/calendar"
)

// Workflow validates and creates leave requests and drives their lifecycle.
type Workflow struct {
	Directory Directory
	Requests  RequestStore
	Balances  *balance.Calculator
	Calendar  *calendar.Calendar

	// DefaultPolicy applies when an employee record carries no quota override.
	DefaultPolicy balance.Policy

	// Now supplies creation and decision timestamps. Defaults to time.Now.
	Now func() time.Time

	locks employeeLocks
}

// NewWorkflow wires a workflow over the given collaborators.
func NewWorkflow(dir Directory, reqs RequestStore, cal *calendar.Calendar, defaultPolicy balance.Policy, store balance.ConsumptionStore) *Workflow {
	return &Workflow{
		Directory:     dir,
		Requests:      reqs,
		Balances:      balance.NewCalculator(store),
		Calendar:      cal,
		DefaultPolicy: defaultPolicy,
	}
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now().UTC()
}

// Clock exposes the workflow's time source, so callers default "as of" dates
// consistently with request timestamps.
func (w *Workflow) Clock() time.Time { return w.now() }

// PolicyFor resolves the accrual policy for an employee: per-employee
// overrides first, then the deployment default.
func (w *Workflow) PolicyFor(emp *Employee) balance.Policy {
	switch {
	case emp.FlatDays != nil:
		return balance.FlatDays(*emp.FlatDays)
	case emp.AnnualQuota != nil:
		wholeDays := false
		if p, ok := w.DefaultPolicy.(balance.Prorated); ok {
			wholeDays = p.WholeDays
		}
		return balance.ProratedQuota(*emp.AnnualQuota, wholeDays)
	default:
		return w.DefaultPolicy
	}
}

// =============================================================================
// APPLY
// =============================================================================

// Apply validates and creates a leave request in PENDING state.
// The balance check uses the request's end date as the accrual reference.
func (w *Workflow) Apply(ctx context.Context, employeeID string, start, end calendar.Date, reason string) (*LeaveRequest, error) {
	unlock := w.locks.acquire(employeeID)
	defer unlock()

	emp, err := w.Directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}
	if emp == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, employeeID)
	}
	if emp.Status == EmployeeInactive {
		return nil, fmt.Errorf("%w: %s", ErrInactiveEmployee, employeeID)
	}

	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidDateRange, start, end)
	}
	if start.Before(emp.JoinDate) {
		return nil, fmt.Errorf("%w: leave starts %s, joined %s", ErrPreEmploymentLeave, start, emp.JoinDate)
	}

	days, err := w.Calendar.CountWorkingDays(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidDateRange, start, end)
	}
	if days == 0 {
		return nil, fmt.Errorf("%w: [%s, %s]", ErrZeroWorkingDays, start, end)
	}

	summary, err := w.Balances.Balance(ctx, emp.ID, w.PolicyFor(emp), emp.JoinDate, end)
	if err != nil {
		return nil, fmt.Errorf("compute balance: %w", err)
	}
	if decimal.NewFromInt(int64(days)).GreaterThan(summary.Available) {
		return nil, &InsufficientBalanceError{
			EmployeeID: emp.ID,
			Requested:  days,
			Available:  summary.Available,
		}
	}

	active, err := w.Requests.ActiveRequests(ctx, emp.ID)
	if err != nil {
		return nil, fmt.Errorf("scan active requests: %w", err)
	}
	for _, existing := range active {
		if calendar.RangesOverlap(start, end, existing.StartDate, existing.EndDate) {
			return nil, &OverlapError{
				EmployeeID: emp.ID,
				Start:      start,
				End:        end,
				ExistingID: existing.ID,
			}
		}
	}

	req := &LeaveRequest{
		ID:            uuid.NewString(),
		EmployeeID:    emp.ID,
		StartDate:     start,
		EndDate:       end,
		DaysRequested: days,
		Reason:        reason,
		Status:        StatusPending,
		CreatedAt:     w.now(),
	}
	if err := w.Requests.InsertRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}
	return req, nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Approve moves a PENDING request to APPROVED, recording the approver,
// remarks and decision time.
func (w *Workflow) Approve(ctx context.Context, id, approverID, remarks string) (*LeaveRequest, error) {
	return w.decide(ctx, id, StatusApproved, approverID, remarks)
}

// Reject moves a PENDING request to REJECTED, recording the approver,
// remarks and decision time.
func (w *Workflow) Reject(ctx context.Context, id, approverID, remarks string) (*LeaveRequest, error) {
	return w.decide(ctx, id, StatusRejected, approverID, remarks)
}

func (w *Workflow) decide(ctx context.Context, id string, to Status, approverID, remarks string) (*LeaveRequest, error) {
	req, err := w.Requests.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}

	decidedAt := w.now()
	ok, err := w.Requests.TransitionStatus(ctx, id, to, Decision{
		ApproverID: approverID,
		Remarks:    remarks,
		DecidedAt:  &decidedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("transition request: %w", err)
	}
	if !ok {
		return nil, w.transitionError(ctx, id)
	}
	return w.reload(ctx, id)
}

// Cancel moves a PENDING request to CANCELLED. Only the requesting employee
// may cancel their own request; administrators use Reject instead. No
// decision metadata is recorded.
func (w *Workflow) Cancel(ctx context.Context, id, requesterID string) (*LeaveRequest, error) {
	req, err := w.Requests.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	if req.EmployeeID != requesterID {
		return nil, fmt.Errorf("%w: request belongs to %s", ErrForbidden, req.EmployeeID)
	}

	ok, err := w.Requests.TransitionStatus(ctx, id, StatusCancelled, Decision{})
	if err != nil {
		return nil, fmt.Errorf("transition request: %w", err)
	}
	if !ok {
		return nil, w.transitionError(ctx, id)
	}
	return w.reload(ctx, id)
}

// transitionError reloads the request to report the status that blocked the
// transition. The CAS already failed; this is best-effort diagnostics.
func (w *Workflow) transitionError(ctx context.Context, id string) error {
	status := Status("")
	if req, err := w.Requests.GetRequest(ctx, id); err == nil && req != nil {
		status = req.Status
	}
	return &TransitionError{RequestID: id, Status: status}
}

func (w *Workflow) reload(ctx context.Context, id string) (*LeaveRequest, error) {
	req, err := w.Requests.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	return req, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// List returns leave requests matching the filter. Read-only.
func (w *Workflow) List(ctx context.Context, f Filter) ([]LeaveRequest, error) {
	return w.Requests.ListRequests(ctx, f)
}

// BalanceFor computes the employee's leave position as of the given date.
func (w *Workflow) BalanceFor(ctx context.Context, employeeID string, asOf calendar.Date) (balance.Summary, error) {
	emp, err := w.Directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return balance.Summary{}, fmt.Errorf("load employee: %w", err)
	}
	if emp == nil {
		return balance.Summary{}, fmt.Errorf("%w: %s", ErrEmployeeNotFound, employeeID)
	}
	return w.Balances.Balance(ctx, emp.ID, w.PolicyFor(emp), emp.JoinDate, asOf)
}
