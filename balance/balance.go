/*
Package balance computes an employee's leave position.

PURPOSE:
  Answers "how many days does this employee have left?" from two inputs:
  the accrual policy (what they have earned) and the request history (what
  they have spent or reserved).

BALANCE COMPONENTS:
  Allocated: days earned under the accrual policy as of the reference date
  Used:      sum of daysRequested over APPROVED requests
  Pending:   sum of daysRequested over PENDING requests
  Available: max(Allocated - Used - Pending, 0)

CLAMPING:
  Negative intermediate values are NOT clamped - only Available is floored
  at zero. This lets callers observe over-allocation caused by administrative
  overrides instead of having it silently hidden.

AGGREGATION:
  Used and Pending each come from a single aggregate SUM query against the
  store. The calculator never iterates requests one by one.

SEE ALSO:
  - policy.go: Flat vs Prorated accrual variants
  - leave/: consumes Summary.Available during request validation
*/
package balance

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/breakbook/leave-engine/calendar"
)

// Request status values as stored. Kept as plain strings here so the store
// interface stays free of the leave package's types.
const (
	StatusApproved = "APPROVED"
	StatusPending  = "PENDING"
)

// ConsumptionStore is the aggregate-query capability the calculator needs
// from the persistence layer.
type ConsumptionStore interface {
	// SumDaysRequested returns the total daysRequested over all of the
	// employee's leave requests currently in the given status.
	SumDaysRequested(ctx context.Context, employeeID, status string) (int, error)
}

// Summary is an employee's computed leave position at a reference date.
type Summary struct {
	Allocated decimal.Decimal
	Used      int
	Pending   int
	Available decimal.Decimal
}

// Calculator computes balance summaries from policy + request history.
type Calculator struct {
	Store ConsumptionStore
}

func NewCalculator(store ConsumptionStore) *Calculator {
	return &Calculator{Store: store}
}

// Balance computes the employee's position as of the given date.
func (c *Calculator) Balance(ctx context.Context, employeeID string, policy Policy, joinDate, asOf calendar.Date) (Summary, error) {
	allocated := policy.Accrued(joinDate, asOf)

	used, err := c.Store.SumDaysRequested(ctx, employeeID, StatusApproved)
	if err != nil {
		return Summary{}, fmt.Errorf("sum approved days: %w", err)
	}
	pending, err := c.Store.SumDaysRequested(ctx, employeeID, StatusPending)
	if err != nil {
		return Summary{}, fmt.Errorf("sum pending days: %w", err)
	}

	available := allocated.
		Sub(decimal.NewFromInt(int64(used))).
		Sub(decimal.NewFromInt(int64(pending)))
	if available.IsNegative() {
		available = decimal.Zero
	}

	return Summary{
		Allocated: allocated,
		Used:      used,
		Pending:   pending,
		Available: available,
	}, nil
}
