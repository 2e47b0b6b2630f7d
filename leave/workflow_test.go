package leave_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breakbook/leave-engine/balance"
	"github.com/breakbook/leave-engine/calendar"
	"github.com/breakbook/leave-engine/leave"
	"github.com/breakbook/leave-engine/store/memory"
)

// June 2025: the 2nd is a Monday.

func date(day int) calendar.Date {
	return calendar.NewDate(2025, time.June, day)
}

func newTestWorkflow(t *testing.T) (*leave.Workflow, *memory.Store) {
	t.Helper()
	store := memory.New()
	wf := leave.NewWorkflow(store, store, calendar.Empty(), balance.FlatDays(7), store)
	wf.Now = func() time.Time {
		return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
	return wf, store
}

func addEmployee(t *testing.T, store *memory.Store, emp leave.Employee) {
	t.Helper()
	if emp.Status == "" {
		emp.Status = leave.EmployeeActive
	}
	require.NoError(t, store.SaveEmployee(context.Background(), emp))
}

func TestApplyCreatesPendingRequest(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", Name: "Alice", JoinDate: date(1).AddYears(-1)})

	req, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "vacation")
	require.NoError(t, err)

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, leave.StatusPending, req.Status)
	assert.Equal(t, 5, req.DaysRequested, "Mon-Fri is five working days")
	assert.Equal(t, "vacation", req.Reason)

	// The pending request reserves balance immediately.
	summary, err := wf.BalanceFor(context.Background(), "emp-1", date(30))
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Pending)
	assert.Equal(t, 0, summary.Used)
	assert.True(t, summary.Available.Equal(decimal.NewFromInt(2)), "got %s", summary.Available)
}

func TestApplyUnknownEmployee(t *testing.T) {
	wf, _ := newTestWorkflow(t)

	_, err := wf.Apply(context.Background(), "ghost", date(2), date(6), "")
	assert.ErrorIs(t, err, leave.ErrEmployeeNotFound)
}

func TestApplyInactiveEmployee(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1), Status: leave.EmployeeInactive})

	_, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	assert.ErrorIs(t, err, leave.ErrInactiveEmployee)
}

func TestApplyInvalidDateRange(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	_, err := wf.Apply(context.Background(), "emp-1", date(6), date(2), "")
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}

func TestApplyBeforeJoinDate(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(4)})

	_, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	assert.ErrorIs(t, err, leave.ErrPreEmploymentLeave)
}

func TestApplyWeekendOnly(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	// June 7th-8th is Saturday-Sunday: a valid range with zero working days.
	_, err := wf.Apply(context.Background(), "emp-1", date(7), date(8), "")
	assert.ErrorIs(t, err, leave.ErrZeroWorkingDays)
}

func TestApplyInsufficientBalance(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	// Consume 5 of the 7 flat days.
	_, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	require.NoError(t, err)

	// 3 more exceed the remaining 2.
	_, err = wf.Apply(context.Background(), "emp-1", date(9), date(11), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	var ibe *leave.InsufficientBalanceError
	require.ErrorAs(t, err, &ibe)
	assert.Equal(t, 3, ibe.Requested)
	assert.True(t, ibe.Available.Equal(decimal.NewFromInt(2)), "got %s", ibe.Available)
}

func TestApplyOverlappingRequest(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	first, err := wf.Apply(context.Background(), "emp-1", date(2), date(4), "")
	require.NoError(t, err)

	// Sharing a single boundary day is an overlap.
	_, err = wf.Apply(context.Background(), "emp-1", date(4), date(5), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrOverlappingRequest)

	var oe *leave.OverlapError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, first.ID, oe.ExistingID)

	// A disjoint range right after is fine.
	_, err = wf.Apply(context.Background(), "emp-1", date(5), date(6), "")
	assert.NoError(t, err)
}

func TestRejectedRequestsDoNotBlock(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	first, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	require.NoError(t, err)
	_, err = wf.Reject(context.Background(), first.ID, "mgr-1", "coverage")
	require.NoError(t, err)

	// Same range applies cleanly: rejected requests hold no balance and
	// block no overlaps.
	_, err = wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	assert.NoError(t, err)

	summary, err := wf.BalanceFor(context.Background(), "emp-1", date(30))
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Pending)
	assert.Equal(t, 0, summary.Used)
}

func TestApproveRecordsDecision(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	req, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	require.NoError(t, err)

	approved, err := wf.Approve(context.Background(), req.ID, "mgr-1", "enjoy")
	require.NoError(t, err)

	assert.Equal(t, leave.StatusApproved, approved.Status)
	assert.True(t, approved.Status.Terminal())
	assert.Equal(t, "mgr-1", approved.ApproverID)
	assert.Equal(t, "enjoy", approved.ApproverRemarks)
	require.NotNil(t, approved.DecidedAt)
	assert.Equal(t, wf.Clock(), *approved.DecidedAt)

	// Reservation moves from pending to used; available is unchanged.
	summary, err := wf.BalanceFor(context.Background(), "emp-1", date(30))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Pending)
	assert.Equal(t, 5, summary.Used)
	assert.True(t, summary.Available.Equal(decimal.NewFromInt(2)), "got %s", summary.Available)
}

func TestApproveIsTerminal(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	req, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	require.NoError(t, err)
	_, err = wf.Approve(context.Background(), req.ID, "mgr-1", "")
	require.NoError(t, err)

	// A second decision of any kind fails and changes nothing.
	_, err = wf.Approve(context.Background(), req.ID, "mgr-2", "late")
	assert.ErrorIs(t, err, leave.ErrInvalidTransition)
	_, err = wf.Reject(context.Background(), req.ID, "mgr-2", "late")
	assert.ErrorIs(t, err, leave.ErrInvalidTransition)

	var te *leave.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, leave.StatusApproved, te.Status)

	reloaded, err := store.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, "mgr-1", reloaded.ApproverID, "first decision stands")
}

func TestRejectReleasesBalance(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	req, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	require.NoError(t, err)

	rejected, err := wf.Reject(context.Background(), req.ID, "mgr-1", "no coverage")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, rejected.Status)

	summary, err := wf.BalanceFor(context.Background(), "emp-1", date(30))
	require.NoError(t, err)
	assert.True(t, summary.Available.Equal(decimal.NewFromInt(7)), "got %s", summary.Available)
}

func TestCancelOwnerOnly(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	req, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	require.NoError(t, err)

	// Someone else cannot cancel, and the request stays pending.
	_, err = wf.Cancel(context.Background(), req.ID, "emp-2")
	assert.ErrorIs(t, err, leave.ErrForbidden)

	cancelled, err := wf.Cancel(context.Background(), req.ID, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.DecidedAt, "cancellation records no decision metadata")

	summary, err := wf.BalanceFor(context.Background(), "emp-1", date(30))
	require.NoError(t, err)
	assert.True(t, summary.Available.Equal(decimal.NewFromInt(7)), "got %s", summary.Available)
}

func TestCancelApprovedFails(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	req, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	require.NoError(t, err)
	_, err = wf.Approve(context.Background(), req.ID, "mgr-1", "")
	require.NoError(t, err)

	_, err = wf.Cancel(context.Background(), req.ID, "emp-1")
	assert.ErrorIs(t, err, leave.ErrInvalidTransition)
}

func TestDecideUnknownRequest(t *testing.T) {
	wf, _ := newTestWorkflow(t)

	_, err := wf.Approve(context.Background(), "nope", "mgr-1", "")
	assert.ErrorIs(t, err, leave.ErrRequestNotFound)
}

func TestValidationOrder(t *testing.T) {
	// An inactive employee with an inverted range: the employee check fires
	// first, deterministically.
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1), Status: leave.EmployeeInactive})

	_, err := wf.Apply(context.Background(), "emp-1", date(6), date(2), "")
	assert.ErrorIs(t, err, leave.ErrInactiveEmployee)
}

func TestProratedEmployeeOverride(t *testing.T) {
	wf, store := newTestWorkflow(t)

	// Quota 12 joined January 15th: by June 6th four whole months elapsed,
	// so 4 days accrued despite the flat-7 deployment default.
	quota := 12.0
	addEmployee(t, store, leave.Employee{
		ID:          "emp-1",
		JoinDate:    calendar.NewDate(2025, time.January, 15),
		AnnualQuota: &quota,
	})

	_, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	require.Error(t, err, "five days exceed the four accrued")
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	_, err = wf.Apply(context.Background(), "emp-1", date(2), date(5), "")
	assert.NoError(t, err, "four days fit the four accrued")
}

func TestFlatEmployeeOverrideWins(t *testing.T) {
	wf, store := newTestWorkflow(t)

	// FlatDays takes precedence over AnnualQuota when both are set.
	flat, quota := 10.0, 12.0
	addEmployee(t, store, leave.Employee{
		ID:          "emp-1",
		JoinDate:    date(1).AddYears(-1),
		FlatDays:    &flat,
		AnnualQuota: &quota,
	})

	summary, err := wf.BalanceFor(context.Background(), "emp-1", date(30))
	require.NoError(t, err)
	assert.True(t, summary.Allocated.Equal(decimal.NewFromInt(10)), "got %s", summary.Allocated)
}

func TestDaysRequestedFrozenAtCreation(t *testing.T) {
	store := memory.New()
	cal := calendar.New(nil, store)
	wf := leave.NewWorkflow(store, store, cal, balance.FlatDays(7), store)
	wf.Now = func() time.Time {
		return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	req, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	require.NoError(t, err)
	require.Equal(t, 5, req.DaysRequested)

	// A holiday declared after the fact does not shrink the stored count.
	store.AddHoliday(date(4))

	approved, err := wf.Approve(context.Background(), req.ID, "mgr-1", "")
	require.NoError(t, err)
	assert.Equal(t, 5, approved.DaysRequested)

	summary, err := wf.BalanceFor(context.Background(), "emp-1", date(30))
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Used)
}

func TestListFilters(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})
	addEmployee(t, store, leave.Employee{ID: "emp-2", JoinDate: date(1).AddYears(-1)})

	r1, err := wf.Apply(context.Background(), "emp-1", date(2), date(3), "")
	require.NoError(t, err)
	r2, err := wf.Apply(context.Background(), "emp-2", date(2), date(3), "")
	require.NoError(t, err)
	_, err = wf.Approve(context.Background(), r2.ID, "mgr-1", "")
	require.NoError(t, err)

	byEmployee, err := wf.List(context.Background(), leave.Filter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	require.Len(t, byEmployee, 1)
	assert.Equal(t, r1.ID, byEmployee[0].ID)

	byStatus, err := wf.List(context.Background(), leave.Filter{Status: leave.StatusApproved})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, r2.ID, byStatus[0].ID)

	from, to := date(10), date(20)
	outOfWindow, err := wf.List(context.Background(), leave.Filter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Empty(t, outOfWindow)
}

func TestConcurrentApplyRespectsBalance(t *testing.T) {
	wf, store := newTestWorkflow(t)
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	// Two disjoint 5-day and 3-day requests against a 7-day balance: at most
	// one can win regardless of interleaving.
	results := make(chan error, 2)
	go func() {
		_, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
		results <- err
	}()
	go func() {
		_, err := wf.Apply(context.Background(), "emp-1", date(9), date(11), "")
		results <- err
	}()

	errs := []error{<-results, <-results}
	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of the two must lose")
}

func TestWorkflowStructLiteral(t *testing.T) {
	// A workflow assembled field by field behaves like one from NewWorkflow;
	// the first Apply must not trip over internal state.
	store := memory.New()
	wf := &leave.Workflow{
		Directory:     store,
		Requests:      store,
		Balances:      balance.NewCalculator(store),
		Calendar:      calendar.Empty(),
		DefaultPolicy: balance.FlatDays(7),
	}
	addEmployee(t, store, leave.Employee{ID: "emp-1", JoinDate: date(1).AddYears(-1)})

	req, err := wf.Apply(context.Background(), "emp-1", date(2), date(6), "")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, req.Status)
}

func TestBalanceForUnknownEmployee(t *testing.T) {
	wf, _ := newTestWorkflow(t)

	_, err := wf.BalanceFor(context.Background(), "ghost", date(1))
	assert.ErrorIs(t, err, leave.ErrEmployeeNotFound)
}

func TestKindMapping(t *testing.T) {
	assert.Equal(t, leave.KindNotFound, leave.Kind(leave.ErrEmployeeNotFound))
	assert.Equal(t, leave.KindInsufficientBalance, leave.Kind(&leave.InsufficientBalanceError{}))
	assert.Equal(t, leave.KindInvalidTransition, leave.Kind(&leave.TransitionError{}))
	assert.Equal(t, leave.KindDuplicateEmail, leave.Kind(leave.ErrDuplicateEmail))
	assert.Equal(t, leave.KindInternal, leave.Kind(errors.New("disk on fire")))

	assert.True(t, leave.IsClientError(leave.ErrForbidden))
	assert.False(t, leave.IsClientError(errors.New("disk on fire")))
}
