package leave

import "sync"

// =============================================================================
// PER-EMPLOYEE LOCKS - Serialize the read-check-write section
// =============================================================================

// employeeLocks hands out one mutex per employee id. Apply holds the
// employee's mutex across its whole validate-then-insert sequence so two
// concurrent applications for the same employee cannot both pass the overlap
// and balance checks before either commits. Locks are never released from the
// map; the population is bounded by the number of employees.
//
// The zero value is ready to use, so a Workflow built as a struct literal
// works the same as one from NewWorkflow.
type employeeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// acquire locks the employee's mutex and returns the unlock function.
func (l *employeeLocks) acquire(employeeID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[employeeID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[employeeID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
