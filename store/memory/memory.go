// Package memory provides an in-memory store implementation (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/breakbook/leave-engine/calendar"
	"github.com/breakbook/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - Mutex-guarded maps
// =============================================================================

// Store implements leave.Directory, leave.RequestStore and
// balance.ConsumptionStore over plain maps.
type Store struct {
	mu        sync.RWMutex
	employees map[string]leave.Employee
	requests  map[string]leave.LeaveRequest
	holidays  map[string]bool // keyed by Date.String()
}

func New() *Store {
	return &Store{
		employees: make(map[string]leave.Employee),
		requests:  make(map[string]leave.LeaveRequest),
		holidays:  make(map[string]bool),
	}
}

// =============================================================================
// EMPLOYEES (leave.Directory + directory plumbing)
// =============================================================================

func (s *Store) GetEmployee(_ context.Context, id string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, ok := s.employees[id]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

// SaveEmployee inserts or updates an employee. Emails must be unique across
// employees, matching the sqlite schema's constraint.
func (s *Store) SaveEmployee(_ context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if emp.Email != "" {
		for _, other := range s.employees {
			if other.ID != emp.ID && other.Email == emp.Email {
				return fmt.Errorf("%w: %s", leave.ErrDuplicateEmail, emp.Email)
			}
		}
	}

	s.employees[emp.ID] = emp
	return nil
}

func (s *Store) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]leave.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		result = append(result, emp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// DeleteEmployee removes the employee and cascades to their leave requests,
// mirroring the foreign-key cascade of the sqlite schema.
func (s *Store) DeleteEmployee(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.employees[id]
	delete(s.employees, id)
	for reqID, req := range s.requests {
		if req.EmployeeID == id {
			delete(s.requests, reqID)
		}
	}
	return ok, nil
}

// =============================================================================
// LEAVE REQUESTS (leave.RequestStore)
// =============================================================================

func (s *Store) GetRequest(_ context.Context, id string) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (s *Store) InsertRequest(_ context.Context, req *leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = *req
	return nil
}

func (s *Store) ActiveRequests(_ context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []leave.LeaveRequest
	for _, req := range s.requests {
		if req.EmployeeID == employeeID && req.Status.Active() {
			result = append(result, req)
		}
	}
	sortByCreation(result)
	return result, nil
}

func (s *Store) ListRequests(_ context.Context, f leave.Filter) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []leave.LeaveRequest
	for _, req := range s.requests {
		if f.EmployeeID != "" && req.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.From != nil && !req.EndDate.AfterOrEqual(*f.From) {
			continue
		}
		if f.To != nil && req.StartDate.After(*f.To) {
			continue
		}
		result = append(result, req)
	}
	sortByCreation(result)
	return result, nil
}

// TransitionStatus is compare-and-set: the write happens only if the request
// is still PENDING under the store lock.
func (s *Store) TransitionStatus(_ context.Context, id string, to leave.Status, d leave.Decision) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok || req.Status.Terminal() {
		return false, nil
	}

	req.Status = to
	req.ApproverID = d.ApproverID
	req.ApproverRemarks = d.Remarks
	req.DecidedAt = d.DecidedAt
	s.requests[id] = req
	return true, nil
}

// =============================================================================
// AGGREGATES (balance.ConsumptionStore)
// =============================================================================

func (s *Store) SumDaysRequested(_ context.Context, employeeID, status string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := 0
	for _, req := range s.requests {
		if req.EmployeeID == employeeID && string(req.Status) == status {
			sum += req.DaysRequested
		}
	}
	return sum, nil
}

// =============================================================================
// HOLIDAYS (calendar.HolidaySource)
// =============================================================================

func (s *Store) AddHoliday(d calendar.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays[d.String()] = true
}

func (s *Store) IsHoliday(d calendar.Date) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.holidays[d.String()]
}

func sortByCreation(reqs []leave.LeaveRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].ID < reqs[j].ID
		}
		return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
	})
}
