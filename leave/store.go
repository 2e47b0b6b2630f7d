package leave

import "context"

// =============================================================================
// COLLABORATOR INTERFACES - What the workflow needs from persistence
// =============================================================================

// Directory provides read access to employee records. Employee CRUD itself is
// owned elsewhere; the workflow only reads join date, status and quota fields.
type Directory interface {
	// GetEmployee returns the employee or (nil, nil) if absent.
	GetEmployee(ctx context.Context, id string) (*Employee, error)
}

// RequestStore persists leave requests.
//
// TransitionStatus must be atomic compare-and-set: the transition succeeds
// only if the request is still PENDING at write time. Two concurrent
// approve+reject calls must never both appear to succeed.
type RequestStore interface {
	// GetRequest returns the request or (nil, nil) if absent.
	GetRequest(ctx context.Context, id string) (*LeaveRequest, error)

	// InsertRequest persists a new request.
	InsertRequest(ctx context.Context, req *LeaveRequest) error

	// ActiveRequests returns the employee's PENDING and APPROVED requests,
	// used for the overlap scan.
	ActiveRequests(ctx context.Context, employeeID string) ([]LeaveRequest, error)

	// ListRequests returns requests matching the filter.
	ListRequests(ctx context.Context, f Filter) ([]LeaveRequest, error)

	// TransitionStatus moves a PENDING request to `to` and records the
	// decision metadata. Returns false (and no error) if the request exists
	// but was not PENDING at write time.
	TransitionStatus(ctx context.Context, id string, to Status, d Decision) (bool, error)
}
