/*
handlers.go - HTTP handlers for the leave engine

PURPOSE:
  Exposes the leave workflow and employee directory via REST. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Leaves:
    POST   /api/leaves                 Apply for leave
    GET    /api/leaves                 List requests (filterable)
    POST   /api/leaves/{id}/approve    Approve a pending request
    POST   /api/leaves/{id}/reject     Reject a pending request
    POST   /api/leaves/{id}/cancel    Cancel own pending request

  Employees:
    GET    /api/employees              List all employees
    POST   /api/employees              Create employee
    GET    /api/employees/{id}         Get employee details
    PUT    /api/employees/{id}         Update employee
    DELETE /api/employees/{id}         Delete employee (cascades requests)
    GET    /api/employees/{id}/leave-balance  Balance summary

ERROR HANDLING:
  Domain errors map to status codes by their kind:
  - NOT_FOUND                     -> 404
  - FORBIDDEN                     -> 403
  - INVALID_TRANSITION            -> 409
  - DUPLICATE_EMAIL               -> 409
  - other rule violations         -> 400
  - INTERNAL                      -> 500 (logged, details withheld)

SEE ALSO:
  - dto.go: Wire-format structs
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/breakbook/leave-engine/calendar"
	"github.com/breakbook/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// EmployeeStore is the directory surface the API manages. Both the sqlite and
// memory stores satisfy it.
type EmployeeStore interface {
	GetEmployee(ctx context.Context, id string) (*leave.Employee, error)
	SaveEmployee(ctx context.Context, emp leave.Employee) error
	ListEmployees(ctx context.Context) ([]leave.Employee, error)
	DeleteEmployee(ctx context.Context, id string) (bool, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Workflow  *leave.Workflow
	Employees EmployeeStore
	Log       *slog.Logger
}

// NewHandler creates a handler over the workflow and employee store.
func NewHandler(wf *leave.Workflow, employees EmployeeStore, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Workflow: wf, Employees: employees, Log: log}
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// ApplyLeave validates and creates a leave request.
func (h *Handler) ApplyLeave(w http.ResponseWriter, r *http.Request) {
	var req ApplyLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employeeId is required", nil)
		return
	}

	start, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid startDate (use YYYY-MM-DD)", err)
		return
	}
	end, err := calendar.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid endDate (use YYYY-MM-DD)", err)
		return
	}

	created, err := h.Workflow.Apply(r.Context(), req.EmployeeID, start, end, req.Reason)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveRequestDTO(*created))
}

// ListLeaves returns leave requests, filterable by employeeId, status,
// startDate and endDate query parameters.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := leave.Filter{EmployeeID: q.Get("employeeId")}

	if s := q.Get("status"); s != "" {
		status := leave.Status(s)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid status filter", nil)
			return
		}
		f.Status = status
	}
	if s := q.Get("startDate"); s != "" {
		d, err := calendar.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid startDate (use YYYY-MM-DD)", err)
			return
		}
		f.From = &d
	}
	if s := q.Get("endDate"); s != "" {
		d, err := calendar.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid endDate (use YYYY-MM-DD)", err)
			return
		}
		f.To = &d
	}

	requests, err := h.Workflow.List(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	// Enrich with employee names; the id stays the fallback for directory
	// records deleted since the request was filed.
	names := make(map[string]string)
	dtos := make([]LeaveRequestDTO, len(requests))
	for i, req := range requests {
		name, ok := names[req.EmployeeID]
		if !ok {
			name = req.EmployeeID
			if emp, err := h.Employees.GetEmployee(r.Context(), req.EmployeeID); err == nil && emp != nil {
				name = emp.Name
			}
			names[req.EmployeeID] = name
		}
		dtos[i] = toLeaveRequestDTO(req)
		dtos[i].EmployeeName = name
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveLeave moves a pending request to APPROVED.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.decideLeave(w, r, h.Workflow.Approve)
}

// RejectLeave moves a pending request to REJECTED.
func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	h.decideLeave(w, r, h.Workflow.Reject)
}

func (h *Handler) decideLeave(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, id, approverID, remarks string) (*leave.LeaveRequest, error)) {
	id := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ApproverID == "" {
		writeError(w, http.StatusBadRequest, "approverId is required", nil)
		return
	}

	updated, err := decide(r.Context(), id, req.ApproverID, req.Remarks)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(*updated))
}

// CancelLeave cancels a pending request on behalf of its owner.
func (h *Handler) CancelLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CancelLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employeeId is required", nil)
		return
	}

	updated, err := h.Workflow.Cancel(r.Context(), id, req.EmployeeID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(*updated))
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalance returns the employee's balance summary. The optional asOf query
// parameter sets the accrual reference date; defaults to today.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	asOf := calendar.DateOf(h.Workflow.Clock())
	if s := r.URL.Query().Get("asOf"); s != "" {
		d, err := calendar.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid asOf (use YYYY-MM-DD)", err)
			return
		}
		asOf = d
	}

	summary, err := h.Workflow.BalanceFor(r.Context(), id, asOf)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(id, summary, asOf.String()))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.ListEmployees(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, emp := range employees {
		dtos[i] = toEmployeeDTO(emp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Employees.GetEmployee(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates a new employee. ID is generated when omitted.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, ok := h.employeeFromRequest(w, req)
	if !ok {
		return
	}
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	emp.CreatedAt = h.Workflow.Clock()

	if err := h.Employees.SaveEmployee(r.Context(), emp); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// UpdateEmployee replaces an existing employee record.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.Employees.GetEmployee(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, ok := h.employeeFromRequest(w, req)
	if !ok {
		return
	}
	emp.ID = id
	emp.CreatedAt = existing.CreatedAt

	if err := h.Employees.SaveEmployee(r.Context(), emp); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// DeleteEmployee removes an employee and their leave requests.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.Employees.DeleteEmployee(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) employeeFromRequest(w http.ResponseWriter, req CreateEmployeeRequest) (leave.Employee, bool) {
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return leave.Employee{}, false
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required", nil)
		return leave.Employee{}, false
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid email address", err)
		return leave.Employee{}, false
	}

	joinDate, err := calendar.ParseDate(req.JoinDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid joinDate (use YYYY-MM-DD)", err)
		return leave.Employee{}, false
	}

	status := leave.EmployeeActive
	if req.Status != "" {
		status = leave.EmployeeStatus(req.Status)
		if status != leave.EmployeeActive && status != leave.EmployeeInactive {
			writeError(w, http.StatusBadRequest, "Invalid status (use ACTIVE or INACTIVE)", nil)
			return leave.Employee{}, false
		}
	}

	return leave.Employee{
		ID:          req.ID,
		Name:        req.Name,
		Email:       req.Email,
		Department:  req.Department,
		JoinDate:    joinDate,
		Status:      status,
		FlatDays:    req.FlatDays,
		AnnualQuota: req.AnnualQuota,
	}, true
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a workflow error to an HTTP response by its kind.
// Infrastructure failures are logged and return an opaque 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := leave.Kind(err)
	if kind == leave.KindInternal {
		h.Log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  kind,
		})
		return
	}
	writeJSON(w, statusFor(kind), ErrorResponse{
		Error: err.Error(),
		Code:  kind,
	})
}

func statusFor(kind string) int {
	switch kind {
	case leave.KindNotFound:
		return http.StatusNotFound
	case leave.KindForbidden:
		return http.StatusForbidden
	case leave.KindInvalidTransition, leave.KindDuplicateEmail:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
