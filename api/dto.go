/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  Wire-format structs, separate from domain types. Dates travel as
  "YYYY-MM-DD" strings, timestamps as RFC3339. Balance figures are decimal
  strings so fractional prorated accrual survives the trip.

SEE ALSO:
  - handlers.go: Where these are populated
*/
package api

import (
	"time"

	"github.com/breakbook/leave-engine/balance"
	"github.com/breakbook/leave-engine/leave"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Department  string   `json:"department,omitempty"`
	JoinDate    string   `json:"joinDate"`
	Status      string   `json:"status"`
	FlatDays    *float64 `json:"flatDays,omitempty"`
	AnnualQuota *float64 `json:"annualQuota,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

type CreateEmployeeRequest struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Department  string   `json:"department,omitempty"`
	JoinDate    string   `json:"joinDate"`
	Status      string   `json:"status,omitempty"`
	FlatDays    *float64 `json:"flatDays,omitempty"`
	AnnualQuota *float64 `json:"annualQuota,omitempty"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type ApplyLeaveRequest struct {
	EmployeeID string `json:"employeeId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Reason     string `json:"reason,omitempty"`
}

// DecisionRequest carries the approver identity and remarks for
// approve/reject transitions.
type DecisionRequest struct {
	ApproverID string `json:"approverId"`
	Remarks    string `json:"remarks,omitempty"`
}

// CancelLeaveRequest identifies the requester; only the owning employee may
// cancel.
type CancelLeaveRequest struct {
	EmployeeID string `json:"employeeId"`
}

type LeaveRequestDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`

	// EmployeeName is populated on list responses, where consumers render
	// requests from many employees side by side.
	EmployeeName    string `json:"employeeName,omitempty"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	DaysRequested   int    `json:"daysRequested"`
	Reason          string `json:"reason,omitempty"`
	Status          string `json:"status"`
	ApproverID      string `json:"approverId,omitempty"`
	ApproverRemarks string `json:"approverRemarks,omitempty"`
	DecidedAt       string `json:"decidedAt,omitempty"`
	CreatedAt       string `json:"createdAt"`
}

// =============================================================================
// BALANCE
// =============================================================================

type BalanceDTO struct {
	EmployeeID string `json:"employeeId"`
	Allocated  string `json:"allocated"`
	Used       int    `json:"used"`
	Pending    int    `json:"pending"`
	Available  string `json:"available"`
	AsOf       string `json:"asOf"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the uniform error envelope. Code is the stable
// machine-readable kind from the leave package.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toEmployeeDTO(emp leave.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:          emp.ID,
		Name:        emp.Name,
		Email:       emp.Email,
		Department:  emp.Department,
		JoinDate:    emp.JoinDate.String(),
		Status:      string(emp.Status),
		FlatDays:    emp.FlatDays,
		AnnualQuota: emp.AnnualQuota,
	}
	if !emp.CreatedAt.IsZero() {
		dto.CreatedAt = emp.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toLeaveRequestDTO(req leave.LeaveRequest) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:              req.ID,
		EmployeeID:      req.EmployeeID,
		StartDate:       req.StartDate.String(),
		EndDate:         req.EndDate.String(),
		DaysRequested:   req.DaysRequested,
		Reason:          req.Reason,
		Status:          string(req.Status),
		ApproverID:      req.ApproverID,
		ApproverRemarks: req.ApproverRemarks,
		CreatedAt:       req.CreatedAt.Format(time.RFC3339),
	}
	if req.DecidedAt != nil {
		dto.DecidedAt = req.DecidedAt.Format(time.RFC3339)
	}
	return dto
}

func toBalanceDTO(employeeID string, s balance.Summary, asOf string) BalanceDTO {
	return BalanceDTO{
		EmployeeID: employeeID,
		Allocated:  s.Allocated.String(),
		Used:       s.Used,
		Pending:    s.Pending,
		Available:  s.Available.String(),
		AsOf:       asOf,
	}
}
