/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements the persistence collaborators the engine needs
  (leave.Directory, leave.RequestStore, balance.ConsumptionStore,
  calendar.HolidaySource) using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

QUERY SHAPES:
  point lookup:  employee by id, leave request by id
  aggregate sum: SUM(days_requested) for (employee, status) - single query,
                 no N+1 iteration
  filtered scan: active (PENDING/APPROVED) requests for the overlap check;
                 arbitrary employee/status/date-range filter for listing
  guarded write: UPDATE ... WHERE status = 'PENDING' - the compare-and-set
                 transition; affected-row count decides success

CASCADE:
  Deleting an employee cascades to their leave requests via the foreign key.
  This is the directory's concern; the workflow never deletes requests.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/breakbook.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go: interface contracts (CAS semantics in particular)
  - store/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/breakbook/leave-engine/calendar"
	"github.com/breakbook/leave-engine/leave"
)

const timeFormat = time.RFC3339

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time, and each ":memory:" connection is
	// its own database. A single pooled connection sidesteps both.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees (directory records)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT UNIQUE,
		department TEXT,
		join_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		flat_days REAL,
		annual_quota REAL,
		created_at TEXT NOT NULL
	);

	-- Leave requests
	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days_requested INTEGER NOT NULL,
		reason TEXT,
		status TEXT NOT NULL DEFAULT 'PENDING',
		approver_id TEXT,
		approver_remarks TEXT,
		decided_at TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot paths: balance aggregation and overlap scans
	CREATE INDEX IF NOT EXISTS idx_requests_employee_status
		ON leave_requests(employee_id, status);
	CREATE INDEX IF NOT EXISTS idx_requests_employee_dates
		ON leave_requests(employee_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);

	-- Extra dated holidays beyond the fixed yearly patterns
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(date, name)
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date
		ON holidays(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES (leave.Directory + directory plumbing)
// =============================================================================

const employeeColumns = `id, name, email, department, join_date, status, flat_days, annual_quota, created_at`

// GetEmployee returns the employee or (nil, nil) if absent.
func (s *Store) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)

	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// SaveEmployee inserts or updates an employee record.
func (s *Store) SaveEmployee(ctx context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, email, department, join_date, status, flat_days, annual_quota, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			department = excluded.department,
			join_date = excluded.join_date,
			status = excluded.status,
			flat_days = excluded.flat_days,
			annual_quota = excluded.annual_quota
	`

	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		emp.ID,
		emp.Name,
		nullString(emp.Email),
		nullString(emp.Department),
		emp.JoinDate.String(),
		string(emp.Status),
		nullFloat(emp.FlatDays),
		nullFloat(emp.AnnualQuota),
		createdAt.Format(timeFormat),
	)
	if err != nil {
		// The only UNIQUE column reachable from here is email; the id
		// conflict is absorbed by the upsert.
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s", leave.ErrDuplicateEmail, emp.Email)
		}
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee; the foreign key cascades to their
// leave requests. Returns false if the employee did not exist.
func (s *Store) DeleteEmployee(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete employee: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*leave.Employee, error) {
	var (
		emp         leave.Employee
		email       sql.NullString
		department  sql.NullString
		joinDate    string
		status      string
		flatDays    sql.NullFloat64
		annualQuota sql.NullFloat64
		createdAt   string
	)

	err := row.Scan(&emp.ID, &emp.Name, &email, &department, &joinDate, &status,
		&flatDays, &annualQuota, &createdAt)
	if err != nil {
		return nil, err
	}

	emp.Email = email.String
	emp.Department = department.String
	emp.Status = leave.EmployeeStatus(status)
	emp.JoinDate, err = calendar.ParseDate(joinDate)
	if err != nil {
		return nil, fmt.Errorf("bad join_date %q: %w", joinDate, err)
	}
	if flatDays.Valid {
		v := flatDays.Float64
		emp.FlatDays = &v
	}
	if annualQuota.Valid {
		v := annualQuota.Float64
		emp.AnnualQuota = &v
	}
	emp.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return &emp, nil
}

// =============================================================================
// LEAVE REQUESTS (leave.RequestStore)
// =============================================================================

const requestColumns = `id, employee_id, start_date, end_date, days_requested, reason, status, approver_id, approver_remarks, decided_at, created_at`

// GetRequest returns the request or (nil, nil) if absent.
func (s *Store) GetRequest(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE id = ?`, id)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// InsertRequest persists a new leave request.
func (s *Store) InsertRequest(ctx context.Context, req *leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO leave_requests
		(id, employee_id, start_date, end_date, days_requested, reason, status,
		 approver_id, approver_remarks, decided_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		req.ID,
		req.EmployeeID,
		req.StartDate.String(),
		req.EndDate.String(),
		req.DaysRequested,
		nullString(req.Reason),
		string(req.Status),
		nullString(req.ApproverID),
		nullString(req.ApproverRemarks),
		nullTime(req.DecidedAt),
		req.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// ActiveRequests returns the employee's PENDING and APPROVED requests.
func (s *Store) ActiveRequests(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + requestColumns + `
		FROM leave_requests
		WHERE employee_id = ? AND status IN ('PENDING', 'APPROVED')
		ORDER BY start_date ASC, created_at ASC
	`
	return s.queryRequests(ctx, query, employeeID)
}

// ListRequests returns requests matching the filter, newest first.
func (s *Store) ListRequests(ctx context.Context, f leave.Filter) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE 1=1`
	var args []any

	if f.EmployeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, f.EmployeeID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.From != nil {
		query += ` AND end_date >= ?`
		args = append(args, f.From.String())
	}
	if f.To != nil {
		query += ` AND start_date <= ?`
		args = append(args, f.To.String())
	}
	query += ` ORDER BY created_at DESC, id`

	return s.queryRequests(ctx, query, args...)
}

// TransitionStatus performs the compare-and-set transition out of PENDING.
// The status precondition is part of the UPDATE itself, so two concurrent
// decisions on the same request cannot both succeed.
func (s *Store) TransitionStatus(ctx context.Context, id string, to leave.Status, d leave.Decision) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE leave_requests
		SET status = ?, approver_id = ?, approver_remarks = ?, decided_at = ?
		WHERE id = ? AND status = 'PENDING'
	`

	res, err := s.db.ExecContext(ctx, query,
		string(to),
		nullString(d.ApproverID),
		nullString(d.Remarks),
		nullTime(d.DecidedAt),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]leave.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func scanRequest(row rowScanner) (*leave.LeaveRequest, error) {
	var (
		req        leave.LeaveRequest
		startDate  string
		endDate    string
		reason     sql.NullString
		status     string
		approverID sql.NullString
		remarks    sql.NullString
		decidedAt  sql.NullString
		createdAt  string
	)

	err := row.Scan(&req.ID, &req.EmployeeID, &startDate, &endDate, &req.DaysRequested,
		&reason, &status, &approverID, &remarks, &decidedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	req.StartDate, err = calendar.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("bad start_date %q: %w", startDate, err)
	}
	req.EndDate, err = calendar.ParseDate(endDate)
	if err != nil {
		return nil, fmt.Errorf("bad end_date %q: %w", endDate, err)
	}
	req.Reason = reason.String
	req.Status = leave.Status(status)
	req.ApproverID = approverID.String
	req.ApproverRemarks = remarks.String
	if decidedAt.Valid {
		if t, err := time.Parse(timeFormat, decidedAt.String); err == nil {
			req.DecidedAt = &t
		}
	}
	req.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return &req, nil
}

// =============================================================================
// AGGREGATES (balance.ConsumptionStore)
// =============================================================================

// SumDaysRequested sums days_requested for (employee, status) in one
// aggregate query.
func (s *Store) SumDaysRequested(ctx context.Context, employeeID, status string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(days_requested), 0) FROM leave_requests WHERE employee_id = ? AND status = ?`,
		employeeID, status,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum days: %w", err)
	}
	return sum, nil
}

// =============================================================================
// HOLIDAYS (calendar.HolidaySource)
// =============================================================================

// SaveHoliday records an extra dated holiday. Duplicate (date, name) pairs
// are ignored.
func (s *Store) SaveHoliday(ctx context.Context, id string, date calendar.Date, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO holidays (id, date, name, created_at) VALUES (?, ?, ?, ?)`,
		id, date.String(), name, time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// IsHoliday satisfies calendar.HolidaySource. The interface is error-free;
// a failed lookup reads as "not a holiday".
func (s *Store) IsHoliday(d calendar.Date) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM holidays WHERE date = ?`, d.String()).Scan(&count)
	return err == nil && count > 0
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeFormat)
}
