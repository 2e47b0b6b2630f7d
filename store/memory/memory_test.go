package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breakbook/leave-engine/calendar"
	"github.com/breakbook/leave-engine/leave"
)

func employee(id, email string) leave.Employee {
	return leave.Employee{
		ID:       id,
		Name:     "Employee " + id,
		Email:    email,
		JoinDate: calendar.NewDate(2024, time.January, 1),
		Status:   leave.EmployeeActive,
	}
}

func TestSaveEmployeeDuplicateEmail(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, employee("emp-1", "alice@breakbook.dev")))

	// Same email under a different id is rejected, matching the sqlite
	// schema's UNIQUE constraint.
	err := store.SaveEmployee(ctx, employee("emp-2", "alice@breakbook.dev"))
	assert.ErrorIs(t, err, leave.ErrDuplicateEmail)

	got, err := store.GetEmployee(ctx, "emp-2")
	require.NoError(t, err)
	assert.Nil(t, got, "rejected save writes nothing")
}

func TestSaveEmployeeSameEmailUpdate(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, employee("emp-1", "alice@breakbook.dev")))

	// Updating the owning record keeps its own email without conflict.
	updated := employee("emp-1", "alice@breakbook.dev")
	updated.Name = "Renamed"
	require.NoError(t, store.SaveEmployee(ctx, updated))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renamed", got.Name)
}

func TestSaveEmployeeEmptyEmailsAllowed(t *testing.T) {
	store := New()
	ctx := context.Background()

	// Email-less records (seed/test fixtures) never collide with each other.
	require.NoError(t, store.SaveEmployee(ctx, employee("emp-1", "")))
	require.NoError(t, store.SaveEmployee(ctx, employee("emp-2", "")))
}
