package balance

import (
	"github.com/shopspring/decimal"

	"github.com/breakbook/leave-engine/calendar"
)

// =============================================================================
// ACCRUAL POLICY - How an employee earns leave days
// =============================================================================

// Policy determines how many leave days an employee has earned as of a
// reference date. Two variants exist:
//
//   - Flat: a fixed yearly grant, available in full regardless of tenure
//   - Prorated: annualQuota/12 per elapsed month of employment
//
// Which variant applies is a configuration choice (per deployment, with
// optional per-employee overrides), never an ad hoc field branch.
type Policy interface {
	Accrued(joinDate, asOf calendar.Date) decimal.Decimal
}

// Flat grants a fixed number of days independent of tenure.
type Flat struct {
	Days decimal.Decimal
}

// FlatDays is a convenience constructor for whole-day flat grants.
func FlatDays(days float64) Flat {
	return Flat{Days: decimal.NewFromFloat(days)}
}

func (f Flat) Accrued(_, _ calendar.Date) decimal.Decimal { return f.Days }

// Prorated accrues annualQuota/12 for every whole month elapsed since the
// join date. Fractional accrual is carried at decimal precision unless
// WholeDays is set, in which case the result is floored to a whole day.
type Prorated struct {
	AnnualQuota decimal.Decimal
	WholeDays   bool
}

// ProratedQuota is a convenience constructor for prorated policies.
func ProratedQuota(annualQuota float64, wholeDays bool) Prorated {
	return Prorated{AnnualQuota: decimal.NewFromFloat(annualQuota), WholeDays: wholeDays}
}

func (p Prorated) Accrued(joinDate, asOf calendar.Date) decimal.Decimal {
	months := calendar.MonthsElapsed(joinDate, asOf)
	accrued := p.AnnualQuota.Div(decimal.NewFromInt(12)).Mul(decimal.NewFromInt(int64(months)))
	if p.WholeDays {
		accrued = accrued.Floor()
	}
	return accrued
}
