/*
Package calendar provides deterministic date arithmetic for the leave engine.

PURPOSE:
  Everything here is pure computation: weekend detection, holiday lookup,
  working-day counts, month-elapsed accrual math, and date-range overlap.
  No I/O, no state, no ambient clock - every function takes its dates as
  explicit arguments so callers stay testable.

KEY CONCEPTS:
  - Date: a day-granularity point in time (date.go)
  - Calendar: weekend + holiday knowledge, answers "is this a working day?"
  - FixedHoliday: a month/day pattern that recurs every year (e.g. Jan 1)
  - HolidaySource: pluggable extra holidays (e.g. dated entries from the store)

WORKING DAYS:
  A working day is a calendar day that is neither Saturday/Sunday nor a
  holiday. CountWorkingDays is a closed-interval count: a single weekday
  range counts 1, a single weekend day counts 0.

SEE ALSO:
  - balance/: uses MonthsElapsed for prorated accrual
  - leave/: uses CountWorkingDays and RangesOverlap for request validation
*/
package calendar

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned when a range's start is after its end.
var ErrInvalidRange = errors.New("invalid range: start date after end date")

// =============================================================================
// HOLIDAYS
// =============================================================================

// FixedHoliday is a holiday that falls on the same month/day every year.
type FixedHoliday struct {
	Month time.Month
	Day   int
	Name  string
}

// HolidaySource supplies additional holidays beyond the fixed yearly patterns,
// e.g. company-specific dates loaded from the store.
type HolidaySource interface {
	IsHoliday(d Date) bool
}

// DefaultHolidays is the built-in national holiday set.
func DefaultHolidays() []FixedHoliday {
	return []FixedHoliday{
		{Month: time.January, Day: 1, Name: "New Year's Day"},
		{Month: time.May, Day: 1, Name: "Labour Day"},
		{Month: time.December, Day: 25, Name: "Christmas Day"},
	}
}

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar answers working-day questions for a set of holidays.
type Calendar struct {
	fixed   []FixedHoliday
	sources []HolidaySource
}

// New creates a calendar with the given fixed holiday patterns and optional
// extra holiday sources.
func New(fixed []FixedHoliday, sources ...HolidaySource) *Calendar {
	return &Calendar{fixed: fixed, sources: sources}
}

// Default returns a calendar with the built-in holiday set.
func Default() *Calendar { return New(DefaultHolidays()) }

// Empty returns a calendar with no holidays at all; only weekends are
// non-working. Useful in tests.
func Empty() *Calendar { return New(nil) }

// IsWeekend reports whether the date is a Saturday or Sunday.
func (c *Calendar) IsWeekend(d Date) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHoliday reports whether the date matches a fixed pattern for its year or
// any extra holiday source.
func (c *Calendar) IsHoliday(d Date) bool {
	for _, h := range c.fixed {
		if d.Month() == h.Month && d.Day() == h.Day {
			return true
		}
	}
	for _, src := range c.sources {
		if src.IsHoliday(d) {
			return true
		}
	}
	return false
}

// IsWorkingDay reports whether the date is neither a weekend nor a holiday.
func (c *Calendar) IsWorkingDay(d Date) bool {
	return !c.IsWeekend(d) && !c.IsHoliday(d)
}

// CountWorkingDays counts working days in the closed interval [start, end].
// Returns ErrInvalidRange if start is after end. A zero count is valid
// (e.g. a single weekend day).
func (c *Calendar) CountWorkingDays(start, end Date) (int, error) {
	if start.After(end) {
		return 0, ErrInvalidRange
	}
	count := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if c.IsWorkingDay(d) {
			count++
		}
	}
	return count, nil
}

// =============================================================================
// ACCRUAL AND OVERLAP MATH
// =============================================================================

// MonthsElapsed returns the whole months elapsed from `from` to `asOf`,
// clamped to 0 when asOf precedes from. A month counts as elapsed once the
// day-of-month of asOf reaches or passes the day-of-month of from.
func MonthsElapsed(from, asOf Date) int {
	if asOf.Before(from) {
		return 0
	}
	months := (asOf.Year()-from.Year())*12 + int(asOf.Month()) - int(from.Month())
	if asOf.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// RangesOverlap reports whether the closed intervals [aStart, aEnd] and
// [bStart, bEnd] share at least one calendar day.
func RangesOverlap(aStart, aEnd, bStart, bEnd Date) bool {
	return aStart.BeforeOrEqual(bEnd) && bStart.BeforeOrEqual(aEnd)
}
