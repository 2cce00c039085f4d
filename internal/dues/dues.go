// internal/dues/dues.go

// Package dues computes the total monthly contribution a member owes as a
// pure function of their join date, birth date and a reference month. It is
// never a delta on a stored balance: recomputing with the same inputs always
// yields the same total.
package dues

import "time"

// RateTier maps an inclusive age range to a monthly rate. MaxAge < 0 leaves
// the range open-ended.
type RateTier struct {
	MinAge int `json:"min_age"`
	MaxAge int `json:"max_age"`
	Rate   int `json:"rate"`
}

// RateTable is an ordered set of age-banded monthly rates, read-only at
// runtime. Lookup returns the first tier containing the age.
type RateTable []RateTier

// RateFor selects the monthly rate for a member of the given whole-year age.
func (rt RateTable) RateFor(age int) int {
	for _, t := range rt {
		if age >= t.MinAge && (t.MaxAge < 0 || age <= t.MaxAge) {
			return t.Rate
		}
	}
	return 0
}

// DefaultRates reproduces the organization's three contribution bands.
func DefaultRates() RateTable {
	return RateTable{
		{MinAge: 0, MaxAge: 19, Rate: 5},
		{MinAge: 20, MaxAge: 30, Rate: 10},
		{MinAge: 31, MaxAge: -1, Rate: 15},
	}
}

// Engine holds the fixed accrual configuration: the program epoch (the date
// contribution tracking began, independent of any member's join date) and the
// rate table.
type Engine struct {
	epoch time.Time
	rates RateTable
}

func NewEngine(epoch time.Time, rates RateTable) *Engine {
	return &Engine{epoch: midnightUTC(epoch), rates: rates}
}

// Accrue returns the total contribution owed as of refMonthStart (expected to
// be the first day of a calendar month). Accrual starts at the later of the
// join date and the epoch; one tier-dependent rate is added for every month
// between that start and the reference month. A join date past the reference
// month owes nothing.
func (e *Engine) Accrue(joinDate, birthDate, refMonthStart time.Time) int {
	start := midnightUTC(joinDate)
	if start.Before(e.epoch) {
		start = e.epoch
	}
	birth := midnightUTC(birthDate)
	ref := midnightUTC(refMonthStart)

	n := monthsBetween(start, ref)
	if n < 0 {
		n = 0
	}

	total := 0
	for i := 0; i < n; i++ {
		due := addMonths(start, i)
		total += e.rates.RateFor(ageAt(birth, due))
	}
	return total
}

// monthsBetween counts whole months from start to end using a rolling
// year/month/day delta: the floor month difference, plus one month when the
// residual day component is non-negative. The day component, not calendar
// truncation, decides the boundary; getting this wrong changes owed totals.
func monthsBetween(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if addMonths(start, months).After(end) {
		months--
	}
	days := int(end.Sub(addMonths(start, months)).Hours() / 24)
	if days >= 0 {
		months++
	}
	return months
}

// addMonths advances t by n calendar months, clamping the day to the last day
// of the target month (Jan 31 plus one month is Feb 28, not Mar 3).
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), time.Month(int(t.Month())+n), 1, 0, 0, 0, 0, time.UTC)
	day := t.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// ageAt computes the whole-year age on a date, counting a year only once the
// birthday has been reached.
func ageAt(born, on time.Time) int {
	age := on.Year() - born.Year()
	if on.Month() < born.Month() || (on.Month() == born.Month() && on.Day() < born.Day()) {
		age--
	}
	return age
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
