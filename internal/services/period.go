package services

import (
	"time"

	"centavo/internal/models"
)

// PeriodWindow is a budget's resolved calendar interval. Both bounds are
// inclusive, so two windows that touch on a boundary day overlap.
type PeriodWindow struct {
	Start time.Time
	End   time.Time
}

// DateOnly strips the time component, normalizing a timestamp to its
// calendar day in UTC. Budget boundaries are calendar dates; transaction
// timestamps must be normalized before comparing against them.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EffectiveRange resolves a budget's window. An explicit end date wins;
// otherwise a weekly budget runs six days past its start and a monthly
// budget runs to the last day of the start month.
func EffectiveRange(period models.BudgetPeriod, startDate time.Time, endDate *time.Time) PeriodWindow {
	start := DateOnly(startDate)
	if endDate != nil {
		return PeriodWindow{Start: start, End: DateOnly(*endDate)}
	}

	switch period {
	case models.BudgetPeriodWeekly:
		return PeriodWindow{Start: start, End: start.AddDate(0, 0, 6)}
	default:
		// Day 0 of the next month is the last day of the start month.
		end := time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, time.UTC)
		return PeriodWindow{Start: start, End: end}
	}
}

// BudgetWindow resolves the effective range of an existing budget row.
func BudgetWindow(b *models.Budget) PeriodWindow {
	return EffectiveRange(b.Period, b.StartDate, b.EndDate)
}

// Malformed reports whether the window's start falls after its end.
func (w PeriodWindow) Malformed() bool {
	return w.Start.After(w.End)
}

// Contains reports whether the given calendar day falls inside the window.
func (w PeriodWindow) Contains(day time.Time) bool {
	d := DateOnly(day)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Overlaps applies the closed-interval test: aStart <= bEnd && bStart <= aEnd.
func (w PeriodWindow) Overlaps(other PeriodWindow) bool {
	return !w.Start.After(other.End) && !other.Start.After(w.End)
}

// OverlapStrategy decides whether a candidate window conflicts with any of
// the owner's existing budgets in a space. Isolated behind an interface
// because the scan is the one place unbounded by the request payload; a
// sorted-index strategy can replace the linear scan without touching
// callers.
type OverlapStrategy interface {
	FindConflict(candidate PeriodWindow, existing []models.Budget) *models.Budget
}

type linearOverlapScan struct{}

// NewLinearOverlapScan returns the default linear-scan strategy.
func NewLinearOverlapScan() OverlapStrategy {
	return linearOverlapScan{}
}

// FindConflict returns the first existing budget whose effective range
// intersects the candidate window, or nil when there is none.
func (linearOverlapScan) FindConflict(candidate PeriodWindow, existing []models.Budget) *models.Budget {
	for i := range existing {
		if candidate.Overlaps(BudgetWindow(&existing[i])) {
			return &existing[i]
		}
	}
	return nil
}
