// Package schedule implements the membership billing engine: freeze-interval
// coverage, the paid-period ledger view, and the bounded due-date walk that
// derives next unpaid dates, overdue counts, and display statuses. Everything
// here is a pure function of its inputs and an explicit reference date.
package schedule

import (
	"time"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
)

// FreezeSet answers date-coverage queries over one enrollment's freeze
// intervals. Overlapping intervals are tolerated: coverage is an any-match.
type FreezeSet struct {
	intervals []models.FreezeInterval
}

// NewFreezeSet builds a FreezeSet from interval rows.
func NewFreezeSet(intervals []models.FreezeInterval) FreezeSet {
	return FreezeSet{intervals: intervals}
}

// Intervals returns the underlying interval rows.
func (s FreezeSet) Intervals() []models.FreezeInterval {
	return s.intervals
}

// IsFrozen reports whether d falls inside any interval. An interval without
// an end date covers every day from its start onward.
func (s FreezeSet) IsFrozen(d time.Time) bool {
	for _, iv := range s.intervals {
		if dates.Before(d, iv.StartDate) {
			continue
		}
		if iv.EndDate == nil || dates.SameOrBefore(d, *iv.EndDate) {
			return true
		}
	}
	return false
}

// Open returns the interval with no end date, if any. By convention at most
// one open interval exists per enrollment; when the data violates that, the
// earliest-starting open interval is returned.
func (s FreezeSet) Open() *models.FreezeInterval {
	var open *models.FreezeInterval
	for i := range s.intervals {
		iv := &s.intervals[i]
		if iv.EndDate != nil {
			continue
		}
		if open == nil || dates.Before(iv.StartDate, open.StartDate) {
			open = iv
		}
	}
	return open
}
