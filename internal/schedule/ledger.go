package schedule

import (
	"sort"
	"time"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
)

// PaidSet is the set of period-start dates already satisfied by a payment.
// It treats payments as satisfied slots, not a running balance.
type PaidSet struct {
	periods map[string]struct{}
}

// Contains reports whether the period starting at d was paid.
func (p PaidSet) Contains(d time.Time) bool {
	_, ok := p.periods[dates.Key(d)]
	return ok
}

// Size returns the number of satisfied periods.
func (p PaidSet) Size() int {
	return len(p.periods)
}

// BuildPaidSet projects payment rows onto the enrollment's satisfied slots.
// A payment matches by exact enrollment id, or, for legacy rows without one,
// by class id with a period start on or after the enrollment's creation date.
// A refund removes its period from the set, making the slot unpaid again.
// Rows are applied in payment-date order so a re-payment after a refund
// leaves the slot satisfied.
func BuildPaidSet(enrollment models.Enrollment, payments []models.Payment) PaidSet {
	ordered := make([]models.Payment, len(payments))
	copy(ordered, payments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PaidAt.Before(ordered[j].PaidAt)
	})

	periods := make(map[string]struct{})
	for _, p := range ordered {
		if !matches(enrollment, p) {
			continue
		}
		key := dates.Key(p.PeriodStart)
		if p.Type == models.PaymentTypeRefund {
			delete(periods, key)
			continue
		}
		periods[key] = struct{}{}
	}
	return PaidSet{periods: periods}
}

func matches(enrollment models.Enrollment, p models.Payment) bool {
	if p.EnrollmentID != nil {
		return *p.EnrollmentID == enrollment.ID
	}
	return p.ClassID == enrollment.ClassID && dates.SameOrAfter(p.PeriodStart, enrollment.CreatedAt)
}
