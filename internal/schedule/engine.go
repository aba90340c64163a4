package schedule

import (
	"time"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
)

// ScanLimit caps the due-date walk at ten years of monthly periods. It is a
// safety bound against pathological interval values, not a business rule.
// Hitting it is a data-quality signal, reported via the Exhausted flag.
const ScanLimit = 120

// NextUnpaidDate walks the enrollment's due-date sequence from its creation
// date and returns the first slot that is neither frozen nor paid. Frozen
// slots are skipped entirely: they never become due and never count as paid
// or unpaid. When the walk exhausts ScanLimit the last cursor value is
// returned with exhausted=true.
//
// NextUnpaidDate and OverdueCount share identical skip semantics by design:
// both are passes of the same scan, so "what's due next" and "how much is
// owed" can never disagree about which periods were skipped.
func NextUnpaidDate(enrollment models.Enrollment, freezes FreezeSet, paid PaidSet) (next time.Time, exhausted bool) {
	interval := enrollment.Interval()
	d := dates.Day(enrollment.CreatedAt)
	for i := 0; i < ScanLimit; i++ {
		if freezes.IsFrozen(d) || paid.Contains(d) {
			d = dates.AddMonths(d, interval)
			continue
		}
		return d, false
	}
	return d, true
}

// OverdueCount counts unpaid, unfrozen slots strictly before the reference
// date. Frozen slots never increment the counter regardless of payment
// state. A freeze created after a period was already missed does not
// retroactively forgive it: only slots falling inside an interval are
// skipped.
func OverdueCount(enrollment models.Enrollment, freezes FreezeSet, paid PaidSet, asOf time.Time) (count int, exhausted bool) {
	interval := enrollment.Interval()
	d := dates.Day(enrollment.CreatedAt)
	asOf = dates.Day(asOf)
	for i := 0; i < ScanLimit; i++ {
		if !dates.Before(d, asOf) {
			return count, false
		}
		if !freezes.IsFrozen(d) && !paid.Contains(d) {
			count++
		}
		d = dates.AddMonths(d, interval)
	}
	return count, dates.Before(d, asOf)
}
