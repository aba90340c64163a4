package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyEnrollment(created time.Time) models.Enrollment {
	return models.Enrollment{ID: "enr-1", MemberID: "mem-1", ClassID: "class-1", CreatedAt: created, Active: true, PaymentIntervalMonths: 1}
}

func paidFor(enr models.Enrollment, periodStarts ...time.Time) PaidSet {
	payments := make([]models.Payment, 0, len(periodStarts))
	for i, ps := range periodStarts {
		id := enr.ID
		payments = append(payments, models.Payment{
			ID:           fmt.Sprintf("pay-%d", i),
			MemberID:     enr.MemberID,
			EnrollmentID: &id,
			ClassID:      enr.ClassID,
			PaidAt:       ps,
			PeriodStart:  ps,
			PeriodEnd:    dates.AddMonths(ps, 1),
			Type:         models.PaymentTypeMonthly,
		})
	}
	return BuildPaidSet(enr, payments)
}

func freeze(start time.Time, end *time.Time) models.FreezeInterval {
	return models.FreezeInterval{ID: "frz-1", EnrollmentID: "enr-1", MemberID: "mem-1", StartDate: start, EndDate: end}
}

func TestNoPaymentsNoFreezes(t *testing.T) {
	// Enrollment created 2024-01-01, monthly, nothing paid, nothing frozen,
	// evaluated 2024-04-01: Jan, Feb and Mar are past due, Apr is not yet.
	enr := monthlyEnrollment(day(2024, time.January, 1))
	paid := paidFor(enr)
	freezes := NewFreezeSet(nil)

	next, exhausted := NextUnpaidDate(enr, freezes, paid)
	require.False(t, exhausted)
	assert.Equal(t, day(2024, time.January, 1), next)

	count, exhausted := OverdueCount(enr, freezes, paid, day(2024, time.April, 1))
	require.False(t, exhausted)
	assert.Equal(t, 3, count)
}

func TestFirstPeriodPaid(t *testing.T) {
	enr := monthlyEnrollment(day(2024, time.January, 1))
	paid := paidFor(enr, day(2024, time.January, 1))
	freezes := NewFreezeSet(nil)

	next, _ := NextUnpaidDate(enr, freezes, paid)
	assert.Equal(t, day(2024, time.February, 1), next)

	count, _ := OverdueCount(enr, freezes, paid, day(2024, time.March, 1))
	assert.Equal(t, 1, count)
}

func TestFrozenSlotSkippedEntirely(t *testing.T) {
	// February fully frozen: that slot is neither due nor overdue.
	enr := monthlyEnrollment(day(2024, time.January, 1))
	paid := paidFor(enr)
	end := day(2024, time.February, 29)
	freezes := NewFreezeSet([]models.FreezeInterval{freeze(day(2024, time.February, 1), &end)})

	next, _ := NextUnpaidDate(enr, freezes, paid)
	assert.Equal(t, day(2024, time.January, 1), next)

	count, _ := OverdueCount(enr, freezes, paid, day(2024, time.April, 1))
	assert.Equal(t, 2, count, "January and March only; February is frozen")
}

func TestFrozenSlotSkippedWhenEarlierPeriodsPaid(t *testing.T) {
	enr := monthlyEnrollment(day(2024, time.January, 1))
	paid := paidFor(enr, day(2024, time.January, 1))
	end := day(2024, time.February, 29)
	freezes := NewFreezeSet([]models.FreezeInterval{freeze(day(2024, time.February, 1), &end)})

	// Jan paid, Feb frozen: the next unpaid slot is March.
	next, _ := NextUnpaidDate(enr, freezes, paid)
	assert.Equal(t, day(2024, time.March, 1), next)
}

func TestIndefiniteFreezeSkipsForever(t *testing.T) {
	enr := monthlyEnrollment(day(2024, time.January, 1))
	paid := paidFor(enr)
	freezes := NewFreezeSet([]models.FreezeInterval{freeze(day(2024, time.January, 15), nil)})

	// Only January 1 precedes the freeze; every later slot is covered.
	count, _ := OverdueCount(enr, freezes, paid, day(2024, time.June, 1))
	assert.Equal(t, 1, count)

	next, _ := NextUnpaidDate(enr, freezes, paid)
	assert.Equal(t, day(2024, time.January, 1), next)
}

func TestLateFreezeDoesNotForgiveMissedPeriods(t *testing.T) {
	// Freeze starts in March; January and February stay overdue.
	enr := monthlyEnrollment(day(2024, time.January, 1))
	paid := paidFor(enr)
	freezes := NewFreezeSet([]models.FreezeInterval{freeze(day(2024, time.March, 1), nil)})

	count, _ := OverdueCount(enr, freezes, paid, day(2024, time.June, 1))
	assert.Equal(t, 2, count)
}

func TestFrozenSlotNeverOverdueEvenIfPaid(t *testing.T) {
	// Payment exists for a frozen slot; the slot still contributes nothing.
	enr := monthlyEnrollment(day(2024, time.January, 1))
	paid := paidFor(enr, day(2024, time.February, 1))
	end := day(2024, time.February, 29)
	freezes := NewFreezeSet([]models.FreezeInterval{freeze(day(2024, time.February, 1), &end)})

	count, _ := OverdueCount(enr, freezes, paid, day(2024, time.April, 1))
	assert.Equal(t, 2, count)
}

func TestQuarterlyInterval(t *testing.T) {
	enr := monthlyEnrollment(day(2024, time.January, 1))
	enr.PaymentIntervalMonths = 3
	paid := paidFor(enr, day(2024, time.January, 1))
	freezes := NewFreezeSet(nil)

	next, _ := NextUnpaidDate(enr, freezes, paid)
	assert.Equal(t, day(2024, time.April, 1), next)

	count, _ := OverdueCount(enr, freezes, paid, day(2024, time.August, 1))
	assert.Equal(t, 2, count, "April and July slots unpaid")
}

func TestMonthEndCreationStepsStably(t *testing.T) {
	enr := monthlyEnrollment(day(2024, time.January, 31))
	paid := paidFor(enr, day(2024, time.January, 31))
	freezes := NewFreezeSet(nil)

	next, _ := NextUnpaidDate(enr, freezes, paid)
	assert.Equal(t, day(2024, time.February, 29), next)
}

func TestScanExhaustionReturnsLastCursor(t *testing.T) {
	enr := monthlyEnrollment(day(2024, time.January, 1))
	paid := paidFor(enr)
	freezes := NewFreezeSet([]models.FreezeInterval{freeze(day(2024, time.January, 1), nil)})

	next, exhausted := NextUnpaidDate(enr, freezes, paid)
	assert.True(t, exhausted)
	assert.Equal(t, dates.AddMonths(day(2024, time.January, 1), ScanLimit), next)

	count, exhausted := OverdueCount(enr, freezes, paid, day(2050, time.January, 1))
	assert.True(t, exhausted)
	assert.Zero(t, count)
}

func TestNextUnpaidNeverBeforeCreation(t *testing.T) {
	enr := monthlyEnrollment(day(2024, time.March, 15))
	paid := paidFor(enr)
	next, _ := NextUnpaidDate(enr, NewFreezeSet(nil), paid)
	assert.True(t, dates.SameOrAfter(next, enr.CreatedAt))
}

func TestNextUnpaidMonotonicUnderPayment(t *testing.T) {
	// Paying the current next-unpaid slot must never move the answer earlier.
	enr := monthlyEnrollment(day(2024, time.January, 1))
	freezes := NewFreezeSet(nil)

	var paidSlots []time.Time
	prev := dates.Day(enr.CreatedAt)
	for i := 0; i < 12; i++ {
		next, exhausted := NextUnpaidDate(enr, freezes, paidFor(enr, paidSlots...))
		require.False(t, exhausted)
		require.True(t, dates.SameOrAfter(next, prev))
		paidSlots = append(paidSlots, next)
		prev = next
	}
}

func TestOverlappingFreezesTolerated(t *testing.T) {
	enr := monthlyEnrollment(day(2024, time.January, 1))
	paid := paidFor(enr)
	endA := day(2024, time.March, 15)
	endB := day(2024, time.February, 20)
	freezes := NewFreezeSet([]models.FreezeInterval{
		freeze(day(2024, time.February, 1), &endA),
		freeze(day(2024, time.January, 20), &endB),
	})

	count, _ := OverdueCount(enr, freezes, paid, day(2024, time.May, 1))
	assert.Equal(t, 2, count, "January and April; February and March covered")
}

func TestRefundReopensPeriod(t *testing.T) {
	enr := monthlyEnrollment(day(2024, time.January, 1))
	id := enr.ID
	payments := []models.Payment{
		{ID: "pay-1", EnrollmentID: &id, ClassID: enr.ClassID, PaidAt: day(2024, time.January, 2), PeriodStart: day(2024, time.January, 1), Type: models.PaymentTypeMonthly},
		{ID: "ref-1", EnrollmentID: &id, ClassID: enr.ClassID, PaidAt: day(2024, time.January, 20), PeriodStart: day(2024, time.January, 1), Type: models.PaymentTypeRefund},
	}
	paid := BuildPaidSet(enr, payments)

	next, _ := NextUnpaidDate(enr, NewFreezeSet(nil), paid)
	assert.Equal(t, day(2024, time.January, 1), next)
}

func TestLegacyPaymentMatchesByClass(t *testing.T) {
	enr := monthlyEnrollment(day(2024, time.January, 1))
	payments := []models.Payment{
		// Legacy row without enrollment id, matching class, inside window.
		{ID: "pay-1", ClassID: enr.ClassID, PaidAt: day(2024, time.January, 2), PeriodStart: day(2024, time.January, 1), Type: models.PaymentTypeMonthly},
		// Legacy row predating the enrollment must be ignored.
		{ID: "pay-2", ClassID: enr.ClassID, PaidAt: day(2023, time.December, 2), PeriodStart: day(2023, time.December, 1), Type: models.PaymentTypeMonthly},
		// Different class, ignored.
		{ID: "pay-3", ClassID: "other", PaidAt: day(2024, time.February, 2), PeriodStart: day(2024, time.February, 1), Type: models.PaymentTypeMonthly},
	}
	paid := BuildPaidSet(enr, payments)

	assert.True(t, paid.Contains(day(2024, time.January, 1)))
	assert.False(t, paid.Contains(day(2023, time.December, 1)))
	assert.False(t, paid.Contains(day(2024, time.February, 1)))
}
