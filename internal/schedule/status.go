package schedule

import (
	"time"

	"github.com/tanzhaus/backoffice-api/internal/models"
)

// DisplayStatus derives the status shown for one enrollment as of a
// reference date. Frozen takes precedence over overdue: a freeze suspends
// both service and billing pressure at once, so a frozen member who owes
// money is still shown as frozen.
func DisplayStatus(enrollment models.Enrollment, freezes FreezeSet, paid PaidSet, asOf time.Time) models.EnrollmentDisplayStatus {
	if freezes.IsFrozen(asOf) {
		return models.DisplayStatusFrozen
	}
	if overdue, _ := OverdueCount(enrollment, freezes, paid, asOf); overdue > 0 {
		return models.DisplayStatusOverdue
	}
	return models.DisplayStatusActive
}

// ShouldBeFrozen evaluates the member-level freeze rule: a member is frozen
// iff it has at least one active enrollment and every active enrollment is
// covered by a freeze on the reference date. Zero enrollments yield false,
// and callers must leave the stored status untouched in that case.
func ShouldBeFrozen(enrollmentFreezes []FreezeSet, asOf time.Time) bool {
	if len(enrollmentFreezes) == 0 {
		return false
	}
	for _, fs := range enrollmentFreezes {
		if !fs.IsFrozen(asOf) {
			return false
		}
	}
	return true
}
