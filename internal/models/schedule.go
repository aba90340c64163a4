package models

import "time"

// EnrollmentDisplayStatus is the derived status shown for one enrollment.
type EnrollmentDisplayStatus string

// Display statuses in precedence order: frozen overrides overdue.
const (
	DisplayStatusFrozen  EnrollmentDisplayStatus = "FROZEN"
	DisplayStatusOverdue EnrollmentDisplayStatus = "OVERDUE"
	DisplayStatusActive  EnrollmentDisplayStatus = "ACTIVE"
)

// EnrollmentSchedule is the on-demand schedule view for one enrollment as of
// a reference date. ScanExhausted flags that the bounded due-date walk hit
// its iteration cap, which indicates a data-quality problem rather than a
// trustworthy result.
type EnrollmentSchedule struct {
	EnrollmentID  string                  `json:"enrollment_id"`
	AsOf          time.Time               `json:"as_of"`
	NextUnpaidDue time.Time               `json:"next_unpaid_due"`
	OverdueCount  int                     `json:"overdue_count"`
	Status        EnrollmentDisplayStatus `json:"status"`
	Frozen        bool                    `json:"frozen"`
	ScanExhausted bool                    `json:"scan_exhausted,omitempty"`
}

// DashboardSummary is the cached operator overview.
type DashboardSummary struct {
	AsOf            time.Time `json:"as_of"`
	ActiveMembers   int       `json:"active_members"`
	FrozenMembers   int       `json:"frozen_members"`
	ArchivedMembers int       `json:"archived_members"`
	OverdueMembers  int       `json:"overdue_members"`
	MonthRevenue    float64   `json:"month_revenue"`
	GeneratedAt     time.Time `json:"generated_at"`
}
