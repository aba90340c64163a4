package models

import "time"

// FreezeInterval pauses billing for one enrollment over a date range. A nil
// EndDate means the freeze is indefinite and covers every date from StartDate
// onward until explicitly closed. DaysCount records the effective duration
// computed when the interval is closed, kept for audit purposes.
type FreezeInterval struct {
	ID           string     `db:"id" json:"id"`
	EnrollmentID string     `db:"enrollment_id" json:"enrollment_id"`
	MemberID     string     `db:"member_id" json:"member_id"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	Reason       string     `db:"reason" json:"reason,omitempty"`
	DaysCount    *int       `db:"days_count" json:"days_count,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Open reports whether the interval has no end date yet.
func (f FreezeInterval) Open() bool {
	return f.EndDate == nil
}
