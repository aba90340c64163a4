package models

import "time"

// Enrollment captures a member's registration to a dance class along with its
// billing cadence. PaymentIntervalMonths defaults to monthly billing;
// CustomPrice overrides the class list price when set. NextPaymentDue is a
// stored convenience field kept roughly in sync for list views; the
// authoritative value is always derived on demand by the schedule engine.
type Enrollment struct {
	ID                    string     `db:"id" json:"id"`
	MemberID              string     `db:"member_id" json:"member_id"`
	ClassID               string     `db:"class_id" json:"class_id"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	Active                bool       `db:"active" json:"active"`
	PaymentIntervalMonths int        `db:"payment_interval_months" json:"payment_interval_months"`
	CustomPrice           *float64   `db:"custom_price" json:"custom_price,omitempty"`
	NextPaymentDue        *time.Time `db:"next_payment_due" json:"next_payment_due,omitempty"`
	DeactivatedAt         *time.Time `db:"deactivated_at" json:"deactivated_at,omitempty"`
}

// Interval returns the billing cadence in months, defaulting to 1.
func (e Enrollment) Interval() int {
	if e.PaymentIntervalMonths <= 0 {
		return 1
	}
	return e.PaymentIntervalMonths
}

// EnrollmentDetail enriches Enrollment with member and class info.
type EnrollmentDetail struct {
	Enrollment
	MemberName string `db:"member_name" json:"member_name"`
	ClassName  string `db:"class_name" json:"class_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	MemberID  string
	ClassID   string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
