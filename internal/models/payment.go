package models

import "time"

// PaymentType categorizes a payment row.
type PaymentType string

// Possible payment types.
const (
	PaymentTypeMonthly PaymentType = "MONTHLY"
	PaymentTypeCustom  PaymentType = "CUSTOM"
	PaymentTypeRefund  PaymentType = "REFUND"
)

// Payment records that a billing period was satisfied. PeriodStart identifies
// the due-date slot the payment covers. EnrollmentID is nullable for legacy
// rows, which associate to an enrollment by class instead.
type Payment struct {
	ID           string      `db:"id" json:"id"`
	MemberID     string      `db:"member_id" json:"member_id"`
	EnrollmentID *string     `db:"enrollment_id" json:"enrollment_id,omitempty"`
	ClassID      string      `db:"class_id" json:"class_id"`
	Amount       float64     `db:"amount" json:"amount"`
	PaidAt       time.Time   `db:"paid_at" json:"paid_at"`
	PeriodStart  time.Time   `db:"period_start" json:"period_start"`
	PeriodEnd    time.Time   `db:"period_end" json:"period_end"`
	Type         PaymentType `db:"type" json:"type"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// PaymentFilter provides filters for listing payments.
type PaymentFilter struct {
	MemberID     string
	EnrollmentID string
	ClassID      string
	Type         PaymentType
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}
