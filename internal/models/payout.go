package models

import "time"

// PayoutLine is one payment's contribution to an instructor payout.
type PayoutLine struct {
	PaymentID  string    `db:"payment_id" json:"payment_id"`
	MemberName string    `db:"member_name" json:"member_name"`
	ClassName  string    `db:"class_name" json:"class_name"`
	PaidAt     time.Time `db:"paid_at" json:"paid_at"`
	Amount     float64   `db:"amount" json:"amount"`
	Rate       float64   `db:"rate" json:"rate"`
	Commission float64   `db:"commission" json:"commission"`
}

// Payout summarizes an instructor's commission over a date range.
type Payout struct {
	InstructorID    string       `json:"instructor_id"`
	InstructorName  string       `json:"instructor_name"`
	PeriodFrom      time.Time    `json:"period_from"`
	PeriodTo        time.Time    `json:"period_to"`
	Lines           []PayoutLine `json:"lines"`
	TotalAmount     float64      `json:"total_amount"`
	TotalCommission float64      `json:"total_commission"`
}
