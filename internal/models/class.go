package models

import "time"

// DanceClass is a recurring class members enroll in.
type DanceClass struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Style          string    `db:"style" json:"style,omitempty"`
	InstructorID   string    `db:"instructor_id" json:"instructor_id"`
	ListPrice      float64   `db:"list_price" json:"list_price"`
	CommissionRate float64   `db:"commission_rate" json:"commission_rate"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Instructor teaches classes and earns a commission on class payments.
type Instructor struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
