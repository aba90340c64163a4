package models

import "time"

// MemberStatus is the denormalized status stored on a member row. It is a
// read-model cache over the derived truth from enrollments and freezes; the
// status synchronizer is its only writer apart from explicit archiving.
type MemberStatus string

// Possible member statuses.
const (
	MemberStatusActive   MemberStatus = "ACTIVE"
	MemberStatusFrozen   MemberStatus = "FROZEN"
	MemberStatusArchived MemberStatus = "ARCHIVED"
)

// Member represents a person enrolled at the school.
type Member struct {
	ID        string       `db:"id" json:"id"`
	FullName  string       `db:"full_name" json:"full_name"`
	Email     string       `db:"email" json:"email"`
	Phone     string       `db:"phone" json:"phone,omitempty"`
	Status    MemberStatus `db:"status" json:"status"`
	JoinedAt  time.Time    `db:"joined_at" json:"joined_at"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// MemberFilter provides filters for listing members.
type MemberFilter struct {
	Status    MemberStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination describes list metadata returned alongside collections.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
