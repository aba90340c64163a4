package models

import "time"

// Audit action constants for lifecycle transitions.
const (
	AuditActionFreeze        = "FREEZE"
	AuditActionUnfreeze      = "UNFREEZE"
	AuditActionFreezeCancel  = "FREEZE_CANCEL"
	AuditActionEnroll        = "ENROLL"
	AuditActionTransfer      = "TRANSFER"
	AuditActionTerminate     = "TERMINATE"
	AuditActionMemberArchive = "MEMBER_ARCHIVE"
)

// AuditLog is an immutable, actor-agnostic record of a lifecycle transition.
// Metadata captures the operation inputs as JSON.
type AuditLog struct {
	ID            string    `db:"id" json:"id"`
	MemberID      string    `db:"member_id" json:"member_id"`
	EnrollmentID  *string   `db:"enrollment_id" json:"enrollment_id,omitempty"`
	Action        string    `db:"action" json:"action"`
	EffectiveDate time.Time `db:"effective_date" json:"effective_date"`
	Description   string    `db:"description" json:"description"`
	Metadata      []byte    `db:"metadata" json:"metadata,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
