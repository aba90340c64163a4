package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tanzhaus/backoffice-api/internal/models"
)

// AuditRepository appends immutable lifecycle audit entries.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes a new audit entry. Entries are never updated or deleted.
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, member_id, enrollment_id, action, effective_date, description, metadata, created_at)
        VALUES (:id, :member_id, :enrollment_id, :action, :effective_date, :description, :metadata, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// ListByMember returns a member's audit trail, newest first.
func (r *AuditRepository) ListByMember(ctx context.Context, memberID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, member_id, enrollment_id, action, effective_date, description, metadata, created_at
        FROM audit_logs WHERE member_id = $1 ORDER BY created_at DESC LIMIT %d`, limit)
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, memberID); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}
