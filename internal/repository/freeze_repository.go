package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tanzhaus/backoffice-api/internal/models"
)

// FreezeRepository handles persistence of freeze intervals.
type FreezeRepository struct {
	db *sqlx.DB
}

// NewFreezeRepository constructs the repository.
func NewFreezeRepository(db *sqlx.DB) *FreezeRepository {
	return &FreezeRepository{db: db}
}

const freezeColumns = `id, enrollment_id, member_id, start_date, end_date, reason, days_count, created_at`

// FindByID returns a freeze interval by its ID.
func (r *FreezeRepository) FindByID(ctx context.Context, id string) (*models.FreezeInterval, error) {
	query := fmt.Sprintf("SELECT %s FROM freeze_intervals WHERE id = $1", freezeColumns)
	var interval models.FreezeInterval
	if err := r.db.GetContext(ctx, &interval, query, id); err != nil {
		return nil, err
	}
	return &interval, nil
}

// ListByEnrollment returns all intervals ever applied to an enrollment.
func (r *FreezeRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.FreezeInterval, error) {
	query := fmt.Sprintf("SELECT %s FROM freeze_intervals WHERE enrollment_id = $1 ORDER BY start_date", freezeColumns)
	var intervals []models.FreezeInterval
	if err := r.db.SelectContext(ctx, &intervals, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list freeze intervals: %w", err)
	}
	return intervals, nil
}

// ListByMember returns all intervals across a member's enrollments.
func (r *FreezeRepository) ListByMember(ctx context.Context, memberID string) ([]models.FreezeInterval, error) {
	query := fmt.Sprintf("SELECT %s FROM freeze_intervals WHERE member_id = $1 ORDER BY start_date", freezeColumns)
	var intervals []models.FreezeInterval
	if err := r.db.SelectContext(ctx, &intervals, query, memberID); err != nil {
		return nil, fmt.Errorf("list member freeze intervals: %w", err)
	}
	return intervals, nil
}

// ListOpenByMember returns intervals without an end date for a member.
func (r *FreezeRepository) ListOpenByMember(ctx context.Context, memberID string) ([]models.FreezeInterval, error) {
	query := fmt.Sprintf("SELECT %s FROM freeze_intervals WHERE member_id = $1 AND end_date IS NULL ORDER BY start_date", freezeColumns)
	var intervals []models.FreezeInterval
	if err := r.db.SelectContext(ctx, &intervals, query, memberID); err != nil {
		return nil, fmt.Errorf("list open freeze intervals: %w", err)
	}
	return intervals, nil
}

// Create persists a new freeze interval.
func (r *FreezeRepository) Create(ctx context.Context, interval *models.FreezeInterval) error {
	if interval.ID == "" {
		interval.ID = uuid.NewString()
	}
	if interval.CreatedAt.IsZero() {
		interval.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO freeze_intervals (id, enrollment_id, member_id, start_date, end_date, reason, days_count, created_at)
        VALUES (:id, :enrollment_id, :member_id, :start_date, :end_date, :reason, :days_count, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, interval); err != nil {
		return fmt.Errorf("create freeze interval: %w", err)
	}
	return nil
}

// Close sets the interval's end date and effective day count.
func (r *FreezeRepository) Close(ctx context.Context, id string, endDate time.Time, daysCount int) error {
	const query = `UPDATE freeze_intervals SET end_date = $2, days_count = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, endDate, daysCount); err != nil {
		return fmt.Errorf("close freeze interval: %w", err)
	}
	return nil
}

// Delete removes a freeze interval outright. Only valid for intervals whose
// start date has not arrived; the service layer enforces that rule.
func (r *FreezeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM freeze_intervals WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete freeze interval: %w", err)
	}
	return nil
}
