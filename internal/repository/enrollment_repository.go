package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tanzhaus/backoffice-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, member_id, class_id, created_at, active, payment_interval_months, custom_price, next_payment_due, deactivated_at`

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN members m ON m.id = e.member_id
LEFT JOIN classes c ON c.id = e.class_id`
	var conditions []string
	var args []interface{}

	if filter.MemberID != "" {
		conditions = append(conditions, fmt.Sprintf("e.member_id = $%d", len(args)+1))
		args = append(args, filter.MemberID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("e.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("e.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":  "e.created_at",
		"member_name": "m.full_name",
		"class_name":  "c.name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.member_id, e.class_id, e.created_at, e.active, e.payment_interval_months,
        e.custom_price, e.next_payment_due, e.deactivated_at,
        m.full_name AS member_name, c.name AS class_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListActiveByMember returns a member's active enrollments.
func (r *EnrollmentRepository) ListActiveByMember(ctx context.Context, memberID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE member_id = $1 AND active = TRUE", enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, memberID); err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	return enrollments, nil
}

// ExistsActive checks whether the member already holds an active enrollment
// in the class, optionally excluding one row during transfers.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, memberID, classID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM enrollments WHERE member_id = $1 AND class_id = $2 AND active = TRUE"
	args := []interface{}{memberID, classID}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	if enrollment.PaymentIntervalMonths <= 0 {
		enrollment.PaymentIntervalMonths = 1
	}
	const query = `INSERT INTO enrollments (id, member_id, class_id, created_at, active, payment_interval_months, custom_price, next_payment_due, deactivated_at)
        VALUES (:id, :member_id, :class_id, :created_at, :active, :payment_interval_months, :custom_price, :next_payment_due, :deactivated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Deactivate flips the active flag off, recording when.
func (r *EnrollmentRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE enrollments SET active = FALSE, deactivated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("deactivate enrollment: %w", err)
	}
	return nil
}

// ShiftNextPaymentDue moves the stored next-payment-due field forward by the
// given number of days. Display-only convenience; the derived value comes
// from the schedule engine.
func (r *EnrollmentRepository) ShiftNextPaymentDue(ctx context.Context, id string, days int) error {
	const query = `UPDATE enrollments SET next_payment_due = next_payment_due + make_interval(days => $2) WHERE id = $1 AND next_payment_due IS NOT NULL`
	if _, err := r.db.ExecContext(ctx, query, id, days); err != nil {
		return fmt.Errorf("shift next payment due: %w", err)
	}
	return nil
}
