package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tanzhaus/backoffice-api/internal/models"
)

// PaymentRepository handles persistence of payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, member_id, enrollment_id, class_id, amount, paid_at, period_start, period_end, type, created_at`

// List returns payments filtered by the provided criteria.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	base := "FROM payments p"
	var conditions []string
	var args []interface{}

	if filter.MemberID != "" {
		conditions = append(conditions, fmt.Sprintf("p.member_id = $%d", len(args)+1))
		args = append(args, filter.MemberID)
	}
	if filter.EnrollmentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.enrollment_id = $%d", len(args)+1))
		args = append(args, filter.EnrollmentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("p.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("p.type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("p.paid_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("p.paid_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT p.%s %s ORDER BY p.paid_at DESC LIMIT %d OFFSET %d",
		strings.ReplaceAll(paymentColumns, ", ", ", p."), base+clause, size, offset)

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// FindByID returns a payment by its ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := fmt.Sprintf("SELECT %s FROM payments WHERE id = $1", paymentColumns)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListForLedger returns the payment rows relevant to one enrollment's paid
// set: rows linked by enrollment id plus legacy rows linked by class only.
func (r *PaymentRepository) ListForLedger(ctx context.Context, enrollmentID, classID string) ([]models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments
        WHERE enrollment_id = $1 OR (enrollment_id IS NULL AND class_id = $2)
        ORDER BY paid_at`, paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, enrollmentID, classID); err != nil {
		return nil, fmt.Errorf("list ledger payments: %w", err)
	}
	return payments, nil
}

// ListByMember returns every payment row for a member, oldest first.
func (r *PaymentRepository) ListByMember(ctx context.Context, memberID string) ([]models.Payment, error) {
	query := fmt.Sprintf("SELECT %s FROM payments WHERE member_id = $1 ORDER BY paid_at", paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, memberID); err != nil {
		return nil, fmt.Errorf("list member payments: %w", err)
	}
	return payments, nil
}

// Create persists a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, member_id, enrollment_id, class_id, amount, paid_at, period_start, period_end, type, created_at)
        VALUES (:id, :member_id, :enrollment_id, :class_id, :amount, :paid_at, :period_start, :period_end, :type, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// SumRevenueBetween totals non-refund payment amounts in a date range.
func (r *PaymentRepository) SumRevenueBetween(ctx context.Context, from, to time.Time) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE type <> $1 AND paid_at >= $2 AND paid_at <= $3`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, models.PaymentTypeRefund, from, to); err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}

// ListPayoutLines returns commission lines for an instructor's classes over
// a date range, excluding refunds.
func (r *PaymentRepository) ListPayoutLines(ctx context.Context, instructorID string, from, to time.Time) ([]models.PayoutLine, error) {
	const query = `SELECT p.id AS payment_id, m.full_name AS member_name, c.name AS class_name,
        p.paid_at, p.amount, c.commission_rate AS rate, p.amount * c.commission_rate AS commission
        FROM payments p
        JOIN classes c ON c.id = p.class_id
        JOIN members m ON m.id = p.member_id
        WHERE c.instructor_id = $1 AND p.type <> $2 AND p.paid_at >= $3 AND p.paid_at <= $4
        ORDER BY p.paid_at`
	var lines []models.PayoutLine
	if err := r.db.SelectContext(ctx, &lines, query, instructorID, models.PaymentTypeRefund, from, to); err != nil {
		return nil, fmt.Errorf("list payout lines: %w", err)
	}
	return lines, nil
}
