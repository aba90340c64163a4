package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
)

type paymentStore interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
}

type paymentEnrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type paymentClassReader interface {
	FindByID(ctx context.Context, id string) (*models.DanceClass, error)
}

// RecordPaymentRequest records a payment against an enrollment's billing
// slot. Amount defaults to the enrollment's custom price, falling back to
// the class list price.
type RecordPaymentRequest struct {
	EnrollmentID string     `json:"enrollment_id" validate:"required"`
	PeriodStart  time.Time  `json:"period_start" validate:"required"`
	Amount       *float64   `json:"amount,omitempty" validate:"omitempty,gt=0"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	Custom       bool       `json:"custom,omitempty"`
}

// PaymentService records payments and refunds. A refund is a separate
// REFUND-type row; the original payment row is never mutated, and the
// schedule engine treats the pair as an unpaid slot again.
type PaymentService struct {
	payments    paymentStore
	enrollments paymentEnrollmentReader
	classes     paymentClassReader
	schedules   scheduleInvalidator
	cache       scheduleCache
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(payments paymentStore, enrollments paymentEnrollmentReader, classes paymentClassReader, schedules scheduleInvalidator, cache scheduleCache, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		payments:    payments,
		enrollments: enrollments,
		classes:     classes,
		schedules:   schedules,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// List returns payments matching the filter.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, *models.Pagination, error) {
	items, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Record writes a payment covering one billing period of an enrollment.
func (s *PaymentService) Record(ctx context.Context, req RecordPaymentRequest, asOf time.Time) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	amount, err := s.resolveAmount(ctx, enrollment, req.Amount)
	if err != nil {
		return nil, err
	}

	periodStart := dates.Day(req.PeriodStart)
	paidAt := dates.Day(asOf)
	if req.PaidAt != nil {
		paidAt = dates.Day(*req.PaidAt)
	}

	paymentType := models.PaymentTypeMonthly
	if req.Custom || req.Amount != nil {
		paymentType = models.PaymentTypeCustom
	}

	payment := models.Payment{
		MemberID:     enrollment.MemberID,
		EnrollmentID: &enrollment.ID,
		ClassID:      enrollment.ClassID,
		Amount:       amount,
		PaidAt:       paidAt,
		PeriodStart:  periodStart,
		PeriodEnd:    dates.AddMonths(periodStart, enrollment.Interval()),
		Type:         paymentType,
	}
	if err := s.payments.Create(ctx, &payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	if s.schedules != nil {
		s.schedules.Invalidate(ctx, enrollment.ID)
	}
	s.invalidateDashboard(ctx)
	return &payment, nil
}

// Refund reverses a payment by writing a REFUND row mirroring it. The
// covered period becomes unpaid again.
func (s *PaymentService) Refund(ctx context.Context, paymentID string, asOf time.Time) (*models.Payment, error) {
	original, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if original.Type == models.PaymentTypeRefund {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "cannot refund a refund")
	}

	refund := models.Payment{
		MemberID:     original.MemberID,
		EnrollmentID: original.EnrollmentID,
		ClassID:      original.ClassID,
		Amount:       -original.Amount,
		PaidAt:       dates.Day(asOf),
		PeriodStart:  original.PeriodStart,
		PeriodEnd:    original.PeriodEnd,
		Type:         models.PaymentTypeRefund,
	}
	if err := s.payments.Create(ctx, &refund); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record refund")
	}

	if s.schedules != nil && original.EnrollmentID != nil {
		s.schedules.Invalidate(ctx, *original.EnrollmentID)
	}
	s.invalidateDashboard(ctx)
	return &refund, nil
}

func (s *PaymentService) resolveAmount(ctx context.Context, enrollment *models.Enrollment, requested *float64) (float64, error) {
	if requested != nil {
		return *requested, nil
	}
	if enrollment.CustomPrice != nil {
		return *enrollment.CustomPrice, nil
	}
	class, err := s.classes.FindByID(ctx, enrollment.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class.ListPrice, nil
}

func (s *PaymentService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
