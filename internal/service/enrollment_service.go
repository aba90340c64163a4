package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
)

type enrollmentStore interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, memberID, classID, excludeID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Deactivate(ctx context.Context, id string, at time.Time) error
}

type enrollmentMemberReader interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.DanceClass, error)
}

// EnrollRequest registers a member into a class.
type EnrollRequest struct {
	MemberID              string    `json:"member_id" validate:"required"`
	ClassID               string    `json:"class_id" validate:"required"`
	StartDate             time.Time `json:"start_date" validate:"required"`
	PaymentIntervalMonths int       `json:"payment_interval_months" validate:"omitempty,min=1,max=12"`
	CustomPrice           *float64  `json:"custom_price,omitempty" validate:"omitempty,gt=0"`
}

// TransferRequest moves an enrollment to a different class.
type TransferRequest struct {
	ClassID       string   `json:"class_id" validate:"required"`
	EffectiveDate *string  `json:"effective_date,omitempty"`
	CustomPrice   *float64 `json:"custom_price,omitempty" validate:"omitempty,gt=0"`
}

// EnrollmentService manages the enrollment lifecycle. Transfers insert the
// replacement enrollment before deactivating the old one, so a crash between
// the two writes leaves the member over-enrolled rather than unenrolled.
type EnrollmentService struct {
	enrollments enrollmentStore
	members     enrollmentMemberReader
	classes     classReader
	audits      auditSink
	schedules   scheduleInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(enrollments enrollmentStore, members enrollmentMemberReader, classes classReader, audits auditSink, schedules scheduleInvalidator, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		members:     members,
		classes:     classes,
		audits:      audits,
		schedules:   schedules,
		validator:   validate,
		logger:      logger,
	}
}

// List returns enrollments matching the filter.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	items, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
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

// Get returns one enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Enroll creates a new active enrollment. A member may hold at most one
// active enrollment per class.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	member, err := s.members.FindByID(ctx, req.MemberID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	if member.Status == models.MemberStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "archived members cannot enroll")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if !class.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "class is not active")
	}

	exists, err := s.enrollments.ExistsActive(ctx, req.MemberID, req.ClassID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollments")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "member already enrolled in this class")
	}

	start := dates.Day(req.StartDate)
	enrollment := models.Enrollment{
		MemberID:              req.MemberID,
		ClassID:               req.ClassID,
		CreatedAt:             start,
		Active:                true,
		PaymentIntervalMonths: req.PaymentIntervalMonths,
		CustomPrice:           req.CustomPrice,
		NextPaymentDue:        &start,
	}
	if enrollment.PaymentIntervalMonths <= 0 {
		enrollment.PaymentIntervalMonths = 1
	}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.appendAudit(ctx, req.MemberID, &enrollment.ID, models.AuditActionEnroll, start, "member enrolled", map[string]interface{}{
		"class_id":        req.ClassID,
		"interval_months": enrollment.PaymentIntervalMonths,
	})
	return &enrollment, nil
}

// Transfer moves an active enrollment to another class, preserving the
// billing cadence. The replacement starts on the effective date; the old
// enrollment stops there.
func (s *EnrollmentService) Transfer(ctx context.Context, enrollmentID string, req TransferRequest, asOf time.Time) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}

	current, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !current.Active {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "enrollment is not active")
	}
	if current.ClassID == req.ClassID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment already in target class")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if !class.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "class is not active")
	}

	exists, err := s.enrollments.ExistsActive(ctx, current.MemberID, req.ClassID, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollments")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "member already enrolled in target class")
	}

	effective := dates.Day(asOf)
	if req.EffectiveDate != nil {
		parsed, err := dates.Parse(*req.EffectiveDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid effective date")
		}
		effective = parsed
	}

	customPrice := req.CustomPrice
	if customPrice == nil {
		customPrice = current.CustomPrice
	}
	replacement := models.Enrollment{
		MemberID:              current.MemberID,
		ClassID:               req.ClassID,
		CreatedAt:             effective,
		Active:                true,
		PaymentIntervalMonths: current.Interval(),
		CustomPrice:           customPrice,
		NextPaymentDue:        &effective,
	}

	// Insert before deactivate: a failure here leaves the old enrollment
	// untouched, a failure after leaves both active until retried.
	if err := s.enrollments.Create(ctx, &replacement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create replacement enrollment")
	}
	if err := s.enrollments.Deactivate(ctx, enrollmentID, effective); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate transferred enrollment")
	}

	s.appendAudit(ctx, current.MemberID, &replacement.ID, models.AuditActionTransfer, effective, "enrollment transferred", map[string]interface{}{
		"from_enrollment_id": enrollmentID,
		"from_class_id":      current.ClassID,
		"to_class_id":        req.ClassID,
	})
	if s.schedules != nil {
		s.schedules.Invalidate(ctx, enrollmentID)
	}
	return &replacement, nil
}

// Terminate deactivates an enrollment as of the given date.
func (s *EnrollmentService) Terminate(ctx context.Context, enrollmentID string, asOf time.Time) error {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !enrollment.Active {
		return appErrors.Clone(appErrors.ErrInvalidState, "enrollment already terminated")
	}

	at := dates.Day(asOf)
	if err := s.enrollments.Deactivate(ctx, enrollmentID, at); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to terminate enrollment")
	}

	s.appendAudit(ctx, enrollment.MemberID, &enrollmentID, models.AuditActionTerminate, at, "enrollment terminated", map[string]interface{}{
		"class_id": enrollment.ClassID,
	})
	if s.schedules != nil {
		s.schedules.Invalidate(ctx, enrollmentID)
	}
	return nil
}

func (s *EnrollmentService) appendAudit(ctx context.Context, memberID string, enrollmentID *string, action string, effectiveDate time.Time, description string, metadata map[string]interface{}) {
	payload, _ := json.Marshal(metadata)
	entry := &models.AuditLog{
		MemberID:      memberID,
		EnrollmentID:  enrollmentID,
		Action:        action,
		EffectiveDate: dates.Day(effectiveDate),
		Description:   description,
		Metadata:      payload,
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append audit entry",
			zap.String("member_id", memberID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
