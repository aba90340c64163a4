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

type freezeStore interface {
	FindByID(ctx context.Context, id string) (*models.FreezeInterval, error)
	ListOpenByMember(ctx context.Context, memberID string) ([]models.FreezeInterval, error)
	Create(ctx context.Context, interval *models.FreezeInterval) error
	Close(ctx context.Context, id string, endDate time.Time, daysCount int) error
	Delete(ctx context.Context, id string) error
}

type freezeEnrollmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ListActiveByMember(ctx context.Context, memberID string) ([]models.Enrollment, error)
	ShiftNextPaymentDue(ctx context.Context, id string, days int) error
}

type freezeMemberStore interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
	UpdateStatus(ctx context.Context, id string, status models.MemberStatus) error
}

type auditSink interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

type statusRecomputer interface {
	RecomputeMemberStatus(ctx context.Context, memberID string, asOf time.Time) error
}

type scheduleInvalidator interface {
	Invalidate(ctx context.Context, enrollmentID string)
}

// FreezeRequest creates freeze intervals for a member. When EnrollmentIDs is
// empty every currently-active enrollment is frozen.
type FreezeRequest struct {
	MemberID      string     `json:"member_id" validate:"required"`
	EnrollmentIDs []string   `json:"enrollment_ids,omitempty"`
	StartDate     time.Time  `json:"start_date" validate:"required"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

// FreezeService drives the freeze interval lifecycle:
// none -> scheduled -> active -> closed, plus cancellation of intervals that
// have not started. Every transition appends an audit entry. Failures to
// rewrite the denormalized member status after a successful interval write
// are logged, not rolled back; the interval rows are the source of truth and
// the next sync pass corrects the display field.
type FreezeService struct {
	freezes     freezeStore
	enrollments freezeEnrollmentStore
	members     freezeMemberStore
	audits      auditSink
	status      statusRecomputer
	schedules   scheduleInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewFreezeService constructs FreezeService.
func NewFreezeService(freezes freezeStore, enrollments freezeEnrollmentStore, members freezeMemberStore, audits auditSink, status statusRecomputer, schedules scheduleInvalidator, validate *validator.Validate, logger *zap.Logger) *FreezeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FreezeService{
		freezes:     freezes,
		enrollments: enrollments,
		members:     members,
		audits:      audits,
		status:      status,
		schedules:   schedules,
		validator:   validate,
		logger:      logger,
	}
}

// Freeze creates one interval per target enrollment, then recomputes the
// member's status.
func (s *FreezeService) Freeze(ctx context.Context, req FreezeRequest, asOf time.Time) ([]models.FreezeInterval, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid freeze payload")
	}
	start := dates.Day(req.StartDate)
	var end *time.Time
	if req.EndDate != nil {
		e := dates.Day(*req.EndDate)
		if dates.Before(e, start) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
		}
		end = &e
	}

	if _, err := s.members.FindByID(ctx, req.MemberID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	targets, err := s.resolveTargets(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "member has no active enrollments to freeze")
	}

	created := make([]models.FreezeInterval, 0, len(targets))
	for _, enr := range targets {
		interval := models.FreezeInterval{
			EnrollmentID: enr.ID,
			MemberID:     req.MemberID,
			StartDate:    start,
			EndDate:      end,
			Reason:       req.Reason,
		}
		if err := s.freezes.Create(ctx, &interval); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create freeze interval")
		}
		created = append(created, interval)
		s.appendAudit(ctx, req.MemberID, &interval.EnrollmentID, models.AuditActionFreeze, asOf, "freeze created", map[string]interface{}{
			"freeze_id":  interval.ID,
			"start_date": dates.Key(start),
			"end_date":   keyOrNil(end),
			"reason":     req.Reason,
		})
		if s.schedules != nil {
			s.schedules.Invalidate(ctx, enr.ID)
		}
	}

	// Interval rows are committed; a stale status here heals on next sync.
	if err := s.status.RecomputeMemberStatus(ctx, req.MemberID, asOf); err != nil {
		s.logger.Warn("failed to recompute member status after freeze",
			zap.String("member_id", req.MemberID),
			zap.Error(err),
		)
	}
	return created, nil
}

// CloseInterval ends a freeze interval at the reference date, shifting the
// enrollment's stored next-payment date forward by the days the freeze was
// actually in effect.
func (s *FreezeService) CloseInterval(ctx context.Context, freezeID string, asOf time.Time) (*models.FreezeInterval, error) {
	asOf = dates.Day(asOf)
	interval, err := s.freezes.FindByID(ctx, freezeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "freeze interval not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load freeze interval")
	}
	if interval.EndDate != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "freeze interval already closed")
	}

	effectiveDays := 0
	if dates.Before(interval.StartDate, asOf) {
		effectiveDays = dates.DaysBetween(interval.StartDate, asOf)
	}

	// End never precedes start: closing a not-yet-started interval pins the
	// end to the start date with zero effective days.
	endDate := asOf
	if dates.Before(endDate, interval.StartDate) {
		endDate = dates.Day(interval.StartDate)
	}

	if effectiveDays > 0 {
		if err := s.enrollments.ShiftNextPaymentDue(ctx, interval.EnrollmentID, effectiveDays); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to shift next payment date")
		}
	}
	if err := s.freezes.Close(ctx, freezeID, endDate, effectiveDays); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close freeze interval")
	}

	interval.EndDate = &endDate
	interval.DaysCount = &effectiveDays

	s.appendAudit(ctx, interval.MemberID, &interval.EnrollmentID, models.AuditActionUnfreeze, asOf, "freeze closed", map[string]interface{}{
		"freeze_id":      interval.ID,
		"effective_days": effectiveDays,
	})
	if s.schedules != nil {
		s.schedules.Invalidate(ctx, interval.EnrollmentID)
	}

	// Optimistically assume return to service; the synchronizer corrects
	// this on the next pass if other enrollments remain frozen.
	if err := s.members.UpdateStatus(ctx, interval.MemberID, models.MemberStatusActive); err != nil {
		s.logger.Warn("failed to set member active after unfreeze",
			zap.String("member_id", interval.MemberID),
			zap.Error(err),
		)
	}
	return interval, nil
}

// UnfreezeMember closes every open interval for the member. When none exist
// the member's status is forced to active directly.
func (s *FreezeService) UnfreezeMember(ctx context.Context, memberID string, asOf time.Time) (int, error) {
	if _, err := s.members.FindByID(ctx, memberID); err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	open, err := s.freezes.ListOpenByMember(ctx, memberID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list open freeze intervals")
	}
	if len(open) == 0 {
		if err := s.members.UpdateStatus(ctx, memberID, models.MemberStatusActive); err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write member status")
		}
		return 0, nil
	}

	closed := 0
	for _, interval := range open {
		if _, err := s.CloseInterval(ctx, interval.ID, asOf); err != nil {
			return closed, err
		}
		closed++
	}
	return closed, nil
}

// CancelScheduled hard-deletes a freeze interval that has not started yet.
// Once the start date arrives the interval has had an effect and the correct
// operation is closing it, so cancellation is rejected.
func (s *FreezeService) CancelScheduled(ctx context.Context, freezeID string, asOf time.Time) error {
	asOf = dates.Day(asOf)
	interval, err := s.freezes.FindByID(ctx, freezeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "freeze interval not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load freeze interval")
	}
	if !dates.After(interval.StartDate, asOf) {
		return appErrors.Clone(appErrors.ErrInvalidState, "freeze has already started; close it instead of cancelling")
	}

	if err := s.freezes.Delete(ctx, freezeID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete freeze interval")
	}
	s.appendAudit(ctx, interval.MemberID, &interval.EnrollmentID, models.AuditActionFreezeCancel, asOf, "scheduled freeze cancelled", map[string]interface{}{
		"freeze_id":  interval.ID,
		"start_date": dates.Key(interval.StartDate),
	})
	if s.schedules != nil {
		s.schedules.Invalidate(ctx, interval.EnrollmentID)
	}
	return nil
}

func (s *FreezeService) resolveTargets(ctx context.Context, req FreezeRequest) ([]models.Enrollment, error) {
	if len(req.EnrollmentIDs) == 0 {
		enrollments, err := s.enrollments.ListActiveByMember(ctx, req.MemberID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
		}
		return enrollments, nil
	}

	targets := make([]models.Enrollment, 0, len(req.EnrollmentIDs))
	for _, id := range req.EnrollmentIDs {
		enrollment, err := s.enrollments.FindByID(ctx, id)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}
		if enrollment.MemberID != req.MemberID {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment does not belong to member")
		}
		if !enrollment.Active {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment not active")
		}
		targets = append(targets, *enrollment)
	}
	return targets, nil
}

func (s *FreezeService) appendAudit(ctx context.Context, memberID string, enrollmentID *string, action string, effectiveDate time.Time, description string, metadata map[string]interface{}) {
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

func keyOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return dates.Key(*t)
}
