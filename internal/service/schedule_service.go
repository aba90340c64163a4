package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/internal/schedule"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
)

type enrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type freezeReader interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.FreezeInterval, error)
}

type ledgerReader interface {
	ListForLedger(ctx context.Context, enrollmentID, classID string) ([]models.Payment, error)
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ScheduleService derives billing schedules for enrollments. Computations are
// pure functions of the persisted snapshot and an explicit reference date;
// results are cached per (enrollment, date) and invalidated on writes.
type ScheduleService struct {
	enrollments enrollmentReader
	freezes     freezeReader
	payments    ledgerReader
	cache       scheduleCache
	cacheTTL    time.Duration
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(enrollments enrollmentReader, freezes freezeReader, payments ledgerReader, cache scheduleCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		enrollments: enrollments,
		freezes:     freezes,
		payments:    payments,
		cache:       cache,
		cacheTTL:    cacheTTL,
		metrics:     metrics,
		logger:      logger,
	}
}

// ComputeSchedule returns the schedule view for an enrollment as of the
// reference date.
func (s *ScheduleService) ComputeSchedule(ctx context.Context, enrollmentID string, asOf time.Time) (*models.EnrollmentSchedule, error) {
	asOf = dates.Day(asOf)

	cacheKey := scheduleCacheKey(enrollmentID, asOf)
	if s.cache != nil {
		var cached models.EnrollmentSchedule
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	snapshot, err := s.snapshot(ctx, *enrollment)
	if err != nil {
		return nil, err
	}

	view := snapshot.view(asOf)
	if view.ScanExhausted {
		if s.metrics != nil {
			s.metrics.IncScanExhausted()
		}
		s.logger.Warn("schedule scan exhausted",
			zap.String("enrollment_id", enrollmentID),
			zap.Int("interval_months", enrollment.Interval()),
		)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, view, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache schedule", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		}
	}
	return &view, nil
}

// DisplayStatus returns just the derived status for an enrollment.
func (s *ScheduleService) DisplayStatus(ctx context.Context, enrollmentID string, asOf time.Time) (models.EnrollmentDisplayStatus, error) {
	view, err := s.ComputeSchedule(ctx, enrollmentID, asOf)
	if err != nil {
		return "", err
	}
	return view.Status, nil
}

// Invalidate drops cached schedules for an enrollment after a write.
func (s *ScheduleService) Invalidate(ctx context.Context, enrollmentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("schedule:%s:*", enrollmentID)); err != nil {
		s.logger.Warn("failed to invalidate schedule cache", zap.String("enrollment_id", enrollmentID), zap.Error(err))
	}
}

func scheduleCacheKey(enrollmentID string, asOf time.Time) string {
	return fmt.Sprintf("schedule:%s:%s", enrollmentID, dates.Key(asOf))
}

// scheduleSnapshot bundles the inputs of one enrollment's schedule walk.
type scheduleSnapshot struct {
	enrollment models.Enrollment
	freezes    schedule.FreezeSet
	paid       schedule.PaidSet
}

func (s *ScheduleService) snapshot(ctx context.Context, enrollment models.Enrollment) (*scheduleSnapshot, error) {
	intervals, err := s.freezes.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load freeze intervals")
	}
	payments, err := s.payments.ListForLedger(ctx, enrollment.ID, enrollment.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	return &scheduleSnapshot{
		enrollment: enrollment,
		freezes:    schedule.NewFreezeSet(intervals),
		paid:       schedule.BuildPaidSet(enrollment, payments),
	}, nil
}

func (snap *scheduleSnapshot) view(asOf time.Time) models.EnrollmentSchedule {
	next, nextExhausted := schedule.NextUnpaidDate(snap.enrollment, snap.freezes, snap.paid)
	overdue, countExhausted := schedule.OverdueCount(snap.enrollment, snap.freezes, snap.paid, asOf)
	return models.EnrollmentSchedule{
		EnrollmentID:  snap.enrollment.ID,
		AsOf:          asOf,
		NextUnpaidDue: next,
		OverdueCount:  overdue,
		Status:        schedule.DisplayStatus(snap.enrollment, snap.freezes, snap.paid, asOf),
		Frozen:        snap.freezes.IsFrozen(asOf),
		ScanExhausted: nextExhausted || countExhausted,
	}
}
