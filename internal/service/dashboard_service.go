package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/internal/schedule"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
)

type dashboardMemberReader interface {
	ListNonArchived(ctx context.Context) ([]models.Member, error)
	CountByStatus(ctx context.Context) (map[models.MemberStatus]int, error)
}

type dashboardEnrollmentReader interface {
	ListActiveByMember(ctx context.Context, memberID string) ([]models.Enrollment, error)
}

type dashboardFreezeReader interface {
	ListByMember(ctx context.Context, memberID string) ([]models.FreezeInterval, error)
}

type dashboardLedgerReader interface {
	ListForLedger(ctx context.Context, enrollmentID, classID string) ([]models.Payment, error)
}

type revenueReader interface {
	SumRevenueBetween(ctx context.Context, from, to time.Time) (float64, error)
}

// DashboardService builds the cached operator overview. The summary walks
// every non-archived member's schedule, so it is always served from cache
// when possible and recomputed on invalidation.
type DashboardService struct {
	members     dashboardMemberReader
	enrollments dashboardEnrollmentReader
	freezes     dashboardFreezeReader
	ledger      dashboardLedgerReader
	revenue     revenueReader
	cache       scheduleCache
	cacheTTL    time.Duration
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(members dashboardMemberReader, enrollments dashboardEnrollmentReader, freezes dashboardFreezeReader, ledger dashboardLedgerReader, revenue revenueReader, cache scheduleCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		members:     members,
		enrollments: enrollments,
		freezes:     freezes,
		ledger:      ledger,
		revenue:     revenue,
		cache:       cache,
		cacheTTL:    cacheTTL,
		metrics:     metrics,
		logger:      logger,
	}
}

// Summary returns the operator overview as of the reference date.
func (s *DashboardService) Summary(ctx context.Context, asOf time.Time) (*models.DashboardSummary, error) {
	asOf = dates.Day(asOf)

	cacheKey := fmt.Sprintf("dashboard:%s", dates.Key(asOf))
	if s.cache != nil {
		var cached models.DashboardSummary
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	summary, err := s.build(ctx, asOf)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
		}
	}
	return summary, nil
}

func (s *DashboardService) build(ctx context.Context, asOf time.Time) (*models.DashboardSummary, error) {
	counts, err := s.members.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count members")
	}

	overdueMembers, err := s.countOverdueMembers(ctx, asOf)
	if err != nil {
		return nil, err
	}

	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := dates.AddMonths(monthStart, 1)
	monthRevenue, err := s.revenue.SumRevenueBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum revenue")
	}

	if s.metrics != nil {
		for status, count := range counts {
			s.metrics.SetMemberStatusCount(string(status), count)
		}
	}

	return &models.DashboardSummary{
		AsOf:            asOf,
		ActiveMembers:   counts[models.MemberStatusActive],
		FrozenMembers:   counts[models.MemberStatusFrozen],
		ArchivedMembers: counts[models.MemberStatusArchived],
		OverdueMembers:  overdueMembers,
		MonthRevenue:    monthRevenue,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// countOverdueMembers counts members holding at least one enrollment whose
// derived status is overdue. Frozen enrollments never count.
func (s *DashboardService) countOverdueMembers(ctx context.Context, asOf time.Time) (int, error) {
	members, err := s.members.ListNonArchived(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}

	overdue := 0
	for _, member := range members {
		enrollments, err := s.enrollments.ListActiveByMember(ctx, member.ID)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
		}
		if len(enrollments) == 0 {
			continue
		}

		intervals, err := s.freezes.ListByMember(ctx, member.ID)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list freeze intervals")
		}
		byEnrollment := make(map[string][]models.FreezeInterval)
		for _, iv := range intervals {
			byEnrollment[iv.EnrollmentID] = append(byEnrollment[iv.EnrollmentID], iv)
		}

		for _, enrollment := range enrollments {
			payments, err := s.ledger.ListForLedger(ctx, enrollment.ID, enrollment.ClassID)
			if err != nil {
				return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
			}
			freezes := schedule.NewFreezeSet(byEnrollment[enrollment.ID])
			paid := schedule.BuildPaidSet(enrollment, payments)
			if schedule.DisplayStatus(enrollment, freezes, paid, asOf) == models.DisplayStatusOverdue {
				overdue++
				break
			}
		}
	}
	return overdue, nil
}
