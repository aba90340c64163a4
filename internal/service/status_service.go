package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/internal/schedule"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
)

type memberStatusStore interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
	ListNonArchived(ctx context.Context) ([]models.Member, error)
	UpdateStatus(ctx context.Context, id string, status models.MemberStatus) error
}

type activeEnrollmentLister interface {
	ListActiveByMember(ctx context.Context, memberID string) ([]models.Enrollment, error)
}

type memberFreezeLister interface {
	ListByMember(ctx context.Context, memberID string) ([]models.FreezeInterval, error)
}

// StatusService reconciles the denormalized member status against the truth
// derived from enrollments and freeze intervals. It is the only writer of
// the derived value, and every operation is idempotent: re-running with the
// same snapshot and reference date produces zero further writes.
type StatusService struct {
	members     memberStatusStore
	enrollments activeEnrollmentLister
	freezes     memberFreezeLister
	cache       scheduleCache
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewStatusService constructs StatusService.
func NewStatusService(members memberStatusStore, enrollments activeEnrollmentLister, freezes memberFreezeLister, cache scheduleCache, metrics *MetricsService, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		members:     members,
		enrollments: enrollments,
		freezes:     freezes,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
	}
}

// SyncResult reports the outcome of a batch synchronization pass.
type SyncResult struct {
	AsOf         time.Time `json:"as_of"`
	MembersSeen  int       `json:"members_seen"`
	UpdatedCount int       `json:"updated_count"`
}

// RecomputeMemberStatus derives and persists a single member's status as of
// the reference date. Archived members are terminal and never touched.
func (s *StatusService) RecomputeMemberStatus(ctx context.Context, memberID string, asOf time.Time) error {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	updated, err := s.reconcile(ctx, *member, dates.Day(asOf))
	if err != nil {
		return err
	}
	if updated {
		s.invalidateDashboard(ctx)
	}
	return nil
}

// SyncMemberStatuses reconciles every non-archived member. Per-member
// updates are independent; a failure on one member is logged and counted
// against no one else, and the next pass self-heals anything missed.
func (s *StatusService) SyncMemberStatuses(ctx context.Context, asOf time.Time) (*SyncResult, error) {
	asOf = dates.Day(asOf)
	members, err := s.members.ListNonArchived(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}

	result := &SyncResult{AsOf: asOf, MembersSeen: len(members)}
	for _, member := range members {
		updated, err := s.reconcile(ctx, member, asOf)
		if err != nil {
			s.logger.Warn("member status sync failed",
				zap.String("member_id", member.ID),
				zap.Error(err),
			)
			continue
		}
		if updated {
			result.UpdatedCount++
		}
	}

	if s.metrics != nil {
		s.metrics.RecordSyncRun(result.UpdatedCount)
	}
	if result.UpdatedCount > 0 {
		s.invalidateDashboard(ctx)
	}
	s.logger.Info("member status sync complete",
		zap.Time("as_of", asOf),
		zap.Int("members_seen", result.MembersSeen),
		zap.Int("updated", result.UpdatedCount),
	)
	return result, nil
}

// reconcile applies the derived-status rule to one member and reports
// whether a write happened. Members without active enrollments carry no
// freeze signal and are left untouched.
func (s *StatusService) reconcile(ctx context.Context, member models.Member, asOf time.Time) (bool, error) {
	enrollments, err := s.enrollments.ListActiveByMember(ctx, member.ID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	if len(enrollments) == 0 {
		return false, nil
	}

	intervals, err := s.freezes.ListByMember(ctx, member.ID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load freeze intervals")
	}
	byEnrollment := make(map[string][]models.FreezeInterval)
	for _, iv := range intervals {
		byEnrollment[iv.EnrollmentID] = append(byEnrollment[iv.EnrollmentID], iv)
	}

	sets := make([]schedule.FreezeSet, 0, len(enrollments))
	for _, enr := range enrollments {
		sets = append(sets, schedule.NewFreezeSet(byEnrollment[enr.ID]))
	}

	shouldBeFrozen := schedule.ShouldBeFrozen(sets, asOf)
	switch {
	case shouldBeFrozen && member.Status != models.MemberStatusFrozen:
		if err := s.members.UpdateStatus(ctx, member.ID, models.MemberStatusFrozen); err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write member status")
		}
		return true, nil
	case !shouldBeFrozen && member.Status == models.MemberStatusFrozen:
		if err := s.members.UpdateStatus(ctx, member.ID, models.MemberStatusActive); err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write member status")
		}
		return true, nil
	}
	return false, nil
}

func (s *StatusService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
