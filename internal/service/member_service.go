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

type memberStore interface {
	List(ctx context.Context, filter models.MemberFilter) ([]models.Member, int, error)
	FindByID(ctx context.Context, id string) (*models.Member, error)
	Create(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, member *models.Member) error
	UpdateStatus(ctx context.Context, id string, status models.MemberStatus) error
}

type memberEnrollmentTerminator interface {
	ListActiveByMember(ctx context.Context, memberID string) ([]models.Enrollment, error)
	Deactivate(ctx context.Context, id string, at time.Time) error
}

type memberFreezeCloser interface {
	UnfreezeMember(ctx context.Context, memberID string, asOf time.Time) (int, error)
}

type auditTrail interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	ListByMember(ctx context.Context, memberID string, limit int) ([]models.AuditLog, error)
}

// CreateMemberRequest creates a member.
type CreateMemberRequest struct {
	FullName string     `json:"full_name" validate:"required,min=2,max=120"`
	Email    string     `json:"email" validate:"required,email"`
	Phone    string     `json:"phone,omitempty" validate:"omitempty,max=32"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
}

// UpdateMemberRequest updates a member's contact details.
type UpdateMemberRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// MemberService manages member records. Archiving is terminal: it closes
// every open freeze, terminates every active enrollment, and the status
// synchronizer never touches archived members again.
type MemberService struct {
	members     memberStore
	enrollments memberEnrollmentTerminator
	freezes     memberFreezeCloser
	audits      auditTrail
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMemberService constructs MemberService.
func NewMemberService(members memberStore, enrollments memberEnrollmentTerminator, freezes memberFreezeCloser, audits auditTrail, validate *validator.Validate, logger *zap.Logger) *MemberService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{
		members:     members,
		enrollments: enrollments,
		freezes:     freezes,
		audits:      audits,
		validator:   validate,
		logger:      logger,
	}
}

// List returns members matching the filter.
func (s *MemberService) List(ctx context.Context, filter models.MemberFilter) ([]models.Member, *models.Pagination, error) {
	items, total, err := s.members.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
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

// Get returns one member.
func (s *MemberService) Get(ctx context.Context, id string) (*models.Member, error) {
	member, err := s.members.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	return member, nil
}

// Create registers a new active member.
func (s *MemberService) Create(ctx context.Context, req CreateMemberRequest, asOf time.Time) (*models.Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member payload")
	}
	joined := dates.Day(asOf)
	if req.JoinedAt != nil {
		joined = dates.Day(*req.JoinedAt)
	}
	member := models.Member{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Status:   models.MemberStatusActive,
		JoinedAt: joined,
	}
	if err := s.members.Create(ctx, &member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create member")
	}
	return &member, nil
}

// Update rewrites a member's contact details. Status is not writable here.
func (s *MemberService) Update(ctx context.Context, id string, req UpdateMemberRequest) (*models.Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member payload")
	}
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if member.Status == models.MemberStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "archived members cannot be updated")
	}
	member.FullName = req.FullName
	member.Email = req.Email
	member.Phone = req.Phone
	if err := s.members.Update(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update member")
	}
	return member, nil
}

// Archive terminally retires a member: open freezes close, active
// enrollments terminate, and the status becomes archived.
func (s *MemberService) Archive(ctx context.Context, id string, asOf time.Time) error {
	member, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if member.Status == models.MemberStatusArchived {
		return appErrors.Clone(appErrors.ErrInvalidState, "member already archived")
	}

	at := dates.Day(asOf)
	if _, err := s.freezes.UnfreezeMember(ctx, id, at); err != nil {
		return err
	}

	active, err := s.enrollments.ListActiveByMember(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	for _, enrollment := range active {
		if err := s.enrollments.Deactivate(ctx, enrollment.ID, at); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to terminate enrollment")
		}
	}

	if err := s.members.UpdateStatus(ctx, id, models.MemberStatusArchived); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive member")
	}

	payload, _ := json.Marshal(map[string]interface{}{"terminated_enrollments": len(active)})
	entry := &models.AuditLog{
		MemberID:      id,
		Action:        models.AuditActionMemberArchive,
		EffectiveDate: at,
		Description:   "member archived",
		Metadata:      payload,
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append audit entry",
			zap.String("member_id", id),
			zap.String("action", models.AuditActionMemberArchive),
			zap.Error(err),
		)
	}
	return nil
}

// History returns the member's audit trail, newest first.
func (s *MemberService) History(ctx context.Context, id string, limit int) ([]models.AuditLog, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.audits.ListByMember(ctx, id, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit trail")
	}
	return entries, nil
}
