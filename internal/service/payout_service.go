package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
	"github.com/tanzhaus/backoffice-api/pkg/export"
)

type instructorReader interface {
	FindInstructorByID(ctx context.Context, id string) (*models.Instructor, error)
}

type payoutLineReader interface {
	ListPayoutLines(ctx context.Context, instructorID string, from, to time.Time) ([]models.PayoutLine, error)
}

type statementRenderer interface {
	Render(s export.Statement) ([]byte, error)
}

// PayoutService computes instructor commission payouts from non-refund
// payments in a date range.
type PayoutService struct {
	classes  instructorReader
	payments payoutLineReader
	renderer statementRenderer
	logger   *zap.Logger
}

// NewPayoutService constructs PayoutService.
func NewPayoutService(classes instructorReader, payments payoutLineReader, renderer statementRenderer, logger *zap.Logger) *PayoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayoutService{
		classes:  classes,
		payments: payments,
		renderer: renderer,
		logger:   logger,
	}
}

// Payout summarizes an instructor's commission over [from, to].
func (s *PayoutService) Payout(ctx context.Context, instructorID string, from, to time.Time) (*models.Payout, error) {
	from = dates.Day(from)
	to = dates.Day(to)
	if dates.Before(to, from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payout range end precedes start")
	}

	instructor, err := s.classes.FindInstructorByID(ctx, instructorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	lines, err := s.payments.ListPayoutLines(ctx, instructorID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payout lines")
	}

	payout := &models.Payout{
		InstructorID:   instructorID,
		InstructorName: instructor.FullName,
		PeriodFrom:     from,
		PeriodTo:       to,
		Lines:          lines,
	}
	for _, line := range lines {
		payout.TotalAmount += line.Amount
		payout.TotalCommission += line.Commission
	}
	return payout, nil
}

// Statement renders the payout as a PDF document.
func (s *PayoutService) Statement(ctx context.Context, instructorID string, from, to time.Time) ([]byte, error) {
	payout, err := s.Payout(ctx, instructorID, from, to)
	if err != nil {
		return nil, err
	}

	statement := export.Statement{
		InstructorName:  payout.InstructorName,
		PeriodFrom:      dates.Key(payout.PeriodFrom),
		PeriodTo:        dates.Key(payout.PeriodTo),
		Lines:           make([]export.StatementLine, 0, len(payout.Lines)),
		TotalAmount:     payout.TotalAmount,
		TotalCommission: payout.TotalCommission,
	}
	for _, line := range payout.Lines {
		statement.Lines = append(statement.Lines, export.StatementLine{
			PaidAt:     dates.Key(line.PaidAt),
			MemberName: line.MemberName,
			ClassName:  line.ClassName,
			Amount:     line.Amount,
			Commission: line.Commission,
		})
	}

	pdf, err := s.renderer.Render(statement)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render payout statement")
	}
	return pdf, nil
}
