package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/tanzhaus/backoffice-api/internal/models"
)

func TestPaymentRepositoryListForLedger(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "member_id", "enrollment_id", "class_id", "amount", "paid_at", "period_start", "period_end", "type", "created_at"}).
		AddRow("pay-1", "mem-1", "enr-1", "class-1", 45.0, time.Now(), time.Now(), time.Now(), models.PaymentTypeMonthly, time.Now()).
		AddRow("pay-2", "mem-1", nil, "class-1", 45.0, time.Now(), time.Now(), time.Now(), models.PaymentTypeMonthly, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE enrollment_id = $1 OR (enrollment_id IS NULL AND class_id = $2)")).
		WithArgs("enr-1", "class-1").
		WillReturnRows(rows)

	payments, err := repo.ListForLedger(context.Background(), "enr-1", "class-1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	require.Nil(t, payments[1].EnrollmentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositorySumRevenueBetween(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) FROM payments WHERE type <> $1")).
		WithArgs(models.PaymentTypeRefund, from, to).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1350.0))

	total, err := repo.SumRevenueBetween(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 1350.0, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryListPayoutLines(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"payment_id", "member_name", "class_name", "paid_at", "amount", "rate", "commission"}).
		AddRow("pay-1", "Ana Ruiz", "Salsa Beginners", from, 45.0, 0.4, 18.0)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.instructor_id = $1 AND p.type <> $2")).
		WithArgs("ins-1", models.PaymentTypeRefund, from, to).
		WillReturnRows(rows)

	lines, err := repo.ListPayoutLines(context.Background(), "ins-1", from, to)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, 18.0, lines[0].Commission)
	require.NoError(t, mock.ExpectationsWereMet())
}
