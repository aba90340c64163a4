package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryListActiveByMember(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "member_id", "class_id", "created_at", "active", "payment_interval_months", "custom_price", "next_payment_due", "deactivated_at"}).
		AddRow("enr-1", "mem-1", "class-1", time.Now(), true, 1, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE member_id = $1 AND active = TRUE")).
		WithArgs("mem-1").
		WillReturnRows(rows)

	enrollments, err := repo.ListActiveByMember(context.Background(), "mem-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.Equal(t, 1, enrollments[0].Interval())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE member_id = $1 AND class_id = $2 AND active = TRUE")).
		WithArgs("mem-1", "class-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsActive(context.Background(), "mem-1", "class-1", "")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsActiveNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WithArgs("mem-1", "class-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsActive(context.Background(), "mem-1", "class-1", "")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryShiftNextPaymentDue(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET next_payment_due = next_payment_due + make_interval(days => $2) WHERE id = $1 AND next_payment_due IS NOT NULL")).
		WithArgs("enr-1", 14).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ShiftNextPaymentDue(context.Background(), "enr-1", 14))
	require.NoError(t, mock.ExpectationsWereMet())
}
