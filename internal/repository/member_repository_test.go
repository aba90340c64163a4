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

func TestMemberRepositoryListNonArchived(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "email", "phone", "status", "joined_at", "created_at", "updated_at"}).
		AddRow("mem-1", "Ana Ruiz", "ana@example.com", "", models.MemberStatusActive, time.Now(), time.Now(), time.Now()).
		AddRow("mem-2", "Jonas Weber", "jonas@example.com", "", models.MemberStatusFrozen, time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM members WHERE status <> $1")).
		WithArgs(models.MemberStatusArchived).
		WillReturnRows(rows)

	members, err := repo.ListNonArchived(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE members SET status = $2, updated_at = NOW() WHERE id = $1")).
		WithArgs("mem-1", models.MemberStatusFrozen).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "mem-1", models.MemberStatusFrozen))
	require.NoError(t, mock.ExpectationsWereMet())
}
