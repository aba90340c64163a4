package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tanzhaus/backoffice-api/internal/models"
)

// MemberRepository handles persistence of members.
type MemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository constructs the repository.
func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// List returns members filtered by the provided criteria.
func (r *MemberRepository) List(ctx context.Context, filter models.MemberFilter) ([]models.Member, int, error) {
	base := "FROM members m"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("m.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(m.full_name ILIKE $%d OR m.email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name": "m.full_name",
		"joined_at": "m.joined_at",
		"status":    "m.status",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "m.joined_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT m.id, m.full_name, m.email, m.phone, m.status, m.joined_at, m.created_at, m.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var members []models.Member
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}
	return members, total, nil
}

// FindByID returns a member by its ID.
func (r *MemberRepository) FindByID(ctx context.Context, id string) (*models.Member, error) {
	const query = `SELECT id, full_name, email, phone, status, joined_at, created_at, updated_at FROM members WHERE id = $1`
	var member models.Member
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// ListNonArchived returns every member not in the archived terminal state.
// Used by the batch status synchronizer.
func (r *MemberRepository) ListNonArchived(ctx context.Context) ([]models.Member, error) {
	const query = `SELECT id, full_name, email, phone, status, joined_at, created_at, updated_at FROM members WHERE status <> $1`
	var members []models.Member
	if err := r.db.SelectContext(ctx, &members, query, models.MemberStatusArchived); err != nil {
		return nil, fmt.Errorf("list non-archived members: %w", err)
	}
	return members, nil
}

// CountByStatus returns member counts grouped by status.
func (r *MemberRepository) CountByStatus(ctx context.Context) (map[models.MemberStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM members GROUP BY status`
	var rows []struct {
		Status models.MemberStatus `db:"status"`
		Count  int                 `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count members by status: %w", err)
	}
	counts := make(map[models.MemberStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Create persists a new member record.
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if member.JoinedAt.IsZero() {
		member.JoinedAt = now
	}
	if member.Status == "" {
		member.Status = models.MemberStatusActive
	}
	member.CreatedAt = now
	member.UpdatedAt = now
	const query = `INSERT INTO members (id, full_name, email, phone, status, joined_at, created_at, updated_at)
        VALUES (:id, :full_name, :email, :phone, :status, :joined_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// Update persists editable member fields.
func (r *MemberRepository) Update(ctx context.Context, member *models.Member) error {
	const query = `UPDATE members SET full_name = $2, email = $3, phone = $4, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, member.ID, member.FullName, member.Email, member.Phone); err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return nil
}

// UpdateStatus writes the denormalized status field.
func (r *MemberRepository) UpdateStatus(ctx context.Context, id string, status models.MemberStatus) error {
	const query = `UPDATE members SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update member status: %w", err)
	}
	return nil
}
