package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tanzhaus/backoffice-api/internal/models"
)

// ClassRepository handles persistence of dance classes and instructors.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID returns a class by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.DanceClass, error) {
	const query = `SELECT id, name, style, instructor_id, list_price, commission_rate, active, created_at FROM classes WHERE id = $1`
	var class models.DanceClass
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListActive returns all active classes.
func (r *ClassRepository) ListActive(ctx context.Context) ([]models.DanceClass, error) {
	const query = `SELECT id, name, style, instructor_id, list_price, commission_rate, active, created_at FROM classes WHERE active = TRUE ORDER BY name`
	var classes []models.DanceClass
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// Create persists a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.DanceClass) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classes (id, name, style, instructor_id, list_price, commission_rate, active, created_at)
        VALUES (:id, :name, :style, :instructor_id, :list_price, :commission_rate, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// FindInstructorByID returns an instructor by its ID.
func (r *ClassRepository) FindInstructorByID(ctx context.Context, id string) (*models.Instructor, error) {
	const query = `SELECT id, full_name, email, active, created_at FROM instructors WHERE id = $1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// ListInstructors returns all instructors.
func (r *ClassRepository) ListInstructors(ctx context.Context) ([]models.Instructor, error) {
	const query = `SELECT id, full_name, email, active, created_at FROM instructors ORDER BY full_name`
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}
