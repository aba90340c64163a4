package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"

	"github.com/tanzhaus/backoffice-api/internal/models"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
)

type classStore interface {
	FindByID(ctx context.Context, id string) (*models.DanceClass, error)
	ListActive(ctx context.Context) ([]models.DanceClass, error)
	Create(ctx context.Context, class *models.DanceClass) error
	FindInstructorByID(ctx context.Context, id string) (*models.Instructor, error)
	ListInstructors(ctx context.Context) ([]models.Instructor, error)
}

// CreateClassRequest creates a dance class.
type CreateClassRequest struct {
	Name           string  `json:"name" validate:"required,min=2,max=120"`
	Style          string  `json:"style,omitempty" validate:"omitempty,max=60"`
	InstructorID   string  `json:"instructor_id" validate:"required"`
	ListPrice      float64 `json:"list_price" validate:"required,gt=0"`
	CommissionRate float64 `json:"commission_rate" validate:"gte=0,lte=1"`
}

// ClassService manages the class and instructor catalog.
type ClassService struct {
	classes   classStore
	validator *validator.Validate
}

// NewClassService constructs ClassService.
func NewClassService(classes classStore, validate *validator.Validate) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	return &ClassService{classes: classes, validator: validate}
}

// List returns active classes.
func (s *ClassService) List(ctx context.Context) ([]models.DanceClass, error) {
	classes, err := s.classes.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Get returns one class.
func (s *ClassService) Get(ctx context.Context, id string) (*models.DanceClass, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create registers a new class under an existing instructor.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.DanceClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if _, err := s.classes.FindInstructorByID(ctx, req.InstructorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	class := models.DanceClass{
		Name:           req.Name,
		Style:          req.Style,
		InstructorID:   req.InstructorID,
		ListPrice:      req.ListPrice,
		CommissionRate: req.CommissionRate,
		Active:         true,
	}
	if err := s.classes.Create(ctx, &class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return &class, nil
}

// Instructors returns all instructors.
func (s *ClassService) Instructors(ctx context.Context) ([]models.Instructor, error) {
	instructors, err := s.classes.ListInstructors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return instructors, nil
}
