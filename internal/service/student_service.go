package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
)

type studentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Student, error)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	FirstName  string `json:"first_name" validate:"required,max=80"`
	LastName   string `json:"last_name" validate:"omitempty,max=80"`
	GradeLevel string `json:"grade_level" validate:"omitempty,max=20"`
}

// StudentService handles learner profiles of a parent account.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns the owner's students.
func (s *StudentService) List(ctx context.Context, ownerID string) ([]models.Student, error) {
	students, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Create registers a new student for ownerID.
func (s *StudentService) Create(ctx context.Context, ownerID string, req CreateStudentRequest) (*models.Student, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid student payload")
	}
	student := &models.Student{
		OwnerID:    ownerID,
		FirstName:  req.FirstName,
		LastName:   strings.TrimSpace(req.LastName),
		GradeLevel: strings.TrimSpace(req.GradeLevel),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}
