package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type termPlanRepository interface {
	Create(ctx context.Context, plan *models.TermPlan) error
	FindByID(ctx context.Context, id string) (*models.TermPlan, error)
	ListByOwner(ctx context.Context, ownerID string, page, size int) ([]models.TermPlan, int, error)
}

// CreateTermPlanRequest holds the payload for creating a term plan.
type CreateTermPlanRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// TermPlanService manages the plan containers student schedules live in.
type TermPlanService struct {
	repo      termPlanRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTermPlanService constructs the term plan service.
func NewTermPlanService(repo termPlanRepository, validate *validator.Validate, logger *zap.Logger) *TermPlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermPlanService{repo: repo, validator: validate, logger: logger}
}

// Create registers a term plan owned by ownerID.
func (s *TermPlanService) Create(ctx context.Context, ownerID string, req CreateTermPlanRequest) (*models.TermPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid term plan payload")
	}
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}

	plan := &models.TermPlan{
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(req.Name),
		StartDate: start,
		EndDate:   end,
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term plan")
	}
	s.logger.Info("term plan created", zap.String("plan_id", plan.ID), zap.String("owner_id", ownerID))
	return plan, nil
}

// Get returns a term plan owned by ownerID.
func (s *TermPlanService) Get(ctx context.Context, ownerID, id string) (*models.TermPlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term plan")
	}
	if plan.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "term plan belongs to another account")
	}
	return plan, nil
}

// List returns a page of the owner's term plans.
func (s *TermPlanService) List(ctx context.Context, ownerID string, page, size int) ([]models.TermPlan, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	plans, total, err := s.repo.ListByOwner(ctx, ownerID, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list term plans")
	}
	if plans == nil {
		plans = []models.TermPlan{}
	}
	return plans, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
