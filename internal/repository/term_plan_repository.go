package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
)

// TermPlanRepository manages the term plan containers.
type TermPlanRepository struct {
	db *sqlx.DB
}

// NewTermPlanRepository constructs a TermPlanRepository.
func NewTermPlanRepository(db *sqlx.DB) *TermPlanRepository {
	return &TermPlanRepository{db: db}
}

// Create inserts a term plan.
func (r *TermPlanRepository) Create(ctx context.Context, plan *models.TermPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	const query = `INSERT INTO term_plans (id, owner_id, name, start_date, end_date, created_at, updated_at)
		VALUES (:id, :owner_id, :name, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("create term plan: %w", err)
	}
	return nil
}

// FindByID returns a term plan by id.
func (r *TermPlanRepository) FindByID(ctx context.Context, id string) (*models.TermPlan, error) {
	query := r.db.Rebind(`SELECT id, owner_id, name, start_date, end_date, created_at, updated_at FROM term_plans WHERE id = ?`)
	var plan models.TermPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListByOwner returns a page of the owner's term plans, newest first, and the total count.
func (r *TermPlanRepository) ListByOwner(ctx context.Context, ownerID string, page, size int) ([]models.TermPlan, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := r.db.Rebind(fmt.Sprintf(`SELECT id, owner_id, name, start_date, end_date, created_at, updated_at FROM term_plans WHERE owner_id = ? ORDER BY start_date DESC, created_at DESC LIMIT %d OFFSET %d`, size, offset))
	var plans []models.TermPlan
	if err := r.db.SelectContext(ctx, &plans, query, ownerID); err != nil {
		return nil, 0, fmt.Errorf("list term plans: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM term_plans WHERE owner_id = ?`), ownerID); err != nil {
		return nil, 0, fmt.Errorf("count term plans: %w", err)
	}
	return plans, total, nil
}
