package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
)

const studentPlanColumns = "id, plan_id, student_id, schedule, subjects, activities, block_assignments, version, created_at, updated_at"

// StudentPlanRepository persists student plans keyed by (plan_id, student_id).
type StudentPlanRepository struct {
	db *sqlx.DB
}

// NewStudentPlanRepository constructs the repository.
func NewStudentPlanRepository(db *sqlx.DB) *StudentPlanRepository {
	return &StudentPlanRepository{db: db}
}

// Get returns the stored plan of a student within a term plan.
func (r *StudentPlanRepository) Get(ctx context.Context, planID, studentID string) (*models.StudentPlanRecord, error) {
	query := r.db.Rebind(`SELECT ` + studentPlanColumns + ` FROM student_plans WHERE plan_id = ? AND student_id = ?`)
	var record models.StudentPlanRecord
	if err := r.db.GetContext(ctx, &record, query, planID, studentID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByPlan returns every stored student plan of a term plan.
func (r *StudentPlanRepository) ListByPlan(ctx context.Context, planID string) ([]models.StudentPlanRecord, error) {
	query := r.db.Rebind(`SELECT ` + studentPlanColumns + ` FROM student_plans WHERE plan_id = ? ORDER BY created_at ASC`)
	var records []models.StudentPlanRecord
	if err := r.db.SelectContext(ctx, &records, query, planID); err != nil {
		return nil, fmt.Errorf("list student plans: %w", err)
	}
	return records, nil
}

// Upsert writes the record unless the stored row already carries the same or a newer
// version. It reports whether the row was written.
func (r *StudentPlanRepository) Upsert(ctx context.Context, record *models.StudentPlanRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}

	const query = `INSERT INTO student_plans (id, plan_id, student_id, schedule, subjects, activities, block_assignments, version, created_at, updated_at)
		VALUES (:id, :plan_id, :student_id, :schedule, :subjects, :activities, :block_assignments, :version, :created_at, :updated_at)
		ON CONFLICT (plan_id, student_id) DO UPDATE
		SET schedule = EXCLUDED.schedule,
		    subjects = EXCLUDED.subjects,
		    activities = EXCLUDED.activities,
		    block_assignments = EXCLUDED.block_assignments,
		    version = EXCLUDED.version,
		    updated_at = EXCLUDED.updated_at
		WHERE student_plans.version < EXCLUDED.version`
	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return false, fmt.Errorf("upsert student plan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert student plan rows: %w", err)
	}
	return affected > 0, nil
}
