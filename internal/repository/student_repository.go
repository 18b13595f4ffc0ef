package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
)

// StudentRepository manages persistence for learner profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create inserts a student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, owner_id, first_name, last_name, grade_level, created_at, updated_at)
		VALUES (:id, :owner_id, :first_name, :last_name, :grade_level, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// FindByID fetches a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := r.db.Rebind(`SELECT id, owner_id, first_name, last_name, grade_level, created_at, updated_at FROM students WHERE id = ?`)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByOwner returns the owner's students ordered by first name.
func (r *StudentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Student, error) {
	query := r.db.Rebind(`SELECT id, owner_id, first_name, last_name, grade_level, created_at, updated_at FROM students WHERE owner_id = ? ORDER BY first_name ASC, last_name ASC`)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, ownerID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
