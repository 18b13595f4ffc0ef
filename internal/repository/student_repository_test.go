package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
)

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "owner-1", "Ada", "Lovelace", "5", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{OwnerID: "owner-1", FirstName: "Ada", LastName: "Lovelace", GradeLevel: "5"}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListByOwner(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "owner_id", "first_name", "last_name", "grade_level", "created_at", "updated_at"}).
		AddRow("student-1", "owner-1", "Ada", "Lovelace", "5", now, now).
		AddRow("student-2", "owner-1", "Charles", "", "3", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE owner_id = ? ORDER BY first_name ASC, last_name ASC")).
		WithArgs("owner-1").
		WillReturnRows(rows)

	students, err := repo.ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ada Lovelace", students[0].FullName())
	assert.Equal(t, "Charles", students[1].FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}
