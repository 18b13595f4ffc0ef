package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/homeschool-planner-api/internal/middleware"
	"github.com/noah-isme/homeschool-planner-api/internal/models"
	"github.com/noah-isme/homeschool-planner-api/internal/service"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
)

type termPlanServiceMock struct {
	owner   string
	page    int
	size    int
	created *service.CreateTermPlanRequest
	getErr  error
}

func (m *termPlanServiceMock) Create(ctx context.Context, ownerID string, req service.CreateTermPlanRequest) (*models.TermPlan, error) {
	m.owner = ownerID
	m.created = &req
	return &models.TermPlan{ID: "term-1", OwnerID: ownerID, Name: req.Name, StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (m *termPlanServiceMock) Get(ctx context.Context, ownerID, id string) (*models.TermPlan, error) {
	m.owner = ownerID
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &models.TermPlan{ID: id, OwnerID: ownerID}, nil
}

func (m *termPlanServiceMock) List(ctx context.Context, ownerID string, page, size int) ([]models.TermPlan, *models.Pagination, error) {
	m.owner, m.page, m.size = ownerID, page, size
	return []models.TermPlan{{ID: "term-1"}}, &models.Pagination{Page: page, PageSize: size, TotalCount: 1}, nil
}

type studentServiceMock struct {
	owner   string
	created *service.CreateStudentRequest
}

func (m *studentServiceMock) List(ctx context.Context, ownerID string) ([]models.Student, error) {
	m.owner = ownerID
	return []models.Student{{ID: "ada", OwnerID: ownerID, FirstName: "Ada"}}, nil
}

func (m *studentServiceMock) Create(ctx context.Context, ownerID string, req service.CreateStudentRequest) (*models.Student, error) {
	m.owner = ownerID
	m.created = &req
	return &models.Student{ID: "ada", OwnerID: ownerID, FirstName: req.FirstName}, nil
}

func newAccountRouter(terms *termPlanServiceMock, students *studentServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{RegisteredClaims: jwtSubject("parent-1")})
		c.Next()
	})
	th := NewTermPlanHandler(terms)
	r.GET("/plans", th.List)
	r.POST("/plans", th.Create)
	r.GET("/plans/:planId", th.Get)
	sh := NewStudentHandler(students)
	r.GET("/students", sh.List)
	r.POST("/students", sh.Create)
	return r
}

func TestTermPlanHandlerCreate(t *testing.T) {
	terms := &termPlanServiceMock{}
	r := newAccountRouter(terms, &studentServiceMock{})

	w := doJSON(r, http.MethodPost, "/plans", `{"name":"Fall 2026","start_date":"2026-09-01","end_date":"2026-12-18"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "parent-1", terms.owner)
	require.NotNil(t, terms.created)
	assert.Equal(t, "2026-12-18", terms.created.EndDate)
	assert.Contains(t, w.Body.String(), `"id":"term-1"`)

	w = doJSON(r, http.MethodPost, "/plans", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTermPlanHandlerListPaging(t *testing.T) {
	terms := &termPlanServiceMock{}
	r := newAccountRouter(terms, &studentServiceMock{})

	w := doJSON(r, http.MethodGet, "/plans?page=2&page_size=5", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, terms.page)
	assert.Equal(t, 5, terms.size)
	assert.Contains(t, w.Body.String(), `"total_count":1`)
}

func TestTermPlanHandlerGetForbidden(t *testing.T) {
	terms := &termPlanServiceMock{getErr: appErrors.Clone(appErrors.ErrForbidden, "term plan belongs to another account")}
	r := newAccountRouter(terms, &studentServiceMock{})

	w := doJSON(r, http.MethodGet, "/plans/term-9", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStudentHandler(t *testing.T) {
	students := &studentServiceMock{}
	r := newAccountRouter(&termPlanServiceMock{}, students)

	w := doJSON(r, http.MethodPost, "/students", `{"first_name":"Ada","grade_level":"4"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "parent-1", students.owner)
	assert.Equal(t, "4", students.created.GradeLevel)

	w = doJSON(r, http.MethodGet, "/students", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"first_name":"Ada"`)
}
