package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
	"github.com/noah-isme/homeschool-planner-api/internal/service"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
	"github.com/noah-isme/homeschool-planner-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, ownerID string) ([]models.Student, error)
	Create(ctx context.Context, ownerID string, req service.CreateStudentRequest) (*models.Student, error)
}

// StudentHandler manages the learner profiles of the caller.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(svc studentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	students, err := h.service.List(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.service.Create(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}
