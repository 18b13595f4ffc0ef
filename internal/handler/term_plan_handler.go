package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
	"github.com/noah-isme/homeschool-planner-api/internal/service"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
	"github.com/noah-isme/homeschool-planner-api/pkg/response"
)

type termPlanService interface {
	Create(ctx context.Context, ownerID string, req service.CreateTermPlanRequest) (*models.TermPlan, error)
	Get(ctx context.Context, ownerID, id string) (*models.TermPlan, error)
	List(ctx context.Context, ownerID string, page, size int) ([]models.TermPlan, *models.Pagination, error)
}

// TermPlanHandler exposes the term plan containers of the caller.
type TermPlanHandler struct {
	service termPlanService
}

// NewTermPlanHandler constructs the handler.
func NewTermPlanHandler(svc termPlanService) *TermPlanHandler {
	return &TermPlanHandler{service: svc}
}

// List godoc
// @Summary List term plans
// @Tags Plans
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /plans [get]
func (h *TermPlanHandler) List(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	plans, pagination, err := h.service.List(c.Request.Context(), owner, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, pagination)
}

// Get godoc
// @Summary Get a term plan
// @Tags Plans
// @Produce json
// @Param planId path string true "Term plan ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId} [get]
func (h *TermPlanHandler) Get(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	plan, err := h.service.Get(c.Request.Context(), owner, c.Param("planId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Create godoc
// @Summary Create a term plan
// @Tags Plans
// @Accept json
// @Produce json
// @Param payload body service.CreateTermPlanRequest true "Term plan payload"
// @Success 201 {object} response.Envelope
// @Router /plans [post]
func (h *TermPlanHandler) Create(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	var req service.CreateTermPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid term plan payload"))
		return
	}
	plan, err := h.service.Create(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}
