package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/homeschool-planner-api/internal/dto"
	"github.com/noah-isme/homeschool-planner-api/internal/models"
	"github.com/noah-isme/homeschool-planner-api/internal/planner"
	"github.com/noah-isme/homeschool-planner-api/internal/service"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
	"github.com/noah-isme/homeschool-planner-api/pkg/response"
)

type plannerService interface {
	Catalog() planner.Catalog
	GetPlan(ctx context.Context, ref service.PlanRef) (*models.StudentPlan, error)
	DaySlots(ctx context.Context, ref service.PlanRef, day models.Weekday) ([]models.TimeSlot, error)
	ListPlans(ctx context.Context, ownerID, planID string) ([]models.StudentPlan, error)
	ToggleDay(ctx context.Context, ref service.PlanRef, day models.Weekday) (*models.StudentPlan, error)
	SetDayField(ctx context.Context, ref service.PlanRef, day models.Weekday, field planner.DayField, value string) (*models.StudentPlan, error)
	ToggleUseSameSchedule(ctx context.Context, ref service.PlanRef) (*models.StudentPlan, error)
	SetBlockField(ctx context.Context, ref service.PlanRef, day models.Weekday, slot string, field planner.BlockField, value string, applyToAllDays bool) (*models.StudentPlan, error)
	SetPlatformURL(ctx context.Context, ref service.PlanRef, day models.Weekday, slot, url string) (*models.StudentPlan, error)
	SetPlatformHelp(ctx context.Context, ref service.PlanRef, day models.Weekday, slot string, needHelp bool) (*models.StudentPlan, error)
	AddBlock(ctx context.Context, ref service.PlanRef, day models.Weekday, applyToAllDays bool) (*models.StudentPlan, error)
	RemoveBlock(ctx context.Context, ref service.PlanRef, day models.Weekday, applyToAllDays bool) (*models.StudentPlan, error)
	CopyDay(ctx context.Context, ref service.PlanRef, from models.Weekday, to []models.Weekday) (*models.StudentPlan, error)
	SetCurriculum(ctx context.Context, ref service.PlanRef, core, extended []string, courses map[string][]string, activities []string) (*models.StudentPlan, error)
	CopySchedule(ctx context.Context, ownerID, planID, sourceID string, targetIDs []string, scope planner.CopyScope) ([]models.StudentPlan, error)
	PropagateBlockEdit(ctx context.Context, ownerID, planID, sourceID string, targetIDs []string, day models.Weekday, slot string, field planner.BlockField, value string) ([]models.StudentPlan, error)
	Save(ctx context.Context, ref service.PlanRef) (*models.StudentPlan, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, ref service.PlanRef, format service.ExportFormat) (*service.ExportResult, error)
	Summary(ctx context.Context, ref service.PlanRef) (*planner.TermSummary, error)
}

// PlannerHandler exposes the weekly schedule builder of a student plan.
type PlannerHandler struct {
	planner   plannerService
	exporter  scheduleExporter
	validator *validator.Validate
}

// NewPlannerHandler constructs the planner handler.
func NewPlannerHandler(plans plannerService, exporter scheduleExporter, validate *validator.Validate) *PlannerHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &PlannerHandler{planner: plans, exporter: exporter, validator: validate}
}

// Catalog godoc
// @Summary Default subject and activity catalog
// @Tags Planner
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /planner/catalog [get]
func (h *PlannerHandler) Catalog(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.planner.Catalog(), nil)
}

// Calculate godoc
// @Summary Preview the blocks a day window yields
// @Tags Planner
// @Produce json
// @Param start query string true "Start time (HH:MM)"
// @Param end query string true "End time (HH:MM)"
// @Param blockLength query int true "Block length in minutes"
// @Success 200 {object} response.Envelope
// @Router /planner/calculate [get]
func (h *PlannerHandler) Calculate(c *gin.Context) {
	start := strings.TrimSpace(c.Query("start"))
	end := strings.TrimSpace(c.Query("end"))
	length, err := strconv.Atoi(c.Query("blockLength"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "blockLength must be a number of minutes"))
		return
	}
	count := planner.ComputeBlockCount(start, end, length)
	slots := planner.ComputeTimeSlots(models.DaySchedule{StartTime: start, EndTime: end, BlockLength: length, Blocks: models.DerivedBlocks(count)})
	response.JSON(c, http.StatusOK, dto.CalculateResponse{BlockCount: count, Slots: slots}, nil)
}

// ListStudentPlans godoc
// @Summary List the student plans of a term plan
// @Tags Planner
// @Produce json
// @Param planId path string true "Term plan ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students [get]
func (h *PlannerHandler) ListStudentPlans(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	planID := c.Param("planId")
	plans, err := h.planner.ListPlans(c.Request.Context(), owner, planID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.StudentPlanList{PlanID: planID, Students: plans}, nil)
}

// GetSchedule godoc
// @Summary Get the working copy of a student plan
// @Tags Planner
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/schedule [get]
func (h *PlannerHandler) GetSchedule(c *gin.Context) {
	ref, ok := planRef(c)
	if !ok {
		return
	}
	h.respond(c)(h.planner.GetPlan(c.Request.Context(), ref))
}

// ToggleDay godoc
// @Summary Toggle whether a day is scheduled
// @Tags Planner
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Param day path string true "Weekday"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/schedule/days/{day}/toggle [post]
func (h *PlannerHandler) ToggleDay(c *gin.Context) {
	ref, day, ok := planRefAndDay(c)
	if !ok {
		return
	}
	h.respond(c)(h.planner.ToggleDay(c.Request.Context(), ref, day))
}

// SetDayField godoc
// @Summary Edit the window or block length of a day
// @Tags Planner
// @Accept json
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Param day path string true "Weekday"
// @Param payload body dto.DayFieldRequest true "Day field"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/schedule/days/{day} [patch]
func (h *PlannerHandler) SetDayField(c *gin.Context) {
	ref, day, ok := planRefAndDay(c)
	if !ok {
		return
	}
	var req dto.DayFieldRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.planner.SetDayField(c.Request.Context(), ref, day, planner.DayField(req.Field), req.Value))
}

// ToggleSameSchedule godoc
// @Summary Toggle using one window for every selected day
// @Tags Planner
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/schedule/same-schedule/toggle [post]
func (h *PlannerHandler) ToggleSameSchedule(c *gin.Context) {
	ref, ok := planRef(c)
	if !ok {
		return
	}
	h.respond(c)(h.planner.ToggleUseSameSchedule(c.Request.Context(), ref))
}

// DaySlots godoc
// @Summary List the time slots of a day
// @Tags Planner
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Param day path string true "Weekday"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/schedule/days/{day}/slots [get]
func (h *PlannerHandler) DaySlots(c *gin.Context) {
	ref, day, ok := planRefAndDay(c)
	if !ok {
		return
	}
	slots, err := h.planner.DaySlots(c.Request.Context(), ref, day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// SetBlockField godoc
// @Summary Edit the subject, course or type of a block
// @Tags Planner
// @Accept json
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Param day path string true "Weekday"
// @Param payload body dto.BlockFieldRequest true "Block field"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/schedule/days/{day}/blocks [patch]
func (h *PlannerHandler) SetBlockField(c *gin.Context) {
	ref, day, ok := planRefAndDay(c)
	if !ok {
		return
	}
	var req dto.BlockFieldRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.planner.SetBlockField(c.Request.Context(), ref, day, req.Time, planner.BlockField(req.Field), req.Value, req.ApplyToAllDays))
}

// SetPlatformURL godoc
// @Summary Set the resource link of a block
// @Tags Planner
// @Accept json
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Param day path string true "Weekday"
// @Param payload body dto.PlatformURLRequest true "Platform link"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/schedule/days/{day}/blocks/platform [put]
func (h *PlannerHandler) SetPlatformURL(c *gin.Context) {
	ref, day, ok := planRefAndDay(c)
	if !ok {
		return
	}
	var req dto.PlatformURLRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.planner.SetPlatformURL(c.Request.Context(), ref, day, req.Time, req.URL))
}

// SetPlatformHelp godoc
// @Summary Record whether help finding a resource is wanted
// @Tags Planner
// @Accept json
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Param day path string true "Weekday"
// @Param payload body dto.PlatformHelpRequest true "Platform help"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/schedule/days/{day}/blocks/platform-help [put]
func (h *PlannerHandler) SetPlatformHelp(c *gin.Context) {
	ref, day, ok := planRefAndDay(c)
	if !ok {
		return
	}
	var req dto.PlatformHelpRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.planner.SetPlatformHelp(c.Request.Context(), ref, day, req.Time, *req.NeedHelp))
}

// AddBlock godoc
// @Summary Append a block to a day
// @Tags Planner
// @Accept json
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Param day path string true "Weekday"
// @Param payload body dto.AddBlockRequest false "Options"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/schedule/days/{day}/blocks [post]
func (h *PlannerHandler) AddBlock(c *gin.Context) {
	ref, day, ok := planRefAndDay(c)
	if !ok {
		return
	}
	var req dto.AddBlockRequest
	if c.Request.ContentLength > 0 && !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.planner.AddBlock(c.Request.Context(), ref, day, req.ApplyToAllDays))
}

// RemoveBlock godoc
// @Summary Remove the last block of a day
// @Tags Planner
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Param day path string true "Weekday"
// @Param applyToAllDays query bool false "Also remove from every other selected day"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/schedule/days/{day}/blocks/last [delete]
func (h *PlannerHandler) RemoveBlock(c *gin.Context) {
	ref, day, ok := planRefAndDay(c)
	if !ok {
		return
	}
	applyAll := false
	if raw := c.Query("applyToAllDays"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "applyToAllDays must be a boolean"))
			return
		}
		applyAll = parsed
	}
	h.respond(c)(h.planner.RemoveBlock(c.Request.Context(), ref, day, applyAll))
}

// CopyDay godoc
// @Summary Copy a day onto other days
// @Tags Planner
// @Accept json
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Param day path string true "Weekday"
// @Param payload body dto.CopyDayRequest true "Target days"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/schedule/days/{day}/copy [post]
func (h *PlannerHandler) CopyDay(c *gin.Context) {
	ref, day, ok := planRefAndDay(c)
	if !ok {
		return
	}
	var req dto.CopyDayRequest
	if !h.bind(c, &req) {
		return
	}
	targets := make([]models.Weekday, 0, len(req.ToDays))
	for _, raw := range req.ToDays {
		target, ok := models.ParseWeekday(raw)
		if !ok {
			response.Error(c, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", raw)), map[string]string{"day": raw}))
			return
		}
		targets = append(targets, target)
	}
	h.respond(c)(h.planner.CopyDay(c.Request.Context(), ref, day, targets))
}

// SetCurriculum godoc
// @Summary Replace the subject and activity lists of a student plan
// @Tags Planner
// @Accept json
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.CurriculumRequest true "Curriculum"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/curriculum [put]
func (h *PlannerHandler) SetCurriculum(c *gin.Context) {
	ref, ok := planRef(c)
	if !ok {
		return
	}
	var req dto.CurriculumRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.planner.SetCurriculum(c.Request.Context(), ref, req.CoreSubjects, req.ExtendedSubjects, req.SubjectCourses, req.Activities))
}

// Save godoc
// @Summary Persist a student plan now
// @Tags Planner
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/schedule/save [post]
func (h *PlannerHandler) Save(c *gin.Context) {
	ref, ok := planRef(c)
	if !ok {
		return
	}
	h.respond(c)(h.planner.Save(c.Request.Context(), ref))
}

// CopySchedule godoc
// @Summary Copy a student plan onto other students
// @Tags Planner
// @Accept json
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Source student ID"
// @Param payload body dto.CopyScheduleRequest true "Targets and scope"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/copy [post]
func (h *PlannerHandler) CopySchedule(c *gin.Context) {
	ref, ok := planRef(c)
	if !ok {
		return
	}
	var req dto.CopyScheduleRequest
	if !h.bind(c, &req) {
		return
	}
	plans, err := h.planner.CopySchedule(c.Request.Context(), ref.OwnerID, ref.PlanID, ref.StudentID, req.TargetStudentIDs, planner.CopyScope(req.Scope))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// PropagateBlock godoc
// @Summary Mirror a block edit onto other students at the same slot position
// @Tags Planner
// @Accept json
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param payload body dto.PropagateBlockRequest true "Block edit"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/blocks/propagate [post]
func (h *PlannerHandler) PropagateBlock(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	var req dto.PropagateBlockRequest
	if !h.bind(c, &req) {
		return
	}
	day, ok := models.ParseWeekday(req.Day)
	if !ok {
		response.Error(c, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", req.Day)), map[string]string{"day": req.Day}))
		return
	}
	plans, err := h.planner.PropagateBlockEdit(c.Request.Context(), owner, c.Param("planId"), req.SourceStudentID, req.TargetStudentIDs, day, req.Time, planner.BlockField(req.Field), req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// Export godoc
// @Summary Download a student schedule
// @Tags Planner
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,text/calendar
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Param format query string false "csv, pdf, xlsx or ics" default(csv)
// @Success 200 {file} binary
// @Router /plans/{planId}/students/{studentId}/schedule/export [get]
func (h *PlannerHandler) Export(c *gin.Context) {
	ref, ok := planRef(c)
	if !ok {
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", string(service.FormatCSV))))
	result, err := h.exporter.Export(c.Request.Context(), ref, service.ExportFormat(format))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

// Summary godoc
// @Summary Count instructional days and sessions over the term
// @Tags Planner
// @Produce json
// @Param planId path string true "Term plan ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/students/{studentId}/summary [get]
func (h *PlannerHandler) Summary(c *gin.Context) {
	ref, ok := planRef(c)
	if !ok {
		return
	}
	summary, err := h.exporter.Summary(c.Request.Context(), ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

func (h *PlannerHandler) bind(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	if err := h.validator.Struct(dest); err != nil {
		response.Error(c, appErrors.FromValidation(err, "invalid payload"))
		return false
	}
	return true
}

// respond writes the plan returned by a planner call.
func (h *PlannerHandler) respond(c *gin.Context) func(*models.StudentPlan, error) {
	return func(plan *models.StudentPlan, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, plan, nil)
	}
}

func planRef(c *gin.Context) (service.PlanRef, bool) {
	owner, ok := requireOwner(c)
	if !ok {
		return service.PlanRef{}, false
	}
	return service.PlanRef{OwnerID: owner, PlanID: c.Param("planId"), StudentID: c.Param("studentId")}, true
}

func planRefAndDay(c *gin.Context) (service.PlanRef, models.Weekday, bool) {
	ref, ok := planRef(c)
	if !ok {
		return ref, "", false
	}
	day, ok := models.ParseWeekday(c.Param("day"))
	if !ok {
		response.Error(c, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", c.Param("day"))), map[string]string{"day": c.Param("day")}))
		return ref, "", false
	}
	return ref, day, true
}
