package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/homeschool-planner-api/internal/middleware"
	"github.com/noah-isme/homeschool-planner-api/internal/models"
	"github.com/noah-isme/homeschool-planner-api/internal/planner"
	"github.com/noah-isme/homeschool-planner-api/internal/service"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
)

// plannerServiceMock records the last call and returns a fixed plan.
type plannerServiceMock struct {
	calls    []string
	lastRef  service.PlanRef
	lastDay  models.Weekday
	lastArgs []interface{}
	err      error
}

func (m *plannerServiceMock) record(name string, ref service.PlanRef, day models.Weekday, args ...interface{}) (*models.StudentPlan, error) {
	m.calls = append(m.calls, name)
	m.lastRef = ref
	m.lastDay = day
	m.lastArgs = args
	if m.err != nil {
		return nil, m.err
	}
	plan := planner.NewStudentPlan(ref.PlanID, ref.StudentID, planner.DefaultCatalog())
	return &plan, nil
}

func (m *plannerServiceMock) Catalog() planner.Catalog { return planner.DefaultCatalog() }

func (m *plannerServiceMock) GetPlan(ctx context.Context, ref service.PlanRef) (*models.StudentPlan, error) {
	return m.record("GetPlan", ref, "")
}

func (m *plannerServiceMock) DaySlots(ctx context.Context, ref service.PlanRef, day models.Weekday) ([]models.TimeSlot, error) {
	m.record("DaySlots", ref, day)
	return []models.TimeSlot{{Index: 0, Time: "08:00-08:45", Start: "08:00", End: "08:45"}}, m.err
}

func (m *plannerServiceMock) ListPlans(ctx context.Context, ownerID, planID string) ([]models.StudentPlan, error) {
	m.record("ListPlans", service.PlanRef{OwnerID: ownerID, PlanID: planID}, "")
	return []models.StudentPlan{}, m.err
}

func (m *plannerServiceMock) ToggleDay(ctx context.Context, ref service.PlanRef, day models.Weekday) (*models.StudentPlan, error) {
	return m.record("ToggleDay", ref, day)
}

func (m *plannerServiceMock) SetDayField(ctx context.Context, ref service.PlanRef, day models.Weekday, field planner.DayField, value string) (*models.StudentPlan, error) {
	return m.record("SetDayField", ref, day, field, value)
}

func (m *plannerServiceMock) ToggleUseSameSchedule(ctx context.Context, ref service.PlanRef) (*models.StudentPlan, error) {
	return m.record("ToggleUseSameSchedule", ref, "")
}

func (m *plannerServiceMock) SetBlockField(ctx context.Context, ref service.PlanRef, day models.Weekday, slot string, field planner.BlockField, value string, applyToAllDays bool) (*models.StudentPlan, error) {
	return m.record("SetBlockField", ref, day, slot, field, value, applyToAllDays)
}

func (m *plannerServiceMock) SetPlatformURL(ctx context.Context, ref service.PlanRef, day models.Weekday, slot, url string) (*models.StudentPlan, error) {
	return m.record("SetPlatformURL", ref, day, slot, url)
}

func (m *plannerServiceMock) SetPlatformHelp(ctx context.Context, ref service.PlanRef, day models.Weekday, slot string, needHelp bool) (*models.StudentPlan, error) {
	return m.record("SetPlatformHelp", ref, day, slot, needHelp)
}

func (m *plannerServiceMock) AddBlock(ctx context.Context, ref service.PlanRef, day models.Weekday, applyToAllDays bool) (*models.StudentPlan, error) {
	return m.record("AddBlock", ref, day, applyToAllDays)
}

func (m *plannerServiceMock) RemoveBlock(ctx context.Context, ref service.PlanRef, day models.Weekday, applyToAllDays bool) (*models.StudentPlan, error) {
	return m.record("RemoveBlock", ref, day, applyToAllDays)
}

func (m *plannerServiceMock) CopyDay(ctx context.Context, ref service.PlanRef, from models.Weekday, to []models.Weekday) (*models.StudentPlan, error) {
	return m.record("CopyDay", ref, from, to)
}

func (m *plannerServiceMock) SetCurriculum(ctx context.Context, ref service.PlanRef, core, extended []string, courses map[string][]string, activities []string) (*models.StudentPlan, error) {
	return m.record("SetCurriculum", ref, "", core, extended, courses, activities)
}

func (m *plannerServiceMock) CopySchedule(ctx context.Context, ownerID, planID, sourceID string, targetIDs []string, scope planner.CopyScope) ([]models.StudentPlan, error) {
	m.record("CopySchedule", service.PlanRef{OwnerID: ownerID, PlanID: planID, StudentID: sourceID}, "", targetIDs, scope)
	return []models.StudentPlan{}, m.err
}

func (m *plannerServiceMock) PropagateBlockEdit(ctx context.Context, ownerID, planID, sourceID string, targetIDs []string, day models.Weekday, slot string, field planner.BlockField, value string) ([]models.StudentPlan, error) {
	m.record("PropagateBlockEdit", service.PlanRef{OwnerID: ownerID, PlanID: planID, StudentID: sourceID}, day, targetIDs, slot, field, value)
	return []models.StudentPlan{}, m.err
}

func (m *plannerServiceMock) Save(ctx context.Context, ref service.PlanRef) (*models.StudentPlan, error) {
	return m.record("Save", ref, "")
}

type exporterMock struct {
	format service.ExportFormat
	err    error
}

func (m *exporterMock) Export(ctx context.Context, ref service.PlanRef, format service.ExportFormat) (*service.ExportResult, error) {
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportResult{Filename: "ada-fall.ics", ContentType: "text/calendar; charset=utf-8", Body: []byte("BEGIN:VCALENDAR")}, nil
}

func (m *exporterMock) Summary(ctx context.Context, ref service.PlanRef) (*planner.TermSummary, error) {
	return &planner.TermSummary{PlanID: ref.PlanID, StudentID: ref.StudentID}, m.err
}

func jwtSubject(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{Subject: sub}
}

func newPlannerRouter(svc *plannerServiceMock, exporter *exporterMock, authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if authenticated {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserKey, &models.JWTClaims{RegisteredClaims: jwtSubject("parent-1")})
			c.Next()
		})
	}
	h := NewPlannerHandler(svc, exporter, nil)
	r.GET("/planner/calculate", h.Calculate)
	r.GET("/planner/catalog", h.Catalog)
	r.GET("/plans/:planId/students", h.ListStudentPlans)
	r.POST("/plans/:planId/blocks/propagate", h.PropagateBlock)
	student := r.Group("/plans/:planId/students/:studentId")
	student.PUT("/curriculum", h.SetCurriculum)
	student.POST("/copy", h.CopySchedule)
	student.GET("/summary", h.Summary)
	schedule := student.Group("/schedule")
	schedule.GET("", h.GetSchedule)
	schedule.POST("/save", h.Save)
	schedule.GET("/export", h.Export)
	schedule.POST("/same-schedule/toggle", h.ToggleSameSchedule)
	schedule.POST("/days/:day/toggle", h.ToggleDay)
	schedule.PATCH("/days/:day", h.SetDayField)
	schedule.GET("/days/:day/slots", h.DaySlots)
	schedule.PATCH("/days/:day/blocks", h.SetBlockField)
	schedule.POST("/days/:day/blocks", h.AddBlock)
	schedule.DELETE("/days/:day/blocks/last", h.RemoveBlock)
	schedule.PUT("/days/:day/blocks/platform", h.SetPlatformURL)
	schedule.PUT("/days/:day/blocks/platform-help", h.SetPlatformHelp)
	schedule.POST("/days/:day/copy", h.CopyDay)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const studentPath = "/plans/plan-1/students/ada"

func TestPlannerHandlerRequiresAuthentication(t *testing.T) {
	svc := &plannerServiceMock{}
	r := newPlannerRouter(svc, &exporterMock{}, false)

	w := doJSON(r, http.MethodGet, studentPath+"/schedule", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.calls)
}

func TestPlannerHandlerRoutesEdits(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		body   string
		call   string
		day    models.Weekday
	}{
		{name: "get", method: http.MethodGet, path: studentPath + "/schedule", call: "GetPlan"},
		{name: "toggle day", method: http.MethodPost, path: studentPath + "/schedule/days/mon/toggle", call: "ToggleDay", day: models.Monday},
		{name: "day field", method: http.MethodPatch, path: studentPath + "/schedule/days/Tuesday", body: `{"field":"startTime","value":"08:00"}`, call: "SetDayField", day: models.Tuesday},
		{name: "same schedule", method: http.MethodPost, path: studentPath + "/schedule/same-schedule/toggle", call: "ToggleUseSameSchedule"},
		{name: "block field", method: http.MethodPatch, path: studentPath + "/schedule/days/wed/blocks", body: `{"time":"08:00-08:45","field":"subject","value":"Math","applyToAllDays":true}`, call: "SetBlockField", day: models.Wednesday},
		{name: "platform url", method: http.MethodPut, path: studentPath + "/schedule/days/thu/blocks/platform", body: `{"time":"08:00-08:45","url":"https://example.com"}`, call: "SetPlatformURL", day: models.Thursday},
		{name: "platform help", method: http.MethodPut, path: studentPath + "/schedule/days/fri/blocks/platform-help", body: `{"time":"08:00-08:45","needHelp":false}`, call: "SetPlatformHelp", day: models.Friday},
		{name: "add block without body", method: http.MethodPost, path: studentPath + "/schedule/days/sat/blocks", call: "AddBlock", day: models.Saturday},
		{name: "remove block", method: http.MethodDelete, path: studentPath + "/schedule/days/sun/blocks/last?applyToAllDays=true", call: "RemoveBlock", day: models.Sunday},
		{name: "copy day", method: http.MethodPost, path: studentPath + "/schedule/days/mon/copy", body: `{"toDays":["tue","Wednesday"]}`, call: "CopyDay", day: models.Monday},
		{name: "curriculum", method: http.MethodPut, path: studentPath + "/curriculum", body: `{"coreSubjects":["Math"],"activities":["Choir"]}`, call: "SetCurriculum"},
		{name: "save", method: http.MethodPost, path: studentPath + "/schedule/save", call: "Save"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &plannerServiceMock{}
			r := newPlannerRouter(svc, &exporterMock{}, true)

			w := doJSON(r, tc.method, tc.path, tc.body)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			require.Equal(t, []string{tc.call}, svc.calls)
			assert.Equal(t, service.PlanRef{OwnerID: "parent-1", PlanID: "plan-1", StudentID: "ada"}, svc.lastRef)
			assert.Equal(t, tc.day, svc.lastDay)

			var body struct {
				Data models.StudentPlan `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "ada", body.Data.StudentID)
		})
	}
}

func TestPlannerHandlerPassesArguments(t *testing.T) {
	svc := &plannerServiceMock{}
	r := newPlannerRouter(svc, &exporterMock{}, true)

	w := doJSON(r, http.MethodPatch, studentPath+"/schedule/days/wed/blocks", `{"time":"08:00-08:45","field":"subject","value":"Math","applyToAllDays":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"08:00-08:45", planner.FieldSubject, "Math", true}, svc.lastArgs)

	w = doJSON(r, http.MethodPost, studentPath+"/schedule/days/mon/copy", `{"toDays":["tue","Wednesday"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{[]models.Weekday{models.Tuesday, models.Wednesday}}, svc.lastArgs)
}

func TestPlannerHandlerClearsDayTime(t *testing.T) {
	svc := &plannerServiceMock{}
	r := newPlannerRouter(svc, &exporterMock{}, true)

	w := doJSON(r, http.MethodPatch, studentPath+"/schedule/days/mon", `{"field":"endTime","value":""}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, []string{"SetDayField"}, svc.calls)
	assert.Equal(t, []interface{}{planner.FieldEndTime, ""}, svc.lastArgs)
}

func TestPlannerHandlerRejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "unknown day", method: http.MethodPost, path: studentPath + "/schedule/days/funday/toggle"},
		{name: "unknown day field", method: http.MethodPatch, path: studentPath + "/schedule/days/mon", body: `{"field":"color","value":"red"}`},
		{name: "empty block length", method: http.MethodPatch, path: studentPath + "/schedule/days/mon", body: `{"field":"blockLength","value":""}`},
		{name: "malformed json", method: http.MethodPatch, path: studentPath + "/schedule/days/mon", body: `{"field":`},
		{name: "missing help flag", method: http.MethodPut, path: studentPath + "/schedule/days/mon/blocks/platform-help", body: `{"time":"08:00-08:45"}`},
		{name: "bad platform url", method: http.MethodPut, path: studentPath + "/schedule/days/mon/blocks/platform", body: `{"time":"08:00-08:45","url":"not a url"}`},
		{name: "bad apply flag", method: http.MethodDelete, path: studentPath + "/schedule/days/mon/blocks/last?applyToAllDays=maybe"},
		{name: "unknown copy target", method: http.MethodPost, path: studentPath + "/schedule/days/mon/copy", body: `{"toDays":["someday"]}`},
		{name: "unknown scope", method: http.MethodPost, path: studentPath + "/copy", body: `{"targetStudentIds":["bea"],"scope":"everything"}`},
		{name: "propagate without targets", method: http.MethodPost, path: "/plans/plan-1/blocks/propagate", body: `{"sourceStudentId":"ada","day":"mon","time":"08:00-08:45","field":"subject"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &plannerServiceMock{}
			r := newPlannerRouter(svc, &exporterMock{}, true)

			w := doJSON(r, tc.method, tc.path, tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Empty(t, svc.calls)
		})
	}
}

func TestPlannerHandlerMapsServiceErrors(t *testing.T) {
	svc := &plannerServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "block already has a platform link")}
	r := newPlannerRouter(svc, &exporterMock{}, true)

	w := doJSON(r, http.MethodPut, studentPath+"/schedule/days/mon/blocks/platform-help", `{"time":"08:00-08:45","needHelp":true}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
}

func TestPlannerHandlerCrossStudentOperations(t *testing.T) {
	svc := &plannerServiceMock{}
	r := newPlannerRouter(svc, &exporterMock{}, true)

	w := doJSON(r, http.MethodPost, studentPath+"/copy", `{"targetStudentIds":["bea","cy"],"scope":"subjects"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{[]string{"bea", "cy"}, planner.ScopeSubjects}, svc.lastArgs)

	w = doJSON(r, http.MethodPost, "/plans/plan-1/blocks/propagate", `{"sourceStudentId":"ada","targetStudentIds":["bea"],"day":"mon","time":"08:00-08:45","field":"course","value":"Algebra"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.Monday, svc.lastDay)
	assert.Equal(t, "ada", svc.lastRef.StudentID)
	assert.Equal(t, []interface{}{[]string{"bea"}, "08:00-08:45", planner.FieldCourse, "Algebra"}, svc.lastArgs)

	w = doJSON(r, http.MethodGet, "/plans/plan-1/students", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"planId":"plan-1"`)
}

func TestPlannerHandlerExport(t *testing.T) {
	exporter := &exporterMock{}
	r := newPlannerRouter(&plannerServiceMock{}, exporter, true)

	w := doJSON(r, http.MethodGet, studentPath+"/schedule/export?format=ICS", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.FormatICS, exporter.format)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="ada-fall.ics"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "BEGIN:VCALENDAR", w.Body.String())

	exporter.err = appErrors.ErrUnsupportedFormat
	w = doJSON(r, http.MethodGet, studentPath+"/schedule/export?format=docx", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlannerHandlerCalculate(t *testing.T) {
	r := newPlannerRouter(&plannerServiceMock{}, &exporterMock{}, false)

	w := doJSON(r, http.MethodGet, "/planner/calculate?start=08:00&end=15:00&blockLength=45", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			BlockCount int               `json:"blockCount"`
			Slots      []models.TimeSlot `json:"slots"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 9, body.Data.BlockCount)
	require.Len(t, body.Data.Slots, 9)
	assert.Equal(t, "14:00-14:45", body.Data.Slots[8].Time)

	w = doJSON(r, http.MethodGet, "/planner/calculate?start=08:00&end=15:00&blockLength=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlannerHandlerSummaryAndSlots(t *testing.T) {
	svc := &plannerServiceMock{}
	r := newPlannerRouter(svc, &exporterMock{}, true)

	w := doJSON(r, http.MethodGet, studentPath+"/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"studentId":"ada"`)

	w = doJSON(r, http.MethodGet, studentPath+"/schedule/days/monday/slots", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "08:00-08:45")
}
