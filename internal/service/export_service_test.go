package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
	"github.com/noah-isme/homeschool-planner-api/internal/planner"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
	"github.com/noah-isme/homeschool-planner-api/pkg/export"
)

type captureTable struct {
	table export.Table
	out   []byte
	err   error
}

func (c *captureTable) Render(table export.Table) ([]byte, error) {
	c.table = table
	return c.out, c.err
}

type captureCalendar struct {
	calendar export.Calendar
}

func (c *captureCalendar) Render(calendar export.Calendar) ([]byte, error) {
	c.calendar = calendar
	return []byte("BEGIN:VCALENDAR"), nil
}

type exportFixture struct {
	planner *plannerFixture
	svc     *ExportService
	csv     *captureTable
	ics     *captureCalendar
}

func newExportFixture(t *testing.T, loc *time.Location) *exportFixture {
	t.Helper()
	pf := newPlannerFixture(t)
	f := &exportFixture{
		planner: pf,
		csv:     &captureTable{out: []byte("Day,Time\n")},
		ics:     &captureCalendar{},
	}
	f.svc = NewExportService(pf.svc, pf.svc.terms, pf.svc.students, f.csv, &captureTable{}, &captureTable{}, f.ics, nil, ExportConfig{Location: loc})
	return f
}

func (f *exportFixture) assignMath(t *testing.T) {
	t.Helper()
	f.planner.configureMonday(t, "ada")
	_, err := f.planner.svc.SetBlockField(context.Background(), ref("ada"), models.Monday, "08:45-09:30", planner.FieldSubject, "Math", false)
	require.NoError(t, err)
	_, err = f.planner.svc.SetPlatformHelp(context.Background(), ref("ada"), models.Monday, "08:45-09:30", true)
	require.NoError(t, err)
}

func TestExportServiceCSV(t *testing.T) {
	f := newExportFixture(t, nil)
	f.assignMath(t)

	result, err := f.svc.Export(context.Background(), ref("ada"), FormatCSV)

	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "ada-lovelace-fall-2026.csv", result.Filename)
	assert.Equal(t, []byte("Day,Time\n"), result.Body)

	table := f.csv.table
	assert.Equal(t, "Ada Lovelace: Fall 2026", table.Title)
	assert.Equal(t, scheduleHeaders, table.Headers)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, []string{"Monday", "08:00-08:45", "", "", "", "", ""}, table.Rows[0])
	assert.Equal(t, []string{"Monday", "08:45-09:30", "Math", "", "subject", "", "true"}, table.Rows[1])
}

func TestExportServiceICS(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	f := newExportFixture(t, loc)
	f.assignMath(t)

	result, err := f.svc.Export(context.Background(), ref("ada"), FormatICS)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.ContentType, "text/calendar"))
	assert.Equal(t, "Ada Lovelace: Fall 2026", f.ics.calendar.Name)
	require.Len(t, f.ics.calendar.Events, 1)

	event := f.ics.calendar.Events[0]
	assert.Equal(t, "plan-1-ada-monday-1@homeschool-planner", event.UID)
	assert.Equal(t, "Math", event.Summary)
	assert.Equal(t, 45*time.Minute, event.Duration)
	// Sep 1 2026 is a Tuesday, so the first Monday is Sep 7.
	assert.True(t, event.Start.Equal(time.Date(2026, 9, 7, 8, 45, 0, 0, loc)), "start %s", event.Start)
	assert.Contains(t, event.RRule, "FREQ=WEEKLY")
	assert.Contains(t, event.RRule, "BYDAY=MO")
	assert.NotContains(t, event.RRule, "DTSTART")
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	f := newExportFixture(t, nil)

	_, err := f.svc.Export(context.Background(), ref("ada"), ExportFormat("docx"))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedFormat.Code, appErrors.FromError(err).Code)
}

func TestExportServiceRenderFailure(t *testing.T) {
	f := newExportFixture(t, nil)
	f.csv.err = assert.AnError

	_, err := f.svc.Export(context.Background(), ref("ada"), FormatCSV)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestExportServiceForbidden(t *testing.T) {
	f := newExportFixture(t, nil)

	_, err := f.svc.Export(context.Background(), PlanRef{OwnerID: "parent-2", PlanID: testPlan, StudentID: "ada"}, FormatCSV)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceSummary(t *testing.T) {
	f := newExportFixture(t, nil)
	f.assignMath(t)

	summary, err := f.svc.Summary(context.Background(), ref("ada"))

	require.NoError(t, err)
	assert.Equal(t, "2026-09-01", summary.TermStart)
	assert.Equal(t, "2026-09-30", summary.TermEnd)
	assert.Equal(t, 4, summary.InstructionalDays[models.Monday])
	require.Len(t, summary.Subjects, 1)
	assert.Equal(t, "Math", summary.Subjects[0].Subject)
	assert.Equal(t, 4, summary.Subjects[0].Sessions)
	assert.Equal(t, 180, summary.Subjects[0].Minutes)
}
