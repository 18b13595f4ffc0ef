package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
	"github.com/noah-isme/homeschool-planner-api/internal/planner"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
	"github.com/noah-isme/homeschool-planner-api/pkg/export"
)

// ExportFormat names a schedule export format.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatPDF  ExportFormat = "pdf"
	FormatXLSX ExportFormat = "xlsx"
	FormatICS  ExportFormat = "ics"
)

var contentTypes = map[ExportFormat]string{
	FormatCSV:  "text/csv",
	FormatPDF:  "application/pdf",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatICS:  "text/calendar; charset=utf-8",
}

var scheduleHeaders = []string{"Day", "Time", "Subject", "Course", "Type", "Platform", "Needs Help"}

type planReader interface {
	GetPlan(ctx context.Context, ref PlanRef) (*models.StudentPlan, error)
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type calendarRenderer interface {
	Render(calendar export.Calendar) ([]byte, error)
}

// ExportResult is a rendered schedule file.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportConfig tunes export rendering.
type ExportConfig struct {
	Location *time.Location
}

// ExportService renders student schedules and term summaries.
type ExportService struct {
	plans    planReader
	terms    termPlanReader
	students studentReader
	csv      tableRenderer
	pdf      tableRenderer
	xlsx     tableRenderer
	ics      calendarRenderer
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService wires the export renderers.
func NewExportService(plans planReader, terms termPlanReader, students studentReader, csv, pdf, xlsx tableRenderer, ics calendarRenderer, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ExportService{
		plans:    plans,
		terms:    terms,
		students: students,
		csv:      csv,
		pdf:      pdf,
		xlsx:     xlsx,
		ics:      ics,
		logger:   logger,
		cfg:      cfg,
	}
}

// Export renders the working copy of a student plan in the requested format.
func (s *ExportService) Export(ctx context.Context, ref PlanRef, format ExportFormat) (*ExportResult, error) {
	contentType, ok := contentTypes[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}
	plan, term, student, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s: %s", student.FullName(), term.Name)
	var body []byte
	switch format {
	case FormatCSV:
		body, err = s.csv.Render(scheduleTable(title, *plan))
	case FormatPDF:
		body, err = s.pdf.Render(scheduleTable(title, *plan))
	case FormatXLSX:
		body, err = s.xlsx.Render(scheduleTable(title, *plan))
	case FormatICS:
		var calendar export.Calendar
		calendar, err = s.calendar(title, *plan, term)
		if err == nil {
			body, err = s.ics.Render(calendar)
		}
	}
	if err != nil {
		s.logger.Error("schedule export failed", zap.String("format", string(format)), zap.String("plan_id", ref.PlanID), zap.String("student_id", ref.StudentID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule")
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("%s-%s.%s", slug(student.FullName()), slug(term.Name), format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

// Summary counts the instructional days and sessions of a student plan over its term.
func (s *ExportService) Summary(ctx context.Context, ref PlanRef) (*planner.TermSummary, error) {
	plan, term, _, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	start, end := s.termDates(term)
	summary, err := planner.Summarize(*plan, start, end)
	if err != nil {
		return nil, plannerError(err)
	}
	return &summary, nil
}

func (s *ExportService) load(ctx context.Context, ref PlanRef) (*models.StudentPlan, *models.TermPlan, *models.Student, error) {
	plan, err := s.plans.GetPlan(ctx, ref)
	if err != nil {
		return nil, nil, nil, err
	}
	term, err := s.terms.FindByID(ctx, ref.PlanID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term plan")
	}
	student, err := s.students.FindByID(ctx, ref.StudentID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return plan, term, student, nil
}

// termDates pins the stored term dates to midnight in the configured location.
func (s *ExportService) termDates(term *models.TermPlan) (time.Time, time.Time) {
	loc := s.cfg.Location
	start := time.Date(term.StartDate.Year(), term.StartDate.Month(), term.StartDate.Day(), 0, 0, 0, 0, loc)
	end := time.Date(term.EndDate.Year(), term.EndDate.Month(), term.EndDate.Day(), 0, 0, 0, 0, loc)
	return start, end
}

// calendar turns every assigned slot of the selected days into a weekly recurring event
// bounded by the term.
func (s *ExportService) calendar(title string, plan models.StudentPlan, term *models.TermPlan) (export.Calendar, error) {
	start, end := s.termDates(term)
	calendar := export.Calendar{Name: title}
	for _, day := range plan.Schedule.SelectedDays() {
		d := plan.Schedule.Days[day]
		for _, slot := range planner.ComputeTimeSlots(d) {
			block, ok := blockAt(plan, day, slot.Time)
			if !ok || block.Subject == "" {
				continue
			}
			minute, _ := planner.ParseClock(slot.Start)
			rule, err := planner.WeeklyRule(day, start, end, minute)
			if err != nil {
				return export.Calendar{}, err
			}
			first := rule.After(rule.OrigOptions.Dtstart, true)
			if first.IsZero() {
				continue
			}
			calendar.Events = append(calendar.Events, export.CalendarEvent{
				UID:         fmt.Sprintf("%s-%s-%s-%d@homeschool-planner", plan.PlanID, plan.StudentID, strings.ToLower(string(day)), slot.Index),
				Summary:     blockLabel(block),
				Description: string(block.Type),
				URL:         block.PlatformURL,
				Start:       first,
				Duration:    time.Duration(d.BlockLength) * time.Minute,
				RRule:       rule.OrigOptions.RRuleString(),
			})
		}
	}
	return calendar, nil
}

// scheduleTable lists every slot of the selected days, assigned or not.
func scheduleTable(title string, plan models.StudentPlan) export.Table {
	table := export.Table{Title: title, Headers: scheduleHeaders}
	for _, day := range plan.Schedule.SelectedDays() {
		for _, slot := range planner.ComputeTimeSlots(plan.Schedule.Days[day]) {
			row := []string{string(day), slot.Time, "", "", "", "", ""}
			if block, ok := blockAt(plan, day, slot.Time); ok {
				row[2] = block.Subject
				row[3] = block.Course
				row[4] = string(block.Type)
				row[5] = block.PlatformURL
				if block.NeedPlatformHelp != nil {
					row[6] = strconv.FormatBool(*block.NeedPlatformHelp)
				}
			}
			table.Rows = append(table.Rows, row)
		}
	}
	return table
}

func blockAt(plan models.StudentPlan, day models.Weekday, slot string) (models.Block, bool) {
	for _, block := range plan.BlockAssignments[day] {
		if block.Time == slot {
			return block, true
		}
	}
	return models.Block{}, false
}

func blockLabel(block models.Block) string {
	if block.Course != "" {
		return block.Subject + ": " + block.Course
	}
	return block.Subject
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(value string) string {
	out := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(value), "-"), "-")
	if out == "" {
		return "schedule"
	}
	return out
}
