package planner

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
)

// ErrInvalidTerm is returned when a term ends before it starts.
var ErrInvalidTerm = errors.New("planner: term end is before term start")

var rruleWeekdays = map[models.Weekday]rrule.Weekday{
	models.Monday:    rrule.MO,
	models.Tuesday:   rrule.TU,
	models.Wednesday: rrule.WE,
	models.Thursday:  rrule.TH,
	models.Friday:    rrule.FR,
	models.Saturday:  rrule.SA,
	models.Sunday:    rrule.SU,
}

// WeeklyRule returns the recurrence of day between the term dates, each occurrence
// starting startMinute minutes after midnight in the location of termStart.
func WeeklyRule(day models.Weekday, termStart, termEnd time.Time, startMinute int) (*rrule.RRule, error) {
	wd, ok := rruleWeekdays[day]
	if !ok {
		return nil, ErrInvalidDay
	}
	first, last := termBounds(termStart, termEnd)
	if last.Before(first) {
		return nil, ErrInvalidTerm
	}
	startMinute = ((startMinute % minutesPerDay) + minutesPerDay) % minutesPerDay
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   first.Add(time.Duration(startMinute) * time.Minute),
		Until:     last.Add(24*time.Hour - time.Second),
		Byweekday: []rrule.Weekday{wd},
	})
}

func termBounds(termStart, termEnd time.Time) (time.Time, time.Time) {
	loc := termStart.Location()
	first := time.Date(termStart.Year(), termStart.Month(), termStart.Day(), 0, 0, 0, 0, loc)
	end := termEnd.In(loc)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	return first, last
}

// SubjectLoad is how often one subject or activity meets during the term.
type SubjectLoad struct {
	Subject       string           `json:"subject"`
	Type          models.BlockType `json:"type"`
	BlocksPerWeek int              `json:"blocksPerWeek"`
	Sessions      int              `json:"sessions"`
	Minutes       int              `json:"minutes"`
}

// TermSummary counts the instructional days and sessions a student plan yields over a term.
type TermSummary struct {
	PlanID            string                 `json:"planId"`
	StudentID         string                 `json:"studentId"`
	TermStart         string                 `json:"termStart"`
	TermEnd           string                 `json:"termEnd"`
	InstructionalDays map[models.Weekday]int `json:"instructionalDays"`
	TotalDays         int                    `json:"totalDays"`
	BlocksPerWeek     int                    `json:"blocksPerWeek"`
	Subjects          []SubjectLoad          `json:"subjects"`
}

// Summarize expands the selected days of the plan over the term and tallies the
// assigned blocks that fall on a slot of their day. Unassigned slots are not counted
// as sessions.
func Summarize(plan models.StudentPlan, termStart, termEnd time.Time) (TermSummary, error) {
	summary := TermSummary{
		PlanID:            plan.PlanID,
		StudentID:         plan.StudentID,
		TermStart:         termStart.Format("2006-01-02"),
		TermEnd:           termEnd.Format("2006-01-02"),
		InstructionalDays: make(map[models.Weekday]int),
		Subjects:          []SubjectLoad{},
	}
	loads := make(map[string]*SubjectLoad)

	for _, day := range plan.Schedule.SelectedDays() {
		rule, err := WeeklyRule(day, termStart, termEnd, 0)
		if err != nil {
			return TermSummary{}, err
		}
		occurrences := len(rule.All())
		summary.InstructionalDays[day] = occurrences
		summary.TotalDays += occurrences

		d := plan.Schedule.Days[day]
		slots := make(map[string]struct{})
		for _, slot := range ComputeTimeSlots(d) {
			slots[slot.Time] = struct{}{}
		}
		summary.BlocksPerWeek += len(slots)
		for _, block := range plan.BlockAssignments[day] {
			if block.Subject == "" {
				continue
			}
			if _, ok := slots[block.Time]; !ok {
				continue
			}
			load, ok := loads[block.Subject]
			if !ok {
				load = &SubjectLoad{Subject: block.Subject, Type: block.Type}
				loads[block.Subject] = load
			}
			load.BlocksPerWeek++
			load.Sessions += occurrences
			load.Minutes += occurrences * d.BlockLength
		}
	}

	for _, load := range loads {
		summary.Subjects = append(summary.Subjects, *load)
	}
	sort.Slice(summary.Subjects, func(i, j int) bool {
		if summary.Subjects[i].Sessions != summary.Subjects[j].Sessions {
			return summary.Subjects[i].Sessions > summary.Subjects[j].Sessions
		}
		return summary.Subjects[i].Subject < summary.Subjects[j].Subject
	})
	return summary, nil
}
