package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// StudentPlan is the per-student schedule bundle edited in the term plan builder.
type StudentPlan struct {
	PlanID           string              `json:"planId"`
	StudentID        string              `json:"studentId"`
	Schedule         WeekSchedule        `json:"schedule"`
	CoreSubjects     []string            `json:"coreSubjects"`
	ExtendedSubjects []string            `json:"extendedSubjects"`
	SubjectCourses   map[string][]string `json:"subjectCourses"`
	Activities       []string            `json:"activities"`
	BlockAssignments map[Weekday][]Block `json:"blockAssignments"`
	Version          int                 `json:"version"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// StudentPlanRecord is the persisted row for a StudentPlan.
type StudentPlanRecord struct {
	ID               string         `db:"id" json:"id"`
	PlanID           string         `db:"plan_id" json:"plan_id"`
	StudentID        string         `db:"student_id" json:"student_id"`
	Schedule         types.JSONText `db:"schedule" json:"schedule"`
	Subjects         types.JSONText `db:"subjects" json:"subjects"`
	Activities       types.JSONText `db:"activities" json:"activities"`
	BlockAssignments types.JSONText `db:"block_assignments" json:"block_assignments"`
	Version          int            `db:"version" json:"version"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

type subjectsColumn struct {
	Core     []string            `json:"core"`
	Extended []string            `json:"extended"`
	Courses  map[string][]string `json:"courses"`
}

// EncodeStudentPlan converts a plan into its persisted representation.
func EncodeStudentPlan(plan StudentPlan) (*StudentPlanRecord, error) {
	schedule, err := json.Marshal(plan.Schedule)
	if err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}
	subjects, err := json.Marshal(subjectsColumn{Core: plan.CoreSubjects, Extended: plan.ExtendedSubjects, Courses: plan.SubjectCourses})
	if err != nil {
		return nil, fmt.Errorf("encode subjects: %w", err)
	}
	activities, err := json.Marshal(plan.Activities)
	if err != nil {
		return nil, fmt.Errorf("encode activities: %w", err)
	}
	assignments, err := json.Marshal(plan.BlockAssignments)
	if err != nil {
		return nil, fmt.Errorf("encode block assignments: %w", err)
	}
	return &StudentPlanRecord{
		PlanID:           plan.PlanID,
		StudentID:        plan.StudentID,
		Schedule:         types.JSONText(schedule),
		Subjects:         types.JSONText(subjects),
		Activities:       types.JSONText(activities),
		BlockAssignments: types.JSONText(assignments),
		Version:          plan.Version,
		UpdatedAt:        plan.UpdatedAt,
	}, nil
}

// Decode rebuilds the StudentPlan stored in the record.
func (r *StudentPlanRecord) Decode() (StudentPlan, error) {
	plan := StudentPlan{
		PlanID:    r.PlanID,
		StudentID: r.StudentID,
		Version:   r.Version,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Schedule) > 0 {
		if err := json.Unmarshal(r.Schedule, &plan.Schedule); err != nil {
			return StudentPlan{}, fmt.Errorf("decode schedule: %w", err)
		}
	}
	if len(r.Subjects) > 0 {
		var subjects subjectsColumn
		if err := json.Unmarshal(r.Subjects, &subjects); err != nil {
			return StudentPlan{}, fmt.Errorf("decode subjects: %w", err)
		}
		plan.CoreSubjects = subjects.Core
		plan.ExtendedSubjects = subjects.Extended
		plan.SubjectCourses = subjects.Courses
	}
	if len(r.Activities) > 0 {
		if err := json.Unmarshal(r.Activities, &plan.Activities); err != nil {
			return StudentPlan{}, fmt.Errorf("decode activities: %w", err)
		}
	}
	if len(r.BlockAssignments) > 0 {
		if err := json.Unmarshal(r.BlockAssignments, &plan.BlockAssignments); err != nil {
			return StudentPlan{}, fmt.Errorf("decode block assignments: %w", err)
		}
	}
	if plan.Schedule.Days == nil {
		plan.Schedule = NewWeekSchedule(0)
	}
	for _, day := range Weekdays {
		if _, ok := plan.Schedule.Days[day]; !ok {
			plan.Schedule.Days[day] = DaySchedule{Blocks: DerivedBlocks(0)}
		}
	}
	if plan.BlockAssignments == nil {
		plan.BlockAssignments = make(map[Weekday][]Block)
	}
	return plan, nil
}
