package dto

import "github.com/noah-isme/homeschool-planner-api/internal/models"

// DayFieldRequest edits one setting of a day. An empty start or end time clears it.
type DayFieldRequest struct {
	Field string `json:"field" validate:"required,oneof=startTime endTime blockLength"`
	Value string `json:"value" validate:"required_if=Field blockLength"`
}

// BlockFieldRequest edits the subject, course or type of the block at Time.
type BlockFieldRequest struct {
	Time           string `json:"time" validate:"required"`
	Field          string `json:"field" validate:"required,oneof=subject course type"`
	Value          string `json:"value"`
	ApplyToAllDays bool   `json:"applyToAllDays"`
}

// PlatformURLRequest sets the resource link of a block. An empty URL clears it.
type PlatformURLRequest struct {
	Time string `json:"time" validate:"required"`
	URL  string `json:"url" validate:"omitempty,url"`
}

// PlatformHelpRequest records whether help finding a resource is wanted.
type PlatformHelpRequest struct {
	Time     string `json:"time" validate:"required"`
	NeedHelp *bool  `json:"needHelp" validate:"required"`
}

// AddBlockRequest appends a block to a day.
type AddBlockRequest struct {
	ApplyToAllDays bool `json:"applyToAllDays"`
}

// CopyDayRequest copies a day onto other days of the same student.
type CopyDayRequest struct {
	ToDays []string `json:"toDays" validate:"required,min=1,max=7,dive,required"`
}

// CurriculumRequest replaces the subject and activity lists of a student plan.
type CurriculumRequest struct {
	CoreSubjects     []string            `json:"coreSubjects" validate:"omitempty,max=64,dive,max=120"`
	ExtendedSubjects []string            `json:"extendedSubjects" validate:"omitempty,max=64,dive,max=120"`
	SubjectCourses   map[string][]string `json:"subjectCourses" validate:"omitempty,max=128"`
	Activities       []string            `json:"activities" validate:"omitempty,max=64,dive,max=120"`
}

// CopyScheduleRequest copies one student's plan onto others.
type CopyScheduleRequest struct {
	TargetStudentIDs []string `json:"targetStudentIds" validate:"required,min=1,max=32,dive,required"`
	Scope            string   `json:"scope" validate:"required,oneof=schedule activities subjects blockAssignments all"`
}

// PropagateBlockRequest mirrors a block edit from one student onto others.
type PropagateBlockRequest struct {
	SourceStudentID  string   `json:"sourceStudentId" validate:"required"`
	TargetStudentIDs []string `json:"targetStudentIds" validate:"required,min=1,max=32,dive,required"`
	Day              string   `json:"day" validate:"required"`
	Time             string   `json:"time" validate:"required"`
	Field            string   `json:"field" validate:"required,oneof=subject course type"`
	Value            string   `json:"value"`
}

// CalculateResponse is the result of a block calculation preview.
type CalculateResponse struct {
	BlockCount int               `json:"blockCount"`
	Slots      []models.TimeSlot `json:"slots"`
}

// StudentPlanList wraps the student plans of a term plan.
type StudentPlanList struct {
	PlanID   string               `json:"planId"`
	Students []models.StudentPlan `json:"students"`
}
