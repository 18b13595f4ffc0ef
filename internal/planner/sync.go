package planner

import (
	"errors"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
)

// ErrInvalidScope is returned for an unknown copy scope.
var ErrInvalidScope = errors.New("planner: unknown copy scope")

// CopyScope selects which part of a student plan is copied.
type CopyScope string

const (
	ScopeSchedule         CopyScope = "schedule"
	ScopeActivities       CopyScope = "activities"
	ScopeSubjects         CopyScope = "subjects"
	ScopeBlockAssignments CopyScope = "blockAssignments"
	ScopeAll              CopyScope = "all"
)

// Valid reports whether the scope is known.
func (s CopyScope) Valid() bool {
	switch s {
	case ScopeSchedule, ScopeActivities, ScopeSubjects, ScopeBlockAssignments, ScopeAll:
		return true
	}
	return false
}

// CopySchedule overwrites the scoped part of target with a deep copy of source.
// Nothing is merged. Copying a student onto itself returns target unchanged.
func CopySchedule(source, target models.StudentPlan, scope CopyScope) (models.StudentPlan, error) {
	if !scope.Valid() {
		return target, ErrInvalidScope
	}
	if source.StudentID == target.StudentID {
		return target, nil
	}

	src := ClonePlan(source)
	next := ClonePlan(target)
	if scope == ScopeSchedule || scope == ScopeAll {
		next.Schedule = src.Schedule
	}
	if scope == ScopeActivities || scope == ScopeAll {
		next.Activities = src.Activities
	}
	if scope == ScopeSubjects || scope == ScopeAll {
		next.CoreSubjects = src.CoreSubjects
		next.ExtendedSubjects = src.ExtendedSubjects
		next.SubjectCourses = src.SubjectCourses
	}
	if scope == ScopeBlockAssignments || scope == ScopeAll {
		next.BlockAssignments = src.BlockAssignments
	}
	return next, nil
}

// PropagateBlockEdit applies one block edit made on source to the same day of every
// target, at the slot with the same position. Targets without a slot at that position,
// and the source itself, are returned unchanged.
func PropagateBlockEdit(source models.StudentPlan, targets []models.StudentPlan, day models.Weekday, slotKey string, field BlockField, value string) ([]models.StudentPlan, error) {
	if day.Index() < 0 {
		return targets, ErrInvalidDay
	}
	key, err := canonicalSlot(slotKey)
	if err != nil {
		return targets, err
	}
	if err := validateBlockField(field, value); err != nil {
		return targets, err
	}

	out := make([]models.StudentPlan, len(targets))
	index := SlotIndex(source, day, key)
	for i, target := range targets {
		out[i] = target
		if index < 0 || target.StudentID == source.StudentID {
			continue
		}
		targetKey, ok := SlotKeyAt(target, day, index)
		if !ok {
			continue
		}
		next, err := SetBlockField(target, day, targetKey, field, value, ApplyOptions{})
		if err != nil {
			continue
		}
		out[i] = next
	}
	return out, nil
}
