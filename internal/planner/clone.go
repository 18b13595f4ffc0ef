package planner

import "github.com/noah-isme/homeschool-planner-api/internal/models"

// ClonePlan returns a deep copy of the plan that shares no maps, slices or pointers
// with the original. The copy always carries all seven days and a non-nil assignment map.
func ClonePlan(plan models.StudentPlan) models.StudentPlan {
	out := plan
	out.Schedule = cloneWeek(plan.Schedule)
	out.CoreSubjects = cloneStrings(plan.CoreSubjects)
	out.ExtendedSubjects = cloneStrings(plan.ExtendedSubjects)
	out.Activities = cloneStrings(plan.Activities)
	out.SubjectCourses = cloneCourses(plan.SubjectCourses)
	out.BlockAssignments = cloneAssignments(plan.BlockAssignments)
	return out
}

func cloneWeek(week models.WeekSchedule) models.WeekSchedule {
	out := models.WeekSchedule{
		UseSameSchedule: week.UseSameSchedule,
		Days:            make(map[models.Weekday]models.DaySchedule, len(models.Weekdays)),
	}
	for _, day := range models.Weekdays {
		d, ok := week.Days[day]
		if !ok {
			d = models.DaySchedule{Blocks: models.DerivedBlocks(0)}
		}
		out.Days[day] = d
	}
	return out
}

func cloneAssignments(in map[models.Weekday][]models.Block) map[models.Weekday][]models.Block {
	out := make(map[models.Weekday][]models.Block, len(in))
	for day, blocks := range in {
		out[day] = cloneBlocks(blocks)
	}
	return out
}

func cloneBlocks(in []models.Block) []models.Block {
	if in == nil {
		return nil
	}
	out := make([]models.Block, len(in))
	for i, b := range in {
		out[i] = cloneBlock(b)
	}
	return out
}

func cloneBlock(b models.Block) models.Block {
	if b.NeedPlatformHelp != nil {
		help := *b.NeedPlatformHelp
		b.NeedPlatformHelp = &help
	}
	return b
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneCourses(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for subject, courses := range in {
		out[subject] = cloneStrings(courses)
	}
	return out
}
