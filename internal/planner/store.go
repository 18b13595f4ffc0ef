package planner

import (
	"errors"
	"strconv"
	"strings"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
)

// Rejection reasons. An operation that fails returns the input plan unchanged.
var (
	ErrInvalidDay         = errors.New("planner: unknown day")
	ErrInvalidField       = errors.New("planner: unknown field")
	ErrInvalidTime        = errors.New("planner: time must be HH:MM")
	ErrInvalidBlockLength = errors.New("planner: block length must be a positive number of minutes")
	ErrInvalidSlot        = errors.New("planner: time slot must be HH:MM-HH:MM")
	ErrInvalidBlockType   = errors.New("planner: unknown block type")
	ErrIncompleteDay      = errors.New("planner: day needs a start time and block length")
	ErrPlatformLinked     = errors.New("planner: block already has a platform link")
)

// DayField names an editable day setting.
type DayField string

const (
	FieldStartTime   DayField = "startTime"
	FieldEndTime     DayField = "endTime"
	FieldBlockLength DayField = "blockLength"
)

// BlockField names an editable block attribute.
type BlockField string

const (
	FieldSubject BlockField = "subject"
	FieldCourse  BlockField = "course"
	FieldType    BlockField = "type"
)

// ApplyOptions controls fan-out of a block edit to the other selected days.
type ApplyOptions struct {
	AutoApplyToAllDays bool
}

// ToggleDay flips whether the day is part of the schedule. A newly selected day gets
// its block count recomputed from its window.
func ToggleDay(plan models.StudentPlan, day models.Weekday) (models.StudentPlan, error) {
	if day.Index() < 0 {
		return plan, ErrInvalidDay
	}
	next := ClonePlan(plan)
	d := next.Schedule.Days[day]
	d.Selected = !d.Selected
	if d.Selected {
		d = rederive(d)
	}
	next.Schedule.Days[day] = d
	return next, nil
}

// SetDayField updates the start time, end time or block length of a day and recomputes
// its block count. With UseSameSchedule on, every other selected day takes the same value.
func SetDayField(plan models.StudentPlan, day models.Weekday, field DayField, value string) (models.StudentPlan, error) {
	if day.Index() < 0 {
		return plan, ErrInvalidDay
	}
	apply, err := dayFieldSetter(field, value)
	if err != nil {
		return plan, err
	}

	next := ClonePlan(plan)
	next.Schedule.Days[day] = rederive(apply(next.Schedule.Days[day]))
	if next.Schedule.UseSameSchedule {
		for _, other := range next.Schedule.SelectedDays() {
			if other == day {
				continue
			}
			next.Schedule.Days[other] = rederive(apply(next.Schedule.Days[other]))
		}
	}
	return next, nil
}

func dayFieldSetter(field DayField, value string) (func(models.DaySchedule) models.DaySchedule, error) {
	value = strings.TrimSpace(value)
	switch field {
	case FieldStartTime, FieldEndTime:
		clock := ""
		if value != "" {
			minutes, ok := ParseClock(value)
			if !ok {
				return nil, ErrInvalidTime
			}
			clock = FormatClock(minutes)
		}
		if field == FieldStartTime {
			return func(d models.DaySchedule) models.DaySchedule { d.StartTime = clock; return d }, nil
		}
		return func(d models.DaySchedule) models.DaySchedule { d.EndTime = clock; return d }, nil
	case FieldBlockLength:
		length, err := strconv.Atoi(value)
		if err != nil || length <= 0 {
			return nil, ErrInvalidBlockLength
		}
		return func(d models.DaySchedule) models.DaySchedule { d.BlockLength = length; return d }, nil
	}
	return nil, ErrInvalidField
}

// ToggleUseSameSchedule flips UseSameSchedule. Switching it on copies the window of the
// first selected day onto every other selected day; switching it off changes nothing else.
func ToggleUseSameSchedule(plan models.StudentPlan) models.StudentPlan {
	next := ClonePlan(plan)
	next.Schedule.UseSameSchedule = !next.Schedule.UseSameSchedule
	if !next.Schedule.UseSameSchedule {
		return next
	}
	selected := next.Schedule.SelectedDays()
	if len(selected) == 0 {
		return next
	}
	template := next.Schedule.Days[selected[0]]
	for _, day := range selected[1:] {
		d := next.Schedule.Days[day]
		d.StartTime = template.StartTime
		d.EndTime = template.EndTime
		d.BlockLength = template.BlockLength
		d.Blocks = template.Blocks
		next.Schedule.Days[day] = d
	}
	return next
}

// SetBlockField edits the block at slotKey, creating it when absent. Changing the subject
// clears the course and re-derives the block type. With AutoApplyToAllDays the same edit
// lands on every other selected day at the same slot position, not the same clock time.
func SetBlockField(plan models.StudentPlan, day models.Weekday, slotKey string, field BlockField, value string, opts ApplyOptions) (models.StudentPlan, error) {
	if day.Index() < 0 {
		return plan, ErrInvalidDay
	}
	key, err := canonicalSlot(slotKey)
	if err != nil {
		return plan, err
	}
	if err := validateBlockField(field, value); err != nil {
		return plan, err
	}

	next := ClonePlan(plan)
	index := SlotIndex(next, day, key)
	applyBlockField(&next, day, key, field, value)

	if opts.AutoApplyToAllDays && index >= 0 {
		for _, other := range next.Schedule.SelectedDays() {
			if other == day {
				continue
			}
			if otherKey, ok := SlotKeyAt(next, other, index); ok {
				applyBlockField(&next, other, otherKey, field, value)
			}
		}
	}
	return next, nil
}

func validateBlockField(field BlockField, value string) error {
	switch field {
	case FieldSubject, FieldCourse:
		return nil
	case FieldType:
		if !models.BlockType(value).Valid() {
			return ErrInvalidBlockType
		}
		return nil
	}
	return ErrInvalidField
}

func applyBlockField(plan *models.StudentPlan, day models.Weekday, key string, field BlockField, value string) {
	blocks, i := ensureBlock(*plan, day, key)
	b := &blocks[i]
	switch field {
	case FieldSubject:
		b.Subject = value
		b.Course = ""
		b.Type = ClassifySubject(*plan, value)
	case FieldCourse:
		b.Course = value
	case FieldType:
		b.Type = models.BlockType(value)
	}
	plan.BlockAssignments[day] = blocks
}

// SetPlatformURL records the external resource link of a block. A non-empty link
// clears any recorded help preference.
func SetPlatformURL(plan models.StudentPlan, day models.Weekday, slotKey, url string) (models.StudentPlan, error) {
	if day.Index() < 0 {
		return plan, ErrInvalidDay
	}
	key, err := canonicalSlot(slotKey)
	if err != nil {
		return plan, err
	}
	next := ClonePlan(plan)
	blocks, i := ensureBlock(next, day, key)
	blocks[i].PlatformURL = strings.TrimSpace(url)
	if blocks[i].PlatformURL != "" {
		blocks[i].NeedPlatformHelp = nil
	}
	next.BlockAssignments[day] = blocks
	return next, nil
}

// SetPlatformHelp records whether the family wants help finding a resource for a block
// that has no link.
func SetPlatformHelp(plan models.StudentPlan, day models.Weekday, slotKey string, needHelp bool) (models.StudentPlan, error) {
	if day.Index() < 0 {
		return plan, ErrInvalidDay
	}
	key, err := canonicalSlot(slotKey)
	if err != nil {
		return plan, err
	}
	if i := findBlock(plan.BlockAssignments[day], key); i >= 0 && plan.BlockAssignments[day][i].PlatformURL != "" {
		return plan, ErrPlatformLinked
	}
	next := ClonePlan(plan)
	blocks, i := ensureBlock(next, day, key)
	help := needHelp
	blocks[i].NeedPlatformHelp = &help
	next.BlockAssignments[day] = blocks
	return next, nil
}

// AddBlock raises the day's block count by one beyond what its window implies and adds
// an empty block on the new final slot. An assignment already keyed to that slot is kept.
func AddBlock(plan models.StudentPlan, day models.Weekday, opts ApplyOptions) (models.StudentPlan, error) {
	if day.Index() < 0 {
		return plan, ErrInvalidDay
	}
	next := ClonePlan(plan)
	if !appendBlock(&next, day) {
		return plan, ErrIncompleteDay
	}
	if opts.AutoApplyToAllDays {
		for _, other := range next.Schedule.SelectedDays() {
			if other != day {
				appendBlock(&next, other)
			}
		}
	}
	return next, nil
}

func appendBlock(plan *models.StudentPlan, day models.Weekday) bool {
	d := plan.Schedule.Days[day]
	if d.BlockLength <= 0 {
		return false
	}
	if _, ok := ParseClock(d.StartTime); !ok {
		return false
	}

	d.Blocks = resolveCount(d, d.Blocks.Value+1)
	plan.Schedule.Days[day] = d
	slots := ComputeTimeSlots(d)
	blocks, _ := ensureBlock(*plan, day, slots[len(slots)-1].Time)
	plan.BlockAssignments[day] = blocks
	return true
}

// RemoveBlock lowers the day's block count by one (never below zero) and drops whatever
// was assigned to the slot that disappears. Assignments on surviving slots are kept.
func RemoveBlock(plan models.StudentPlan, day models.Weekday, opts ApplyOptions) (models.StudentPlan, error) {
	if day.Index() < 0 {
		return plan, ErrInvalidDay
	}
	next := ClonePlan(plan)
	dropBlock(&next, day)
	if opts.AutoApplyToAllDays {
		for _, other := range next.Schedule.SelectedDays() {
			if other != day {
				dropBlock(&next, other)
			}
		}
	}
	return next, nil
}

func dropBlock(plan *models.StudentPlan, day models.Weekday) {
	d := plan.Schedule.Days[day]
	if d.Blocks.Value <= 0 {
		return
	}
	slots := ComputeTimeSlots(d)
	d.Blocks = resolveCount(d, d.Blocks.Value-1)
	plan.Schedule.Days[day] = d
	if len(slots) == 0 {
		return
	}

	blocks := plan.BlockAssignments[day]
	if i := findBlock(blocks, slots[len(slots)-1].Time); i >= 0 {
		plan.BlockAssignments[day] = append(blocks[:i:i], blocks[i+1:]...)
	}
}

// CopyDay copies one day's window and assignments onto other days of the same plan.
// The selection state of each target day is kept.
func CopyDay(plan models.StudentPlan, from models.Weekday, to []models.Weekday) (models.StudentPlan, error) {
	if from.Index() < 0 {
		return plan, ErrInvalidDay
	}
	for _, day := range to {
		if day.Index() < 0 {
			return plan, ErrInvalidDay
		}
	}
	next := ClonePlan(plan)
	source := next.Schedule.Days[from]
	for _, day := range to {
		if day == from {
			continue
		}
		d := next.Schedule.Days[day]
		d.StartTime = source.StartTime
		d.EndTime = source.EndTime
		d.BlockLength = source.BlockLength
		d.Blocks = source.Blocks
		next.Schedule.Days[day] = d
		next.BlockAssignments[day] = cloneBlocks(next.BlockAssignments[from])
	}
	return next, nil
}

// SetCurriculum replaces the subject and activity lists used to classify blocks.
func SetCurriculum(plan models.StudentPlan, core, extended []string, courses map[string][]string, activities []string) models.StudentPlan {
	next := ClonePlan(plan)
	next.CoreSubjects = cleanList(core)
	next.ExtendedSubjects = cleanList(extended)
	next.SubjectCourses = cloneCourses(courses)
	next.Activities = cleanList(activities)
	return next
}

// SlotIndex returns the position of slotKey in the day's slot sequence, falling back to
// its position in the day's block list. It returns -1 when the key is unknown.
func SlotIndex(plan models.StudentPlan, day models.Weekday, slotKey string) int {
	for _, slot := range ComputeTimeSlots(plan.Schedule.Days[day]) {
		if slot.Time == slotKey {
			return slot.Index
		}
	}
	return findBlock(plan.BlockAssignments[day], slotKey)
}

// SlotKeyAt returns the key of the slot at a position of the day, taken from the derived
// slot sequence first and the block list second.
func SlotKeyAt(plan models.StudentPlan, day models.Weekday, index int) (string, bool) {
	if index < 0 {
		return "", false
	}
	slots := ComputeTimeSlots(plan.Schedule.Days[day])
	if index < len(slots) {
		return slots[index].Time, true
	}
	if blocks := plan.BlockAssignments[day]; index < len(blocks) {
		return blocks[index].Time, true
	}
	return "", false
}

func canonicalSlot(raw string) (string, error) {
	start, end, ok := ParseSlotKey(raw)
	if !ok {
		return "", ErrInvalidSlot
	}
	return SlotKey(start, end), nil
}

func findBlock(blocks []models.Block, key string) int {
	for i, b := range blocks {
		if b.Time == key {
			return i
		}
	}
	return -1
}

// ensureBlock returns the day's block list with a block at key, inserted in slot order
// when it had to be created, and the index of that block.
func ensureBlock(plan models.StudentPlan, day models.Weekday, key string) ([]models.Block, int) {
	blocks := plan.BlockAssignments[day]
	if i := findBlock(blocks, key); i >= 0 {
		return blocks, i
	}

	order := make(map[string]int)
	for _, slot := range ComputeTimeSlots(plan.Schedule.Days[day]) {
		order[slot.Time] = slot.Index
	}
	pos := len(blocks)
	if rank, ok := order[key]; ok {
		for i, existing := range blocks {
			if r, ok := order[existing.Time]; ok && r > rank {
				pos = i
				break
			}
		}
	}

	blocks = append(blocks, models.Block{})
	copy(blocks[pos+1:], blocks[pos:])
	blocks[pos] = models.Block{Time: key, Type: models.BlockTypeSubject}
	return blocks, pos
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, item := range in {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
