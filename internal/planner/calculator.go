// Package planner holds the weekly schedule engine behind the term plan builder:
// block arithmetic, per-student schedule edits and cross-student copies.
package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
)

const (
	clockLayout   = "15:04"
	minutesPerDay = 24 * 60
)

// ParseClock converts an "HH:MM" wall-clock time into minutes after midnight.
func ParseClock(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	t, err := time.Parse(clockLayout, raw)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// FormatClock renders minutes after midnight as "HH:MM", wrapping past midnight.
func FormatClock(minutes int) string {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SlotKey builds the "HH:MM-HH:MM" key of a block.
func SlotKey(start, end int) string {
	return FormatClock(start) + "-" + FormatClock(end)
}

// ParseSlotKey splits a "HH:MM-HH:MM" key into start and end minutes.
func ParseSlotKey(key string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(key), "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok := ParseClock(parts[0])
	if !ok {
		return 0, 0, false
	}
	end, ok := ParseClock(parts[1])
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

// ComputeBlockCount returns how many whole blocks of blockLength minutes fit between
// start and end. An end before the start is read as falling on the next day.
// Missing or malformed input yields 0.
func ComputeBlockCount(start, end string, blockLength int) int {
	if blockLength <= 0 {
		return 0
	}
	from, ok := ParseClock(start)
	if !ok {
		return 0
	}
	to, ok := ParseClock(end)
	if !ok {
		return 0
	}
	if to < from {
		to += minutesPerDay
	}
	return (to - from) / blockLength
}

// ComputeTimeSlots lays out the day's block count as contiguous slots from its start time.
// Slot i of one day lines up with slot i of any other day regardless of clock time.
func ComputeTimeSlots(day models.DaySchedule) []models.TimeSlot {
	count := day.Blocks.Value
	start, ok := ParseClock(day.StartTime)
	if !ok || count <= 0 || day.BlockLength <= 0 {
		return []models.TimeSlot{}
	}
	slots := make([]models.TimeSlot, 0, count)
	for i := 0; i < count; i++ {
		from := start + i*day.BlockLength
		to := from + day.BlockLength
		slots = append(slots, models.TimeSlot{
			Index: i,
			Time:  SlotKey(from, to),
			Start: FormatClock(from),
			End:   FormatClock(to),
		})
	}
	return slots
}

// DerivedCount recomputes the block count of a day from its window.
func DerivedCount(day models.DaySchedule) int {
	return ComputeBlockCount(day.StartTime, day.EndTime, day.BlockLength)
}

func rederive(day models.DaySchedule) models.DaySchedule {
	day.Blocks = models.DerivedBlocks(DerivedCount(day))
	return day
}

// resolveCount keeps a hand-set count only while it differs from the derived one.
func resolveCount(day models.DaySchedule, n int) models.BlockCount {
	if n < 0 {
		n = 0
	}
	if n == DerivedCount(day) {
		return models.DerivedBlocks(n)
	}
	return models.ManualBlocks(n)
}
