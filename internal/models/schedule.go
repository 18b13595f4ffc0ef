package models

import "strings"

// Weekday names a day of the planning week.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Weekdays lists the planning week in iteration order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday resolves a case-insensitive day name or three letter abbreviation.
func ParseWeekday(raw string) (Weekday, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", false
	}
	for _, day := range Weekdays {
		name := strings.ToLower(string(day))
		if value == name || value == name[:3] {
			return day, true
		}
	}
	return "", false
}

// Index returns the zero based position of the day in the week, or -1.
func (d Weekday) Index() int {
	for i, day := range Weekdays {
		if day == d {
			return i
		}
	}
	return -1
}

// BlockType classifies what occupies a block.
type BlockType string

const (
	BlockTypeSubject  BlockType = "subject"
	BlockTypeActivity BlockType = "activity"
	BlockTypeBreak    BlockType = "break"
)

// Valid reports whether the type is one of the known block types.
func (t BlockType) Valid() bool {
	switch t {
	case BlockTypeSubject, BlockTypeActivity, BlockTypeBreak:
		return true
	}
	return false
}

// BlockCountSource tells whether a block count follows the day window or was set by hand.
type BlockCountSource string

const (
	BlockCountDerived BlockCountSource = "derived"
	BlockCountManual  BlockCountSource = "manual"
)

// BlockCount is either Derived (recomputed from the day window) or ManualOverride(n)
// (set by explicit add/remove block actions).
type BlockCount struct {
	Source BlockCountSource `json:"source"`
	Value  int              `json:"value"`
}

// DerivedBlocks builds a count that tracks the day window.
func DerivedBlocks(n int) BlockCount {
	if n < 0 {
		n = 0
	}
	return BlockCount{Source: BlockCountDerived, Value: n}
}

// ManualBlocks builds a hand-set count.
func ManualBlocks(n int) BlockCount {
	if n < 0 {
		n = 0
	}
	return BlockCount{Source: BlockCountManual, Value: n}
}

// IsManual reports whether the count overrides the derivation.
func (c BlockCount) IsManual() bool {
	return c.Source == BlockCountManual
}

// DaySchedule is the configuration of one weekday.
type DaySchedule struct {
	Selected    bool       `json:"selected"`
	StartTime   string     `json:"startTime"`
	EndTime     string     `json:"endTime"`
	BlockLength int        `json:"blockLength"`
	Blocks      BlockCount `json:"blocks"`
}

// WeekSchedule maps each weekday to its configuration.
type WeekSchedule struct {
	Days            map[Weekday]DaySchedule `json:"days"`
	UseSameSchedule bool                    `json:"useSameSchedule"`
}

// NewWeekSchedule returns seven unselected days with empty windows.
func NewWeekSchedule(blockLength int) WeekSchedule {
	days := make(map[Weekday]DaySchedule, len(Weekdays))
	for _, day := range Weekdays {
		days[day] = DaySchedule{BlockLength: blockLength, Blocks: DerivedBlocks(0)}
	}
	return WeekSchedule{Days: days}
}

// SelectedDays returns the selected weekdays in week order.
func (w WeekSchedule) SelectedDays() []Weekday {
	out := make([]Weekday, 0, len(w.Days))
	for _, day := range Weekdays {
		if d, ok := w.Days[day]; ok && d.Selected {
			out = append(out, day)
		}
	}
	return out
}

// Block is one scheduled unit within a day, keyed by its "HH:MM-HH:MM" time slot.
type Block struct {
	Time             string    `json:"time"`
	Subject          string    `json:"subject"`
	Course           string    `json:"course"`
	Type             BlockType `json:"type"`
	PlatformURL      string    `json:"platformUrl,omitempty"`
	NeedPlatformHelp *bool     `json:"needPlatformHelp"`
}

// TimeSlot is a derived slot boundary for a day.
type TimeSlot struct {
	Index int    `json:"index"`
	Time  string `json:"time"`
	Start string `json:"start"`
	End   string `json:"end"`
}
