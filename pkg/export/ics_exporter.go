package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//homeschool-planner//weekly schedule//EN"

// CalendarEvent is one recurring block of the week.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	URL         string
	Start       time.Time
	Duration    time.Duration
	// RRule is the recurrence without DTSTART, e.g. "FREQ=WEEKLY;UNTIL=...;BYDAY=MO".
	RRule string
}

// Calendar is the content of an iCalendar export.
type Calendar struct {
	Name   string
	Stamp  time.Time
	Events []CalendarEvent
}

// ICSExporter renders recurring weekly blocks as an iCalendar feed.
type ICSExporter struct{}

// NewICSExporter constructs an ICS exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{}
}

// Render serialises the calendar. Events without a duration are rejected.
func (e *ICSExporter) Render(calendar Calendar) ([]byte, error) {
	stamp := calendar.Stamp
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if calendar.Name != "" {
		cal.SetXWRCalName(calendar.Name)
	}

	for _, ev := range calendar.Events {
		if ev.UID == "" {
			return nil, fmt.Errorf("ics event without uid")
		}
		if ev.Duration <= 0 {
			return nil, fmt.Errorf("ics event %s has no duration", ev.UID)
		}
		event := cal.AddEvent(ev.UID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(ev.Start)
		event.SetEndAt(ev.Start.Add(ev.Duration))
		event.SetSummary(ev.Summary)
		if ev.Description != "" {
			event.SetDescription(ev.Description)
		}
		if ev.URL != "" {
			event.SetURL(ev.URL)
		}
		if ev.RRule != "" {
			event.AddRrule(ev.RRule)
		}
	}
	return []byte(cal.Serialize()), nil
}
