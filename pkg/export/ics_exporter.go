package export

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEvent is a weekly recurring meeting.
type CalendarEvent struct {
	UID         string
	Summary     string
	Location    string
	Description string
	Start       time.Time
	End         time.Time
	Weekdays    []time.Weekday
	Count       int
}

var icsWeekdays = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// ICSExporter renders iCalendar documents.
type ICSExporter struct {
	productID string
}

// NewICSExporter constructs an ICS exporter.
func NewICSExporter(productID string) *ICSExporter {
	if productID == "" {
		productID = "-//class-scheduler-api//EN"
	}
	return &ICSExporter{productID: productID}
}

// Render serialises events into a VCALENDAR named after the calendar.
func (e *ICSExporter) Render(name string, events []CalendarEvent) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := time.Now().UTC()
	for _, item := range events {
		if item.UID == "" {
			return nil, fmt.Errorf("calendar event %q has no uid", item.Summary)
		}
		if !item.End.After(item.Start) {
			return nil, fmt.Errorf("calendar event %s ends before it starts", item.UID)
		}
		event := cal.AddEvent(item.UID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(item.Start)
		event.SetEndAt(item.End)
		event.SetSummary(item.Summary)
		if item.Location != "" {
			event.SetLocation(item.Location)
		}
		if item.Description != "" {
			event.SetDescription(item.Description)
		}
		if rule := weeklyRule(item.Weekdays, item.Count); rule != "" {
			event.AddRrule(rule)
		}
	}
	return []byte(cal.Serialize()), nil
}

func weeklyRule(days []time.Weekday, count int) string {
	if len(days) == 0 {
		return ""
	}
	codes := make([]string, 0, len(days))
	for _, day := range days {
		codes = append(codes, icsWeekdays[day])
	}
	rule := "FREQ=WEEKLY;BYDAY=" + strings.Join(codes, ",")
	if count > 0 {
		rule += fmt.Sprintf(";COUNT=%d", count)
	}
	return rule
}
