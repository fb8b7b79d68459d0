package scheduler

import (
	"strconv"
	"strings"
)

// TimeToMinutes parses "hh:mm AM/PM" into minutes since midnight.
// 12 AM is 0 and 12 PM is 720.
func TimeToMinutes(label string) (int, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	var clock, period string
	switch {
	case strings.HasSuffix(label, "AM"):
		clock, period = strings.TrimSpace(strings.TrimSuffix(label, "AM")), "AM"
	case strings.HasSuffix(label, "PM"):
		clock, period = strings.TrimSpace(strings.TrimSuffix(label, "PM")), "PM"
	default:
		return 0, false
	}

	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}

	if hour == 12 {
		hour = 0
	}
	if period == "PM" {
		hour += 12
	}
	return hour*60 + minute, true
}

// parseInterval parses "<start> - <end>" into a half-open minute interval.
func parseInterval(label string) (int, int, bool) {
	parts := strings.SplitN(label, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok := TimeToMinutes(parts[0])
	if !ok {
		return 0, 0, false
	}
	end, ok := TimeToMinutes(parts[1])
	if !ok || end <= start {
		return 0, 0, false
	}
	return start, end, true
}

// Interval parses a "<start> - <end>" label into minutes since midnight.
func Interval(label string) (start, end int, ok bool) {
	return parseInterval(label)
}

// IntervalsOverlap reports whether two "<start> - <end>" labels share any minute.
// Unparseable input never overlaps.
func IntervalsOverlap(a, b string) bool {
	s1, e1, ok := parseInterval(a)
	if !ok {
		return false
	}
	s2, e2, ok := parseInterval(b)
	if !ok {
		return false
	}
	return s1 < e2 && s2 < e1
}

// DaysOverlap reports whether two day patterns share a weekday.
func DaysOverlap(a, b string) bool {
	left := ExpandDays(a)
	if len(left) == 0 {
		return false
	}
	right := make(map[string]bool)
	for _, day := range ExpandDays(b) {
		right[day] = true
	}
	for _, day := range left {
		if right[day] {
			return true
		}
	}
	return false
}

// SlotsOverlap combines the day and interval predicates.
func SlotsOverlap(daysA, timeA, daysB, timeB string) bool {
	return DaysOverlap(daysA, daysB) && IntervalsOverlap(timeA, timeB)
}
