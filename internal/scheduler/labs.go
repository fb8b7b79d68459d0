package scheduler

import (
	"fmt"
	"strings"

	"github.com/noah-isme/class-scheduler-api/internal/models"
)

// normalizeDayTokens trims, upper-cases and de-duplicates day selections
// while keeping their order.
func normalizeDayTokens(selected []string) []string {
	seen := make(map[string]bool, len(selected))
	out := make([]string, 0, len(selected))
	for _, raw := range selected {
		token := strings.ToUpper(strings.TrimSpace(raw))
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out
}

// pairToken returns the double-day token for two complementary single days.
func pairToken(a, b string) (string, bool) {
	if complementaryDay[a] != b {
		return "", false
	}
	days := []string{a, b}
	sortDays(days)
	return days[0] + days[1], true
}

// LabDayConflict validates an instructor's lab-day selection. It returns an
// empty string when the selection is acceptable.
func LabDayConflict(selected []string) string {
	tokens := normalizeDayTokens(selected)
	var doubles, singles []string
	for _, token := range tokens {
		switch {
		case IsPairedDays(token):
			doubles = append(doubles, token)
		case IsSingleDay(token):
			singles = append(singles, token)
		default:
			return fmt.Sprintf("Unknown lab day %q", token)
		}
	}

	if len(doubles) > 0 && len(tokens) > 1 {
		return fmt.Sprintf("Lab day %s cannot be combined with other lab days", doubles[0])
	}
	if len(singles) > 2 {
		return "Select at most two single lab days forming a valid pair (S+T, M+W, R+A)"
	}
	if len(singles) == 2 {
		if _, ok := pairToken(singles[0], singles[1]); !ok {
			return fmt.Sprintf("%s and %s are not a valid lab day pair; valid pairs are S+T, M+W, R+A", singles[0], singles[1])
		}
	}
	return ""
}

// EncodeLabDays collapses complete single-day pairs into their double-day
// token. Selections that already contain a double-day token are returned as
// normalised input. Unpaired single days are kept verbatim.
func EncodeLabDays(selected []string) []string {
	tokens := normalizeDayTokens(selected)
	for _, token := range tokens {
		if IsPairedDays(token) {
			return tokens
		}
	}

	singles := make([]string, 0, len(tokens))
	var others []string
	for _, token := range tokens {
		if IsSingleDay(token) {
			singles = append(singles, token)
		} else {
			others = append(others, token)
		}
	}
	sortDays(singles)

	used := make(map[string]bool, len(singles))
	present := make(map[string]bool, len(singles))
	for _, day := range singles {
		present[day] = true
	}

	var pairs, rest []string
	for _, day := range singles {
		if used[day] {
			continue
		}
		mate := complementaryDay[day]
		if present[mate] && !used[mate] {
			token, _ := pairToken(day, mate)
			pairs = append(pairs, token)
			used[day], used[mate] = true, true
			continue
		}
		rest = append(rest, day)
	}

	out := make([]string, 0, len(pairs)+len(rest)+len(others))
	out = append(out, pairs...)
	out = append(out, rest...)
	return append(out, others...)
}

// LabTimeConflicts lists advisory warnings for every theory/lab combination in
// an instructor's preferences that overlaps on both days and time.
func LabTimeConflicts(pref models.InstructorPreference) []ConflictResult {
	if !pref.HasLab {
		return nil
	}
	labDays := EncodeLabDays(pref.LabDays)
	var warnings []ConflictResult
	for _, theoryDays := range normalizeDayTokens(pref.PreferredDays) {
		for _, theoryTime := range pref.AvailableTimes {
			for _, labDay := range labDays {
				for _, labTime := range pref.LabTimes {
					if !SlotsOverlap(theoryDays, theoryTime, labDay, labTime) {
						continue
					}
					warnings = append(warnings, ConflictResult{
						Conflict: true,
						Type:     ConflictLabTime,
						Severity: SeverityWarning,
						Message: fmt.Sprintf("%s: lab %s overlaps theory %s",
							strings.TrimSpace(pref.Name), Label(labDay, labTime), Label(theoryDays, theoryTime)),
					})
				}
			}
		}
	}
	return warnings
}

// LabCourseCode appends the lab suffix once.
func LabCourseCode(courseCode string) string {
	code := strings.TrimSpace(courseCode)
	if strings.HasSuffix(strings.ToUpper(code), "L") {
		return code
	}
	return code + "L"
}

// IsLabCourse reports whether the course code carries the lab suffix.
func IsLabCourse(courseCode string) bool {
	return strings.HasSuffix(strings.ToUpper(strings.TrimSpace(courseCode)), "L")
}
