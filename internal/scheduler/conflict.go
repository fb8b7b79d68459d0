package scheduler

import (
	"fmt"
	"strings"

	"github.com/noah-isme/class-scheduler-api/internal/models"
)

// ConflictType names the dimension a conflict was found on.
type ConflictType string

const (
	ConflictRoom       ConflictType = "room"
	ConflictInstructor ConflictType = "instructor"
	ConflictLabTime    ConflictType = "lab_time"
	ConflictSection    ConflictType = "section"
)

// Severity separates blocking conflicts from advisory warnings.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityWarning  Severity = "warning"
)

// ConflictResult is the outcome of a conflict probe.
type ConflictResult struct {
	Conflict bool                 `json:"conflict"`
	Type     ConflictType         `json:"type,omitempty"`
	Severity Severity             `json:"severity,omitempty"`
	Message  string               `json:"message,omitempty"`
	With     *models.ClassSection `json:"with,omitempty"`
}

// NormalizeFaculty folds case and whitespace so names compare equal.
func NormalizeFaculty(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// SameFaculty compares instructor names case-insensitively, ignoring whitespace.
func SameFaculty(a, b string) bool {
	na := NormalizeFaculty(a)
	return na != "" && na == NormalizeFaculty(b)
}

// SameRoom compares room codes case-insensitively.
func SameRoom(a, b string) bool {
	a = strings.TrimSpace(a)
	return a != "" && strings.EqualFold(a, strings.TrimSpace(b))
}

// CheckConflict scans existing for a section that occupies the candidate's
// days and slot in the same room or with the same instructor. The entry whose
// ID equals excludeID is skipped. Room conflicts take priority.
func CheckConflict(candidate models.ClassSection, existing []models.ClassSection, excludeID string) ConflictResult {
	if candidate.Room != "" {
		for i := range existing {
			other := existing[i]
			if !sameSlotEntry(candidate, other, excludeID) {
				continue
			}
			if SameRoom(candidate.Room, other.Room) {
				return ConflictResult{
					Conflict: true,
					Type:     ConflictRoom,
					Severity: SeverityBlocking,
					Message: fmt.Sprintf("Room %s is already booked on %s by %s section %s",
						other.Room, Label(other.Days, other.Time), other.CourseCode, other.Section),
					With: &other,
				}
			}
		}
	}

	for i := range existing {
		other := existing[i]
		if !sameSlotEntry(candidate, other, excludeID) {
			continue
		}
		if SameFaculty(candidate.Faculty, other.Faculty) {
			return ConflictResult{
				Conflict: true,
				Type:     ConflictInstructor,
				Severity: SeverityBlocking,
				Message: fmt.Sprintf("%s is already teaching %s section %s on %s",
					strings.TrimSpace(other.Faculty), other.CourseCode, other.Section, Label(other.Days, other.Time)),
				With: &other,
			}
		}
	}
	return ConflictResult{}
}

func sameSlotEntry(candidate, other models.ClassSection, excludeID string) bool {
	if excludeID != "" && other.ID == excludeID {
		return false
	}
	if other.IsPlaceholder() {
		return false
	}
	return candidate.Days == other.Days && SameSlot(candidate.Time, other.Time)
}
