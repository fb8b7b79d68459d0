package scheduler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/class-scheduler-api/internal/models"
)

// StandardSectionCount is the number of standard section numbers ("01".."10").
const StandardSectionCount = 10

// SectionAvailability reports which standard section numbers are free.
type SectionAvailability struct {
	AvailableSections   []string `json:"availableSections"`
	AllStandardOccupied bool     `json:"allStandardOccupied"`
}

// RoomAvailability exposes occupancy and universe membership side by side.
type RoomAvailability struct {
	Room     string   `json:"room"`
	Kind     RoomKind `json:"kind"`
	Occupied bool     `json:"occupied"`
	Allowed  bool     `json:"allowed"`
}

// FormatSection renders a section number with two digits.
func FormatSection(n int) string {
	return fmt.Sprintf("%02d", n)
}

// NormalizeSection zero-pads numeric section values; others are trimmed only.
func NormalizeSection(section string) string {
	section = strings.TrimSpace(section)
	if n, err := strconv.Atoi(section); err == nil && n >= 0 {
		return FormatSection(n)
	}
	return section
}

func usedSections(courseCode string, existing []models.ClassSection) map[string]bool {
	used := make(map[string]bool)
	for _, class := range existing {
		if class.CourseCode != courseCode || class.IsPlaceholder() {
			continue
		}
		used[NormalizeSection(class.Section)] = true
	}
	return used
}

// SectionConflict reports an existing section, other than excludeID, that
// already uses the candidate's course code and section number.
func SectionConflict(candidate models.ClassSection, existing []models.ClassSection, excludeID string) ConflictResult {
	courseCode := strings.ToUpper(strings.TrimSpace(candidate.CourseCode))
	section := NormalizeSection(candidate.Section)
	if courseCode == "" || section == "" || candidate.IsPlaceholder() {
		return ConflictResult{}
	}
	for i := range existing {
		other := existing[i]
		if excludeID != "" && other.ID == excludeID {
			continue
		}
		if other.IsPlaceholder() || !strings.EqualFold(other.CourseCode, courseCode) {
			continue
		}
		if NormalizeSection(other.Section) == section {
			return ConflictResult{
				Conflict: true,
				Type:     ConflictSection,
				Severity: SeverityBlocking,
				Message:  fmt.Sprintf("%s section %s already exists", courseCode, section),
				With:     &other,
			}
		}
	}
	return ConflictResult{}
}

// AvailableSections lists the free standard section numbers for a course code.
func AvailableSections(courseCode string, existing []models.ClassSection) SectionAvailability {
	used := usedSections(courseCode, existing)
	available := make([]string, 0, StandardSectionCount)
	for n := 1; n <= StandardSectionCount; n++ {
		section := FormatSection(n)
		if !used[section] {
			available = append(available, section)
		}
	}
	return SectionAvailability{
		AvailableSections:   available,
		AllStandardOccupied: len(available) == 0,
	}
}

// NextManualSection returns the first free section number after the standard range.
func NextManualSection(courseCode string, existing []models.ClassSection) string {
	used := usedSections(courseCode, existing)
	n := StandardSectionCount + 1
	for used[FormatSection(n)] {
		n++
	}
	return FormatSection(n)
}

// AvailableRooms reports every catalog room for the given days and time.
// A room is occupied when an existing section other than excludeID holds the
// same days, slot and room; it is allowed when it belongs to the requested universe.
func AvailableRooms(days, time string, existing []models.ClassSection, excludeID string, isLab bool, catalog Catalog) []RoomAvailability {
	wanted := RoomTheory
	if isLab {
		wanted = RoomLab
	}

	rooms := make([]Room, 0, len(catalog.TheoryRooms)+len(catalog.LabRooms))
	rooms = append(rooms, catalog.TheoryRooms...)
	rooms = append(rooms, catalog.LabRooms...)

	out := make([]RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		kind := RoomKindOf(room.Code)
		out = append(out, RoomAvailability{
			Room:     room.Code,
			Kind:     kind,
			Occupied: roomOccupied(room.Code, days, time, existing, excludeID),
			Allowed:  kind == wanted,
		})
	}
	return out
}

func roomOccupied(room, days, time string, existing []models.ClassSection, excludeID string) bool {
	for _, class := range existing {
		if excludeID != "" && class.ID == excludeID {
			continue
		}
		if class.IsPlaceholder() {
			continue
		}
		if class.Days == days && SameSlot(class.Time, time) && SameRoom(class.Room, room) {
			return true
		}
	}
	return false
}
