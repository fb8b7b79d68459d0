package models

import "time"

// InstructorPreference is the generator input for one instructor.
type InstructorPreference struct {
	Name           string   `json:"name"`
	CourseCode     string   `json:"courseCode"`
	PreferredDays  []string `json:"preferredDays"`
	AvailableTimes []string `json:"availableTimes"`
	MaxSections    int      `json:"maxSections"`
	HasLab         bool     `json:"hasLab"`
	LabDays        []string `json:"labDays,omitempty"`
	LabTimes       []string `json:"labTimes,omitempty"`
}

// ScheduleOption is one ranked candidate timetable.
type ScheduleOption struct {
	Option          int            `json:"option"`
	Classes         []ClassSection `json:"classes"`
	Conflict        bool           `json:"conflict"`
	ConflictMessage string         `json:"conflictMessage,omitempty"`
	Workload        map[string]int `json:"workload"`
	Score           float64        `json:"score"`
}

// PlacedClasses returns the option's classes without placeholders.
func (o ScheduleOption) PlacedClasses() []ClassSection {
	placed := make([]ClassSection, 0, len(o.Classes))
	for _, class := range o.Classes {
		if class.IsPlaceholder() {
			continue
		}
		placed = append(placed, class)
	}
	return placed
}

// ScheduleProposal is a generated set of options awaiting acceptance.
type ScheduleProposal struct {
	ID            string                 `json:"id"`
	TotalSections int                    `json:"totalSections"`
	Instructors   []InstructorPreference `json:"instructors"`
	Schedules     []ScheduleOption       `json:"schedules"`
	Warnings      []string               `json:"warnings,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	ExpiresAt     time.Time              `json:"expiresAt"`
}

// Option returns the option with the given ordinal.
func (p *ScheduleProposal) Option(ordinal int) (ScheduleOption, bool) {
	if p == nil {
		return ScheduleOption{}, false
	}
	for _, option := range p.Schedules {
		if option.Option == ordinal {
			return option, true
		}
	}
	return ScheduleOption{}, false
}
