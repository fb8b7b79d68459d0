package models

import "time"

const (
	// PlaceholderCourseCode marks a generated section that could not be placed.
	PlaceholderCourseCode = "UNASSIGNED"
	// PlaceholderRoom is the room assigned to placeholder sections.
	PlaceholderRoom = "TBD"
)

// ClassSection is a scheduled unit of teaching.
type ClassSection struct {
	ID          string    `db:"id" json:"id,omitempty" csv:"id"`
	CourseCode  string    `db:"course_code" json:"courseCode" csv:"course_code"`
	Section     string    `db:"section" json:"section" csv:"section"`
	Faculty     string    `db:"faculty" json:"faculty" csv:"faculty"`
	Days        string    `db:"days" json:"days" csv:"days"`
	Time        string    `db:"time" json:"time" csv:"time"`
	Room        string    `db:"room" json:"room" csv:"room"`
	MaxCapacity int       `db:"max_capacity" json:"maxCapacity" csv:"max_capacity"`
	Enrolled    int       `db:"enrolled" json:"enrolled" csv:"enrolled"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt" csv:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt" csv:"-"`

	// Conflict and RequestedCourse are only set on generator placeholders.
	Conflict        bool   `db:"-" json:"conflict,omitempty" csv:"-"`
	RequestedCourse string `db:"-" json:"requestedCourse,omitempty" csv:"-"`
}

// IsPlaceholder reports whether the section is an unplaceable generator sentinel.
func (c ClassSection) IsPlaceholder() bool {
	return c.Conflict || c.CourseCode == PlaceholderCourseCode
}

// ClassSectionFilter describes query params for listing class sections.
type ClassSectionFilter struct {
	CourseCode string
	Faculty    string
	Days       string
	Time       string
	Room       string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
