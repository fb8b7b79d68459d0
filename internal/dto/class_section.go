package dto

import "github.com/noah-isme/class-scheduler-api/internal/models"

// ClassSectionRequest is the create/update payload for a class section.
type ClassSectionRequest struct {
	CourseCode  string `json:"courseCode" csv:"course_code" validate:"required,max=16"`
	Section     string `json:"section" csv:"section" validate:"required,max=8"`
	Faculty     string `json:"faculty" csv:"faculty" validate:"required,max=120"`
	Days        string `json:"days" csv:"days" validate:"required,oneof=ST MW RA S M T W R A"`
	Time        string `json:"time" csv:"time" validate:"required"`
	Room        string `json:"room" csv:"room" validate:"required,max=16"`
	MaxCapacity int    `json:"maxCapacity" csv:"max_capacity" validate:"min=0"`
	Enrolled    int    `json:"enrolled" csv:"enrolled" validate:"min=0"`
}

// BulkCreateClassesRequest creates several sections atomically.
type BulkCreateClassesRequest struct {
	Classes []ClassSectionRequest `json:"classes" validate:"required,min=1"`
}

// ClassConflictProbe asks whether a faculty/days/time (and optional room) is free.
type ClassConflictProbe struct {
	Faculty   string `json:"faculty" validate:"required"`
	Days      string `json:"days" validate:"required"`
	Time      string `json:"time" validate:"required"`
	Room      string `json:"room"`
	ExcludeID string `json:"excludeId"`
}

// ClassConflictProbeResponse reports the first blocking conflict, if any.
type ClassConflictProbeResponse struct {
	Available bool                 `json:"available"`
	Type      string               `json:"type,omitempty"`
	Severity  string               `json:"severity,omitempty"`
	Message   string               `json:"message,omitempty"`
	With      *models.ClassSection `json:"with,omitempty"`
}

// AvailableRoomsQuery lists catalog rooms for a day pattern and time slot.
type AvailableRoomsQuery struct {
	Days      string `form:"days" validate:"required"`
	Time      string `form:"time" validate:"required"`
	IsLab     bool   `form:"isLab"`
	ExcludeID string `form:"excludeId"`
}

// AvailableSectionsResponse lists free section numbers for a course code.
type AvailableSectionsResponse struct {
	CourseCode          string   `json:"courseCode"`
	AvailableSections   []string `json:"availableSections"`
	AllStandardOccupied bool     `json:"allStandardOccupied"`
	NextManualSection   string   `json:"nextManualSection,omitempty"`
}

// ImportClassesResponse summarises a CSV import.
type ImportClassesResponse struct {
	Imported int                   `json:"imported"`
	Classes  []models.ClassSection `json:"classes"`
}
