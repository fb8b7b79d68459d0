package dto

import (
	"time"

	"github.com/noah-isme/class-scheduler-api/internal/models"
)

// InstructorPreferenceRequest is one instructor entry of a generation request.
type InstructorPreferenceRequest struct {
	Name           string   `json:"name" validate:"required"`
	CourseCode     string   `json:"courseCode" validate:"required,max=16"`
	PreferredDays  []string `json:"preferredDays" validate:"required,min=1,dive,oneof=ST MW RA"`
	AvailableTimes []string `json:"availableTimes" validate:"required,min=1,dive,required"`
	MaxSections    int      `json:"maxSections" validate:"omitempty,min=1"`
	HasLab         bool     `json:"hasLab"`
	LabDays        []string `json:"labDays" validate:"required_if=HasLab true,dive,oneof=ST MW RA S M T W R A"`
	LabTimes       []string `json:"labTimes" validate:"required_if=HasLab true,dive,required"`
}

// Model converts the request into the generator input type.
func (r InstructorPreferenceRequest) Model() models.InstructorPreference {
	return models.InstructorPreference{
		Name:           r.Name,
		CourseCode:     r.CourseCode,
		PreferredDays:  r.PreferredDays,
		AvailableTimes: r.AvailableTimes,
		MaxSections:    r.MaxSections,
		HasLab:         r.HasLab,
		LabDays:        r.LabDays,
		LabTimes:       r.LabTimes,
	}
}

// GenerateScheduleRequest instructs the generator to build ranked options.
type GenerateScheduleRequest struct {
	Instructors   []InstructorPreferenceRequest `json:"instructors" validate:"required,min=1,dive"`
	TotalSections int                           `json:"totalSections" validate:"required,min=1"`
}

// GenerateScheduleResponse returns the stored proposal and its options.
type GenerateScheduleResponse struct {
	ProposalID string                  `json:"proposalId"`
	Schedules  []models.ScheduleOption `json:"schedules"`
	Warnings   []string                `json:"warnings,omitempty"`
	ExpiresAt  time.Time               `json:"expiresAt"`
}

// AcceptProposalRequest selects one option of a proposal for persistence.
type AcceptProposalRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Option     int    `json:"option" validate:"required,min=1,max=3"`
}

// AcceptProposalResponse lists the persisted classes.
type AcceptProposalResponse struct {
	ProposalID string                `json:"proposalId"`
	Option     int                   `json:"option"`
	Created    []models.ClassSection `json:"created"`
	Skipped    int                   `json:"skipped"`
}

// ValidateLabsRequest preflights lab selections without generating.
type ValidateLabsRequest struct {
	Instructors []InstructorPreferenceRequest `json:"instructors" validate:"required,min=1"`
}

// LabValidationResult reports reconciliation output for one instructor.
type LabValidationResult struct {
	Name           string   `json:"name"`
	LabDayConflict string   `json:"labDayConflict,omitempty"`
	EncodedLabDays []string `json:"encodedLabDays,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// ValidateLabsResponse aggregates per-instructor lab validation.
type ValidateLabsResponse struct {
	Valid   bool                  `json:"valid"`
	Results []LabValidationResult `json:"results"`
}
