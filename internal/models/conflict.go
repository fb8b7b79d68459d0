package models

// ClassConflict describes an existing class section that collides with a candidate.
type ClassConflict struct {
	Type     string        `json:"type"`
	Severity string        `json:"severity"`
	Message  string        `json:"message"`
	With     *ClassSection `json:"with,omitempty"`
}

// ClassConflictError is returned when a class section collides with an existing one.
type ClassConflictError struct {
	Type     string          `json:"type"`
	Message  string          `json:"message"`
	Conflict ClassConflict   `json:"conflict"`
	Errors   []ClassConflict `json:"errors,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *ClassConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
