package models

import "time"

// ProgrammationStatus is the closed set of session booking states.
// REJECTED exists in the data model but no transition produces it yet.
type ProgrammationStatus string

const (
	StatusScheduled ProgrammationStatus = "SCHEDULED"
	StatusValidated ProgrammationStatus = "VALIDATED"
	StatusRejected  ProgrammationStatus = "REJECTED"
)

// ParseProgrammationStatus validates a textual status against the closed enum set.
func ParseProgrammationStatus(raw string) (ProgrammationStatus, bool) {
	switch ProgrammationStatus(raw) {
	case StatusScheduled, StatusValidated, StatusRejected:
		return ProgrammationStatus(raw), true
	default:
		return "", false
	}
}

// Programmation is a scheduled course session occupying a room for a time
// window. The surrogate id is assigned by the store on insert.
type Programmation struct {
	ID            int                 `db:"id" json:"id"`
	HourCount     int                 `db:"hour_count" json:"hour_count"`
	StartAt       time.Time           `db:"start_at" json:"start_at"`
	EndAt         time.Time           `db:"end_at" json:"end_at"`
	Status        ProgrammationStatus `db:"status" json:"status"`
	RoomCode      string              `db:"code_room" json:"room_code"`
	CourseCode    string              `db:"code_course" json:"course_code"`
	OrganizerCode string              `db:"organizer_code" json:"organizer_code"`
	ValidatorCode *string             `db:"validator_code" json:"validator_code,omitempty"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// ProgrammationDetail is a programmation hydrated with the display names of
// its referenced course and staff.
type ProgrammationDetail struct {
	Programmation
	CourseLabel   string  `db:"course_label" json:"course_label"`
	OrganizerName string  `db:"organizer_name" json:"organizer_name"`
	ValidatorName *string `db:"validator_name" json:"validator_name,omitempty"`
}

// ProgrammationStats aggregates session counts by status.
type ProgrammationStats struct {
	Scheduled int `json:"scheduled"`
	Validated int `json:"validated"`
	Rejected  int `json:"rejected"`
	Total     int `json:"total"`
}

// ProgrammationFilter captures the query dimensions exposed for listings.
type ProgrammationFilter struct {
	Status        *ProgrammationStatus
	RoomCode      string
	CourseCode    string
	OrganizerCode string
	ValidatorCode string
	From          *time.Time
	To            *time.Time
}
