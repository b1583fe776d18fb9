package health

import (
	"time"

	"github.com/google/uuid"
)

// Medicine tracks planned vs taken doses for one prescription.
type Medicine struct {
	ID         int64     `json:"id"`
	PatientID  uuid.UUID `json:"patient_id"`
	Name       string    `json:"name"`
	Dosage     string    `json:"dosage"`
	Schedule   string    `json:"schedule"`
	TotalCount int       `json:"total_count"`
	TakenCount int       `json:"taken_count"`
}

// AdherenceScore is the ratio of doses taken to doses planned.
type AdherenceScore struct {
	Ratio      float64 `json:"ratio"`
	Percentage float64 `json:"percentage"`
	Taken      int     `json:"taken"`
	Total      int     `json:"total"`
}

// HealthLog is one self-reported daily check-in.
type HealthLog struct {
	ID          int64     `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	SleepHours  float64   `json:"sleep_hours"`
	StressLevel int       `json:"stress_level"`
	EnergyLevel int       `json:"energy_level"`
	Symptoms    string    `json:"symptoms"`
	LoggedAt    time.Time `json:"logged_at"`
}

// AnswerSample is a recent assessment answer with its category, used to
// format the stress/energy histories in the clinical summary prompt.
type AnswerSample struct {
	Value    int
	Category string
}
