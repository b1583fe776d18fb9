package assessment

import (
	"time"

	"github.com/google/uuid"
)

type Trend string

const (
	TrendDeclining Trend = "declining"
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
)

const (
	CategoryStress = "stress"
	CategoryEnergy = "energy"
)

// PatientState is the aggregate this engine owns: longitudinal stress/energy
// scores, trend, assessment scheduling, and the latest risk judgment.
// Scores are always clamped to [0,100].
type PatientState struct {
	PatientID         uuid.UUID  `json:"patient_id"`
	StressScore       int        `json:"stress_score"`
	EnergyScore       int        `json:"energy_score"`
	Trend             Trend      `json:"trend"`
	LastUpdated       time.Time  `json:"last_updated"`
	LastAssessmentAt  *time.Time `json:"last_assessment_at"`
	NextAssessmentDue *time.Time `json:"next_assessment_due"`
	RiskLevel         *string    `json:"risk_level"`
	RiskProbability   *int       `json:"risk_probability"`
	RiskReason        *string    `json:"risk_reason"`
	Recommendation    *string    `json:"recommendation"`
}

// QuestionBankItem is immutable catalog reference data, seeded once.
type QuestionBankItem struct {
	ID           int64  `json:"id"`
	Condition    string `json:"condition"`
	Category     string `json:"category"`
	QuestionText string `json:"question_text"`
	Weight       int    `json:"weight"`
}

type QuestionSource string

const (
	SourceDB       QuestionSource = "db"
	SourceAI       QuestionSource = "ai"
	SourceFallback QuestionSource = "fallback"
)

// CandidateQuestion is ephemeral, produced by the selector or the generative
// provider. Only chosen answers are persisted, as history entries.
type CandidateQuestion struct {
	ID           string         `json:"id"`
	QuestionText string         `json:"question_text"`
	Category     string         `json:"category"`
	Weight       int            `json:"weight"`
	Source       QuestionSource `json:"source"`
}

// HistoryEntry is one row of the append-only per-patient assessment log.
type HistoryEntry struct {
	Question  string    `json:"question"`
	Answer    int       `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// AnswerRecord is a recent catalog answer joined with its question category,
// used for the rolling category averages in the selector.
type AnswerRecord struct {
	QuestionID  int64  `json:"question_id"`
	AnswerValue int    `json:"answer_value"`
	Category    string `json:"category"`
}

// QuestionContext carries the metadata of an ephemeral (AI or fallback)
// question so submitted answers can be resolved without a catalog row.
type QuestionContext struct {
	Weight       int    `json:"weight"`
	Category     string `json:"category"`
	QuestionText string `json:"question_text"`
}

// PatientProfile is read-only input describing the patient.
type PatientProfile struct {
	PatientID        uuid.UUID `json:"patient_id"`
	Name             string    `json:"name"`
	Condition        string    `json:"condition"`
	Location         string    `json:"location"`
	BudgetPreference float64   `json:"budget_preference"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
}
