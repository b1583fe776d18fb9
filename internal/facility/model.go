package facility

// Facility is a candidate care provider being scored against a patient
// profile. Coordinates and distance are optional; missing values fall back
// to the neutral distance score.
type Facility struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Location           string   `json:"location"`
	Specialization     string   `json:"specialization"`
	Rating             float64  `json:"rating"`
	AvgCost            float64  `json:"avg_cost"`
	EmergencyCapable   bool     `json:"emergency_capable"`
	AmbulanceAvailable bool     `json:"ambulance_available"`
	AmbulanceNumber    string   `json:"ambulance_number,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	DistanceKm         *float64 `json:"distance_km,omitempty"`
	Source             string   `json:"source,omitempty"`
}

// Doctor is roster data used for the experience component.
type Doctor struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Specialization  string  `json:"specialization"`
	ExperienceYears int     `json:"experience_years"`
	Rating          float64 `json:"rating"`
}

// Profile is the read-only patient input to ranking.
type Profile struct {
	Condition        string   `json:"condition"`
	Location         string   `json:"location"`
	BudgetPreference float64  `json:"budget_preference"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
}

// FacilityDetail is one facility with its doctor roster, served by the
// detail endpoint.
type FacilityDetail struct {
	Facility
	Doctors               []Doctor `json:"doctors"`
	SpecializationDisplay string   `json:"specialization_display"`
}

// Components are the normalized [0,1] score parts, rounded to 4 decimals.
type Components struct {
	SpecialtyMatch   float64 `json:"specialty_match"`
	DoctorExperience float64 `json:"doctor_experience_score"`
	Distance         float64 `json:"distance_score"`
	Rating           float64 `json:"rating_score"`
	Financial        float64 `json:"financial_compatibility"`
	Emergency        float64 `json:"emergency_capability"`
	Ambulance        float64 `json:"ambulance_availability"`
}

// ScoreResult is one ranked facility with its component breakdown and
// human-readable explanation.
type ScoreResult struct {
	FacilityID     int64      `json:"facility_id"`
	Name           string     `json:"name"`
	Location       string     `json:"location"`
	Specialization string     `json:"specialization"`
	Rating         float64    `json:"rating"`
	AvgCost        float64    `json:"avg_cost"`
	DistanceKm     *float64   `json:"distance_km,omitempty"`
	Score          float64    `json:"score"`
	Components     Components `json:"components"`
	Explanation    string     `json:"explanation,omitempty"`
}
