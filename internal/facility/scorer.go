package facility

import (
	"math"
	"sort"
	"strings"
)

// Weights is one convex scoring scheme; the non-zero fields of a scheme sum
// to 1.0. The two schemes are deliberately kept separate and never merged.
type Weights struct {
	Specialty  float64
	Experience float64
	Distance   float64
	Rating     float64
	Financial  float64
	Emergency  float64
	Ambulance  float64
}

// ProfileWeights scores repository-backed facilities where doctor rosters
// and the patient budget are known.
var ProfileWeights = Weights{
	Specialty:  0.30,
	Experience: 0.20,
	Distance:   0.15,
	Rating:     0.15,
	Financial:  0.20,
}

// LocationWeights scores geolocation candidates, where distance and
// emergency capability are the reliable signals.
var LocationWeights = Weights{
	Distance:  0.35,
	Specialty: 0.30,
	Rating:    0.20,
	Emergency: 0.15,
}

// EmergencyWeights picks the single best emergency destination.
var EmergencyWeights = Weights{
	Distance:  0.40,
	Emergency: 0.30,
	Ambulance: 0.20,
	Rating:    0.10,
}

const (
	earthRadiusKm        = 6371.0
	maxDoctorExperience  = 20.0
	neutralDistanceScore = 0.5
)

// HaversineKm is the straight-line distance between two coordinates.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceScoreKm buckets a distance into a normalized score. Boundaries are
// inclusive at 2/10/25/50 km.
func DistanceScoreKm(distanceKm float64) float64 {
	switch {
	case distanceKm <= 2:
		return 1.0
	case distanceKm <= 10:
		return 0.9
	case distanceKm <= 25:
		return 0.75
	case distanceKm <= 50:
		return 0.6
	default:
		return 0.4
	}
}

// distanceScore uses a precomputed distance when the source supplied one,
// falls back to haversine over coordinates, and is neutral when either side
// has no coordinates.
func distanceScore(p Profile, f Facility) float64 {
	if f.DistanceKm != nil {
		return DistanceScoreKm(*f.DistanceKm)
	}
	if p.Latitude != nil && p.Longitude != nil && f.Latitude != nil && f.Longitude != nil {
		return DistanceScoreKm(HaversineKm(*p.Latitude, *p.Longitude, *f.Latitude, *f.Longitude))
	}
	return neutralDistanceScore
}

// SpecialtyMatchScore is 1.0 on an exact condition match, 0.65 for a general
// facility, 0.4 otherwise.
func SpecialtyMatchScore(condition, specialization string) float64 {
	c := normalizeSpecialty(condition)
	s := normalizeSpecialty(specialization)
	if c != "" && c == s {
		return 1.0
	}
	if s == "general" || s == "general_medicine" {
		return 0.65
	}
	return 0.4
}

// DoctorExperienceScore averages staff experience and normalizes against a
// 20-year ceiling.
func DoctorExperienceScore(doctors []Doctor) float64 {
	if len(doctors) == 0 {
		return 0.0
	}
	var total float64
	for _, d := range doctors {
		total += float64(d.ExperienceYears)
	}
	avg := total / float64(len(doctors))
	return math.Min(1.0, avg/maxDoctorExperience)
}

// FinancialCompatibility is 1.0 when cost fits the budget (or cost is
// non-positive), otherwise budget/cost clamped to [0,1].
func FinancialCompatibility(budget, cost float64) float64 {
	if cost <= 0 {
		return 1.0
	}
	if cost <= budget {
		return 1.0
	}
	return math.Max(0.0, math.Min(1.0, budget/cost))
}

func ratingScore(rating float64) float64 {
	return math.Min(1.0, rating/5.0)
}

func boolScore(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

// ScoreFacility computes all component scores and combines them with the
// given scheme. Results are reproducible bit-for-bit: every value is rounded
// to 4 decimal places.
func ScoreFacility(p Profile, f Facility, doctors []Doctor, scheme Weights) ScoreResult {
	components := Components{
		SpecialtyMatch:   round4(SpecialtyMatchScore(p.Condition, f.Specialization)),
		DoctorExperience: round4(DoctorExperienceScore(doctors)),
		Distance:         round4(distanceScore(p, f)),
		Rating:           round4(ratingScore(f.Rating)),
		Financial:        round4(FinancialCompatibility(p.BudgetPreference, f.AvgCost)),
		Emergency:        boolScore(f.EmergencyCapable),
		Ambulance:        boolScore(f.AmbulanceAvailable),
	}

	score := scheme.Specialty*components.SpecialtyMatch +
		scheme.Experience*components.DoctorExperience +
		scheme.Distance*components.Distance +
		scheme.Rating*components.Rating +
		scheme.Financial*components.Financial +
		scheme.Emergency*components.Emergency +
		scheme.Ambulance*components.Ambulance

	return ScoreResult{
		FacilityID:     f.ID,
		Name:           f.Name,
		Location:       f.Location,
		Specialization: f.Specialization,
		Rating:         f.Rating,
		AvgCost:        f.AvgCost,
		DistanceKm:     f.DistanceKm,
		Score:          round4(score),
		Components:     components,
	}
}

// Rank scores every candidate and sorts descending by final score. Ties keep
// the original input order.
func Rank(p Profile, facilities []Facility, doctorsByFacility map[int64][]Doctor, scheme Weights) []ScoreResult {
	ranked := make([]ScoreResult, 0, len(facilities))
	for _, f := range facilities {
		ranked = append(ranked, ScoreFacility(p, f, doctorsByFacility[f.ID], scheme))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func normalizeSpecialty(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	return strings.ReplaceAll(normalized, " ", "_")
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
