package facility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceScoreKm_Buckets(t *testing.T) {
	tests := []struct {
		name string
		km   float64
		want float64
	}{
		{"at-2km", 2.0, 1.0},
		{"just-past-2km", 2.01, 0.9},
		{"at-10km", 10.0, 0.9},
		{"just-past-10km", 10.01, 0.75},
		{"at-25km", 25.0, 0.75},
		{"just-past-25km", 25.01, 0.6},
		{"at-50km", 50.0, 0.6},
		{"just-past-50km", 50.01, 0.4},
		{"zero", 0.0, 1.0},
		{"far", 500.0, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DistanceScoreKm(tt.km))
		})
	}
}

func TestFinancialCompatibility(t *testing.T) {
	tests := []struct {
		name   string
		budget float64
		cost   float64
		want   float64
	}{
		{"zero-cost", 3000, 0, 1.0},
		{"cost-equals-budget", 3000, 3000, 1.0},
		{"cost-twice-budget", 3000, 6000, 0.5},
		{"negative-cost", 3000, -100, 1.0},
		{"cost-under-budget", 3000, 1500, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FinancialCompatibility(tt.budget, tt.cost))
		})
	}
}

func TestSpecialtyMatchScore(t *testing.T) {
	assert.Equal(t, 1.0, SpecialtyMatchScore("cardiology", "cardiology"))
	assert.Equal(t, 1.0, SpecialtyMatchScore("Cardiology", "CARDIOLOGY"))
	assert.Equal(t, 0.65, SpecialtyMatchScore("cardiology", "general"))
	assert.Equal(t, 0.65, SpecialtyMatchScore("cardiology", "General Medicine"))
	assert.Equal(t, 0.4, SpecialtyMatchScore("cardiology", "neurology"))
}

func TestDoctorExperienceScore(t *testing.T) {
	assert.Equal(t, 0.0, DoctorExperienceScore(nil))

	doctors := []Doctor{
		{ExperienceYears: 10},
		{ExperienceYears: 14},
	}
	assert.InDelta(t, 0.6, DoctorExperienceScore(doctors), 1e-9)

	// Average beyond the 20-year ceiling clamps to 1.
	veterans := []Doctor{{ExperienceYears: 30}, {ExperienceYears: 40}}
	assert.Equal(t, 1.0, DoctorExperienceScore(veterans))
}

func TestHaversineKm(t *testing.T) {
	// Same point
	assert.InDelta(t, 0.0, HaversineKm(12.9716, 77.5946, 12.9716, 77.5946), 1e-9)

	// Bengaluru to Mysuru is roughly 130 km straight-line.
	d := HaversineKm(12.9716, 77.5946, 12.2958, 76.6394)
	assert.InDelta(t, 128, d, 10)
}

func floatPtr(v float64) *float64 { return &v }

func TestScoreFacility_ProfileScheme(t *testing.T) {
	profile := Profile{
		Condition:        "cardiology",
		Location:         "Bengaluru",
		BudgetPreference: 3000,
	}
	f := Facility{
		ID:             1,
		Name:           "City Heart Institute",
		Specialization: "cardiology",
		Rating:         4.5,
		AvgCost:        6000,
	}
	doctors := []Doctor{{ExperienceYears: 10}}

	result := ScoreFacility(profile, f, doctors, ProfileWeights)

	assert.Equal(t, 1.0, result.Components.SpecialtyMatch)
	assert.Equal(t, 0.5, result.Components.DoctorExperience)
	assert.Equal(t, 0.5, result.Components.Distance) // no coordinates
	assert.Equal(t, 0.9, result.Components.Rating)
	assert.Equal(t, 0.5, result.Components.Financial)

	// 0.30*1.0 + 0.20*0.5 + 0.15*0.5 + 0.15*0.9 + 0.20*0.5
	assert.Equal(t, 0.71, result.Score)
}

func TestScoreFacility_LocationScheme(t *testing.T) {
	profile := Profile{Condition: "neurology"}
	f := Facility{
		ID:               7,
		Specialization:   "neurology",
		Rating:           4.0,
		EmergencyCapable: true,
		DistanceKm:       floatPtr(1.5),
	}

	result := ScoreFacility(profile, f, nil, LocationWeights)

	// 0.35*1.0 + 0.30*1.0 + 0.20*0.8 + 0.15*1.0
	assert.Equal(t, 0.96, result.Score)
}

func TestScoreFacility_UsesSuppliedDistance(t *testing.T) {
	profile := Profile{Latitude: floatPtr(12.9716), Longitude: floatPtr(77.5946)}
	far := Facility{Latitude: floatPtr(12.2958), Longitude: floatPtr(76.6394), DistanceKm: floatPtr(1.0)}

	// The precomputed distance wins over the coordinate-derived one.
	result := ScoreFacility(profile, far, nil, LocationWeights)
	assert.Equal(t, 1.0, result.Components.Distance)
}

func TestRank_SortsDescendingAndStable(t *testing.T) {
	profile := Profile{Condition: "cardiology", BudgetPreference: 3000}
	facilities := []Facility{
		{ID: 1, Name: "General A", Specialization: "general", Rating: 4.0, AvgCost: 2000},
		{ID: 2, Name: "Heart", Specialization: "cardiology", Rating: 4.0, AvgCost: 2000},
		{ID: 3, Name: "General B", Specialization: "general", Rating: 4.0, AvgCost: 2000},
	}

	ranked := Rank(profile, facilities, nil, ProfileWeights)
	require.Len(t, ranked, 3)

	assert.Equal(t, int64(2), ranked[0].FacilityID)
	// Identical scores keep original input order.
	assert.Equal(t, int64(1), ranked[1].FacilityID)
	assert.Equal(t, int64(3), ranked[2].FacilityID)
	assert.Equal(t, ranked[1].Score, ranked[2].Score)
}

func TestWeightSchemesAreConvex(t *testing.T) {
	sum := func(w Weights) float64 {
		return w.Specialty + w.Experience + w.Distance + w.Rating + w.Financial + w.Emergency + w.Ambulance
	}
	assert.InDelta(t, 1.0, sum(ProfileWeights), 1e-9)
	assert.InDelta(t, 1.0, sum(LocationWeights), 1e-9)
	assert.InDelta(t, 1.0, sum(EmergencyWeights), 1e-9)
}
