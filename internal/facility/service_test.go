package facility

import (
	"context"
	"errors"
	"testing"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	facilities []Facility
	emergency  []Facility
	doctors    map[int64][]Doctor
	err        error
}

func (f *fakeRepo) ListFacilities(ctx context.Context) ([]Facility, error) {
	return f.facilities, f.err
}

func (f *fakeRepo) ListEmergencyFacilities(ctx context.Context) ([]Facility, error) {
	return f.emergency, f.err
}

func (f *fakeRepo) GetFacility(ctx context.Context, id int64) (*Facility, error) {
	for i := range f.facilities {
		if f.facilities[i].ID == id {
			return &f.facilities[i], nil
		}
	}
	return nil, ErrFacilityNotFound
}

func (f *fakeRepo) DoctorsByFacility(ctx context.Context, facilityID int64) ([]Doctor, error) {
	return f.doctors[facilityID], nil
}

type fakeSource struct {
	facilities []Facility
	err        error
	calls      int
}

func (f *fakeSource) Nearby(ctx context.Context, lat, lon float64, radiusM, limit int) ([]Facility, error) {
	f.calls++
	return f.facilities, f.err
}

type fakeGeocoder struct {
	lat, lon float64
	ok       bool
	err      error
	calls    int
}

func (f *fakeGeocoder) Geocode(ctx context.Context, location string) (float64, float64, bool, error) {
	f.calls++
	return f.lat, f.lon, f.ok, f.err
}

type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	f.calls++
	return f.response, f.err
}

func newTestService(repo Repository, source CandidateSource, geocoder Geocoder, ai *fakeCompleter) *Service {
	log := zap.NewNop()
	inferrer := NewInferrer(ai, gocache.New(time.Minute, time.Minute), log)
	return NewService(repo, source, geocoder, inferrer, log)
}

func TestRankForProfile(t *testing.T) {
	repo := &fakeRepo{
		facilities: []Facility{
			{ID: 1, Name: "City General", Specialization: "general", Rating: 4.0, AvgCost: 2000},
			{ID: 2, Name: "Heart Institute", Specialization: "cardiology", Rating: 4.5, AvgCost: 5000},
		},
		doctors: map[int64][]Doctor{
			1: {{ExperienceYears: 8}},
			2: {{ExperienceYears: 15}, {ExperienceYears: 17}},
		},
	}
	svc := newTestService(repo, &fakeSource{}, &fakeGeocoder{}, &fakeCompleter{})

	ranked, err := svc.RankForProfile(context.Background(), Profile{
		Condition:        "cardiology",
		BudgetPreference: 5000,
	})
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, int64(2), ranked[0].FacilityID)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
	for _, r := range ranked {
		assert.NotEmpty(t, r.Explanation)
	}
}

func TestRankForProfile_RepoError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	svc := newTestService(repo, &fakeSource{}, &fakeGeocoder{}, &fakeCompleter{})

	_, err := svc.RankForProfile(context.Background(), Profile{Condition: "general"})
	assert.Error(t, err)
}

func TestRankNearby_UsesSuppliedCoordinates(t *testing.T) {
	source := &fakeSource{facilities: []Facility{
		{ID: 900000001, Name: "Nearby Hospital", Specialization: "general", Rating: 4.0, DistanceKm: floatPtr(1.2), EmergencyCapable: true},
	}}
	geocoder := &fakeGeocoder{}
	svc := newTestService(&fakeRepo{}, source, geocoder, &fakeCompleter{})

	ranked, err := svc.RankNearby(context.Background(), Profile{
		Condition: "general",
		Latitude:  floatPtr(12.97),
		Longitude: floatPtr(77.59),
	}, 15000, 25)
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	assert.Equal(t, 0, geocoder.calls)
	assert.Equal(t, 1, source.calls)
	// distance 0.35 + specialty 0.30 + rating 0.16 + emergency 0.15
	assert.InDelta(t, 0.96, ranked[0].Score, 1e-9)
}

func TestRankNearby_GeocodesLocation(t *testing.T) {
	source := &fakeSource{facilities: []Facility{
		{ID: 1, Name: "Clinic", Specialization: "general", Rating: 4.0, DistanceKm: floatPtr(3.0)},
	}}
	geocoder := &fakeGeocoder{lat: 12.97, lon: 77.59, ok: true}
	svc := newTestService(&fakeRepo{}, source, geocoder, &fakeCompleter{})

	ranked, err := svc.RankNearby(context.Background(), Profile{
		Condition: "general",
		Location:  "Bengaluru",
	}, 15000, 25)
	require.NoError(t, err)

	assert.Equal(t, 1, geocoder.calls)
	assert.Len(t, ranked, 1)
}

func TestRankNearby_UnresolvableLocation(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		geocoder *fakeGeocoder
	}{
		{
			name:     "no location and no coordinates",
			profile:  Profile{Condition: "general"},
			geocoder: &fakeGeocoder{},
		},
		{
			name:     "geocoder miss",
			profile:  Profile{Condition: "general", Location: "Nowhereville"},
			geocoder: &fakeGeocoder{ok: false},
		},
		{
			name:     "geocoder error",
			profile:  Profile{Condition: "general", Location: "Bengaluru"},
			geocoder: &fakeGeocoder{err: errors.New("timeout")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{facilities: []Facility{{ID: 1, Name: "Clinic"}}}
			svc := newTestService(&fakeRepo{}, source, tt.geocoder, &fakeCompleter{})

			ranked, err := svc.RankNearby(context.Background(), tt.profile, 15000, 25)
			require.NoError(t, err)
			assert.Empty(t, ranked)
			assert.Equal(t, 0, source.calls)
		})
	}
}

func TestRankNearby_SourceFailureIsEmptyNotError(t *testing.T) {
	source := &fakeSource{err: errors.New("all endpoints failed")}
	svc := newTestService(&fakeRepo{}, source, &fakeGeocoder{}, &fakeCompleter{})

	ranked, err := svc.RankNearby(context.Background(), Profile{
		Condition: "general",
		Latitude:  floatPtr(12.97),
		Longitude: floatPtr(77.59),
	}, 15000, 25)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestRankNearby_InfersMissingSpecialization(t *testing.T) {
	source := &fakeSource{facilities: []Facility{
		{ID: 1, Name: "Apollo Heart Centre", DistanceKm: floatPtr(1.0), Rating: 4.0},
		{ID: 2, Name: "Known Clinic", Specialization: "neurology", DistanceKm: floatPtr(1.0), Rating: 4.0},
	}}
	ai := &fakeCompleter{response: "cardiology"}
	svc := newTestService(&fakeRepo{}, source, &fakeGeocoder{}, ai)

	ranked, err := svc.RankNearby(context.Background(), Profile{
		Condition: "cardiology",
		Latitude:  floatPtr(12.97),
		Longitude: floatPtr(77.59),
	}, 15000, 25)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, 1, ai.calls)
	assert.Equal(t, "cardiology", ranked[0].Specialization)
	assert.Equal(t, "neurology", ranked[1].Specialization)
}

func TestRecommendEmergency(t *testing.T) {
	repo := &fakeRepo{emergency: []Facility{
		{ID: 1, Name: "Far ER", EmergencyCapable: true, AmbulanceAvailable: true, Rating: 4.8, DistanceKm: floatPtr(60)},
		{ID: 2, Name: "Close ER", EmergencyCapable: true, AmbulanceAvailable: true, Rating: 4.2, DistanceKm: floatPtr(1.5)},
	}}
	svc := newTestService(repo, &fakeSource{}, &fakeGeocoder{}, &fakeCompleter{})

	best, err := svc.RecommendEmergency(context.Background(), Profile{Condition: "general"})
	require.NoError(t, err)
	require.NotNil(t, best)

	assert.Equal(t, int64(2), best.FacilityID)
	assert.NotEmpty(t, best.Explanation)
}

func TestRecommendEmergency_NoCandidates(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeSource{}, &fakeGeocoder{}, &fakeCompleter{})

	best, err := svc.RecommendEmergency(context.Background(), Profile{Condition: "general"})
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestFacilityDetail(t *testing.T) {
	repo := &fakeRepo{
		facilities: []Facility{{ID: 3, Name: "Heart Institute", Specialization: "cardiology"}},
		doctors:    map[int64][]Doctor{3: {{ID: 1, Name: "Dr. Rao", ExperienceYears: 12}}},
	}
	svc := newTestService(repo, &fakeSource{}, &fakeGeocoder{}, &fakeCompleter{})

	detail, err := svc.FacilityDetail(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, "Heart Institute", detail.Name)
	assert.Equal(t, "Cardiology", detail.SpecializationDisplay)
	require.Len(t, detail.Doctors, 1)
	assert.Equal(t, "Dr. Rao", detail.Doctors[0].Name)
}

func TestFacilityDetail_NotFound(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeSource{}, &fakeGeocoder{}, &fakeCompleter{})

	_, err := svc.FacilityDetail(context.Background(), 42)
	assert.ErrorIs(t, err, ErrFacilityNotFound)
}

func TestInferrer_NormalizesAndCaches(t *testing.T) {
	ai := &fakeCompleter{response: " Orthopaedics \n"}
	inferrer := NewInferrer(ai, gocache.New(time.Minute, time.Minute), zap.NewNop())

	first := inferrer.Infer(context.Background(), "Bone & Joint Hospital")
	second := inferrer.Infer(context.Background(), "bone & joint hospital")

	assert.Equal(t, "orthopedics", first)
	assert.Equal(t, "orthopedics", second)
	assert.Equal(t, 1, ai.calls)
}

func TestInferrer_FailureYieldsGeneral(t *testing.T) {
	tests := []struct {
		name string
		ai   *fakeCompleter
	}{
		{"provider error", &fakeCompleter{err: errors.New("unreachable")}},
		{"off-list answer", &fakeCompleter{response: "dermatology"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inferrer := NewInferrer(tt.ai, gocache.New(time.Minute, time.Minute), zap.NewNop())
			assert.Equal(t, "general", inferrer.Infer(context.Background(), "Some Hospital"))
		})
	}
}

func TestDisplaySpecialization(t *testing.T) {
	assert.Equal(t, "General Medicine", DisplaySpecialization(""))
	assert.Equal(t, "General Medicine", DisplaySpecialization("general"))
	assert.Equal(t, "Multi Speciality", DisplaySpecialization("multispecialty"))
	assert.Equal(t, "Cardiology", DisplaySpecialization("cardiology"))
	assert.Equal(t, "General Medicine", DisplaySpecialization("General Medicine"))
}
