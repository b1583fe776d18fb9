package facility

import (
	"context"

	"go.uber.org/zap"
)

// CandidateSource supplies geolocation-based facility candidates. An empty
// result is not an error.
type CandidateSource interface {
	Nearby(ctx context.Context, lat, lon float64, radiusM, limit int) ([]Facility, error)
}

// Geocoder resolves a location name to coordinates; ok is false when the
// location could not be resolved.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (lat, lon float64, ok bool, err error)
}

type Service struct {
	repo     Repository
	source   CandidateSource
	geocoder Geocoder
	inferrer *Inferrer
	log      *zap.Logger
}

func NewService(repo Repository, source CandidateSource, geocoder Geocoder, inferrer *Inferrer, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		source:   source,
		geocoder: geocoder,
		inferrer: inferrer,
		log:      log,
	}
}

// RankForProfile ranks repository facilities with the profile scheme and
// attaches explanations.
func (s *Service) RankForProfile(ctx context.Context, p Profile) ([]ScoreResult, error) {
	facilities, err := s.repo.ListFacilities(ctx)
	if err != nil {
		return nil, err
	}

	doctorsByFacility := make(map[int64][]Doctor, len(facilities))
	for _, f := range facilities {
		doctors, err := s.repo.DoctorsByFacility(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		doctorsByFacility[f.ID] = doctors
	}

	ranked := Rank(p, facilities, doctorsByFacility, ProfileWeights)
	attachExplanations(ranked)
	return ranked, nil
}

// RankNearby geocodes the profile location when coordinates are absent,
// fetches candidates around it, infers missing specializations, and ranks
// with the location scheme. Zero candidates ranks to an empty list.
func (s *Service) RankNearby(ctx context.Context, p Profile, radiusM, limit int) ([]ScoreResult, error) {
	lat, lon, ok := s.resolveCoordinates(ctx, p)
	if !ok {
		return []ScoreResult{}, nil
	}
	p.Latitude = &lat
	p.Longitude = &lon

	candidates, err := s.source.Nearby(ctx, lat, lon, radiusM, limit)
	if err != nil {
		// External lookup failures are recoverable: rank what we have,
		// which is nothing.
		s.log.Warn("nearby facility lookup failed", zap.Error(err))
		return []ScoreResult{}, nil
	}

	for i := range candidates {
		if candidates[i].Specialization == "" {
			candidates[i].Specialization = s.inferrer.Infer(ctx, candidates[i].Name)
		}
	}

	ranked := Rank(p, candidates, nil, LocationWeights)
	attachExplanations(ranked)
	return ranked, nil
}

// FacilityDetail loads one facility with its doctor roster and a
// human-readable specialization label.
func (s *Service) FacilityDetail(ctx context.Context, id int64) (*FacilityDetail, error) {
	f, err := s.repo.GetFacility(ctx, id)
	if err != nil {
		return nil, err
	}
	doctors, err := s.repo.DoctorsByFacility(ctx, id)
	if err != nil {
		return nil, err
	}

	return &FacilityDetail{
		Facility:              *f,
		Doctors:               doctors,
		SpecializationDisplay: DisplaySpecialization(f.Specialization),
	}, nil
}

// RecommendEmergency returns the single best emergency destination, or nil
// when no emergency-capable facility exists.
func (s *Service) RecommendEmergency(ctx context.Context, p Profile) (*ScoreResult, error) {
	facilities, err := s.repo.ListEmergencyFacilities(ctx)
	if err != nil {
		return nil, err
	}
	if len(facilities) == 0 {
		return nil, nil
	}

	ranked := Rank(p, facilities, nil, EmergencyWeights)
	best := ranked[0]
	best.Explanation = Explain(best.Components)
	return &best, nil
}

func (s *Service) resolveCoordinates(ctx context.Context, p Profile) (float64, float64, bool) {
	if p.Latitude != nil && p.Longitude != nil {
		return *p.Latitude, *p.Longitude, true
	}
	if p.Location == "" {
		return 0, 0, false
	}

	lat, lon, ok, err := s.geocoder.Geocode(ctx, p.Location)
	if err != nil {
		s.log.Warn("geocoding failed", zap.String("location", p.Location), zap.Error(err))
		return 0, 0, false
	}
	return lat, lon, ok
}

func attachExplanations(results []ScoreResult) {
	for i := range results {
		results[i].Explanation = Explain(results[i].Components)
	}
}
