package health

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carematch/internal/agent"
)

// Service owns adherence tracking, health stability scoring, and the AI
// clinical summary.
type Service struct {
	repo Repository
	ai   agent.CompletionClient
	log  *zap.Logger
}

func NewService(repo Repository, ai agent.CompletionClient, log *zap.Logger) *Service {
	return &Service{repo: repo, ai: ai, log: log}
}

func (s *Service) AddMedicine(ctx context.Context, m *Medicine) error {
	return s.repo.AddMedicine(ctx, m)
}

func (s *Service) LogDoseTaken(ctx context.Context, medicineID int64) error {
	return s.repo.LogDoseTaken(ctx, medicineID)
}

func (s *Service) Medicines(ctx context.Context, patientID uuid.UUID) ([]Medicine, error) {
	return s.repo.Medicines(ctx, patientID)
}

// Adherence computes taken/total across all of the patient's medicines.
// No medicines means a zero score, not an error.
func (s *Service) Adherence(ctx context.Context, patientID uuid.UUID) (AdherenceScore, error) {
	medicines, err := s.repo.Medicines(ctx, patientID)
	if err != nil {
		return AdherenceScore{}, err
	}
	return ComputeAdherence(medicines), nil
}

// ComputeAdherence is the pure adherence calculation over a medicine list.
func ComputeAdherence(medicines []Medicine) AdherenceScore {
	if len(medicines) == 0 {
		return AdherenceScore{}
	}

	var taken, total int
	for _, m := range medicines {
		taken += m.TakenCount
		total += m.TotalCount
	}

	var ratio float64
	if total > 0 {
		ratio = float64(taken) / float64(total)
	}
	return AdherenceScore{
		Ratio:      round4(ratio),
		Percentage: round2(ratio * 100),
		Taken:      taken,
		Total:      total,
	}
}

// RecordHealthLog persists a daily check-in and returns the stability score
// computed against current adherence.
func (s *Service) RecordHealthLog(ctx context.Context, l *HealthLog) (Stability, error) {
	adherence, err := s.Adherence(ctx, l.PatientID)
	if err != nil {
		return Stability{}, err
	}
	if err := s.repo.CreateHealthLog(ctx, l); err != nil {
		return Stability{}, err
	}
	return ComputeStability(l.SleepHours, l.StressLevel, l.EnergyLevel, adherence.Ratio), nil
}

// HealthPercentage derives the stability percentage from the latest health
// log. A patient with no logs scores zero.
func (s *Service) HealthPercentage(ctx context.Context, patientID uuid.UUID, adherenceRatio float64) (float64, error) {
	latest, err := s.repo.LatestHealthLog(ctx, patientID)
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return 0, nil
	}
	stability := ComputeStability(latest.SleepHours, latest.StressLevel, latest.EnergyLevel, adherenceRatio)
	return stability.Percentage, nil
}
