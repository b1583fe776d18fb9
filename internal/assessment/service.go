package assessment

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carematch/internal/health"
	"carematch/internal/risk"
)

const (
	historyLimit     = 10
	assessmentWindow = 24 * time.Hour
)

// RiskEstimator is the risk collaborator; errors are recoverable and replaced
// with the deterministic fallback rule.
type RiskEstimator interface {
	Estimate(ctx context.Context, in risk.Input) (risk.Assessment, error)
}

// HealthSource supplies adherence and health-stability signals.
type HealthSource interface {
	Adherence(ctx context.Context, patientID uuid.UUID) (health.AdherenceScore, error)
	HealthPercentage(ctx context.Context, patientID uuid.UUID, adherenceRatio float64) (float64, error)
	Summarize(ctx context.Context, in health.SummaryInput) string
}

type Service interface {
	// GetOrInitState returns patient state, creating defaults on first
	// access. The bool reports whether the state was just initialized.
	GetOrInitState(ctx context.Context, patientID uuid.UUID) (*PatientState, bool, error)
	IsDue(ctx context.Context, patientID uuid.UUID) (bool, error)
	// AdaptiveQuestions returns the next question set, or (nil, false, nil)
	// when the patient is not yet due.
	AdaptiveQuestions(ctx context.Context, patientID uuid.UUID) ([]CandidateQuestion, bool, error)
	SubmitAnswers(ctx context.Context, patientID uuid.UUID, answers map[string]int, questionContext map[string]QuestionContext) (*PatientState, error)
	Summary(ctx context.Context, patientID uuid.UUID) (string, error)
}

type service struct {
	repo      Repository
	selector  *Selector
	provider  *QuestionProvider
	riskSvc   RiskEstimator
	healthSvc HealthSource
	log       *zap.Logger
	now       func() time.Time

	// Assessment submissions are a read-compute-write critical section per
	// patient; concurrent submissions for the same patient must not
	// interleave.
	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func NewService(repo Repository, selector *Selector, provider *QuestionProvider, riskSvc RiskEstimator, healthSvc HealthSource, log *zap.Logger) Service {
	return &service{
		repo:      repo,
		selector:  selector,
		provider:  provider,
		riskSvc:   riskSvc,
		healthSvc: healthSvc,
		log:       log,
		now:       time.Now,
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *service) patientLock(patientID uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[patientID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[patientID] = mu
	}
	return mu
}

func (s *service) GetOrInitState(ctx context.Context, patientID uuid.UUID) (*PatientState, bool, error) {
	state, err := s.repo.GetState(ctx, patientID)
	if err == nil {
		return state, false, nil
	}
	if err != ErrStateNotFound {
		return nil, false, err
	}

	state = &PatientState{
		PatientID:   patientID,
		StressScore: 50,
		EnergyScore: 50,
		Trend:       TrendStable,
		LastUpdated: s.now(),
	}
	if err := s.repo.UpsertState(ctx, state); err != nil {
		return nil, false, err
	}
	return state, true, nil
}

func (s *service) IsDue(ctx context.Context, patientID uuid.UUID) (bool, error) {
	state, _, err := s.GetOrInitState(ctx, patientID)
	if err != nil {
		return false, err
	}
	if state.NextAssessmentDue == nil {
		return true, nil
	}
	return !s.now().Before(*state.NextAssessmentDue), nil
}

func (s *service) AdaptiveQuestions(ctx context.Context, patientID uuid.UUID) ([]CandidateQuestion, bool, error) {
	profile, err := s.repo.GetProfile(ctx, patientID)
	if err != nil {
		return nil, false, err
	}

	due, err := s.IsDue(ctx, patientID)
	if err != nil {
		return nil, false, err
	}
	if !due {
		return nil, false, nil
	}

	state, _, err := s.GetOrInitState(ctx, patientID)
	if err != nil {
		return nil, false, err
	}

	adherence, err := s.healthSvc.Adherence(ctx, patientID)
	if err != nil {
		return nil, false, err
	}
	history, err := s.repo.HistoryQuestions(ctx, patientID, historyLimit)
	if err != nil {
		return nil, false, err
	}

	questions := s.provider.Generate(ctx, profile.Condition, state, adherence.Percentage, history)
	if allFromFallback(questions) {
		// The provider could not use the AI path; prefer the catalog
		// selector before settling for the static monitoring set.
		if db := s.catalogQuestions(ctx, profile, state, history); len(db) >= 3 {
			return db, true, nil
		}
	}
	return questions, true, nil
}

// catalogQuestions runs the bank selector, filtered against question history.
func (s *service) catalogQuestions(ctx context.Context, profile *PatientProfile, state *PatientState, history []string) []CandidateQuestion {
	recent, err := s.repo.RecentAnswers(ctx, profile.PatientID, 20)
	if err != nil {
		s.log.Warn("recent answers lookup failed", zap.Error(err))
		return nil
	}
	selected, err := s.selector.Select(ctx, profile, state, recent)
	if err != nil {
		s.log.Warn("question bank selection failed", zap.Error(err))
		return nil
	}

	historySet := normalizedSet(history)
	var result []CandidateQuestion
	for _, q := range selected {
		if historySet[normalizeText(q.QuestionText)] {
			continue
		}
		result = append(result, CandidateQuestion{
			ID:           strconv.FormatInt(q.ID, 10),
			QuestionText: q.QuestionText,
			Category:     q.Category,
			Weight:       q.Weight,
			Source:       SourceDB,
		})
		if len(result) == 5 {
			break
		}
	}
	return result
}

// SubmitAnswers applies weighted answer deltas to the patient scores,
// derives the trend, schedules the next assessment, and persists a fresh
// risk judgment. The update is atomic from the caller's perspective.
func (s *service) SubmitAnswers(ctx context.Context, patientID uuid.UUID, answers map[string]int, questionContext map[string]QuestionContext) (*PatientState, error) {
	mu := s.patientLock(patientID)
	mu.Lock()
	defer mu.Unlock()

	profile, err := s.repo.GetProfile(ctx, patientID)
	if err != nil {
		return nil, err
	}

	state, _, err := s.GetOrInitState(ctx, patientID)
	if err != nil {
		return nil, err
	}

	prevStress := float64(state.StressScore)
	prevEnergy := float64(state.EnergyScore)
	newStress := prevStress
	newEnergy := prevEnergy

	now := s.now()
	nextDue := now.Add(assessmentWindow)

	keys := make([]string, 0, len(answers))
	for key := range answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := answers[key]

		var catalogItem *QuestionBankItem
		if id, perr := strconv.ParseInt(key, 10, 64); perr == nil {
			// Unknown catalog ids resolve to (nil, nil): use context metadata.
			catalogItem, err = s.repo.GetQuestionBankItem(ctx, id)
			if err != nil {
				return nil, err
			}
			if catalogItem != nil {
				if err := s.repo.SaveAnswer(ctx, patientID, id, value, now); err != nil {
					return nil, err
				}
			}
		}

		weight, category, questionText := resolveQuestionMeta(catalogItem, key, questionContext)

		if err := s.repo.AppendHistory(ctx, patientID, questionText, value, now); err != nil {
			return nil, err
		}

		// Higher answer values mean worse symptoms: stress questions push
		// stress up, energy questions pull energy down.
		weightFactor := float64(weight) / 10.0
		switch category {
		case CategoryStress:
			newStress += float64(value) * weightFactor
		case CategoryEnergy:
			newEnergy -= float64(value) * weightFactor
		}
	}

	stress := clampScore(newStress)
	energy := clampScore(newEnergy)
	trend := classifyTrend(float64(stress)-prevStress, float64(energy)-prevEnergy)

	assessment := s.estimateRisk(ctx, profile, patientID, stress, energy, trend)

	state.StressScore = stress
	state.EnergyScore = energy
	state.Trend = trend
	state.LastUpdated = now
	state.LastAssessmentAt = &now
	state.NextAssessmentDue = &nextDue
	state.RiskLevel = &assessment.Level
	state.RiskProbability = &assessment.Probability
	state.RiskReason = &assessment.Reason
	state.Recommendation = &assessment.Recommendation

	if err := s.repo.UpsertState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func resolveQuestionMeta(catalogItem *QuestionBankItem, key string, questionContext map[string]QuestionContext) (weight int, category, questionText string) {
	if catalogItem != nil {
		return catalogItem.Weight, catalogItem.Category, catalogItem.QuestionText
	}

	meta, ok := questionContext[key]
	if !ok {
		return 6, CategoryStress, "Adaptive assessment question"
	}
	weight = meta.Weight
	if weight == 0 {
		weight = 6
	}
	category = meta.Category
	if category == "" {
		category = CategoryStress
	}
	questionText = meta.QuestionText
	if questionText == "" {
		questionText = "Adaptive assessment question"
	}
	return weight, category, questionText
}

func (s *service) estimateRisk(ctx context.Context, profile *PatientProfile, patientID uuid.UUID, stress, energy int, trend Trend) risk.Assessment {
	adherence, err := s.healthSvc.Adherence(ctx, patientID)
	if err != nil {
		s.log.Warn("adherence lookup failed", zap.Error(err))
	}

	var history []string
	entries, err := s.repo.HistoryEntries(ctx, patientID, historyLimit)
	if err != nil {
		s.log.Warn("assessment history lookup failed", zap.Error(err))
	}
	for _, e := range entries {
		history = append(history, fmt.Sprintf("%s (answer: %d)", e.Question, e.Answer))
	}

	assessment, err := s.riskSvc.Estimate(ctx, risk.Input{
		Condition:        normalizeCondition(profile.Condition),
		StressScore:      stress,
		EnergyScore:      energy,
		AdherencePercent: adherence.Percentage,
		Trend:            string(trend),
		History:          history,
	})
	if err == nil {
		return assessment
	}

	s.log.Warn("risk estimation failed, using deterministic fallback",
		zap.String("patient_id", patientID.String()), zap.Error(err))

	healthPercent, herr := s.healthSvc.HealthPercentage(ctx, patientID, adherence.Ratio)
	if herr != nil {
		s.log.Warn("health percentage lookup failed", zap.Error(herr))
	}
	return risk.Fallback(healthPercent, adherence.Percentage)
}

func (s *service) Summary(ctx context.Context, patientID uuid.UUID) (string, error) {
	profile, err := s.repo.GetProfile(ctx, patientID)
	if err != nil {
		return "", err
	}
	state, _, err := s.GetOrInitState(ctx, patientID)
	if err != nil {
		return "", err
	}
	adherence, err := s.healthSvc.Adherence(ctx, patientID)
	if err != nil {
		return "", err
	}
	recent, err := s.repo.RecentAnswers(ctx, patientID, 20)
	if err != nil {
		return "", err
	}

	samples := make([]health.AnswerSample, 0, len(recent))
	for _, a := range recent {
		samples = append(samples, health.AnswerSample{Value: a.AnswerValue, Category: a.Category})
	}

	return s.healthSvc.Summarize(ctx, health.SummaryInput{
		Condition:        profile.Condition,
		StressHistory:    health.FormatAnswerHistory(samples, CategoryStress),
		EnergyHistory:    health.FormatAnswerHistory(samples, CategoryEnergy),
		AdherenceHistory: health.AdherenceLine(adherence),
		Trend:            string(state.Trend),
	}), nil
}

// classifyTrend partitions the (Δstress, Δenergy) sign pairs: worse on both
// axes is declining, better on both is improving, anything else is stable.
func classifyTrend(stressDelta, energyDelta float64) Trend {
	if stressDelta > 0 && energyDelta < 0 {
		return TrendDeclining
	}
	if stressDelta < 0 && energyDelta > 0 {
		return TrendImproving
	}
	return TrendStable
}

func clampScore(v float64) int {
	rounded := int(math.Round(v))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

func allFromFallback(questions []CandidateQuestion) bool {
	for _, q := range questions {
		if q.Source != SourceFallback {
			return false
		}
	}
	return len(questions) > 0
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
