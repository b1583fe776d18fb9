package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"carematch/internal/agent"
)

const (
	LevelLow      = "LOW"
	LevelModerate = "MODERATE"
	LevelHigh     = "HIGH"
)

const (
	defaultReason         = "Risk estimated from patient state."
	defaultRecommendation = "Continue monitoring and follow clinical guidance."
	fallbackReason        = "Fallback rule-based risk from adherence and health stability."
)

// Input carries the patient signals the estimator reasons over.
type Input struct {
	Condition        string
	StressScore      int
	EnergyScore      int
	AdherencePercent float64
	Trend            string
	History          []string
}

// Assessment is the validated risk judgment persisted into patient state.
type Assessment struct {
	Level          string `json:"risk_level"`
	Probability    int    `json:"risk_probability"`
	Reason         string `json:"reason"`
	Recommendation string `json:"recommendation"`
}

// Estimator asks the completion provider for a strict-JSON risk judgment.
// Errors are recoverable: callers substitute Fallback instead of failing.
type Estimator struct {
	ai agent.CompletionClient
}

func NewEstimator(ai agent.CompletionClient) *Estimator {
	return &Estimator{ai: ai}
}

func (e *Estimator) Estimate(ctx context.Context, in Input) (Assessment, error) {
	text, err := e.ai.Complete(ctx, buildRiskPrompt(in), 0.3)
	if err != nil {
		return Assessment{}, err
	}
	return ParseResponse(text)
}

// ParseResponse strips markdown fences, parses the provider JSON, and clamps
// or defaults every out-of-range field rather than rejecting it.
func ParseResponse(text string) (Assessment, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.ReplaceAll(cleaned, "```json", "")
		cleaned = strings.ReplaceAll(cleaned, "```", "")
		cleaned = strings.TrimSpace(cleaned)
	}

	var parsed struct {
		RiskLevel       string   `json:"risk_level"`
		RiskProbability *float64 `json:"risk_probability"`
		Reason          string   `json:"reason"`
		Recommendation  string   `json:"recommendation"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return Assessment{}, &agent.ProviderError{Op: "risk parse", Err: err}
	}

	level := strings.ToUpper(strings.TrimSpace(parsed.RiskLevel))
	if level != LevelLow && level != LevelModerate && level != LevelHigh {
		level = LevelModerate
	}

	probability := 50
	if parsed.RiskProbability != nil {
		probability = int(math.Round(*parsed.RiskProbability))
	}
	if probability < 0 {
		probability = 0
	}
	if probability > 100 {
		probability = 100
	}

	reason := strings.TrimSpace(parsed.Reason)
	if reason == "" {
		reason = defaultReason
	}
	recommendation := strings.TrimSpace(parsed.Recommendation)
	if recommendation == "" {
		recommendation = defaultRecommendation
	}

	return Assessment{
		Level:          level,
		Probability:    probability,
		Reason:         reason,
		Recommendation: recommendation,
	}, nil
}

// Fallback is the deterministic rule used when the provider is unusable:
// HIGH when health is at or below 60, LOW only when both health and
// adherence clear 80, MODERATE otherwise.
func Fallback(healthPercent, adherencePercent float64) Assessment {
	level := LevelModerate
	switch {
	case healthPercent <= 60:
		level = LevelHigh
	case healthPercent > 80 && adherencePercent > 80:
		level = LevelLow
	}

	probability := map[string]int{
		LevelLow:      25,
		LevelModerate: 60,
		LevelHigh:     85,
	}[level]

	return Assessment{
		Level:          level,
		Probability:    probability,
		Reason:         fallbackReason,
		Recommendation: RecommendationForLevel(level),
	}
}

// RecommendationForLevel maps a risk tier to its fixed clinical action.
func RecommendationForLevel(level string) string {
	switch level {
	case LevelLow:
		return "Continue current treatment"
	case LevelHigh:
		return "Immediate medical consultation required"
	default:
		return "Schedule appointment soon"
	}
}

func buildRiskPrompt(in Input) string {
	historyText := "None"
	if len(in.History) > 0 {
		historyText = strings.Join(in.History, "\n")
	}

	return fmt.Sprintf(`You are an advanced clinical triage AI.

Patient condition: %s
Stress score: %d
Energy score: %d
Adherence score: %.2f
Trend: %s

Assessment history:
%s

Analyze patient risk.

Return STRICT JSON format:

{
  "risk_level": "LOW or MODERATE or HIGH",
  "risk_probability": number between 0 and 100,
  "reason": short explanation,
  "recommendation": short clinical recommendation
}`, in.Condition, in.StressScore, in.EnergyScore, in.AdherencePercent, in.Trend, historyText)
}
