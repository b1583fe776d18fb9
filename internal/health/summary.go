package health

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"carematch/internal/agent"
)

const (
	summaryUnavailableNoKey = "Health summary unavailable: completion provider is not configured. " +
		"Continue monitoring adherence, stress, and energy trends daily."
	summaryUnavailableEmpty = "Clinical summary unavailable from AI response. " +
		"Continue current monitoring and follow-up plan."
	summaryUnavailableError = "Clinical summary temporarily unavailable. " +
		"Use current risk level, adherence score, and trend for immediate decisions."
)

// SummaryInput is the prepared prompt context for the clinical summary.
type SummaryInput struct {
	Condition        string
	StressHistory    string
	EnergyHistory    string
	AdherenceHistory string
	Trend            string
}

// FormatAnswerHistory renders the last answer values of one category as a
// comma-joined line, capped at 10 samples.
func FormatAnswerHistory(samples []AnswerSample, category string) string {
	var values []string
	for _, sample := range samples {
		if sample.Category != category {
			continue
		}
		values = append(values, strconv.Itoa(sample.Value))
		if len(values) == 10 {
			break
		}
	}
	if len(values) == 0 {
		return "No recent data"
	}
	return strings.Join(values, ", ")
}

// AdherenceLine renders the adherence score for the summary prompt.
func AdherenceLine(score AdherenceScore) string {
	return fmt.Sprintf("Current adherence: %.2f%% (%d/%d doses)", score.Percentage, score.Taken, score.Total)
}

// Summarize asks the completion provider for a concise clinical summary.
// Every failure mode degrades to a static, actionable text.
func (s *Service) Summarize(ctx context.Context, in SummaryInput) string {
	prompt := fmt.Sprintf(`You are a clinical health analysis AI.

Patient condition: %s

Stress history:
%s

Energy history:
%s

Adherence history:
%s

Trend: %s

Generate a concise clinical summary.

Include:

- overall progression
- risk pattern
- clinical interpretation
- recommendation

Limit to 4 sentences.`,
		in.Condition, in.StressHistory, in.EnergyHistory, in.AdherenceHistory, in.Trend)

	text, err := s.ai.Complete(ctx, prompt, 0.5)
	if err != nil {
		if errors.Is(err, agent.ErrNotConfigured) {
			return summaryUnavailableNoKey
		}
		s.log.Warn("health summary generation failed", zap.Error(err))
		return summaryUnavailableError
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return summaryUnavailableEmpty
	}
	return text
}
