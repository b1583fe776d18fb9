package assessment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"carematch/internal/agent"
)

const questionCount = 3

// QuestionProvider asks the completion provider for adaptive questions and
// guarantees exactly 3 clean, non-repeating questions regardless of what the
// provider returns.
type QuestionProvider struct {
	ai  agent.CompletionClient
	log *zap.Logger
}

func NewQuestionProvider(ai agent.CompletionClient, log *zap.Logger) *QuestionProvider {
	return &QuestionProvider{ai: ai, log: log}
}

// Generate returns exactly 3 candidate questions. AI output is cleaned and
// deduplicated against history; any provider failure replaces the whole batch
// with the condition fallback catalog.
func (p *QuestionProvider) Generate(ctx context.Context, condition string, state *PatientState, adherencePercent float64, history []string) []CandidateQuestion {
	prompt := buildQuestionPrompt(condition, state, adherencePercent, history)

	text, err := p.ai.Complete(ctx, prompt, 0.9)
	if err != nil {
		p.log.Warn("question generation failed, using fallback catalog",
			zap.String("condition", condition), zap.Error(err))
		return p.fallbackBatch(condition, history)
	}

	historySet := normalizedSet(history)
	var accepted []string
	for _, line := range strings.Split(text, "\n") {
		question := cleanQuestionLine(line)
		if question == "" {
			continue
		}
		normalized := strings.ToLower(question)
		if historySet[normalized] || containsFold(accepted, normalized) {
			continue
		}
		accepted = append(accepted, question)
		if len(accepted) == questionCount {
			break
		}
	}

	if len(accepted) == 0 {
		return p.fallbackBatch(condition, history)
	}
	accepted = topUpFromCatalog(accepted, condition, historySet)

	result := make([]CandidateQuestion, 0, questionCount)
	for i, question := range accepted {
		result = append(result, CandidateQuestion{
			ID:           fmt.Sprintf("ai_%d", i+1),
			QuestionText: question,
			Category:     inferCategory(question),
			Weight:       6,
			Source:       SourceAI,
		})
	}
	return result
}

// FallbackQuestions returns the static catalog for a condition. It always has
// exactly 3 entries.
func FallbackQuestions(condition string) []string {
	switch normalizeCondition(condition) {
	case "neurology":
		return []string{
			"Have your headaches increased in frequency or intensity today?",
			"Did you notice more difficulty concentrating on simple tasks today?",
			"Have you experienced unusual imbalance or reduced coordination today?",
		}
	case "cardiology":
		return []string{
			"Did you feel chest discomfort during stress or light activity today?",
			"Did you feel more shortness of breath than usual today?",
			"Did fatigue or palpitations limit your routine activities today?",
		}
	case "diabetes":
		return []string{
			"Did you experience sudden weakness or shakiness today?",
			"Did stress make you feel dizzy or physically drained today?",
			"Was your energy level less stable than yesterday?",
		}
	default:
		return []string{
			"Have symptoms worsened today?",
			"How is your energy level compared to yesterday?",
			"Do you feel more or less stressed today?",
		}
	}
}

func (p *QuestionProvider) fallbackBatch(condition string, history []string) []CandidateQuestion {
	accepted := topUpFromCatalog(nil, condition, normalizedSet(history))

	result := make([]CandidateQuestion, 0, questionCount)
	for i, question := range accepted {
		result = append(result, CandidateQuestion{
			ID:           fmt.Sprintf("fallback_%d", i+1),
			QuestionText: question,
			Category:     inferCategory(question),
			Weight:       6,
			Source:       SourceFallback,
		})
	}
	return result
}

// topUpFromCatalog fills accepted to exactly 3 entries: first with catalog
// questions not in history, then by cycling the catalog by index.
func topUpFromCatalog(accepted []string, condition string, historySet map[string]bool) []string {
	catalog := FallbackQuestions(condition)

	for _, question := range catalog {
		if len(accepted) == questionCount {
			return accepted
		}
		normalized := strings.ToLower(question)
		if historySet[normalized] || containsFold(accepted, normalized) {
			continue
		}
		accepted = append(accepted, question)
	}
	for i := 0; len(accepted) < questionCount; i++ {
		accepted = append(accepted, catalog[i%len(catalog)])
	}
	return accepted
}

// cleanQuestionLine strips numbering, bullets, and surrounding quotes.
func cleanQuestionLine(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "-*• ")
	for len(s) > 0 && s[0] >= '0' && s[0] <= '9' {
		s = s[1:]
	}
	s = strings.TrimLeft(s, ".) ")
	s = strings.Trim(s, "\"'")
	return strings.TrimSpace(s)
}

var energyKeywords = []string{"fatigue", "weak", "energy", "tired", "exhausted"}

func inferCategory(questionText string) string {
	normalized := strings.ToLower(questionText)
	for _, word := range energyKeywords {
		if strings.Contains(normalized, word) {
			return CategoryEnergy
		}
	}
	return CategoryStress
}

func normalizedSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		set[strings.ToLower(trimmed)] = true
	}
	return set
}

func containsFold(values []string, normalized string) bool {
	for _, v := range values {
		if strings.ToLower(v) == normalized {
			return true
		}
	}
	return false
}

func conditionInstruction(condition string) string {
	switch normalizeCondition(condition) {
	case "neurology":
		return "Condition-specific instruction: Generate neurological-specific questions " +
			"focusing on cognitive fatigue, headaches, concentration, neurological " +
			"function, and coordination. Do not use generic stress-only questions."
	case "cardiology":
		return "Condition-specific instruction: Focus on chest discomfort patterns, " +
			"breathlessness, exertion tolerance, and stress-triggered cardiac symptoms."
	case "diabetes":
		return "Condition-specific instruction: Focus on energy dips, weakness, dizziness, " +
			"hydration/thirst signals, and day-to-day glucose stability indicators."
	default:
		return "Condition-specific instruction: Keep questions aligned with the diagnosed " +
			"condition and recent clinical trend changes."
	}
}

func buildQuestionPrompt(condition string, state *PatientState, adherencePercent float64, history []string) string {
	historyText := "None"
	if len(history) > 0 {
		historyText = strings.Join(history, "\n")
	}

	return fmt.Sprintf(`You are an advanced clinical assessment AI.

Patient condition: %s
Stress score: %d
Energy score: %d
Trend: %s
Adherence score: %.2f

Previously asked questions:
%s

%s

Generate exactly 3 NEW clinically relevant adaptive questions.

STRICT RULES:
- DO NOT repeat any previously asked questions
- Questions must be specific to condition and current declining areas
- Focus on stress, fatigue, neurological, or physical deterioration
- Each question must be unique
- Each question must be on a new line`,
		condition, state.StressScore, state.EnergyScore, state.Trend,
		adherencePercent, historyText, conditionInstruction(condition))
}
