package assessment

import (
	"context"
	"sort"
	"strings"
)

// Selector ranks the question bank against the patient's current signals and
// returns 3-5 catalog questions.
type Selector struct {
	repo Repository
}

func NewSelector(repo Repository) *Selector {
	return &Selector{repo: repo}
}

type candidate struct {
	question QuestionBankItem
	priority int
	order    int
}

// Select builds a priority map over condition and general questions, boosts
// stress/energy categories from the current scores and rolling answer
// averages, and returns the top candidates sorted by (priority, weight).
func (s *Selector) Select(ctx context.Context, profile *PatientProfile, state *PatientState, recent []AnswerRecord) ([]QuestionBankItem, error) {
	condition := normalizeCondition(profile.Condition)

	var stressSum, stressCount, energySum, energyCount int
	for _, a := range recent {
		switch a.Category {
		case CategoryStress:
			stressSum += a.AnswerValue
			stressCount++
		case CategoryEnergy:
			energySum += a.AnswerValue
			energyCount++
		}
	}
	var stressAvg, energyAvg float64
	if stressCount > 0 {
		stressAvg = float64(stressSum) / float64(stressCount)
	}
	if energyCount > 0 {
		energyAvg = float64(energySum) / float64(energyCount)
	}

	conditionQuestions, err := s.repo.ListQuestionBank(ctx, condition, "")
	if err != nil {
		return nil, err
	}
	generalQuestions, err := s.repo.ListQuestionBank(ctx, "general", "")
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*candidate)
	ordered := make([]*candidate, 0, len(conditionQuestions)+len(generalQuestions))

	add := func(q QuestionBankItem, boost int) {
		score := q.Weight + boost
		if existing, ok := byID[q.ID]; ok {
			if score > existing.priority {
				existing.priority = score
			}
			return
		}
		c := &candidate{question: q, priority: score, order: len(ordered)}
		byID[q.ID] = c
		ordered = append(ordered, c)
	}

	for _, q := range conditionQuestions {
		add(q, 6)
	}
	for _, q := range generalQuestions {
		add(q, 2)
	}

	if state.StressScore > 60 {
		if err := s.addCategory(ctx, condition, CategoryStress, 5, add); err != nil {
			return nil, err
		}
		if err := s.addCategory(ctx, "general", CategoryStress, 3, add); err != nil {
			return nil, err
		}
	}

	if state.EnergyScore < 50 {
		if err := s.addCategory(ctx, condition, CategoryEnergy, 5, add); err != nil {
			return nil, err
		}
		if err := s.addCategory(ctx, "general", CategoryEnergy, 3, add); err != nil {
			return nil, err
		}
	}

	if state.Trend == TrendDeclining {
		for _, c := range ordered {
			if c.question.Weight >= 7 {
				c.priority += 4
			}
		}
	}

	if stressAvg >= 4 {
		for _, c := range ordered {
			if c.question.Category == CategoryStress {
				c.priority += 2
			}
		}
	}
	if energyAvg >= 4 {
		for _, c := range ordered {
			if c.question.Category == CategoryEnergy {
				c.priority += 2
			}
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].priority != ordered[j].priority {
			return ordered[i].priority > ordered[j].priority
		}
		return ordered[i].question.Weight > ordered[j].question.Weight
	})

	selected := make([]QuestionBankItem, 0, 5)
	for _, c := range ordered {
		selected = append(selected, c.question)
		if len(selected) == 5 {
			break
		}
	}

	// Backfill from the general pool when the catalog cannot cover 3.
	if len(selected) < 3 {
		seen := make(map[int64]bool, len(selected))
		for _, q := range selected {
			seen[q.ID] = true
		}
		for _, q := range generalQuestions {
			if len(selected) >= 3 {
				break
			}
			if seen[q.ID] {
				continue
			}
			selected = append(selected, q)
			seen[q.ID] = true
		}
	}

	return selected, nil
}

func (s *Selector) addCategory(ctx context.Context, condition, category string, boost int, add func(QuestionBankItem, int)) error {
	questions, err := s.repo.ListQuestionBank(ctx, condition, category)
	if err != nil {
		return err
	}
	for _, q := range questions {
		add(q, boost)
	}
	return nil
}

func normalizeCondition(condition string) string {
	normalized := strings.ToLower(strings.TrimSpace(condition))
	if normalized == "" {
		return "general"
	}
	return normalized
}
