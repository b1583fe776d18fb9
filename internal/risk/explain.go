package risk

import "strings"

// RecommendationSummary renders the doctor-facing summary block for a risk
// tier and its suggested action.
func RecommendationSummary(level, recommendation string) string {
	lines := []string{
		"Doctor Recommendation Summary:",
		"- Current risk level: " + level,
		"- Suggested action: " + recommendation,
	}

	switch level {
	case LevelLow:
		lines = append(lines, "- Continue medication adherence and daily monitoring")
	case LevelModerate:
		lines = append(lines, "- Book an appointment and review symptoms soon")
	default:
		lines = append(lines, "- Contact doctor or emergency services immediately")
	}

	return strings.Join(lines, "\n")
}
