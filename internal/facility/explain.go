package facility

import "strings"

const (
	explanationHeader = "This facility is recommended because:"
	explanationNone   = "Balanced option based on your profile"
)

// Explain renders the explanation block: a fixed header followed by one
// "- " line per component that cleared its threshold, or a single default
// line when none did.
func Explain(c Components) string {
	var reasons []string

	if c.SpecialtyMatch >= 0.9 {
		reasons = append(reasons, "Strong specialization match")
	}
	if c.DoctorExperience >= 0.6 {
		reasons = append(reasons, "Experienced doctors")
	}
	if c.Financial >= 0.9 {
		reasons = append(reasons, "Within your budget")
	}
	if c.Rating >= 0.85 {
		reasons = append(reasons, "Highly rated")
	}
	if c.Distance >= 0.9 {
		reasons = append(reasons, "Convenient location")
	}
	if c.Emergency >= 0.9 {
		reasons = append(reasons, "Strong emergency capability")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, explanationNone)
	}

	lines := make([]string, 0, len(reasons)+1)
	lines = append(lines, explanationHeader)
	for _, reason := range reasons {
		lines = append(lines, "- "+reason)
	}
	return strings.Join(lines, "\n")
}
