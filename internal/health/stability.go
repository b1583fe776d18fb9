package health

import "math"

const (
	StatusStable       = "Stable"
	StatusModerateRisk = "Moderate Risk"
	StatusHighRisk     = "High Risk"
)

// StabilityComponents are the normalized [0,1] inputs to the health score.
type StabilityComponents struct {
	Sleep     float64 `json:"sleep_score"`
	Stress    float64 `json:"stress_score"`
	Energy    float64 `json:"energy_score"`
	Activity  float64 `json:"activity_score"`
	Adherence float64 `json:"adherence_score"`
}

type Stability struct {
	Score      float64             `json:"health_score"`
	Percentage float64             `json:"health_percentage"`
	Status     string              `json:"status"`
	Components StabilityComponents `json:"components"`
}

// ComputeStability scores overall health stability from sleep (hours),
// stress level (1-10, lower is better), energy level (1-10), and adherence
// ratio (0-1). Activity is estimated from sleep and energy as a proxy, since
// explicit activity input is not collected.
//
// health_score = 0.30 adherence + 0.25 sleep + 0.20 stress + 0.15 energy + 0.10 activity
func ComputeStability(sleepHours float64, stressLevel, energyLevel int, adherenceRatio float64) Stability {
	sleepScore := clamp01(sleepHours / 8.0)
	stressScore := clamp01((10.0 - float64(stressLevel)) / 9.0)
	energyScore := clamp01((float64(energyLevel) - 1.0) / 9.0)
	adherence := clamp01(adherenceRatio)

	activityScore := clamp01((sleepScore + energyScore) / 2.0)

	score := 0.30*adherence +
		0.25*sleepScore +
		0.20*stressScore +
		0.15*energyScore +
		0.10*activityScore

	status := StatusHighRisk
	if score >= 0.75 {
		status = StatusStable
	} else if score >= 0.5 {
		status = StatusModerateRisk
	}

	return Stability{
		Score:      round4(score),
		Percentage: round2(score * 100),
		Status:     status,
		Components: StabilityComponents{
			Sleep:     round4(sleepScore),
			Stress:    round4(stressScore),
			Energy:    round4(energyScore),
			Activity:  round4(activityScore),
			Adherence: round4(adherence),
		},
	}
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
