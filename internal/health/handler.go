package health

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"carematch/internal/risk"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type AddMedicineRequest struct {
	Name       string `json:"name"`
	Dosage     string `json:"dosage"`
	Schedule   string `json:"schedule"`
	TotalCount int    `json:"total_count"`
}

type HealthLogRequest struct {
	SleepHours  float64 `json:"sleep_hours"`
	StressLevel int     `json:"stress_level"`
	EnergyLevel int     `json:"energy_level"`
	Symptoms    string  `json:"symptoms"`
}

func (h *Handler) AddMedicine(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid patient ID", http.StatusBadRequest)
		return
	}

	var req AddMedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.TotalCount < 1 {
		http.Error(w, "Medicine name and positive total_count are required", http.StatusBadRequest)
		return
	}

	medicine := &Medicine{
		PatientID:  patientID,
		Name:       req.Name,
		Dosage:     req.Dosage,
		Schedule:   req.Schedule,
		TotalCount: req.TotalCount,
	}
	if err := h.svc.AddMedicine(r.Context(), medicine); err != nil {
		http.Error(w, "Failed to add medicine", http.StatusInternalServerError)
		return
	}

	writeJSON(w, medicine)
}

func (h *Handler) LogDoseTaken(w http.ResponseWriter, r *http.Request) {
	medicineID, err := strconv.ParseInt(chi.URLParam(r, "medicineID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid medicine ID", http.StatusBadRequest)
		return
	}

	if err := h.svc.LogDoseTaken(r.Context(), medicineID); err != nil {
		http.Error(w, "Failed to log dose", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetAdherence(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid patient ID", http.StatusBadRequest)
		return
	}

	score, err := h.svc.Adherence(r.Context(), patientID)
	if err != nil {
		http.Error(w, "Failed to compute adherence", http.StatusInternalServerError)
		return
	}

	writeJSON(w, score)
}

func (h *Handler) RecordHealthLog(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid patient ID", http.StatusBadRequest)
		return
	}

	var req HealthLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	stability, err := h.svc.RecordHealthLog(r.Context(), &HealthLog{
		PatientID:   patientID,
		SleepHours:  req.SleepHours,
		StressLevel: req.StressLevel,
		EnergyLevel: req.EnergyLevel,
		Symptoms:    req.Symptoms,
	})
	if err != nil {
		http.Error(w, "Failed to record health log", http.StatusInternalServerError)
		return
	}

	writeJSON(w, stability)
}

// GetRiskSnapshot serves the deterministic rule-based risk view used by
// doctor and family dashboards. No AI call is involved.
func (h *Handler) GetRiskSnapshot(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid patient ID", http.StatusBadRequest)
		return
	}

	adherence, err := h.svc.Adherence(r.Context(), patientID)
	if err != nil {
		http.Error(w, "Failed to compute adherence", http.StatusInternalServerError)
		return
	}
	healthPercent, err := h.svc.HealthPercentage(r.Context(), patientID, adherence.Ratio)
	if err != nil {
		http.Error(w, "Failed to compute health score", http.StatusInternalServerError)
		return
	}

	assessment := risk.Fallback(healthPercent, adherence.Percentage)
	writeJSON(w, map[string]interface{}{
		"risk":             assessment.Level,
		"risk_probability": assessment.Probability,
		"adherence_score":  adherence.Percentage,
		"health_score":     healthPercent,
		"recommendation":   assessment.Recommendation,
		"explanation":      risk.RecommendationSummary(assessment.Level, assessment.Recommendation),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/patients/{id}/medicines", h.AddMedicine)
	r.Post("/medicines/{medicineID}/taken", h.LogDoseTaken)
	r.Get("/patients/{id}/adherence", h.GetAdherence)
	r.Post("/patients/{id}/health-log", h.RecordHealthLog)
	r.Get("/patients/{id}/risk", h.GetRiskSnapshot)
}
