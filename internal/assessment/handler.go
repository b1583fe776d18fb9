package assessment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type SubmitAnswersRequest struct {
	Answers map[string]int             `json:"answers"`
	Context map[string]QuestionContext `json:"context"`
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid patient ID", http.StatusBadRequest)
		return
	}

	state, initialized, err := h.svc.GetOrInitState(r.Context(), patientID)
	if err != nil {
		http.Error(w, "Failed to load patient state", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"state":       state,
		"initialized": initialized,
	})
}

func (h *Handler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid patient ID", http.StatusBadRequest)
		return
	}

	questions, due, err := h.svc.AdaptiveQuestions(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "Patient not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to select questions", http.StatusInternalServerError)
		return
	}

	if !due {
		writeJSON(w, map[string]interface{}{
			"due":     false,
			"message": "Next assessment available tomorrow",
		})
		return
	}

	writeJSON(w, map[string]interface{}{
		"due":       true,
		"questions": questions,
	})
}

func (h *Handler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid patient ID", http.StatusBadRequest)
		return
	}

	var req SubmitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if len(req.Answers) == 0 {
		http.Error(w, "No answers submitted", http.StatusBadRequest)
		return
	}

	state, err := h.svc.SubmitAnswers(r.Context(), patientID, req.Answers, req.Context)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "Patient not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to process assessment: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, state)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid patient ID", http.StatusBadRequest)
		return
	}

	summary, err := h.svc.Summary(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "Patient not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to generate summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"summary": summary})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/patients/{id}/state", h.GetState)
	r.Get("/patients/{id}/questions", h.GetQuestions)
	r.Post("/patients/{id}/assessment", h.SubmitAnswers)
	r.Get("/patients/{id}/summary", h.GetSummary)
}
