package facility

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const (
	defaultRadiusM = 15000
	defaultLimit   = 25
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type RankRequest struct {
	Profile Profile `json:"profile"`
}

type NearbyRequest struct {
	Profile Profile `json:"profile"`
	RadiusM int     `json:"radius_m"`
	Limit   int     `json:"limit"`
}

func (h *Handler) RankFacilities(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	ranked, err := h.svc.RankForProfile(r.Context(), req.Profile)
	if err != nil {
		http.Error(w, "Failed to rank facilities", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"results": ranked})
}

func (h *Handler) RankNearby(w http.ResponseWriter, r *http.Request) {
	var req NearbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.RadiusM <= 0 {
		req.RadiusM = defaultRadiusM
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}

	ranked, err := h.svc.RankNearby(r.Context(), req.Profile, req.RadiusM, req.Limit)
	if err != nil {
		http.Error(w, "Failed to rank nearby facilities", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"results": ranked})
}

func (h *Handler) GetFacility(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid facility ID", http.StatusBadRequest)
		return
	}

	detail, err := h.svc.FacilityDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrFacilityNotFound) {
			http.Error(w, "Facility not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load facility", http.StatusInternalServerError)
		return
	}

	writeJSON(w, detail)
}

func (h *Handler) RecommendEmergency(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	best, err := h.svc.RecommendEmergency(r.Context(), req.Profile)
	if err != nil {
		http.Error(w, "Failed to find emergency facility", http.StatusInternalServerError)
		return
	}
	if best == nil {
		http.Error(w, "No emergency-capable facility available", http.StatusNotFound)
		return
	}

	writeJSON(w, best)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/facilities/{id}", h.GetFacility)
	r.Post("/facilities/rank", h.RankFacilities)
	r.Post("/facilities/nearby", h.RankNearby)
	r.Post("/facilities/emergency", h.RecommendEmergency)
}
