package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/musemate/backend/internal/domain/entities"
)

// TripPlanner defines the itinerary operation used by the handler.
type TripPlanner interface {
	Plan(ctx context.Context, req entities.TripRequest) (*entities.TripPlan, error)
}

var timesOfDay = map[string]bool{"": true, "morning": true, "afternoon": true, "evening": true}

// TripHandler handles trip planning requests
type TripHandler struct {
	planner TripPlanner
}

// NewTripHandler creates a new trip handler
func NewTripHandler(planner TripPlanner) *TripHandler {
	return &TripHandler{planner: planner}
}

// PlanTrip handles GET /api/trips/plan?city=&date=&hours=&time_of_day=
func (h *TripHandler) PlanTrip(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	city := strings.TrimSpace(q.Get("city"))
	if city == "" {
		respondWithError(w, http.StatusBadRequest, "city parameter is required")
		return
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(q.Get("date")))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		return
	}

	req := entities.TripRequest{City: city, Date: date}

	if raw := strings.TrimSpace(q.Get("hours")); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil || hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
			respondWithError(w, http.StatusBadRequest, "hours must be a positive number")
			return
		}
		req.Hours = &hours
	}

	req.TimeOfDay = strings.ToLower(strings.TrimSpace(q.Get("time_of_day")))
	if !timesOfDay[req.TimeOfDay] {
		respondWithError(w, http.StatusBadRequest, "time_of_day must be morning, afternoon or evening")
		return
	}

	plan, err := h.planner.Plan(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, plan)
}
