package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/musemate/backend/internal/application/services"
	"github.com/musemate/backend/internal/domain/entities"
)

// MuseumService defines the catalog operations used by the handler.
type MuseumService interface {
	Browse(ctx context.Context, q services.BrowseQuery) (*services.MuseumBrowseResult, error)
	Search(ctx context.Context, query string, limit int) ([]*entities.Museum, error)
	Get(ctx context.Context, id string) (*services.MuseumDetail, error)
	TrackVisit(ctx context.Context, userID, museumID string) (*entities.MuseumVisit, error)
	RecentlyVisited(ctx context.Context, userID string) ([]*entities.Museum, error)
}

// MuseumHandler handles museum catalog and visit history requests
type MuseumHandler struct {
	museums MuseumService
}

// NewMuseumHandler creates a new museum handler
func NewMuseumHandler(museums MuseumService) *MuseumHandler {
	return &MuseumHandler{museums: museums}
}

// ListMuseums handles GET /api/museums
func (h *MuseumHandler) ListMuseums(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.museums.Browse(r.Context(), services.BrowseQuery{
		Query: q.Get("q"),
		City:  q.Get("city"),
		Type:  q.Get("type"),
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// SearchMuseums handles GET /api/museums/search
func (h *MuseumHandler) SearchMuseums(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "q parameter is required")
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	museums, err := h.museums.Search(r.Context(), query, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"museums": museums,
		"count":   len(museums),
		"query":   query,
	})
}

// GetMuseum handles GET /api/museums/{id}
func (h *MuseumHandler) GetMuseum(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "museum ID is required")
		return
	}

	detail, err := h.museums.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

type trackVisitRequest struct {
	MuseumID string `json:"museum_id"`
}

// TrackVisit handles POST /api/users/{userID}/visits
func (h *MuseumHandler) TrackVisit(w http.ResponseWriter, r *http.Request) {
	var payload trackVisitRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	visit, err := h.museums.TrackVisit(r.Context(), r.PathValue("userID"), strings.TrimSpace(payload.MuseumID))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, visit)
}

// RecentVisits handles GET /api/users/{userID}/visits
func (h *MuseumHandler) RecentVisits(w http.ResponseWriter, r *http.Request) {
	museums, err := h.museums.RecentlyVisited(r.Context(), r.PathValue("userID"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"museums": museums,
		"count":   len(museums),
	})
}
