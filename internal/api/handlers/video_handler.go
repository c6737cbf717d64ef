package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/musemate/backend/internal/application/services"
	"github.com/musemate/backend/internal/domain/providers"
	apperrors "github.com/musemate/backend/pkg/errors"
)

// VideoLookup defines the fallback video lookup used by the handler.
type VideoLookup interface {
	Lookup(ctx context.Context, query string) (*services.VideoLookup, error)
}

// VideoHandler serves the video lookup and the two search proxies
type VideoHandler struct {
	lookup VideoLookup
	videos providers.VideoSearcher
	web    providers.WebSearchProvider
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(lookup VideoLookup, videos providers.VideoSearcher, web providers.WebSearchProvider) *VideoHandler {
	return &VideoHandler{lookup: lookup, videos: videos, web: web}
}

// LookupVideos handles GET /api/videos?q=
func (h *VideoHandler) LookupVideos(w http.ResponseWriter, r *http.Request) {
	result, err := h.lookup.Lookup(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

type proxyRequest struct {
	Query string `json:"query"`
}

// VideoSearch handles POST /functions/video-search
func (h *VideoHandler) VideoSearch(w http.ResponseWriter, r *http.Request) {
	query, ok := proxyQuery(w, r)
	if !ok {
		return
	}

	result, err := h.videos.SearchVideos(r.Context(), query)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// WebSearch handles POST /functions/web-search
func (h *VideoHandler) WebSearch(w http.ResponseWriter, r *http.Request) {
	query, ok := proxyQuery(w, r)
	if !ok {
		return
	}

	result, err := h.web.Search(r.Context(), query)
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			err = apperrors.NewExternalError("failed to search the web", err)
		}
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func proxyQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var payload proxyRequest
	if !decodeJSON(w, r, &payload) {
		return "", false
	}
	query := strings.TrimSpace(payload.Query)
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Search query is required")
		return "", false
	}
	return query, true
}
