package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/infrastructure/observability"
	apperrors "github.com/musemate/backend/pkg/errors"
)

// VideoLookupStatus is the outcome shown to the user
type VideoLookupStatus string

const (
	VideoFound       VideoLookupStatus = "found"
	VideoRelated     VideoLookupStatus = "related"
	VideoNone        VideoLookupStatus = "none"
	VideoUnavailable VideoLookupStatus = "unavailable"
)

const (
	videoUnavailableMessage = "Unable to load video right now. Please try again later."
	videoNoneMessage        = "No video available for this museum, please try another search."
)

// VideoLookup is the lookup result. Empty and failed searches are outcomes, not errors.
type VideoLookup struct {
	Status    VideoLookupStatus `json:"status"`
	Query     string            `json:"query"`
	UsedQuery string            `json:"used_query,omitempty"`
	Message   string            `json:"message,omitempty"`
	Videos    []entities.Video  `json:"videos"`
}

// VideoLookupService searches for a video and falls back to broader queries
type VideoLookupService struct {
	searcher providers.VideoSearcher
	timeout  time.Duration
	metrics  *observability.ChatMetrics
}

func NewVideoLookupService(searcher providers.VideoSearcher, timeout time.Duration, metrics *observability.ChatMetrics) *VideoLookupService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &VideoLookupService{searcher: searcher, timeout: timeout, metrics: metrics}
}

// FallbackQueries are tried in order when the primary query finds nothing
func FallbackQueries(query string) []string {
	first := "museum"
	if fields := strings.Fields(query); len(fields) > 0 {
		first = fields[0]
	}
	return []string{
		first + " museum tour",
		"museum virtual tour",
		"famous museums documentary",
	}
}

func (s *VideoLookupService) Lookup(ctx context.Context, query string) (*VideoLookup, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, apperrors.NewValidationError("search query is required")
	}
	logger := observability.LoggerFromContext(ctx)

	result, err := s.search(ctx, q)
	if err != nil {
		if !apperrors.IsTransportFailure(err) {
			if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				logger.Error().Err(err).Str("query", q).Msg("video search failed")
				s.metrics.ObserveProxyCall("video_lookup", "error")
			}
			return nil, err
		}
		logger.Warn().Err(err).Str("query", q).Msg("video search unreachable")
		s.metrics.ObserveProxyCall("video_lookup", "unavailable")
		return &VideoLookup{Status: VideoUnavailable, Query: q, Message: videoUnavailableMessage, Videos: []entities.Video{}}, nil
	}
	if result.HasResults && len(result.Videos) > 0 {
		s.metrics.ObserveProxyCall("video_lookup", "found")
		return &VideoLookup{Status: VideoFound, Query: q, UsedQuery: q, Videos: result.Videos}, nil
	}

	for _, fq := range FallbackQueries(q) {
		result, err := s.search(ctx, fq)
		if err != nil {
			logger.Debug().Err(err).Str("query", fq).Msg("fallback video search failed")
			continue
		}
		if result.HasResults && len(result.Videos) > 0 {
			s.metrics.ObserveProxyCall("video_lookup", "related")
			return &VideoLookup{
				Status:    VideoRelated,
				Query:     q,
				UsedQuery: fq,
				Message:   fmt.Sprintf("No videos found for %q. Showing related museum content instead.", q),
				Videos:    result.Videos,
			}, nil
		}
	}

	s.metrics.ObserveProxyCall("video_lookup", "none")
	return &VideoLookup{Status: VideoNone, Query: q, Message: videoNoneMessage, Videos: []entities.Video{}}, nil
}

func (s *VideoLookupService) search(ctx context.Context, q string) (*entities.VideoSearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.searcher.SearchVideos(ctx, q)
}
