package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/repositories"
	"github.com/musemate/backend/internal/infrastructure/observability"
	apperrors "github.com/musemate/backend/pkg/errors"
)

const (
	defaultSearchLimit = 10
	recentVisitLimit   = 6
)

// BrowseQuery filters the catalog view. Empty fields and "all" do not filter.
type BrowseQuery struct {
	Query string
	City  string
	Type  string
}

// MuseumBrowseResult is a filtered view. Cities and Types list every distinct
// value in the catalog so the filter choices never shrink with the selection.
type MuseumBrowseResult struct {
	Museums []*entities.Museum `json:"museums"`
	Cities  []string           `json:"cities"`
	Types   []string           `json:"types"`
	Total   int                `json:"total"`
}

// MuseumDetail is a museum with derived fields for display
type MuseumDetail struct {
	*entities.Museum
	AverageRating float64            `json:"average_rating"`
	TodayStatus   entities.DayStatus `json:"today_status"`
	TodayHours    string             `json:"today_hours,omitempty"`
}

// MuseumService handles catalog browsing, search and visit history
type MuseumService struct {
	repo       repositories.MuseumRepository
	searchRepo repositories.MuseumSearchRepository
	visits     repositories.VisitRepository
	synonyms   *TermExpansionService
	now        func() time.Time
}

// NewMuseumService creates a new museum service; searchRepo and visits may be nil
func NewMuseumService(repo repositories.MuseumRepository, searchRepo repositories.MuseumSearchRepository, visits repositories.VisitRepository) *MuseumService {
	return &MuseumService{
		repo:       repo,
		searchRepo: searchRepo,
		visits:     visits,
		now:        time.Now,
	}
}

// WithTermExpansion makes the database fallback search match synonyms as well
func (s *MuseumService) WithTermExpansion(synonyms *TermExpansionService) *MuseumService {
	s.synonyms = synonyms
	return s
}

// Browse returns the filtered catalog
func (s *MuseumService) Browse(ctx context.Context, q BrowseQuery) (*MuseumBrowseResult, error) {
	all, err := s.repo.List(ctx, repositories.MuseumFilter{})
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(q.Query)
	city := facetFilter(q.City)
	kind := facetFilter(q.Type)

	cities := map[string]struct{}{}
	types := map[string]struct{}{}
	result := &MuseumBrowseResult{Museums: []*entities.Museum{}}
	for _, m := range all {
		if m.City != "" {
			cities[m.City] = struct{}{}
		}
		if m.Type != "" {
			types[m.Type] = struct{}{}
		}
		if text != "" && !m.MatchesText(text) {
			continue
		}
		if city != "" && !strings.EqualFold(m.City, city) {
			continue
		}
		if kind != "" && !strings.EqualFold(m.Type, kind) {
			continue
		}
		result.Museums = append(result.Museums, m)
	}
	result.Cities = sortedKeys(cities)
	result.Types = sortedKeys(types)
	result.Total = len(result.Museums)
	return result, nil
}

// facetFilter normalizes a city or type filter; "all" selects everything
func facetFilter(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "all") {
		return ""
	}
	return value
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Search uses the search index if available, falling back to the database
func (s *MuseumService) Search(ctx context.Context, query string, limit int) ([]*entities.Museum, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if s.searchRepo != nil {
		hits, err := s.searchRepo.Search(ctx, repositories.SearchParams{Query: query, Limit: limit})
		if err == nil {
			ids := make([]string, 0, len(hits.Museums))
			for _, m := range hits.Museums {
				ids = append(ids, m.ID)
			}
			return s.hydrate(ctx, ids)
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("query", query).Msg("search index unavailable, falling back to database")
	}

	terms := strings.Fields(query)
	if s.synonyms != nil {
		terms = s.synonyms.Expand(query)
	}
	return s.repo.SearchText(ctx, terms, limit)
}

// Get returns one museum with its rating and today's status
func (s *MuseumService) Get(ctx context.Context, id string) (*MuseumDetail, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	status, hours := m.DayStatus(s.now().Weekday())
	return &MuseumDetail{
		Museum:        m,
		AverageRating: m.AverageRating(),
		TodayStatus:   status,
		TodayHours:    hours,
	}, nil
}

// TrackVisit records that userID viewed museumID
func (s *MuseumService) TrackVisit(ctx context.Context, userID, museumID string) (*entities.MuseumVisit, error) {
	if s.visits == nil {
		return nil, apperrors.NewInternalError("visit history is not configured", nil)
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(museumID) == "" {
		return nil, apperrors.NewValidationError("user id and museum id are required")
	}
	if _, err := s.repo.GetByID(ctx, museumID); err != nil {
		return nil, err
	}

	visit := &entities.MuseumVisit{UserID: userID, MuseumID: museumID, VisitedAt: s.now().UTC()}
	if err := s.visits.Track(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

// RecentlyVisited returns the user's latest museums, most recent first
func (s *MuseumService) RecentlyVisited(ctx context.Context, userID string) ([]*entities.Museum, error) {
	if s.visits == nil {
		return []*entities.Museum{}, nil
	}
	visits, err := s.visits.Recent(ctx, userID, recentVisitLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(visits))
	for _, v := range visits {
		ids = append(ids, v.MuseumID)
	}
	return s.hydrate(ctx, ids)
}

// hydrate loads museums by id and returns them in the order of ids
func (s *MuseumService) hydrate(ctx context.Context, ids []string) ([]*entities.Museum, error) {
	if len(ids) == 0 {
		return []*entities.Museum{}, nil
	}
	museums, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	rank := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, seen := rank[id]; !seen {
			rank[id] = i
		}
	}
	sort.SliceStable(museums, func(i, j int) bool {
		return rank[museums[i].ID] < rank[museums[j].ID]
	})
	return museums, nil
}
