package repositories

import (
	"context"

	"github.com/musemate/backend/internal/domain/entities"
)

// MuseumRepository is read access to the museum catalog. Lookups that find
// nothing return a NOT_FOUND AppError; list queries return an empty slice.
type MuseumRepository interface {
	// List returns museums ordered by name then id
	List(ctx context.Context, filter MuseumFilter) ([]*entities.Museum, error)

	// GetByID retrieves one museum
	GetByID(ctx context.Context, id string) (*entities.Museum, error)

	// GetByIDs retrieves museums by exact id; result order is unspecified
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Museum, error)

	// FindByName returns the first museum whose name contains name, case-insensitively
	FindByName(ctx context.Context, name string) (*entities.Museum, error)

	// ListByCity returns museums whose city contains city; limit <= 0 means no limit
	ListByCity(ctx context.Context, city string, limit int) ([]*entities.Museum, error)

	// SearchText returns museums where any term is a substring of the name,
	// description, city or type
	SearchText(ctx context.Context, terms []string, limit int) ([]*entities.Museum, error)
}

// MuseumWriter loads catalog records; used by seeding and tests
type MuseumWriter interface {
	Upsert(ctx context.Context, museum *entities.Museum) error
}

// MuseumSearchRepository is a full-text index over the catalog (e.g. Typesense)
type MuseumSearchRepository interface {
	Search(ctx context.Context, params SearchParams) (*MuseumSearchResult, error)
	Index(ctx context.Context, museum *entities.Museum) error
	Delete(ctx context.Context, id string) error
}

// MuseumFilter narrows List; empty fields do not filter
type MuseumFilter struct {
	City   string
	Type   string
	Limit  int
	Offset int
}

// SearchParams defines parameters for full-text museum search
type SearchParams struct {
	Query string
	City  string
	Type  string
	Limit int
}

// MuseumSearchResult carries search hits with facet counts
type MuseumSearchResult struct {
	Museums    []*entities.Museum
	CityCounts map[string]int
	TypeCounts map[string]int
	TotalCount int
	SearchTime float64 // in milliseconds
}

// VisitRepository stores per-user museum visits
type VisitRepository interface {
	Track(ctx context.Context, visit *entities.MuseumVisit) error

	// Recent returns up to limit visits, newest first, one per museum
	Recent(ctx context.Context, userID string, limit int) ([]*entities.MuseumVisit, error)
}

// ChatAnalyticsRepository stores chat utterance analytics
type ChatAnalyticsRepository interface {
	LogEvent(ctx context.Context, event *entities.ChatEvent) error
	UnresolvedQueries(ctx context.Context, limit int) ([]*entities.UnresolvedQuery, error)
}
