package providers

import (
	"context"
	"errors"

	"github.com/musemate/backend/internal/domain/entities"
)

// ErrStaleRevision is returned when a session write is based on an outdated revision
var ErrStaleRevision = errors.New("session revision is stale")

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists chat sessions with optimistic concurrency
type SessionStore interface {
	// Get loads a session
	Get(ctx context.Context, id string) (*entities.ChatSession, error)

	// Create stores a new session at revision 1
	Create(ctx context.Context, session *entities.ChatSession) error

	// CompareAndSwap stores session only when the stored revision equals
	// expectedRevision, and bumps session.Revision on success
	CompareAndSwap(ctx context.Context, session *entities.ChatSession, expectedRevision int64) error

	// Delete removes a session
	Delete(ctx context.Context, id string) error
}

// VideoSearchProvider finds embeddable videos for a query
type VideoSearchProvider interface {
	// Name identifies the source in logs and metrics
	Name() string

	// SearchVideos returns an empty slice, not an error, when nothing matches
	SearchVideos(ctx context.Context, query string) ([]entities.Video, error)
}

// VideoSearcher is the proxy contract seen by the lookup client
type VideoSearcher interface {
	SearchVideos(ctx context.Context, query string) (*entities.VideoSearchResult, error)
}

// WebSearchProvider answers free-text questions from the web
type WebSearchProvider interface {
	Search(ctx context.Context, query string) (*entities.WebSearchResult, error)
}
