package entities

import (
	"time"

	"github.com/google/uuid"
)

// CatalogEventType represents the kind of catalog change
type CatalogEventType string

const (
	CatalogEventMuseumsUpserted CatalogEventType = "museums_upserted"
	CatalogEventReindexed       CatalogEventType = "reindexed"
)

// CatalogEvent announces that museum records changed outside the API process
type CatalogEvent struct {
	ID        string           `json:"id"`
	Type      CatalogEventType `json:"event_type"`
	MuseumIDs []string         `json:"museum_ids,omitempty"`
	Count     int              `json:"count"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewCatalogEvent creates a new catalog event
func NewCatalogEvent(eventType CatalogEventType, count int, museumIDs ...string) *CatalogEvent {
	return &CatalogEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		MuseumIDs: museumIDs,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}
