package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/repositories"
	tsclient "github.com/musemate/backend/internal/infrastructure/clients/typesense"
)

const defaultSearchLimit = 20

// TypesenseAdapter implements museum search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.MuseumSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts a museum document
func (a *TypesenseAdapter) Index(ctx context.Context, museum *entities.Museum) error {
	_, err := a.client.Client().Collection(tsclient.MuseumsCollection).Documents().Upsert(ctx, BuildDocument(museum))
	if err != nil {
		return fmt.Errorf("failed to index museum: %w", err)
	}
	return nil
}

// Delete removes a museum from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.MuseumsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete museum from index: %w", err)
	}
	return nil
}

// Search runs a typo-tolerant query over name, description, city and type
// and returns partial museums plus city/type facet counts. Callers hydrate
// full records by id.
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.SearchParams) (*repositories.MuseumSearchResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	q := strings.TrimSpace(params.Query)
	if q == "" {
		q = "*"
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("name,description,city,type"),
		FacetBy: pointer.String("city,type"),
		PerPage: pointer.Int(limit),
		Page:    pointer.Int(1),
	}
	if filter := buildFilter(params); filter != "" {
		searchParams.FilterBy = pointer.String(filter)
	}

	result, err := a.client.Client().Collection(tsclient.MuseumsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search museums: %w", err)
	}

	out := &repositories.MuseumSearchResult{
		Museums:    []*entities.Museum{},
		CityCounts: map[string]int{},
		TypeCounts: map[string]int{},
	}
	if result.Found != nil {
		out.TotalCount = *result.Found
	}
	if result.SearchTimeMs != nil {
		out.SearchTime = float64(*result.SearchTimeMs)
	}

	if result.Hits != nil {
		for _, hit := range *result.Hits {
			if hit.Document == nil {
				continue
			}
			if m := museumFromDocument(*hit.Document); m != nil {
				out.Museums = append(out.Museums, m)
			}
		}
	}

	if result.FacetCounts != nil {
		for _, facet := range *result.FacetCounts {
			if facet.FieldName == nil || facet.Counts == nil {
				continue
			}
			target := out.CityCounts
			if *facet.FieldName == "type" {
				target = out.TypeCounts
			}
			for _, c := range *facet.Counts {
				if c.Value != nil && c.Count != nil {
					target[*c.Value] = *c.Count
				}
			}
		}
	}

	return out, nil
}

// BuildDocument maps a museum onto the collection schema
func BuildDocument(m *entities.Museum) map[string]interface{} {
	updated := m.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	doc := map[string]interface{}{
		"id":          m.ID,
		"name":        m.Name,
		"city":        m.City,
		"type":        m.Type,
		"description": m.Description,
		"address":     m.Address,
		"updated_at":  updated.Unix(),
	}
	if p, ok := m.Location(); ok {
		doc["location"] = []float64{p.Latitude, p.Longitude}
	}
	if len(m.Reviews) > 0 {
		doc["rating"] = m.AverageRating()
	}
	return doc
}

func buildFilter(params repositories.SearchParams) string {
	var clauses []string
	if c := strings.TrimSpace(params.City); c != "" {
		clauses = append(clauses, fmt.Sprintf("city:=`%s`", strings.ReplaceAll(c, "`", "")))
	}
	if t := strings.TrimSpace(params.Type); t != "" {
		clauses = append(clauses, fmt.Sprintf("type:=`%s`", strings.ReplaceAll(t, "`", "")))
	}
	return strings.Join(clauses, " && ")
}

func museumFromDocument(doc map[string]interface{}) *entities.Museum {
	id, _ := doc["id"].(string)
	if id == "" {
		return nil
	}
	m := &entities.Museum{ID: id}
	m.Name, _ = doc["name"].(string)
	m.City, _ = doc["city"].(string)
	m.Type, _ = doc["type"].(string)
	m.Description, _ = doc["description"].(string)
	m.Address, _ = doc["address"].(string)
	return m
}
