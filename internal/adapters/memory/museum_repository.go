// Package memory holds in-process repositories backed by a JSON catalog file.
// They serve the offline CLI and tests that do not need PostgreSQL.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/repositories"
	apperrors "github.com/musemate/backend/pkg/errors"
)

// MuseumRepository keeps the catalog in a slice sorted by name then id
type MuseumRepository struct {
	mu      sync.RWMutex
	museums []*entities.Museum
}

var (
	_ repositories.MuseumRepository = (*MuseumRepository)(nil)
	_ repositories.MuseumWriter     = (*MuseumRepository)(nil)
)

// NewMuseumRepository creates a repository over museums
func NewMuseumRepository(museums []*entities.Museum) *MuseumRepository {
	r := &MuseumRepository{museums: append([]*entities.Museum(nil), museums...)}
	r.sort()
	return r
}

// LoadMuseums decodes a JSON array of museums
func LoadMuseums(rd io.Reader) ([]*entities.Museum, error) {
	var records []*catalogRecord
	if err := json.NewDecoder(rd).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode museum catalog: %w", err)
	}
	museums := make([]*entities.Museum, 0, len(records))
	for i, r := range records {
		if r == nil {
			continue
		}
		m := r.Museum
		m.ID = string(r.ID)
		m.Established = string(r.Established)
		if m.ID == "" {
			m.ID = fmt.Sprintf("museum-%d", i+1)
		}
		museums = append(museums, &m)
	}
	return museums, nil
}

// catalogRecord is a museum as written in data files, where ids and founding
// years are often bare numbers
type catalogRecord struct {
	entities.Museum
	ID          entities.Scalar `json:"id"`
	Established entities.Scalar `json:"established"`
}

// LoadMuseumFile reads a JSON catalog from disk
func LoadMuseumFile(path string) (*MuseumRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open museum catalog: %w", err)
	}
	defer f.Close()

	museums, err := LoadMuseums(f)
	if err != nil {
		return nil, err
	}
	return NewMuseumRepository(museums), nil
}

func (r *MuseumRepository) List(ctx context.Context, filter repositories.MuseumFilter) ([]*entities.Museum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*entities.Museum{}
	for _, m := range r.museums {
		if filter.City != "" && !strings.EqualFold(m.City, filter.City) {
			continue
		}
		if filter.Type != "" && !strings.EqualFold(m.Type, filter.Type) {
			continue
		}
		out = append(out, m)
	}
	return paginate(out, filter.Offset, filter.Limit), nil
}

func (r *MuseumRepository) GetByID(ctx context.Context, id string) (*entities.Museum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.museums {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, apperrors.NewNotFoundError("museum not found")
}

func (r *MuseumRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Museum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := []*entities.Museum{}
	for _, m := range r.museums {
		if wanted[m.ID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MuseumRepository) FindByName(ctx context.Context, name string) (*entities.Museum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle != "" {
		for _, m := range r.museums {
			if strings.Contains(strings.ToLower(m.Name), needle) {
				return m, nil
			}
		}
	}
	return nil, apperrors.NewNotFoundError("museum not found")
}

func (r *MuseumRepository) ListByCity(ctx context.Context, city string, limit int) ([]*entities.Museum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*entities.Museum{}
	if strings.TrimSpace(city) == "" {
		return out, nil
	}
	for _, m := range r.museums {
		if m.InCity(city) {
			out = append(out, m)
		}
	}
	return paginate(out, 0, limit), nil
}

func (r *MuseumRepository) SearchText(ctx context.Context, terms []string, limit int) ([]*entities.Museum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*entities.Museum{}
	for _, m := range r.museums {
		for _, term := range terms {
			if strings.TrimSpace(term) != "" && m.MatchesText(term) {
				out = append(out, m)
				break
			}
		}
	}
	return paginate(out, 0, limit), nil
}

// Upsert replaces the museum with the same id or adds it
func (r *MuseumRepository) Upsert(ctx context.Context, museum *entities.Museum) error {
	if strings.TrimSpace(museum.ID) == "" || strings.TrimSpace(museum.Name) == "" {
		return apperrors.NewValidationError("invalid museum record: id and name are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, m := range r.museums {
		if m.ID == museum.ID {
			r.museums[i] = museum
			r.sort()
			return nil
		}
	}
	r.museums = append(r.museums, museum)
	r.sort()
	return nil
}

func (r *MuseumRepository) sort() {
	sort.SliceStable(r.museums, func(i, j int) bool {
		if r.museums[i].Name != r.museums[j].Name {
			return r.museums[i].Name < r.museums[j].Name
		}
		return r.museums[i].ID < r.museums[j].ID
	})
}

func paginate(museums []*entities.Museum, offset, limit int) []*entities.Museum {
	if offset > 0 {
		if offset >= len(museums) {
			return []*entities.Museum{}
		}
		museums = museums[offset:]
	}
	if limit > 0 && len(museums) > limit {
		museums = museums[:limit]
	}
	return museums
}
