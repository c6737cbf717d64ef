package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musemate/backend/internal/adapters/memory"
	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/domain/repositories"
)

type recordingIndex struct {
	ids  []string
	fail map[string]bool
}

func (i *recordingIndex) Search(ctx context.Context, params repositories.SearchParams) (*repositories.MuseumSearchResult, error) {
	return &repositories.MuseumSearchResult{}, nil
}

func (i *recordingIndex) Index(ctx context.Context, museum *entities.Museum) error {
	if i.fail[museum.ID] {
		return errors.New("typesense rejected document")
	}
	i.ids = append(i.ids, museum.ID)
	return nil
}

func (i *recordingIndex) Delete(ctx context.Context, id string) error { return nil }

func TestIndexOnce_PagesThroughCatalog(t *testing.T) {
	var list []*entities.Museum
	for n := 0; n < pageSize+3; n++ {
		list = append(list, &entities.Museum{ID: fmt.Sprintf("m-%04d", n), Name: fmt.Sprintf("Museum %04d", n)})
	}
	index := &recordingIndex{fail: map[string]bool{"m-0002": true}}

	count, err := indexOnce(context.Background(), memory.NewMuseumRepository(list), index)
	require.NoError(t, err)
	assert.Equal(t, pageSize+2, count)
	assert.Len(t, index.ids, pageSize+2)
	assert.NotContains(t, index.ids, "m-0002")
}

func TestSeed_LoadsCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "museums.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "kelkar", "name": "Raja Dinkar Kelkar Museum", "city": "Pune"},
		{"name": "Aga Khan Palace", "city": "Pune", "latitude": "18.5523"}
	]`), 0o600))

	repo := memory.NewMuseumRepository(nil)
	count, err := seed(context.Background(), repo, path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	m, err := repo.GetByID(context.Background(), "museum-2")
	require.NoError(t, err)
	assert.Equal(t, "Aga Khan Palace", m.Name)
}

func TestSeed_MissingFile(t *testing.T) {
	_, err := seed(context.Background(), memory.NewMuseumRepository(nil), filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

type recordingBus struct {
	published []*entities.CatalogEvent
	err       error
}

func (b *recordingBus) Publish(ctx context.Context, channel string, event *entities.CatalogEvent) error {
	if b.err != nil {
		return b.err
	}
	if channel == providers.EventChannelCatalogUpdates {
		b.published = append(b.published, event)
	}
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CatalogEvent, error) {
	return nil, errors.New("not supported")
}

func (b *recordingBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *recordingBus) Close() error { return nil }

func TestAnnounce(t *testing.T) {
	bus := &recordingBus{}
	announce(context.Background(), bus, entities.NewCatalogEvent(entities.CatalogEventReindexed, 11))

	require.Len(t, bus.published, 1)
	assert.Equal(t, entities.CatalogEventReindexed, bus.published[0].Type)
	assert.Equal(t, 11, bus.published[0].Count)

	// Neither a missing bus nor a failed publish stops the indexer
	announce(context.Background(), nil, entities.NewCatalogEvent(entities.CatalogEventReindexed, 1))
	announce(context.Background(), &recordingBus{err: errors.New("down")}, entities.NewCatalogEvent(entities.CatalogEventReindexed, 1))
}
