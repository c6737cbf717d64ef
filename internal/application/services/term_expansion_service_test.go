package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musemate/backend/internal/adapters/memory"
	"github.com/musemate/backend/internal/application/services"
)

func TestTermExpansionService_Expand(t *testing.T) {
	s := services.NewTermExpansionService(map[string][]string{
		"Train": {"railway", "locomotive"},
		"art":   {"gallery", "train"},
	})

	assert.Equal(t, []string{"train", "art", "railway", "locomotive", "gallery"}, s.Expand("  Train ART "))
	assert.Equal(t, []string{"ships"}, s.Expand("ships"))
	assert.Empty(t, s.Expand("   "))
}

func TestLoadTermExpansionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Fort": ["heritage", "castle"]}`), 0o600))

	s, err := services.LoadTermExpansionFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"fort", "heritage", "castle"}, s.Expand("fort"))
	// Defaults stay available
	assert.Contains(t, s.Expand("railway"), "train")

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))
	_, err = services.LoadTermExpansionFile(path)
	assert.Error(t, err)

	_, err = services.LoadTermExpansionFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestMuseumService_SearchExpandsSynonyms(t *testing.T) {
	repo := memory.NewMuseumRepository(museumFixtures())
	ctx := context.Background()

	plain, err := services.NewMuseumService(repo, nil, nil).Search(ctx, "gallery", 10)
	require.NoError(t, err)
	assert.Empty(t, plain)

	svc := services.NewMuseumService(repo, nil, nil).WithTermExpansion(services.NewTermExpansionService(nil))
	museums, err := svc.Search(ctx, "gallery", 10)
	require.NoError(t, err)
	require.Len(t, museums, 1)
	assert.Equal(t, "csmvs", museums[0].ID)
}
