package typesense

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSchema_CreatesMissingCollection(t *testing.T) {
	var created map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[]`))
		case http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"name": "museums", "fields": [], "num_documents": 0, "created_at": 1}`))
		}
	}))
	defer srv.Close()

	err := NewFromURL(srv.URL, "k").InitSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MuseumsCollection, created["name"])
}

func TestInitSchema_ExistingCollection(t *testing.T) {
	posts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts++
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name": "museums", "fields": [], "num_documents": 4, "created_at": 1}]`))
	}))
	defer srv.Close()

	require.NoError(t, NewFromURL(srv.URL, "k").InitSchema(context.Background()))
	assert.Zero(t, posts)
}

func TestMuseumSchema_FacetsCityAndType(t *testing.T) {
	schema := MuseumSchema()
	facets := []string{}
	for _, f := range schema.Fields {
		if f.Facet != nil && *f.Facet {
			facets = append(facets, f.Name)
		}
	}
	assert.ElementsMatch(t, []string{"city", "type"}, facets)
}
