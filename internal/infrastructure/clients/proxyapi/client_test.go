package proxyapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/musemate/backend/pkg/errors"
)

func TestSearchVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, videoSearchPath, r.URL.Path)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Aga Khan Palace", req.Query)

		_, _ = w.Write([]byte(`{"videos": [{"id": "v1", "platform": "youtube", "embedUrl": "https://www.youtube.com/embed/v1?autoplay=0&rel=0"}], "hasResults": true, "query": "Aga Khan Palace"}`))
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL+"/", time.Second, nil).SearchVideos(context.Background(), "Aga Khan Palace")
	require.NoError(t, err)
	assert.True(t, result.HasResults)
	assert.Equal(t, "v1", result.Videos[0].ID)
}

func TestSearchVideos_EmptyBodyHasNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query": "x"}`))
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL, time.Second, nil).SearchVideos(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, result.HasResults)
	assert.NotNil(t, result.Videos)
}

func TestSearch_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType apperrors.ErrorType
	}{
		{"bad request", http.StatusBadRequest, apperrors.ErrorTypeValidation},
		{"upstream failure", http.StatusBadGateway, apperrors.ErrorTypeExternal},
		{"rate limited", http.StatusTooManyRequests, apperrors.ErrorTypeExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": "nope"}`))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second, nil).Search(context.Background(), "q")
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType))
			assert.Equal(t, "nope", apperrors.PublicMessage(err))
		})
	}
}

func TestSearch_TimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond, nil).Search(context.Background(), "slow")
	require.Error(t, err)
	assert.True(t, apperrors.IsTransportFailure(err))
}
