package geolocation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musemate/backend/internal/adapters/cache"
	"github.com/musemate/backend/internal/adapters/providers/geolocation"
	redisclient "github.com/musemate/backend/internal/infrastructure/clients/redis"
	apperrors "github.com/musemate/backend/pkg/errors"
)

func geocodeServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "in", r.URL.Query().Get("region"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("address") {
		case "Satara":
			w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Satara, Maharashtra, India","geometry":{"location":{"lat":17.6805,"lng":74.0183}}}]}`))
		case "Atlantis":
			w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		default:
			w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleProvider_DirectoryFirst(t *testing.T) {
	var calls int32
	srv := geocodeServer(t, &calls)
	p := geolocation.NewGoogleProvider(nil, "test-key", "in", geolocation.WithBaseURL(srv.URL))

	coords, err := p.Geocode(context.Background(), "Pune")
	require.NoError(t, err)
	assert.Equal(t, geolocation.ReferenceCities["Pune"], *coords)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGoogleProvider_GeocodesUnknownCity(t *testing.T) {
	var calls int32
	srv := geocodeServer(t, &calls)

	mr := miniredis.RunT(t)
	client := redisclient.NewFromAddr(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })

	p := geolocation.NewGoogleProvider(nil, "test-key", "in",
		geolocation.WithBaseURL(srv.URL),
		geolocation.WithGeocodeCache(cache.NewRedisAdapter(client), time.Hour),
	)

	for i := 0; i < 2; i++ {
		coords, err := p.Geocode(context.Background(), " Satara ")
		require.NoError(t, err)
		assert.InDelta(t, 17.6805, coords.Latitude, 1e-6)
		assert.InDelta(t, 74.0183, coords.Longitude, 1e-6)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second lookup is served from cache")
}

func TestGoogleProvider_Errors(t *testing.T) {
	var calls int32
	srv := geocodeServer(t, &calls)
	p := geolocation.NewGoogleProvider(nil, "test-key", "in", geolocation.WithBaseURL(srv.URL))
	ctx := context.Background()

	_, err := p.Geocode(ctx, "Atlantis")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = p.Geocode(ctx, "Elsewhere")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))

	_, err = p.Geocode(ctx, "  ")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestGoogleProvider_CitiesComeFromDirectory(t *testing.T) {
	p := geolocation.NewGoogleProvider(nil, "", "")
	cities, err := p.Cities(context.Background())
	require.NoError(t, err)
	assert.Len(t, cities, len(geolocation.ReferenceCities))
}
