package video_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/musemate/backend/internal/adapters/cache"
	"github.com/musemate/backend/internal/adapters/providers/video"
	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	redisclient "github.com/musemate/backend/internal/infrastructure/clients/redis"
	apperrors "github.com/musemate/backend/pkg/errors"
)

const youtubeResponse = `{
  "kind": "youtube#searchListResponse",
  "items": [
    {
      "id": {"kind": "youtube#video", "videoId": "abc123"},
      "snippet": {
        "title": "CSMVS walkthrough",
        "description": "A tour",
        "channelTitle": "Mumbai Walks",
        "publishedAt": "2024-01-02T03:04:05Z",
        "liveBroadcastContent": "live",
        "thumbnails": {"default": {"url": "https://i.ytimg.com/d.jpg"}, "medium": {"url": "https://i.ytimg.com/m.jpg"}}
      }
    },
    {"id": {"kind": "youtube#channel", "channelId": "skipme"}, "snippet": {"title": "channel"}}
  ]
}`

func TestYouTubeProvider_SearchVideos(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(youtubeResponse))
	}))
	defer srv.Close()

	p, err := video.NewYouTubeProvider(context.Background(), "key", 5,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	videos, err := p.SearchVideos(context.Background(), "Vastu Sangrahalaya")
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.True(t, strings.HasSuffix(got.URL.Path, "/search"))
	assert.Equal(t, "Vastu Sangrahalaya", got.URL.Query().Get("q"))
	assert.Equal(t, "video", got.URL.Query().Get("type"))
	assert.Equal(t, "5", got.URL.Query().Get("maxResults"))

	require.Len(t, videos, 1)
	assert.Equal(t, "abc123", videos[0].ID)
	assert.Equal(t, "https://www.youtube.com/embed/abc123?autoplay=0&rel=0", videos[0].EmbedURL)
	assert.Equal(t, "https://i.ytimg.com/m.jpg", videos[0].Thumbnail)
	assert.Equal(t, "Mumbai Walks", videos[0].Channel)
	assert.Equal(t, "2024-01-02T03:04:05Z", videos[0].PublishedAt)
	assert.True(t, videos[0].IsLive)
	assert.Equal(t, entities.PlatformYouTube, videos[0].Platform)
}

func TestYouTubeProvider_RequiresKey(t *testing.T) {
	_, err := video.NewYouTubeProvider(context.Background(), "", 5)
	assert.Error(t, err)
}

func TestVimeoProvider_SearchVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "Raja Kelkar museum", r.URL.Query().Get("query"))
		assert.Equal(t, "3", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data": [
			{"uri": "/videos/777", "name": "Kelkar lamps", "created_time": "2023-05-06T07:08:09+00:00", "pictures": {"sizes": [{"link": "https://i.vimeocdn.com/1.jpg"}]}, "user": {"name": "Pune Heritage"}},
			{"uri": "/videos/888", "name": "Untitled"}
		]}`))
	}))
	defer srv.Close()

	p := video.NewVimeoProvider(srv.URL+"/", "tok", time.Second)
	videos, err := p.SearchVideos(context.Background(), "Raja Kelkar")
	require.NoError(t, err)

	require.Len(t, videos, 2)
	assert.Equal(t, "777", videos[0].ID)
	assert.Equal(t, "https://player.vimeo.com/video/777", videos[0].EmbedURL)
	assert.Equal(t, "https://i.vimeocdn.com/1.jpg", videos[0].Thumbnail)
	assert.Equal(t, "2023-05-06T07:08:09+00:00", videos[0].PublishedAt)
	assert.False(t, videos[0].IsLive)
	assert.Equal(t, "Vimeo", videos[1].Channel)
}

func TestVimeoProvider_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := video.NewVimeoProvider(srv.URL, "bad", time.Second).SearchVideos(context.Background(), "x")
	assert.Error(t, err)
}

func TestCuratedProvider(t *testing.T) {
	videos, err := video.CuratedProvider{}.SearchVideos(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, videos, 3)
	assert.Equal(t, "c1f45LzAciE", videos[0].ID)
	for _, v := range videos {
		assert.Equal(t, entities.PlatformFallback, v.Platform)
		assert.NotEmpty(t, v.Channel)
		_, err := time.Parse(time.RFC3339, v.PublishedAt)
		assert.NoError(t, err)
	}
}

func TestVideo_JSONShape(t *testing.T) {
	data, err := json.Marshal(entities.Video{ID: "v1", PublishedAt: "2024-01-02T03:04:05Z"})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "channelTitle")
	assert.Equal(t, "2024-01-02T03:04:05Z", fields["publishedAt"])
	assert.NotContains(t, fields, "isLive")

	data, err = json.Marshal(entities.Video{ID: "v2", IsLive: true})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"isLive":true`)
}

type stubProvider struct {
	name   string
	videos []entities.Video
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) SearchVideos(ctx context.Context, query string) ([]entities.Video, error) {
	s.calls++
	return s.videos, s.err
}

func TestSearchChain_FirstNonEmptyWins(t *testing.T) {
	failing := &stubProvider{name: "youtube", err: errors.New("quota exceeded")}
	empty := &stubProvider{name: "vimeo"}
	hit := &stubProvider{name: "fallback", videos: []entities.Video{{ID: "v1"}}}

	chain := video.NewSearchChain([]providers.VideoSearchProvider{failing, empty, hit})
	result, err := chain.SearchVideos(context.Background(), "  Aga Khan Palace ")
	require.NoError(t, err)

	assert.True(t, result.HasResults)
	assert.Equal(t, "Aga Khan Palace", result.Query)
	assert.Equal(t, "v1", result.Videos[0].ID)
	assert.Equal(t, 1, empty.calls)
}

func TestSearchChain_AllEmptyIsNotAnError(t *testing.T) {
	chain := video.NewSearchChain([]providers.VideoSearchProvider{&stubProvider{name: "youtube"}})

	result, err := chain.SearchVideos(context.Background(), "obscure")
	require.NoError(t, err)
	assert.False(t, result.HasResults)
	assert.Empty(t, result.Videos)
}

func TestSearchChain_AllFailedIsExternal(t *testing.T) {
	chain := video.NewSearchChain([]providers.VideoSearchProvider{
		&stubProvider{name: "youtube", err: errors.New("boom")},
		&stubProvider{name: "vimeo", err: errors.New("boom")},
	})

	_, err := chain.SearchVideos(context.Background(), "museum")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestSearchChain_EmptyQuery(t *testing.T) {
	_, err := video.NewSearchChain(nil).SearchVideos(context.Background(), "   ")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestSearchChain_CachesByNormalizedQuery(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisclient.NewFromAddr(mr.Addr())
	defer client.Close()

	yt := &stubProvider{name: "youtube", videos: []entities.Video{{ID: "v1", Platform: entities.PlatformYouTube}}}
	chain := video.NewSearchChain(
		[]providers.VideoSearchProvider{yt},
		video.WithCache(cache.NewRedisAdapter(client), time.Hour),
	)

	_, err := chain.SearchVideos(context.Background(), "Nehru Science Centre")
	require.NoError(t, err)
	second, err := chain.SearchVideos(context.Background(), "nehru   science centre")
	require.NoError(t, err)

	assert.Equal(t, 1, yt.calls)
	assert.Equal(t, "nehru   science centre", second.Query)
	assert.Equal(t, "v1", second.Videos[0].ID)
	assert.True(t, mr.Exists("video:search:nehru science centre"))
}
