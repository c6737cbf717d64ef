package video

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
)

const defaultYouTubeResults = 5

// YouTubeProvider searches the YouTube Data API v3
type YouTubeProvider struct {
	service    *youtube.Service
	maxResults int64
}

var _ providers.VideoSearchProvider = (*YouTubeProvider)(nil)

// NewYouTubeProvider creates a provider authenticated with an API key.
// Extra options are appended, so tests can override the endpoint and HTTP client.
func NewYouTubeProvider(ctx context.Context, apiKey string, maxResults int, opts ...option.ClientOption) (*YouTubeProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube api key is required")
	}
	if maxResults <= 0 {
		maxResults = defaultYouTubeResults
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	return &YouTubeProvider{service: service, maxResults: int64(maxResults)}, nil
}

func (p *YouTubeProvider) Name() string { return string(entities.PlatformYouTube) }

func (p *YouTubeProvider) SearchVideos(ctx context.Context, query string) ([]entities.Video, error) {
	resp, err := p.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(p.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search failed: %w", err)
	}

	videos := make([]entities.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		id := item.Id.VideoId
		videos = append(videos, entities.Video{
			ID:          id,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Thumbnail:   thumbnailURL(item.Snippet.Thumbnails),
			EmbedURL:    YouTubeEmbedURL(id),
			WatchURL:    "https://www.youtube.com/watch?v=" + id,
			Channel:     item.Snippet.ChannelTitle,
			PublishedAt: item.Snippet.PublishedAt,
			IsLive:      item.Snippet.LiveBroadcastContent == "live",
			Platform:    entities.PlatformYouTube,
		})
	}
	return videos, nil
}

// YouTubeEmbedURL is the player URL for a video id
func YouTubeEmbedURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/embed/%s?autoplay=0&rel=0", id)
}

func thumbnailURL(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	if t.Medium != nil && t.Medium.Url != "" {
		return t.Medium.Url
	}
	if t.Default != nil {
		return t.Default.Url
	}
	return ""
}
