package video

import (
	"context"
	"time"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
)

// CuratedProvider returns a fixed set of general museum tours for any query.
// Only wired when VIDEO_CURATED_FALLBACK is enabled.
type CuratedProvider struct{}

var _ providers.VideoSearchProvider = CuratedProvider{}

var curatedTours = []struct {
	id, title, description, channel string
}{
	{"c1f45LzAciE", "Virtual Museum Tour - World's Greatest Museums", "Take a virtual tour of the world's most famous museums and their incredible collections.", "Museum Tours"},
	{"YuR0VGKJ0iY", "The Louvre Museum Virtual Tour", "Explore the famous Louvre Museum in Paris with this virtual tour.", "Art History"},
	{"ziw7NZyP0AE", "Museum of Natural History Tour", "Discover the wonders of natural history in this comprehensive museum tour.", "Science Museums"},
}

func (CuratedProvider) Name() string { return string(entities.PlatformFallback) }

func (CuratedProvider) SearchVideos(ctx context.Context, query string) ([]entities.Video, error) {
	publishedAt := time.Now().UTC().Format(time.RFC3339)
	videos := make([]entities.Video, 0, len(curatedTours))
	for _, t := range curatedTours {
		videos = append(videos, entities.Video{
			ID:          t.id,
			Title:       t.title,
			Description: t.description,
			Thumbnail:   "https://img.youtube.com/vi/" + t.id + "/maxresdefault.jpg",
			EmbedURL:    YouTubeEmbedURL(t.id),
			WatchURL:    "https://www.youtube.com/watch?v=" + t.id,
			Channel:     t.channel,
			PublishedAt: publishedAt,
			Platform:    entities.PlatformFallback,
		})
	}
	return videos, nil
}
