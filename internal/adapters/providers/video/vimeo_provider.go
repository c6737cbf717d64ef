package video

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
)

const vimeoResults = 3

// VimeoProvider searches the Vimeo REST API with a bearer token
type VimeoProvider struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ providers.VideoSearchProvider = (*VimeoProvider)(nil)

func NewVimeoProvider(baseURL, token string, timeout time.Duration) *VimeoProvider {
	return &VimeoProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *VimeoProvider) Name() string { return string(entities.PlatformVimeo) }

type vimeoResponse struct {
	Data []struct {
		URI         string `json:"uri"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Link        string `json:"link"`
		CreatedTime string `json:"created_time"`
		Pictures    struct {
			Sizes []struct {
				Link string `json:"link"`
			} `json:"sizes"`
		} `json:"pictures"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"data"`
}

// SearchVideos appends " museum" to the query to keep results on topic
func (p *VimeoProvider) SearchVideos(ctx context.Context, query string) ([]entities.Video, error) {
	params := url.Values{}
	params.Set("query", query+" museum")
	params.Set("per_page", fmt.Sprintf("%d", vimeoResults))
	params.Set("sort", "relevant")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/videos?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Accept", "application/vnd.vimeo.*+json;version=3.4")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vimeo search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vimeo returned status %d", resp.StatusCode)
	}

	var body vimeoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode vimeo response: %w", err)
	}

	videos := make([]entities.Video, 0, len(body.Data))
	for _, item := range body.Data {
		id := item.URI[strings.LastIndex(item.URI, "/")+1:]
		if id == "" {
			continue
		}
		v := entities.Video{
			ID:          id,
			Title:       item.Name,
			Description: item.Description,
			EmbedURL:    "https://player.vimeo.com/video/" + id,
			WatchURL:    item.Link,
			Channel:     item.User.Name,
			PublishedAt: item.CreatedTime,
			Platform:    entities.PlatformVimeo,
		}
		if v.Channel == "" {
			v.Channel = "Vimeo"
		}
		if len(item.Pictures.Sizes) > 0 {
			v.Thumbnail = item.Pictures.Sizes[0].Link
		}
		videos = append(videos, v)
	}
	return videos, nil
}
