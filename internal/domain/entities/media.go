package entities

// VideoPlatform identifies where a video came from
type VideoPlatform string

const (
	PlatformYouTube  VideoPlatform = "youtube"
	PlatformVimeo    VideoPlatform = "vimeo"
	PlatformFallback VideoPlatform = "fallback"
)

// Video is one embeddable result from the video search proxy
type Video struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Thumbnail   string        `json:"thumbnail"`
	EmbedURL    string        `json:"embedUrl"`
	WatchURL    string        `json:"watchUrl,omitempty"`
	Channel     string        `json:"channelTitle"`
	PublishedAt string        `json:"publishedAt"`
	IsLive      bool          `json:"isLive,omitempty"`
	Platform    VideoPlatform `json:"platform"`
}

// VideoSearchResult is the video proxy's response body
type VideoSearchResult struct {
	Videos     []Video `json:"videos"`
	HasResults bool    `json:"hasResults"`
	Query      string  `json:"query"`
}

// WebResult is one organic search hit
type WebResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// WebSearchResult is the web search proxy's response body. Answer is never empty.
type WebSearchResult struct {
	Results []WebResult `json:"results"`
	Answer  string      `json:"answer"`
	Query   string      `json:"query"`
}
