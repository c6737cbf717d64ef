// Package proxyapi calls the MuseMate search proxies over HTTP. The proxies
// hold the third-party credentials; this client is what the chat core and the
// CLI use to reach them.
package proxyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/infrastructure/observability"
	apperrors "github.com/musemate/backend/pkg/errors"
)

const (
	videoSearchPath = "/functions/video-search"
	webSearchPath   = "/functions/web-search"
)

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
}

var (
	_ providers.VideoSearcher     = (*HTTPClient)(nil)
	_ providers.WebSearchProvider = (*HTTPClient)(nil)
)

type searchRequest struct {
	Query string `json:"query"`
}

type errorBody struct {
	Error string `json:"error"`
}

func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
	}
}

// SearchVideos calls the video search proxy
func (c *HTTPClient) SearchVideos(ctx context.Context, query string) (*entities.VideoSearchResult, error) {
	out := &entities.VideoSearchResult{}
	if err := c.post(ctx, videoSearchPath, query, out); err != nil {
		return nil, err
	}
	if out.Videos == nil {
		out.Videos = []entities.Video{}
	}
	out.HasResults = len(out.Videos) > 0
	return out, nil
}

// Search calls the web search proxy
func (c *HTTPClient) Search(ctx context.Context, query string) (*entities.WebSearchResult, error) {
	out := &entities.WebSearchResult{}
	if err := c.post(ctx, webSearchPath, query, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) post(ctx context.Context, path, query string, out interface{}) error {
	start := time.Now()
	outcome := "ok"
	defer func() {
		observability.RecordProxyMetric(ctx, c.metrics, path, outcome, time.Since(start))
	}()

	ctx, span := observability.StartSpan(ctx, "proxyapi.post")
	defer span.End()

	body, err := json.Marshal(searchRequest{Query: query})
	if err != nil {
		outcome = "error"
		return apperrors.NewInternalError("failed to encode proxy request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		outcome = "error"
		return apperrors.NewInternalError("failed to build proxy request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "transport_error"
		observability.RecordError(span, err)
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			outcome = "timeout"
		}
		return apperrors.NewExternalError(fmt.Sprintf("proxy %s unreachable", path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = fmt.Sprintf("status_%d", resp.StatusCode)
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		msg := eb.Error
		if msg == "" {
			msg = fmt.Sprintf("proxy %s returned status %d", path, resp.StatusCode)
		}
		if resp.StatusCode == http.StatusBadRequest {
			return apperrors.NewValidationError(msg)
		}
		return apperrors.NewExternalError(msg, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		outcome = "decode_error"
		return apperrors.NewExternalError("invalid proxy response", err)
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
