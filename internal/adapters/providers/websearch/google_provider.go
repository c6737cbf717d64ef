package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	apperrors "github.com/musemate/backend/pkg/errors"
)

const maxResults = 3

// GoogleProvider answers questions with the Custom Search JSON API
type GoogleProvider struct {
	service  *customsearch.Service
	engineID string
}

var _ providers.WebSearchProvider = (*GoogleProvider)(nil)

func NewGoogleProvider(ctx context.Context, apiKey, engineID string, opts ...option.ClientOption) (*GoogleProvider, error) {
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("custom search api key and engine id are required")
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search service: %w", err)
	}
	return &GoogleProvider{service: service, engineID: engineID}, nil
}

func (p *GoogleProvider) Search(ctx context.Context, query string) (*entities.WebSearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, apperrors.NewValidationError("query parameter is required")
	}

	resp, err := p.service.Cse.List().Cx(p.engineID).Q(q).Num(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.NewExternalError("web search failed", err)
	}

	results := make([]entities.WebResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if len(results) == maxResults {
			break
		}
		results = append(results, entities.WebResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}

	return &entities.WebSearchResult{
		Results: results,
		Answer:  SynthesizeAnswer(q, results),
		Query:   q,
	}, nil
}

// SynthesizeAnswer turns the top hits into a chat reply; it never returns ""
func SynthesizeAnswer(query string, results []entities.WebResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("I couldn't find specific information about %q in my search. Could you try rephrasing your question or provide more details?", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on my search, here's what I found about %q: %s", query, results[0].Snippet)
	if len(results) > 1 {
		fmt.Fprintf(&b, "\n\nAdditional information: %s", results[1].Snippet)
	}
	b.WriteString("\n\nWould you like me to search for more specific information about this topic?")
	return b.String()
}

// DeflectionProvider is used when no search credentials are configured.
// It points the user at a plain Google search instead.
type DeflectionProvider struct{}

var _ providers.WebSearchProvider = DeflectionProvider{}

func (DeflectionProvider) Search(ctx context.Context, query string) (*entities.WebSearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, apperrors.NewValidationError("query parameter is required")
	}

	answer := fmt.Sprintf("I found some information about %q. For the most up-to-date information, I recommend checking official sources or visiting the relevant websites directly.", q)
	return &entities.WebSearchResult{
		Results: []entities.WebResult{{
			Title:   "Search Result",
			Link:    "https://www.google.com/search?q=" + url.QueryEscape(q),
			Snippet: answer,
		}},
		Answer: answer,
		Query:  q,
	}, nil
}
