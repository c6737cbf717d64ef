package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/repositories"
)

const resolverSearchLimit = 3

var contextKeywords = []string{"museum", "gallery", "exhibition", "art", "history", "culture"}

// words that never identify a museum on their own
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "what": true, "when": true, "where": true,
	"which": true, "who": true, "how": true, "tell": true, "show": true, "about": true,
	"are": true, "is": true, "of": true, "in": true, "at": true, "me": true, "can": true,
	"you": true, "does": true, "do": true, "museum": true, "museums": true, "please": true,
	"with": true, "any": true, "there": true, "this": true, "that": true, "its": true,
}

var cannedReplies = []struct {
	keyword string
	reply   string
}{
	{"booking", `You can book museum tickets by choosing "Museum Booking" from the menu and telling me the museum name.`},
	{"timing", `To check opening hours, choose "Check Available Time Slots" and enter a museum name.`},
	{"price", `Entry fees vary by museum. Ask me about a specific one, for example "ticket price for Aga Khan Palace".`},
	{"review", `I can share visitor reviews. Ask about a specific museum, for example "reviews of Raja Dinkar Kelkar Museum".`},
}

// Resolution is a locally produced answer
type Resolution struct {
	Message entities.Message
	Stage   entities.ChatResolution
}

// ResolverCatalog is what the resolver reads from the museum repository
type ResolverCatalog interface {
	List(ctx context.Context, filter repositories.MuseumFilter) ([]*entities.Museum, error)
	SearchText(ctx context.Context, terms []string, limit int) ([]*entities.Museum, error)
}

// FallbackResolver answers free text from the catalog before anything goes to web search
type FallbackResolver struct {
	catalog ResolverCatalog
	now     func() time.Time
}

// NewFallbackResolver creates a resolver; now defaults to time.Now
func NewFallbackResolver(catalog ResolverCatalog, now func() time.Time) *FallbackResolver {
	if now == nil {
		now = time.Now
	}
	return &FallbackResolver{catalog: catalog, now: now}
}

// Resolve returns nil when nothing local applies
func (r *FallbackResolver) Resolve(ctx context.Context, utterance string) (*Resolution, error) {
	text := strings.ToLower(strings.TrimSpace(utterance))
	if text == "" {
		return nil, nil
	}
	tokens := tokenize(text)

	if containsAny(tokens, contextKeywords) {
		museums, err := r.catalog.List(ctx, repositories.MuseumFilter{})
		if err != nil {
			return nil, err
		}
		if m := matchMuseum(text, tokens, museums); m != nil {
			return &Resolution{Message: r.describe(m, tokens), Stage: entities.ResolutionDatabase}, nil
		}

		if terms := significantTerms(tokens); len(terms) > 0 {
			hits, err := r.catalog.SearchText(ctx, terms, resolverSearchLimit)
			if err != nil {
				return nil, err
			}
			if len(hits) > 0 {
				return &Resolution{Message: compactList(hits), Stage: entities.ResolutionDatabase}, nil
			}
		}
	}

	for _, c := range cannedReplies {
		if containsAny(tokens, []string{c.keyword}) {
			return &Resolution{Message: entities.TextMessage(c.reply), Stage: entities.ResolutionCanned}, nil
		}
	}
	return nil, nil
}

// matchMuseum tries the full name inside the utterance first, then the museum
// whose significant name tokens all appear; more tokens is a better match.
func matchMuseum(text string, tokens []string, museums []*entities.Museum) *entities.Museum {
	var exact *entities.Museum
	for _, m := range museums {
		name := strings.ToLower(strings.TrimSpace(m.Name))
		if name != "" && strings.Contains(text, name) && (exact == nil || len(m.Name) > len(exact.Name)) {
			exact = m
		}
	}
	if exact != nil {
		return exact
	}

	present := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		present[t] = true
	}

	var best *entities.Museum
	bestScore := 0
	for _, m := range museums {
		nameTokens := significantTerms(tokenize(m.Name))
		if len(nameTokens) == 0 {
			continue
		}
		all := true
		for _, t := range nameTokens {
			if !present[t] {
				all = false
				break
			}
		}
		if all && len(nameTokens) > bestScore {
			best, bestScore = m, len(nameTokens)
		}
	}
	return best
}

func (r *FallbackResolver) describe(m *entities.Museum, tokens []string) entities.Message {
	switch {
	case containsAny(tokens, []string{"timing", "timings", "hours", "open"}):
		blocks := []entities.Block{entities.Heading(m.Name + " - Opening Hours")}
		if len(m.DetailedTimings) > 0 {
			blocks = append(blocks, WeeklySchedule(m)...)
		} else {
			blocks = append(blocks, entities.Detail("⏰", orDefault(m.Timings, "Contact museum for current timings")))
		}
		return entities.NewMessage(blocks...)

	case containsAny(tokens, []string{"review", "reviews", "rating", "ratings"}):
		blocks := []entities.Block{entities.Heading(m.Name + " - Reviews")}
		if len(m.Reviews) == 0 {
			return entities.NewMessage(append(blocks, entities.Paragraph("No reviews yet."))...)
		}
		blocks = append(blocks, entities.Detail("⭐", fmt.Sprintf("Average rating: %.1f/5 from %d reviews", m.AverageRating(), len(m.Reviews))))
		for i, rv := range m.Reviews {
			if i == 3 {
				break
			}
			blocks = append(blocks, entities.ListItem(i+1, fmt.Sprintf("%s (%d/5): %s", orDefault(rv.User, "Visitor"), rv.Rating, rv.Comment)))
		}
		return entities.NewMessage(blocks...)

	case containsAny(tokens, []string{"price", "prices", "ticket", "tickets", "cost", "fee"}):
		blocks := []entities.Block{entities.Heading(m.Name + " - Pricing")}
		blocks = append(blocks, priceLines(m)...)
		blocks = append(blocks, entities.Detail("🎫", "Book online: "+m.BookingURL()))
		return entities.NewMessage(blocks...)

	case containsAny(tokens, []string{"book", "booking"}):
		blocks := []entities.Block{
			entities.Heading("Book " + m.Name),
			entities.Detail("🎫", m.BookingURL()),
		}
		return entities.NewMessage(append(blocks, priceLines(m)...)...)

	default:
		return r.summary(m)
	}
}

func (r *FallbackResolver) summary(m *entities.Museum) entities.Message {
	today := r.now().Weekday()
	var todayLine string
	switch status, hours := m.DayStatus(today); status {
	case entities.DayOpen:
		todayLine = fmt.Sprintf("Open today (%s)", hours)
	case entities.DayClosed:
		todayLine = "Closed today"
	default:
		todayLine = "Today's hours not listed"
	}

	ratingLine := "No ratings yet"
	if len(m.Reviews) > 0 {
		ratingLine = fmt.Sprintf("%.1f/5 average rating", m.AverageRating())
	}

	return entities.NewMessage(
		entities.Heading(m.Name),
		entities.Detail("📍", orDefault(m.City, "Location not listed")),
		entities.Paragraph(orDefault(m.Description, "No description available")),
		entities.Detail("🕒", todayLine),
		entities.Detail("⭐", ratingLine),
	)
}

func priceLines(m *entities.Museum) []entities.Block {
	blocks := []entities.Block{entities.Detail("💰", "Entry fee: "+orDefault(m.EntryFee, "Contact for pricing"))}
	if m.Pricing != nil {
		if m.Pricing.Adult != "" {
			blocks = append(blocks, entities.Detail("", "Adult: "+m.Pricing.Adult))
		}
		if m.Pricing.Child != "" {
			blocks = append(blocks, entities.Detail("", "Child: "+m.Pricing.Child))
		}
	}
	return blocks
}

func compactList(museums []*entities.Museum) entities.Message {
	blocks := []entities.Block{entities.Paragraph("Here are some museums that might match:")}
	for i, m := range museums {
		blocks = append(blocks, entities.ListItem(i+1, fmt.Sprintf("%s (%s)", m.Name, orDefault(m.City, "city not listed"))))
	}
	blocks = append(blocks, entities.Paragraph("Would you like details, timings or booking for one of these?"))
	return entities.NewMessage(blocks...)
}

func significantTerms(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) >= 3 && !stopWords[t] {
			out = append(out, t)
		}
	}
	return out
}

func containsAny(tokens, words []string) bool {
	for _, t := range tokens {
		for _, w := range words {
			if t == w {
				return true
			}
		}
	}
	return false
}
