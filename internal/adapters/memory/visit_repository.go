package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/repositories"
)

// VisitRepository keeps visits in memory
type VisitRepository struct {
	mu     sync.Mutex
	visits []*entities.MuseumVisit
	now    func() time.Time
}

var _ repositories.VisitRepository = (*VisitRepository)(nil)

func NewVisitRepository() *VisitRepository {
	return &VisitRepository{now: time.Now}
}

func (r *VisitRepository) Track(ctx context.Context, visit *entities.MuseumVisit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if visit.ID == "" {
		visit.ID = uuid.New().String()
	}
	if visit.VisitedAt.IsZero() {
		visit.VisitedAt = r.now().UTC()
	}
	copied := *visit
	r.visits = append(r.visits, &copied)
	return nil
}

func (r *VisitRepository) Recent(ctx context.Context, userID string, limit int) ([]*entities.MuseumVisit, error) {
	if limit <= 0 {
		limit = 6
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	latest := map[string]*entities.MuseumVisit{}
	for _, v := range r.visits {
		if v.UserID != userID {
			continue
		}
		if cur, ok := latest[v.MuseumID]; !ok || !v.VisitedAt.Before(cur.VisitedAt) {
			latest[v.MuseumID] = v
		}
	}

	out := make([]*entities.MuseumVisit, 0, len(latest))
	for _, v := range latest {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].VisitedAt.After(out[j].VisitedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ChatAnalyticsRepository keeps chat events in memory
type ChatAnalyticsRepository struct {
	mu     sync.Mutex
	events []*entities.ChatEvent
}

var _ repositories.ChatAnalyticsRepository = (*ChatAnalyticsRepository)(nil)

func NewChatAnalyticsRepository() *ChatAnalyticsRepository {
	return &ChatAnalyticsRepository{}
}

func (r *ChatAnalyticsRepository) LogEvent(ctx context.Context, event *entities.ChatEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	copied := *event
	r.events = append(r.events, &copied)
	return nil
}

func (r *ChatAnalyticsRepository) UnresolvedQueries(ctx context.Context, limit int) ([]*entities.UnresolvedQuery, error) {
	if limit <= 0 {
		limit = 50
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byText := map[string]*entities.UnresolvedQuery{}
	for _, e := range r.events {
		if e.Resolution != entities.ResolutionWebSearch && e.Resolution != entities.ResolutionUnavailable {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(e.Utterance))
		q, ok := byText[key]
		if !ok {
			q = &entities.UnresolvedQuery{Utterance: key}
			byText[key] = q
		}
		q.Count++
		if e.CreatedAt.After(q.LastSeen) {
			q.LastSeen = e.CreatedAt
		}
	}

	out := make([]*entities.UnresolvedQuery, 0, len(byText))
	for _, q := range byText {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
