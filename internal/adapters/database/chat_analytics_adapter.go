package database

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/repositories"
	"github.com/musemate/backend/internal/infrastructure/clients/postgres"
	"github.com/musemate/backend/internal/infrastructure/observability"
	apperrors "github.com/musemate/backend/pkg/errors"
)

type ChatAnalyticsAdapter struct {
	client  *postgres.Client
	metrics *observability.Metrics
}

func NewChatAnalyticsAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.ChatAnalyticsRepository {
	return &ChatAnalyticsAdapter{client: client, metrics: metrics}
}

func (a *ChatAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.ChatEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO chat_events (id, session_id, utterance, resolution, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	ctx, done := observe(ctx, a.metrics, "chat_events.insert")
	_, err := a.client.DB().ExecContext(ctx, query,
		event.ID,
		event.SessionID,
		strings.TrimSpace(event.Utterance),
		string(event.Resolution),
		event.CreatedAt,
	)
	done(err)
	if err != nil {
		return apperrors.NewInternalError("failed to log chat event", err)
	}

	return nil
}

// UnresolvedQueries groups utterances that fell through to web search, most frequent first
func (a *ChatAnalyticsAdapter) UnresolvedQueries(ctx context.Context, limit int) (_ []*entities.UnresolvedQuery, err error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, done := observe(ctx, a.metrics, "chat_events.unresolved")
	defer func() { done(err) }()

	query := `
		SELECT LOWER(utterance) AS utterance, COUNT(*) AS count, MAX(created_at) AS last_seen
		FROM chat_events
		WHERE resolution IN ($1, $2)
		GROUP BY LOWER(utterance)
		ORDER BY count DESC, last_seen DESC
		LIMIT $3
	`

	rows, err := a.client.DB().QueryContext(ctx, query,
		string(entities.ResolutionWebSearch),
		string(entities.ResolutionUnavailable),
		limit,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get unresolved queries", err)
	}
	defer rows.Close()

	results := []*entities.UnresolvedQuery{}
	for rows.Next() {
		q := &entities.UnresolvedQuery{}
		if err := rows.Scan(&q.Utterance, &q.Count, &q.LastSeen); err != nil {
			return nil, apperrors.NewInternalError("failed to scan unresolved query", err)
		}
		results = append(results, q)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to get unresolved queries", err)
	}

	return results, nil
}
