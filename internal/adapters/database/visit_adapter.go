package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/repositories"
	"github.com/musemate/backend/internal/infrastructure/clients/postgres"
	"github.com/musemate/backend/internal/infrastructure/observability"
	apperrors "github.com/musemate/backend/pkg/errors"
)

// VisitAdapter implements VisitRepository on PostgreSQL
type VisitAdapter struct {
	client  *postgres.Client
	metrics *observability.Metrics
}

// NewVisitAdapter creates a new visit adapter
func NewVisitAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.VisitRepository {
	return &VisitAdapter{client: client, metrics: metrics}
}

// Track records a visit
func (a *VisitAdapter) Track(ctx context.Context, visit *entities.MuseumVisit) error {
	if visit.ID == "" {
		visit.ID = uuid.New().String()
	}
	if visit.VisitedAt.IsZero() {
		visit.VisitedAt = time.Now().UTC()
	}

	ctx, done := observe(ctx, a.metrics, "museum_visits.insert")
	_, err := a.client.DB().ExecContext(ctx,
		`INSERT INTO museum_visits (id, user_id, museum_id, visited_at) VALUES ($1, $2, $3, $4)`,
		visit.ID, visit.UserID, visit.MuseumID, visit.VisitedAt,
	)
	done(err)
	if err != nil {
		return apperrors.NewInternalError("failed to track museum visit", err)
	}
	return nil
}

// Recent returns the latest visit per museum, newest first
func (a *VisitAdapter) Recent(ctx context.Context, userID string, limit int) (_ []*entities.MuseumVisit, err error) {
	if limit <= 0 {
		limit = 6
	}

	ctx, done := observe(ctx, a.metrics, "museum_visits.recent")
	defer func() { done(err) }()

	query := `
		SELECT id, user_id, museum_id, visited_at FROM (
			SELECT DISTINCT ON (museum_id) id, user_id, museum_id, visited_at
			FROM museum_visits
			WHERE user_id = $1
			ORDER BY museum_id, visited_at DESC
		) latest
		ORDER BY visited_at DESC
		LIMIT $2
	`

	rows, err := a.client.DB().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get recent visits", err)
	}
	defer rows.Close()

	visits := []*entities.MuseumVisit{}
	for rows.Next() {
		v := &entities.MuseumVisit{}
		if err := rows.Scan(&v.ID, &v.UserID, &v.MuseumID, &v.VisitedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan museum visit", err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to get recent visits", err)
	}
	return visits, nil
}
