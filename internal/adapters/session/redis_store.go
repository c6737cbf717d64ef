package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	redisclient "github.com/musemate/backend/internal/infrastructure/clients/redis"
)

// RedisStore keeps chat sessions as JSON documents with a sliding TTL.
// Writes use WATCH/MULTI so two requests against the same revision cannot both win.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	now    func() time.Time
}

var _ providers.SessionStore = (*RedisStore)(nil)

func NewRedisStore(client *redisclient.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		redis:  client.Client(),
		ttl:    ttl,
		tracer: otel.Tracer("musemate.adapters.session"),
		now:    time.Now,
	}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*entities.ChatSession, error) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, providers.ErrSessionNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load %s: %w", id, err)
	}
	return decodeSession(data)
}

func (s *RedisStore) Create(ctx context.Context, session *entities.ChatSession) error {
	ctx, span := s.tracer.Start(ctx, "session.create")
	defer span.End()

	session.Revision = 1
	session.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session: failed to encode: %w", err)
	}

	ok, err := s.redis.SetNX(ctx, sessionKey(session.ID), data, s.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to create %s: %w", session.ID, err)
	}
	if !ok {
		return fmt.Errorf("session: %s already exists", session.ID)
	}
	return nil
}

func (s *RedisStore) CompareAndSwap(ctx context.Context, session *entities.ChatSession, expectedRevision int64) error {
	ctx, span := s.tracer.Start(ctx, "session.compare_and_swap")
	defer span.End()

	key := sessionKey(session.ID)
	next := *session
	next.Revision = expectedRevision + 1
	next.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("session: failed to encode: %w", err)
	}

	err = s.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return providers.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		stored, err := decodeSession(current)
		if err != nil {
			return err
		}
		if stored.Revision != expectedRevision {
			return providers.ErrStaleRevision
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		session.Revision = next.Revision
		session.UpdatedAt = next.UpdatedAt
		return nil
	case errors.Is(err, redis.TxFailedErr):
		// A concurrent writer committed between WATCH and EXEC.
		return providers.ErrStaleRevision
	case errors.Is(err, providers.ErrStaleRevision), errors.Is(err, providers.ErrSessionNotFound):
		return err
	default:
		span.RecordError(err)
		return fmt.Errorf("session: failed to save %s: %w", session.ID, err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session: failed to delete %s: %w", id, err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("chat_session:%s", id)
}

func decodeSession(data []byte) (*entities.ChatSession, error) {
	var session entities.ChatSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("session: failed to decode: %w", err)
	}
	return &session, nil
}
