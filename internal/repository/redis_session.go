package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopworks/storefront/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore implements domain.SessionStore on Redis. Each session
// attribute lives under its own key so individual attributes can be read and
// expired independently.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a new Redis-backed session store
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
	}
}

func profileKey(sessionID string) string {
	return sessionKeyPrefix + sessionID + ":" + domain.SessionAttributeUserProfile
}

// GetUserProfile retrieves the cached user profile for a session.
// Returns domain.ErrNotFound on a miss.
func (s *RedisSessionStore) GetUserProfile(ctx context.Context, sessionID string) (*domain.UserAccount, error) {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "session.GetUserProfile",
		trace.WithAttributes(attribute.String("session.attribute", domain.SessionAttributeUserProfile)),
	)
	defer span.End()

	data, err := s.client.Get(ctx, profileKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.String("session.result", "miss"))
			return nil, domain.ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read session profile: %w", err)
	}

	span.SetAttributes(attribute.String("session.result", "hit"))
	var user domain.UserAccount
	if err := json.Unmarshal(data, &user); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal session profile: %w", err)
	}

	return &user, nil
}

// SetUserProfile caches the user profile for a session with the store TTL.
func (s *RedisSessionStore) SetUserProfile(ctx context.Context, sessionID string, user *domain.UserAccount) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "session.SetUserProfile",
		trace.WithAttributes(attribute.Int64("session.ttl_seconds", int64(s.ttl.Seconds()))),
	)
	defer span.End()

	data, err := json.Marshal(user)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal session profile: %w", err)
	}

	if err := s.client.Set(ctx, profileKey(sessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to cache session profile: %w", err)
	}

	return nil
}

// DeleteUserProfile removes the cached user profile for a session.
func (s *RedisSessionStore) DeleteUserProfile(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, profileKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session profile: %w", err)
	}
	return nil
}

// Destroy removes every attribute stored under the session (O(N) scan,
// sessions hold a handful of keys).
func (s *RedisSessionStore) Destroy(ctx context.Context, sessionID string) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "session.Destroy")
	defer span.End()

	keys, err := s.client.Keys(ctx, sessionKeyPrefix+sessionID+":*").Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to scan session keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	span.SetAttributes(attribute.Int("session.destroyed_keys", len(keys)))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
