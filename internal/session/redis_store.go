package session

import (
	"context"
	"encoding/json"
	"time"

	"chat-service/internal/apierr"
	"chat-service/internal/logger"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix   = "session:"
	userSessionsPrefix = "user_sessions:"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed session store with the given
// default TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (r *RedisStore) key(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (r *RedisStore) userKey(userID string) string {
	return userSessionsPrefix + userID
}

func (r *RedisStore) Create(ctx context.Context, userID, userAgent string) (*Session, error) {
	if userID == "" {
		return nil, apierr.New(apierr.KindValidation, "session: missing user_id")
	}

	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	csrfToken, err := GenerateCSRFToken()
	if err != nil {
		return nil, err
	}

	now := r.now()
	s := &Session{
		ID:        id,
		UserID:    userID,
		CSRFToken: csrfToken,
		Data: map[string]string{
			DataKeyUserAgent:      userAgent,
			DataKeyLastActivityAt: now.Format(time.RFC3339Nano),
		},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}

	if err := r.write(ctx, s); err != nil {
		return nil, err
	}

	// Secondary index so all of a user's sessions can be enumerated.
	// Best effort: the record itself is the source of truth.
	pipe := r.client.Pipeline()
	pipe.SAdd(ctx, r.userKey(userID), id)
	pipe.Expire(ctx, r.userKey(userID), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("session index update failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	return s, nil
}

func (r *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	val, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil // not found
	}
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStore, "session: get failed", err)
	}

	var rec record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		// Malformed payloads read as absent, never as a failure.
		logger.Warn("session payload unreadable", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil, nil
	}

	s, err := hydrate(rec)
	if err != nil {
		logger.Warn("session payload unreadable", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil, nil
	}

	return s, nil
}

func (r *RedisStore) Refresh(ctx context.Context, sessionID string) error {
	s, err := r.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if s == nil {
		return nil // nothing to extend
	}

	now := r.now()
	extended := now.Add(r.ttl)
	if !extended.After(s.ExpiresAt) {
		// TTL is only ever extended, never shortened.
		return nil
	}

	s.ExpiresAt = extended
	s.UpdatedAt = now

	if err := r.write(ctx, s); err != nil {
		return err
	}

	// Keep the enumeration index alive as long as the record it indexes.
	if err := r.client.Expire(ctx, r.userKey(s.UserID), extended.Sub(now)).Err(); err != nil {
		logger.Warn("session index refresh failed", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}

	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	s, err := r.Get(ctx, sessionID)
	if err == nil && s != nil {
		if err := r.client.SRem(ctx, r.userKey(s.UserID), sessionID).Err(); err != nil {
			logger.Warn("session index cleanup failed", map[string]any{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}

	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return apierr.Wrap(apierr.KindStore, "session: delete failed", err)
	}
	return nil
}

func (r *RedisStore) write(ctx context.Context, s *Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return apierr.New(apierr.KindValidation, "session: expires_at must be in the future")
	}

	data, err := json.Marshal(dehydrate(s))
	if err != nil {
		return apierr.Wrap(apierr.KindStore, "session: marshal failed", err)
	}

	if err := r.client.Set(ctx, r.key(s.ID), data, ttl).Err(); err != nil {
		return apierr.Wrap(apierr.KindStore, "session: write failed", err)
	}
	return nil
}
