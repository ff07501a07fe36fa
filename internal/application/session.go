package application

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tabbli/accounts/pkg/helpers"
)

// SessionStore keeps the single active session id per user. A user's
// tokens are valid only while their embedded session id matches the
// stored one.
type SessionStore interface {
	// Put stores the session id, replacing any previous one, and resets
	// the expiry.
	Put(ctx context.Context, userID, sessionID string, ttl time.Duration) error
	// Get returns the stored session id, or ErrSessionExpired when none
	// exists.
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

// RedisSessionStore backs sessions with a Redis hash per user.
type RedisSessionStore struct {
	Client *redis.Client
}

func (s *RedisSessionStore) Put(ctx context.Context, userID, sessionID string, ttl time.Duration) error {
	key := helpers.SessionKey(userID)
	if err := s.Client.HSet(ctx, key, "sid", sessionID, "since", time.Now().UTC().Unix()).Err(); err != nil {
		return err
	}
	return s.Client.Expire(ctx, key, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, userID string) (string, error) {
	sid, err := s.Client.HGet(ctx, helpers.SessionKey(userID), "sid").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionExpired
		}
		return "", err
	}
	return sid, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, userID string) error {
	return s.Client.Del(ctx, helpers.SessionKey(userID)).Err()
}
