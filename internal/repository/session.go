package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps revoked token ids and failed sign-in counters.
type SessionStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	RecordFailure(ctx context.Context, email string, window time.Duration) (int64, error)
	Failures(ctx context.Context, email string) (int64, error)
	ClearFailures(ctx context.Context, email string) error
}

type redisSessionStore struct{ client *redis.Client }

func NewSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func revokedKey(tokenID string) string { return "session:revoked:" + tokenID }

func failuresKey(email string) string {
	return "session:failures:" + strings.ToLower(strings.TrimSpace(email))
}

func (s *redisSessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked session: %w", err)
	}
	return n > 0, nil
}

// RecordFailure increments the counter and starts its window on the first failure.
func (s *redisSessionStore) RecordFailure(ctx context.Context, email string, window time.Duration) (int64, error) {
	key := failuresKey(email)
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("record sign-in failure: %w", err)
	}
	if n == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return n, fmt.Errorf("expire sign-in failures: %w", err)
		}
	}
	return n, nil
}

func (s *redisSessionStore) Failures(ctx context.Context, email string) (int64, error) {
	n, err := s.client.Get(ctx, failuresKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get sign-in failures: %w", err)
	}
	return n, nil
}

func (s *redisSessionStore) ClearFailures(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, failuresKey(email)).Err(); err != nil {
		return fmt.Errorf("clear sign-in failures: %w", err)
	}
	return nil
}
