package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AccessCodeStore keeps one short-lived access code per phone number.
// Issuing a new code overwrites the previous one; the Redis TTL bounds the
// code's lifetime.
type AccessCodeStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAccessCodeStore(rdb *redis.Client, ttl time.Duration) *AccessCodeStore {
	return &AccessCodeStore{rdb: rdb, ttl: ttl}
}

func (s *AccessCodeStore) Put(ctx context.Context, phone, code string) error {
	const op = "redis.AccessCodeStore.Put"

	if err := s.rdb.Set(ctx, KeyAccessCode(phone), code, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Get returns the current code for phone, or false when none is live.
func (s *AccessCodeStore) Get(ctx context.Context, phone string) (string, bool, error) {
	const op = "redis.AccessCodeStore.Get"

	v, err := s.rdb.Get(ctx, KeyAccessCode(phone)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s:%w", op, err)
	}

	return v, true, nil
}
