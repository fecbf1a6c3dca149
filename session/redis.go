// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store which keeps JSON encoded sessions in Redis under
// "<prefix>:<id>".  The TTL is refreshed on every Put.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore.  Supported options: WithPrefix, WithTTL
func NewRedisStore(client redis.UniversalClient, opt ...Option) (*RedisStore, error) {
	const op = "session.NewRedisStore"
	if client == nil {
		return nil, fmt.Errorf("%s: redis client is nil: %w", op, ErrNilParameter)
	}
	opts := getOpts(opt...)
	return &RedisStore{
		redis:  client,
		prefix: opts.withPrefix,
		ttl:    opts.withTTL,
	}, nil
}

func (r *RedisStore) key(id string) string {
	return r.prefix + ":" + id
}

// Get implements Store
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	const op = "RedisStore.Get"
	if id == "" {
		return nil, fmt.Errorf("%s: session id is empty: %w", op, ErrInvalidParameter)
	}
	data, err := r.redis.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Session{}, nil
		}
		return nil, fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrCorruptSession, err)
	}
	return &s, nil
}

// Put implements Store
func (r *RedisStore) Put(ctx context.Context, id string, s *Session) error {
	const op = "RedisStore.Put"
	if id == "" {
		return fmt.Errorf("%s: session id is empty: %w", op, ErrInvalidParameter)
	}
	if s == nil {
		return fmt.Errorf("%s: session is nil: %w", op, ErrNilParameter)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: unable to encode session: %w", op, err)
	}
	if err := r.redis.Set(ctx, r.key(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	return nil
}

// Clear implements Store
func (r *RedisStore) Clear(ctx context.Context, id string) error {
	const op = "RedisStore.Clear"
	if id == "" {
		return fmt.Errorf("%s: session id is empty: %w", op, ErrInvalidParameter)
	}
	if err := r.redis.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	return nil
}
