// Package redisdht provides a groupkey.Substrate backed by Redis. Values
// are opaque to the substrate: key packets and sync envelopes arrive sealed
// and signed, so the backing store needs no trust beyond availability. TTLs
// map directly onto Redis key expiry.
package redisdht

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	groupkey "github.com/pqmsg/groupkey-go"
)

// keyPrefix namespaces all substrate values in the Redis keyspace.
const keyPrefix = "groupkey:"

// Substrate publishes and fetches sealed packets through a Redis instance.
type Substrate struct {
	rdb *redis.Client
}

var _ groupkey.Substrate = (*Substrate)(nil)

// New wraps an existing Redis client.
func New(rdb *redis.Client) *Substrate {
	return &Substrate{rdb: rdb}
}

// Dial connects to the Redis instance at addr and verifies the connection.
func Dial(ctx context.Context, addr string) (*Substrate, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return &Substrate{rdb: rdb}, nil
}

// Close closes the underlying client.
func (s *Substrate) Close() error {
	return s.rdb.Close()
}

// Publish stores value under key with the given TTL, replacing any previous
// value.
func (s *Substrate) Publish(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("publish %s: ttl must be positive, got %s", key, ttl)
	}
	if err := s.rdb.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

// Fetch returns the value stored under key, or (nil, nil) when the key is
// absent or expired.
func (s *Substrate) Fetch(ctx context.Context, key string) ([]byte, error) {
	value, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	return value, nil
}
