// Package cache provides the key-value store client the resolvers read
// through. Every read yields an explicit Hit, Miss or StoreError outcome so
// callers can branch on the degrade-to-miss policy instead of relying on
// swallowed errors.
package cache

import (
	"context"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// Lookup classifies the outcome of a store read.
type Lookup int

const (
	// Hit means the key (or field) exists and its value was returned.
	Hit Lookup = iota
	// Miss means the store responded and the key is absent.
	Miss
	// StoreError means the store could not be reached or answered with an
	// error. Callers treat this the same as Miss and fall through to
	// upstream; the store logs the failure.
	StoreError
)

// Store is the minimal key-value contract the resolvers depend on.
// Implementations must be safe for concurrent use.
type Store interface {
	// HashExists reports whether the field is present in the hash at key.
	HashExists(ctx context.Context, key, field string) Lookup
	// GetHash returns the full field map stored at key. A missing or empty
	// hash is a Miss.
	GetHash(ctx context.Context, key string) (map[string]string, Lookup)
	// SetHash writes the field map to the hash at key.
	SetHash(ctx context.Context, key string, fields map[string]string) error
	// Exists reports whether the key is present.
	Exists(ctx context.Context, key string) Lookup
	// GetString returns the string value stored at key.
	GetString(ctx context.Context, key string) (string, Lookup)
	// SetString writes a string value to key.
	SetString(ctx context.Context, key, value string) error
	// Expire sets the time-to-live on key. Writers call this immediately
	// after a successful write; a failure here degrades the key to
	// never-expiring and must not fail the request.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Delete removes the given keys.
	Delete(ctx context.Context, keys ...string) error
}

// RedisStore implements Store on top of a rueidis client.
type RedisStore struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client rueidis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger.Named("cache"),
	}
}

func (s *RedisStore) HashExists(ctx context.Context, key, field string) Lookup {
	exists, err := s.client.Do(ctx, s.client.B().Hexists().Key(key).Field(field).Build()).AsBool()
	if err != nil {
		s.logger.Error("Failed to check hash field existence",
			zap.String("key", key),
			zap.String("field", field),
			zap.Error(err))

		return StoreError
	}

	if !exists {
		return Miss
	}

	return Hit
}

func (s *RedisStore) GetHash(ctx context.Context, key string) (map[string]string, Lookup) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		s.logger.Error("Failed to read hash", zap.String("key", key), zap.Error(err))
		return nil, StoreError
	}

	// HGETALL on a missing key returns an empty map
	if len(fields) == 0 {
		return nil, Miss
	}

	return fields, Hit
}

func (s *RedisStore) SetHash(ctx context.Context, key string, fields map[string]string) error {
	cmd := s.client.B().Hset().Key(key).FieldValue()
	for field, value := range fields {
		cmd = cmd.FieldValue(field, value)
	}

	return s.client.Do(ctx, cmd.Build()).Error()
}

func (s *RedisStore) Exists(ctx context.Context, key string) Lookup {
	exists, err := s.client.Do(ctx, s.client.B().Exists().Key(key).Build()).AsBool()
	if err != nil {
		s.logger.Error("Failed to check key existence", zap.String("key", key), zap.Error(err))
		return StoreError
	}

	if !exists {
		return Miss
	}

	return Hit
}

func (s *RedisStore) GetString(ctx context.Context, key string) (string, Lookup) {
	value, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", Miss
		}

		s.logger.Error("Failed to read key", zap.String("key", key), zap.Error(err))

		return "", StoreError
	}

	return value, Hit
}

func (s *RedisStore) SetString(ctx context.Context, key, value string) error {
	return s.client.Do(ctx, s.client.B().Set().Key(key).Value(value).Build()).Error()
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Do(ctx,
		s.client.B().Expire().Key(key).Seconds(int64(ttl.Seconds())).Build(),
	).Error()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(keys...).Build()).Error()
}
