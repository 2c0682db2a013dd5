package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyValueStore is the persisted-identifier dependency. It is injected so the
// identifier source is swappable in tests.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// ErrKeyNotFound is returned by a KeyValueStore when the key is absent.
var ErrKeyNotFound = errors.New("key not found")

// RedisKV implements KeyValueStore on Redis
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV creates a new RedisKV
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	return val, err
}

func (s *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// ViewerIdentity issues durable anonymous viewer ids for unauthenticated
// public-link views, so repeat views from the same device deduplicate the
// same way authenticated ones do. The service itself is stateless; the id
// survives in the injected store.
type ViewerIdentity struct {
	kv  KeyValueStore
	ttl time.Duration
}

// NewViewerIdentity creates a new ViewerIdentity service
func NewViewerIdentity(kv KeyValueStore) *ViewerIdentity {
	return &ViewerIdentity{kv: kv, ttl: 30 * 24 * time.Hour}
}

// ViewerID returns the stable viewer id for a client-supplied device token,
// minting one on first sight.
func (v *ViewerIdentity) ViewerID(ctx context.Context, deviceToken string) (string, error) {
	if deviceToken == "" {
		return "", fmt.Errorf("empty device token")
	}

	key := "viewer:" + deviceToken
	id, err := v.kv.Get(ctx, key)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return "", err
	}

	id = "anon-" + uuid.NewString()
	if err := v.kv.Set(ctx, key, id, v.ttl); err != nil {
		return "", err
	}
	return id, nil
}
