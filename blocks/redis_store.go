package blocks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/compozy/compozy-postgres/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisInterface is the minimal redis surface the store needs. It allows
// both a real redis.Client and test doubles to be used.
type RedisInterface interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// RedisStore implements Store backed by Redis. Records are stored as
// canonical JSON under "<prefix>:<slug>:<name>" keys.
type RedisStore struct {
	r      RedisInterface
	prefix string
	closed atomic.Bool
}

// RedisStoreOption configures RedisStore.
type RedisStoreOption func(*RedisStore)

// WithPrefix sets a custom key prefix (default "blocks").
func WithPrefix(p string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = p
	}
}

// NewRedisStore creates a new Redis-backed block store.
func NewRedisStore(client RedisInterface, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{r: client, prefix: "blocks"}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Put stores or replaces a block record.
func (s *RedisStore) Put(ctx context.Context, key Key, rec Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	if s.closed.Load() {
		return "", fmt.Errorf("store is closed")
	}
	if rec == nil {
		return "", fmt.Errorf("nil record is not allowed")
	}
	jsonBytes := StableJSONBytes(rec)
	etag := ETagFromBytes(jsonBytes)
	if err := s.r.Set(ctx, s.keyFor(key), jsonBytes, 0).Err(); err != nil {
		return "", err
	}
	logger.FromContext(ctx).Debug("block stored", "slug", key.Slug, "name", key.Name, "etag", etag)
	return etag, nil
}

// Get retrieves a record by key. Returns ErrNotFound if not present.
func (s *RedisStore) Get(ctx context.Context, key Key) (Record, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("context canceled: %w", err)
	}
	if s.closed.Load() {
		return nil, "", fmt.Errorf("store is closed")
	}
	bs, err := s.r.Get(ctx, s.keyFor(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	var rec Record
	if err := json.Unmarshal(bs, &rec); err != nil {
		return nil, "", fmt.Errorf("unmarshal failed: %w", err)
	}
	return rec, ETagFromBytes(bs), nil
}

// Delete removes a record by key. Missing keys are a no-op.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	if s.closed.Load() {
		return fmt.Errorf("store is closed")
	}
	return s.r.Del(ctx, s.keyFor(key)).Err()
}

// List enumerates keys for a block type slug using SCAN.
func (s *RedisStore) List(ctx context.Context, slug string) ([]Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context canceled: %w", err)
	}
	if s.closed.Load() {
		return nil, fmt.Errorf("store is closed")
	}
	pattern := s.prefix + ":" + slug + ":*"
	var cursor uint64
	res := make([]Key, 0, 16)
	for {
		keys, next, err := s.r.Scan(ctx, cursor, pattern, 256).Result()
		if err != nil {
			return nil, err
		}
		for _, full := range keys {
			if k, ok := s.parseKey(full); ok {
				res = append(res, k)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return res, nil
}

// Close marks the store closed. The redis client is owned by the caller.
func (s *RedisStore) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *RedisStore) keyFor(key Key) string {
	return s.prefix + ":" + key.Slug + ":" + key.Name
}

func (s *RedisStore) parseKey(full string) (Key, bool) {
	rest, ok := strings.CutPrefix(full, s.prefix+":")
	if !ok {
		return Key{}, false
	}
	slug, name, ok := strings.Cut(rest, ":")
	if !ok || slug == "" || name == "" {
		return Key{}, false
	}
	return Key{Slug: slug, Name: name}, true
}
