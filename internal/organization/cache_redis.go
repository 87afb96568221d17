package organization

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"trustbase/internal/platform/redis"
)

// CachedStore decorates a Store with a read-through Redis cache for Get and
// Exists. Catalog entries change rarely and sit on the hot transition path,
// so a short TTL is enough. Cache failures degrade to the wrapped store.
type CachedStore struct {
	Store
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(store Store, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{Store: store, cache: cache, ttl: ttl, logger: logger}
}

func cacheKey(id string) string {
	return "org:" + id
}

func (s *CachedStore) Get(ctx context.Context, id string) (Organization, error) {
	raw, err := s.cache.Get(ctx, cacheKey(id)).Bytes()
	if err == nil {
		var org Organization
		if err := json.Unmarshal(raw, &org); err == nil {
			return org, nil
		}
	} else if !errors.Is(err, goredis.Nil) {
		s.logger.WarnContext(ctx, "organization cache read failed", "error", err.Error())
	}

	org, err := s.Store.Get(ctx, id)
	if err != nil {
		return Organization{}, err
	}

	if encoded, err := json.Marshal(org); err == nil {
		if err := s.cache.Set(ctx, cacheKey(id), encoded, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "organization cache write failed", "error", err.Error())
		}
	}
	return org, nil
}

func (s *CachedStore) Exists(ctx context.Context, id string) (bool, error) {
	if hit, err := s.cache.Exists(ctx, cacheKey(id)).Result(); err == nil && hit > 0 {
		return true, nil
	}
	// A cache miss proves nothing; fall through to the store.
	return s.Store.Exists(ctx, id)
}

func (s *CachedStore) Create(ctx context.Context, org *Organization) error {
	if err := s.Store.Create(ctx, org); err != nil {
		return err
	}
	// Drop any stale entry rather than writing through.
	if err := s.cache.Del(ctx, cacheKey(org.ID)).Err(); err != nil {
		s.logger.WarnContext(ctx, "organization cache invalidation failed", "error", err.Error())
	}
	return nil
}
