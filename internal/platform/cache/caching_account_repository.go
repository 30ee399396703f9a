// Package cache provides caching decorators for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"account_backend/internal/feature/account/domain/entity"
	"account_backend/internal/feature/account/usecase"
)

const (
	defaultTTL       = 5 * time.Minute
	defaultNamespace = "account"

	// tombstone marks a key whose record was just written. It is never valid JSON.
	tombstone = "\x00written"
)

// tombstoneTTL bounds how long a lookup that read the store before a write
// may take to populate the cache and still be rejected.
var tombstoneTTL = 30 * time.Second

// CachingAccountRepository decorates an AccountRepository with a Redis read-through cache.
// Writes go to the inner repository first and then replace the cached entry
// with a tombstone. Lookups populate with SETNX, so a lookup that read the
// store before a password change cannot overwrite the tombstone with the old digest.
type CachingAccountRepository struct {
	inner     usecase.AccountRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.AccountRepository = (*CachingAccountRepository)(nil)

// NewCachingAccountRepository decorates inner with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "account".
// A nil rdb turns the decorator into a pass-through.
func NewCachingAccountRepository(rdb *redis.Client, ttl time.Duration, inner usecase.AccountRepository, namespace string) *CachingAccountRepository {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &CachingAccountRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// FindByUsername checks the cache first and falls back to the inner repository.
// Absent accounts are not cached.
func (c *CachingAccountRepository) FindByUsername(ctx context.Context, username string) (*entity.Account, error) {
	if c.rdb == nil {
		return c.inner.FindByUsername(ctx, username)
	}

	key := c.cacheKey(username)

	b, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil && string(b) == tombstone:
		// Recently written; read through without caching until it expires.
	case err == nil && len(b) > 0:
		var out entity.Account
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	case err != nil && err != redis.Nil:
		slog.WarnContext(ctx, "account cache read failed", "key", key, "error", err)
	}

	out, err := c.inner.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	// Best effort; a tombstone or a fresher entry wins.
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.SetNX(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// Insert delegates to the inner repository and tombstones the key.
func (c *CachingAccountRepository) Insert(ctx context.Context, account *entity.Account) error {
	if err := c.inner.Insert(ctx, account); err != nil {
		return err
	}
	c.invalidate(ctx, account.Username)
	return nil
}

// UpdatePassword delegates to the inner repository and tombstones the key.
func (c *CachingAccountRepository) UpdatePassword(ctx context.Context, username, digest string) error {
	if err := c.inner.UpdatePassword(ctx, username, digest); err != nil {
		return err
	}
	c.invalidate(ctx, username)
	return nil
}

func (c *CachingAccountRepository) invalidate(ctx context.Context, username string) {
	if c.rdb == nil {
		return
	}
	key := c.cacheKey(username)
	if err := c.rdb.Set(ctx, key, tombstone, tombstoneTTL).Err(); err != nil {
		slog.WarnContext(ctx, "account cache invalidation failed", "key", key, "error", err)
	}
}

// cacheKey keeps the username verbatim; Redis keys are binary safe and any
// escaping scheme would let two distinct usernames share an entry.
func (c *CachingAccountRepository) cacheKey(username string) string {
	return fmt.Sprintf("%s:%s", c.namespace, username)
}
