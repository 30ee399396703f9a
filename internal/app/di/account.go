package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"account_backend/internal/feature/account/adapters"
	"account_backend/internal/feature/account/usecase"
	"account_backend/internal/platform/cache"
	"account_backend/internal/platform/hasher"
)

// NewAccountRepository creates an AccountRepository implementation.
// If Redis is available, lookups are served through a Redis read-through cache.
// Otherwise, the database is queried directly.
func NewAccountRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration, namespace string) usecase.AccountRepository {
	repo := adapters.NewAccountGorm(db)
	if rdb != nil {
		return cache.NewCachingAccountRepository(rdb, ttl, repo, namespace)
	}
	return repo
}

// NewPasswordHasher creates the bcrypt hasher; cost 0 selects the default.
func NewPasswordHasher(cost int) (usecase.PasswordHasher, error) {
	h, err := hasher.NewBcryptHasherWithCost(cost)
	if err != nil {
		return nil, err
	}
	return h, nil
}
