package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/companyhub/companyhub/internal/model"
)

const (
	// accountKeyPrefix is the Redis key prefix for cached accounts.
	accountKeyPrefix = "account:"

	// DefaultAccountTTL bounds how long a renamed or deleted account can
	// keep authenticating from cache.
	DefaultAccountTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetAccount retrieves a cached account by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	key := accountKeyPrefix + id

	cmd := c.client.HGetAll(ctx, key)
	result, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	var cached model.CachedAccount
	if err := cmd.Scan(&cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, ErrCacheMiss
	}
	if cached.Username == "" {
		return nil, ErrCacheMiss
	}

	return cached.ToAccount(id), nil
}

// SetAccount caches an account's public fields. The password hash is never cached.
func (c *Cache) SetAccount(ctx context.Context, account *model.Account) error {
	key := accountKeyPrefix + account.ID
	cached := account.ToCachedAccount()

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"username":   cached.Username,
		"email":      cached.Email,
		"created_at": cached.CreatedAt,
	})
	pipe.Expire(ctx, key, DefaultAccountTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set account failed: %w", err)
	}
	return nil
}

// DeleteAccount removes an account from cache.
func (c *Cache) DeleteAccount(ctx context.Context, id string) error {
	return c.client.Del(ctx, accountKeyPrefix+id).Err()
}
