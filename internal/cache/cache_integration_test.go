//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/companyhub/companyhub/internal/model"
	"github.com/companyhub/companyhub/internal/testutil"
)

func newTestCache(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	if err := testutil.FlushRedis(ctx, client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return ctx, NewFromClient(client)
}

func TestIntegrationCache_AccountRoundTrip(t *testing.T) {
	ctx, c := newTestCache(t)

	if _, err := c.GetAccount(ctx, "a1"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	account := &model.Account{
		ID:           "a1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "secret-hash",
		CreatedAt:    time.Unix(1700000000, 0).UTC(),
	}
	if err := c.SetAccount(ctx, account); err != nil {
		t.Fatalf("SetAccount failed: %v", err)
	}

	got, err := c.GetAccount(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if got.Username != "alice" || got.Email != "alice@example.com" || !got.CreatedAt.Equal(account.CreatedAt) {
		t.Errorf("unexpected cached account: %+v", got)
	}
	if got.PasswordHash != "" {
		t.Error("password hash must not be cached")
	}

	ttl, err := c.Client().TTL(ctx, accountKeyPrefix+"a1").Result()
	if err != nil || ttl <= 0 || ttl > DefaultAccountTTL {
		t.Errorf("unexpected TTL %v (err %v)", ttl, err)
	}

	if err := c.DeleteAccount(ctx, "a1"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if _, err := c.GetAccount(ctx, "a1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected miss after delete, got %v", err)
	}
}

func TestIntegrationCache_AccountRateLimit(t *testing.T) {
	ctx, c := newTestCache(t)

	const burst = 3
	for i := 0; i < burst; i++ {
		res, err := c.CheckAccountRateLimit(ctx, "a1", 60, burst)
		if err != nil {
			t.Fatalf("CheckAccountRateLimit failed: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	res, err := c.CheckAccountRateLimit(ctx, "a1", 60, burst)
	if err != nil {
		t.Fatalf("CheckAccountRateLimit failed: %v", err)
	}
	if res.Allowed {
		t.Error("request beyond burst should be rejected")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("expected positive RetryAfter, got %v", res.RetryAfter)
	}

	other, err := c.CheckAccountRateLimit(ctx, "a2", 60, burst)
	if err != nil || !other.Allowed {
		t.Errorf("other accounts have their own bucket: %+v %v", other, err)
	}
}
