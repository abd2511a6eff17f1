package ratelimit

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Limiter decides whether one more event under key fits the configured rate.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, limit, remaining int, reset time.Time, err error)
}

// FixedWindow is a Limiter backed by a ulule limiter store.
type FixedWindow struct {
	l *limiter.Limiter
}

// NewRedis counts events in Redis so every API replica shares the budget.
func NewRedis(client *redis.Client, prefix string, rate limiter.Rate) (*FixedWindow, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, err
	}
	return &FixedWindow{l: limiter.New(store, rate)}, nil
}

// NewMemory counts events in process memory.
func NewMemory(prefix string, rate limiter.Rate) *FixedWindow {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: time.Minute})
	return &FixedWindow{l: limiter.New(store, rate)}
}

// PerMinute returns a rate of n events per minute.
func PerMinute(n int) limiter.Rate {
	return limiter.Rate{Period: time.Minute, Limit: int64(n)}
}

// Allow consumes one event for key.
func (f *FixedWindow) Allow(ctx context.Context, key string) (bool, int, int, time.Time, error) {
	res, err := f.l.Get(ctx, key)
	if err != nil {
		return false, 0, 0, time.Time{}, err
	}
	return !res.Reached, int(res.Limit), int(res.Remaining), time.Unix(res.Reset, 0), nil
}
