package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/b2b-pricing/internal/cache"
	"github.com/noah-isme/b2b-pricing/internal/cart"
	"github.com/noah-isme/b2b-pricing/internal/config"
	dbgen "github.com/noah-isme/b2b-pricing/internal/db/gen"
	"github.com/noah-isme/b2b-pricing/internal/lock"
	"github.com/noah-isme/b2b-pricing/internal/obs"
	"github.com/noah-isme/b2b-pricing/internal/pricing"
	"github.com/noah-isme/b2b-pricing/internal/repo"
)

// Dependencies enumerates the services shared by the API, the worker and the tools.
type Dependencies struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Queries *dbgen.Queries
	Store   *repo.PricingStore
	Engine  *pricing.Engine
	Carts   *cart.Service
}

// New connects Postgres and Redis and assembles the pricing services on top of them.
func New(ctx context.Context, cfg *config.Config, appName string, logger zerolog.Logger) (*Dependencies, error) {
	pool, err := NewPool(ctx, cfg.DatabaseURL, appName)
	if err != nil {
		return nil, err
	}
	rdb, err := NewRedis(ctx, cfg.RedisURL, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	basis, err := cart.ParseMinCartBasis(cfg.CartMinCartBasis)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, err
	}

	queries := dbgen.New(pool)
	store := &repo.PricingStore{
		Q:      queries,
		Pool:   pool,
		Rules:  cache.New(rdb, cfg.RuleCacheTTL),
		Logger: logger.With().Str("component", "pricing_store").Logger(),
	}
	engine := &pricing.Engine{
		Rules:    store,
		Variants: store,
		Logger:   logger.With().Str("component", "pricing_engine").Logger(),
	}
	carts := &cart.Service{
		Store:             store,
		Engine:            engine,
		LockTTL:           cfg.CartLockTTL,
		MinCartBasis:      basis,
		OptimisticLocking: cfg.CartOptimisticLocking,
		Logger:            logger.With().Str("component", "cart").Logger(),
	}
	if cfg.CartLockTTL > 0 {
		carts.Locker = lock.Locker{R: rdb, RetryBackoff: cfg.CartLockRetryBackoff, MaxWait: cfg.CartLockTTL}
	}

	return &Dependencies{
		Pool:    pool,
		Redis:   rdb,
		Queries: queries,
		Store:   store,
		Engine:  engine,
		Carts:   carts,
	}, nil
}

// Close releases the pool and the Redis client.
func (d *Dependencies) Close() error {
	if d == nil {
		return nil
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.Redis != nil {
		return d.Redis.Close()
	}
	return nil
}

// NewPool opens a traced pgx pool and verifies connectivity.
func NewPool(ctx context.Context, databaseURL, appName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = appName

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewRedis opens an instrumented Redis client and verifies connectivity.
func NewRedis(ctx context.Context, redisURL string, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
