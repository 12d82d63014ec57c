// Package cache provides the orchestrator's result cache, a Redis-backed
// cache-aside adapter implementing orchestrator.ResultCache.
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// Config configures the Redis connection backing the result cache.
type Config struct {
	Mode         string        `mapstructure:"mode"` // standalone, sentinel, cluster
	Addr         string        `mapstructure:"addr"`
	MasterName   string        `mapstructure:"master_name"`
	SentinelAddrs []string     `mapstructure:"sentinel_addrs"`
	ClusterAddrs []string      `mapstructure:"cluster_addrs"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	TLSEnabled   bool          `mapstructure:"tls_enabled"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = "standalone"
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 3 * time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "graphctx:retrieval:"
	}
}

func newUniversalClient(cfg Config) redis.UniversalClient {
	var tlsConfig *tls.Config
	if cfg.TLSEnabled {
		tlsConfig = &tls.Config{}
	}

	switch cfg.Mode {
	case "cluster":
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.ClusterAddrs,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			TLSConfig:    tlsConfig,
		})
	case "sentinel":
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.MasterName,
			SentinelAddrs: cfg.SentinelAddrs,
			Password:      cfg.Password,
			DB:            cfg.DB,
			PoolSize:      cfg.PoolSize,
			DialTimeout:   cfg.DialTimeout,
			ReadTimeout:   cfg.ReadTimeout,
			WriteTimeout:  cfg.WriteTimeout,
			TLSConfig:     tlsConfig,
		})
	default:
		return redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			TLSConfig:    tlsConfig,
		})
	}
}

// ResultCache is a Redis-backed cache-aside implementation of
// orchestrator.ResultCache.
type ResultCache struct {
	rdb    redis.UniversalClient
	prefix string
	log    logging.Logger
}

// NewResultCache constructs a ResultCache from cfg.
func NewResultCache(cfg Config, log logging.Logger) *ResultCache {
	applyDefaults(&cfg)
	if log == nil {
		log = logging.NewNop()
	}
	return &ResultCache{rdb: newUniversalClient(cfg), prefix: cfg.KeyPrefix, log: log}
}

// NewResultCacheWithClient wraps an already-constructed client; used by
// tests against redismock.
func NewResultCacheWithClient(rdb redis.UniversalClient, keyPrefix string, log logging.Logger) *ResultCache {
	if log == nil {
		log = logging.NewNop()
	}
	return &ResultCache{rdb: rdb, prefix: keyPrefix, log: log}
}

// Get implements orchestrator.ResultCache. A miss or any decode/transport
// failure is reported as (zero, false); cache errors must never fail the
// surrounding request.
func (c *ResultCache) Get(ctx context.Context, key string) (graphmodel.RetrievalResult, bool) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("result cache get failed", logging.Err(err))
		}
		return graphmodel.RetrievalResult{}, false
	}

	var result graphmodel.RetrievalResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.log.Warn("result cache decode failed", logging.Err(err))
		return graphmodel.RetrievalResult{}, false
	}
	return result, true
}

// Set implements orchestrator.ResultCache as a best-effort, fire-and-forget
// write: failures are logged, never surfaced to the caller.
func (c *ResultCache) Set(ctx context.Context, key string, result graphmodel.RetrievalResult, ttl time.Duration) {
	payload, err := json.Marshal(result)
	if err != nil {
		c.log.Warn("result cache encode failed", logging.Err(err))
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, payload, ttl).Err(); err != nil {
		c.log.Warn("result cache set failed", logging.Err(err))
	}
}

// InvalidateAll deletes every cached result, scanning the key space in
// batches rather than issuing FLUSHDB so a shared Redis instance is not
// wiped of unrelated keys. Used by the cache-invalidation consumer when an
// upstream write to a GraphStore/ChunkStore backend makes cached retrieval
// results stale.
func (c *ResultCache) InvalidateAll(ctx context.Context) (int64, error) {
	var deleted int64
	var cursor uint64
	pattern := c.prefix + "*"

	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += int64(len(keys))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}

// Close releases the underlying connection pool.
func (c *ResultCache) Close() error {
	return c.rdb.Close()
}

// Ping verifies connectivity to the backing Redis deployment. Used by
// readiness checks; it bypasses the key prefix entirely.
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
