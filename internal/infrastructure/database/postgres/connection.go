// Package postgres provides the Postgres-backed GraphStore, the reference
// "typical implementation" backend for the storage-abstraction contract's
// adjacency-list representation (the other being the Neo4j native graph
// backend). It also owns connection pool management and schema migration.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
)

const (
	maxRetries        = 5
	initialRetryDelay = 1 * time.Second

	defaultMaxConns          = 25
	defaultMinConns          = 5
	defaultMaxConnLifetime   = time.Hour
	defaultMaxConnIdleTime   = 30 * time.Minute
	defaultHealthCheckPeriod = time.Minute
)

// Config configures the Postgres connection pool.
type Config struct {
	Host                  string        `mapstructure:"host"`
	Port                  int           `mapstructure:"port"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	SSLMode               string        `mapstructure:"ssl_mode"`
	MaxOpenConnections    int           `mapstructure:"max_open_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
	ConnectionMaxIdleTime time.Duration `mapstructure:"connection_max_idle_time"`
}

func buildConnString(cfg Config) string {
	return ConnString(cfg)
}

// ConnString renders cfg as a postgres:// connection URL. Exported so
// cmd/retrievalctl can drive schema migrations against the same target the
// connection pool uses.
func ConnString(cfg Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, sslMode)
}

func configurePool(poolConfig *pgxpool.Config, cfg Config) {
	if cfg.MaxOpenConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConnections)
	} else {
		poolConfig.MaxConns = defaultMaxConns
	}
	if cfg.MaxIdleConnections > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConnections)
	} else {
		poolConfig.MinConns = defaultMinConns
	}
	if cfg.ConnectionMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnectionMaxLifetime
	} else {
		poolConfig.MaxConnLifetime = defaultMaxConnLifetime
	}
	if cfg.ConnectionMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.ConnectionMaxIdleTime
	} else {
		poolConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	}
	poolConfig.HealthCheckPeriod = defaultHealthCheckPeriod
}

// NewConnectionPool creates a pgxpool.Pool with exponential backoff retry:
// up to maxRetries attempts, delay doubling from 1s.
func NewConnectionPool(ctx context.Context, cfg Config, log logging.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	configurePool(poolConfig, cfg)

	var pool *pgxpool.Pool
	retryDelay := initialRetryDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Info("attempting database connection",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", maxRetries),
			logging.String("host", cfg.Host),
			logging.String("database", cfg.Database),
		)

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err = pgxpool.NewWithConfig(connectCtx, poolConfig)
		cancel()

		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			err = pool.Ping(pingCtx)
			pingCancel()

			if err == nil {
				log.Info("database connection established", logging.String("host", cfg.Host))
				return pool, nil
			}

			pool.Close()
			log.Warn("database ping failed", logging.Int("attempt", attempt), logging.Err(err))
		} else {
			log.Warn("failed to create connection pool", logging.Int("attempt", attempt), logging.Err(err))
		}

		if attempt == maxRetries {
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
		}

		time.Sleep(retryDelay)
		retryDelay *= 2
	}

	return nil, fmt.Errorf("connection retry logic exhausted")
}

// Close gracefully shuts down the pool.
func Close(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}

// HealthCheck verifies connectivity with a trivial query.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("connection pool is nil")
	}
	var result int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("health check query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("health check returned unexpected value: %d", result)
	}
	return nil
}

// WithTransaction runs fn inside a transaction, committing on success and
// rolling back on error or panic.
func WithTransaction(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) (err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
			}
		} else {
			if cmtErr := tx.Commit(ctx); cmtErr != nil {
				err = fmt.Errorf("commit failed: %w", cmtErr)
			}
		}
	}()

	err = fn(tx)
	return err
}
