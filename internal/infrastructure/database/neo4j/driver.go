// Package neo4j implements the Neo4j-backed GraphStore, one of the two
// reference GraphStore implementations named by the storage-abstraction
// contract (the other being the Postgres adjacency backend).
package neo4j

import (
	"context"
	"time"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/graphctx/pkg/errors"
)

// Config configures the Neo4j driver connection.
type Config struct {
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	MaxConnectionLifetime        time.Duration `mapstructure:"max_connection_lifetime"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
	Encrypted                    bool          `mapstructure:"encrypted"`
}

func applyDefaults(cfg *Config) {
	if cfg.MaxConnectionPoolSize == 0 {
		cfg.MaxConnectionPoolSize = 50
	}
	if cfg.MaxConnectionLifetime == 0 {
		cfg.MaxConnectionLifetime = time.Hour
	}
	if cfg.ConnectionAcquisitionTimeout == 0 {
		cfg.ConnectionAcquisitionTimeout = 60 * time.Second
	}
}

// Driver wraps neo4jdriver.DriverWithContext with session helpers scoped to
// the configured database.
type Driver struct {
	driver   neo4jdriver.DriverWithContext
	database string
	log      logging.Logger
}

// NewDriver connects to Neo4j and verifies connectivity.
func NewDriver(ctx context.Context, cfg Config, log logging.Logger) (*Driver, error) {
	applyDefaults(&cfg)
	if log == nil {
		log = logging.NewNop()
	}

	driver, err := neo4jdriver.NewDriverWithContext(cfg.URI, neo4jdriver.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4jdriver.Config) {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
			c.MaxConnectionLifetime = cfg.MaxConnectionLifetime
			c.ConnectionAcquisitionTimeout = cfg.ConnectionAcquisitionTimeout
		})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBConnectionError, "failed to construct neo4j driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CodeDBConnectionError, "neo4j connectivity check failed")
	}

	return &Driver{driver: driver, database: cfg.Database, log: log}, nil
}

// Close releases the driver's connection pool.
func (d *Driver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

// HealthCheck re-verifies connectivity to the configured database. Used by
// readiness checks.
func (d *Driver) HealthCheck(ctx context.Context) error {
	return d.driver.VerifyConnectivity(ctx)
}

func (d *Driver) readSession(ctx context.Context) neo4jdriver.SessionWithContext {
	return d.driver.NewSession(ctx, neo4jdriver.SessionConfig{
		AccessMode:   neo4jdriver.AccessModeRead,
		DatabaseName: d.database,
	})
}

func (d *Driver) writeSession(ctx context.Context) neo4jdriver.SessionWithContext {
	return d.driver.NewSession(ctx, neo4jdriver.SessionConfig{
		AccessMode:   neo4jdriver.AccessModeWrite,
		DatabaseName: d.database,
	})
}

// ExecuteRead runs work in a read transaction.
func (d *Driver) ExecuteRead(ctx context.Context, work func(tx neo4jdriver.ManagedTransaction) (any, error)) (any, error) {
	session := d.readSession(ctx)
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

// ExecuteWrite runs work in a write transaction.
func (d *Driver) ExecuteWrite(ctx context.Context, work func(tx neo4jdriver.ManagedTransaction) (any, error)) (any, error) {
	session := d.writeSession(ctx)
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}
