// Package milvus implements the Milvus-backed ChunkStore, one of the two
// reference ChunkStore implementations (the other being the embedded
// chromem-go backend for single-node/analytic deployments).
package milvus

import (
	"context"
	"crypto/tls"
	"time"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/graphctx/pkg/errors"
)

// Config configures the Milvus client connection.
type Config struct {
	Address          string        `mapstructure:"address"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	DBName           string        `mapstructure:"db_name"`
	TLSEnabled       bool          `mapstructure:"tls_enabled"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	KeepAliveTime    time.Duration `mapstructure:"keep_alive_time"`
	KeepAliveTimeout time.Duration `mapstructure:"keep_alive_timeout"`
}

func applyDefaults(cfg *Config) {
	if cfg.DBName == "" {
		cfg.DBName = "default"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.KeepAliveTime == 0 {
		cfg.KeepAliveTime = 60 * time.Second
	}
	if cfg.KeepAliveTimeout == 0 {
		cfg.KeepAliveTimeout = 20 * time.Second
	}
}

// Client wraps the Milvus SDK client with connection-time TLS/keepalive
// configuration.
type Client struct {
	milvus mclient.Client
	log    logging.Logger
}

// NewClient connects to Milvus.
func NewClient(ctx context.Context, cfg Config, log logging.Logger) (*Client, error) {
	applyDefaults(&cfg)
	if log == nil {
		log = logging.NewNop()
	}

	milvusCfg := mclient.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.DBName,
	}

	var dialOpts []grpc.DialOption
	if cfg.TLSEnabled {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})))
		milvusCfg.EnableTLSAuth = true
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	dialOpts = append(dialOpts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
		Time:                cfg.KeepAliveTime,
		Timeout:             cfg.KeepAliveTimeout,
		PermitWithoutStream: true,
	}))
	milvusCfg.DialOptions = dialOpts

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	mc, err := mclient.NewClient(connectCtx, milvusCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSearchError, "failed to connect to milvus")
	}

	if _, err := mc.CheckHealth(ctx); err != nil {
		mc.Close()
		return nil, errors.Wrap(err, errors.CodeSearchError, "milvus health check failed")
	}

	log.Info("milvus client connected", logging.String("address", cfg.Address))
	return &Client{milvus: mc, log: log}, nil
}

// Raw exposes the underlying SDK client for the ChunkStore to call.
func (c *Client) Raw() mclient.Client { return c.milvus }

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.milvus.Close()
}

// HealthCheck re-checks connectivity to the Milvus deployment. Used by
// readiness checks.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.milvus.CheckHealth(ctx)
	return err
}
