// Package kafka implements the cache-invalidation consumer driven by
// cmd/worker: an upstream ingestion pipeline (out of scope for this
// module) publishes an event whenever it writes to a GraphStore or
// ChunkStore backend, and this consumer invalidates the orchestrator's
// Redis result cache in response so stale retrieval results are never
// served from it.
package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/graphctx/pkg/errors"
)

// InvalidationEvent is the message payload published whenever upstream
// ingestion mutates a graph or chunk backend.
type InvalidationEvent struct {
	Reason    string    `json:"reason"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// CacheInvalidator is the narrow capability the consumer needs from the
// result cache; satisfied by *cache.ResultCache.
type CacheInvalidator interface {
	InvalidateAll(ctx context.Context) (int64, error)
}

// Config configures the consumer's Kafka reader.
type Config struct {
	Brokers           []string      `mapstructure:"brokers"`
	GroupID           string        `mapstructure:"group_id"`
	Topic             string        `mapstructure:"topic"`
	MinBytes          int           `mapstructure:"min_bytes"`
	MaxBytes          int           `mapstructure:"max_bytes"`
	MaxWait           time.Duration `mapstructure:"max_wait"`
	CommitInterval    time.Duration `mapstructure:"commit_interval"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	MaxRetryBackoff   time.Duration `mapstructure:"max_retry_backoff"`
}

func applyDefaults(cfg *Config) {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 * 1024 * 1024
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 1 * time.Second
	}
	if cfg.CommitInterval == 0 {
		cfg.CommitInterval = 1 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 1 * time.Second
	}
	if cfg.MaxRetryBackoff == 0 {
		cfg.MaxRetryBackoff = 30 * time.Second
	}
}

// reader abstracts kafka.Reader for testing.
type reader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads invalidation events and clears the result cache.
type Consumer struct {
	reader  reader
	cache   CacheInvalidator
	cfg     Config
	log     logging.Logger
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewConsumer builds a Consumer reading Config.Topic with Config.GroupID.
func NewConsumer(cfg Config, invalidator CacheInvalidator, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.CodeInvalidRequest, "kafka consumer: brokers required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New(errors.CodeInvalidRequest, "kafka consumer: group id required")
	}
	if cfg.Topic == "" {
		return nil, errors.New(errors.CodeInvalidRequest, "kafka consumer: topic required")
	}
	applyDefaults(&cfg)
	if log == nil {
		log = logging.NewNop()
	}

	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		MaxWait:        cfg.MaxWait,
		CommitInterval: cfg.CommitInterval,
		StartOffset:    kafkago.LastOffset,
	})

	return &Consumer{reader: r, cache: invalidator, cfg: cfg, log: log}, nil
}

// Start runs the consume loop in a background goroutine until ctx is
// cancelled or Close is called.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return errors.New(errors.CodeConflict, "kafka consumer already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.loop(ctx)

	c.log.Info("cache invalidation consumer started", logging.String("topic", c.cfg.Topic), logging.String("group", c.cfg.GroupID))
	return nil
}

func (c *Consumer) loop(ctx context.Context) {
	defer c.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("fetch message failed", logging.Err(err))
			time.Sleep(time.Second)
			continue
		}

		if err := c.handleWithRetry(ctx, m); err != nil {
			c.log.Error("invalidation event handling failed after retries", logging.Err(err))
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Error("commit message failed", logging.Err(err))
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, m kafkago.Message) error {
	err := c.handle(ctx, m)
	if err == nil {
		return nil
	}

	backoff := c.cfg.RetryBackoff
	for i := 0; i < c.cfg.MaxRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		err = c.handle(ctx, m)
		if err == nil {
			return nil
		}

		backoff *= 2
		if backoff > c.cfg.MaxRetryBackoff {
			backoff = c.cfg.MaxRetryBackoff
		}
	}
	return err
}

func (c *Consumer) handle(ctx context.Context, m kafkago.Message) error {
	var evt InvalidationEvent
	if err := json.Unmarshal(m.Value, &evt); err != nil {
		return errors.Wrap(err, errors.CodeMessageQueueError, "failed to decode invalidation event")
	}

	deleted, err := c.cache.InvalidateAll(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeMessageQueueError, "result cache invalidation failed")
	}

	c.log.Info("result cache invalidated",
		logging.String("reason", evt.Reason),
		logging.String("source", evt.Source),
		logging.Int64("keys_deleted", deleted))
	return nil
}

// Close stops the consume loop and releases the reader.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}
