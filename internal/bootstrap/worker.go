package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/turtacn/graphctx/internal/config"
	"github.com/turtacn/graphctx/internal/infrastructure/cache"
	"github.com/turtacn/graphctx/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/prometheus"
)

const defaultWorkerHealthPort = 9090

// RunWorker builds the cache-invalidation consumer per cfg and runs it
// until ctx is cancelled, alongside a small health/metrics server.
func RunWorker(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	collector, err := prometheus.NewCollector(toCollectorConfig("worker"))
	if err != nil {
		return fmt.Errorf("failed to build metrics collector: %w", err)
	}

	resultCache := cache.NewResultCache(toRedisConfig(cfg.Redis), log)
	defer resultCache.Close()

	consumer, err := kafka.NewConsumer(toKafkaConfig(cfg.Kafka), resultCache, log)
	if err != nil {
		return fmt.Errorf("failed to build kafka consumer: %w", err)
	}
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start kafka consumer: %w", err)
	}

	healthSrv := startWorkerHealthServer(collector.Handler(), log)

	log.Info("worker started", logging.String("topic", cfg.Kafka.Topic), logging.String("group", cfg.Kafka.GroupID))

	<-ctx.Done()
	log.Info("worker shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := consumer.Close(); err != nil {
		log.Error("kafka consumer close error", logging.Err(err))
	}
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("health server shutdown error", logging.Err(err))
	}
	return nil
}

func startWorkerHealthServer(metricsHandler http.Handler, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metricsHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", defaultWorkerHealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("health server listening", logging.Int("port", defaultWorkerHealthPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server error", logging.Err(err))
		}
	}()

	return srv
}
