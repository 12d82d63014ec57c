// Command worker runs the background cache-invalidation consumer: it
// subscribes to the upstream ingestion pipeline's change-notification topic
// and wipes the orchestrator's Redis result cache whenever a GraphStore or
// ChunkStore backend is mutated, so retrieval never serves stale results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/graphctx/internal/bootstrap"
	"github.com/turtacn/graphctx/internal/config"
	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v; falling back to GRAPHCTX_ environment configuration\n", err)
		cfg, err = config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "worker: failed to load configuration: %v\n", err)
			os.Exit(1)
		}
	}

	log, err := logging.New(bootstrap.ToLoggingConfig(cfg.Log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "worker: failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.RunWorker(ctx, cfg, log); err != nil {
		log.Fatal("worker exited with error", logging.Err(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("no --config flag given")
	}
	return config.Load(path)
}
