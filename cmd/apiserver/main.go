// Command apiserver exposes the retrieval orchestrator over HTTP: the
// POST /v1/retrieve endpoint, graph statistics, liveness/readiness probes,
// and Prometheus metrics.
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
	httpPort := flag.Int("http-port", 0, "override server.port from the config file (0 disables the override)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v; falling back to GRAPHCTX_ environment configuration\n", err)
		cfg, err = config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "apiserver: failed to load configuration: %v\n", err)
			os.Exit(1)
		}
	}
	if *httpPort != 0 {
		cfg.Server.Port = *httpPort
	}

	log, err := logging.New(bootstrap.ToLoggingConfig(cfg.Log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.RunAPIServer(ctx, cfg, log); err != nil {
		log.Fatal("apiserver exited with error", logging.Err(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("no --config flag given")
	}
	return config.Load(path)
}
