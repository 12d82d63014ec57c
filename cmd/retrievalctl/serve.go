package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/graphctx/internal/bootstrap"
	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var httpPort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the retrieval API server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if httpPort != 0 {
				cfg.Server.Port = httpPort
			}

			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			logging.SetDefault(log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return bootstrap.RunAPIServer(ctx, cfg, log)
		},
	}

	cmd.Flags().IntVar(&httpPort, "http-port", 0, "override server.port from the config file (0 disables the override)")
	return cmd
}
