// Command retrievalctl is the operator-facing admin tool: it can run the
// API server in the foreground, apply Postgres schema migrations, and
// probe a running deployment's readiness endpoint.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/graphctx/internal/config"
	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	timeout    time.Duration
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "retrievalctl",
		Short:         "retrievalctl administers a graphctx deployment",
		Long:          "retrievalctl runs the retrieval API server in the foreground, applies\nPostgres schema migrations, and checks a running deployment's health.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path")
	pf.DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newHealthcheckCmd(opts),
	)
	return cmd
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.configPath == "" {
		return config.LoadFromEnv()
	}
	return config.Load(opts.configPath)
}

func buildLogger(cfg *config.Config) (logging.Logger, error) {
	return logging.New(logging.Config{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
}
