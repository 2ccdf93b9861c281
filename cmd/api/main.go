package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"agora/internal/app/bootstrap"
	"agora/internal/platform/config"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const programName = "agora-api"

var envFile string

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server.
func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Serve the association governance HTTP API",
		RunE:  serveRun,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the environment")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  serveRun,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the governance tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := commonRun()
			if err != nil {
				return err
			}
			return bootstrap.Migrate(cmd.Context(), cfg, logger)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serveRun(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := commonRun()
	if err != nil {
		return err
	}
	app, err := bootstrap.BuildAPI(cfg, logger)
	if err != nil {
		return fmt.Errorf("bootstrap api failed: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("api shutdown close failed", "component", programName, "error", err.Error())
		}
	}()
	return app.Run(cmd.Context())
}

func commonRun() (config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFrom(envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		logger.Info(fmt.Sprintf(format, v...), "component", programName)
	})); err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}
