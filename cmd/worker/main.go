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

const programName = "agora-worker"

var (
	envFile string
	once    bool
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Start consumers/schedulers (outbox relay, round sweeper, audit consumer).
func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Run the governance background workers",
		RunE:  serveRun,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the environment")
	rootCmd.PersistentFlags().BoolVar(&once, "once", false, "run a single sweep and relay pass, then exit")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the worker loops",
		RunE:  serveRun,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serveRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFrom(envFile)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		logger.Info(fmt.Sprintf(format, v...), "component", programName)
	})); err != nil {
		return err
	}

	app, err := bootstrap.BuildWorker(cfg, logger)
	if err != nil {
		return fmt.Errorf("bootstrap worker failed: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("worker shutdown close failed", "component", programName, "error", err.Error())
		}
	}()
	if once {
		return app.RunOnce(cmd.Context())
	}
	return app.Run(cmd.Context())
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}
