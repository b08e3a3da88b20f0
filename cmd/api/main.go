package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apihttp "todoapi/internal/adapter/http"
	"todoapi/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "todoapi",
	Short: "Multi-tenant to-do list REST API",
	Long: `Serves the to-do REST API. Every setting comes from the environment,
optionally layered over the YAML file named by CONFIG_PATH.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()

	if err != nil {
		return err
	}

	logger, err := config.NewLokiLogger(cfg.ServiceName, cfg.Telemetry.LokiURL, cfg.IsProduction())

	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := apihttp.StartServer(ctx, cfg, logger); err != nil {
		logger.Error(context.Background(), "Server stopped with error", zap.Error(err))
		return err
	}

	logger.Info(context.Background(), "Server stopped")

	return nil
}
