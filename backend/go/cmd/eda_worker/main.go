package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/internal/eda_service/bootstrap"
	"autoeda/backend/go/internal/models"
	"autoeda/backend/go/pkg/logger"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "eda_worker",
	Short:        "Consumes queued EDA jobs and runs the pipeline",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "config file (default $EDA_CONFIG or config.yaml)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(config.Path(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	log := logger.New("eda_worker", "", "")

	if !cfg.Queue.QueueEnabled() {
		return errors.New("queue mode is disabled; set USE_REDIS=true to run the worker")
	}

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("close resources: " + err.Error())
		}
	}()

	log.WithPayload(map[string]interface{}{"backend": cfg.Queue.Backend, "job_store": cfg.Queue.JobStore}).Info("worker started")
	err = app.Queue.Consume(ctx, func(ctx context.Context, msg models.JobMessage) error {
		return app.Service.ProcessJob(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("worker stopped")
	return nil
}
