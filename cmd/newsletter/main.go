package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"TipCurator/internal/app"
	"TipCurator/internal/config"
	"TipCurator/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.ForRun(cfg.Logging.Level, "newsletter")

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("newsletter failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	_, err = application.RunNewsletter(ctx)
	return err
}
