package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"musiccrate/internal/config"
	"musiccrate/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error(err, "load configuration")
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.SetGlobalLogger(logger)

	runner := NewRunner(RunnerOpts{Config: cfg, Logger: logger})
	defer runner.Close()

	app := &cli.Command{
		Name:     "musiccrate",
		Usage:    "Manage a personal music library",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Error(err, "command failed")
		runner.Close()
		os.Exit(1)
	}
}
