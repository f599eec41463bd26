package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/urfave/cli/v3"
)

const appName = "ytplay"

// configPath prefers ./config.toml, then the XDG location.
func configPath() string {
	if p := os.Getenv("YTPLAY_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml"
	}
	if p, err := shared.DefaultConfigPath(); err == nil {
		return p
	}
	return "config.toml"
}

func main() {
	logger := shared.NewLogger(nil)

	path := configPath()
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if loadedConfig, err := shared.LoadConfig(path); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		}
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: path,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     appName,
		Usage:    "Play music from the terminal with history, stats and achievements",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
