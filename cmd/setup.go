package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing, initializes the database and saves the API token.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		var err error
		if configPath, err = shared.DefaultConfigPath(); err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("using existing config", "path", configPath)
		if config, err := shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
		} else {
			r.config = config
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config written to %s\n", configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := shared.AppliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	r.writePlain("✓ Database ready (%d migrations applied)\n", len(applied))

	if token := cmd.String("token"); token != "" {
		if err := r.saveToken(token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		r.writePlain("✓ API token saved to the system keyring\n")
	}

	return nil
}
