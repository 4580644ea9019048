package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/expense-tracker/internal/config"
	"github.com/redmonkez12/expense-tracker/internal/database"
)

type migrateAction int

const (
	migrateUp migrateAction = iota
	migrateDown
	migrateVersion
)

func runMigrate(cmd *cobra.Command, action migrateAction) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)

	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	m, err := database.NewMigrator(db, cfg.Database.Driver, cfg.Database.URL())
	if err != nil {
		return err
	}
	defer m.Close()

	switch action {
	case migrateUp:
		if err := m.Up(); err != nil {
			return err
		}
		logger.Info("migrations applied", "driver", cfg.Database.Driver)
	case migrateDown:
		if err := m.Down(); err != nil {
			return err
		}
		logger.Info("migrations rolled back", "driver", cfg.Database.Driver)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)

	return nil
}
