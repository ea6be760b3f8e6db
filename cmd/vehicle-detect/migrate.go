package main

import (
	"fmt"

	"github.com/banshee-data/vehicle.detect/internal/config"
	"github.com/banshee-data/vehicle.detect/internal/db"
)

func (a *app) handleMigrate(args []string) int {
	fs := a.newFlagSet("migrate")
	configPath := fs.String("config", config.DefaultConfigPath, "Configuration file path")
	dbPath := fs.String("db", "", "History database path (overrides config)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, ok := a.loadConfig(fs, *configPath)
	if !ok {
		return 1
	}
	config.Override(&cfg.LedgerPath, *dbPath)
	if cfg.GetLedgerPath() == "" {
		fmt.Fprintln(a.stderr, "History is disabled (ledger_path is empty)")
		return 1
	}

	if err := db.RunMigrateCommand(fs.Args(), cfg.GetLedgerPath(), a.stdout); err != nil {
		fmt.Fprintf(a.stderr, "Migrate failed: %v\n", err)
		return 1
	}
	return 0
}
