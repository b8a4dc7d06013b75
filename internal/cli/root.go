// Package cli implements the plasma-dashboard commands.
package cli

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/kartoza/plasma-dashboard/internal/config"
	"github.com/kartoza/plasma-dashboard/internal/store"
)

// NewRootCmd builds the command tree. version is reported by --version and /api/info.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "plasma-dashboard",
		Short: "Plasma etch process prediction dashboard",
		Long: `Predicts radical density, etch quality, process stability and batch economics
for a plasma etch recipe, suggests parameter adjustments, and keeps a history of runs.

Configuration is read from flags, then PLASMA_DASHBOARD_* environment variables,
then the saved settings file, then built-in defaults.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("data-dir", "", "directory for the file and sqlite history backends")
	root.PersistentFlags().String("store", "", "history backend: memory, file or sqlite")
	root.PersistentFlags().String("db-driver", "", "sqlite driver: sqlite (pure Go) or sqlite3 (cgo)")
	root.PersistentFlags().Int("memory-capacity", 0, "maximum predictions kept by the memory backend")

	root.AddCommand(newServeCmd())
	root.AddCommand(newPredictCmd())
	root.AddCommand(newHistoryCmd())

	return root
}

// Execute runs the CLI
func Execute(version string) error {
	root := NewRootCmd(version)
	if err := root.Execute(); err != nil {
		log.Printf("Error: %v", err)
		return err
	}
	return nil
}

// loadConfig resolves configuration and overlays any flags set on the command line
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Resolve(nil)
	if errors.Is(err, config.ErrSettingsUnavailable) {
		log.Printf("Warning: could not load settings: %v", err)
	} else if err != nil {
		return cfg, err
	}
	cfg.Version = cmd.Root().Version

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("store") {
		cfg.StoreBackend, _ = flags.GetString("store")
	}
	if flags.Changed("db-driver") {
		cfg.DBDriver, _ = flags.GetString("db-driver")
	}
	if flags.Changed("memory-capacity") {
		cfg.MemoryCapacity, _ = flags.GetInt("memory-capacity")
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openHistory opens a persistent repository; the memory backend cannot outlive one command
func openHistory(cmd *cobra.Command) (store.Repository, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.StoreBackend == config.BackendMemory {
		return nil, fmt.Errorf("history needs a persistent backend, use --store file or --store sqlite")
	}
	return store.Open(cfg)
}
