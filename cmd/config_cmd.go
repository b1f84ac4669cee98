// Package cmd implements the budgetchat CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/budgetchat/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Seed:     %s\n", cfg.General.Seed)
	fmt.Printf("    Archive:  %v (%s)\n", cfg.General.Archive, config.ArchivePath())
	fmt.Printf("    Log file: %s\n", config.LogPath())
	fmt.Println()

	fmt.Println("  [Estimator]")
	fmt.Printf("    Kind:    %s\n", cfg.Estimator.Kind)
	if cfg.Estimator.Endpoint != "" {
		fmt.Printf("    Endpoint: %s\n", cfg.Estimator.Endpoint)
	}
	if cfg.Estimator.Model != "" {
		fmt.Printf("    Model:   %s\n", cfg.Estimator.Model)
	}
	if apiKey := config.GetAPIKey(cfg); apiKey != "" {
		fmt.Printf("    API key: %s\n", maskAPIKey(apiKey))
	} else {
		fmt.Println("    API key: not configured")
	}
	fmt.Printf("    Timeout: %s\n", cfg.Timeout())
	if cfg.Estimator.RequestsPerMinute > 0 {
		fmt.Printf("    Rate:    %d requests/min\n", cfg.Estimator.RequestsPerMinute)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("    Problem: %v\n", err)
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `budgetchat setup` to reconfigure.")
	return nil
}
