// Package commands wires the recondesk CLI.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/recondesk-dev/recondesk/internal/buildinfo"
	"github.com/recondesk-dev/recondesk/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "recondesk",
		Short:   "Daily merchant reconciliation",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "recondesk.yaml", "path to recondesk.yaml")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRunCommand(&configPath))
	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(newStatusCommand(&configPath))
	rootCmd.AddCommand(newExceptionsCommand(&configPath))

	return rootCmd
}

// loadSettings loads .env overrides (when present) and the YAML config.
func loadSettings(configPath string) (*config.Settings, error) {
	_ = godotenv.Load()
	return config.Load(configPath)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}
