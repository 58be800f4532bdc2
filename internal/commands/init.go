package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/recondesk-dev/recondesk/internal/config"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new recondesk workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(cmd, absDir)
		},
	}
	return cmd
}

func runInit(cmd *cobra.Command, dir string) error {
	inputRoot := filepath.Join(dir, "inputs")
	outputDir := filepath.Join(dir, "output")
	cfg := config.Default(inputRoot, outputDir)

	// Scaffold the ledger and processor folders so extract drops have an
	// obvious home.
	dirs := []string{outputDir}
	for _, ent := range cfg.Entities {
		dirs = append(dirs, filepath.Join(inputRoot, ent.LedgerFolder))
		for _, folder := range ent.ProcessorFolders {
			dirs = append(dirs, filepath.Join(inputRoot, folder))
		}
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfgPath := filepath.Join(dir, "recondesk.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	cmd.Printf("Initialized recondesk workspace in %s\n", dir)
	cmd.Printf("  config:  %s\n", cfgPath)
	cmd.Printf("  inputs:  %s\n", inputRoot)
	cmd.Printf("  output:  %s\n", outputDir)
	return nil
}
