package commands

import (
	"github.com/spf13/cobra"

	"github.com/recondesk-dev/recondesk/internal/engine"
	"github.com/recondesk-dev/recondesk/internal/runlog"
)

func newStatusCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show last-run dates per entity and the recent run log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(*configPath)
			if err != nil {
				return err
			}

			for _, ent := range cfg.Entities {
				days, err := engine.RunDates(cfg.OutputDir, ent.ID)
				if err != nil {
					return err
				}
				if len(days) == 0 {
					cmd.Printf("%s (%s): no runs yet\n", ent.ID, ent.Name)
					continue
				}
				cmd.Printf("%s (%s): %d report(s), last %s\n",
					ent.ID, ent.Name, len(days), days[len(days)-1].Format(dateFormat))
			}

			entries, err := runlog.Read(cfg.OutputDir)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return nil
			}
			cmd.Println()
			cmd.Println("Recent runs:")
			start := len(entries) - 10
			if start < 0 {
				start = 0
			}
			for _, e := range entries[start:] {
				cmd.Printf("  %s  %s %s  %dG/%dY/%dR  variance %s  %d exception(s)\n",
					e.Timestamp.Format("2006-01-02 15:04"), e.EntityID, e.Date.Format(dateFormat),
					e.Green, e.Yellow, e.Red, e.TotalVariance.StringFixed(2), e.ExceptionCount)
			}
			return nil
		},
	}
	return cmd
}
