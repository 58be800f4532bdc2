package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/recondesk-dev/recondesk/internal/exceptions"
	"github.com/recondesk-dev/recondesk/internal/model"
)

func newExceptionsCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exceptions",
		Short: "Work the exception review queue",
	}
	cmd.AddCommand(newExceptionsListCommand(configPath))
	cmd.AddCommand(newExceptionsResolveCommand(configPath))
	return cmd
}

func newExceptionsListCommand(configPath *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exceptions needing review",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(*configPath)
			if err != nil {
				return err
			}
			records, err := exceptions.NewStore(cfg.OutputDir).List()
			if err != nil {
				return err
			}

			shown := 0
			for _, ex := range records {
				if !all && ex.Resolution != model.ResolutionNeedsReview && ex.Resolution != model.ResolutionInProgress {
					continue
				}
				cmd.Printf("%-52s %-16s %12s  %s\n", ex.ID, ex.ReasonCode, ex.Amount.StringFixed(2), ex.Resolution)
				shown++
			}
			if shown == 0 {
				cmd.Println("No open exceptions.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include resolved exceptions")
	return cmd
}

func newExceptionsResolveCommand(configPath *string) *cobra.Command {
	var status string
	var resolvedBy string
	var notes string

	cmd := &cobra.Command{
		Use:   "resolve <exception-id>",
		Short: "Resolve one exception",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(*configPath)
			if err != nil {
				return err
			}

			resolution := model.ResolutionStatus(status)
			switch resolution {
			case model.ResolutionNeedsReview, model.ResolutionInProgress,
				model.ResolutionResolved, model.ResolutionApprovedVariance:
			default:
				return fmt.Errorf("invalid --status %q", status)
			}

			store := exceptions.NewStore(cfg.OutputDir)
			if err := store.Resolve(args[0], resolution, resolvedBy, notes, time.Now().UTC()); err != nil {
				return err
			}
			cmd.Printf("%s -> %s\n", args[0], status)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", string(model.ResolutionResolved), "new resolution status")
	cmd.Flags().StringVar(&resolvedBy, "by", "", "who resolved it")
	cmd.Flags().StringVar(&notes, "notes", "", "resolution notes")
	return cmd
}
