package main

import (
	"fmt"

	"github.com/saransh1220/album-market/internal/app"
	"github.com/saransh1220/album-market/internal/modules/order"
	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run an order maintenance job once",
		Long: `Run an order maintenance job immediately instead of waiting for the
server's next tick. When Redis is enabled the job takes the same lock the
servers use, so it never overlaps a scheduled run.`,
	}

	cmd.AddCommand(sweepTaskCmd("expire", "Cancel pending orders past their payment window", order.TaskExpire))
	cmd.AddCommand(sweepTaskCmd("reap", "Delete cancelled orders past the retention window", order.TaskReap))

	return cmd
}

func sweepTaskCmd(use, short, task string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := loadConfig()

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Scheduler.RunOnce(cmd.Context(), task); err != nil {
				return fmt.Errorf("%s: %w", task, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s finished\n", task)
			return nil
		},
	}
}
