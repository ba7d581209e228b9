package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/reconcile"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Merge placeholder films into their resolved counterparts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			reconciler := reconcile.New(store, ctx.newLogger(cfg))
			summary, err := reconciler.Reconcile(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, summary)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "Dry run: %d placeholder(s) would merge, %d kept\n", summary.Merged, summary.Kept)
				return nil
			}
			fmt.Fprintf(out, "Merged %d placeholder(s), kept %d\n", summary.Merged, summary.Kept)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would merge without changing anything")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the summary as JSON")
	return cmd
}
