package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/backfill"
)

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Fetch TMDB metadata for films that resolved without it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			lookup, err := newLookup(cfg)
			if err != nil {
				return err
			}
			if lookup == nil {
				return fmt.Errorf("backfill needs a TMDB API key; set tmdb.api_key or MARQUEE_TMDB_API_KEY")
			}

			backfiller := backfill.New(store, lookup, ctx.newLogger(cfg))
			summary, err := backfiller.Run(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d film(s), %d still missing metadata\n", summary.Updated, summary.Missed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the summary as JSON")
	return cmd
}
