package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/scrape"
)

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	var cinemaIDs []string
	var days int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape cinema listings and store the showings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			logger := ctx.newLogger(cfg)
			if days > 0 {
				cfg.Scrape.DaysAhead = days
			}

			res, err := newResolver(cfg, store, logger)
			if err != nil {
				return err
			}
			runner := scrape.NewRunner(store, res, cfg, logger)

			summary, err := runner.Run(cmd.Context(), cinemaIDs)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, summary)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(summary.Results))
			for _, result := range summary.Results {
				status := "ok"
				if !result.Success {
					status = result.Error
				}
				rows = append(rows, []string{
					result.CinemaID,
					result.CinemaName,
					fmt.Sprintf("%d", result.Created),
					fmt.Sprintf("%d", result.Updated),
					status,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"ID", "Cinema", "Created", "Updated", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
			fmt.Fprintf(out, "Run %s: %d created, %d updated, %d cinema(s) failed\n",
				summary.RunID, summary.TotalCreated, summary.TotalUpdated, summary.FailedCinemas)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&cinemaIDs, "cinema", nil, "Limit the scrape to specific cinema ids")
	cmd.Flags().IntVar(&days, "days", 0, "Override the number of days ahead to scrape")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run summary as JSON")
	return cmd
}
