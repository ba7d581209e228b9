package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "resolve <title>",
		Short: "Resolve a raw listing title to a canonical film",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawTitle := strings.Join(args, " ")

			cfg, store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := newResolver(cfg, store, ctx.newLogger(cfg))
			if err != nil {
				return err
			}

			film, err := res.Resolve(cmd.Context(), rawTitle)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, film)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", film.ID)
			fmt.Fprintf(out, "Title:       %s\n", film.Title)
			if film.Year != 0 {
				fmt.Fprintf(out, "Year:        %d\n", film.Year)
			}
			if film.TMDBID != 0 {
				fmt.Fprintf(out, "TMDB ID:     %d\n", film.TMDBID)
			}
			if len(film.Directors) > 0 {
				fmt.Fprintf(out, "Directed by: %s\n", strings.Join(film.Directors, ", "))
			}
			fmt.Fprintf(out, "Placeholder: %s\n", yesNo(film.IsPlaceholder()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the resolved film as JSON")
	return cmd
}
