package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/catalog"
)

func newFilmsCommand(ctx *commandContext) *cobra.Command {
	var placeholdersOnly bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "films [query]",
		Short: "List catalog films, optionally filtered by a title substring",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var films []*catalog.Film
			if placeholdersOnly {
				films, err = store.ListPlaceholders(cmd.Context())
			} else {
				films, err = store.ListFilms(cmd.Context())
			}
			if err != nil {
				return err
			}

			if len(args) == 1 {
				query := strings.ToLower(args[0])
				filtered := films[:0]
				for _, film := range films {
					if strings.Contains(strings.ToLower(film.Title), query) {
						filtered = append(filtered, film)
					}
				}
				films = filtered
			}

			if jsonOutput {
				return writeJSON(cmd, films)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(films))
			for _, film := range films {
				year := ""
				if film.Year != 0 {
					year = strconv.Itoa(film.Year)
				}
				tmdbID := ""
				if film.TMDBID != 0 {
					tmdbID = strconv.FormatInt(film.TMDBID, 10)
				}
				rows = append(rows, []string{
					film.ID,
					film.Title,
					year,
					tmdbID,
					strings.Join(film.Directors, ", "),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"ID", "Title", "Year", "TMDB", "Directors"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
			fmt.Fprintf(out, "%d film(s)\n", len(films))
			return nil
		},
	}

	cmd.Flags().BoolVar(&placeholdersOnly, "placeholders", false, "Only films still waiting on metadata")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit films as JSON")
	return cmd
}
