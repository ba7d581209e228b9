package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"marquee/internal/catalog"
)

func newShowingsCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string
	var cityFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "showings",
		Short: "List showings for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			location, err := time.LoadLocation("Europe/London")
			if err != nil {
				location = time.Local
			}
			day := time.Now().In(location)
			if dateFlag != "" {
				day, err = time.ParseInLocation("2006-01-02", dateFlag, location)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD")
				}
			}
			from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, location)
			to := from.AddDate(0, 0, 1)

			city := cityFlag
			if city == "" {
				city = cfg.API.DefaultCity
			}

			showings, err := store.ShowingsInWindow(cmd.Context(), city, from, to)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, showings)
			}

			films := make(map[string]*catalog.Film)
			cinemas := make(map[string]*catalog.Cinema)
			rows := make([][]string, 0, len(showings))
			for _, showing := range showings {
				film := films[showing.FilmID]
				if film == nil {
					if film, err = store.GetFilm(cmd.Context(), showing.FilmID); err != nil {
						return err
					}
					films[showing.FilmID] = film
				}
				cinema := cinemas[showing.CinemaID]
				if cinema == nil {
					if cinema, err = store.GetCinema(cmd.Context(), showing.CinemaID); err != nil {
						return err
					}
					cinemas[showing.CinemaID] = cinema
				}
				title := showing.FilmID
				if film != nil {
					title = film.Title
				}
				venue := showing.CinemaID
				if cinema != nil {
					venue = cinema.Name
				}
				rows = append(rows, []string{
					showing.StartTime.In(location).Format("15:04"),
					title,
					venue,
					showing.ScreenName,
					showing.FormatTags,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"Time", "Film", "Cinema", "Screen", "Format"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}))
			fmt.Fprintf(out, "%d showing(s) in %s on %s\n", len(showings), city, from.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Date to list (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&cityFlag, "city", "", "City to list (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit showings as JSON")
	return cmd
}
