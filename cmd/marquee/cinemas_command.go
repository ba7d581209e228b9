package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"marquee/internal/catalog"
	"marquee/internal/config"
)

func newCinemasCommand(ctx *commandContext) *cobra.Command {
	cinemasCmd := &cobra.Command{
		Use:   "cinemas",
		Short: "List and import cinemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCinemasList(ctx, cmd, "")
		},
	}

	var cityFlag string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cinemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCinemasList(ctx, cmd, cityFlag)
		},
	}
	listCmd.Flags().StringVar(&cityFlag, "city", "", "Only cinemas in this city")

	cinemasCmd.AddCommand(listCmd)
	cinemasCmd.AddCommand(newCinemasImportCommand(ctx))
	return cinemasCmd
}

func runCinemasList(ctx *commandContext, cmd *cobra.Command, city string) error {
	_, store, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	cinemas, err := store.ListCinemas(cmd.Context(), city)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(cinemas))
	for _, cinema := range cinemas {
		rows = append(rows, []string{
			cinema.ID,
			cinema.Name,
			cinema.City,
			cinema.ScraperType,
			yesNo(cinema.HasOnlineBooking),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"ID", "Name", "City", "Scraper", "Booking"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
	fmt.Fprintf(out, "%d cinema(s)\n", len(cinemas))
	return nil
}

// cinemaSeed is one [[cinemas]] entry in an import file.
type cinemaSeed struct {
	ID                        string  `toml:"id"`
	Name                      string  `toml:"name"`
	City                      string  `toml:"city"`
	Address                   string  `toml:"address"`
	Postcode                  string  `toml:"postcode"`
	Latitude                  float64 `toml:"latitude"`
	Longitude                 float64 `toml:"longitude"`
	Website                   string  `toml:"website"`
	ScraperType               string  `toml:"scraper_type"`
	ScraperConfig             string  `toml:"scraper_config"`
	Pricing                   string  `toml:"pricing"`
	HasOnlineBooking          bool    `toml:"has_online_booking"`
	SupportsAvailabilityCheck bool    `toml:"supports_availability_check"`
}

type cinemaSeedFile struct {
	Cinemas []cinemaSeed `toml:"cinemas"`
}

func newCinemasImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import or update cinemas from a TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}

			var seeds cinemaSeedFile
			if err := toml.Unmarshal(data, &seeds); err != nil {
				return fmt.Errorf("parse import file: %w", err)
			}
			if len(seeds.Cinemas) == 0 {
				return fmt.Errorf("no [[cinemas]] entries in %s", path)
			}

			_, store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, seed := range seeds.Cinemas {
				if seed.ID == "" || seed.Name == "" {
					return fmt.Errorf("cinema entries need id and name (got id=%q name=%q)", seed.ID, seed.Name)
				}
				cinema := &catalog.Cinema{
					ID:                        seed.ID,
					Name:                      seed.Name,
					City:                      seed.City,
					Address:                   seed.Address,
					Postcode:                  seed.Postcode,
					Latitude:                  seed.Latitude,
					Longitude:                 seed.Longitude,
					Website:                   seed.Website,
					ScraperType:               seed.ScraperType,
					ScraperConfig:             seed.ScraperConfig,
					Pricing:                   seed.Pricing,
					HasOnlineBooking:          seed.HasOnlineBooking,
					SupportsAvailabilityCheck: seed.SupportsAvailabilityCheck,
				}
				if err := store.UpsertCinema(cmd.Context(), cinema); err != nil {
					return fmt.Errorf("import cinema %s: %w", seed.ID, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d cinema(s) from %s\n", len(seeds.Cinemas), path)
			return nil
		},
	}
}
