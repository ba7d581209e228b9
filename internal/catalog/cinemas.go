package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const cinemaColumns = "id, name, city, address, postcode, latitude, longitude, website, scraper_type, scraper_config, pricing, has_online_booking, supports_availability_check, created_at, updated_at"

// UpsertCinema inserts a cinema or replaces its configuration. Cinemas are
// operator-maintained configuration rows, so last write wins here; unlike
// aliases and films there is no concurrent-creation race to arbitrate.
func (s *Store) UpsertCinema(ctx context.Context, cinema *Cinema) error {
	if cinema == nil {
		return errors.New("cinema is nil")
	}
	now := time.Now().UTC()
	timestamp := formatTime(now)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO cinemas (
            id, name, city, address, postcode, latitude, longitude, website,
            scraper_type, scraper_config, pricing, has_online_booking,
            supports_availability_check, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            name = excluded.name,
            city = excluded.city,
            address = excluded.address,
            postcode = excluded.postcode,
            latitude = excluded.latitude,
            longitude = excluded.longitude,
            website = excluded.website,
            scraper_type = excluded.scraper_type,
            scraper_config = excluded.scraper_config,
            pricing = excluded.pricing,
            has_online_booking = excluded.has_online_booking,
            supports_availability_check = excluded.supports_availability_check,
            updated_at = excluded.updated_at`,
		cinema.ID,
		cinema.Name,
		cinema.City,
		cinema.Address,
		cinema.Postcode,
		nullableFloat(cinema.Latitude),
		nullableFloat(cinema.Longitude),
		nullableString(cinema.Website),
		cinema.ScraperType,
		nullableString(cinema.ScraperConfig),
		nullableString(cinema.Pricing),
		boolToInt(cinema.HasOnlineBooking),
		boolToInt(cinema.SupportsAvailabilityCheck),
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert cinema: %w", err)
	}
	return nil
}

// GetCinema fetches a cinema by identifier. Missing rows return (nil, nil).
func (s *Store) GetCinema(ctx context.Context, id string) (*Cinema, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cinemaColumns+` FROM cinemas WHERE id = ?`, id)
	cinema, err := scanCinema(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cinema: %w", err)
	}
	return cinema, nil
}

// ListCinemas returns cinemas, optionally filtered by city, ordered by name.
func (s *Store) ListCinemas(ctx context.Context, city string) ([]*Cinema, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if city == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+cinemaColumns+` FROM cinemas ORDER BY name`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+cinemaColumns+` FROM cinemas WHERE city = ? ORDER BY name`, city)
	}
	if err != nil {
		return nil, fmt.Errorf("list cinemas: %w", err)
	}
	defer rows.Close()

	var cinemas []*Cinema
	for rows.Next() {
		cinema, err := scanCinema(rows)
		if err != nil {
			return nil, err
		}
		cinemas = append(cinemas, cinema)
	}
	return cinemas, rows.Err()
}

// GetCinemas fetches the cinemas matching the provided ids, in name order.
func (s *Store) GetCinemas(ctx context.Context, ids []string) ([]*Cinema, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+cinemaColumns+` FROM cinemas WHERE id IN (`+placeholders+`) ORDER BY name`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("get cinemas: %w", err)
	}
	defer rows.Close()

	var cinemas []*Cinema
	for rows.Next() {
		cinema, err := scanCinema(rows)
		if err != nil {
			return nil, err
		}
		cinemas = append(cinemas, cinema)
	}
	return cinemas, rows.Err()
}

func scanCinema(scanner interface{ Scan(dest ...any) error }) (*Cinema, error) {
	var (
		id            string
		name          string
		city          string
		address       string
		postcode      string
		latitude      sql.NullFloat64
		longitude     sql.NullFloat64
		website       sql.NullString
		scraperType   string
		scraperConfig sql.NullString
		pricing       sql.NullString
		onlineBooking sql.NullInt64
		availability  sql.NullInt64
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&name,
		&city,
		&address,
		&postcode,
		&latitude,
		&longitude,
		&website,
		&scraperType,
		&scraperConfig,
		&pricing,
		&onlineBooking,
		&availability,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	cinema := &Cinema{
		ID:                        id,
		Name:                      name,
		City:                      city,
		Address:                   address,
		Postcode:                  postcode,
		Latitude:                  latitude.Float64,
		Longitude:                 longitude.Float64,
		Website:                   website.String,
		ScraperType:               scraperType,
		ScraperConfig:             scraperConfig.String,
		Pricing:                   pricing.String,
		HasOnlineBooking:          onlineBooking.Int64 != 0,
		SupportsAvailabilityCheck: availability.Int64 != 0,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		cinema.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		cinema.UpdatedAt = updated
	}
	return cinema, nil
}
