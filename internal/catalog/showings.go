package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const showingColumns = "id, cinema_id, film_id, start_time, booking_url, screen_name, format_tags, price, raw_title, created_at, updated_at"

// UpsertResult describes what UpsertShowing did.
type UpsertResult int

const (
	ShowingCreated UpsertResult = iota
	ShowingUpdated
)

// UpsertShowing inserts a showing or refreshes the display fields of the
// existing row with the same (cinema, film, start_time). A unique violation
// on insert means another worker created the row between our read and write;
// that race resolves to an update, never an error.
func (s *Store) UpsertShowing(ctx context.Context, showing *Showing) (UpsertResult, error) {
	if showing == nil {
		return ShowingUpdated, errors.New("showing is nil")
	}

	existing, err := s.FindShowing(ctx, showing.CinemaID, showing.FilmID, showing.StartTime)
	if err != nil {
		return ShowingUpdated, err
	}
	if existing != nil {
		return ShowingUpdated, s.refreshShowing(ctx, existing.ID, showing)
	}

	now := time.Now().UTC()
	timestamp := formatTime(now)
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO showings (
            cinema_id, film_id, start_time, booking_url, screen_name,
            format_tags, price, raw_title, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		showing.CinemaID,
		showing.FilmID,
		formatTime(showing.StartTime),
		nullableString(showing.BookingURL),
		nullableString(showing.ScreenName),
		nullableString(showing.FormatTags),
		nullableFloat(showing.Price),
		nullableString(showing.RawTitle),
		timestamp,
		timestamp,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			lost, findErr := s.FindShowing(ctx, showing.CinemaID, showing.FilmID, showing.StartTime)
			if findErr != nil {
				return ShowingUpdated, findErr
			}
			if lost != nil {
				return ShowingUpdated, s.refreshShowing(ctx, lost.ID, showing)
			}
		}
		return ShowingUpdated, fmt.Errorf("insert showing: %w", err)
	}
	return ShowingCreated, nil
}

func (s *Store) refreshShowing(ctx context.Context, id int64, showing *Showing) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE showings
         SET booking_url = ?, screen_name = ?, format_tags = ?, price = ?,
             raw_title = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(showing.BookingURL),
		nullableString(showing.ScreenName),
		nullableString(showing.FormatTags),
		nullableFloat(showing.Price),
		nullableString(showing.RawTitle),
		formatTime(time.Now().UTC()),
		id,
	)
	if err != nil {
		return fmt.Errorf("refresh showing: %w", err)
	}
	return nil
}

// FindShowing fetches the showing for a (cinema, film, start_time) triple.
// Missing rows return (nil, nil).
func (s *Store) FindShowing(ctx context.Context, cinemaID, filmID string, startTime time.Time) (*Showing, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+showingColumns+` FROM showings WHERE cinema_id = ? AND film_id = ? AND start_time = ?`,
		cinemaID,
		filmID,
		formatTime(startTime),
	)
	showing, err := scanShowing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find showing: %w", err)
	}
	return showing, nil
}

// PlaceholderShowingAt finds a showing at the given cinema and start time
// whose film is still a placeholder. The scrape runner migrates such rows
// to the real film instead of inserting a duplicate.
func (s *Store) PlaceholderShowingAt(ctx context.Context, cinemaID string, startTime time.Time) (*Showing, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT s.id, s.cinema_id, s.film_id, s.start_time, s.booking_url, s.screen_name,
                s.format_tags, s.price, s.raw_title, s.created_at, s.updated_at
         FROM showings s
         JOIN films f ON f.id = s.film_id
         WHERE s.cinema_id = ? AND s.start_time = ? AND f.tmdb_id IS NULL`,
		cinemaID,
		formatTime(startTime),
	)
	showing, err := scanShowing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("placeholder showing at: %w", err)
	}
	return showing, nil
}

// ShowingsForFilm returns every showing for a film ordered by start time.
func (s *Store) ShowingsForFilm(ctx context.Context, filmID string) ([]*Showing, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+showingColumns+` FROM showings WHERE film_id = ? ORDER BY start_time, id`,
		filmID,
	)
	if err != nil {
		return nil, fmt.Errorf("showings for film: %w", err)
	}
	defer rows.Close()
	return collectShowings(rows)
}

// ShowingsInWindow returns showings starting within [from, to) for cinemas in
// a city, ordered by start time.
func (s *Store) ShowingsInWindow(ctx context.Context, city string, from, to time.Time) ([]*Showing, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT s.id, s.cinema_id, s.film_id, s.start_time, s.booking_url, s.screen_name,
                s.format_tags, s.price, s.raw_title, s.created_at, s.updated_at
         FROM showings s
         JOIN cinemas c ON c.id = s.cinema_id
         WHERE c.city = ? AND s.start_time >= ? AND s.start_time < ?
         ORDER BY s.start_time, s.id`,
		city,
		formatTime(from),
		formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("showings in window: %w", err)
	}
	defer rows.Close()
	return collectShowings(rows)
}

// RepointShowing moves a showing to a different film.
func (s *Store) RepointShowing(ctx context.Context, showingID int64, filmID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE showings SET film_id = ?, updated_at = ? WHERE id = ?`,
		filmID,
		formatTime(time.Now().UTC()),
		showingID,
	)
	if err != nil {
		return fmt.Errorf("repoint showing: %w", err)
	}
	return nil
}

// DeleteShowing removes a showing by identifier.
func (s *Store) DeleteShowing(ctx context.Context, showingID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM showings WHERE id = ?`, showingID)
	if err != nil {
		return fmt.Errorf("delete showing: %w", err)
	}
	return nil
}

// DeleteShowingsBefore removes showings that started before the cutoff.
// Keeps the catalog from accumulating stale history across scrape cycles.
func (s *Store) DeleteShowingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM showings WHERE start_time < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete stale showings: %w", err)
	}
	return res.RowsAffected()
}

// CountShowings returns the number of showing rows.
func (s *Store) CountShowings(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM showings`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count showings: %w", err)
	}
	return count, nil
}

func collectShowings(rows *sql.Rows) ([]*Showing, error) {
	var showings []*Showing
	for rows.Next() {
		showing, err := scanShowing(rows)
		if err != nil {
			return nil, err
		}
		showings = append(showings, showing)
	}
	return showings, rows.Err()
}

func scanShowing(scanner interface{ Scan(dest ...any) error }) (*Showing, error) {
	var (
		id         int64
		cinemaID   string
		filmID     string
		startRaw   string
		bookingURL sql.NullString
		screenName sql.NullString
		formatTags sql.NullString
		price      sql.NullFloat64
		rawTitle   sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&cinemaID,
		&filmID,
		&startRaw,
		&bookingURL,
		&screenName,
		&formatTags,
		&price,
		&rawTitle,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	showing := &Showing{
		ID:         id,
		CinemaID:   cinemaID,
		FilmID:     filmID,
		BookingURL: bookingURL.String,
		ScreenName: screenName.String,
		FormatTags: formatTags.String,
		Price:      price.Float64,
		RawTitle:   rawTitle.String,
	}
	if start, err := parseTimeString(startRaw); err == nil {
		showing.StartTime = start
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		showing.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		showing.UpdatedAt = updated
	}
	return showing, nil
}
