package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const filmColumns = "id, title, year, tmdb_id, directors, countries, cast_members, overview, poster_path, runtime, created_at, updated_at"

// CreateFilm inserts a new canonical film. Unique violations (same id, or
// same tmdb_id) are returned unwrapped so callers can run the read-back
// recovery protocol; check with IsUniqueViolation.
func (s *Store) CreateFilm(ctx context.Context, film *Film) error {
	if film == nil {
		return errors.New("film is nil")
	}
	now := time.Now().UTC()
	timestamp := formatTime(now)

	directors, err := nullableStrings(film.Directors)
	if err != nil {
		return err
	}
	countries, err := nullableStrings(film.Countries)
	if err != nil {
		return err
	}
	cast, err := nullableStrings(film.Cast)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO films (
            id, title, year, tmdb_id, directors, countries, cast_members,
            overview, poster_path, runtime, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		film.ID,
		film.Title,
		nullableInt(film.Year),
		nullableInt64(film.TMDBID),
		directors,
		countries,
		cast,
		nullableString(film.Overview),
		nullableString(film.PosterPath),
		nullableInt(film.Runtime),
		timestamp,
		timestamp,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("insert film: %w", err)
	}
	film.CreatedAt = now
	film.UpdatedAt = now
	return nil
}

// GetFilm fetches a film by identifier. Missing rows return (nil, nil).
func (s *Store) GetFilm(ctx context.Context, id string) (*Film, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+filmColumns+` FROM films WHERE id = ?`, id)
	film, err := scanFilm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get film: %w", err)
	}
	return film, nil
}

// GetFilmByTMDBID fetches a film by its external identifier.
func (s *Store) GetFilmByTMDBID(ctx context.Context, tmdbID int64) (*Film, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+filmColumns+` FROM films WHERE tmdb_id = ?`, tmdbID)
	film, err := scanFilm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get film by tmdb id: %w", err)
	}
	return film, nil
}

// ListFilms returns every film in creation order. Creation order is what
// makes the fuzzy matcher's first-max tie-break reproducible.
func (s *Store) ListFilms(ctx context.Context) ([]*Film, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+filmColumns+` FROM films ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list films: %w", err)
	}
	defer rows.Close()

	var films []*Film
	for rows.Next() {
		film, err := scanFilm(rows)
		if err != nil {
			return nil, err
		}
		films = append(films, film)
	}
	return films, rows.Err()
}

// ListPlaceholders returns films with no TMDB identifier in creation order.
func (s *Store) ListPlaceholders(ctx context.Context) ([]*Film, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+filmColumns+` FROM films WHERE tmdb_id IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list placeholders: %w", err)
	}
	defer rows.Close()

	var films []*Film
	for rows.Next() {
		film, err := scanFilm(rows)
		if err != nil {
			return nil, err
		}
		films = append(films, film)
	}
	return films, rows.Err()
}

// SearchFilms returns films whose title contains the query, limited to films
// with at least one showing at a cinema in the given city. Results come back
// alphabetically, capped at limit.
func (s *Store) SearchFilms(ctx context.Context, query, city string, limit int) ([]*Film, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT DISTINCT f.id, f.title, f.year, f.tmdb_id, f.directors, f.countries,
                f.cast_members, f.overview, f.poster_path, f.runtime, f.created_at, f.updated_at
         FROM films f
         JOIN showings s ON s.film_id = f.id
         JOIN cinemas c ON c.id = s.cinema_id
         WHERE c.city = ? AND f.title LIKE ? COLLATE NOCASE
         ORDER BY f.title
         LIMIT ?`,
		city,
		"%"+query+"%",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search films: %w", err)
	}
	defer rows.Close()

	var films []*Film
	for rows.Next() {
		film, err := scanFilm(rows)
		if err != nil {
			return nil, err
		}
		films = append(films, film)
	}
	return films, rows.Err()
}

// FilmsMissingMetadata returns films with no directors, countries, and year,
// the backfill candidates.
func (s *Store) FilmsMissingMetadata(ctx context.Context) ([]*Film, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+filmColumns+` FROM films
         WHERE directors IS NULL AND countries IS NULL AND year IS NULL
         ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list films missing metadata: %w", err)
	}
	defer rows.Close()

	var films []*Film
	for rows.Next() {
		film, err := scanFilm(rows)
		if err != nil {
			return nil, err
		}
		films = append(films, film)
	}
	return films, rows.Err()
}

// UpdateFilm persists metadata changes to an existing film.
func (s *Store) UpdateFilm(ctx context.Context, film *Film) error {
	if film == nil {
		return errors.New("film is nil")
	}
	film.UpdatedAt = time.Now().UTC()

	directors, err := nullableStrings(film.Directors)
	if err != nil {
		return err
	}
	countries, err := nullableStrings(film.Countries)
	if err != nil {
		return err
	}
	cast, err := nullableStrings(film.Cast)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE films
         SET title = ?, year = ?, tmdb_id = ?, directors = ?, countries = ?,
             cast_members = ?, overview = ?, poster_path = ?, runtime = ?, updated_at = ?
         WHERE id = ?`,
		film.Title,
		nullableInt(film.Year),
		nullableInt64(film.TMDBID),
		directors,
		countries,
		cast,
		nullableString(film.Overview),
		nullableString(film.PosterPath),
		nullableInt(film.Runtime),
		formatTime(film.UpdatedAt),
		film.ID,
	)
	if err != nil {
		return fmt.Errorf("update film: %w", err)
	}
	return nil
}

// DeleteFilm removes a film by identifier.
func (s *Store) DeleteFilm(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM films WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete film: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// CountFilms returns total and placeholder film counts.
func (s *Store) CountFilms(ctx context.Context) (total, placeholders int, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1), COUNT(1) - COUNT(tmdb_id) FROM films`)
	if err := row.Scan(&total, &placeholders); err != nil {
		return 0, 0, fmt.Errorf("count films: %w", err)
	}
	return total, placeholders, nil
}

func scanFilm(scanner interface{ Scan(dest ...any) error }) (*Film, error) {
	var (
		id         string
		filmTitle  string
		year       sql.NullInt64
		tmdbID     sql.NullInt64
		directors  sql.NullString
		countries  sql.NullString
		cast       sql.NullString
		overview   sql.NullString
		posterPath sql.NullString
		runtime    sql.NullInt64
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&filmTitle,
		&year,
		&tmdbID,
		&directors,
		&countries,
		&cast,
		&overview,
		&posterPath,
		&runtime,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	film := &Film{
		ID:         id,
		Title:      filmTitle,
		Year:       int(year.Int64),
		TMDBID:     tmdbID.Int64,
		Directors:  decodeStrings(directors),
		Countries:  decodeStrings(countries),
		Cast:       decodeStrings(cast),
		Overview:   overview.String,
		PosterPath: posterPath.String,
		Runtime:    int(runtime.Int64),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		film.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		film.UpdatedAt = updated
	}
	return film, nil
}
