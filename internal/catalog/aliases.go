package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const aliasColumns = "id, normalized_title, film_id, created_at"

// LookupAlias returns the film id cached for a normalized title, or "" when
// no alias exists.
func (s *Store) LookupAlias(ctx context.Context, normalizedTitle string) (string, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT film_id FROM film_aliases WHERE normalized_title = ?`,
		normalizedTitle,
	)
	var filmID string
	err := row.Scan(&filmID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup alias: %w", err)
	}
	return filmID, nil
}

// StoreAlias caches a normalized title against a film. First writer wins:
// if an alias for the title already exists, whoever owns it, the call is a
// no-op, so concurrent resolutions of one new title create at most one row.
func (s *Store) StoreAlias(ctx context.Context, normalizedTitle, filmID string) error {
	if normalizedTitle == "" {
		return errors.New("normalized title is empty")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO film_aliases (normalized_title, film_id, created_at) VALUES (?, ?, ?)`,
		normalizedTitle,
		filmID,
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("store alias: %w", err)
	}
	return nil
}

// AliasesForFilm returns every alias pointing at a film.
func (s *Store) AliasesForFilm(ctx context.Context, filmID string) ([]*Alias, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+aliasColumns+` FROM film_aliases WHERE film_id = ? ORDER BY id`,
		filmID,
	)
	if err != nil {
		return nil, fmt.Errorf("aliases for film: %w", err)
	}
	defer rows.Close()

	var aliases []*Alias
	for rows.Next() {
		alias, err := scanAlias(rows)
		if err != nil {
			return nil, err
		}
		aliases = append(aliases, alias)
	}
	return aliases, rows.Err()
}

// FindAliasToRealFilm looks for an alias on the given normalized title that
// points at a film other than excludeFilmID and that has external metadata.
// This is the reconciler's probe for "a real film already covers this
// placeholder's identity". Returns (nil, nil) when no such alias exists.
func (s *Store) FindAliasToRealFilm(ctx context.Context, normalizedTitle, excludeFilmID string) (*Alias, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT a.id, a.normalized_title, a.film_id, a.created_at
         FROM film_aliases a
         JOIN films f ON f.id = a.film_id
         WHERE a.normalized_title = ? AND a.film_id != ? AND f.tmdb_id IS NOT NULL`,
		normalizedTitle,
		excludeFilmID,
	)
	alias, err := scanAlias(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find alias to real film: %w", err)
	}
	return alias, nil
}

// HasAlias reports whether filmID already owns an alias for the exact
// normalized title.
func (s *Store) HasAlias(ctx context.Context, normalizedTitle, filmID string) (bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM film_aliases WHERE normalized_title = ? AND film_id = ?`,
		normalizedTitle,
		filmID,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("has alias: %w", err)
	}
	return count > 0, nil
}

// RepointAlias moves an alias to a different film.
func (s *Store) RepointAlias(ctx context.Context, aliasID int64, filmID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE film_aliases SET film_id = ? WHERE id = ?`,
		filmID,
		aliasID,
	)
	if err != nil {
		return fmt.Errorf("repoint alias: %w", err)
	}
	return nil
}

// DeleteAlias removes an alias by identifier.
func (s *Store) DeleteAlias(ctx context.Context, aliasID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM film_aliases WHERE id = ?`, aliasID)
	if err != nil {
		return fmt.Errorf("delete alias: %w", err)
	}
	return nil
}

// CountAliases returns the number of alias rows.
func (s *Store) CountAliases(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM film_aliases`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count aliases: %w", err)
	}
	return count, nil
}

func scanAlias(scanner interface{ Scan(dest ...any) error }) (*Alias, error) {
	var (
		id         int64
		normalized string
		filmID     string
		createdRaw sql.NullString
	)
	if err := scanner.Scan(&id, &normalized, &filmID, &createdRaw); err != nil {
		return nil, err
	}
	alias := &Alias{
		ID:              id,
		NormalizedTitle: normalized,
		FilmID:          filmID,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		alias.CreatedAt = created
	}
	return alias, nil
}
