// Package catalog persists the film catalog in SQLite: canonical films,
// title aliases, showings, and cinema configuration.
//
// The store is the single source of truth for resolution state; no
// component caches alias or film data across calls, which is what lets the
// resolver enforce its at-most-one-winning-create protocol purely through
// the two uniqueness constraints (films.id / films.tmdb_id, and
// film_aliases.normalized_title). Unique violations are recoverable
// signals here, not errors: see IsUniqueViolation and the call sites in
// the resolver and the scrape runner.
//
// Schema changes are embedded .sql migrations applied in filename order and
// recorded in schema_migrations.
package catalog
