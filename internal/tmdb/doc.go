// Package tmdb wraps the TMDB HTTP API for film search and metadata
// lookups during title resolution and backfill.
package tmdb
