// Package resolver turns raw scraped titles into canonical film rows via a
// staged pipeline: alias cache, fuzzy match, TMDB lookup, placeholder.
package resolver
