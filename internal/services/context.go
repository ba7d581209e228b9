package services

import "context"

type contextKey string

const (
	cinemaIDKey  contextKey = "cinema_id"
	runIDKey     contextKey = "run_id"
	requestIDKey contextKey = "request_id"
)

// WithCinemaID annotates context with the cinema currently being scraped.
func WithCinemaID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, cinemaIDKey, id)
}

// CinemaIDFromContext extracts the cinema identifier if present.
func CinemaIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(cinemaIDKey).(string)
	return v, ok && v != ""
}

// WithRunID annotates context with the scrape run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the scrape run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok && v != ""
}

// WithRequestID annotates context with an API request identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the API request identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)
	return v, ok && v != ""
}
