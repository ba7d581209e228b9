// Package api exposes the public query surface over the catalog plus a
// small admin surface for triggering pipeline passes. Read endpoints only
// ever see resolved rows; a failed scrape shows up as absent data, never
// as an error response.
package api
