// Package scrape fetches cinema programmes and feeds them through title
// resolution into the catalog. Site adapters register themselves by type
// name; the runner builds them per cinema and isolates failures so one
// broken site never costs the rest of the run.
package scrape
