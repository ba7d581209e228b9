// Package logging configures slog for the aggregator.
//
// Two formats are supported: a console handler that prefixes messages with
// their component and renders attributes as key=value pairs, and a JSON
// handler with stable ts/level/msg field names for machine consumption.
// Output fans out to stdout plus a log file under the configured log
// directory.
package logging
