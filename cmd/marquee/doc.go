// Command marquee is the cinema showtimes aggregator CLI: it runs the serve
// daemon, triggers scrapes and maintenance passes, and inspects the catalog.
package main
