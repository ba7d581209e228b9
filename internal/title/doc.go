// Package title canonicalizes raw film titles scraped from cinema websites.
//
// Cinemas decorate the same film in wildly different ways: trailing years,
// format tags like [35mm], event-series prefixes like "Film Club:", and
// dash qualifiers like "— 4K Restoration". Normalize strips presentation
// artifacts so that every spelling of a film collapses to one comparison
// key, which the resolver uses for alias lookups and fuzzy matching.
//
// The pipeline order matters: dash qualifiers are stripped before trailing
// years so "Film (1929) — Restoration" reduces to "Film", and the trailing
// parenthetical pass only fires on digitless notes so embedded years survive
// until the dedicated year pass removes them.
package title
