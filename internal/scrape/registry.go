package scrape

import (
	"fmt"
	"sort"
	"sync"

	"marquee/internal/catalog"
	"marquee/internal/config"
)

// Factory builds a Scraper for one cinema from its stored configuration.
type Factory func(cinema *catalog.Cinema, cfg *config.Config) (Scraper, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	Register("spektrix", newSpektrixScraper)
	Register("listings", newListingsScraper)
}

// Register adds a scraper factory under the given type name. Adapters
// register themselves at init; tests register stubs.
func Register(scraperType string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[scraperType] = factory
}

// New builds the scraper a cinema's scraper_type names.
func New(cinema *catalog.Cinema, cfg *config.Config) (Scraper, error) {
	registryMu.RLock()
	factory, ok := registry[cinema.ScraperType]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no scraper registered for type %q", cinema.ScraperType)
	}
	return factory(cinema, cfg)
}

// Types lists the registered scraper type names, sorted.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]string, 0, len(registry))
	for name := range registry {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
