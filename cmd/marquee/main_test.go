package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInit(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// A second init without --overwrite must refuse.
	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected overwrite refusal")
	}
}

func TestConfigShow(t *testing.T) {
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Default city:    london")
	requireContains(t, out, "TMDB key set:    no")
}

func TestCinemasImportAndList(t *testing.T) {
	configPath := writeTestConfig(t)

	seedPath := filepath.Join(t.TempDir(), "cinemas.toml")
	seed := `[[cinemas]]
id = "rio-cinema"
name = "Rio Cinema"
city = "london"
address = "107 Kingsland High Street"
postcode = "E8 2PB"
website = "https://riocinema.org.uk"
scraper_type = "spektrix"
scraper_config = '{"whats_on_url": "https://riocinema.org.uk/whats-on"}'
has_online_booking = true

[[cinemas]]
id = "the-garden-cinema"
name = "The Garden Cinema"
city = "london"
scraper_type = "listings"
`
	if err := os.WriteFile(seedPath, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	out, _, err := runCLI(t, configPath, "cinemas", "import", seedPath)
	if err != nil {
		t.Fatalf("cinemas import: %v", err)
	}
	requireContains(t, out, "Imported 2 cinema(s)")

	out, _, err = runCLI(t, configPath, "cinemas", "list")
	if err != nil {
		t.Fatalf("cinemas list: %v", err)
	}
	requireContains(t, out, "Rio Cinema")
	requireContains(t, out, "The Garden Cinema")
	requireContains(t, out, "2 cinema(s)")
}

func TestCinemasImportRejectsMissingID(t *testing.T) {
	configPath := writeTestConfig(t)

	seedPath := filepath.Join(t.TempDir(), "cinemas.toml")
	if err := os.WriteFile(seedPath, []byte("[[cinemas]]\nname = \"Nameless\"\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, _, err := runCLI(t, configPath, "cinemas", "import", seedPath); err == nil {
		t.Fatal("expected import failure for entry without id")
	}
}

func TestResolveCreatesPlaceholderWithoutKey(t *testing.T) {
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, configPath, "resolve", "Preview: La Chimera (2023)")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "ID:          la-chimera")
	requireContains(t, out, "Placeholder: yes")

	// The alias cache makes a second run converge on the same film.
	out, _, err = runCLI(t, configPath, "resolve", "La Chimera (2023)")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	requireContains(t, out, "ID:          la-chimera")
}

func TestFilmsListAndFilter(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, _, err := runCLI(t, configPath, "resolve", "Aftersun (2022)"); err != nil {
		t.Fatalf("seed resolve: %v", err)
	}
	if _, _, err := runCLI(t, configPath, "resolve", "La Chimera (2023)"); err != nil {
		t.Fatalf("seed resolve: %v", err)
	}

	out, _, err := runCLI(t, configPath, "films")
	if err != nil {
		t.Fatalf("films: %v", err)
	}
	requireContains(t, out, "Aftersun")
	requireContains(t, out, "2 film(s)")

	out, _, err = runCLI(t, configPath, "films", "chimera")
	if err != nil {
		t.Fatalf("films filter: %v", err)
	}
	requireContains(t, out, "La Chimera")
	requireContains(t, out, "1 film(s)")
}

func TestReconcileDryRunReportsNothingToDo(t *testing.T) {
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, configPath, "reconcile", "--dry-run")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	requireContains(t, out, "0 placeholder(s) would merge")
}

func TestBackfillRequiresKey(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, _, err := runCLI(t, configPath, "backfill"); err == nil {
		t.Fatal("expected backfill to fail without a TMDB key")
	}
}

func TestScrapeWithNoCinemas(t *testing.T) {
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, configPath, "scrape")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	requireContains(t, out, "0 created, 0 updated")
}

func TestVersion(t *testing.T) {
	out, _, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "marquee")
}
