package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marquee/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.toml")
	cfg, path, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("Load reported a missing file as existing: %s", path)
	}
	if cfg.Scrape.DaysAhead != 14 {
		t.Fatalf("default days_ahead = %d, want 14", cfg.Scrape.DaysAhead)
	}
	if cfg.TMDB.Language != "en-GB" {
		t.Fatalf("default tmdb language = %q, want en-GB", cfg.TMDB.Language)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("default log format = %q, want console", cfg.Logging.Format)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[scrape]
days_ahead = 7
max_concurrent = 0

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("Load did not report existing file")
	}
	if cfg.Scrape.DaysAhead != 7 {
		t.Fatalf("days_ahead = %d, want 7", cfg.Scrape.DaysAhead)
	}
	if cfg.Scrape.MaxConcurrent != 4 {
		t.Fatalf("zero max_concurrent should take the default, got %d", cfg.Scrape.MaxConcurrent)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level not lowercased: %q", cfg.Logging.Level)
	}
	if cfg.DatabasePath() != filepath.Join(dir, "data", "catalog.db") {
		t.Fatalf("DatabasePath = %q", cfg.DatabasePath())
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad log format",
			content: "[logging]\nformat = \"yaml\"\n",
			wantErr: "logging.format",
		},
		{
			name:    "bad bind address",
			content: "[api]\nbind = \"nonsense\"\n",
			wantErr: "api.bind",
		},
		{
			name:    "oversized window",
			content: "[scrape]\ndays_ahead = 400\n",
			wantErr: "days_ahead",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Load error = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestTMDBKeyEnvOverride(t *testing.T) {
	t.Setenv("MARQUEE_TMDB_API_KEY", "from-env")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TMDB.APIKey != "from-env" {
		t.Fatalf("api key = %q, want env override", cfg.TMDB.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[tmdb]") {
		t.Fatal("sample config missing [tmdb] section")
	}
}
