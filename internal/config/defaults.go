package config

const (
	defaultDataDir              = "~/.local/share/marquee"
	defaultLogDir               = "~/.local/share/marquee/logs"
	defaultTMDBBaseURL          = "https://api.themoviedb.org/3"
	defaultTMDBLanguage         = "en-GB"
	defaultScrapeDaysAhead      = 14
	defaultScrapeTimeoutSeconds = 30
	defaultScrapeMaxConcurrent  = 4
	defaultScrapeIntervalHours  = 6
	defaultMinTitleLength       = 2
	defaultUserAgent            = "marquee/1.0 (+https://github.com/marquee)"
	defaultAPIBind              = "127.0.0.1:8620"
	defaultCity                 = "london"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Scrape: Scrape{
			DaysAhead:      defaultScrapeDaysAhead,
			TimeoutSeconds: defaultScrapeTimeoutSeconds,
			MaxConcurrent:  defaultScrapeMaxConcurrent,
			IntervalHours:  defaultScrapeIntervalHours,
			MinTitleLength: defaultMinTitleLength,
			UserAgent:      defaultUserAgent,
		},
		API: API{
			Bind:        defaultAPIBind,
			DefaultCity: defaultCity,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
