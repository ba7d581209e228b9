package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/services"
)

// performanceFlags maps ticketing-system flag codes to display labels.
var performanceFlags = []struct {
	code  string
	label string
}{
	{"CB", "Carers & Babies"},
	{"HoH", "Hard of Hearing"},
	{"PP", "Pink Palace"},
	{"SP", "Special"},
	{"CM", "Classic Matinee"},
	{"QA", "Q&A"},
	{"FF", "Family Flicks"},
	{"RS", "Relaxed Screening"},
	{"NoAds", "No Ads"},
}

var eventsMarkerPattern = regexp.MustCompile(`var\s+Events\s*=\s*`)

type spektrixConfig struct {
	WhatsOnURL string `json:"whats_on_url"`
	BaseURL    string `json:"base_url"`
}

// spektrixScraper handles venues whose what's-on page embeds the full
// programme as a "var Events = {...}" JavaScript assignment. No JS
// rendering needed; one fetch plus a JSON decode at the marker offset.
type spektrixScraper struct {
	cinemaID   string
	whatsOnURL string
	baseURL    string
	client     *http.Client
	location   *time.Location
	userAgent  string
}

func newSpektrixScraper(cinema *catalog.Cinema, cfg *config.Config) (Scraper, error) {
	var sc spektrixConfig
	if cinema.ScraperConfig != "" {
		if err := json.Unmarshal([]byte(cinema.ScraperConfig), &sc); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "scrape", "spektrix",
				fmt.Sprintf("decode scraper config for %s", cinema.ID), err)
		}
	}
	if sc.WhatsOnURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "scrape", "spektrix",
			fmt.Sprintf("cinema %s has no whats_on_url", cinema.ID), nil)
	}
	location, err := time.LoadLocation("Europe/London")
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	return &spektrixScraper{
		cinemaID:   cinema.ID,
		whatsOnURL: sc.WhatsOnURL,
		baseURL:    strings.TrimRight(sc.BaseURL, "/"),
		client:     &http.Client{Timeout: cfg.Scrape.Timeout()},
		location:   location,
		userAgent:  cfg.Scrape.UserAgent,
	}, nil
}

type spektrixEvents struct {
	Events []spektrixEvent `json:"Events"`
}

type spektrixEvent struct {
	Title        string                `json:"Title"`
	Performances []spektrixPerformance `json:"Performances"`
}

type spektrixPerformance struct {
	StartDate      string `json:"StartDate"` // "2026-02-16"
	StartTime      string `json:"StartTime"` // "1100", "2040"
	URL            string `json:"URL"`
	AuditoriumName string `json:"AuditoriumName"`

	// Flag fields arrive as "Y"/"N" strings.
	Extra map[string]string `json:"-"`
}

func (s *spektrixScraper) Showings(ctx context.Context, from, to time.Time) ([]RawShowing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.whatsOnURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch whats-on page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whats-on page returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read whats-on page: %w", err)
	}
	return s.parse(string(body), from, to)
}

func (s *spektrixScraper) parse(html string, from, to time.Time) ([]RawShowing, error) {
	loc := eventsMarkerPattern.FindStringIndex(html)
	if loc == nil {
		return nil, fmt.Errorf("no embedded Events assignment in page")
	}

	// Decode exactly one JSON value from the marker; whatever JavaScript
	// follows the object literal is ignored.
	decoder := json.NewDecoder(strings.NewReader(html[loc[1]:]))
	var events spektrixEvents
	if err := decoder.Decode(&events); err != nil {
		return nil, fmt.Errorf("decode embedded Events JSON: %w", err)
	}

	var showings []RawShowing
	for _, event := range events.Events {
		if strings.TrimSpace(event.Title) == "" {
			continue
		}
		for _, perf := range event.Performances {
			showing, ok := s.parsePerformance(event.Title, perf, from, to)
			if !ok {
				continue
			}
			showings = append(showings, showing)
		}
	}
	return showings, nil
}

func (s *spektrixScraper) parsePerformance(title string, perf spektrixPerformance, from, to time.Time) (RawShowing, bool) {
	if perf.StartDate == "" || perf.StartTime == "" {
		return RawShowing{}, false
	}
	day, err := time.ParseInLocation("2006-01-02", perf.StartDate, s.location)
	if err != nil {
		return RawShowing{}, false
	}

	// StartTime is a zero-padded "HHMM" clock string.
	clock := perf.StartTime
	for len(clock) < 4 {
		clock = "0" + clock
	}
	hour, herr := strconv.Atoi(clock[:2])
	minute, merr := strconv.Atoi(clock[2:])
	if herr != nil || merr != nil {
		return RawShowing{}, false
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, s.location)
	if start.Before(from) || start.After(to) {
		return RawShowing{}, false
	}

	bookingURL := perf.URL
	if bookingURL != "" && !strings.HasPrefix(bookingURL, "http") && s.baseURL != "" {
		bookingURL = s.baseURL + "/" + strings.TrimLeft(bookingURL, "/")
	}

	var tags []string
	for _, flag := range performanceFlags {
		if perf.Extra[flag.code] == "Y" {
			tags = append(tags, flag.label)
		}
	}

	return RawShowing{
		Title:      title,
		StartTime:  start,
		BookingURL: bookingURL,
		ScreenName: perf.AuditoriumName,
		FormatTags: strings.Join(tags, ", "),
	}, true
}

// UnmarshalJSON keeps the known fields and collects the single-letter flag
// columns into Extra for format-tag extraction.
func (p *spektrixPerformance) UnmarshalJSON(data []byte) error {
	type plain spektrixPerformance
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	*p = spektrixPerformance(known)

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	p.Extra = make(map[string]string, len(all))
	for key, value := range all {
		if s, ok := value.(string); ok {
			p.Extra[key] = s
		}
	}
	return nil
}
