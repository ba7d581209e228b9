package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/services"
)

type listingsConfig struct {
	URL string `json:"url"`
}

// listingsScraper handles Savoy-style ticketing sites that render the full
// programme as static HTML: one container per film, screening panels per
// date, booking links per time.
type listingsScraper struct {
	cinemaID  string
	url       string
	client    *http.Client
	location  *time.Location
	userAgent string
}

func newListingsScraper(cinema *catalog.Cinema, cfg *config.Config) (Scraper, error) {
	var lc listingsConfig
	if cinema.ScraperConfig != "" {
		if err := json.Unmarshal([]byte(cinema.ScraperConfig), &lc); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "scrape", "listings",
				fmt.Sprintf("decode scraper config for %s", cinema.ID), err)
		}
	}
	if lc.URL == "" {
		lc.URL = cinema.Website
	}
	if lc.URL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "scrape", "listings",
			fmt.Sprintf("cinema %s has no listings url", cinema.ID), nil)
	}
	location, err := time.LoadLocation("Europe/London")
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	return &listingsScraper{
		cinemaID:  cinema.ID,
		url:       lc.URL,
		client:    &http.Client{Timeout: cfg.Scrape.Timeout()},
		location:  location,
		userAgent: cfg.Scrape.UserAgent,
	}, nil
}

var (
	panelDatePattern = regexp.MustCompile(`\b(\d{1,2})\s+([A-Za-z]+)\b`)
	clockPattern     = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

var monthsByName = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

func (s *listingsScraper) Showings(ctx context.Context, from, to time.Time) ([]RawShowing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listings page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listings page returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listings html: %w", err)
	}
	return s.parse(doc, from, to), nil
}

func (s *listingsScraper) parse(doc *goquery.Document, from, to time.Time) []RawShowing {
	var showings []RawShowing

	doc.Find("div.films-list__by-date__film").Each(func(_ int, film *goquery.Selection) {
		titleLink := film.Find("h1.films-list__by-date__film__title a").First()
		if titleLink.Length() == 0 {
			return
		}
		// Drop the certificate badge before reading the title text.
		titleLink.Find("span.films-list__by-date__film__rating").Remove()
		title := strings.TrimSpace(titleLink.Text())
		if title == "" {
			return
		}

		film.Find("div.screening-panel").Each(func(_ int, panel *goquery.Selection) {
			day, ok := s.panelDate(panel, from)
			if !ok {
				return
			}

			screenName := strings.TrimSpace(panel.Find("div.screening-panel__screen").First().Text())

			panel.Find("a.screening-panel__time").Each(func(_ int, link *goquery.Selection) {
				m := clockPattern.FindStringSubmatch(strings.TrimSpace(link.Text()))
				if m == nil {
					return
				}
				hour, _ := strconv.Atoi(m[1])
				minute, _ := strconv.Atoi(m[2])
				start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, s.location)
				if start.Before(from) || start.After(to) {
					return
				}
				showings = append(showings, RawShowing{
					Title:      title,
					StartTime:  start,
					BookingURL: link.AttrOr("href", ""),
					ScreenName: screenName,
				})
			})
		})
	})

	return showings
}

// panelDate parses a panel heading like "Fri 30 Jan". Headings carry no
// year; take it from the window start and roll forward across a year
// boundary when the month has already passed.
func (s *listingsScraper) panelDate(panel *goquery.Selection, from time.Time) (time.Time, bool) {
	heading := strings.TrimSpace(panel.Find("div.screening-panel__date-title").First().Text())
	m := panelDatePattern.FindStringSubmatch(heading)
	if m == nil {
		return time.Time{}, false
	}
	dayNum, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	monthKey := strings.ToLower(m[2])
	if len(monthKey) > 3 {
		monthKey = monthKey[:3]
	}
	month, ok := monthsByName[monthKey]
	if !ok {
		return time.Time{}, false
	}

	day := time.Date(from.Year(), month, dayNum, 0, 0, 0, 0, s.location)
	if day.Before(from.AddDate(0, 0, -1)) && from.Month() == time.December {
		day = day.AddDate(1, 0, 0)
	}
	return day, true
}
