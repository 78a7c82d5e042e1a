// README: Calendar context provider (public holidays + curated annual events).
package planctx

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"atlas/internal/logger"
)

//go:embed events.yaml
var annualEventsYAML []byte

// PublicHoliday is one holiday returned by Nager.Date.
type PublicHoliday struct {
	Date        time.Time
	LocalName   string
	Name        string
	CountryCode string
}

// AnnualEvent is a curated recurring event from the embedded catalog.
type AnnualEvent struct {
	Name        string `yaml:"name"`
	CountryCode string `yaml:"country_code"`
	City        string `yaml:"city"`
	Month       int    `yaml:"month"`
	Day         int    `yaml:"day"`
	Category    string `yaml:"category"`
	Notes       string `yaml:"notes"`
}

// CalendarService composes the holiday API and the curated event catalog into
// a concise context block for the LLM prompt. Failures degrade to an empty
// block; calendar context is never worth failing a job over.
type CalendarService struct {
	client  *http.Client
	baseURL string
	events  []AnnualEvent

	mu    sync.Mutex
	cache map[string][]PublicHoliday // "CC:year" -> holidays
}

func NewCalendarService() *CalendarService {
	s := &CalendarService{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://date.nager.at",
		cache:   make(map[string][]PublicHoliday),
	}
	var catalog struct {
		Events []AnnualEvent `yaml:"events"`
	}
	if err := yaml.Unmarshal(annualEventsYAML, &catalog); err != nil {
		logger.Warn("annual events catalog parse error", map[string]interface{}{"error": err.Error()})
	}
	s.events = catalog.Events
	return s
}

// SetBaseURL overrides the holiday API endpoint. Test hook.
func (s *CalendarService) SetBaseURL(u string) { s.baseURL = u }

// Holidays fetches public holidays for a country and year, cached per pair.
func (s *CalendarService) Holidays(ctx context.Context, countryCode string, year int) ([]PublicHoliday, error) {
	cc := strings.ToUpper(countryCode)
	key := fmt.Sprintf("%s:%d", cc, year)

	s.mu.Lock()
	if hs, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return hs, nil
	}
	s.mu.Unlock()

	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", s.baseURL, year, cc)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "atlas/1.0")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nager request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nager status %d", resp.StatusCode)
	}

	var items []struct {
		Date      string `json:"date"`
		LocalName string `json:"localName"`
		Name      string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("nager decode: %w", err)
	}

	out := make([]PublicHoliday, 0, len(items))
	for _, it := range items {
		dt, err := time.Parse("2006-01-02", it.Date)
		if err != nil {
			continue
		}
		name := it.Name
		if name == "" {
			name = it.LocalName
		}
		out = append(out, PublicHoliday{Date: dt, LocalName: it.LocalName, Name: name, CountryCode: cc})
	}

	s.mu.Lock()
	s.cache[key] = out
	s.mu.Unlock()
	return out, nil
}

// BuildContext renders holidays and annual events falling inside the trip
// window. Returns "" when the country is unknown or nothing matches, so the
// prompt is never polluted with empty sections.
func (s *CalendarService) BuildContext(ctx context.Context, destination, countryCode string, start, end time.Time) string {
	const maxLines = 10
	cc := strings.ToUpper(countryCode)
	if cc == "" {
		return ""
	}

	years := map[int]bool{start.Year(): true, end.Year(): true}
	var lines []string

	var holidays []PublicHoliday
	for y := range years {
		hs, err := s.Holidays(ctx, cc, y)
		if err != nil {
			logger.Warn("holiday provider failed", map[string]interface{}{"cc": cc, "year": y, "error": err.Error()})
			continue
		}
		holidays = append(holidays, hs...)
	}
	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date.Before(holidays[j].Date) })
	for _, h := range holidays {
		if h.Date.Before(start) || h.Date.After(end) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s (%s) - public holiday in %s", h.Date.Format("2006-01-02"), h.Name, h.LocalName, cc))
	}

	for y := range years {
		for _, e := range s.events {
			if !strings.EqualFold(e.CountryCode, cc) || e.Month < 1 || e.Month > 12 || e.Day < 1 || e.Day > 31 {
				continue
			}
			dt := time.Date(y, time.Month(e.Month), e.Day, 0, 0, 0, 0, time.UTC)
			if dt.Before(start) || dt.After(end) {
				continue
			}
			line := fmt.Sprintf("%s: %s", dt.Format("2006-01-02"), e.Name)
			if e.City != "" {
				line += " in " + e.City
			}
			line += " - " + e.Category
			if e.Notes != "" {
				line += " - " + e.Notes
			}
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return ""
	}
	if len(lines) > maxLines {
		lines = append(lines[:maxLines], fmt.Sprintf("...and %d more", len(lines)-maxLines))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Calendar notes for %s (%s):", destination, cc)
	for _, ln := range lines {
		b.WriteString("\n- " + ln)
	}
	return b.String()
}
