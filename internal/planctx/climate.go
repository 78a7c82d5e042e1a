// README: Seasonal climate context provider backed by Open-Meteo climate normals.
package planctx

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// MonthlyClimate holds long-term normals for one calendar month, derived from
// the 1991-2020 reference period.
type MonthlyClimate struct {
	Month       time.Month `json:"month"`
	TmaxC       float64    `json:"avg_high_c"`
	TminC       float64    `json:"avg_low_c"`
	PrecipDays  float64    `json:"precip_days"`
	PrecipSumMM float64    `json:"precip_sum_mm"`
}

// ClimateService fetches and caches monthly climate normals per coordinate.
type ClimateService struct {
	client  *http.Client
	baseURL string

	mu    sync.Mutex
	cache map[string][12]MonthlyClimate
}

func NewClimateService() *ClimateService {
	return &ClimateService{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://climate-api.open-meteo.com",
		cache:   make(map[string][12]MonthlyClimate),
	}
}

// SetBaseURL overrides the climate API endpoint. Test hook.
func (s *ClimateService) SetBaseURL(u string) { s.baseURL = u }

// MonthlyNormals returns twelve months of climate normals for a coordinate.
// Results are cached for the process lifetime; normals do not change.
func (s *ClimateService) MonthlyNormals(ctx context.Context, lat, lng float64) ([12]MonthlyClimate, error) {
	key := fmt.Sprintf("%.2f,%.2f", lat, lng)

	s.mu.Lock()
	if ms, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return ms, nil
	}
	s.mu.Unlock()

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lng))
	q.Set("start_year", "1991")
	q.Set("end_year", "2020")
	q.Set("monthly", "temperature_2m_max,temperature_2m_min,precipitation_days,precipitation_sum")

	var zero [12]MonthlyClimate
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/climate?"+q.Encode(), nil)
	if err != nil {
		return zero, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("climate request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("climate status %d", resp.StatusCode)
	}

	var body struct {
		Monthly struct {
			Tmax       []float64 `json:"temperature_2m_max"`
			Tmin       []float64 `json:"temperature_2m_min"`
			PrecipDays []float64 `json:"precipitation_days"`
			PrecipSum  []float64 `json:"precipitation_sum"`
		} `json:"monthly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return zero, fmt.Errorf("climate decode: %w", err)
	}
	if len(body.Monthly.Tmax) < 12 || len(body.Monthly.Tmin) < 12 {
		return zero, fmt.Errorf("climate payload incomplete")
	}

	var months [12]MonthlyClimate
	for i := 0; i < 12; i++ {
		months[i] = MonthlyClimate{
			Month: time.Month(i + 1),
			TmaxC: body.Monthly.Tmax[i],
			TminC: body.Monthly.Tmin[i],
		}
		if i < len(body.Monthly.PrecipDays) {
			months[i].PrecipDays = body.Monthly.PrecipDays[i]
		}
		if i < len(body.Monthly.PrecipSum) {
			months[i].PrecipSumMM = body.Monthly.PrecipSum[i]
		}
	}

	s.mu.Lock()
	s.cache[key] = months
	s.mu.Unlock()
	return months, nil
}

// MonthsInRange lists the distinct calendar months a trip window touches, in
// chronological order of first occurrence.
func MonthsInRange(start, end time.Time) []time.Month {
	var out []time.Month
	seen := map[time.Month]bool{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if m := d.Month(); !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
		if len(out) == 12 {
			break
		}
	}
	return out
}

// BuildContext renders a short climate summary for the months the trip spans.
func BuildClimateContext(destination, countryCode string, normals [12]MonthlyClimate, start, end time.Time) string {
	const maxLines = 3
	months := MonthsInRange(start, end)
	if len(months) == 0 {
		return ""
	}

	var lines []string
	for _, m := range months {
		n := normals[int(m)-1]
		lines = append(lines, fmt.Sprintf("%s: avg high %d°C / avg low %d°C, ~%d days of rain, %d mm total precip",
			m.String(), round(n.TmaxC), round(n.TminC), round(n.PrecipDays), round(n.PrecipSumMM)))
	}
	extra := 0
	if len(lines) > maxLines {
		extra = len(lines) - maxLines
		lines = lines[:maxLines]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Seasonal climate for %s (%s):", destination, countryCode)
	for _, ln := range lines {
		b.WriteString("\n" + ln)
	}
	if extra > 0 {
		fmt.Fprintf(&b, "\n...and %d more month note(s)", extra)
	}
	return b.String()
}

// MonthlyMapForRange gives the parser a month-indexed subset of the normals
// for weather annotation on day plans.
func MonthlyMapForRange(normals [12]MonthlyClimate, start, end time.Time) map[time.Month]MonthlyClimate {
	out := make(map[time.Month]MonthlyClimate)
	for _, m := range MonthsInRange(start, end) {
		out[m] = normals[int(m)-1]
	}
	return out
}

func round(v float64) int { return int(math.Round(v)) }
