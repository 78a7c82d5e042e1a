// README: Defensive parsing of provider output into the itinerary shape.
package itinerary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"atlas/internal/planctx"
)

// ErrParse marks provider output that could not be mapped to the itinerary
// shape. Parsing fails closed: a wrapped ErrParse, never a partial result.
var ErrParse = errors.New("itinerary parse failed")

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

// ParseResult maps raw provider text onto an Itinerary for the given request.
// The result always has exactly req.DurationDays chronological day entries;
// anything unrecoverable returns a wrapped ErrParse.
func ParseResult(req *Request, raw, localCurrency string, climate map[time.Month]planctx.MonthlyClimate) (*Itinerary, error) {
	body := cleanJSONString(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrParse)
	}
	var root interface{}
	if err := json.Unmarshal([]byte(body), &root); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", ErrParse, err)
	}

	candidate, ok := unwrapRoot(root).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: root is not an object", ErrParse)
	}

	rawDays := dayList(candidate)
	days, err := buildDays(req, rawDays, localCurrency)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: no usable day entries", ErrParse)
	}

	// The request span is authoritative. Short output is padded with empty
	// days, long output truncated; either way the client sees exactly the
	// window it asked for.
	for len(days) < req.DurationDays {
		i := len(days)
		days = append(days, DayPlan{
			DayIndex:   i + 1,
			Date:       req.StartDate.AddDate(0, 0, i).Format("2006-01-02"),
			Activities: []Activity{},
			Notes:      []string{},
		})
	}
	if len(days) > req.DurationDays {
		days = days[:req.DurationDays]
	}

	injectWeather(days, climate)

	currency := strings.ToUpper(stringField(candidate, "currency"))
	if !currencyRe.MatchString(currency) {
		currency = localCurrency
	}
	tz := stringField(candidate, "timezone")
	if tz == "" {
		tz = "GMT"
	}
	dest := stringField(candidate, "destination")
	if dest == "" {
		dest = req.Destination
	}

	return &Itinerary{
		Destination:    dest,
		StartDate:      req.StartDate.Format("2006-01-02"),
		EndDate:        req.EndDate.Format("2006-01-02"),
		TotalDays:      req.DurationDays,
		Timezone:       tz,
		Currency:       currency,
		TravelersCount: req.TravelersCount,
		Interests:      req.Interests,
		DailyPlan:      days,
		Logistics:      parseLogistics(candidate["logistics"]),
		Meta:           Meta{SchemaVersion: "1.0.0", Generator: "atlas@1"},
	}, nil
}

// unwrapRoot peels a single wrapper key some models insist on adding.
func unwrapRoot(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) != 1 {
		return v
	}
	for _, k := range []string{"itinerary", "plan", "data", "result"} {
		if inner, ok := m[k]; ok {
			return inner
		}
	}
	return v
}

func dayList(candidate map[string]interface{}) []interface{} {
	if l, ok := candidate["daily_plan"].([]interface{}); ok {
		return l
	}
	if l, ok := candidate["itinerary"].([]interface{}); ok {
		return l
	}
	return nil
}

func buildDays(req *Request, rawDays []interface{}, localCurrency string) ([]DayPlan, error) {
	var days []DayPlan
	var prevProvided time.Time
	for i, rd := range rawDays {
		dm, ok := rd.(map[string]interface{})
		if !ok {
			continue
		}
		idx := len(days) + 1
		if n, ok := numField(dm, "day_index"); ok && int(n) >= 1 {
			idx = int(n)
		}
		date := req.StartDate.AddDate(0, 0, len(days)).Format("2006-01-02")
		if ds := stringField(dm, "date"); ds != "" {
			dt, err := time.Parse("2006-01-02", ds)
			if err == nil {
				if !prevProvided.IsZero() && !dt.After(prevProvided) {
					return nil, fmt.Errorf("%w: day %d breaks chronological order", ErrParse, i+1)
				}
				prevProvided = dt
				date = ds
			}
		}
		acts := dm["activities"]
		if acts == nil {
			acts = dm["plans"]
		}
		days = append(days, DayPlan{
			DayIndex:   idx,
			Date:       date,
			Summary:    stringField(dm, "summary"),
			Weather:    parseWeather(dm["weather"]),
			Activities: parseActivities(acts, localCurrency),
			Notes:      stringList(dm["notes"]),
		})
	}
	return days, nil
}

func parseActivities(v interface{}, localCurrency string) []Activity {
	list, ok := v.([]interface{})
	if !ok {
		return []Activity{}
	}
	out := make([]Activity, 0, len(list))
	for _, item := range list {
		am, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		title := stringField(am, "title")
		if title == "" {
			continue
		}
		category := normalizeCategory(stringField(am, "category"))
		cost := am["estimated_cost"]
		if cost == nil {
			cost = am["cost"]
		}
		out = append(out, Activity{
			Title:          title,
			Category:       category,
			StartTime:      fixTime(stringField(am, "start_time")),
			EndTime:        fixTime(stringField(am, "end_time")),
			Place:          parsePlace(am["place"]),
			Description:    stringField(am, "description"),
			Booking:        parseBooking(am["booking"], localCurrency),
			EstimatedCost:  parseCost(cost, localCurrency),
			TravelFromPrev: parseTravelLeg(am["travel_from_prev"]),
			Tags:           stringList(am["tags"]),
			Tips:           stringList(am["tips"]),
		})
	}
	return out
}

var activityCategories = map[string]bool{
	"sightseeing": true, "museum": true, "landmark": true, "food": true,
	"coffee": true, "bar": true, "nightlife": true, "shopping": true,
	"nature": true, "beach": true, "hike": true, "experience": true,
	"transport": true, "hotel": true, "break": true,
}

// normalizeCategory clamps model output to the fixed activity vocabulary.
// Anything unknown, including empty, becomes "sightseeing".
func normalizeCategory(s string) string {
	c := strings.ToLower(strings.TrimSpace(s))
	if !activityCategories[c] {
		return "sightseeing"
	}
	return c
}

// fixTime repairs the time strings models commonly emit: placeholder words
// become empty, "24:xx" wraps to "23:59".
func fixTime(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "", "tbd", "unknown", "n/a":
		return ""
	}
	if strings.HasPrefix(t, "24:") {
		return "23:59"
	}
	return strings.TrimSpace(s)
}

// parseCost accepts either {amount} or {amount_min, amount_max} and folds
// both into the range shape.
func parseCost(v interface{}, localCurrency string) *MoneyEstimate {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	currency := strings.ToUpper(stringField(m, "currency"))
	if !currencyRe.MatchString(currency) {
		currency = localCurrency
	}
	est := &MoneyEstimate{Currency: currency, Notes: stringField(m, "notes")}
	if n, ok := numField(m, "amount"); ok {
		amt := clampNonNegative(n)
		est.AmountMin = &amt
		est.AmountMax = &amt
		return est
	}
	if n, ok := numField(m, "amount_min"); ok {
		lo := clampNonNegative(n)
		est.AmountMin = &lo
	}
	if n, ok := numField(m, "amount_max"); ok {
		hi := clampNonNegative(n)
		est.AmountMax = &hi
	}
	return est
}

func parseWeather(v interface{}) *WeatherSummary {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	w := &WeatherSummary{Summary: stringField(m, "summary")}
	if n, ok := numField(m, "high_c"); ok {
		w.HighC = &n
	}
	if n, ok := numField(m, "low_c"); ok {
		w.LowC = &n
	}
	if n, ok := numField(m, "precip_chance"); ok && n >= 0 && n <= 1 {
		w.PrecipChance = &n
	}
	return w
}

func parsePlace(v interface{}) *Place {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	name := stringField(m, "name")
	if name == "" {
		return nil
	}
	p := &Place{
		Name:         name,
		Address:      stringField(m, "address"),
		Neighborhood: stringField(m, "neighborhood"),
		MapsURL:      stringField(m, "google_maps_url"),
		Website:      stringField(m, "website"),
	}
	if cm, ok := m["coordinates"].(map[string]interface{}); ok {
		lat, okLat := numField(cm, "lat")
		lng, okLng := numField(cm, "lng")
		if okLat && okLng && lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 {
			p.Coordinates = &Coordinates{Lat: lat, Lng: lng}
		}
	}
	return p
}

func parseBooking(v interface{}, localCurrency string) *BookingInfo {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	b := &BookingInfo{
		RecommendedTimeframe: stringField(m, "recommended_timeframe"),
		URL:                  stringField(m, "url"),
		Cost:                 parseCost(m["cost"], localCurrency),
	}
	if req, ok := m["required"].(bool); ok {
		b.Required = req
	}
	return b
}

func parseTravelLeg(v interface{}) *TravelLeg {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	mode := stringField(m, "mode")
	if mode == "" {
		return nil
	}
	leg := &TravelLeg{
		Mode:      mode,
		FromPlace: parsePlace(m["from_place"]),
		ToPlace:   parsePlace(m["to_place"]),
		Notes:     stringField(m, "notes"),
	}
	if n, ok := numField(m, "distance_km"); ok && n >= 0 {
		leg.DistanceKM = n
	}
	if n, ok := numField(m, "duration_minutes"); ok && n >= 0 {
		leg.DurationMinutes = int(n)
	}
	return leg
}

func parseLogistics(v interface{}) *Logistics {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	l := &Logistics{
		Arrival:         parseTravelLeg(m["arrival"]),
		Departure:       parseTravelLeg(m["departure"]),
		TransitTips:     stringList(m["transit_tips"]),
		SafetyEtiquette: stringList(m["safety_etiquette"]),
	}
	if l.Arrival == nil && l.Departure == nil && len(l.TransitTips) == 0 && len(l.SafetyEtiquette) == 0 {
		return nil
	}
	return l
}

// injectWeather fills day weather and a weather tip from climate normals
// when the model left them out. Normals only; never phrased as a forecast.
func injectWeather(days []DayPlan, climate map[time.Month]planctx.MonthlyClimate) {
	if len(climate) == 0 {
		return
	}
	for i := range days {
		d := &days[i]
		dt, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		mc, ok := climate[dt.Month()]
		if !ok {
			continue
		}
		monthName := dt.Month().String()

		if d.Weather == nil {
			hi, lo := mc.TmaxC, mc.TminC
			chance := mc.PrecipDays / float64(daysInMonth(dt.Year(), dt.Month()))
			if chance > 1 {
				chance = 1
			}
			d.Weather = &WeatherSummary{
				Summary:      "Seasonal averages for " + monthName,
				HighC:        &hi,
				LowC:         &lo,
				PrecipChance: &chance,
			}
		}

		hasTip := false
		for _, n := range d.Notes {
			if strings.HasPrefix(strings.ToLower(n), "weather tip") {
				hasTip = true
				break
			}
		}
		if !hasTip {
			hint := "bring a light layer for evenings"
			if mc.PrecipDays >= 5 {
				hint = "pack light layers and a compact umbrella"
			}
			d.Notes = append(d.Notes, fmt.Sprintf("Weather tip (%s): avg %d°C/%d°C, ~%d rainy day(s), %s.",
				monthName, round(mc.TmaxC), round(mc.TminC), round(mc.PrecipDays), hint))
		}
	}
}

func daysInMonth(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func round(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

func clampNonNegative(n float64) float64 {
	if n < 0 {
		return 0
	}
	return n
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func numField(m map[string]interface{}, key string) (float64, bool) {
	n, ok := m[key].(float64)
	return n, ok
}

func stringList(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
