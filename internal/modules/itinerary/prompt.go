// README: Deterministic prompt assembly for the itinerary model call.
package itinerary

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert global travel planner.

Return strictly VALID JSON.
IMPORTANT:
- The JSON ROOT MUST be the itinerary object (no wrapper keys).
- Include every field (fill optional ones with null or empty arrays/objects).
- No markdown, no prose. JSON only.
- Return all activity estimated_cost values in the LOCAL CURRENCY for the destination.
- Set the itinerary 'currency' field to that local ISO code (e.g., JPY for Tokyo, GBP for London, USD for New York).

Tone & personalization:
- Write day 'summary' and 'tips' in second person ("you"), and reflect the user's stated interests explicitly.
- Avoid generic phrases; mention the actual neighborhood, venue, or interest.

Planning rules:
- Build realistic, logistically sound day plans; cluster nearby sights; sensible travel times.
- Include at least 3 activities per day with at least one food/coffee stop.
- Use CALENDAR CONTEXT to adjust openings/closures and crowds.
- Use SEASONAL CLIMATE CONTEXT to add one 'Weather tip (Month): ...' line in each day's notes (do NOT invent a forecast).
- Costs: for each activity, include 'estimated_cost' with either {amount} OR {amount_min, amount_max} in LOCAL currency.
- Public transport: respect preferred_transport. If 'public_transit' is allowed, add a short, stable route hint in 'travel_from_prev.notes'. Avoid live schedules; keep it coarse but useful.`

// BuildPrompt assembles the full model prompt from a validated request and
// optional context blocks. Output is deterministic for a given input; the
// context blocks arrive pre-screened by the orchestrator.
func BuildPrompt(req *Request, calendarNotes, climateNotes string) string {
	blocks := []string{
		systemPrompt,
		"",
		"Create a day-by-day itinerary with activities and logistics.",
	}
	if req.MaxDailyBudget > 0 && req.HomeCurrency != "" {
		blocks = append(blocks, fmt.Sprintf(
			"The traveler's approximate daily budget is ~%d %s. Treat this as a guideline for choosing activities (do not solve an exact equation).",
			req.MaxDailyBudget, req.HomeCurrency))
	}
	interests := "none"
	if len(req.Interests) > 0 {
		interests = strings.Join(req.Interests, ", ")
	}
	blocks = append(blocks,
		"destination: "+req.Destination,
		"start_date: "+req.StartDate.Format("2006-01-02"),
		"end_date: "+req.EndDate.Format("2006-01-02"),
		fmt.Sprintf("duration_days: %d", req.DurationDays),
		"interests: "+interests,
		fmt.Sprintf("travelers_count: %d", req.TravelersCount),
		"budget_level: "+req.BudgetLevel,
		"pace: "+req.Pace,
		"preferred_transport: "+strings.Join(req.PreferredTransport, ", "),
	)
	if req.Notes != "" {
		blocks = append(blocks, "traveler notes: "+req.Notes)
	}
	blocks = append(blocks,
		"Constraints:",
		"- Keep transitions time-realistic across morning/afternoon/evening.",
		"- Leave booking fields null unless reasonably certain.",
		"- Use 'estimated_cost' per activity (either amount OR min/max) in LOCAL currency.",
		"- Add public-transit hints in travel_from_prev.notes when appropriate.",
		"- Add one 'Weather tip (Month): ...' line in each day's notes based on climate, not forecast.",
	)
	if calendarNotes != "" {
		blocks = append(blocks, "\nCALENDAR CONTEXT:\n"+calendarNotes)
	}
	if climateNotes != "" {
		blocks = append(blocks, "\nSEASONAL CLIMATE CONTEXT:\n"+climateNotes)
	}
	return strings.Join(blocks, "\n")
}

// localCurrencyFor maps a destination country to the ISO code activities are
// priced in. Unknown countries fall back to USD.
func localCurrencyFor(countryCode string) string {
	if c, ok := countryCurrency[strings.ToUpper(countryCode)]; ok {
		return c
	}
	return "USD"
}

var countryCurrency = map[string]string{
	"GB": "GBP", "IE": "EUR", "FR": "EUR", "PT": "EUR", "ES": "EUR", "DE": "EUR",
	"IT": "EUR", "NL": "EUR", "BE": "EUR", "AT": "EUR", "CH": "CHF", "DK": "DKK",
	"SE": "SEK", "NO": "NOK", "PL": "PLN", "CZ": "CZK", "HU": "HUF", "GR": "EUR",
	"FI": "EUR", "IS": "ISK", "TR": "TRY", "HR": "EUR", "RO": "RON", "BG": "BGN",
	"US": "USD", "CA": "CAD", "MX": "MXN", "BR": "BRL", "AR": "ARS", "CL": "CLP",
	"PE": "PEN", "CO": "COP", "CN": "CNY", "JP": "JPY", "KR": "KRW", "IN": "INR",
	"TH": "THB", "VN": "VND", "PH": "PHP", "ID": "IDR", "MY": "MYR", "SG": "SGD",
	"HK": "HKD", "TW": "TWD", "AE": "AED", "SA": "SAR", "QA": "QAR", "IL": "ILS",
	"EG": "EGP", "MA": "MAD", "TN": "TND", "KE": "KES", "TZ": "TZS", "ZA": "ZAR",
	"AU": "AUD", "NZ": "NZD", "FJ": "FJD",
}
