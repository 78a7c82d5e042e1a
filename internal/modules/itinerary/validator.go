// README: Request validation: structural checks plus per-field security policy.
package itinerary

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"atlas/internal/security"
)

const (
	maxDestinationLen = 100
	maxInterestLen    = 50
	maxInterests      = 20
	maxNotesLen       = 500
	maxDurationDays   = 30
	maxTravelers      = 12
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

var budgetLevels = map[string]bool{
	BudgetShoestring: true, BudgetModerate: true, BudgetComfortable: true, BudgetLuxury: true,
}

var paces = map[string]bool{
	PaceRelaxed: true, PaceBalanced: true, PacePacked: true,
}

var transportModes = map[string]bool{
	"walk": true, "public_transit": true, "car": true,
	"train": true, "bike": true, "rideshare": true,
}

// Per-field screening policy. A rejecting field fails the whole request on
// any injection match; a stripping field has matched spans removed and the
// remainder kept. The policy is part of the contract for each field and must
// not be applied globally.
type fieldAction int

const (
	actionReject fieldAction = iota
	actionStrip
)

type fieldPolicy struct {
	maxLen int
	action fieldAction
}

var fieldPolicies = map[string]fieldPolicy{
	"destination": {maxLen: maxDestinationLen, action: actionReject},
	"interests":   {maxLen: maxInterestLen, action: actionStrip},
	"notes":       {maxLen: maxNotesLen, action: actionStrip},
}

func structural(field, format string, args ...interface{}) *Rejection {
	return &Rejection{Class: RejectStructural, Field: field, Message: fmt.Sprintf(format, args...)}
}

func securityReject(field string, patterns []string) *Rejection {
	return &Rejection{
		Class:      RejectSecurity,
		Field:      field,
		Message:    "input failed security screening",
		PatternIDs: patterns,
	}
}

// screen applies the injection catalog to one field value and sanitizes the
// survivor. Scanning runs on the normalized raw text, not the escaped form:
// escaping first would turn "&#105;" into "&amp;#105;" and defeat the
// decode-then-match normalization. Returns the cleaned value, the matched
// pattern ids (for server-side logging) and a rejection when the policy
// demands one.
func screen(field, value string) (string, []string, *Rejection) {
	pol, ok := fieldPolicies[field]
	if !ok {
		pol = fieldPolicy{maxLen: maxNotesLen, action: actionReject}
	}
	raw := security.Normalize(value)
	if raw == "" {
		return "", nil, nil
	}
	if security.ScanEncoded(raw) {
		return "", []string{"encoded_payload"}, securityReject(field, []string{"encoded_payload"})
	}
	matches := security.Scan(raw)
	if len(matches) == 0 {
		return security.Sanitize(value, pol.maxLen), nil, nil
	}
	if pol.action == actionReject {
		return "", matches, securityReject(field, matches)
	}
	stripped, _ := security.StripMatches(raw)
	if stripped == "" {
		// The payload was only reachable through a decoded variant or is
		// woven through the field; drop the whole value rather than ship a
		// partial strip.
		return "", matches, nil
	}
	return security.Sanitize(stripped, pol.maxLen), matches, nil
}

// Validate turns an untrusted RawRequest into an immutable Request, or
// reports the first rejection. Structural checks run before security
// screening so attackers learn nothing about the catalog from malformed
// payloads. The returned pattern ids are for the caller to log; they are
// never echoed to clients.
func Validate(raw *RawRequest) (*Request, []string, *Rejection) {
	var patternLog []string

	if strings.TrimSpace(raw.Destination) == "" {
		return nil, nil, structural("destination", "destination is required")
	}
	if raw.StartDate == "" {
		return nil, nil, structural("start_date", "start_date is required")
	}
	start, err := time.Parse("2006-01-02", raw.StartDate)
	if err != nil {
		return nil, nil, structural("start_date", "start_date must be YYYY-MM-DD")
	}

	var end time.Time
	duration := 0
	if raw.EndDate != "" {
		end, err = time.Parse("2006-01-02", raw.EndDate)
		if err != nil {
			return nil, nil, structural("end_date", "end_date must be YYYY-MM-DD")
		}
		if end.Before(start) {
			return nil, nil, structural("end_date", "end_date cannot be before start_date")
		}
		duration = int(end.Sub(start).Hours()/24) + 1
	}
	if raw.DurationDays != nil {
		if *raw.DurationDays < 1 || *raw.DurationDays > maxDurationDays {
			return nil, nil, structural("duration_days", "duration_days must be between 1 and %d", maxDurationDays)
		}
		if duration != 0 && duration != *raw.DurationDays {
			return nil, nil, structural("duration_days", "end_date implies %d days but duration_days=%d", duration, *raw.DurationDays)
		}
		duration = *raw.DurationDays
	}
	if duration == 0 {
		return nil, nil, structural("duration_days", "provide either end_date or duration_days")
	}
	if duration > maxDurationDays {
		return nil, nil, structural("end_date", "trip length must not exceed %d days", maxDurationDays)
	}
	if end.IsZero() {
		end = start.AddDate(0, 0, duration-1)
	}

	travelers := 1
	if raw.TravelersCount != nil {
		if *raw.TravelersCount < 1 || *raw.TravelersCount > maxTravelers {
			return nil, nil, structural("travelers_count", "travelers_count must be between 1 and %d", maxTravelers)
		}
		travelers = *raw.TravelersCount
	}

	budget := BudgetModerate
	if raw.BudgetLevel != "" {
		if !budgetLevels[raw.BudgetLevel] {
			return nil, nil, structural("budget_level", "unknown budget_level %q", raw.BudgetLevel)
		}
		budget = raw.BudgetLevel
	}

	pace := PaceBalanced
	if raw.Pace != "" {
		if !paces[raw.Pace] {
			return nil, nil, structural("pace", "unknown pace %q", raw.Pace)
		}
		pace = raw.Pace
	}

	transport := raw.PreferredTransport
	if len(transport) == 0 {
		transport = []string{"walk", "public_transit"}
	}
	for _, t := range transport {
		if !transportModes[t] {
			return nil, nil, structural("preferred_transport", "unknown transport mode %q", t)
		}
	}

	maxBudget := 0
	if raw.MaxDailyBudget != nil {
		if *raw.MaxDailyBudget < 0 {
			return nil, nil, structural("max_daily_budget", "max_daily_budget must not be negative")
		}
		maxBudget = *raw.MaxDailyBudget
	}
	homeCurrency := ""
	if raw.HomeCurrency != "" {
		if !currencyRe.MatchString(raw.HomeCurrency) {
			return nil, nil, structural("home_currency", "home_currency must be a 3-letter ISO code")
		}
		homeCurrency = raw.HomeCurrency
	}
	if len(raw.Interests) > maxInterests {
		return nil, nil, structural("interests", "at most %d interests allowed", maxInterests)
	}

	dest, hits, rej := screen("destination", raw.Destination)
	patternLog = append(patternLog, hits...)
	if rej != nil {
		return nil, patternLog, rej
	}
	if rej := checkDestinationShape(dest); rej != nil {
		return nil, patternLog, rej
	}

	interests := make([]string, 0, len(raw.Interests))
	for _, in := range raw.Interests {
		clean, hits, rej := screen("interests", in)
		patternLog = append(patternLog, hits...)
		if rej != nil {
			return nil, patternLog, rej
		}
		if clean != "" {
			interests = append(interests, clean)
		}
	}

	notes, hits, rej := screen("notes", raw.Notes)
	patternLog = append(patternLog, hits...)
	if rej != nil {
		return nil, patternLog, rej
	}

	return &Request{
		Destination:        dest,
		StartDate:          start,
		EndDate:            end,
		DurationDays:       duration,
		Interests:          interests,
		Notes:              notes,
		TravelersCount:     travelers,
		BudgetLevel:        budget,
		Pace:               pace,
		PreferredTransport: transport,
		MaxDailyBudget:     maxBudget,
		HomeCurrency:       homeCurrency,
	}, patternLog, nil
}

// checkDestinationShape enforces that the destination still looks like a
// place name after sanitization: at least one letter, no more than ten words.
func checkDestinationShape(dest string) *Rejection {
	if dest == "" {
		return structural("destination", "destination is required")
	}
	hasLetter := false
	for _, r := range dest {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return structural("destination", "destination must contain letters")
	}
	if len(strings.Fields(dest)) > 10 {
		return structural("destination", "destination is too long to be a place name")
	}
	return nil
}
