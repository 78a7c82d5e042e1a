// README: Request and itinerary data model for trip generation.
package itinerary

import (
	"time"
)

// Budget levels accepted on a request.
const (
	BudgetShoestring  = "shoestring"
	BudgetModerate    = "moderate"
	BudgetComfortable = "comfortable"
	BudgetLuxury      = "luxury"
)

// Trip pace options.
const (
	PaceRelaxed  = "relaxed"
	PaceBalanced = "balanced"
	PacePacked   = "packed"
)

// RawRequest is the untrusted wire shape of an itinerary request. Every
// string field is screened before it reaches a Request.
type RawRequest struct {
	Destination        string   `json:"destination"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date,omitempty"`
	DurationDays       *int     `json:"duration_days,omitempty"`
	Interests          []string `json:"interests,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	TravelersCount     *int     `json:"travelers_count,omitempty"`
	BudgetLevel        string   `json:"budget_level,omitempty"`
	Pace               string   `json:"pace,omitempty"`
	PreferredTransport []string `json:"preferred_transport,omitempty"`
	MaxDailyBudget     *int     `json:"max_daily_budget,omitempty"`
	HomeCurrency       string   `json:"home_currency,omitempty"`
}

// Request is a validated, sanitized itinerary request. Immutable after
// validation; the orchestrator only reads it.
type Request struct {
	Destination        string    `json:"destination"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	DurationDays       int       `json:"duration_days"`
	Interests          []string  `json:"interests"`
	Notes              string    `json:"notes,omitempty"`
	TravelersCount     int       `json:"travelers_count"`
	BudgetLevel        string    `json:"budget_level"`
	Pace               string    `json:"pace"`
	PreferredTransport []string  `json:"preferred_transport"`
	MaxDailyBudget     int       `json:"max_daily_budget,omitempty"`
	HomeCurrency       string    `json:"home_currency,omitempty"`
}

// Rejection classes reported to clients at admission time.
const (
	RejectStructural = "structural"
	RejectSecurity   = "security"
)

// Rejection is a synchronous admission failure. PatternIDs stay server-side;
// clients only ever see Class, Field and Message.
type Rejection struct {
	Class      string `json:"class"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
	PatternIDs []string `json:"-"`
}

func (r *Rejection) Error() string {
	return r.Class + " rejection on " + r.Field + ": " + r.Message
}

// MoneyEstimate is a cost range in a single currency. A provider "amount"
// collapses to min == max during parsing.
type MoneyEstimate struct {
	Currency  string   `json:"currency"`
	AmountMin *float64 `json:"amount_min,omitempty"`
	AmountMax *float64 `json:"amount_max,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Place struct {
	Name         string       `json:"name"`
	Address      string       `json:"address,omitempty"`
	Neighborhood string       `json:"neighborhood,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	MapsURL      string       `json:"google_maps_url,omitempty"`
	Website      string       `json:"website,omitempty"`
}

type BookingInfo struct {
	Required             bool           `json:"required"`
	RecommendedTimeframe string         `json:"recommended_timeframe,omitempty"`
	URL                  string         `json:"url,omitempty"`
	Cost                 *MoneyEstimate `json:"cost,omitempty"`
}

type TravelLeg struct {
	Mode            string  `json:"mode"`
	DistanceKM      float64 `json:"distance_km,omitempty"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	FromPlace       *Place  `json:"from_place,omitempty"`
	ToPlace         *Place  `json:"to_place,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

type WeatherSummary struct {
	Summary      string   `json:"summary,omitempty"`
	HighC        *float64 `json:"high_c,omitempty"`
	LowC         *float64 `json:"low_c,omitempty"`
	PrecipChance *float64 `json:"precip_chance,omitempty"`
}

// Activity is one block of a day plan. Title is the only required field;
// everything else is best-effort from the provider.
type Activity struct {
	Title          string         `json:"title"`
	Category       string         `json:"category"`
	StartTime      string         `json:"start_time,omitempty"`
	EndTime        string         `json:"end_time,omitempty"`
	Place          *Place         `json:"place,omitempty"`
	Description    string         `json:"description,omitempty"`
	Booking        *BookingInfo   `json:"booking,omitempty"`
	EstimatedCost  *MoneyEstimate `json:"estimated_cost,omitempty"`
	TravelFromPrev *TravelLeg     `json:"travel_from_prev,omitempty"`
	Tags           []string       `json:"tags"`
	Tips           []string       `json:"tips"`
}

type DayPlan struct {
	DayIndex   int             `json:"day_index"`
	Date       string          `json:"date"`
	Summary    string          `json:"summary,omitempty"`
	Weather    *WeatherSummary `json:"weather,omitempty"`
	Activities []Activity      `json:"activities"`
	Notes      []string        `json:"notes"`
}

type Logistics struct {
	Arrival         *TravelLeg `json:"arrival,omitempty"`
	Departure       *TravelLeg `json:"departure,omitempty"`
	TransitTips     []string   `json:"transit_tips,omitempty"`
	SafetyEtiquette []string   `json:"safety_etiquette,omitempty"`
}

type Meta struct {
	SchemaVersion  string `json:"schema_version"`
	GeneratedAtISO string `json:"generated_at_iso,omitempty"`
	Generator      string `json:"generator"`
}

// Itinerary is the structured generation result returned through the job API.
// Day ordering is chronological from StartDate; the parser guarantees exactly
// DurationDays entries.
type Itinerary struct {
	Destination    string     `json:"destination"`
	StartDate      string     `json:"start_date"`
	EndDate        string     `json:"end_date"`
	TotalDays      int        `json:"total_days"`
	Timezone       string     `json:"timezone,omitempty"`
	Currency       string     `json:"currency"`
	TravelersCount int        `json:"travelers_count,omitempty"`
	Interests      []string   `json:"interests"`
	DailyPlan      []DayPlan  `json:"daily_plan"`
	Logistics      *Logistics `json:"logistics,omitempty"`
	Meta           Meta       `json:"meta"`
}
