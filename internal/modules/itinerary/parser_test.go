// README: Provider output parser tests (fail-closed, normalization, padding).
package itinerary

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/internal/planctx"
)

func testRequest(days int) *Request {
	start := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
	return &Request{
		Destination:        "Tokyo",
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, days-1),
		DurationDays:       days,
		Interests:          []string{"food", "temples"},
		TravelersCount:     2,
		BudgetLevel:        BudgetModerate,
		Pace:               PaceBalanced,
		PreferredTransport: []string{"walk", "public_transit"},
	}
}

const twoDayPayload = `{
  "destination": "Tokyo",
  "currency": "JPY",
  "timezone": "Asia/Tokyo",
  "daily_plan": [
    {
      "day_index": 1,
      "date": "2024-12-15",
      "summary": "Asakusa and Ueno",
      "activities": [
        {"title": "Senso-ji Temple", "category": "landmark", "start_time": "09:00",
         "estimated_cost": {"amount": 0, "currency": "JPY"}},
        {"title": "Ramen lunch", "category": "food",
         "estimated_cost": {"amount_min": 900, "amount_max": 1500}}
      ],
      "notes": ["Arrive early to beat the crowds"]
    },
    {
      "day_index": 2,
      "date": "2024-12-16",
      "summary": "Shibuya",
      "activities": [
        {"title": "Shibuya Crossing", "category": "sightseeing", "start_time": "24:30", "end_time": "tbd"}
      ]
    }
  ]
}`

func TestParseResultTwoDays(t *testing.T) {
	req := testRequest(2)
	it, err := ParseResult(req, twoDayPayload, "JPY", nil)
	require.NoError(t, err)

	assert.Equal(t, "Tokyo", it.Destination)
	assert.Equal(t, "2024-12-15", it.StartDate)
	assert.Equal(t, "2024-12-16", it.EndDate)
	assert.Equal(t, 2, it.TotalDays)
	assert.Equal(t, "JPY", it.Currency)
	assert.Equal(t, "Asia/Tokyo", it.Timezone)
	require.Len(t, it.DailyPlan, 2)

	d1 := it.DailyPlan[0]
	assert.Equal(t, 1, d1.DayIndex)
	assert.Equal(t, "2024-12-15", d1.Date)
	require.Len(t, d1.Activities, 2)

	// simple amount collapses to min == max
	cost := d1.Activities[0].EstimatedCost
	require.NotNil(t, cost)
	assert.Equal(t, 0.0, *cost.AmountMin)
	assert.Equal(t, 0.0, *cost.AmountMax)

	// missing cost currency defaults to the local one
	cost = d1.Activities[1].EstimatedCost
	require.NotNil(t, cost)
	assert.Equal(t, "JPY", cost.Currency)
	assert.Equal(t, 900.0, *cost.AmountMin)
	assert.Equal(t, 1500.0, *cost.AmountMax)

	// time repairs
	d2 := it.DailyPlan[1]
	assert.Equal(t, "23:59", d2.Activities[0].StartTime)
	assert.Equal(t, "", d2.Activities[0].EndTime)
}

func TestParseResultStripsCodeFences(t *testing.T) {
	req := testRequest(2)
	fenced := "```json\n" + twoDayPayload + "\n```"
	it, err := ParseResult(req, fenced, "JPY", nil)
	require.NoError(t, err)
	assert.Len(t, it.DailyPlan, 2)
}

func TestParseResultUnwrapsRootKey(t *testing.T) {
	req := testRequest(1)
	for _, key := range []string{"itinerary", "plan", "data", "result"} {
		wrapped := `{"` + key + `": {"daily_plan": [{"date": "2024-12-15", "activities": [{"title": "Walk"}]}]}}`
		it, err := ParseResult(req, wrapped, "JPY", nil)
		require.NoError(t, err, key)
		require.Len(t, it.DailyPlan, 1, key)
		assert.Equal(t, "Walk", it.DailyPlan[0].Activities[0].Title)
	}
}

func TestParseResultFailClosed(t *testing.T) {
	req := testRequest(2)
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "I cannot help with that."},
		{"root is a list", `[{"date": "2024-12-15"}]`},
		{"root is a scalar", `"plan"`},
		{"no day entries", `{"daily_plan": []}`},
		{"days not a list", `{"daily_plan": {"day": 1}}`},
		{"non-chronological dates", `{"daily_plan": [
			{"date": "2024-12-16", "activities": [{"title": "A"}]},
			{"date": "2024-12-15", "activities": [{"title": "B"}]}
		]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it, err := ParseResult(req, tc.raw, "JPY", nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse), "want ErrParse, got %v", err)
			assert.Nil(t, it, "fail-closed means no partial result")
		})
	}
}

func TestParseResultPadsShortOutput(t *testing.T) {
	req := testRequest(3)
	short := `{"daily_plan": [{"date": "2024-12-15", "activities": [{"title": "Market"}]}]}`
	it, err := ParseResult(req, short, "JPY", nil)
	require.NoError(t, err)
	require.Len(t, it.DailyPlan, 3)
	assert.Equal(t, "2024-12-16", it.DailyPlan[1].Date)
	assert.Equal(t, "2024-12-17", it.DailyPlan[2].Date)
	assert.Empty(t, it.DailyPlan[2].Activities)
	assert.Equal(t, 3, it.DailyPlan[2].DayIndex)
}

func TestParseResultTruncatesLongOutput(t *testing.T) {
	req := testRequest(1)
	long := `{"daily_plan": [
		{"date": "2024-12-15", "activities": [{"title": "A"}]},
		{"date": "2024-12-16", "activities": [{"title": "B"}]},
		{"date": "2024-12-17", "activities": [{"title": "C"}]}
	]}`
	it, err := ParseResult(req, long, "JPY", nil)
	require.NoError(t, err)
	require.Len(t, it.DailyPlan, 1)
	assert.Equal(t, "A", it.DailyPlan[0].Activities[0].Title)
}

func TestParseResultDropsTitlelessActivities(t *testing.T) {
	req := testRequest(1)
	raw := `{"daily_plan": [{"date": "2024-12-15", "activities": [
		{"title": "Good one"},
		{"category": "food"},
		"not an object"
	]}]}`
	it, err := ParseResult(req, raw, "JPY", nil)
	require.NoError(t, err)
	require.Len(t, it.DailyPlan[0].Activities, 1)
	assert.Equal(t, "Good one", it.DailyPlan[0].Activities[0].Title)
}

func TestParseResultClampsUnknownCategory(t *testing.T) {
	req := testRequest(1)
	raw := `{"daily_plan": [{"date": "2024-12-15", "activities": [
		{"title": "Tea ceremony", "category": "cultural-immersion"},
		{"title": "Ramen lunch", "category": "Food"},
		{"title": "No category"}
	]}]}`
	it, err := ParseResult(req, raw, "JPY", nil)
	require.NoError(t, err)
	acts := it.DailyPlan[0].Activities
	require.Len(t, acts, 3)
	assert.Equal(t, "sightseeing", acts[0].Category)
	assert.Equal(t, "food", acts[1].Category)
	assert.Equal(t, "sightseeing", acts[2].Category)
}

func TestParseResultMissingDatesComputed(t *testing.T) {
	req := testRequest(2)
	raw := `{"daily_plan": [
		{"activities": [{"title": "A"}]},
		{"activities": [{"title": "B"}]}
	]}`
	it, err := ParseResult(req, raw, "JPY", nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-15", it.DailyPlan[0].Date)
	assert.Equal(t, "2024-12-16", it.DailyPlan[1].Date)
}

func TestParseResultInvalidCurrencyFallsBack(t *testing.T) {
	req := testRequest(1)
	raw := `{"currency": "yen!", "daily_plan": [{"activities": [{"title": "A"}]}]}`
	it, err := ParseResult(req, raw, "JPY", nil)
	require.NoError(t, err)
	assert.Equal(t, "JPY", it.Currency)
}

func TestParseResultInjectsWeather(t *testing.T) {
	req := testRequest(2)
	climate := map[time.Month]planctx.MonthlyClimate{
		time.December: {Month: time.December, TmaxC: 12, TminC: 5, PrecipDays: 8, PrecipSumMM: 45},
	}
	raw := `{"daily_plan": [
		{"date": "2024-12-15", "activities": [{"title": "A"}]},
		{"date": "2024-12-16", "activities": [{"title": "B"}]}
	]}`
	it, err := ParseResult(req, raw, "JPY", climate)
	require.NoError(t, err)

	d := it.DailyPlan[0]
	require.NotNil(t, d.Weather)
	assert.Equal(t, "Seasonal averages for December", d.Weather.Summary)
	assert.Equal(t, 12.0, *d.Weather.HighC)
	assert.Equal(t, 5.0, *d.Weather.LowC)
	require.NotNil(t, d.Weather.PrecipChance)
	assert.InDelta(t, 8.0/31.0, *d.Weather.PrecipChance, 0.001)

	foundTip := false
	for _, n := range d.Notes {
		if len(n) >= 11 && n[:11] == "Weather tip" {
			foundTip = true
		}
	}
	assert.True(t, foundTip, "weather tip note missing: %v", d.Notes)
}

func TestParseResultKeepsModelWeather(t *testing.T) {
	req := testRequest(1)
	climate := map[time.Month]planctx.MonthlyClimate{
		time.December: {Month: time.December, TmaxC: 12, TminC: 5, PrecipDays: 8},
	}
	raw := `{"daily_plan": [{"date": "2024-12-15",
		"weather": {"summary": "crisp and clear", "high_c": 10},
		"notes": ["Weather tip (December): bundle up."],
		"activities": [{"title": "A"}]}]}`
	it, err := ParseResult(req, raw, "JPY", climate)
	require.NoError(t, err)
	d := it.DailyPlan[0]
	assert.Equal(t, "crisp and clear", d.Weather.Summary)
	require.Len(t, d.Notes, 1)
}
