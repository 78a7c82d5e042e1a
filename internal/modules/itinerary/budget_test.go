// README: Budget annotation tests.
package itinerary

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRate float64

func (r fixedRate) Rate(_ context.Context, _, _ string) float64 { return float64(r) }

func fp(v float64) *float64 { return &v }

func testItinerary() *Itinerary {
	return &Itinerary{
		Destination: "Tokyo",
		Currency:    "JPY",
		TotalDays:   1,
		DailyPlan: []DayPlan{
			{
				DayIndex: 1,
				Date:     "2024-12-15",
				Activities: []Activity{
					{Title: "Temple", EstimatedCost: &MoneyEstimate{Currency: "JPY", AmountMin: fp(0), AmountMax: fp(0)}},
					{Title: "Ramen", EstimatedCost: &MoneyEstimate{Currency: "JPY", AmountMin: fp(900), AmountMax: fp(1500)}},
					{Title: "Museum", EstimatedCost: &MoneyEstimate{Currency: "JPY", AmountMin: fp(2000)},
						Booking: &BookingInfo{Cost: &MoneyEstimate{Currency: "JPY", AmountMax: fp(500)}}},
				},
				Notes: []string{"existing note"},
			},
		},
	}
}

func TestAnnotateBudgetUnder(t *testing.T) {
	it := testItinerary()
	// 1500 + 2000 + 500 = 4000 JPY; at 0.01 that is 40 USD against a 150 cap
	AnnotateBudget(context.Background(), it, "USD", 150, fixedRate(0.01))

	notes := it.DailyPlan[0].Notes
	require.NotEmpty(t, notes)
	assert.Equal(t, "Budget (USD): 40.00 / 150 - UNDER by 73%", notes[0])
	assert.Contains(t, notes, "existing note")
	// far under the cap, suggest an upgrade
	assert.True(t, strings.HasPrefix(notes[len(notes)-1], "Budget suggestion:"), "notes: %v", notes)
}

func TestAnnotateBudgetOver(t *testing.T) {
	it := testItinerary()
	AnnotateBudget(context.Background(), it, "USD", 20, fixedRate(0.01))

	notes := it.DailyPlan[0].Notes
	require.NotEmpty(t, notes)
	assert.Equal(t, "Budget (USD): 40.00 / 20 - OVER by 100%", notes[0])
	assert.True(t, strings.HasPrefix(notes[len(notes)-1], "Budget suggestion:"), "notes: %v", notes)
}

func TestAnnotateBudgetSameCurrencySkipsConversion(t *testing.T) {
	it := testItinerary()
	it.Currency = "USD"
	// rate source would corrupt the total if it were consulted
	AnnotateBudget(context.Background(), it, "USD", 5000, fixedRate(99))
	assert.Equal(t, "Budget (USD): 4000.00 / 5000 - UNDER by 20%", it.DailyPlan[0].Notes[0])
}

func TestAnnotateBudgetReplacesStaleLine(t *testing.T) {
	it := testItinerary()
	it.DailyPlan[0].Notes = []string{"Budget (USD): old line", "keep me"}
	AnnotateBudget(context.Background(), it, "USD", 150, fixedRate(0.01))

	notes := it.DailyPlan[0].Notes
	count := 0
	for _, n := range notes {
		if strings.HasPrefix(n, "Budget (") {
			count++
		}
	}
	assert.Equal(t, 1, count, "stale budget line must be replaced: %v", notes)
	assert.Contains(t, notes, "keep me")
}

func TestAnnotateBudgetNoOpWithoutCap(t *testing.T) {
	it := testItinerary()
	AnnotateBudget(context.Background(), it, "", 150, fixedRate(0.01))
	assert.Equal(t, []string{"existing note"}, it.DailyPlan[0].Notes)

	AnnotateBudget(context.Background(), it, "USD", 0, fixedRate(0.01))
	assert.Equal(t, []string{"existing note"}, it.DailyPlan[0].Notes)
}
