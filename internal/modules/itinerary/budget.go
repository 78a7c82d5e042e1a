// README: Per-day budget annotation in the traveler's home currency.
package itinerary

import (
	"context"
	"fmt"
	"math"
	"strings"

	"atlas/internal/planctx"
)

// AnnotateBudget prepends a budget summary note to every day, converting the
// local activity costs into the traveler's home currency and comparing them
// to the daily cap. No-op when the request carries no cap or home currency.
// Annotation is advisory; a failed rate lookup degrades to 1:1 inside the
// rate source rather than failing the itinerary.
func AnnotateBudget(ctx context.Context, it *Itinerary, homeCurrency string, maxDailyBudget int, rates planctx.RateSource) {
	if it == nil || homeCurrency == "" || maxDailyBudget <= 0 {
		return
	}
	localCcy := strings.ToUpper(it.Currency)
	homeCcy := strings.ToUpper(homeCurrency)
	rate := 1.0
	if localCcy != homeCcy {
		rate = rates.Rate(ctx, localCcy, homeCcy)
	}
	cap := float64(maxDailyBudget)

	for i := range it.DailyPlan {
		day := &it.DailyPlan[i]
		localSum := dayTotalLocal(day)
		homeSum := localSum * rate

		diff := cap - homeSum
		status := "UNDER"
		if diff < 0 {
			status = "OVER"
		}
		pct := 0.0
		if cap > 0 {
			pct = math.Abs(diff) / cap * 100
		}
		line := fmt.Sprintf("Budget (%s): %.2f / %d - %s by %.0f%%", homeCcy, homeSum, maxDailyBudget, status, pct)

		notes := make([]string, 0, len(day.Notes)+2)
		notes = append(notes, line)
		for _, n := range day.Notes {
			if strings.HasPrefix(strings.ToLower(n), "budget ") {
				continue
			}
			notes = append(notes, n)
		}
		switch status {
		case "OVER":
			notes = append(notes, "Budget suggestion: swap one paid attraction for a free viewpoint or park, or pick a casual eatery over fine dining.")
		case "UNDER":
			if pct >= 25 {
				notes = append(notes, "Budget suggestion: room for an upgrade such as a guided tour or a rooftop view.")
			}
		}
		day.Notes = notes
	}
}

// dayTotalLocal sums a day's activity costs in the itinerary's local
// currency, preferring the upper bound of each range. Booking costs count
// toward the total.
func dayTotalLocal(day *DayPlan) float64 {
	total := 0.0
	for _, act := range day.Activities {
		total += pickAmount(act.EstimatedCost)
		if act.Booking != nil {
			total += pickAmount(act.Booking.Cost)
		}
	}
	return total
}

func pickAmount(me *MoneyEstimate) float64 {
	if me == nil {
		return 0
	}
	if me.AmountMax != nil {
		return *me.AmountMax
	}
	if me.AmountMin != nil {
		return *me.AmountMin
	}
	return 0
}
