// Copyright (c) 2025 BVK Chaitanya

// Package scaled implements scaled order ladders: price ladders with
// selectable easing curves, weighted amount distributions that preserve the
// requested total across rounding, and a placer that turns the two into
// resting limit orders.
package scaled

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// Rounder adjusts a computed price or size to the exchange's increment
// rules. Rounding must be monotonic.
type Rounder func(decimal.Decimal) decimal.Decimal

// Amounts splits the total into count quantities. Each quantity starts with
// an equal weight, optionally perturbed by a uniform random fraction in
// [-jitter, +jitter]. Entries are carved off the remaining total in
// proportion to the remaining weights, so rounding error accumulates into
// the later entries instead of being dropped, and the outputs sum to the
// total within one rounding unit.
//
// With jitter zero the result is deterministic.
func Amounts(count int, total decimal.Decimal, jitter float64, round Rounder) []decimal.Decimal {
	if count < 1 {
		return nil
	}
	if count == 1 {
		return []decimal.Decimal{total}
	}

	jitter = min(max(jitter, 0), 1)
	weights := make([]decimal.Decimal, count)
	wsum := decimal.Zero
	for i := range weights {
		w := decimal.NewFromFloat(1 + jitter*(2*rand.Float64()-1))
		weights[i] = w
		wsum = wsum.Add(w)
	}

	remaining := total
	amounts := make([]decimal.Decimal, count)
	for i, w := range weights {
		wish := remaining
		if i < count-1 {
			wish = remaining.Mul(w).Div(wsum)
		}
		have := round(wish)
		amounts[i] = have
		remaining = remaining.Sub(have)
		wsum = wsum.Sub(w)
	}
	return amounts
}
