// Copyright (c) 2025 BVK Chaitanya

package scaled

import (
	"fmt"
	"math/rand/v2"
	"os"
	"sort"

	"github.com/shopspring/decimal"
)

// Easing selects the spacing curve for ladder prices.
type Easing string

const (
	Linear  Easing = "linear"
	EaseIn  Easing = "ease-in"
	EaseOut Easing = "ease-out"
)

func ParseEasing(s string) (Easing, error) {
	switch Easing(s) {
	case Linear, EaseIn, EaseOut:
		return Easing(s), nil
	}
	return "", fmt.Errorf("unknown easing %q: %w", s, os.ErrInvalid)
}

func (e Easing) at(t float64) float64 {
	switch e {
	case EaseIn:
		return t * t
	case EaseOut:
		return 1 - (1-t)*(1-t)
	}
	return t
}

// Prices generates count ladder prices between from and to. The bounds may
// be given in either order; the curve is always anchored at the lower
// bound, so the same arguments swapped produce the same set of prices. The
// first result is at the `from` end. Interior points can be perturbed by a
// uniform random fraction of the full range in [-jitter, +jitter]; the end
// points never move, and results stay ordered from `from` towards `to`
// regardless of jitter.
//
// Every price passes through round. Rounding must not reorder prices.
func Prices(count int, from, to decimal.Decimal, jitter float64, easing Easing, round Rounder) []decimal.Decimal {
	if count < 1 {
		return nil
	}
	if count == 1 {
		return []decimal.Decimal{round(from)}
	}

	lo, hi := from, to
	if lo.GreaterThan(hi) {
		lo, hi = hi, lo
	}
	span := hi.Sub(lo)

	jitter = min(max(jitter, 0), 1)
	fracs := make([]float64, count)
	for i := range fracs {
		t := float64(i) / float64(count-1)
		u := easing.at(t)
		if jitter > 0 && i > 0 && i < count-1 {
			u = min(max(u+jitter*(2*rand.Float64()-1), 0), 1)
		}
		fracs[i] = u
	}
	sort.Float64s(fracs)

	prices := make([]decimal.Decimal, count)
	for i, u := range fracs {
		prices[i] = round(lo.Add(span.Mul(decimal.NewFromFloat(u))))
	}

	// Keep the ladder running from the `from` end towards `to`.
	if from.GreaterThan(to) {
		for i, j := 0, count-1; i < j; i, j = i+1, j-1 {
			prices[i], prices[j] = prices[j], prices[i]
		}
	}
	return prices
}
