// Copyright (c) 2025 BVK Chaitanya

package scaled

import (
	"testing"

	"github.com/shopspring/decimal"
)

func truncate(places int32) Rounder {
	return func(v decimal.Decimal) decimal.Decimal {
		return v.Truncate(places)
	}
}

func sum(vs []decimal.Decimal) decimal.Decimal {
	s := decimal.Zero
	for _, v := range vs {
		s = s.Add(v)
	}
	return s
}

func TestAmountsEqualSplit(t *testing.T) {
	amounts := Amounts(5, decimal.NewFromInt(10), 0, truncate(6))
	if len(amounts) != 5 {
		t.Fatalf("wanted 5 amounts, got %d", len(amounts))
	}
	two := decimal.NewFromInt(2)
	for i, a := range amounts {
		if !a.Equal(two) {
			t.Fatalf("amount %d: wanted 2, got %s", i, a)
		}
	}
}

func TestAmountsRoundingError(t *testing.T) {
	amounts := Amounts(3, decimal.NewFromInt(100), 0, truncate(0))
	want := []int64{33, 33, 34}
	for i, w := range want {
		if !amounts[i].Equal(decimal.NewFromInt(w)) {
			t.Fatalf("amount %d: wanted %d, got %s", i, w, amounts[i])
		}
	}
}

func TestAmountsJitterTotal(t *testing.T) {
	total := decimal.NewFromInt(7)
	for i := 0; i < 100; i++ {
		amounts := Amounts(7, total, 0.5, truncate(6))
		if s := sum(amounts); !s.Equal(total) {
			t.Fatalf("wanted total %s, got %s (%v)", total, s, amounts)
		}
		for j, a := range amounts {
			if a.IsNegative() {
				t.Fatalf("amount %d is negative: %s", j, a)
			}
		}
	}
}

func TestAmountsEdgeCounts(t *testing.T) {
	if amounts := Amounts(0, decimal.NewFromInt(10), 0, truncate(6)); amounts != nil {
		t.Fatalf("wanted nil for zero count, got %v", amounts)
	}
	if amounts := Amounts(-3, decimal.NewFromInt(10), 0, truncate(6)); amounts != nil {
		t.Fatalf("wanted nil for negative count, got %v", amounts)
	}
	amounts := Amounts(1, decimal.NewFromFloat(1.25), 0, truncate(6))
	if len(amounts) != 1 || !amounts[0].Equal(decimal.NewFromFloat(1.25)) {
		t.Fatalf("wanted the full total back, got %v", amounts)
	}
}
