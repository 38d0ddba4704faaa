// Copyright (c) 2025 BVK Chaitanya

package pingpong

import (
	"context"
	"testing"
	"time"

	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/fakexchange"
	"github.com/shopspring/decimal"
)

func TestShuffleDriftedOrder(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 900, 890, 880)
	params := testParams()
	params.AutoBalance = Shuffle
	loop, err := New("test-shuffle", fake, reg, params, pings, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Mid is 1000 and the furthest buy at 880 is more than PongDistance
	// away, so it moves one step above the best buy.
	loop.shuffle(ctx)

	if n := fake.CancelCount(pings[2].OrderID); n != 1 {
		t.Fatalf("wanted the furthest order canceled, got %d cancels", n)
	}
	if loop.pings.Len() != 3 {
		t.Fatalf("wanted the order count unchanged, got %d", loop.pings.Len())
	}
	if first := loop.pings.First(); !first.Price.Equal(decimal.NewFromInt(910)) {
		t.Fatalf("wanted the shuffled order at 910, got %s", first.Price)
	}
	if len(reg.orders) != 1 {
		t.Fatalf("wanted the shuffled order recorded, got %d", len(reg.orders))
	}
}

func TestShuffleWithinRange(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	fake.SetTicker(decimal.NewFromInt(920), decimal.NewFromInt(920))
	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 900, 890, 880)
	params := testParams()
	params.AutoBalance = Shuffle
	loop, err := New("test-shuffle", fake, reg, params, pings, nil)
	if err != nil {
		t.Fatal(err)
	}

	before := fake.LimitCalls()
	loop.shuffle(ctx)

	if n := fake.LimitCalls(); n != before {
		t.Fatalf("wanted no placements within range, got %d", n-before)
	}
	for _, e := range pings {
		if n := fake.CancelCount(e.OrderID); n != 0 {
			t.Fatalf("order %s: wanted no cancels, got %d", e.OrderID, n)
		}
	}
}

func TestShuffleDeclinedHoldsCadence(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	// Mid is 920 and the furthest buy at 880 is within PongDistance, so
	// every attempt declines.
	fake.SetTicker(decimal.NewFromInt(920), decimal.NewFromInt(920))
	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 900, 890, 880)
	params := testParams()
	params.AutoBalance = Shuffle
	params.AutoBalanceEvery = time.Hour
	loop, err := New("test-shuffle", fake, reg, params, pings, nil)
	if err != nil {
		t.Fatal(err)
	}
	loop.wait = 2 * params.MinPollDelay

	loop.autoBalance(ctx)
	loop.autoBalance(ctx)

	// A declined attempt still counts against the cadence; the second call
	// must not fetch the ticker again within AutoBalanceEvery.
	if n := fake.TickerCalls(); n != 1 {
		t.Fatalf("wanted one ticker fetch within the cadence, got %d", n)
	}
}

func TestShuffleNeedsOneSidedBook(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 880)
	pongs := placeEntries(t, fake, "BTC-USD", exchange.Sell, 1200)
	params := testParams()
	params.AutoBalance = Shuffle
	loop, err := New("test-shuffle", fake, reg, params, pings, pongs)
	if err != nil {
		t.Fatal(err)
	}

	before := fake.TickerCalls()
	loop.shuffle(ctx)
	if n := fake.TickerCalls(); n != before {
		t.Fatalf("wanted no activity with both sides populated")
	}
}

func TestRebalanceMarket(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 900)
	pongs := placeEntries(t, fake, "BTC-USD", exchange.Sell, 1050, 1060, 1070, 1080, 1090)
	params := testParams()
	params.AutoBalance = Market
	loop, err := New("test-rebalance", fake, reg, params, pings, pongs)
	if err != nil {
		t.Fatal(err)
	}

	// One ping against five pongs is below the one-fifth threshold.
	loop.rebalanceRatio(ctx)
	loop.reapPending(true)

	if n := fake.CancelCount(pongs[4].OrderID); n != 1 {
		t.Fatalf("wanted the extreme pong canceled, got %d cancels", n)
	}
	if n := fake.MarketCalls(); n != 1 {
		t.Fatalf("wanted one flattening market order, got %d", n)
	}
	if loop.pongs.Len() != 4 {
		t.Fatalf("wanted 4 pongs left, got %d", loop.pongs.Len())
	}
	if loop.pings.Len() != 2 {
		t.Fatalf("wanted a compensating ping, got %d pings", loop.pings.Len())
	}
	if first := loop.pings.First(); !first.Price.Equal(decimal.NewFromInt(910)) {
		t.Fatalf("wanted the compensating ping at 910, got %s", first.Price)
	}
}

func TestRebalanceBalancedNoAction(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 900, 890, 880)
	pongs := placeEntries(t, fake, "BTC-USD", exchange.Sell, 1050, 1060, 1070)
	params := testParams()
	params.AutoBalance = Market
	loop, err := New("test-rebalance", fake, reg, params, pings, pongs)
	if err != nil {
		t.Fatal(err)
	}

	before := fake.LimitCalls() + fake.MarketCalls()
	loop.rebalanceRatio(ctx)
	loop.reapPending(true)

	if after := fake.LimitCalls() + fake.MarketCalls(); after != before {
		t.Fatalf("wanted no placements on a balanced book, got %d", after-before)
	}
}

func TestRebalanceSmallPopulation(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 900)
	pongs := placeEntries(t, fake, "BTC-USD", exchange.Sell, 1050, 1060, 1070)
	params := testParams()
	params.AutoBalance = Market
	loop, err := New("test-rebalance", fake, reg, params, pings, pongs)
	if err != nil {
		t.Fatal(err)
	}

	// Four resting orders are below the minimum population of six.
	loop.rebalanceRatio(ctx)
	loop.reapPending(true)

	if n := fake.MarketCalls(); n != 0 {
		t.Fatalf("wanted no flattening below the minimum population, got %d", n)
	}
}

func TestRebalanceLimit(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 900)
	pongs := placeEntries(t, fake, "BTC-USD", exchange.Sell, 1050, 1060, 1070, 1080, 1090)
	params := testParams()
	params.AutoBalance = Limit
	params.PendingOrderLifetime = time.Millisecond
	loop, err := New("test-rebalance", fake, reg, params, pings, pongs)
	if err != nil {
		t.Fatal(err)
	}

	loop.rebalanceRatio(ctx)
	loop.reapPending(true)

	if n := fake.MarketCalls(); n != 0 {
		t.Fatalf("limit mode must not place market orders, got %d", n)
	}
	if loop.pings.Len() != 2 {
		t.Fatalf("wanted a compensating ping, got %d pings", loop.pings.Len())
	}
}
