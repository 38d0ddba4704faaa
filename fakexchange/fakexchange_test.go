// Copyright (c) 2025 BVK Chaitanya

package fakexchange

import (
	"context"
	"testing"

	"github.com/bvk/algobot/exchange"
	"github.com/shopspring/decimal"
)

func TestResolveSize(t *testing.T) {
	ctx := context.Background()
	fake := New()
	fake.SetTicker(decimal.NewFromInt(1000), decimal.NewFromInt(1000))
	fake.SetBalance("BTC", decimal.NewFromInt(10), decimal.NewFromInt(8))
	fake.SetBalance("USD", decimal.NewFromInt(50000), decimal.NewFromInt(40000))

	// Absolute sizes pass through.
	size, err := fake.ResolveSize(ctx, "BTC-USD", exchange.Buy, exchange.SizeSpec{Amount: decimal.NewFromFloat(1.5)})
	if err != nil {
		t.Fatal(err)
	}
	if !size.Equal(decimal.NewFromFloat(1.5)) {
		t.Fatalf("wanted 1.5, got %s", size)
	}

	// A sell percentage resolves against the available base balance.
	size, err = fake.ResolveSize(ctx, "BTC-USD", exchange.Sell, exchange.SizeSpec{Amount: decimal.NewFromInt(50), Percent: true})
	if err != nil {
		t.Fatal(err)
	}
	if !size.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("wanted 4, got %s", size)
	}

	// A buy percentage resolves against the quote balance at the ask.
	size, err = fake.ResolveSize(ctx, "BTC-USD", exchange.Buy, exchange.SizeSpec{Amount: decimal.NewFromInt(25), Percent: true})
	if err != nil {
		t.Fatal(err)
	}
	if !size.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("wanted 10, got %s", size)
	}
}

func TestResolveSizePosition(t *testing.T) {
	ctx := context.Background()
	fake := New()
	fake.SetPosition(decimal.NewFromInt(3))

	// Buying towards a larger position resolves to the delta.
	size, err := fake.ResolveSize(ctx, "BTC-USD", exchange.Buy, exchange.SizeSpec{Position: decimal.NewFromInt(5), HasPosition: true})
	if err != nil {
		t.Fatal(err)
	}
	if !size.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("wanted 2, got %s", size)
	}

	// Selling towards a smaller position resolves to the delta magnitude.
	size, err = fake.ResolveSize(ctx, "BTC-USD", exchange.Sell, exchange.SizeSpec{Position: decimal.NewFromInt(1), HasPosition: true})
	if err != nil {
		t.Fatal(err)
	}
	if !size.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("wanted 2, got %s", size)
	}

	// A target on the wrong side of the current position is nothing to do.
	size, err = fake.ResolveSize(ctx, "BTC-USD", exchange.Sell, exchange.SizeSpec{Position: decimal.NewFromInt(5), HasPosition: true})
	if err != nil {
		t.Fatal(err)
	}
	if !size.IsZero() {
		t.Fatalf("wanted zero, got %s", size)
	}
}

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := New()

	id, err := fake.LimitOrder(ctx, "BTC-USD", "c1", decimal.NewFromInt(1), decimal.NewFromInt(990), exchange.Buy)
	if err != nil {
		t.Fatal(err)
	}
	status, err := fake.OrderStatus(ctx, "BTC-USD", id)
	if err != nil {
		t.Fatal(err)
	}
	if status.Filled || !status.Open {
		t.Fatalf("wanted an open order, got %+v", status)
	}

	if err := fake.Fill(id); err != nil {
		t.Fatal(err)
	}
	status, err = fake.OrderStatus(ctx, "BTC-USD", id)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Filled || status.Open {
		t.Fatalf("wanted a filled order, got %+v", status)
	}

	// Canceling a filled order is not an error and does not unfill it.
	if err := fake.CancelOrders(ctx, "BTC-USD", []exchange.OrderID{id}); err != nil {
		t.Fatal(err)
	}
	status, err = fake.OrderStatus(ctx, "BTC-USD", id)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Filled {
		t.Fatalf("cancel must not unfill an order, got %+v", status)
	}
}
