// Copyright (c) 2025 BVK Chaitanya

package pingpong

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/fakexchange"
	"github.com/bvk/algobot/gobs"
	"github.com/bvk/algobot/scaled"
	"github.com/shopspring/decimal"
)

type fakeRegistrar struct {
	mu sync.Mutex

	started   int
	ended     int
	cancelled bool

	orders []*gobs.SessionOrder
}

func (r *fakeRegistrar) Start(ctx context.Context, id string, side, session, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
	return nil
}

func (r *fakeRegistrar) IsCancelled(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

func (r *fakeRegistrar) End(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended++
	return nil
}

func (r *fakeRegistrar) AddOrder(ctx context.Context, order *gobs.SessionOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order)
	return nil
}

func (r *fakeRegistrar) setCancelled(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = v
}

func testParams() *Params {
	return &Params{
		Symbol:       "BTC-USD",
		Side:         exchange.Buy,
		PingSize:     decimal.NewFromInt(1),
		PongSize:     decimal.NewFromInt(2),
		PingStep:     decimal.NewFromInt(10),
		PongStep:     decimal.NewFromInt(10),
		PongDistance: decimal.NewFromInt(50),
		MinPollDelay: time.Millisecond,
		MaxPollDelay: 5 * time.Millisecond,
	}
}

// placeEntries places limit orders on the fake exchange and returns their
// ladder entries.
func placeEntries(t *testing.T, fake *fakexchange.Exchange, symbol string, side exchange.Side, prices ...int64) []*scaled.Entry {
	t.Helper()
	ctx := context.Background()
	var entries []*scaled.Entry
	for _, price := range prices {
		e := &scaled.Entry{
			Side:  side,
			Price: decimal.NewFromInt(price),
			Size:  decimal.NewFromInt(1),
		}
		id, err := fake.LimitOrder(ctx, symbol, "", e.Size, e.Price, e.Side)
		if err != nil {
			t.Fatal(err)
		}
		e.OrderID = id
		entries = append(entries, e)
	}
	return entries
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition was not reached in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLoopRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 990, 980, 970)
	loop, err := New("test-loop", fake, reg, testParams(), pings, nil)
	if err != nil {
		t.Fatal(err)
	}

	// All pings fill before the loop looks at them.
	for _, e := range pings {
		if err := fake.Fill(e.OrderID); err != nil {
			t.Fatal(err)
		}
	}
	if err := loop.Run(ctx); err != nil {
		t.Fatal(err)
	}

	open := fake.OpenOrders("BTC-USD")
	if len(open) != 3 {
		t.Fatalf("wanted 3 resting pongs, got %d", len(open))
	}
	wantPrices := map[string]bool{"1040": true, "1030": true, "1020": true}
	for _, order := range open {
		if order.Side != exchange.Sell {
			t.Fatalf("wanted a sell pong, got %s", order.Side)
		}
		if !order.Size.Equal(decimal.NewFromInt(2)) {
			t.Fatalf("wanted pong size 2, got %s", order.Size)
		}
		if !wantPrices[order.Price.String()] {
			t.Fatalf("unexpected pong price %s", order.Price)
		}
		delete(wantPrices, order.Price.String())
	}

	if n := fake.LimitCalls(); n != 6 {
		t.Fatalf("wanted 6 limit calls, got %d", n)
	}
	if reg.started != 1 || reg.ended != 1 {
		t.Fatalf("wanted one start and one end, got %d and %d", reg.started, reg.ended)
	}
	if len(reg.orders) != 3 {
		t.Fatalf("wanted 3 recorded pongs, got %d", len(reg.orders))
	}
}

func TestLoopExternalCancelDrops(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 990)
	if err := fake.CancelOrders(ctx, "BTC-USD", []exchange.OrderID{pings[0].OrderID}); err != nil {
		t.Fatal(err)
	}

	loop, err := New("test-loop", fake, reg, testParams(), pings, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := loop.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if n := fake.LimitCalls(); n != 1 {
		t.Fatalf("externally canceled order must not spawn: %d limit calls", n)
	}
	if reg.ended != 1 {
		t.Fatalf("wanted one end, got %d", reg.ended)
	}
}

func TestLoopCancelled(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{cancelled: true}

	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 990, 980)
	pongs := placeEntries(t, fake, "BTC-USD", exchange.Sell, 1100)

	params := testParams()
	params.Endless = true
	loop, err := New("test-loop", fake, reg, params, pings, pongs)
	if err != nil {
		t.Fatal(err)
	}
	if err := loop.Run(ctx); err != nil {
		t.Fatal(err)
	}

	for _, e := range append(pings, pongs...) {
		if n := fake.CancelCount(e.OrderID); n != 1 {
			t.Fatalf("order %s: wanted exactly one cancel, got %d", e.OrderID, n)
		}
		if order, ok := fake.Order(e.OrderID); !ok || order.Open {
			t.Fatalf("order %s is still open", e.OrderID)
		}
	}
	if reg.ended != 1 {
		t.Fatalf("wanted one end, got %d", reg.ended)
	}
}

func TestLoopEndless(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 990)
	params := testParams()
	params.Endless = true
	loop, err := New("test-loop", fake, reg, params, pings, nil)
	if err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- loop.Run(ctx)
	}()

	// A filled ping spawns a pong.
	if err := fake.Fill(pings[0].OrderID); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		open := fake.OpenOrders("BTC-USD")
		return len(open) == 1 && open[0].Side == exchange.Sell
	})

	// A filled pong spawns a ping again.
	if _, err := fake.FillNearest("BTC-USD", exchange.Sell); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		open := fake.OpenOrders("BTC-USD")
		return len(open) == 1 && open[0].Side == exchange.Buy
	})

	reg.setCancelled(true)
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not stop after cancellation")
	}
	if open := fake.OpenOrders("BTC-USD"); len(open) != 0 {
		t.Fatalf("wanted no resting orders, got %d", len(open))
	}
}

func TestLoopContextExpiry(t *testing.T) {
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	pings := placeEntries(t, fake, "BTC-USD", exchange.Buy, 990)
	loop, err := New("test-loop", fake, reg, testParams(), pings, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- loop.Run(ctx)
	}()
	cancel()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatalf("wanted the cancellation cause")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not stop after context expiry")
	}
	if n := fake.CancelCount(pings[0].OrderID); n != 1 {
		t.Fatalf("wanted exactly one cancel, got %d", n)
	}
	if reg.ended != 1 {
		t.Fatalf("wanted one end, got %d", reg.ended)
	}
}
