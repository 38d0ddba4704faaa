// Copyright (c) 2025 BVK Chaitanya

package maker

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/fakexchange"
	"github.com/bvk/algobot/gobs"
	"github.com/shopspring/decimal"
)

type fakeRegistrar struct {
	mu sync.Mutex

	cancelled bool
	ended     int
}

func (r *fakeRegistrar) Start(ctx context.Context, id string, side, session, tag string) error {
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
	return nil
}

func (r *fakeRegistrar) setCancelled(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = v
}

func testMakerParams() *Params {
	return &Params{
		Symbol:       "BTC-USD",
		Spread:       decimal.NewFromInt(10),
		BidCount:     2,
		BidAmount:    decimal.NewFromInt(1),
		BidStep:      decimal.NewFromInt(5),
		AskCount:     2,
		AskAmount:    decimal.NewFromInt(1),
		AskStep:      decimal.NewFromInt(5),
		MinPollDelay: time.Millisecond,
		MaxPollDelay: 5 * time.Millisecond,
	}
}

func TestMakerInvalidParams(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	p := testMakerParams()
	p.BidCount, p.AskCount = 0, 0
	if err := Run(ctx, "test-maker", fake, reg, p); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("wanted ErrInvalid, got %v", err)
	}

	p = testMakerParams()
	p.BidAmount = decimal.Zero
	if err := Run(ctx, "test-maker", fake, reg, p); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("wanted ErrInvalid, got %v", err)
	}

	p = testMakerParams()
	p.AskStep = decimal.Zero
	if err := Run(ctx, "test-maker", fake, reg, p); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("wanted ErrInvalid, got %v", err)
	}

	if n := fake.LimitCalls(); n != 0 {
		t.Fatalf("invalid parameters must not place orders, got %d placements", n)
	}
}

func TestMakerLadders(t *testing.T) {
	ctx := context.Background()
	fake := fakexchange.New()
	reg := &fakeRegistrar{}

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, "test-maker", fake, reg, testMakerParams())
	}()

	deadline := time.Now().Add(5 * time.Second)
	for len(fake.OpenOrders("BTC-USD")) < 4 {
		if time.Now().After(deadline) {
			t.Fatalf("ladders were not placed in time")
		}
		time.Sleep(time.Millisecond)
	}

	var bids, asks []string
	for _, order := range fake.OpenOrders("BTC-USD") {
		if order.Side == exchange.Buy {
			bids = append(bids, order.Price.String())
		} else {
			asks = append(asks, order.Price.String())
		}
	}
	wantBids := map[string]bool{"990": true, "985": true}
	for _, p := range bids {
		if !wantBids[p] {
			t.Fatalf("unexpected bid price %s", p)
		}
		delete(wantBids, p)
	}
	wantAsks := map[string]bool{"1005": true, "1010": true}
	for _, p := range asks {
		if !wantAsks[p] {
			t.Fatalf("unexpected ask price %s", p)
		}
		delete(wantAsks, p)
	}

	reg.setCancelled(true)
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("maker did not stop after cancellation")
	}
	if open := fake.OpenOrders("BTC-USD"); len(open) != 0 {
		t.Fatalf("wanted all orders canceled, got %d resting", len(open))
	}
	if reg.ended != 1 {
		t.Fatalf("wanted one end, got %d", reg.ended)
	}
}
