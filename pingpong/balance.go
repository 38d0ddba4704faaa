// Copyright (c) 2025 BVK Chaitanya

package pingpong

import (
	"context"
	"log"
	"time"

	"github.com/bvk/algobot/ctxutil"
	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/scaled"
	"github.com/shopspring/decimal"
)

// pendingOp is a fire-and-forget rebalance trade running in its own
// goroutine. The loop joins it later through errCh.
type pendingOp struct {
	name  string
	errCh chan error
}

// startPending launches f in the background. When the pending set is full
// the oldest operation is joined first, so at most MaxPendingOps rebalance
// trades are ever in flight.
func (v *Loop) startPending(ctx context.Context, name string, f func(context.Context) error) {
	for len(v.pending) >= v.params.MaxPendingOps {
		v.joinOldest()
	}
	if len(v.pending) == 0 {
		v.pendingSince = time.Now()
	}
	op := &pendingOp{name: name, errCh: make(chan error, 1)}
	v.pending = append(v.pending, op)
	go func() {
		op.errCh <- f(ctx)
	}()
}

func (v *Loop) joinOldest() {
	op := v.pending[0]
	v.pending = v.pending[1:]
	if err := <-op.errCh; err != nil {
		log.Printf("%s: pending %s operation failed (ignored): %v", v.uid, op.name, err)
	}
}

// reapPending joins every pending operation once the oldest has lived past
// its lifetime, or unconditionally when force is set at loop exit.
func (v *Loop) reapPending(force bool) {
	if len(v.pending) == 0 {
		return
	}
	if !force && time.Since(v.pendingSince) < v.params.PendingOrderLifetime {
		return
	}
	for len(v.pending) > 0 {
		v.joinOldest()
	}
}

// autoBalance dispatches to the configured balancing strategy. Balancing
// only runs when the loop is idle, i.e. the adaptive backoff has grown past
// its minimum, and at most once per AutoBalanceEvery.
func (v *Loop) autoBalance(ctx context.Context) {
	if v.params.AutoBalance == None {
		return
	}
	if v.wait <= v.params.MinPollDelay {
		return
	}
	if time.Since(v.lastBalance) < v.params.AutoBalanceEvery {
		return
	}
	switch v.params.AutoBalance {
	case Shuffle:
		v.shuffle(ctx)
	case Market, Limit:
		v.rebalanceRatio(ctx)
	}
}

// shuffle handles a one-sided book whose furthest order has drifted more
// than PongDistance away from the mid price: that order is canceled and
// re-placed one step closer to the remaining best order, keeping the order
// count unchanged.
func (v *Loop) shuffle(ctx context.Context) {
	var b *book
	switch {
	case v.pings.Len() > 0 && v.pongs.Len() == 0:
		b = v.pings
	case v.pongs.Len() > 0 && v.pings.Len() == 0:
		b = v.pongs
	default:
		return
	}
	// The cadence measures from this attempt even when it declines or
	// fails, so an out-of-range book does not turn every idle iteration
	// into a ticker fetch.
	v.lastBalance = time.Now()
	step := v.sideStep(b)

	ticker, err := v.ex.Ticker(ctx, v.params.Symbol)
	if err != nil {
		log.Printf("%s: could not fetch ticker for shuffle (will retry): %v", v.uid, err)
		return
	}
	mid := ticker.Mid()

	worst := b.Last()
	if worst.Price.Sub(mid).Abs().LessThanOrEqual(v.params.PongDistance) {
		return
	}
	log.Printf("%s: order %s drifted beyond %s from mid %s - shuffling", v.uid, worst, v.params.PongDistance, mid)

	if err := v.ex.CancelOrders(ctx, v.params.Symbol, []exchange.OrderID{worst.OrderID}); err != nil {
		log.Printf("%s: could not cancel drifted order %s (will retry): %v", v.uid, worst.OrderID, err)
		return
	}
	b.PopLast()

	var price decimal.Decimal
	if best := b.First(); best != nil {
		price = best.Price.Sub(step)
		if b.side == exchange.Buy {
			price = best.Price.Add(step)
		}
	} else {
		price = mid.Add(v.params.PongDistance)
		if b.side == exchange.Buy {
			price = mid.Sub(v.params.PongDistance)
		}
	}
	price = v.ex.RoundPrice(v.params.Symbol, price)

	entry := &scaled.Entry{
		ClientOrderID: v.idg.NextID().String(),
		Side:          b.side,
		Price:         price,
		Size:          worst.Size,
		Units:         worst.Units,
		Flips:         worst.Flips,
	}
	id, err := v.ex.LimitOrder(ctx, v.params.Symbol, entry.ClientOrderID, entry.Size, entry.Price, entry.Side)
	if err != nil {
		log.Printf("%s: could not re-place shuffled order %s (dropped): %v", v.uid, entry, err)
		return
	}
	entry.OrderID = id
	b.Insert(entry)
	log.Printf("%s: shuffled %s from %s to %s as order %s", v.uid, entry.Side, worst.Price, entry.Price, id)
	v.recordOrder(ctx, entry)
}

// rebalanceRatio restores the ping/pong proportion when one side falls
// below the AutoBalanceAt fraction: the most extreme order on the majority
// side is canceled, its inventory effect is flattened with a background
// trade, and a compensating order is placed on the minority side.
func (v *Loop) rebalanceRatio(ctx context.Context) {
	total := v.pings.Len() + v.pongs.Len()
	if total < v.params.MinBalancePopulation {
		return
	}

	var under, over *book
	switch {
	case float64(v.pings.Len())/float64(total) < v.params.AutoBalanceAt:
		under, over = v.pings, v.pongs
	case float64(v.pongs.Len())/float64(total) < v.params.AutoBalanceAt:
		under, over = v.pongs, v.pings
	default:
		return
	}
	v.lastBalance = time.Now()

	extreme := over.PopLast()
	log.Printf("%s: lists out of balance (%d pings, %d pongs) - moving %s", v.uid, v.pings.Len(), v.pongs.Len(), extreme)
	if err := v.ex.CancelOrders(ctx, v.params.Symbol, []exchange.OrderID{extreme.OrderID}); err != nil {
		log.Printf("%s: could not cancel order %s (treated as canceled): %v", v.uid, extreme.OrderID, err)
	}

	v.flatten(ctx, over, extreme)

	step := v.sideStep(under)
	var price decimal.Decimal
	if best := under.First(); best != nil {
		price = best.Price.Sub(step)
		if under.side == exchange.Buy {
			price = best.Price.Add(step)
		}
	} else {
		ref := extreme.Price
		if best := over.First(); best != nil {
			ref = best.Price
		}
		price = ref.Add(v.params.PongDistance)
		if under.side == exchange.Buy {
			price = ref.Sub(v.params.PongDistance)
		}
	}
	price = v.ex.RoundPrice(v.params.Symbol, price)

	entry := &scaled.Entry{
		ClientOrderID: v.idg.NextID().String(),
		Side:          under.side,
		Price:         price,
		Size:          v.sideSize(under),
		Units:         extreme.Units,
	}
	id, err := v.ex.LimitOrder(ctx, v.params.Symbol, entry.ClientOrderID, entry.Size, entry.Price, entry.Side)
	if err != nil {
		log.Printf("%s: could not place compensating order %s (dropped): %v", v.uid, entry, err)
		return
	}
	entry.OrderID = id
	under.Insert(entry)
	log.Printf("%s: placed compensating order %s as %s", v.uid, entry, id)
	v.recordOrder(ctx, entry)
}

// flatten neutralizes the inventory effect of the canceled extreme order
// with a background trade on the same side: a market order in Market mode,
// or a time-limited resting order at the side's best price in Limit mode.
func (v *Loop) flatten(ctx context.Context, over *book, extreme *scaled.Entry) {
	symbol := v.params.Symbol
	clientOrderID := v.idg.NextID().String()
	size, side := extreme.Size, extreme.Side

	if v.params.AutoBalance == Market {
		v.startPending(ctx, "market-rebalance", func(ctx context.Context) error {
			_, err := v.ex.MarketOrder(ctx, symbol, clientOrderID, size, side)
			return err
		})
		return
	}

	price := extreme.Price
	if best := over.First(); best != nil {
		price = best.Price
	}
	lifetime := v.params.PendingOrderLifetime
	v.startPending(ctx, "limit-rebalance", func(ctx context.Context) error {
		id, err := v.ex.LimitOrder(ctx, symbol, clientOrderID, size, price, side)
		if err != nil {
			return err
		}
		ctxutil.Sleep(ctx, lifetime)
		status, err := v.ex.OrderStatus(ctx, symbol, id)
		if err == nil && !status.Open {
			return nil
		}
		return v.ex.CancelOrders(ctx, symbol, []exchange.OrderID{id})
	})
}
