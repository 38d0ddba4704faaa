// Copyright (c) 2025 BVK Chaitanya

package pingpong

import (
	"context"
	"log"
	"path"
	"time"

	"github.com/bvk/algobot/ctxutil"
	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/gobs"
	"github.com/bvk/algobot/idgen"
	"github.com/bvk/algobot/scaled"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// cancelWaitTimeout bounds the bulk-cancel retry during shutdown. A cancel
// that cannot complete within this window is treated as already done.
const cancelWaitTimeout = 10 * time.Second

// Registrar is the registry surface the scheduler needs: cooperative
// cancellation and session-order bookkeeping.
type Registrar interface {
	Start(ctx context.Context, id string, side, session, tag string) error
	IsCancelled(ctx context.Context, id string) bool
	End(ctx context.Context, id string) error
	AddOrder(ctx context.Context, order *gobs.SessionOrder) error
}

// Loop is one round-trip scheduler run. It is not safe for concurrent use;
// Run owns all state until it returns.
type Loop struct {
	uid string

	ex  exchange.Exchange
	reg Registrar

	params Params

	algoID string

	pings *book
	pongs *book

	idg *idgen.Generator

	// wait is the adaptive backoff before the next iteration. It grows by
	// MinPollDelay per idle iteration up to MaxPollDelay and resets to
	// MinPollDelay whenever an order changes state.
	wait time.Duration

	lastBalance time.Time

	pending      []*pendingOp
	pendingSince time.Time
}

// New creates a round-trip scheduler over the given resting orders. Entries
// with an empty OrderID are dropped. The params are defaulted and checked.
func New(uid string, ex exchange.Exchange, reg Registrar, params *Params, pings, pongs []*scaled.Entry) (*Loop, error) {
	p := *params
	p.SetDefaults()
	if err := p.Check(); err != nil {
		return nil, err
	}
	v := &Loop{
		uid:    uid,
		ex:     ex,
		reg:    reg,
		params: p,
		pings:  newBook(p.Side, pings),
		pongs:  newBook(p.Side.Opposite(), pongs),
		idg:    idgen.New(path.Join(uid, "spawn"), 0),
		wait:   p.MinPollDelay,
	}
	return v, nil
}

// active reports whether the scheduler has more work. A non-endless run is
// done once all pings are resolved; an endless run also waits out the pongs.
func (v *Loop) active() bool {
	if v.pings.Len() > 0 {
		return true
	}
	return v.params.Endless && v.pongs.Len() > 0
}

// Run drives the scheduler until its order lists drain, the algo order is
// cancelled, or the context expires. It registers the run with the registry
// on entry and removes the record exactly once on exit.
func (v *Loop) Run(ctx context.Context) error {
	v.algoID = uuid.New().String()
	if err := v.reg.Start(ctx, v.algoID, string(v.params.Side), v.params.Session, v.params.Tag); err != nil {
		return err
	}
	log.Printf("%s: started ping pong %s on %s with %d pings and %d pongs", v.uid, v.algoID, v.params.Symbol, v.pings.Len(), v.pongs.Len())

	v.lastBalance = time.Now()
	for v.active() {
		if err := context.Cause(ctx); err != nil {
			log.Printf("%s: context expired - canceling %d resting orders", v.uid, v.pings.Len()+v.pongs.Len())
			v.cancelResting(context.WithoutCancel(ctx))
			v.finish(context.WithoutCancel(ctx))
			return err
		}
		if v.reg.IsCancelled(ctx, v.algoID) {
			log.Printf("%s: algo order %s is cancelled - canceling %d resting orders", v.uid, v.algoID, v.pings.Len()+v.pongs.Len())
			v.cancelResting(ctx)
			continue
		}

		v.inspect(ctx, v.pings, v.pongs)
		if v.params.Endless {
			v.inspect(ctx, v.pongs, v.pings)
		}

		v.autoBalance(ctx)
		v.reapPending(false)

		if !v.active() {
			break
		}
		ctxutil.Sleep(ctx, v.wait)
		if v.wait < v.params.MaxPollDelay {
			v.wait = min(v.wait+v.params.MinPollDelay, v.params.MaxPollDelay)
		}
	}
	v.finish(ctx)
	return nil
}

// inspect polls the head-of-book order in src. A fill spawns the opposite
// order into dst; an order that is neither open nor filled was canceled
// externally and is dropped.
func (v *Loop) inspect(ctx context.Context, src, dst *book) {
	first := src.First()
	if first == nil {
		return
	}
	status, err := v.ex.OrderStatus(ctx, v.params.Symbol, first.OrderID)
	if err != nil {
		log.Printf("%s: could not fetch status of order %s (will retry next poll): %v", v.uid, first.OrderID, err)
		return
	}
	switch {
	case status.Filled:
		log.Printf("%s: order %s (%s) is filled", v.uid, first.OrderID, first)
		src.PopFirst()
		v.spawnOpposite(ctx, dst, first)
		v.wait = v.params.MinPollDelay
	case !status.Open:
		log.Printf("%s: order %s (%s) was canceled externally - dropped", v.uid, first.OrderID, first)
		src.PopFirst()
		v.wait = v.params.MinPollDelay
	}
}

// spawnOpposite places the round-trip order for a fill: the opposite side,
// PongDistance above a filled buy or below a filled sell.
func (v *Loop) spawnOpposite(ctx context.Context, dst *book, filled *scaled.Entry) {
	price := filled.Price.Sub(v.params.PongDistance)
	if filled.Side == exchange.Buy {
		price = filled.Price.Add(v.params.PongDistance)
	}
	price = v.ex.RoundPrice(v.params.Symbol, price)

	size := v.params.PingSize
	if filled.Side == v.params.Side {
		size = v.params.PongSize
	}

	entry := &scaled.Entry{
		ClientOrderID: v.idg.NextID().String(),
		Side:          filled.Side.Opposite(),
		Price:         price,
		Size:          size,
		Units:         filled.Units,
		Flips:         filled.Flips + 1,
	}
	id, err := v.ex.LimitOrder(ctx, v.params.Symbol, entry.ClientOrderID, entry.Size, entry.Price, entry.Side)
	if err != nil {
		log.Printf("%s: could not place opposite order %s (dropped): %v", v.uid, entry, err)
		return
	}
	entry.OrderID = id
	dst.Insert(entry)
	log.Printf("%s: placed opposite order %s as %s", v.uid, entry, id)
	v.recordOrder(ctx, entry)
}

func (v *Loop) recordOrder(ctx context.Context, entry *scaled.Entry) {
	record := &gobs.SessionOrder{
		Session: v.params.Session,
		Tag:     v.params.Tag,
		Symbol:  v.params.Symbol,
		OrderID: string(entry.OrderID),
		Side:    string(entry.Side),
		Size:    entry.Size,
		Price:   entry.Price,
	}
	if err := v.reg.AddOrder(ctx, record); err != nil {
		log.Printf("%s: could not record order %s in session (ignored): %v", v.uid, entry.OrderID, err)
	}
}

// cancelResting bulk-cancels every resting order, one call per list, and
// clears both lists. The cancel is retried for a bounded window; a timeout
// is logged and the orders are treated as gone.
func (v *Loop) cancelResting(ctx context.Context) {
	for _, b := range []*book{v.pings, v.pongs} {
		ids := b.IDs()
		if len(ids) == 0 {
			continue
		}
		err := ctxutil.RetryTimeout(ctx, time.Second, cancelWaitTimeout, func() error {
			return v.ex.CancelOrders(ctx, v.params.Symbol, ids)
		})
		if err != nil {
			log.Printf("%s: could not cancel %d orders within %s (treated as canceled): %v", v.uid, len(ids), cancelWaitTimeout, err)
		}
		b.Clear()
	}
	v.wait = v.params.MinPollDelay
}

// finish joins all pending operations and removes the registry record.
func (v *Loop) finish(ctx context.Context) {
	v.reapPending(true)
	if err := v.reg.End(ctx, v.algoID); err != nil {
		log.Printf("%s: could not remove algo order record %s: %v", v.uid, v.algoID, err)
		return
	}
	log.Printf("%s: ping pong %s has ended", v.uid, v.algoID)
}

// sideSize returns the per-order amount configured for the given book.
func (v *Loop) sideSize(b *book) decimal.Decimal {
	if b == v.pings {
		return v.params.PingSize
	}
	return v.params.PongSize
}

// sideStep returns the ladder step configured for the given book.
func (v *Loop) sideStep(b *book) decimal.Decimal {
	if b == v.pings {
		return v.params.PingStep
	}
	return v.params.PongStep
}
