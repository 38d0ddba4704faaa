// Copyright (c) 2025 BVK Chaitanya

package scaled

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/gobs"
	"github.com/bvk/algobot/idgen"
	"github.com/shopspring/decimal"
)

// Entry is one rung of a placed ladder. An empty OrderID means the
// placement failed; such entries are reported to the caller but must be
// dropped before scheduling.
type Entry struct {
	OrderID       exchange.OrderID
	ClientOrderID string

	Side exchange.Side

	Price decimal.Decimal
	Size  decimal.Decimal

	Units string

	// Flips counts how many times this ladder position changed sides in a
	// round-trip loop.
	Flips int
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s %s@%s", e.Side, e.Size, e.Price)
}

// SessionRecorder records placed orders for later bulk cancellation by
// session and tag.
type SessionRecorder interface {
	AddOrder(ctx context.Context, order *gobs.SessionOrder) error
}

// Args are the fully-resolved parameters for one scaled order invocation.
type Args struct {
	Symbol string

	From decimal.Decimal
	To   decimal.Decimal

	Count int

	Size exchange.SizeSpec
	Side exchange.Side

	Easing Easing

	// VaryPrice and VarySize are jitter fractions in [0, 1].
	VaryPrice float64
	VarySize  float64

	Session string
	Tag     string
}

func (a *Args) check() error {
	if a.Symbol == "" {
		return fmt.Errorf("symbol cannot be empty: %w", os.ErrInvalid)
	}
	if a.Side != exchange.Buy && a.Side != exchange.Sell {
		return fmt.Errorf("side %q is invalid: %w", a.Side, os.ErrInvalid)
	}
	if _, err := ParseEasing(string(a.Easing)); err != nil {
		return err
	}
	return nil
}

// Placer places scaled order ladders on an exchange.
type Placer struct {
	ex exchange.Exchange

	recorder SessionRecorder
}

// NewPlacer creates a placer. The recorder may be nil, in which case placed
// orders are not recorded for tagged cancellation.
func NewPlacer(ex exchange.Exchange, recorder SessionRecorder) *Placer {
	return &Placer{ex: ex, recorder: recorder}
}

// Place resolves the size spec once, generates the price ladder and amount
// distribution, and places every rung as an independent limit order. A rung
// that fails to place is logged and returned with an empty OrderID; it does
// not abort the rest of the ladder. A zero count or a size spec that
// resolves to zero returns an empty list without any exchange calls.
func (p *Placer) Place(ctx context.Context, uid string, args *Args) ([]*Entry, error) {
	if err := args.check(); err != nil {
		return nil, err
	}
	if args.Count < 1 {
		log.Printf("%s: scaled order with zero count - nothing to do", uid)
		return nil, nil
	}

	total, err := p.ex.ResolveSize(ctx, args.Symbol, args.Side, args.Size)
	if err != nil {
		return nil, fmt.Errorf("could not resolve order size: %w", err)
	}
	if total.IsZero() {
		log.Printf("%s: scaled order size resolved to zero - nothing to do", uid)
		return nil, nil
	}

	units := ""
	if args.Size.Percent {
		units = "%"
	}

	prices := Prices(args.Count, args.From, args.To, args.VaryPrice, args.Easing, func(v decimal.Decimal) decimal.Decimal {
		return p.ex.RoundPrice(args.Symbol, v)
	})
	sizes := Amounts(args.Count, total, args.VarySize, func(v decimal.Decimal) decimal.Decimal {
		return p.ex.RoundSize(args.Symbol, v)
	})

	idg := idgen.New(uid, 0)
	entries := make([]*Entry, 0, args.Count)
	for i := 0; i < args.Count; i++ {
		entry := &Entry{
			ClientOrderID: idg.NextID().String(),
			Side:          args.Side,
			Price:         prices[i],
			Size:          sizes[i],
			Units:         units,
		}
		if entry.Size.IsZero() {
			log.Printf("%s: ladder rung %d rounded to zero size - skipped", uid, i)
			entries = append(entries, entry)
			continue
		}

		id, err := p.ex.LimitOrder(ctx, args.Symbol, entry.ClientOrderID, entry.Size, entry.Price, entry.Side)
		if err != nil {
			log.Printf("%s: could not place %s (continuing with the rest): %v", uid, entry, err)
			entries = append(entries, entry)
			continue
		}
		entry.OrderID = id
		entries = append(entries, entry)
		log.Printf("%s: placed %s as order %s", uid, entry, id)

		if p.recorder != nil {
			record := &gobs.SessionOrder{
				Session: args.Session,
				Tag:     args.Tag,
				Symbol:  args.Symbol,
				OrderID: string(id),
				Side:    string(entry.Side),
				Size:    entry.Size,
				Price:   entry.Price,
			}
			if err := p.recorder.AddOrder(ctx, record); err != nil {
				log.Printf("%s: could not record order %s in session (ignored): %v", uid, id, err)
			}
		}
	}
	return entries, nil
}
