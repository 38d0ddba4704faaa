// Copyright (c) 2025 BVK Chaitanya

// Package maker implements a symmetric market maker: a ladder of bids below
// the mid price and a ladder of asks above it, round-tripped endlessly so a
// filled bid re-arms as an ask one spread higher and vice versa.
package maker

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"time"

	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/pingpong"
	"github.com/bvk/algobot/scaled"
	"github.com/shopspring/decimal"
)

type Params struct {
	Symbol string

	// Spread is the price distance a filled order round-trips over.
	Spread decimal.Decimal

	BidCount  int
	BidAmount decimal.Decimal
	BidStep   decimal.Decimal

	AskCount  int
	AskAmount decimal.Decimal
	AskStep   decimal.Decimal

	VaryPrice float64
	VarySize  float64

	AutoBalance      pingpong.Mode
	AutoBalanceEvery time.Duration

	Session string
	Tag     string

	MinPollDelay time.Duration
	MaxPollDelay time.Duration
}

func (p *Params) Check() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol cannot be empty: %w", os.ErrInvalid)
	}
	if p.BidCount < 0 || p.AskCount < 0 {
		return fmt.Errorf("order counts cannot be negative: %w", os.ErrInvalid)
	}
	if p.BidCount == 0 && p.AskCount == 0 {
		return fmt.Errorf("market maker needs bids or asks: %w", os.ErrInvalid)
	}
	if p.BidCount > 0 && (p.BidAmount.IsZero() || p.BidStep.IsZero()) {
		return fmt.Errorf("bid amount and step must be positive with a bid count: %w", os.ErrInvalid)
	}
	if p.AskCount > 0 && (p.AskAmount.IsZero() || p.AskStep.IsZero()) {
		return fmt.Errorf("ask amount and step must be positive with an ask count: %w", os.ErrInvalid)
	}
	if p.Spread.IsNegative() || p.Spread.IsZero() {
		return fmt.Errorf("spread must be positive: %w", os.ErrInvalid)
	}
	return nil
}

// Run places the bid and ask ladders around the current mid price and hands
// them to an endless round-trip scheduler. It returns when the algo order
// is cancelled or the context expires. No orders are placed when the
// parameters fail validation.
func Run(ctx context.Context, uid string, ex exchange.Exchange, reg pingpong.Registrar, p *Params) error {
	if err := p.Check(); err != nil {
		return err
	}

	ticker, err := ex.Ticker(ctx, p.Symbol)
	if err != nil {
		return fmt.Errorf("could not fetch ticker: %w", err)
	}
	mid := ticker.Mid()
	half := p.Spread.Div(decimal.NewFromInt(2))
	log.Printf("%s: starting market maker on %s around mid %s with %d bids and %d asks", uid, p.Symbol, mid, p.BidCount, p.AskCount)

	placer := scaled.NewPlacer(ex, reg)

	var bids []*scaled.Entry
	if p.BidCount > 0 {
		// Bids sit half a spread plus one step below the mid, so the best
		// bid's round-trip ask lands just outside the opposite ladder.
		from := mid.Sub(half).Sub(p.BidStep)
		to := from.Sub(p.BidStep.Mul(decimal.NewFromInt(int64(p.BidCount - 1))))
		total := p.BidAmount.Mul(decimal.NewFromInt(int64(p.BidCount)))
		bids, err = placer.Place(ctx, path.Join(uid, "bids"), &scaled.Args{
			Symbol:    p.Symbol,
			From:      from,
			To:        to,
			Count:     p.BidCount,
			Size:      exchange.SizeSpec{Amount: total},
			Side:      exchange.Buy,
			Easing:    scaled.Linear,
			VaryPrice: p.VaryPrice,
			VarySize:  p.VarySize,
			Session:   p.Session,
			Tag:       p.Tag,
		})
		if err != nil {
			return fmt.Errorf("could not place bid ladder: %w", err)
		}
	}

	var asks []*scaled.Entry
	if p.AskCount > 0 {
		from := mid.Add(half)
		to := from.Add(p.AskStep.Mul(decimal.NewFromInt(int64(p.AskCount - 1))))
		total := p.AskAmount.Mul(decimal.NewFromInt(int64(p.AskCount)))
		asks, err = placer.Place(ctx, path.Join(uid, "asks"), &scaled.Args{
			Symbol:    p.Symbol,
			From:      from,
			To:        to,
			Count:     p.AskCount,
			Size:      exchange.SizeSpec{Amount: total},
			Side:      exchange.Sell,
			Easing:    scaled.Linear,
			VaryPrice: p.VaryPrice,
			VarySize:  p.VarySize,
			Session:   p.Session,
			Tag:       p.Tag,
		})
		if err != nil {
			return fmt.Errorf("could not place ask ladder: %w", err)
		}
	}

	// One-sided makers still round-trip fills, so the missing side borrows
	// the configured side's amount and step.
	pingSize, pingStep := p.BidAmount, p.BidStep
	pongSize, pongStep := p.AskAmount, p.AskStep
	if p.BidCount == 0 {
		pingSize, pingStep = pongSize, pongStep
	}
	if p.AskCount == 0 {
		pongSize, pongStep = pingSize, pingStep
	}

	params := &pingpong.Params{
		Symbol:           p.Symbol,
		Side:             exchange.Buy,
		PingSize:         pingSize,
		PongSize:         pongSize,
		PingStep:         pingStep,
		PongStep:         pongStep,
		PongDistance:     p.Spread,
		Endless:          true,
		Session:          p.Session,
		Tag:              p.Tag,
		AutoBalance:      p.AutoBalance,
		AutoBalanceEvery: p.AutoBalanceEvery,
		MinPollDelay:     p.MinPollDelay,
		MaxPollDelay:     p.MaxPollDelay,
	}
	loop, err := pingpong.New(path.Join(uid, "loop"), ex, reg, params, bids, asks)
	if err != nil {
		return err
	}
	return loop.Run(ctx)
}
