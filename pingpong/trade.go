// Copyright (c) 2025 BVK Chaitanya

package pingpong

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"time"

	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/scaled"
	"github.com/shopspring/decimal"
)

// TradeArgs configures a ping-pong strategy invocation: a scaled ladder of
// ping orders between From and To, round-tripped by the scheduler.
type TradeArgs struct {
	Symbol string

	From decimal.Decimal
	To   decimal.Decimal

	Count int

	Size exchange.SizeSpec
	Side exchange.Side

	Easing scaled.Easing

	VaryPrice float64
	VarySize  float64

	// PongDistance is the round-trip distance. Zero defaults to the ladder
	// step.
	PongDistance decimal.Decimal

	// PingSize and PongSize override the per-order amounts for spawned
	// orders. When both are zero they default to the resolved ladder size
	// divided by Count.
	PingSize decimal.Decimal
	PongSize decimal.Decimal

	Endless bool

	AutoBalance      Mode
	AutoBalanceEvery time.Duration

	Session string
	Tag     string

	MinPollDelay time.Duration
	MaxPollDelay time.Duration
}

// Trade places the initial ping ladder and runs the round-trip scheduler
// over it until completion or cancellation.
func Trade(ctx context.Context, uid string, ex exchange.Exchange, reg Registrar, args *TradeArgs) error {
	if args.Count < 1 {
		return fmt.Errorf("ping pong needs a positive order count: %w", os.ErrInvalid)
	}

	step := args.To.Sub(args.From).Abs().Div(decimal.NewFromInt(int64(args.Count)))

	pingSize, pongSize := args.PingSize, args.PongSize
	if pingSize.IsZero() && pongSize.IsZero() {
		total, err := ex.ResolveSize(ctx, args.Symbol, args.Side, args.Size)
		if err != nil {
			return fmt.Errorf("could not resolve order size: %w", err)
		}
		per := ex.RoundSize(args.Symbol, total.Div(decimal.NewFromInt(int64(args.Count))))
		if per.IsZero() {
			log.Printf("%s: ping pong size resolved to zero - nothing to do", uid)
			return nil
		}
		pingSize, pongSize = per, per
	}

	distance := args.PongDistance
	if distance.IsZero() {
		distance = step
	}

	ladderSize := args.Size
	if ladderSize.IsZero() {
		ladderSize = exchange.SizeSpec{Amount: pingSize.Mul(decimal.NewFromInt(int64(args.Count)))}
	}

	placer := scaled.NewPlacer(ex, reg)
	pings, err := placer.Place(ctx, path.Join(uid, "ladder"), &scaled.Args{
		Symbol:    args.Symbol,
		From:      args.From,
		To:        args.To,
		Count:     args.Count,
		Size:      ladderSize,
		Side:      args.Side,
		Easing:    args.Easing,
		VaryPrice: args.VaryPrice,
		VarySize:  args.VarySize,
		Session:   args.Session,
		Tag:       args.Tag,
	})
	if err != nil {
		return fmt.Errorf("could not place ping ladder: %w", err)
	}

	params := &Params{
		Symbol:           args.Symbol,
		Side:             args.Side,
		PingSize:         pingSize,
		PongSize:         pongSize,
		PingStep:         step,
		PongStep:         step,
		PongDistance:     distance,
		Endless:          args.Endless,
		Session:          args.Session,
		Tag:              args.Tag,
		AutoBalance:      args.AutoBalance,
		AutoBalanceEvery: args.AutoBalanceEvery,
		MinPollDelay:     args.MinPollDelay,
		MaxPollDelay:     args.MaxPollDelay,
	}
	loop, err := New(path.Join(uid, "loop"), ex, reg, params, pings, nil)
	if err != nil {
		return err
	}
	return loop.Run(ctx)
}
