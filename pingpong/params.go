// Copyright (c) 2025 BVK Chaitanya

// Package pingpong implements the round-trip scheduler: two lists of
// resting orders (pings and pongs) where every filled ping spawns a pong on
// the opposite side of the book, and vice versa in endless mode. The loop
// keeps running until both lists drain or the algo order is cancelled.
package pingpong

import (
	"fmt"
	"os"
	"time"

	"github.com/bvk/algobot/exchange"
	"github.com/shopspring/decimal"
)

// Mode selects the auto-balance strategy used when the two order lists
// drift out of proportion.
type Mode string

const (
	// None disables auto-balancing.
	None Mode = "none"

	// Shuffle moves the furthest order of a one-sided book one step closer
	// to the rest when the market drifts away.
	Shuffle Mode = "shuffle"

	// Market cancels the most extreme order on the overrepresented side,
	// flattens the imbalance with an immediate market trade, and re-places
	// the order on the underrepresented side.
	Market Mode = "market"

	// Limit is like Market, but flattens with a time-limited resting order
	// instead of a market trade.
	Limit Mode = "limit"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case None, Shuffle, Market, Limit:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown auto-balance mode %q: %w", s, os.ErrInvalid)
}

// Params is the immutable configuration for one scheduler run. Values are
// fully resolved before the loop starts and never change afterwards.
type Params struct {
	Symbol string

	// Side is the owning side of the strategy; ping orders are on this
	// side, pong orders on the opposite one.
	Side exchange.Side

	// PingSize and PongSize are the per-order amounts used when spawning
	// replacement orders on the respective sides.
	PingSize decimal.Decimal
	PongSize decimal.Decimal

	// PingStep and PongStep are the ladder step sizes, used by the
	// auto-balance strategies when re-placing orders.
	PingStep decimal.Decimal
	PongStep decimal.Decimal

	// PongDistance is how far, in price, the opposite order is placed from
	// a filled order.
	PongDistance decimal.Decimal

	// Endless keeps round-tripping pong fills back into pings forever;
	// such a strategy only ends through cancellation.
	Endless bool

	Session string
	Tag     string

	AutoBalance Mode

	// AutoBalanceEvery is the minimum interval between auto-balance
	// attempts.
	AutoBalanceEvery time.Duration

	// AutoBalanceAt is the minority-side fraction below which the ratio
	// balancers act.
	AutoBalanceAt float64

	// MinBalancePopulation is the smallest total resting order count at
	// which side ratios are considered meaningful.
	MinBalancePopulation int

	// MaxPendingOps bounds the fire-and-forget rebalance operations in
	// flight; the oldest is joined before a new one starts when full.
	MaxPendingOps int

	// PendingOrderLifetime is the maximum lifetime of a time-limited
	// rebalance order, and the interval after which pending operations are
	// drained.
	PendingOrderLifetime time.Duration

	// MinPollDelay and MaxPollDelay bound the adaptive backoff between
	// scheduler iterations.
	MinPollDelay time.Duration
	MaxPollDelay time.Duration
}

func (p *Params) SetDefaults() {
	if p.Side == "" {
		p.Side = exchange.Buy
	}
	if p.AutoBalance == "" {
		p.AutoBalance = None
	}
	if p.AutoBalanceEvery == 0 {
		p.AutoBalanceEvery = 30 * time.Second
	}
	if p.AutoBalanceAt == 0 {
		p.AutoBalanceAt = 0.2
	}
	if p.MinBalancePopulation == 0 {
		p.MinBalancePopulation = 6
	}
	if p.MaxPendingOps == 0 {
		p.MaxPendingOps = 4
	}
	if p.PendingOrderLifetime == 0 {
		p.PendingOrderLifetime = time.Minute
	}
	if p.MinPollDelay == 0 {
		p.MinPollDelay = time.Second
	}
	if p.MaxPollDelay == 0 {
		p.MaxPollDelay = 30 * time.Second
	}
}

func (p *Params) Check() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol cannot be empty: %w", os.ErrInvalid)
	}
	if p.Side != exchange.Buy && p.Side != exchange.Sell {
		return fmt.Errorf("side %q is invalid: %w", p.Side, os.ErrInvalid)
	}
	if _, err := ParseMode(string(p.AutoBalance)); err != nil {
		return err
	}
	if p.PongDistance.IsNegative() || p.PongDistance.IsZero() {
		return fmt.Errorf("pong distance must be positive: %w", os.ErrInvalid)
	}
	if p.PingSize.IsNegative() || p.PongSize.IsNegative() {
		return fmt.Errorf("ping/pong sizes cannot be negative: %w", os.ErrInvalid)
	}
	if p.PingStep.IsNegative() || p.PongStep.IsNegative() {
		return fmt.Errorf("ping/pong steps cannot be negative: %w", os.ErrInvalid)
	}
	if p.AutoBalanceAt < 0 || p.AutoBalanceAt >= 0.5 {
		return fmt.Errorf("auto-balance threshold must be in [0, 0.5): %w", os.ErrInvalid)
	}
	if p.MinPollDelay <= 0 || p.MaxPollDelay < p.MinPollDelay {
		return fmt.Errorf("poll delay bounds are invalid: %w", os.ErrInvalid)
	}
	return nil
}
