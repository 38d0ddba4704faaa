// Copyright (c) 2025 BVK Chaitanya

// Package exchange defines the narrow contract between the algo execution
// engine and an exchange adapter. Adapters translate these calls to their
// wire formats independently; the engine never sees exchange-specific data.
package exchange

import (
	"context"

	"github.com/shopspring/decimal"
)

type OrderID string

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderStatus is the engine's view of a resting order. An order that is
// neither filled nor open was canceled outside the engine.
type OrderStatus struct {
	Filled bool
	Open   bool
}

type Ticker struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

func (t Ticker) Mid() decimal.Decimal {
	return t.Bid.Add(t.Ask).Div(decimal.NewFromInt(2))
}

type Balance struct {
	Currency  string
	Amount    decimal.Decimal
	Available decimal.Decimal
}

// SizeSpec is a user-supplied order size: an absolute size in the base
// asset, a percentage of the available wallet balance, or a target
// position. Adapters resolve a spec to a concrete size exactly once per
// command invocation.
type SizeSpec struct {
	// Amount is the absolute size, or the percentage value when Percent is
	// true.
	Amount decimal.Decimal

	Percent bool

	// Position is the target position size. It is only meaningful when
	// HasPosition is true, in which case Amount and Percent are ignored.
	Position    decimal.Decimal
	HasPosition bool
}

func (s SizeSpec) IsZero() bool {
	return !s.HasPosition && s.Amount.IsZero()
}

// Exchange is the complete adapter capability surface the engine depends
// on. All blocking operations take a context; none of them impose their own
// timeouts.
type Exchange interface {
	Name() string

	// LimitOrder places a resting limit order and returns its exchange-side
	// id. The clientOrderID makes retries idempotent on adapters that
	// support it.
	LimitOrder(ctx context.Context, symbol, clientOrderID string, size, price decimal.Decimal, side Side) (OrderID, error)

	// MarketOrder places an immediate order at the current market price.
	MarketOrder(ctx context.Context, symbol, clientOrderID string, size decimal.Decimal, side Side) (OrderID, error)

	// CancelOrders cancels the given orders in one call. Canceling an order
	// that is already filled or canceled is not an error.
	CancelOrders(ctx context.Context, symbol string, ids []OrderID) error

	OrderStatus(ctx context.Context, symbol string, id OrderID) (OrderStatus, error)

	Ticker(ctx context.Context, symbol string) (Ticker, error)

	Balances(ctx context.Context) ([]Balance, error)

	// Sizing capabilities. Rounding follows the instrument's price and size
	// increments; sizes below MinOrderSize are not placeable.
	RoundPrice(symbol string, v decimal.Decimal) decimal.Decimal
	RoundSize(symbol string, v decimal.Decimal) decimal.Decimal
	MinOrderSize(symbol string) decimal.Decimal

	// ResolveSize converts a symbolic size spec into a concrete base-asset
	// quantity. A zero result means there is nothing to trade.
	ResolveSize(ctx context.Context, symbol string, side Side, spec SizeSpec) (decimal.Decimal, error)
}
