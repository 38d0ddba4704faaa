// Copyright (c) 2025 BVK Chaitanya

package exchange

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Throttled wraps an Exchange with a shared rate limit across all calls, so
// that polling loops and bulk placements stay within the adapter's request
// budget.
type Throttled struct {
	ex Exchange

	limiter *rate.Limiter
}

var _ Exchange = &Throttled{}

func Throttle(ex Exchange, limit rate.Limit, burst int) *Throttled {
	return &Throttled{
		ex:      ex,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (t *Throttled) Name() string {
	return t.ex.Name()
}

func (t *Throttled) LimitOrder(ctx context.Context, symbol, clientOrderID string, size, price decimal.Decimal, side Side) (OrderID, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.ex.LimitOrder(ctx, symbol, clientOrderID, size, price, side)
}

func (t *Throttled) MarketOrder(ctx context.Context, symbol, clientOrderID string, size decimal.Decimal, side Side) (OrderID, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.ex.MarketOrder(ctx, symbol, clientOrderID, size, side)
}

func (t *Throttled) CancelOrders(ctx context.Context, symbol string, ids []OrderID) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.ex.CancelOrders(ctx, symbol, ids)
}

func (t *Throttled) OrderStatus(ctx context.Context, symbol string, id OrderID) (OrderStatus, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return OrderStatus{}, err
	}
	return t.ex.OrderStatus(ctx, symbol, id)
}

func (t *Throttled) Ticker(ctx context.Context, symbol string) (Ticker, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return Ticker{}, err
	}
	return t.ex.Ticker(ctx, symbol)
}

func (t *Throttled) Balances(ctx context.Context) ([]Balance, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.ex.Balances(ctx)
}

// Rounding rules are local computations; they bypass the limiter.

func (t *Throttled) RoundPrice(symbol string, v decimal.Decimal) decimal.Decimal {
	return t.ex.RoundPrice(symbol, v)
}

func (t *Throttled) RoundSize(symbol string, v decimal.Decimal) decimal.Decimal {
	return t.ex.RoundSize(symbol, v)
}

func (t *Throttled) MinOrderSize(symbol string) decimal.Decimal {
	return t.ex.MinOrderSize(symbol)
}

func (t *Throttled) ResolveSize(ctx context.Context, symbol string, side Side, spec SizeSpec) (decimal.Decimal, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}
	return t.ex.ResolveSize(ctx, symbol, side, spec)
}
