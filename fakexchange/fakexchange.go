// Copyright (c) 2025 BVK Chaitanya

// Package fakexchange implements an in-memory exchange adapter for tests
// and simulated strategy runs. Orders rest until a test hook fills them or
// a cancel request removes them; nothing fills spontaneously.
package fakexchange

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bvk/algobot/exchange"
	"github.com/shopspring/decimal"
)

type Order struct {
	OrderID       exchange.OrderID
	ClientOrderID string

	Symbol string
	Side   exchange.Side

	Size  decimal.Decimal
	Price decimal.Decimal

	Market bool

	Filled bool
	Open   bool

	seq int
}

type Exchange struct {
	mu sync.Mutex

	orderMap map[exchange.OrderID]*Order

	nextSeq int

	ticker exchange.Ticker

	balanceMap map[string]exchange.Balance

	position decimal.Decimal

	pricePlaces int32
	sizePlaces  int32
	minSize     decimal.Decimal

	// failPlacements makes the next N order placements fail.
	failPlacements int

	limitCalls  int
	marketCalls int
	statusCalls int
	tickerCalls int

	cancelCountMap map[exchange.OrderID]int
}

var _ exchange.Exchange = &Exchange{}

func New() *Exchange {
	return &Exchange{
		orderMap:       make(map[exchange.OrderID]*Order),
		balanceMap:     make(map[string]exchange.Balance),
		cancelCountMap: make(map[exchange.OrderID]int),
		pricePlaces:    4,
		sizePlaces:     6,
		minSize:        decimal.New(1, -6),
		ticker: exchange.Ticker{
			Bid: decimal.NewFromInt(1000),
			Ask: decimal.NewFromInt(1000),
		},
	}
}

func (f *Exchange) Name() string {
	return "fake"
}

func (f *Exchange) LimitOrder(ctx context.Context, symbol, clientOrderID string, size, price decimal.Decimal, side exchange.Side) (exchange.OrderID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.limitCalls++
	if f.failPlacements > 0 {
		f.failPlacements--
		return "", fmt.Errorf("placement refused: %w", os.ErrInvalid)
	}
	if size.LessThan(f.minSize) {
		return "", fmt.Errorf("size %s is below the minimum %s: %w", size, f.minSize, os.ErrInvalid)
	}

	order := &Order{
		OrderID:       exchange.OrderID(fmt.Sprintf("order-%06d", f.nextSeq)),
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Side:          side,
		Size:          size,
		Price:         price,
		Open:          true,
		seq:           f.nextSeq,
	}
	f.nextSeq++
	f.orderMap[order.OrderID] = order
	return order.OrderID, nil
}

func (f *Exchange) MarketOrder(ctx context.Context, symbol, clientOrderID string, size decimal.Decimal, side exchange.Side) (exchange.OrderID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.marketCalls++
	if f.failPlacements > 0 {
		f.failPlacements--
		return "", fmt.Errorf("placement refused: %w", os.ErrInvalid)
	}

	order := &Order{
		OrderID:       exchange.OrderID(fmt.Sprintf("order-%06d", f.nextSeq)),
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Side:          side,
		Size:          size,
		Price:         f.ticker.Mid(),
		Market:        true,
		Filled:        true,
		seq:           f.nextSeq,
	}
	f.nextSeq++
	f.orderMap[order.OrderID] = order
	return order.OrderID, nil
}

func (f *Exchange) CancelOrders(ctx context.Context, symbol string, ids []exchange.OrderID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range ids {
		f.cancelCountMap[id]++
		if order, ok := f.orderMap[id]; ok && !order.Filled {
			order.Open = false
		}
	}
	return nil
}

func (f *Exchange) OrderStatus(ctx context.Context, symbol string, id exchange.OrderID) (exchange.OrderStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.statusCalls++
	order, ok := f.orderMap[id]
	if !ok {
		return exchange.OrderStatus{}, fmt.Errorf("order %q: %w", id, os.ErrNotExist)
	}
	return exchange.OrderStatus{Filled: order.Filled, Open: order.Open}, nil
}

func (f *Exchange) Ticker(ctx context.Context, symbol string) (exchange.Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tickerCalls++
	return f.ticker, nil
}

func (f *Exchange) Balances(ctx context.Context) ([]exchange.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var bs []exchange.Balance
	for _, b := range f.balanceMap {
		bs = append(bs, b)
	}
	sort.Slice(bs, func(i, j int) bool { return bs[i].Currency < bs[j].Currency })
	return bs, nil
}

func (f *Exchange) RoundPrice(symbol string, v decimal.Decimal) decimal.Decimal {
	return v.Truncate(f.pricePlaces)
}

func (f *Exchange) RoundSize(symbol string, v decimal.Decimal) decimal.Decimal {
	return v.Truncate(f.sizePlaces)
}

func (f *Exchange) MinOrderSize(symbol string) decimal.Decimal {
	return f.minSize
}

// ResolveSize resolves percentages against the available wallet balance:
// the base asset balance for sells and the quote balance (converted at the
// current ask) for buys. Position targets resolve to the delta between the
// target and the current position, or zero when the delta points away from
// the requested side.
func (f *Exchange) ResolveSize(ctx context.Context, symbol string, side exchange.Side, spec exchange.SizeSpec) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if spec.HasPosition {
		delta := spec.Position.Sub(f.position)
		if side == exchange.Buy && delta.IsPositive() {
			return delta.Truncate(f.sizePlaces), nil
		}
		if side == exchange.Sell && delta.IsNegative() {
			return delta.Neg().Truncate(f.sizePlaces), nil
		}
		return decimal.Zero, nil
	}

	if !spec.Percent {
		return spec.Amount.Truncate(f.sizePlaces), nil
	}

	base, quote, ok := strings.Cut(symbol, "-")
	if !ok {
		return decimal.Zero, fmt.Errorf("symbol %q has no base-quote separator: %w", symbol, os.ErrInvalid)
	}
	pct := spec.Amount.Div(decimal.NewFromInt(100))
	if side == exchange.Sell {
		return f.balanceMap[base].Available.Mul(pct).Truncate(f.sizePlaces), nil
	}
	if f.ticker.Ask.IsZero() {
		return decimal.Zero, fmt.Errorf("no ask price for %q: %w", symbol, os.ErrInvalid)
	}
	funds := f.balanceMap[quote].Available.Mul(pct)
	return funds.Div(f.ticker.Ask).Truncate(f.sizePlaces), nil
}
