// Copyright (c) 2025 BVK Chaitanya

package fakexchange

import (
	"fmt"
	"os"
	"sort"

	"github.com/bvk/algobot/exchange"
	"github.com/shopspring/decimal"
)

// Test hooks. None of these count as adapter calls.

func (f *Exchange) SetTicker(bid, ask decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticker = exchange.Ticker{Bid: bid, Ask: ask}
}

func (f *Exchange) SetBalance(currency string, amount, available decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceMap[currency] = exchange.Balance{
		Currency:  currency,
		Amount:    amount,
		Available: available,
	}
}

func (f *Exchange) SetPosition(p decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = p
}

func (f *Exchange) SetPrecision(pricePlaces, sizePlaces int32, minSize decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pricePlaces, f.sizePlaces, f.minSize = pricePlaces, sizePlaces, minSize
}

// FailPlacements makes the next n limit or market placements fail.
func (f *Exchange) FailPlacements(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPlacements = n
}

// Fill marks a resting order as filled.
func (f *Exchange) Fill(id exchange.OrderID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orderMap[id]
	if !ok {
		return fmt.Errorf("order %q: %w", id, os.ErrNotExist)
	}
	if !order.Open {
		return fmt.Errorf("order %q is not open: %w", id, os.ErrInvalid)
	}
	order.Filled, order.Open = true, false
	return nil
}

// FillNearest fills the open order on the given side closest to the market
// (highest-priced buy or lowest-priced sell). Returns the filled order.
func (f *Exchange) FillNearest(symbol string, side exchange.Side) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var best *Order
	for _, order := range f.orderMap {
		if order.Symbol != symbol || order.Side != side || !order.Open {
			continue
		}
		if best == nil {
			best = order
			continue
		}
		if side == exchange.Buy && order.Price.GreaterThan(best.Price) {
			best = order
		}
		if side == exchange.Sell && order.Price.LessThan(best.Price) {
			best = order
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no open %s orders for %q: %w", side, symbol, os.ErrNotExist)
	}
	best.Filled, best.Open = true, false
	cp := *best
	return &cp, nil
}

// OpenOrders returns copies of all open orders in placement order.
func (f *Exchange) OpenOrders(symbol string) []*Order {
	f.mu.Lock()
	defer f.mu.Unlock()

	var orders []*Order
	for _, order := range f.orderMap {
		if order.Symbol == symbol && order.Open {
			cp := *order
			orders = append(orders, &cp)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].seq < orders[j].seq })
	return orders
}

// Order returns a copy of the identified order.
func (f *Exchange) Order(id exchange.OrderID) (*Order, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orderMap[id]
	if !ok {
		return nil, false
	}
	cp := *order
	return &cp, true
}

func (f *Exchange) LimitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.limitCalls
}

func (f *Exchange) MarketCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marketCalls
}

func (f *Exchange) StatusCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

func (f *Exchange) TickerCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickerCalls
}

// CancelCount reports how many times the order was named in a cancel call.
func (f *Exchange) CancelCount(id exchange.OrderID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelCountMap[id]
}
