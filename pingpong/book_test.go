// Copyright (c) 2025 BVK Chaitanya

package pingpong

import (
	"testing"

	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/scaled"
	"github.com/shopspring/decimal"
)

func entry(id string, price int64) *scaled.Entry {
	return &scaled.Entry{
		OrderID: exchange.OrderID(id),
		Price:   decimal.NewFromInt(price),
	}
}

func checkOrder(t *testing.T, b *book, want []string) {
	t.Helper()
	if b.Len() != len(want) {
		t.Fatalf("wanted %d entries, got %d", len(want), b.Len())
	}
	for i, e := range b.Entries() {
		if string(e.OrderID) != want[i] {
			t.Fatalf("entry %d: wanted %s, got %s", i, want[i], e.OrderID)
		}
	}
}

func TestBookBuyOrder(t *testing.T) {
	b := newBook(exchange.Buy, []*scaled.Entry{
		entry("a", 980),
		entry("b", 1000),
		entry("c", 990),
	})
	checkOrder(t, b, []string{"b", "c", "a"})

	if first := b.First(); !first.Price.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("wanted the highest buy first, got %s", first.Price)
	}
	if last := b.Last(); !last.Price.Equal(decimal.NewFromInt(980)) {
		t.Fatalf("wanted the lowest buy last, got %s", last.Price)
	}
}

func TestBookSellOrder(t *testing.T) {
	b := newBook(exchange.Sell, []*scaled.Entry{
		entry("a", 1100),
		entry("b", 1050),
		entry("c", 1200),
	})
	checkOrder(t, b, []string{"b", "a", "c"})
}

func TestBookDropsUnplaced(t *testing.T) {
	b := newBook(exchange.Buy, []*scaled.Entry{
		entry("a", 1000),
		entry("", 990),
		entry("c", 980),
	})
	checkOrder(t, b, []string{"a", "c"})
}

func TestBookInsertReplaces(t *testing.T) {
	b := newBook(exchange.Buy, []*scaled.Entry{
		entry("a", 1000),
		entry("b", 990),
	})
	b.Insert(entry("a", 985))
	checkOrder(t, b, []string{"b", "a"})
}

func TestBookPop(t *testing.T) {
	b := newBook(exchange.Sell, []*scaled.Entry{
		entry("a", 1100),
		entry("b", 1050),
	})
	if e := b.PopFirst(); string(e.OrderID) != "b" {
		t.Fatalf("wanted b, got %s", e.OrderID)
	}
	if e := b.PopLast(); string(e.OrderID) != "a" {
		t.Fatalf("wanted a, got %s", e.OrderID)
	}
	if b.PopFirst() != nil || b.PopLast() != nil || b.First() != nil || b.Last() != nil {
		t.Fatalf("empty book must return nil entries")
	}
}
