// Copyright (c) 2025 BVK Chaitanya

package pingpong

import (
	"sort"

	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/scaled"
	"github.com/shopspring/decimal"
)

// book holds one side's resting orders sorted closest-to-the-market first:
// buys in descending price order, sells in ascending price order. Only the
// first entry is polled for fills; the rest cannot fill before it does.
type book struct {
	side exchange.Side

	entries []*scaled.Entry
}

// newBook creates a book from ladder entries, dropping entries whose
// placement failed (empty OrderID).
func newBook(side exchange.Side, entries []*scaled.Entry) *book {
	b := &book{side: side}
	for _, e := range entries {
		if e.OrderID == "" {
			continue
		}
		b.Insert(e)
	}
	return b
}

// closer reports whether price a is closer to the market than price b.
func (b *book) closer(a, c decimal.Decimal) bool {
	if b.side == exchange.Buy {
		return a.GreaterThan(c)
	}
	return a.LessThan(c)
}

func (b *book) Len() int {
	return len(b.entries)
}

// First returns the entry closest to the market.
func (b *book) First() *scaled.Entry {
	if len(b.entries) == 0 {
		return nil
	}
	return b.entries[0]
}

// Last returns the entry furthest from the market.
func (b *book) Last() *scaled.Entry {
	if len(b.entries) == 0 {
		return nil
	}
	return b.entries[len(b.entries)-1]
}

func (b *book) PopFirst() *scaled.Entry {
	if len(b.entries) == 0 {
		return nil
	}
	e := b.entries[0]
	b.entries = b.entries[1:]
	return e
}

func (b *book) PopLast() *scaled.Entry {
	if len(b.entries) == 0 {
		return nil
	}
	e := b.entries[len(b.entries)-1]
	b.entries = b.entries[:len(b.entries)-1]
	return e
}

// Insert adds an entry at its sorted position. An existing entry with the
// same order id is replaced.
func (b *book) Insert(e *scaled.Entry) {
	for i, x := range b.entries {
		if x.OrderID == e.OrderID {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			break
		}
	}
	i := sort.Search(len(b.entries), func(i int) bool {
		return !b.closer(b.entries[i].Price, e.Price)
	})
	b.entries = append(b.entries, nil)
	copy(b.entries[i+1:], b.entries[i:])
	b.entries[i] = e
}

func (b *book) IDs() []exchange.OrderID {
	ids := make([]exchange.OrderID, 0, len(b.entries))
	for _, e := range b.entries {
		ids = append(ids, e.OrderID)
	}
	return ids
}

func (b *book) Clear() {
	b.entries = nil
}

func (b *book) Entries() []*scaled.Entry {
	out := make([]*scaled.Entry, len(b.entries))
	copy(out, b.entries)
	return out
}
