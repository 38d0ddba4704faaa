// Copyright (c) 2025 BVK Chaitanya

// Package gobs holds the gob-encoded data types saved in the key-value
// database. Types in this package must stay backward compatible; fields can
// be added, but never renamed or removed.
package gobs

import "github.com/shopspring/decimal"

// AlgoOrderRecord identifies one running algo strategy. A record is created
// when the strategy loop starts and removed exactly once when it exits.
// External commands only ever flip the Cancelled flag.
type AlgoOrderRecord struct {
	ID string

	Side string

	Session string
	Tag     string

	Cancelled bool
}

// SessionOrder records one order placed during a command session, so that
// resting orders can be canceled later in bulk by session and tag.
type SessionOrder struct {
	Session string
	Tag     string

	Symbol  string
	OrderID string

	Side  string
	Size  decimal.Decimal
	Price decimal.Decimal
}
