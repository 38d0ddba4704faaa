// Copyright (c) 2025 BVK Chaitanya

// Package ctl implements the control endpoint of a running strategy
// process. The process owning the data directory serves a small JSON API on
// a unix socket inside it, so that cancel and list commands from a second
// process can reach the live algo-order registry while the database lock is
// held.
package ctl

import "github.com/bvk/algobot/gobs"

const (
	CancelPath = "/algo/cancel"
	ListPath   = "/algo/list"
)

type CancelRequest struct {
	// ID cancels one algo order. When empty, Session and Tag select the
	// records to cancel instead.
	ID string

	Session string
	Tag     string
}

type CancelResponse struct {
	IDs []string
}

type ListRequest struct {
}

type ListResponse struct {
	Records []*gobs.AlgoOrderRecord
}
