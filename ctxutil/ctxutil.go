// Copyright (c) 2025 BVK Chaitanya

// Package ctxutil implements small context.Context helpers.
package ctxutil

import (
	"context"
	"time"
)

// Sleep blocks for the given duration or till the input context is
// canceled, whichever happens first.
func Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Retry repeats the input function till it succeeds or the input context is
// canceled. Returns nil on success or the last non-nil error after the
// context has expired.
func Retry(ctx context.Context, interval time.Duration, f func() error) (err error) {
	for err = f(); err != nil && context.Cause(ctx) == nil; err = f() {
		Sleep(ctx, interval)
	}
	return err
}

// RetryTimeout is like Retry, but gives up after the given timeout even if
// the input context is still live.
func RetryTimeout(ctx context.Context, interval, timeout time.Duration, f func() error) error {
	sctx, scancel := context.WithTimeout(ctx, timeout)
	defer scancel()
	return Retry(sctx, interval, f)
}
