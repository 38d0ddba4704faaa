// Copyright (c) 2025 BVK Chaitanya

package algoreg

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/bvk/algobot/gobs"
	"github.com/bvk/algobot/kvutil"
	"github.com/bvkgo/kv"
)

func sessionKey(session, tag, orderID string) string {
	if session == "" {
		session = "-"
	}
	if tag == "" {
		tag = "-"
	}
	return path.Join(SessionKeyspace, session, tag, orderID)
}

// AddOrder records a placed order under its session and tag, for later
// tagged cancellation.
func (r *Registry) AddOrder(ctx context.Context, order *gobs.SessionOrder) error {
	if order.OrderID == "" {
		return fmt.Errorf("session order id cannot be empty: %w", os.ErrInvalid)
	}
	key := sessionKey(order.Session, order.Tag, order.OrderID)
	return kvutil.SetDB(ctx, r.db, key, order)
}

// SessionOrders returns all recorded orders for the session and tag.
func (r *Registry) SessionOrders(ctx context.Context, session, tag string) ([]*gobs.SessionOrder, error) {
	if session == "" {
		session = "-"
	}
	if tag == "" {
		tag = "-"
	}
	var orders []*gobs.SessionOrder
	begin, end := kvutil.PathRange(path.Join(SessionKeyspace, session, tag))
	err := kvutil.AscendDB(ctx, r.db, begin, end, func(_ context.Context, _ kv.Reader, _ string, order *gobs.SessionOrder) error {
		orders = append(orders, order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// RemoveSessionOrder drops one recorded order, typically after it was
// canceled through a tagged cancel.
func (r *Registry) RemoveSessionOrder(ctx context.Context, order *gobs.SessionOrder) error {
	return kvutil.DeleteDB(ctx, r.db, sessionKey(order.Session, order.Tag, order.OrderID))
}
