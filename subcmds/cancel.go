// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/bvk/algobot/algoreg"
	"github.com/bvk/algobot/ctl"
	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/gobs"
	"github.com/visvasity/cli"
)

type Cancel struct {
	DataFlags
	ExchangeFlags

	session string
	tag     string
}

func (c *Cancel) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("cancel", flag.ContinueOnError)
	c.DataFlags.SetFlags(fset)
	c.ExchangeFlags.SetFlags(fset)
	fset.StringVar(&c.session, "session", "", "cancel algo orders of this session")
	fset.StringVar(&c.tag, "tag", "", "cancel algo orders with this tag")
	return "cancel", fset, cli.CmdFunc(c.run)
}

func (c *Cancel) Purpose() string {
	return "Cancels algo orders by id or by session/tag"
}

func (c *Cancel) run(ctx context.Context, args []string) error {
	if len(args) == 0 && len(c.session) == 0 && len(c.tag) == 0 {
		return fmt.Errorf("cancel takes algo order ids or a -session/-tag selector")
	}

	// A running strategy holds the database lock for its whole run, so its
	// registry is reached through the control socket. Without a live process
	// the socket dial fails and the database is opened directly.
	if sock, err := c.SocketPath(); err == nil {
		if client, err := ctl.Dial(sock); err == nil {
			return c.cancelLive(ctx, client, args)
		}
	}

	db, closer, err := c.OpenDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()
	reg := algoreg.New(db)

	for _, id := range args {
		if err := reg.Cancel(ctx, id); err != nil {
			return fmt.Errorf("could not cancel algo order %q: %w", id, err)
		}
		fmt.Printf("cancelled %s\n", id)
	}
	if len(c.session) == 0 && len(c.tag) == 0 {
		return nil
	}

	ids, err := reg.CancelTag(ctx, c.session, c.tag)
	if err != nil {
		return fmt.Errorf("could not cancel algo orders by tag: %w", err)
	}
	for _, id := range ids {
		fmt.Printf("cancelled %s\n", id)
	}

	// Resting orders recorded directly under the session, e.g. by the
	// scaled command, have no polling loop to clean them up; cancel them on
	// the exchange here.
	orders, err := reg.SessionOrders(ctx, c.session, c.tag)
	if err != nil {
		return fmt.Errorf("could not list session orders: %w", err)
	}
	if len(orders) == 0 {
		return nil
	}

	symbolMap := make(map[string][]*gobs.SessionOrder)
	for _, order := range orders {
		symbolMap[order.Symbol] = append(symbolMap[order.Symbol], order)
	}
	for symbol, orders := range symbolMap {
		ex, stopFeed, err := c.NewExchange(ctx, symbol)
		if err != nil {
			return err
		}
		oids := make([]exchange.OrderID, 0, len(orders))
		for _, order := range orders {
			oids = append(oids, exchange.OrderID(order.OrderID))
		}
		err = ex.CancelOrders(ctx, symbol, oids)
		stopFeed()
		if err != nil {
			return fmt.Errorf("could not cancel %d orders on %q: %w", len(oids), symbol, err)
		}
		for _, order := range orders {
			if err := reg.RemoveSessionOrder(ctx, order); err != nil {
				log.Printf("could not remove session order %s (ignored): %v", order.OrderID, err)
			}
		}
		fmt.Printf("cancelled %d orders on %s\n", len(oids), symbol)
	}
	return nil
}

// cancelLive flips the cancelled flags through a live strategy process. The
// owning loops cancel their own resting orders on the exchange once they
// observe the flag.
func (c *Cancel) cancelLive(ctx context.Context, client *ctl.Client, args []string) error {
	for _, id := range args {
		if _, err := client.Cancel(ctx, &ctl.CancelRequest{ID: id}); err != nil {
			return fmt.Errorf("could not cancel algo order %q: %w", id, err)
		}
		fmt.Printf("cancelled %s\n", id)
	}
	if len(c.session) == 0 && len(c.tag) == 0 {
		return nil
	}

	resp, err := client.Cancel(ctx, &ctl.CancelRequest{Session: c.session, Tag: c.tag})
	if err != nil {
		return fmt.Errorf("could not cancel algo orders by tag: %w", err)
	}
	for _, id := range resp.IDs {
		fmt.Printf("cancelled %s\n", id)
	}
	return nil
}
