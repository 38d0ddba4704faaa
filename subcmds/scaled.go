// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/algobot/algoreg"
	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/scaled"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
)

type Scaled struct {
	DataFlags
	ExchangeFlags
	SizeFlags

	symbol string
	side   string

	from  float64
	to    float64
	count int

	easing    string
	varyPrice float64
	varySize  float64

	session string
	tag     string
}

func (c *Scaled) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("scaled", flag.ContinueOnError)
	c.DataFlags.SetFlags(fset)
	c.ExchangeFlags.SetFlags(fset)
	c.SizeFlags.SetFlags(fset)
	fset.StringVar(&c.symbol, "symbol", "", "trading symbol, e.g. BTC-USD")
	fset.StringVar(&c.side, "side", "BUY", "order side (BUY or SELL)")
	fset.Float64Var(&c.from, "from", 0, "price of the first ladder order")
	fset.Float64Var(&c.to, "to", 0, "price of the last ladder order")
	fset.IntVar(&c.count, "count", 0, "number of ladder orders")
	fset.StringVar(&c.easing, "easing", "linear", "ladder price spacing (linear, ease-in or ease-out)")
	fset.Float64Var(&c.varyPrice, "vary-price", 0, "random price jitter fraction in [0, 1]")
	fset.Float64Var(&c.varySize, "vary-size", 0, "random size jitter fraction in [0, 1]")
	fset.StringVar(&c.session, "session", "", "session name for tagged cancellation")
	fset.StringVar(&c.tag, "tag", "", "tag for tagged cancellation")
	return "scaled", fset, cli.CmdFunc(c.run)
}

func (c *Scaled) Purpose() string {
	return "Places a scaled ladder of limit orders"
}

func (c *Scaled) run(ctx context.Context, args []string) error {
	size, err := c.SizeSpec()
	if err != nil {
		return err
	}
	easing, err := scaled.ParseEasing(c.easing)
	if err != nil {
		return err
	}

	stopLogging := c.SetupLogging()
	defer stopLogging()

	db, closer, err := c.OpenDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	ex, stopFeed, err := c.NewExchange(ctx, c.symbol)
	if err != nil {
		return err
	}
	defer stopFeed()

	placer := scaled.NewPlacer(ex, algoreg.New(db))
	entries, err := placer.Place(ctx, uuid.New().String(), &scaled.Args{
		Symbol:    c.symbol,
		From:      decimal.NewFromFloat(c.from),
		To:        decimal.NewFromFloat(c.to),
		Count:     c.count,
		Size:      size,
		Side:      exchange.Side(c.side),
		Easing:    easing,
		VaryPrice: c.varyPrice,
		VarySize:  c.varySize,
		Session:   c.session,
		Tag:       c.tag,
	})
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.OrderID == "" {
			fmt.Printf("failed: %s\n", entry)
			continue
		}
		fmt.Printf("%s: %s\n", entry.OrderID, entry)
	}
	return nil
}
