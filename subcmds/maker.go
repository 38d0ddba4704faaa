// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"time"

	"github.com/bvk/algobot/algoreg"
	"github.com/bvk/algobot/ctl"
	"github.com/bvk/algobot/maker"
	"github.com/bvk/algobot/pingpong"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
)

type Maker struct {
	DataFlags
	ExchangeFlags

	symbol string

	spread float64

	bidCount  int
	bidAmount float64
	bidStep   float64

	askCount  int
	askAmount float64
	askStep   float64

	varyPrice float64
	varySize  float64

	autoBalance      string
	autoBalanceEvery time.Duration

	minPollDelay time.Duration
	maxPollDelay time.Duration

	session string
	tag     string
}

func (c *Maker) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("maker", flag.ContinueOnError)
	c.DataFlags.SetFlags(fset)
	c.ExchangeFlags.SetFlags(fset)
	fset.StringVar(&c.symbol, "symbol", "", "trading symbol, e.g. BTC-USD")
	fset.Float64Var(&c.spread, "spread", 0, "round-trip price distance for filled orders")
	fset.IntVar(&c.bidCount, "bid-count", 0, "number of bid ladder orders")
	fset.Float64Var(&c.bidAmount, "bid-amount", 0, "per-order size of the bid ladder")
	fset.Float64Var(&c.bidStep, "bid-step", 0, "price distance between bid ladder orders")
	fset.IntVar(&c.askCount, "ask-count", 0, "number of ask ladder orders")
	fset.Float64Var(&c.askAmount, "ask-amount", 0, "per-order size of the ask ladder")
	fset.Float64Var(&c.askStep, "ask-step", 0, "price distance between ask ladder orders")
	fset.Float64Var(&c.varyPrice, "vary-price", 0, "random price jitter fraction in [0, 1]")
	fset.Float64Var(&c.varySize, "vary-size", 0, "random size jitter fraction in [0, 1]")
	fset.StringVar(&c.autoBalance, "auto-balance", "none", "auto-balance mode (none, shuffle, market or limit)")
	fset.DurationVar(&c.autoBalanceEvery, "auto-balance-every", 30*time.Second, "minimum interval between auto-balance attempts")
	fset.DurationVar(&c.minPollDelay, "min-poll-delay", time.Second, "minimum delay between order polls")
	fset.DurationVar(&c.maxPollDelay, "max-poll-delay", 30*time.Second, "maximum delay between order polls")
	fset.StringVar(&c.session, "session", "", "session name for tagged cancellation")
	fset.StringVar(&c.tag, "tag", "", "tag for tagged cancellation")
	return "maker", fset, cli.CmdFunc(c.run)
}

func (c *Maker) Purpose() string {
	return "Runs a market maker around the current mid price"
}

func (c *Maker) run(ctx context.Context, args []string) error {
	mode, err := pingpong.ParseMode(c.autoBalance)
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
	reg := algoreg.New(db)

	// A second process cannot open the locked database, so cancel and list
	// commands reach this run through the control socket instead.
	sock, err := c.SocketPath()
	if err != nil {
		return err
	}
	srv, err := ctl.Listen(sock, reg)
	if err != nil {
		return err
	}
	defer srv.Close()

	ex, stopFeed, err := c.NewExchange(ctx, c.symbol)
	if err != nil {
		return err
	}
	defer stopFeed()

	return maker.Run(ctx, uuid.New().String(), ex, reg, &maker.Params{
		Symbol:           c.symbol,
		Spread:           decimal.NewFromFloat(c.spread),
		BidCount:         c.bidCount,
		BidAmount:        decimal.NewFromFloat(c.bidAmount),
		BidStep:          decimal.NewFromFloat(c.bidStep),
		AskCount:         c.askCount,
		AskAmount:        decimal.NewFromFloat(c.askAmount),
		AskStep:          decimal.NewFromFloat(c.askStep),
		VaryPrice:        c.varyPrice,
		VarySize:         c.varySize,
		AutoBalance:      mode,
		AutoBalanceEvery: c.autoBalanceEvery,
		Session:          c.session,
		Tag:              c.tag,
		MinPollDelay:     c.minPollDelay,
		MaxPollDelay:     c.maxPollDelay,
	})
}
