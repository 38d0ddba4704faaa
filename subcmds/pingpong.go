// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"time"

	"github.com/bvk/algobot/algoreg"
	"github.com/bvk/algobot/ctl"
	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/pingpong"
	"github.com/bvk/algobot/scaled"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
)

type PingPong struct {
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

	pongDistance float64
	pingSize     float64
	pongSize     float64

	endless bool

	autoBalance      string
	autoBalanceEvery time.Duration

	minPollDelay time.Duration
	maxPollDelay time.Duration

	session string
	tag     string
}

func (c *PingPong) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("ping-pong", flag.ContinueOnError)
	c.DataFlags.SetFlags(fset)
	c.ExchangeFlags.SetFlags(fset)
	c.SizeFlags.SetFlags(fset)
	fset.StringVar(&c.symbol, "symbol", "", "trading symbol, e.g. BTC-USD")
	fset.StringVar(&c.side, "side", "BUY", "ping order side (BUY or SELL)")
	fset.Float64Var(&c.from, "from", 0, "price of the first ping order")
	fset.Float64Var(&c.to, "to", 0, "price of the last ping order")
	fset.IntVar(&c.count, "count", 0, "number of ping orders")
	fset.StringVar(&c.easing, "easing", "linear", "ladder price spacing (linear, ease-in or ease-out)")
	fset.Float64Var(&c.varyPrice, "vary-price", 0, "random price jitter fraction in [0, 1]")
	fset.Float64Var(&c.varySize, "vary-size", 0, "random size jitter fraction in [0, 1]")
	fset.Float64Var(&c.pongDistance, "pong-distance", 0, "price distance for the opposite orders (defaults to the ladder step)")
	fset.Float64Var(&c.pingSize, "ping-size", 0, "per-order size for spawned ping orders")
	fset.Float64Var(&c.pongSize, "pong-size", 0, "per-order size for spawned pong orders")
	fset.BoolVar(&c.endless, "endless", false, "round-trip pong fills back into pings forever")
	fset.StringVar(&c.autoBalance, "auto-balance", "none", "auto-balance mode (none, shuffle, market or limit)")
	fset.DurationVar(&c.autoBalanceEvery, "auto-balance-every", 30*time.Second, "minimum interval between auto-balance attempts")
	fset.DurationVar(&c.minPollDelay, "min-poll-delay", time.Second, "minimum delay between order polls")
	fset.DurationVar(&c.maxPollDelay, "max-poll-delay", 30*time.Second, "maximum delay between order polls")
	fset.StringVar(&c.session, "session", "", "session name for tagged cancellation")
	fset.StringVar(&c.tag, "tag", "", "tag for tagged cancellation")
	return "ping-pong", fset, cli.CmdFunc(c.run)
}

func (c *PingPong) Purpose() string {
	return "Runs a ping-pong loop over a scaled order ladder"
}

func (c *PingPong) run(ctx context.Context, args []string) error {
	size, err := c.SizeSpec()
	if err != nil {
		return err
	}
	easing, err := scaled.ParseEasing(c.easing)
	if err != nil {
		return err
	}
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

	return pingpong.Trade(ctx, uuid.New().String(), ex, reg, &pingpong.TradeArgs{
		Symbol:           c.symbol,
		From:             decimal.NewFromFloat(c.from),
		To:               decimal.NewFromFloat(c.to),
		Count:            c.count,
		Size:             size,
		Side:             exchange.Side(c.side),
		Easing:           easing,
		VaryPrice:        c.varyPrice,
		VarySize:         c.varySize,
		PongDistance:     decimal.NewFromFloat(c.pongDistance),
		PingSize:         decimal.NewFromFloat(c.pingSize),
		PongSize:         decimal.NewFromFloat(c.pongSize),
		Endless:          c.endless,
		AutoBalance:      mode,
		AutoBalanceEvery: c.autoBalanceEvery,
		Session:          c.session,
		Tag:              c.tag,
		MinPollDelay:     c.minPollDelay,
		MaxPollDelay:     c.maxPollDelay,
	})
}
