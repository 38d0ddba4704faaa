// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/bvk/algobot/tickerfeed"
	"github.com/visvasity/cli"
)

type Feed struct {
	url    string
	symbol string

	count int
}

func (c *Feed) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("feed", flag.ContinueOnError)
	fset.StringVar(&c.url, "feed-url", "", "websocket url of the ticker feed")
	fset.StringVar(&c.symbol, "symbol", "", "feed symbol, e.g. tBTCUSD")
	fset.IntVar(&c.count, "count", 0, "number of quotes to print (zero for unlimited)")
	return "feed", fset, cli.CmdFunc(c.run)
}

func (c *Feed) Purpose() string {
	return "Prints live quotes from a websocket ticker feed"
}

func (c *Feed) run(ctx context.Context, args []string) error {
	if len(c.url) == 0 || len(c.symbol) == 0 {
		return fmt.Errorf("feed needs both -feed-url and -symbol")
	}

	feed := tickerfeed.New(ctx, c.symbol, &tickerfeed.Options{WebsocketURL: c.url})
	defer feed.Close()

	ch, unsub := feed.TickerCh()
	defer unsub()

	for n := 0; c.count == 0 || n < c.count; n++ {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case t, ok := <-ch:
			if !ok {
				return nil
			}
			fmt.Printf("%s %s bid %s ask %s\n", time.Now().Format(time.RFC3339), c.symbol, t.Bid, t.Ask)
		}
	}
	return nil
}
