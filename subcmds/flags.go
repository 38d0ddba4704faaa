// Copyright (c) 2025 BVK Chaitanya

// Package subcmds implements the algobot command-line subcommands.
package subcmds

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bvk/algobot/exchange"
	"github.com/bvk/algobot/fakexchange"
	"github.com/bvk/algobot/tickerfeed"
	"github.com/bvkgo/kv"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/nightlyone/lockfile"
	"github.com/shopspring/decimal"
	"github.com/visvasity/sglog"
	"golang.org/x/time/rate"
)

// DataFlags holds the data directory flags shared by all commands that need
// the key-value database.
type DataFlags struct {
	dataDir string
	logDir  string
}

func (df *DataFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&df.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&df.logDir, "log-dir", "", "path to the log files directory")
}

func isGoodKey(k string) bool {
	return path.IsAbs(k) && k == path.Clean(k)
}

func (df *DataFlags) resolveDataDir() (string, error) {
	dir := df.dataDir
	if len(dir) == 0 {
		dir = filepath.Join(os.Getenv("HOME"), ".algobot")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("could not create data directory %q: %w", dir, err)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("could not determine data-dir %q absolute path: %w", dir, err)
	}
	return dir, nil
}

// SocketPath returns the control socket path inside the data directory,
// where a running strategy process serves the ctl API.
func (df *DataFlags) SocketPath() (string, error) {
	dir, err := df.resolveDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "algobot.sock"), nil
}

// OpenDatabase locks the data directory and opens the database in it. The
// returned closer releases the lock and closes the database.
func (df *DataFlags) OpenDatabase(ctx context.Context) (kv.Database, func(), error) {
	dir, err := df.resolveDataDir()
	if err != nil {
		return nil, nil, err
	}

	lockPath := filepath.Join(dir, "algobot.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		return nil, nil, fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
	}

	bopts := badger.DefaultOptions(dir)
	bdb, err := badger.Open(bopts)
	if err != nil {
		flock.Unlock()
		return nil, nil, fmt.Errorf("could not open the database: %w", err)
	}

	closer := func() {
		if err := bdb.Close(); err != nil {
			log.Printf("could not close the database (ignored): %v", err)
		}
		if err := flock.Unlock(); err != nil {
			log.Printf("could not release lock file %q (ignored): %v", lockPath, err)
		}
	}
	return kvbadger.New(bdb, isGoodKey), closer, nil
}

// SetupLogging installs a file-backed slog handler when a log directory is
// configured. The returned closer flushes the log files.
func (df *DataFlags) SetupLogging() func() {
	log.SetFlags(log.Flags() | log.Lmicroseconds)
	if len(df.logDir) == 0 {
		return func() {}
	}
	backend := sglog.NewBackend(&sglog.Options{
		LogDirs: []string{df.logDir},
	})
	slog.SetDefault(slog.New(backend.Handler()))
	return backend.Close
}

// SizeFlags holds the symbolic order size flags. An absolute size, a
// percentage of the wallet balance and a target position are mutually
// exclusive; the most specific one wins.
type SizeFlags struct {
	size     float64
	percent  float64
	position string
}

func (sf *SizeFlags) SetFlags(fset *flag.FlagSet) {
	fset.Float64Var(&sf.size, "size", 0, "total order size in the base asset")
	fset.Float64Var(&sf.percent, "size-percent", 0, "total order size as a percentage of the wallet balance")
	fset.StringVar(&sf.position, "target-position", "", "target position size in the base asset")
}

func (sf *SizeFlags) SizeSpec() (exchange.SizeSpec, error) {
	if len(sf.position) != 0 {
		p, err := decimal.NewFromString(sf.position)
		if err != nil {
			return exchange.SizeSpec{}, fmt.Errorf("invalid target position %q: %w", sf.position, err)
		}
		return exchange.SizeSpec{Position: p, HasPosition: true}, nil
	}
	if sf.percent != 0 {
		return exchange.SizeSpec{Amount: decimal.NewFromFloat(sf.percent), Percent: true}, nil
	}
	return exchange.SizeSpec{Amount: decimal.NewFromFloat(sf.size)}, nil
}

// ExchangeFlags selects and configures the exchange adapter. Only the paper
// adapter is built in; its quotes can be driven from a live websocket feed.
type ExchangeFlags struct {
	name string

	apiRate  float64
	apiBurst int

	paperBid  float64
	paperAsk  float64
	paperBase float64
	paperQuot float64

	feedURL    string
	feedSymbol string
}

func (ef *ExchangeFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&ef.name, "exchange", "paper", "exchange adapter name")
	fset.Float64Var(&ef.apiRate, "api-rate", 10, "max exchange api calls per second")
	fset.IntVar(&ef.apiBurst, "api-burst", 5, "max exchange api call burst")
	fset.Float64Var(&ef.paperBid, "paper-bid", 1000, "initial bid price for the paper exchange")
	fset.Float64Var(&ef.paperAsk, "paper-ask", 1000, "initial ask price for the paper exchange")
	fset.Float64Var(&ef.paperBase, "paper-base-balance", 1000, "base asset balance for the paper exchange")
	fset.Float64Var(&ef.paperQuot, "paper-quote-balance", 1000000, "quote asset balance for the paper exchange")
	fset.StringVar(&ef.feedURL, "feed-url", "", "websocket url to drive the paper exchange quotes")
	fset.StringVar(&ef.feedSymbol, "feed-symbol", "", "feed symbol override (defaults to the trading symbol)")
}

// NewExchange creates the configured exchange adapter for the symbol. The
// returned closer stops the quote feed, if one was started.
func (ef *ExchangeFlags) NewExchange(ctx context.Context, symbol string) (exchange.Exchange, func(), error) {
	if ef.name != "paper" {
		return nil, nil, fmt.Errorf("unknown exchange %q: %w", ef.name, os.ErrInvalid)
	}

	fake := fakexchange.New()
	fake.SetTicker(decimal.NewFromFloat(ef.paperBid), decimal.NewFromFloat(ef.paperAsk))
	if base, quote, ok := strings.Cut(symbol, "-"); ok {
		amount := decimal.NewFromFloat(ef.paperBase)
		fake.SetBalance(base, amount, amount)
		funds := decimal.NewFromFloat(ef.paperQuot)
		fake.SetBalance(quote, funds, funds)
	}

	closer := func() {}
	if len(ef.feedURL) != 0 {
		fsym := ef.feedSymbol
		if len(fsym) == 0 {
			fsym = symbol
		}
		feed := tickerfeed.New(ctx, fsym, &tickerfeed.Options{WebsocketURL: ef.feedURL})
		ch, unsub := feed.TickerCh()
		go func() {
			for t := range ch {
				fake.SetTicker(t.Bid, t.Ask)
			}
		}()
		closer = func() {
			unsub()
			feed.Close()
		}
	}
	return exchange.Throttle(fake, rate.Limit(ef.apiRate), ef.apiBurst), closer, nil
}
