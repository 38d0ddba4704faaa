// Copyright (c) 2025 BVK Chaitanya

// Package tickerfeed streams live best bid/ask quotes for one symbol over a
// websocket connection and fans them out through a topic. Subscribers get
// the most recent quote on subscription, so a fresh consumer never starts
// blind.
package tickerfeed

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/bvk/algobot/ctxutil"
	"github.com/bvk/algobot/exchange"
	"github.com/bvkgo/topic"
	ws "github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

type Options struct {
	// WebsocketURL is the feed endpoint, e.g. wss://api-pub.bitfinex.com/ws/2.
	WebsocketURL string

	// ReconnectDelay is the wait before redialing a broken connection.
	ReconnectDelay time.Duration
}

func (v *Options) setDefaults() {
	if v.ReconnectDelay == 0 {
		v.ReconnectDelay = 5 * time.Second
	}
}

type Feed struct {
	opts Options

	symbol string

	tickerTopic *topic.Topic[exchange.Ticker]

	cancel context.CancelCauseFunc
	wg     sync.WaitGroup
}

type subscribeMessage struct {
	Event   string `json:"event"`
	Channel string `json:"channel"`
	Symbol  string `json:"symbol"`
}

// New starts a ticker feed for the symbol. The feed redials broken
// connections until it is closed.
func New(ctx context.Context, symbol string, opts *Options) *Feed {
	v := &Feed{
		opts:        *opts,
		symbol:      symbol,
		tickerTopic: topic.New[exchange.Ticker](),
	}
	v.opts.setDefaults()

	fctx, fcancel := context.WithCancelCause(ctx)
	v.cancel = fcancel
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		v.goFetch(fctx)
	}()
	return v
}

func (v *Feed) Close() {
	v.cancel(nil)
	v.wg.Wait()
	v.tickerTopic.Close()
}

// TickerCh returns a channel of live quotes and an unsubscribe function.
func (v *Feed) TickerCh() (<-chan exchange.Ticker, func()) {
	sub, ch, _ := v.tickerTopic.Subscribe(1, true /* includeRecent */)
	return ch, sub.Unsubscribe
}

// Recent returns the last received quote, if any.
func (v *Feed) Recent() (exchange.Ticker, bool) {
	return topic.Recent(v.tickerTopic)
}

func (v *Feed) goFetch(ctx context.Context) {
	for context.Cause(ctx) == nil {
		if err := v.watch(ctx); err != nil {
			if context.Cause(ctx) != nil {
				return
			}
			log.Printf("ticker feed for %q has failed (redialing in %s): %v", v.symbol, v.opts.ReconnectDelay, err)
		}
		ctxutil.Sleep(ctx, v.opts.ReconnectDelay)
	}
}

func (v *Feed) watch(ctx context.Context) error {
	var dialer ws.Dialer
	conn, _, err := dialer.DialContext(ctx, v.opts.WebsocketURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Force the read loop out when the context expires; the connection is
	// being torn down anyway.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	submsg := subscribeMessage{
		Event:   "subscribe",
		Channel: "ticker",
		Symbol:  v.symbol,
	}
	if err := conn.WriteJSON(submsg); err != nil {
		return err
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		ticker, ok := parseTicker(data)
		if !ok {
			continue
		}
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case v.tickerTopic.SendCh() <- ticker:
		}
	}
}

// parseTicker extracts a quote from a channel data frame of the form
// [chanID, [bid, bidSize, ask, askSize, ...]]. Event objects and heartbeat
// frames are skipped.
func parseTicker(data []byte) (exchange.Ticker, bool) {
	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil || len(frame) < 2 {
		return exchange.Ticker{}, false
	}
	var fields []decimal.Decimal
	if err := json.Unmarshal(frame[1], &fields); err != nil || len(fields) < 3 {
		return exchange.Ticker{}, false
	}
	return exchange.Ticker{Bid: fields[0], Ask: fields[2]}, true
}
