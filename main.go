// Copyright (c) 2025 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bvk/algobot/subcmds"
	"github.com/visvasity/cli"
)

func main() {
	cmds := []cli.Command{
		new(subcmds.Scaled),
		new(subcmds.PingPong),
		new(subcmds.Maker),
		new(subcmds.Cancel),
		new(subcmds.List),
		new(subcmds.Feed),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
