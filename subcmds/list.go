// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bvk/algobot/algoreg"
	"github.com/bvk/algobot/ctl"
	"github.com/bvk/algobot/gobs"
	"github.com/visvasity/cli"
)

type List struct {
	DataFlags

	session string
	tag     string
}

func (c *List) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.DataFlags.SetFlags(fset)
	fset.StringVar(&c.session, "session", "", "list resting orders of this session instead")
	fset.StringVar(&c.tag, "tag", "", "list resting orders with this tag instead")
	return "list", fset, cli.CmdFunc(c.run)
}

func (c *List) Purpose() string {
	return "Prints live algo orders or recorded session orders"
}

func (c *List) run(ctx context.Context, args []string) error {
	// Algo-order records of a live strategy are reached through its control
	// socket while the database lock is held.
	if len(c.session) == 0 && len(c.tag) == 0 {
		if sock, err := c.SocketPath(); err == nil {
			if client, err := ctl.Dial(sock); err == nil {
				resp, err := client.List(ctx)
				if err != nil {
					return err
				}
				return printRecords(resp.Records)
			}
		}
	}

	db, closer, err := c.OpenDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()
	reg := algoreg.New(db)

	if len(c.session) != 0 || len(c.tag) != 0 {
		orders, err := reg.SessionOrders(ctx, c.session, c.tag)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		defer tw.Flush()
		fmt.Fprintf(tw, "ORDER\tSYMBOL\tSIDE\tSIZE\tPRICE\n")
		for _, order := range orders {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", order.OrderID, order.Symbol, order.Side, order.Size, order.Price)
		}
		return nil
	}

	records, err := reg.List(ctx)
	if err != nil {
		return err
	}
	return printRecords(records)
}

func printRecords(records []*gobs.AlgoOrderRecord) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintf(tw, "ID\tSIDE\tSESSION\tTAG\tCANCELLED\n")
	for _, record := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\n", record.ID, record.Side, record.Session, record.Tag, record.Cancelled)
	}
	return nil
}
