package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/anapaya-labs/wsncollect/internal/config"
	"github.com/anapaya-labs/wsncollect/pkg/addr"
)

func newRoutesCmd() *cobra.Command {
	var duration time.Duration
	var dest uint16
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Run a simulated topology and print the sink's routing table, optionally resolving a route",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			nw, sinkAddr, err := buildNetwork(cfg, nil)
			if err != nil {
				return err
			}
			if err := nw.Run(context.Background(), duration); err != nil {
				return err
			}

			sinkConn := nw.Connection(sinkAddr)
			if sinkConn == nil {
				color.Red("no sink was configured; nothing to report")
				return nil
			}
			printRoutingTable(sinkConn.Node())

			if cmd.Flags().Changed("dest") {
				route, err := sinkConn.Node().Table.FindRoute(sinkAddr, addr.NodeAddress(dest))
				if err != nil {
					color.Red("no route to %s: %v", addr.NodeAddress(dest), err)
					return nil
				}
				fmt.Printf("route to %s: %v\n", addr.NodeAddress(dest), route)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 5*time.Second, "how long to let the simulation run before reporting")
	cmd.Flags().Uint16Var(&dest, "dest", 0, "resolve and print the source route to this address")
	return cmd
}
