package main

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/anapaya-labs/wsncollect/internal/config"
)

func newBeaconCmd() *cobra.Command {
	var settle time.Duration
	cmd := &cobra.Command{
		Use:   "beacon",
		Short: "Force an immediate sink beacon outside the normal cadence, for interactive debugging",
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
			ctx := context.Background()

			sinkConn := nw.Connection(sinkAddr)
			if sinkConn == nil {
				color.Red("no sink was configured")
				return nil
			}
			sinkConn.ForceBeacon(ctx)
			color.Green("forced beacon originated from %s", sinkAddr)
			time.Sleep(settle)
			printRoutingTable(sinkConn.Node())
			return nil
		},
	}
	cmd.Flags().DurationVar(&settle, "settle", 2*time.Second, "how long to wait for the beacon to propagate before reporting")
	return cmd
}
