package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/anapaya-labs/wsncollect/control/state"
	"github.com/anapaya-labs/wsncollect/internal/config"
	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/log"
	"github.com/anapaya-labs/wsncollect/private/procperf"
	"github.com/anapaya-labs/wsncollect/sim"
)

func newRunCmd() *cobra.Command {
	var duration time.Duration
	var procperfPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulated topology to convergence and print the sink's routing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			var rec *procperf.Recorder
			if procperfPath != "" {
				rec, err = procperf.Open(procperfPath)
				if err != nil {
					return fmt.Errorf("opening procperf log %s: %w", procperfPath, err)
				}
				defer rec.Close()
			}

			nw, sinkAddr, err := buildNetwork(cfg, rec)
			if err != nil {
				return err
			}

			ctx := context.Background()
			if err := nw.Run(ctx, duration); err != nil {
				return err
			}

			sinkConn := nw.Connection(sinkAddr)
			if sinkConn == nil {
				color.Red("no sink was configured; nothing to report")
				return nil
			}
			printRoutingTable(sinkConn.Node())
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 5*time.Second, "how long to let the simulation run before reporting")
	cmd.Flags().StringVar(&procperfPath, "procperf", "", "write per-packet lifecycle telemetry as CSV to this path")
	return cmd
}

// buildNetwork opens a conn.Connection for every node named in cfg's
// topology, wired to one shared sim.Network, and returns the sink's
// address. It fails if the topology names zero or more than one sink. If
// rec is non-nil, every node's Connection records its packet lifecycle
// telemetry through it.
func buildNetwork(cfg config.Config, rec *procperf.Recorder) (*sim.Network, addr.NodeAddress, error) {
	logger := log.Root()
	nw := sim.NewNetwork(logger)

	for _, l := range cfg.Links {
		nw.AddLink(sim.SimLink{
			A:      addr.NodeAddress(l.A),
			B:      addr.NodeAddress(l.B),
			RSSIAB: l.RSSIAB,
			RSSIBA: l.RSSIBA,
		})
	}

	var sinkAddr addr.NodeAddress
	sinkCount := 0
	for _, n := range cfg.Nodes {
		if n.IsSink {
			sinkAddr = addr.NodeAddress(n.Addr)
			sinkCount++
		}
	}
	if sinkCount != 1 {
		return nil, 0, fmt.Errorf("topology must name exactly one sink, found %d", sinkCount)
	}

	tunables := cfg.Tunables()
	for _, n := range cfg.Nodes {
		n := n
		spec := sim.NodeSpec{Addr: addr.NodeAddress(n.Addr), IsSink: n.IsSink}
		callbacks := state.Callbacks{
			OnDataReceived: func(source addr.NodeAddress, hops uint8) {
				logger.Info("data delivered", "source", source, "hops", hops)
			},
			OnCommandReceived: func(hops uint8) {
				logger.Info("command delivered", "at", n.Addr, "hops", hops)
			},
		}
		c, err := nw.Open(context.Background(), spec, tunables, callbacks)
		if err != nil {
			return nil, 0, fmt.Errorf("opening node %d: %w", n.Addr, err)
		}
		c.Node().Recorder = rec
	}
	return nw, sinkAddr, nil
}

// printRoutingTable renders the sink's routing-table state via
// olekukonko/tablewriter, the way SCION's own CLI tools print
// tabular state (topology, paths) to stdout.
func printRoutingTable(sinkNode *state.Node) {
	if sinkNode.Table == nil || sinkNode.Table.Size() == 0 {
		color.Yellow("routing table is empty")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Child", "Parent"})
	for _, child := range sinkNode.Table.Children() {
		table.Append([]string{child.String(), sinkNode.Table.ParentOf(child).String()})
	}
	table.Render()
}
