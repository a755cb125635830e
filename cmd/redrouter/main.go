// Command redrouter starts a single simulated overlay router node,
// mirroring the teacher's single-binary-per-node launch model.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mvelasco/redrouter/internal/config"
	"github.com/mvelasco/redrouter/internal/logging"
	"github.com/mvelasco/redrouter/internal/node"
)

func main() {
	app := &cli.App{
		Name:      "redrouter",
		Usage:     "run one node of the simulated overlay router",
		ArgsUsage: "<node_id> <algorithm>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "topology", Value: "data/topo.txt", Usage: "path to the topology file"},
			&cli.StringFlag{Name: "names", Value: "data/id_nodos.txt", Usage: "path to the names file"},
			&cli.StringFlag{Name: "log-dir", Value: "logs", Usage: "directory for per-node log files"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "redrouter:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: redrouter <node_id> <algorithm>")
	}
	id := c.Args().Get(0)
	algo, err := node.ParseAlgorithm(c.Args().Get(1))
	if err != nil {
		return err
	}

	topo := config.LoadTopology(c.String("topology"))
	names := config.LoadNames(c.String("names"))
	resolver := config.NewResolver(names)

	log, err := logging.New(c.String("log-dir"), id)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	n := node.New(node.Config{
		ID:        id,
		Host:      config.Host(),
		Port:      config.PortForID(id),
		Algorithm: algo,
		Neighbors: topo.Neighbors(id),
		Resolver:  resolver,
		LogDir:    c.String("log-dir"),
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	go n.Run(ctx)

	fmt.Printf("node %s (%s) listening on port %d\n", id, algo, config.PortForID(id))
	n.RunOperator(os.Stdin, os.Stdout)
	cancel()
	return nil
}
