// Package node wires the transport, routing, forwarding, and operator
// workers together into the single logical entity spec §2 describes,
// sharing the routing table and discovered-neighbors map behind the one
// mutex spec §5 requires.
package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mvelasco/redrouter/internal/bus"
	"github.com/mvelasco/redrouter/internal/config"
	"github.com/mvelasco/redrouter/internal/message"
	"github.com/mvelasco/redrouter/internal/routing"
	"github.com/mvelasco/redrouter/internal/transport"
)

// Algorithm selects which of the three routing sub-engines a Node runs.
type Algorithm string

const (
	AlgoFlooding Algorithm = "flooding"
	AlgoLSR      Algorithm = "lsr"
	AlgoDijkstra Algorithm = "dijkstra"
)

// ParseAlgorithm validates a CLI-supplied algorithm name (spec §6/§7).
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgoFlooding, AlgoLSR, AlgoDijkstra:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("unknown algorithm %q: must be one of flooding, lsr, dijkstra", s)
	}
}

// Config is the static configuration a Node is built from.
type Config struct {
	ID        string
	Host      string
	Port      int
	Algorithm Algorithm
	Neighbors []string // configured neighbor ids, spec §3
	Resolver  *config.Resolver
	LogDir    string
}

// Node is a single logical peer: one listening endpoint, a shared
// routing table, and the four cooperating workers from spec §2.
type Node struct {
	cfg Config

	Bus      *bus.Bus
	State    *routing.SharedState
	Log      *logrus.Logger
	resolver *config.Resolver

	transport *transport.Worker

	costsMu sync.Mutex
	costs   map[string]int

	flooding   *routing.FloodingRouter
	floodState *routing.Flooding
	lsr        *routing.LSR
	distDijk   *routing.DistDijkstra
}

// New builds a Node from cfg. log must already be configured to write
// to this node's log file (see internal/logging).
func New(cfg Config, log *logrus.Logger) *Node {
	n := &Node{
		cfg:      cfg,
		Bus:      bus.New(),
		State:    routing.NewSharedState(),
		Log:      log,
		resolver: cfg.Resolver,
		costs:    make(map[string]int, len(cfg.Neighbors)),
	}
	for _, nb := range cfg.Neighbors {
		n.costs[nb] = 1
	}

	n.transport = transport.New(cfg.Host, cfg.Port, n.Bus, log)

	selfAddr := cfg.Resolver.Address(cfg.ID)
	switch cfg.Algorithm {
	case AlgoFlooding:
		n.flooding = routing.NewFloodingRouter(selfAddr, cfg.Neighbors)
		n.floodState = routing.NewFlooding(cfg.ID, cfg.Neighbors, cfg.Resolver)
	case AlgoLSR:
		n.lsr = routing.NewLSR(cfg.ID, selfAddr, n.copyCosts())
	case AlgoDijkstra:
		n.distDijk = routing.NewDistDijkstra(cfg.ID, selfAddr, n.copyCosts())
	}
	return n
}

// ID returns the node's short symbolic identifier.
func (n *Node) ID() string { return n.cfg.ID }

// SelfAddr returns the node's own logical wire address.
func (n *Node) SelfAddr() string { return n.resolver.Address(n.cfg.ID) }

// Algorithm returns the active routing strategy.
func (n *Node) Algorithm() Algorithm { return n.cfg.Algorithm }

// Neighbors returns the statically configured neighbor ids.
func (n *Node) Neighbors() []string { return n.cfg.Neighbors }

func (n *Node) copyCosts() map[string]int {
	n.costsMu.Lock()
	defer n.costsMu.Unlock()
	out := make(map[string]int, len(n.costs))
	for k, v := range n.costs {
		out[k] = v
	}
	return out
}

// SetCost updates a neighbor's link cost (operator `cost` command, spec
// §4.5, LSR/Dijkstra only). It does not recompute the routing table
// itself: the new cost goes out with the next periodic announcement and
// takes effect locally at the next recompute (a database change from an
// accepted announcement, or the operator's `calculate` command).
func (n *Node) SetCost(neighborID string, cost int) error {
	n.costsMu.Lock()
	n.costs[neighborID] = cost
	n.costsMu.Unlock()

	switch n.cfg.Algorithm {
	case AlgoLSR:
		n.lsr.SetCost(neighborID, cost)
		return nil
	case AlgoDijkstra:
		n.distDijk.SetCost(neighborID, cost)
		return nil
	default:
		return fmt.Errorf("cost is only meaningful for lsr and dijkstra")
	}
}

// neighborPort returns a configured neighbor's canonical listening port.
func (n *Node) neighborPort(id string) int {
	return config.PortForID(id)
}

// neighborInterface returns the host:port string used to reach a
// neighbor id directly.
func (n *Node) neighborInterface(id string) string {
	return fmt.Sprintf("localhost:%d", n.neighborPort(id))
}

// sendTo enqueues m for delivery to the given neighbor id's canonical
// interface.
func (n *Node) sendTo(id string, m *message.Message) {
	n.Bus.Outbox <- bus.Frame{Host: "localhost", Port: n.neighborPort(id), Msg: m}
}

// broadcastToNeighbors enqueues m to every statically configured
// neighbor.
func (n *Node) broadcastToNeighbors(m *message.Message) {
	for _, nb := range n.cfg.Neighbors {
		cp := *m
		n.sendTo(nb, &cp)
	}
}

// Run starts every worker and blocks until ctx is cancelled.
func (n *Node) Run(ctx context.Context) {
	n.seedDirectNeighbors()

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		_ = n.transport.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		n.runRoutingWorker(ctx)
	}()
	go func() {
		defer wg.Done()
		n.runForwardingWorker(ctx)
	}()
	go func() {
		defer wg.Done()
		n.drainNewNodeNotices(ctx)
	}()

	wg.Wait()
}

// drainNewNodeNotices logs each first-time neighbor discovery. It is the
// sole consumer of Bus.NewNodes.
func (n *Node) drainNewNodeNotices(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case notice := <-n.Bus.NewNodes:
			n.Log.WithFields(logrus.Fields{
				"neighbor_id": notice.ID, "address": notice.Address, "port": notice.Port,
			}).Debug("new neighbor notice")
		}
	}
}

func (n *Node) seedDirectNeighbors() {
	if n.cfg.Algorithm != AlgoFlooding {
		return
	}
	n.flooding.SeedDirectNeighbors(n.State, n.resolver.Address, n.neighborInterface)
}
