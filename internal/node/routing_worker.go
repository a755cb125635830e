package node

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mvelasco/redrouter/internal/bus"
	"github.com/mvelasco/redrouter/internal/message"
	"github.com/mvelasco/redrouter/internal/routing"
)

// Hello/expiry cadences shared by all three sub-engines (spec §4.3).
const (
	helloInterval  = 10 * time.Second
	expiryInterval = 3 * time.Second

	floodTableInterval   = 5 * time.Second
	lspInterval          = 30 * time.Second
	dijkstraInfoInterval = 10 * time.Second
	topologyInterval     = 5 * time.Second
)

// runRoutingWorker is the routing worker from spec §4.3/§5: it emits
// periodic protocol traffic, consumes RoutingInfo and LSPQueue, and
// recomputes the shared routing table whenever its sub-engine's view of
// the network changes.
func (n *Node) runRoutingWorker(ctx context.Context) {
	hello := time.NewTicker(helloInterval)
	expire := time.NewTicker(expiryInterval)
	defer hello.Stop()
	defer expire.Stop()

	var algoTick, altTick *time.Ticker
	switch n.cfg.Algorithm {
	case AlgoFlooding:
		algoTick = time.NewTicker(floodTableInterval)
	case AlgoLSR:
		algoTick = time.NewTicker(lspInterval)
	case AlgoDijkstra:
		algoTick = time.NewTicker(dijkstraInfoInterval)
		altTick = time.NewTicker(topologyInterval)
	}
	defer algoTick.Stop()
	if altTick != nil {
		defer altTick.Stop()
	}

	var altC <-chan time.Time
	if altTick != nil {
		altC = altTick.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-hello.C:
			n.sendHellos()
		case <-expire.C:
			n.State.ExpireOlderThan(routing.EntryTTL)
		case <-algoTick.C:
			n.emitPeriodic()
		case <-altC:
			n.emitAltPeriodic()
		case env := <-n.Bus.RoutingInfo:
			n.handleRoutingInfo(env)
		case env := <-n.Bus.LSPQueue:
			n.handleLSP(env)
		}
	}
}

func (n *Node) sendHellos() {
	selfAddr := n.SelfAddr()
	for _, nb := range n.cfg.Neighbors {
		hello := &message.Message{
			Proto:     message.Proto(n.cfg.Algorithm),
			Type:      message.TypeHello,
			From:      selfAddr,
			To:        n.resolver.Address(nb),
			MsgID:     message.NewMsgID(n.cfg.ID),
			Timestamp: time.Now().Unix(),
			Payload:   map[string]any{},
		}
		n.sendTo(nb, hello)
	}
}

// emitPeriodic sends the algorithm's primary periodic announcement:
// routing_info for flooding, lsp for LSR, dijkstra_info for dijkstra.
func (n *Node) emitPeriodic() {
	switch n.cfg.Algorithm {
	case AlgoFlooding:
		table := n.flooding.BuildAdvertisement(n.State)
		msg := &message.Message{
			Proto:     message.ProtoFlooding,
			Type:      message.TypeRoutingInfo,
			From:      n.SelfAddr(),
			To:        message.Broadcast,
			MsgID:     message.NewMsgID(n.cfg.ID),
			Timestamp: time.Now().Unix(),
			Payload:   routing.EncodeRoutingInfo(table),
		}
		// The table goes only to active neighbors: those a hello has
		// already been received from.
		for _, nb := range n.cfg.Neighbors {
			if !n.State.IsDiscovered(n.resolver.Address(nb)) {
				continue
			}
			cp := *msg
			n.sendTo(nb, &cp)
		}
	case AlgoLSR:
		n.broadcastToNeighbors(n.lsr.CreateLSP())
	case AlgoDijkstra:
		n.broadcastToNeighbors(n.distDijk.CreateInfo())
	}
}

// emitAltPeriodic sends dijkstra's secondary periodic announcement, the
// full topology snapshot.
func (n *Node) emitAltPeriodic() {
	if n.cfg.Algorithm == AlgoDijkstra {
		n.broadcastToNeighbors(n.distDijk.CreateTopologySnapshot())
	}
}

func (n *Node) handleRoutingInfo(env bus.Envelope) {
	m := env.Msg
	switch m.Type {
	case message.TypeHello:
		n.handleHello(m)
		return
	}

	switch n.cfg.Algorithm {
	case AlgoFlooding:
		if m.Type != message.TypeRoutingInfo {
			return
		}
		fromID, _ := n.resolver.Identifier(m.From)
		advertised := routing.DecodeRoutingInfo(m)
		n.flooding.MergeAdvertisement(n.State, m.From, n.neighborInterface(fromID), advertised)
	case AlgoDijkstra:
		switch m.Type {
		case message.TypeDijkstraInfo:
			if n.distDijk.ProcessInfo(m) {
				n.recomputeDijkstra()
			}
		case message.TypeTopologyUpdate:
			if n.distDijk.ProcessTopologySnapshot(m) {
				n.recomputeDijkstra()
			}
		}
	}
}

func (n *Node) handleLSP(env bus.Envelope) {
	if n.cfg.Algorithm != AlgoLSR {
		return
	}
	m := env.Msg
	forward, changed := n.lsr.ProcessLSP(m)
	if changed {
		n.recomputeLSR()
	}
	if forward == nil {
		return
	}
	fromID, _ := n.resolver.Identifier(m.From)
	for _, nb := range n.cfg.Neighbors {
		if nb == fromID {
			continue
		}
		cp := *forward
		n.sendTo(nb, &cp)
	}
}

func (n *Node) recomputeLSR() {
	n.replaceTable(n.lsr.RoutingTable())
}

func (n *Node) recomputeDijkstra() {
	n.replaceTable(n.distDijk.RoutingTable())
}

// replaceTable rewrites the shared routing table from a sub-engine's
// identifier-keyed results (spec §4.6's object signatures), translating
// both the destination key and the next-hop to logical addresses before
// the write, per spec §3.
func (n *Node) replaceTable(results map[string]routing.RouteResult) {
	entries := make(map[string]routing.Entry, len(results))
	now := time.Now()
	for dest, r := range results {
		entries[n.resolver.Address(dest)] = routing.Entry{
			NextHop:   n.resolver.Address(r.NextHop),
			Cost:      r.Cost,
			Interface: n.neighborInterface(r.NextHop),
			Timestamp: now,
			Source:    string(n.cfg.Algorithm),
		}
	}
	n.State.ReplaceTable(entries)
}

// handleHello validates and records a hello's origin: spec §4.3 requires
// hellos whose origin does not map to a configured neighbor to be logged
// and ignored.
func (n *Node) handleHello(m *message.Message) {
	id, ok := n.resolver.Identifier(m.From)
	if !ok || !n.isConfiguredNeighbor(id) {
		n.Log.WithFields(logrus.Fields{"from": m.From}).Warn("routing: hello from unconfigured neighbor, ignoring")
		return
	}
	n.recordNeighbor(id, m.From)
}

func (n *Node) isConfiguredNeighbor(id string) bool {
	for _, nb := range n.cfg.Neighbors {
		if nb == id {
			return true
		}
	}
	return false
}

// recordNeighbor marks addr as discovered at id's canonical port, per the
// design notes' resolved Open Question: neighbor discovery trusts the
// canonical port formula, not the TCP connection's observed ephemeral
// source port.
func (n *Node) recordNeighbor(id, addr string) {
	if n.State.IsDiscovered(addr) {
		n.State.SetNeighbor(addr, n.neighborPort(id))
		return
	}
	n.State.SetNeighbor(addr, n.neighborPort(id))
	select {
	case n.Bus.NewNodes <- bus.NewNodeNotice{ID: id, Address: addr, Port: n.neighborPort(id)}:
	default:
	}
	n.Log.WithFields(logrus.Fields{"neighbor": id}).Info("neighbor discovered")
}
