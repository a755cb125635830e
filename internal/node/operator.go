package node

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mvelasco/redrouter/internal/bus"
	"github.com/mvelasco/redrouter/internal/message"
)

const selfSendTTL = 15

// RunOperator is the operator worker from spec §4.5: a line-oriented
// console reading commands from r and writing responses to w until r is
// exhausted or a quit/exit command is read. Self-originated sends are injected onto
// Inbox exactly like an inbound frame (spec §9), so they pass through
// the same forwarding logic as every relayed message.
func (n *Node) RunOperator(r io.Reader, w io.Writer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if n.dispatchOperatorCommand(line, w) {
			return
		}
	}
}

func (n *Node) dispatchOperatorCommand(line string, w io.Writer) (quit bool) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "send":
		n.opSend(args, w)
	case "neighbors":
		n.opNeighbors(w)
	case "table":
		n.opTable(w)
	case "cost":
		n.opCost(args, w)
	case "topology", "graph":
		n.opTopology(w)
	case "calculate":
		n.opCalculate(args, w)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(w, "unknown command %q\n", cmd)
	}
	return false
}

func (n *Node) opSend(args []string, w io.Writer) {
	if len(args) < 2 {
		fmt.Fprintln(w, "usage: send <dest> <payload>")
		return
	}
	dest, payload := args[0], strings.Join(args[1:], " ")

	var msg *message.Message
	if n.cfg.Algorithm == AlgoFlooding {
		msg = n.floodState.CreateMessage(dest, payload, selfSendTTL)
	} else {
		selfAddr := n.SelfAddr()
		msg = &message.Message{
			Proto:          message.Proto(n.cfg.Algorithm),
			Type:           message.TypeMessage,
			From:           selfAddr,
			To:             n.resolver.Address(dest),
			TTL:            selfSendTTL,
			MsgID:          message.NewMsgID(n.cfg.ID),
			OriginalSender: selfAddr,
			Timestamp:      time.Now().Unix(),
			Payload:        map[string]any{"data": payload},
		}
	}

	n.Bus.Inbox <- bus.Envelope{Msg: msg, PeerHost: "localhost", PeerPort: n.transport.Port()}
	fmt.Fprintf(w, "queued msg_id=%s to %s\n", msg.MsgID, dest)
}

func (n *Node) opNeighbors(w io.Writer) {
	neighbors := n.State.Neighbors()
	addrs := make([]string, 0, len(neighbors))
	for addr := range neighbors {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	for _, addr := range addrs {
		fmt.Fprintf(w, "%s last_seen=%s\n", addr, neighbors[addr].LastSeen.Format(time.RFC3339))
	}
}

func (n *Node) opTable(w io.Writer) {
	snap := n.State.Snapshot()
	dests := make([]string, 0, len(snap))
	for d := range snap {
		dests = append(dests, d)
	}
	sort.Strings(dests)
	for _, d := range dests {
		e := snap[d]
		fmt.Fprintf(w, "%s next_hop=%s cost=%d via=%s\n", d, e.NextHop, e.Cost, e.Interface)
	}
}

func (n *Node) opCost(args []string, w io.Writer) {
	if len(args) != 2 {
		fmt.Fprintln(w, "usage: cost <neighbor_id> <cost>")
		return
	}
	cost, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(w, "invalid cost %q\n", args[1])
		return
	}
	if err := n.SetCost(args[0], cost); err != nil {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprintf(w, "cost %s -> %d\n", args[0], cost)
}

func (n *Node) opTopology(w io.Writer) {
	switch n.cfg.Algorithm {
	case AlgoDijkstra:
		graph := n.distDijk.Graph()
		origins := make([]string, 0, len(graph))
		for o := range graph {
			origins = append(origins, o)
		}
		sort.Strings(origins)
		for _, o := range origins {
			fmt.Fprintf(w, "%s: %v\n", o, graph[o])
		}
	case AlgoLSR:
		n.opTable(w)
	default:
		fmt.Fprintln(w, "topology is only available for lsr and dijkstra")
	}
}

// opCalculate forces a recompute of shortest paths (spec §4.5's
// `calculate <destination>`) and reports the resulting table, narrowed
// to the named destination when one is given.
func (n *Node) opCalculate(args []string, w io.Writer) {
	switch n.cfg.Algorithm {
	case AlgoLSR:
		n.recomputeLSR()
	case AlgoDijkstra:
		n.recomputeDijkstra()
	default:
		fmt.Fprintln(w, "calculate is only meaningful for lsr and dijkstra")
		return
	}
	if len(args) == 0 {
		n.opTable(w)
		return
	}
	dest := args[0]
	destAddr := n.resolver.Address(dest)
	e, ok := n.State.Entry(destAddr)
	if !ok {
		fmt.Fprintf(w, "%s: no route\n", dest)
		return
	}
	fmt.Fprintf(w, "%s next_hop=%s cost=%d via=%s\n", destAddr, e.NextHop, e.Cost, e.Interface)
}
