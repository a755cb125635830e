package node

import (
	"context"
	"net"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/mvelasco/redrouter/internal/bus"
	"github.com/mvelasco/redrouter/internal/message"
)

// runForwardingWorker is the forwarding worker from spec §4.4/§5: it owns
// data-frame delivery and is the only reader of Inbox's data-frame
// traffic. Control frames land in Inbox too (spec §4.2) but are ignored
// here; the routing worker consumes them off RoutingInfo/LSPQueue
// instead.
func (n *Node) runForwardingWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-n.Bus.Inbox:
			if env.Msg.Type != message.TypeMessage {
				continue
			}
			n.handleDataFrame(env)
		}
	}
}

func (n *Node) handleDataFrame(env bus.Envelope) {
	if n.cfg.Algorithm == AlgoFlooding {
		n.forwardFlooding(env.Msg)
		return
	}
	n.forwardRouted(env.Msg)
}

func (n *Node) forwardFlooding(m *message.Message) {
	forwards, delivered := n.floodState.ReceiveMessage(m, m.From)
	if delivered {
		n.logDelivery(m)
		return
	}
	for _, fwd := range forwards {
		n.sendTo(fwd.NeighborID, fwd.Msg)
	}
}

// forwardRouted implements the LSR/Dijkstra data path described in spec
// §4.4: a single lookup against the shared routing table, one forward to
// the resolved interface, or a dropped frame when no route exists (S5).
func (n *Node) forwardRouted(m *message.Message) {
	if m.To == n.SelfAddr() {
		n.logDelivery(m)
		return
	}
	if m.TTL <= 1 {
		n.Log.WithFields(logrus.Fields{"msg_id": m.MsgID}).Warn("forwarding: ttl expired")
		return
	}

	entry, ok := n.State.Entry(m.To)
	if !ok {
		n.Log.WithFields(logrus.Fields{"dest": m.To, "msg_id": m.MsgID}).Warn("forwarding: no route")
		return
	}

	host, portStr, err := net.SplitHostPort(entry.Interface)
	if err != nil {
		n.Log.WithError(err).Warn("forwarding: malformed interface")
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		n.Log.WithError(err).Warn("forwarding: malformed interface port")
		return
	}

	out := *m
	out.From = n.SelfAddr()
	out.TTL = m.TTL - 1
	n.Bus.Outbox <- bus.Frame{Host: host, Port: port, Msg: &out}
}

func (n *Node) logDelivery(m *message.Message) {
	n.Log.WithFields(logrus.Fields{
		"from": m.OriginalSender, "msg_id": m.MsgID, "data": m.DataPayload(),
	}).Info("message delivered")
}
