// Package bus holds the typed, many-producer many-consumer queues that
// decouple a node's four workers (spec §4.2). No worker ever talks to
// another worker directly; every handoff goes through one of these
// channels.
package bus

import "github.com/mvelasco/redrouter/internal/message"

// Envelope pairs a decoded message with the peer address the transport
// worker observed it arrive from (host:port of the stream, not
// necessarily the canonical neighbor port).
type Envelope struct {
	Msg      *message.Message
	PeerHost string
	PeerPort int
}

// Frame is an outbound (destination, message) tuple waiting to be sent.
type Frame struct {
	Host string
	Port int
	Msg  *message.Message
}

// NewNodeNotice is emitted by the routing worker when a configured
// neighbor is confirmed for the first time via the hello protocol.
type NewNodeNotice struct {
	ID      string
	Address string
	Port    int
}

// Bus is the full set of queues shared by a node's workers.
type Bus struct {
	// Inbox carries every decoded inbound record.
	Inbox chan Envelope

	// Outbox carries every outbound (host, port, record) tuple.
	Outbox chan Frame

	// RoutingInfo carries records the transport worker classified as
	// control traffic (hello, routing_info, dijkstra_info,
	// topology_update, node_discovery).
	RoutingInfo chan Envelope

	// LSPQueue carries records with type=lsp and proto=lsr.
	LSPQueue chan Envelope

	// NewNodes carries neighbor-discovery notifications.
	NewNodes chan NewNodeNotice
}

// Default queue depth. Workers drain on a poll loop (spec §5); a bounded
// buffer smooths bursts without letting a stalled consumer grow memory
// without bound.
const defaultDepth = 256

// New allocates a Bus with the default queue depths.
func New() *Bus {
	return &Bus{
		Inbox:       make(chan Envelope, defaultDepth),
		Outbox:      make(chan Frame, defaultDepth),
		RoutingInfo: make(chan Envelope, defaultDepth),
		LSPQueue:    make(chan Envelope, defaultDepth),
		NewNodes:    make(chan NewNodeNotice, defaultDepth),
	}
}

// IsControlType reports whether t is one of the control-plane types the
// transport worker additionally routes into RoutingInfo (spec §4.2).
func IsControlType(t message.Type) bool {
	switch t {
	case message.TypeHello, message.TypeRoutingInfo, message.TypeDijkstraInfo,
		message.TypeTopologyUpdate, message.TypeNodeDiscovery:
		return true
	default:
		return false
	}
}
