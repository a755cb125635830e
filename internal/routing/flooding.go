package routing

import (
	"time"

	"github.com/mvelasco/redrouter/internal/message"
)

// FloodingRouter is the flooding sub-engine from spec §4.3: it seeds the
// routing table with direct neighbors and grows it by merging peers'
// advertised tables, distance-vector style. It does not forward data
// frames; that is Flooding's job (floodstate.go, spec §4.4/§4.6). The shared routing
// table it writes is keyed by destination logical address, per spec §3;
// f.neighbors stays in identifier space only for iterating this node's
// configured neighbor list, the way the flooding algorithm's other
// components do (spec §9's two naming spaces).
type FloodingRouter struct {
	selfAddr  string
	neighbors []string // configured neighbor ids
}

// NewFloodingRouter builds a flooding routing sub-engine. selfAddr is
// this node's own logical address, used to skip self-entries during
// MergeAdvertisement.
func NewFloodingRouter(selfAddr string, neighbors []string) *FloodingRouter {
	return &FloodingRouter{selfAddr: selfAddr, neighbors: neighbors}
}

// SeedDirectNeighbors writes a cost-1 entry for every configured
// neighbor into state, per spec §4.3's "seeds the routing table with
// direct neighbors at cost 1". addrFor resolves a neighbor id to its
// logical address (the table's key and the entry's next hop); iface
// returns the host:port to reach a neighbor id directly.
func (f *FloodingRouter) SeedDirectNeighbors(state *SharedState, addrFor, iface func(id string) string) {
	for _, nid := range f.neighbors {
		addr := addrFor(nid)
		state.SetEntry(addr, Entry{
			NextHop:   addr,
			Cost:      1,
			Interface: iface(nid),
			Timestamp: time.Now(),
			Source:    "flooding",
		})
	}
}

// AdvertisedTable is the payload shape broadcast every 5s to active
// neighbors: destination logical address -> advertised distance.
type AdvertisedTable map[string]int

// BuildAdvertisement snapshots state into the distance-only view peers
// need to run the distance-vector merge step.
func (f *FloodingRouter) BuildAdvertisement(state *SharedState) AdvertisedTable {
	snap := state.Snapshot()
	out := make(AdvertisedTable, len(snap))
	for dest, e := range snap {
		out[dest] = e.Cost
	}
	return out
}

// MergeAdvertisement applies a peer's advertised table to state: for
// each remote destination, candidate_distance = remote_distance + 1; if
// the current entry is missing or strictly greater, replace it with
// next-hop = sender (spec §4.3). senderAddr is the sending neighbor's
// own logical address, used both to skip self-entries in the peer's
// table and as the resulting entry's next hop.
func (f *FloodingRouter) MergeAdvertisement(state *SharedState, senderAddr, senderIface string, advertised AdvertisedTable) {
	for destAddr, remoteDist := range advertised {
		if destAddr == f.selfAddr {
			continue
		}
		candidate := remoteDist + 1
		current, ok := state.Entry(destAddr)
		if !ok || current.Cost > candidate {
			state.SetEntry(destAddr, Entry{
				NextHop:   senderAddr,
				Cost:      candidate,
				Interface: senderIface,
				Timestamp: time.Now(),
				Source:    "flooding",
			})
		}
	}
}

// DecodeRoutingInfo extracts an AdvertisedTable (keyed by destination
// logical address) from a routing_info message's payload.
func DecodeRoutingInfo(m *message.Message) AdvertisedTable {
	out := make(AdvertisedTable)
	raw, _ := m.Payload["table"].(map[string]any)
	for destAddr, v := range raw {
		switch n := v.(type) {
		case float64:
			out[destAddr] = int(n)
		case int:
			out[destAddr] = n
		}
	}
	return out
}

// EncodeRoutingInfo packages an AdvertisedTable into a routing_info
// message payload.
func EncodeRoutingInfo(table AdvertisedTable) map[string]any {
	raw := make(map[string]any, len(table))
	for destAddr, cost := range table {
		raw[destAddr] = cost
	}
	return map[string]any{"table": raw}
}
