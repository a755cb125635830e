// Package routing holds the shared routing table, the discovered-
// neighbors map, and the three routing sub-engines (flooding, link-state,
// distributed Dijkstra) described in spec §3-4.
package routing

import (
	"sync"
	"time"
)

// EntryTTL is the age after which a routing-table entry is considered
// stale and is dropped from subsequent snapshots (spec §3).
const EntryTTL = 120 * time.Second

// Entry is a routing-table value. SharedState's table is keyed by
// destination logical address (spec §3); NextHop holds the next hop's
// logical address too — either a discovered neighbor's address or the
// destination's own address for a direct neighbor.
type Entry struct {
	NextHop   string
	Cost      int
	Interface string // "host:port" of the outbound interface
	Timestamp time.Time
	Source    string // algorithm that produced this entry: flooding|lsr|dijkstra
}

// Neighbor is a discovered-neighbors map value, keyed by the neighbor's
// logical address (spec §3).
type Neighbor struct {
	Port     int
	LastSeen time.Time
}

// SharedState is the single mutex-guarded structure the routing,
// forwarding, and operator workers all read or write: the
// routing table (keyed by destination logical address) and the
// discovered-neighbors map (keyed by neighbor logical address), with the
// per-neighbor port map folded into Neighbor.Port. Spec §5 requires
// these to share one lock, never held across a queue operation or
// socket call.
type SharedState struct {
	mu        sync.Mutex
	table     map[string]Entry
	neighbors map[string]Neighbor
}

// NewSharedState builds an empty SharedState.
func NewSharedState() *SharedState {
	return &SharedState{
		table:     make(map[string]Entry),
		neighbors: make(map[string]Neighbor),
	}
}

// SetEntry writes or replaces the routing-table entry for destAddr.
func (s *SharedState) SetEntry(destAddr string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[destAddr] = e
}

// Entry returns the current entry for destAddr, if any.
func (s *SharedState) Entry(destAddr string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.table[destAddr]
	return e, ok
}

// Snapshot returns a copy of the full routing table, for read-only
// consumption by the forwarding worker or the operator's `table`
// command.
func (s *SharedState) Snapshot() map[string]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Entry, len(s.table))
	for k, v := range s.table {
		out[k] = v
	}
	return out
}

// ReplaceTable atomically rewrites the whole table, as the LSR and
// Dijkstra sub-engines do after every link-state/topology recompute
// (spec §4.3).
func (s *SharedState) ReplaceTable(entries map[string]Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = entries
}

// ExpireOlderThan drops every entry whose Timestamp age exceeds maxAge,
// enforcing the 120s invariant from spec §3.
func (s *SharedState) ExpireOlderThan(maxAge time.Duration) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for destAddr, e := range s.table {
		if now.Sub(e.Timestamp) > maxAge {
			delete(s.table, destAddr)
		}
	}
}

// SetNeighbor records or refreshes a discovered neighbor, keyed by
// logical address, at its canonical port.
func (s *SharedState) SetNeighbor(addr string, port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.neighbors[addr] = Neighbor{Port: port, LastSeen: time.Now()}
}

// IsDiscovered reports whether addr has been discovered (received at
// least one hello since startup).
func (s *SharedState) IsDiscovered(addr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.neighbors[addr]
	return ok
}

// Neighbors returns a copy of the discovered-neighbors map.
func (s *SharedState) Neighbors() map[string]Neighbor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Neighbor, len(s.neighbors))
	for k, v := range s.neighbors {
		out[k] = v
	}
	return out
}

// NeighborPort returns the canonical port for a discovered neighbor,
// looked up by its logical address.
func (s *SharedState) NeighborPort(addr string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.neighbors[addr]
	return n.Port, ok
}
