package routing

import (
	"strconv"
	"sync"
	"time"

	"github.com/mvelasco/redrouter/internal/message"
)

// lspTTL is the hop budget an LSP is seeded with (spec §4.3).
const lspTTL = 10

// LSEntry is a link-state database value: a node's most recently
// accepted neighbor-cost announcement.
type LSEntry struct {
	NeighborCost map[string]int
	Sequence     uint64
	Timestamp    time.Time
}

// LSR is the link-state sub-engine from spec §4.3/§4.6, parameterized by
// (self_id, neighbor_cost_map). It owns the link-state database and the
// LSP de-duplication history exclusively, computing entirely in
// identifier space (spec §9's two naming spaces); selfAddr only serves
// the wire-facing From/OriginalSender fields the messages it builds carry
// (spec §3).
type LSR struct {
	selfID       string
	selfAddr     string
	neighborCost map[string]int

	mu      sync.Mutex
	seq     uint64
	db      map[string]LSEntry
	history map[string]struct{} // "<origin>-<sequence>" already-processed LSPs
}

// NewLSR builds an LSR instance. selfAddr is this node's logical wire
// address.
func NewLSR(selfID, selfAddr string, neighborCost map[string]int) *LSR {
	cp := make(map[string]int, len(neighborCost))
	for k, v := range neighborCost {
		cp[k] = v
	}
	return &LSR{
		selfID:       selfID,
		selfAddr:     selfAddr,
		neighborCost: cp,
		db:           make(map[string]LSEntry),
		history:      make(map[string]struct{}),
	}
}

// SetCost updates the cost of a configured neighbor (operator `cost`
// command, spec §4.5); the caller is responsible for triggering the next
// LSP emission.
func (l *LSR) SetCost(neighborID string, cost int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.neighborCost[neighborID] = cost
}

// CreateLSP builds this node's own LSP: {origin, sequence,
// local_neighbor_cost_map, ttl, timestamp}.
func (l *LSR) CreateLSP() *message.Message {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	costs := make(map[string]any, len(l.neighborCost))
	for k, v := range l.neighborCost {
		costs[k] = v
	}
	l.mu.Unlock()

	return &message.Message{
		Proto:          message.ProtoLSR,
		Type:           message.TypeLSP,
		From:           l.selfAddr,
		To:             message.Broadcast,
		TTL:            lspTTL,
		MsgID:          message.NewMsgID(l.selfID),
		OriginalSender: l.selfAddr,
		Timestamp:      time.Now().Unix(),
		Payload: map[string]any{
			"origin":   l.selfID,
			"sequence": seq,
			"costs":    costs,
		},
	}
}

// ProcessLSP applies an incoming LSP: drop if ttl<=0 or (origin,seq)
// already seen; otherwise, if origin is unknown or the stored sequence
// is strictly less than incoming, replace the entry, record history,
// decrement ttl, and return the message to forward to every neighbor
// except the one it arrived from. changed reports whether the
// link-state database was modified (routes should be recomputed).
func (l *LSR) ProcessLSP(m *message.Message) (forward *message.Message, changed bool) {
	origin, _ := m.Payload["origin"].(string)
	seq := decodeSequence(m.Payload["sequence"])
	costs := decodeCosts(m.Payload["costs"])

	if m.TTL <= 0 || origin == "" {
		return nil, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := historyKey(origin, seq)
	if _, dup := l.history[key]; dup {
		return nil, false
	}

	existing, known := l.db[origin]
	if known && existing.Sequence >= seq {
		l.history[key] = struct{}{}
		return nil, false
	}

	l.db[origin] = LSEntry{NeighborCost: costs, Sequence: seq, Timestamp: time.Now()}
	l.history[key] = struct{}{}

	out := &message.Message{
		Proto:          message.ProtoLSR,
		Type:           message.TypeLSP,
		From:           l.selfAddr,
		To:             message.Broadcast,
		TTL:            m.TTL - 1,
		MsgID:          m.MsgID,
		OriginalSender: m.OriginalSender,
		Timestamp:      m.Timestamp,
		Payload:        m.Payload,
	}
	return out, true
}

// RouteResult is the outcome RoutingTable reports per destination.
type RouteResult struct {
	NextHop string
	Cost    int
}

// RoutingTable recomputes shortest paths over the union of all nodes
// mentioned in the link-state database (spec §4.3) and returns
// {dest_id: (next_hop_id, cost)}.
func (l *LSR) RoutingTable() map[string]RouteResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := map[string]int{l.selfID: 0}
	order := []string{l.selfID}
	addID := func(id string) {
		if _, ok := ids[id]; !ok {
			ids[id] = len(order)
			order = append(order, id)
		}
	}
	for peer := range l.neighborCost {
		addID(peer)
	}
	for origin, entry := range l.db {
		addID(origin)
		for peer := range entry.NeighborCost {
			addID(peer)
		}
	}

	n := len(order)
	matrix := make([][]int, n)
	for i := range matrix {
		matrix[i] = make([]int, n)
		for j := range matrix[i] {
			if i != j {
				matrix[i][j] = Inf
			}
		}
	}
	for peer, cost := range l.neighborCost {
		matrix[ids[l.selfID]][ids[peer]] = cost
	}
	for origin, entry := range l.db {
		for peer, cost := range entry.NeighborCost {
			matrix[ids[origin]][ids[peer]] = cost
		}
	}

	solver := NewSolver(matrix, n)
	results := solver.Results(ids[l.selfID])

	out := make(map[string]RouteResult, len(results))
	for idx, r := range results {
		if !r.Reachable {
			continue
		}
		out[order[idx]] = RouteResult{NextHop: order[r.NextHop], Cost: r.Distance}
	}
	return out
}

func historyKey(origin string, seq uint64) string {
	return origin + "-" + strconv.FormatUint(seq, 10)
}

func decodeSequence(v any) uint64 {
	switch n := v.(type) {
	case float64:
		return uint64(n)
	case uint64:
		return n
	case int:
		return uint64(n)
	default:
		return 0
	}
}

func decodeCosts(v any) map[string]int {
	out := make(map[string]int)
	raw, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, cv := range raw {
		switch n := cv.(type) {
		case float64:
			out[k] = int(n)
		case int:
			out[k] = n
		}
	}
	return out
}
