package routing

import (
	"sync"
	"time"

	"github.com/mvelasco/redrouter/internal/message"
)

// DistDijkstra is the hybrid sub-engine from spec §4.3: nodes flood their
// local neighbor-cost map (dijkstra_info) and a topology snapshot
// (topology_update); each node maintains a global adjacency matrix and
// recomputes shortest paths from itself whenever that matrix changes.
type DistDijkstra struct {
	selfID       string
	selfAddr     string
	neighborCost map[string]int

	mu       sync.Mutex
	topology map[string]map[string]int // origin -> neighbor -> cost
}

// NewDistDijkstra builds a distributed-Dijkstra instance. selfAddr is this
// node's logical wire address, used only for the From/OriginalSender
// fields of the messages it builds; every computation stays in identifier
// space (spec §9's two naming spaces).
func NewDistDijkstra(selfID, selfAddr string, neighborCost map[string]int) *DistDijkstra {
	cp := make(map[string]int, len(neighborCost))
	for k, v := range neighborCost {
		cp[k] = v
	}
	d := &DistDijkstra{
		selfID:       selfID,
		selfAddr:     selfAddr,
		neighborCost: cp,
		topology:     make(map[string]map[string]int),
	}
	d.topology[selfID] = cp
	return d
}

// SetCost updates the cost of a configured neighbor.
func (d *DistDijkstra) SetCost(neighborID string, cost int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.neighborCost[neighborID] = cost
	d.topology[d.selfID][neighborID] = cost
}

// CreateInfo builds this node's dijkstra_info announcement: its own
// neighbor-cost map, sent every ~10s.
func (d *DistDijkstra) CreateInfo() *message.Message {
	d.mu.Lock()
	costs := make(map[string]any, len(d.neighborCost))
	for k, v := range d.neighborCost {
		costs[k] = v
	}
	d.mu.Unlock()

	return &message.Message{
		Proto:          message.ProtoDijkstra,
		Type:           message.TypeDijkstraInfo,
		From:           d.selfAddr,
		To:             message.Broadcast,
		TTL:            16,
		MsgID:          message.NewMsgID(d.selfID),
		OriginalSender: d.selfAddr,
		Timestamp:      time.Now().Unix(),
		Payload:        map[string]any{"origin": d.selfID, "costs": costs},
	}
}

// CreateTopologySnapshot builds a topology_update announcing the full
// topology this node currently knows, sent every ~5s.
func (d *DistDijkstra) CreateTopologySnapshot() *message.Message {
	d.mu.Lock()
	snap := make(map[string]any, len(d.topology))
	for origin, costs := range d.topology {
		row := make(map[string]any, len(costs))
		for peer, cost := range costs {
			row[peer] = cost
		}
		snap[origin] = row
	}
	d.mu.Unlock()

	return &message.Message{
		Proto:          message.ProtoDijkstra,
		Type:           message.TypeTopologyUpdate,
		From:           d.selfAddr,
		To:             message.Broadcast,
		TTL:            16,
		MsgID:          message.NewMsgID(d.selfID),
		OriginalSender: d.selfAddr,
		Timestamp:      time.Now().Unix(),
		Payload:        map[string]any{"topology": snap},
	}
}

// ProcessInfo merges an incoming dijkstra_info announcement into the
// local topology view. changed reports whether anything was modified.
func (d *DistDijkstra) ProcessInfo(m *message.Message) (changed bool) {
	origin, _ := m.Payload["origin"].(string)
	if origin == "" {
		return false
	}
	costs := decodeCosts(m.Payload["costs"])

	d.mu.Lock()
	defer d.mu.Unlock()
	if mapEqual(d.topology[origin], costs) {
		return false
	}
	d.topology[origin] = costs
	return true
}

// ProcessTopologySnapshot merges an incoming topology_update's full view
// into the local topology, keeping every origin's entry. changed reports
// whether anything new was learned.
func (d *DistDijkstra) ProcessTopologySnapshot(m *message.Message) (changed bool) {
	raw, ok := m.Payload["topology"].(map[string]any)
	if !ok {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for origin, v := range raw {
		row, ok := v.(map[string]any)
		if !ok {
			continue
		}
		costs := decodeCosts(row)
		if !mapEqual(d.topology[origin], costs) {
			d.topology[origin] = costs
			changed = true
		}
	}
	return changed
}

// RoutingTable recomputes shortest paths from self over the known
// adjacency matrix and returns {dest_id: (first_hop_node_id, total_cost)}.
func (d *DistDijkstra) RoutingTable() map[string]RouteResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := map[string]int{d.selfID: 0}
	order := []string{d.selfID}
	addID := func(id string) {
		if _, ok := ids[id]; !ok {
			ids[id] = len(order)
			order = append(order, id)
		}
	}
	for origin, costs := range d.topology {
		addID(origin)
		for peer := range costs {
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
	for origin, costs := range d.topology {
		for peer, cost := range costs {
			matrix[ids[origin]][ids[peer]] = cost
		}
	}

	solver := NewSolver(matrix, n)
	results := solver.Results(ids[d.selfID])

	out := make(map[string]RouteResult, len(results))
	for idx, r := range results {
		if !r.Reachable {
			continue
		}
		out[order[idx]] = RouteResult{NextHop: order[r.NextHop], Cost: r.Distance}
	}
	return out
}

// Graph returns a copy of the known topology (origin -> neighbor -> cost)
// for the operator's `graph` command to print.
func (d *DistDijkstra) Graph() map[string]map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]map[string]int, len(d.topology))
	for origin, costs := range d.topology {
		row := make(map[string]int, len(costs))
		for peer, cost := range costs {
			row[peer] = cost
		}
		out[origin] = row
	}
	return out
}

func mapEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
