package routing

import "math"

// Inf represents the absence of an edge in an adjacency matrix.
const Inf = math.MaxInt32

// Solver is the Dijkstra solver object described in spec §4.6,
// parameterized by an adjacency matrix over V vertices indexed 0..V-1.
//
// This repo hand-rolls the relaxation loop rather than reaching for
// github.com/RyanCarrier/dijkstra (the shortest-path library the
// DTLSR-style routers in the retrieval pack use): the spec requires a
// deterministic smallest-index tie-break and an auxiliary first_hop[]
// array threaded through relaxation (next-hop extraction), and the
// library's Shortest(src, dst) call exposes neither knob. See
// DESIGN.md.
type Solver struct {
	matrix [][]int
	v      int
}

// NewSolver builds a Solver over the given V x V adjacency matrix.
// matrix[i][j] == Inf means there is no direct edge from i to j.
func NewSolver(matrix [][]int, v int) *Solver {
	return &Solver{matrix: matrix, v: v}
}

// Result is the per-destination outcome of ShortestPaths.
type Result struct {
	NextHop   int
	Distance  int
	Reachable bool
}

// ShortestPaths runs single-source shortest paths from source over
// non-negative edge weights (spec §4.3's shared shortest-path
// algorithm), returning the settled distance and first-hop vertex for
// every vertex.
//
// first_hop[v] is the neighbor of source that the shortest known path to
// v departs through: set to v itself when relaxing the edge directly
// from source, and propagated unchanged when relaxing through an
// intermediate vertex. Ties in tentative distance are broken by
// preferring the smallest vertex index, making vertex selection and the
// resulting first-hop assignment deterministic.
func (s *Solver) ShortestPaths(source int) (dist []int, firstHop []int) {
	dist = make([]int, s.v)
	firstHop = make([]int, s.v)
	visited := make([]bool, s.v)

	for i := range dist {
		dist[i] = Inf
		firstHop[i] = -1
	}
	if source < 0 || source >= s.v {
		return dist, firstHop
	}
	dist[source] = 0
	firstHop[source] = source

	for {
		u := -1
		best := Inf
		for v := 0; v < s.v; v++ {
			if visited[v] {
				continue
			}
			if dist[v] < best {
				best = dist[v]
				u = v
			}
		}
		if u == -1 {
			break
		}
		visited[u] = true

		for v := 0; v < s.v; v++ {
			if visited[v] || u == v {
				continue
			}
			w := s.matrix[u][v]
			if w >= Inf || dist[u] >= Inf {
				continue
			}
			cand := dist[u] + w
			if cand < dist[v] {
				dist[v] = cand
				if u == source {
					firstHop[v] = v
				} else {
					firstHop[v] = firstHop[u]
				}
			}
		}
	}
	return dist, firstHop
}

// Results runs ShortestPaths from source and packages the outcome as a
// per-destination Result map, the helper spec §4.6 asks the Dijkstra
// solver to expose.
func (s *Solver) Results(source int) map[int]Result {
	dist, firstHop := s.ShortestPaths(source)
	out := make(map[int]Result, s.v)
	for v := 0; v < s.v; v++ {
		if v == source {
			continue
		}
		out[v] = Result{
			NextHop:   firstHop[v],
			Distance:  dist[v],
			Reachable: dist[v] < Inf,
		}
	}
	return out
}
