package routing

import "testing"

// TestLSR_ringConvergence exercises S3: a four-node ring, all costs 1.
func TestLSR_ringConvergence(t *testing.T) {
	a := NewLSR("A", "A", map[string]int{"B": 1, "D": 1})
	b := NewLSR("B", "B", map[string]int{"A": 1, "C": 1})
	c := NewLSR("C", "C", map[string]int{"B": 1, "D": 1})
	d := NewLSR("D", "D", map[string]int{"C": 1, "A": 1})

	// Feed each node's own LSP into all the others directly (as if
	// flooded and forwarded to convergence).
	lspA := a.CreateLSP()
	lspB := b.CreateLSP()
	lspC := c.CreateLSP()
	lspD := d.CreateLSP()

	for _, n := range []*LSR{a, b, c, d} {
		n.ProcessLSP(lspA)
		n.ProcessLSP(lspB)
		n.ProcessLSP(lspC)
		n.ProcessLSP(lspD)
	}

	table := a.RoutingTable()
	if table["C"].Cost != 2 {
		t.Fatalf("A->C cost = %d, want 2", table["C"].Cost)
	}
	if table["B"].Cost != 1 || table["D"].Cost != 1 {
		t.Fatalf("A->B/D cost = %d/%d, want 1/1", table["B"].Cost, table["D"].Cost)
	}
	if table["C"].NextHop != "B" && table["C"].NextHop != "D" {
		t.Fatalf("A->C next hop = %q, want B or D", table["C"].NextHop)
	}
}

func TestLSR_monotonicSequenceAcceptance(t *testing.T) {
	a := NewLSR("A", "A", map[string]int{"B": 1})
	b := NewLSR("B", "B", map[string]int{"A": 1, "C": 5})

	first := b.CreateLSP()
	_, changed := a.ProcessLSP(first)
	if !changed {
		t.Fatal("ProcessLSP() expected change on first LSP")
	}

	stale := b.CreateLSP()
	stale.Payload["sequence"] = uint64(0)
	if _, changed := a.ProcessLSP(stale); changed {
		t.Fatal("ProcessLSP() accepted a non-increasing sequence")
	}

	fresh := b.CreateLSP()
	if _, changed := a.ProcessLSP(fresh); !changed {
		t.Fatal("ProcessLSP() rejected a strictly increasing sequence")
	}
}

func TestLSR_dropsExpiredTTL(t *testing.T) {
	a := NewLSR("A", "A", map[string]int{"B": 1})
	lsp := a.CreateLSP()
	lsp.TTL = 0

	if _, changed := a.ProcessLSP(lsp); changed {
		t.Fatal("ProcessLSP() accepted an LSP with ttl<=0")
	}
}
