package routing

import (
	"testing"

	"github.com/mvelasco/redrouter/internal/config"
)

// identityResolver builds a Resolver whose logical addresses equal the
// identifiers themselves, so tests can assert on plain ids without caring
// about wire-address formatting.
func identityResolver(ids ...string) *config.Resolver {
	names := make(config.Names, len(ids))
	for _, id := range ids {
		names[id] = id
	}
	return config.NewResolver(names)
}

// TestFlooding_chainDelivery exercises S1: A-B-C chain, A sends to C.
// B must never locally deliver; C delivers exactly once.
func TestFlooding_chainDelivery(t *testing.T) {
	r := identityResolver("A", "B", "C")
	a := NewFlooding("A", []string{"B"}, r)
	b := NewFlooding("B", []string{"A", "C"}, r)
	c := NewFlooding("C", []string{"B"}, r)

	msg := a.CreateMessage("C", "hello", 10)

	// A "receives" its own originated message (self-injection, spec §9).
	forwardsFromA, deliveredAtA := a.ReceiveMessage(msg, "A")
	if deliveredAtA {
		t.Fatal("A must not deliver a message destined for C")
	}
	if len(forwardsFromA) != 1 || forwardsFromA[0].NeighborID != "B" {
		t.Fatalf("forwards from A = %+v, want exactly one copy to B", forwardsFromA)
	}

	forwardsFromB, deliveredAtB := b.ReceiveMessage(forwardsFromA[0].Msg, "A")
	if deliveredAtB {
		t.Fatal("B must not locally deliver a message destined for C")
	}
	if len(forwardsFromB) != 1 || forwardsFromB[0].NeighborID != "C" {
		t.Fatalf("forwards from B = %+v, want exactly one copy to C", forwardsFromB)
	}

	forwardsFromC, deliveredAtC := c.ReceiveMessage(forwardsFromB[0].Msg, "B")
	if !deliveredAtC {
		t.Fatal("C must deliver the message addressed to it")
	}
	if len(forwardsFromC) != 0 {
		t.Fatalf("forwards from C = %+v, want none", forwardsFromC)
	}
	if forwardsFromB[0].Msg.OriginalSender != "A" {
		t.Fatalf("OriginalSender = %q, want A", forwardsFromB[0].Msg.OriginalSender)
	}
	if !a.Seen(msg.MsgID) {
		t.Fatal("A's seen-set must contain the message id after origination")
	}
}

// TestFlooding_diamondNoDuplicateDelivery exercises S2: A-B, A-C, B-D, C-D.
// D must deliver exactly once even though two copies arrive.
func TestFlooding_diamondNoDuplicateDelivery(t *testing.T) {
	r := identityResolver("A", "B", "C", "D")
	a := NewFlooding("A", []string{"B", "C"}, r)
	b := NewFlooding("B", []string{"A", "D"}, r)
	c := NewFlooding("C", []string{"A", "D"}, r)
	d := NewFlooding("D", []string{"B", "C"}, r)

	msg := a.CreateMessage("D", "data1", 10)
	forwardsFromA, _ := a.ReceiveMessage(msg, "A")
	if len(forwardsFromA) != 2 {
		t.Fatalf("forwards from A = %d, want 2 (to B and C)", len(forwardsFromA))
	}

	var viaB, viaC *Forward
	for i := range forwardsFromA {
		switch forwardsFromA[i].NeighborID {
		case "B":
			viaB = &forwardsFromA[i]
		case "C":
			viaC = &forwardsFromA[i]
		}
	}
	if viaB == nil || viaC == nil {
		t.Fatalf("forwards from A = %+v, want copies to both B and C", forwardsFromA)
	}

	forwardsFromB, _ := b.ReceiveMessage(viaB.Msg, "A")
	forwardsFromC, _ := c.ReceiveMessage(viaC.Msg, "A")
	if len(forwardsFromB) != 1 || forwardsFromB[0].NeighborID != "D" {
		t.Fatalf("forwards from B = %+v, want one copy to D", forwardsFromB)
	}
	if len(forwardsFromC) != 1 || forwardsFromC[0].NeighborID != "D" {
		t.Fatalf("forwards from C = %+v, want one copy to D", forwardsFromC)
	}

	_, deliveredFirst := d.ReceiveMessage(forwardsFromB[0].Msg, "B")
	if !deliveredFirst {
		t.Fatal("D must deliver the first arrival")
	}
	forwardsSecond, deliveredSecond := d.ReceiveMessage(forwardsFromC[0].Msg, "C")
	if deliveredSecond {
		t.Fatal("D must not re-deliver the same message id")
	}
	if len(forwardsSecond) != 0 {
		t.Fatalf("D must not re-forward a duplicate, got %+v", forwardsSecond)
	}
}

// TestFlooding_ttlCutoff exercises S6: linear chain A-B-C-D-E. Self
// injection runs the originator's own send through the same ttl<=1 check
// as every relay (spec §9), so a hop budget of N lets the frame survive
// N-1 relay forwards before dying on arrival at the Nth node. With ttl=3
// that means: A originates (ttl 3->2) to B, B relays (ttl 2->1) to C,
// and C drops on arrival (ttl=1) rather than reaching D or E.
func TestFlooding_ttlCutoff(t *testing.T) {
	r := identityResolver("A", "B", "C", "D", "E")
	a := NewFlooding("A", []string{"B"}, r)
	b := NewFlooding("B", []string{"A", "C"}, r)
	c := NewFlooding("C", []string{"B", "D"}, r)

	msg := a.CreateMessage("E", "ping", 3)
	forwardsFromA, _ := a.ReceiveMessage(msg, "A")
	if len(forwardsFromA) != 1 {
		t.Fatalf("forwards from A = %+v, want one copy to B", forwardsFromA)
	}
	if forwardsFromA[0].Msg.TTL != 2 {
		t.Fatalf("ttl after A's hop = %d, want 2", forwardsFromA[0].Msg.TTL)
	}

	forwardsFromB, _ := b.ReceiveMessage(forwardsFromA[0].Msg, "A")
	if len(forwardsFromB) != 1 {
		t.Fatalf("forwards from B = %+v, want one copy to C", forwardsFromB)
	}
	if forwardsFromB[0].Msg.TTL != 1 {
		t.Fatalf("ttl after B's hop = %d, want 1", forwardsFromB[0].Msg.TTL)
	}

	forwardsFromC, deliveredAtC := c.ReceiveMessage(forwardsFromB[0].Msg, "B")
	if deliveredAtC {
		t.Fatal("C is not the destination and must not deliver")
	}
	if len(forwardsFromC) != 0 {
		t.Fatalf("forwards from C = %+v, want none: ttl must cut off here", forwardsFromC)
	}
}
