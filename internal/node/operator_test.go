package node

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mvelasco/redrouter/internal/config"
)

func testNode(t *testing.T, id string, algo Algorithm, neighbors []string) *Node {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	names := config.Names{"A": "nodeA@localhost", "B": "nodeB@localhost", "C": "nodeC@localhost"}
	return New(Config{
		ID:        id,
		Host:      "localhost",
		Port:      0,
		Algorithm: algo,
		Neighbors: neighbors,
		Resolver:  config.NewResolver(names),
	}, log)
}

func TestOperator_sendFloodingQueuesSelfOriginatedFrame(t *testing.T) {
	n := testNode(t, "A", AlgoFlooding, []string{"B"})

	var out bytes.Buffer
	n.RunOperator(strings.NewReader("send C hello world\n"), &out)

	if !strings.Contains(out.String(), "queued") {
		t.Fatalf("operator output = %q, want it to report queuing", out.String())
	}

	select {
	case env := <-n.Bus.Inbox:
		if env.Msg.To != "nodeC@localhost" || env.Msg.From != "nodeA@localhost" {
			t.Fatalf("queued msg = %+v, want From=nodeA@localhost To=nodeC@localhost", env.Msg)
		}
		if env.Msg.DataPayload() != "hello world" {
			t.Fatalf("payload = %q, want %q", env.Msg.DataPayload(), "hello world")
		}
	default:
		t.Fatal("expected a self-originated frame on Inbox")
	}
}

func TestOperator_costOnlyAppliesToLSRAndDijkstra(t *testing.T) {
	n := testNode(t, "A", AlgoFlooding, []string{"B"})
	var out bytes.Buffer
	n.RunOperator(strings.NewReader("cost B 7\n"), &out)
	if !strings.Contains(out.String(), "only meaningful") {
		t.Fatalf("output = %q, want rejection for flooding", out.String())
	}

	lsrNode := testNode(t, "A", AlgoLSR, []string{"B"})
	out.Reset()
	lsrNode.RunOperator(strings.NewReader("cost B 7\n"), &out)
	if !strings.Contains(out.String(), "cost B -> 7") {
		t.Fatalf("output = %q, want confirmation", out.String())
	}
}

func TestOperator_tableReflectsSharedState(t *testing.T) {
	n := testNode(t, "A", AlgoLSR, []string{"B"})
	n.State.SetEntry("nodeC@localhost", routingEntryFixture())

	var out bytes.Buffer
	n.RunOperator(strings.NewReader("table\nquit\n"), &out)
	if !strings.Contains(out.String(), "nodeC@localhost next_hop=nodeB@localhost cost=2") {
		t.Fatalf("output = %q, want the seeded entry rendered", out.String())
	}
}

func TestOperator_quitStopsTheLoop(t *testing.T) {
	n := testNode(t, "A", AlgoLSR, []string{"B"})
	var out bytes.Buffer
	// A command after quit must never run.
	n.RunOperator(strings.NewReader("quit\nsend\n"), &out)
	if strings.Contains(out.String(), "usage") {
		t.Fatalf("output = %q, commands after quit should not execute", out.String())
	}
}
