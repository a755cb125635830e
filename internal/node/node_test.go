package node

import (
	"time"

	"github.com/mvelasco/redrouter/internal/bus"
	"github.com/mvelasco/redrouter/internal/message"
	"github.com/mvelasco/redrouter/internal/routing"
)

func routingEntryFixture() routing.Entry {
	return routing.Entry{NextHop: "nodeB@localhost", Cost: 2, Interface: "localhost:5001", Timestamp: time.Now(), Source: "lsr"}
}

func dataMessage(from, to string, ttl int) *message.Message {
	return &message.Message{
		Proto: message.ProtoLSR, Type: message.TypeMessage,
		From: from, To: to, TTL: ttl,
		MsgID: message.NewMsgID(from), OriginalSender: from,
		Timestamp: time.Now().Unix(), Payload: map[string]any{"data": "x"},
	}
}

func envelopeOf(m *message.Message) bus.Envelope {
	return bus.Envelope{Msg: m, PeerHost: "localhost", PeerPort: 0}
}
