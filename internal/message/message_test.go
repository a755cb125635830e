package message

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"testing"
)

func TestEncodeDecode_roundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
	}{
		{
			name: "data frame",
			msg: &Message{
				Proto:          ProtoFlooding,
				Type:           TypeMessage,
				From:           "nodeA@localhost",
				To:             "nodeC@localhost",
				TTL:            5,
				MsgID:          "A-123",
				OriginalSender: "nodeA@localhost",
				Timestamp:      100,
				Payload:        map[string]any{"data": "hello"},
				Headers:        []string{},
			},
		},
		{
			name: "broadcast hello",
			msg: &Message{
				Proto:     ProtoLSR,
				Type:      TypeHello,
				From:      "nodeB@localhost",
				To:        Broadcast,
				TTL:       1,
				MsgID:     "B-1",
				Timestamp: 5,
				Payload:   map[string]any{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, tt.msg); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if !strings.HasSuffix(buf.String(), "\n") {
				t.Fatalf("Encode() did not terminate with a newline: %q", buf.String())
			}

			got, err := Decode(bufio.NewReader(&buf))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.From != tt.msg.From || got.To != tt.msg.To || got.MsgID != tt.msg.MsgID {
				t.Fatalf("Decode() = %+v, want %+v", got, tt.msg)
			}
			if got.DataPayload() != tt.msg.DataPayload() {
				t.Fatalf("DataPayload() = %q, want %q", got.DataPayload(), tt.msg.DataPayload())
			}
		})
	}
}

func TestDecode_malformedFrame(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("not json\n"))
	if _, err := Decode(r); err == nil {
		t.Fatal("Decode() expected error for malformed frame, got nil")
	}
}

func TestNewMsgID_monotonicPerOrigin(t *testing.T) {
	seen := make(map[string]bool)
	var prev int64 = -1
	for i := 0; i < 50; i++ {
		id := NewMsgID("A")
		if seen[id] {
			t.Fatalf("NewMsgID() produced duplicate id %q on iteration %d", id, i)
		}
		seen[id] = true
		if !strings.HasPrefix(id, "A-") {
			t.Fatalf("NewMsgID() = %q, want prefix 'A-'", id)
		}
		ms, err := strconv.ParseInt(strings.TrimPrefix(id, "A-"), 10, 64)
		if err != nil || ms <= prev {
			t.Fatalf("NewMsgID() = %q, want a numeric suffix greater than %d", id, prev)
		}
		prev = ms
	}
}
