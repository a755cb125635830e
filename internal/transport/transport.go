// Package transport owns the listening socket and per-destination
// outbound connections described in spec §4.1: it deserializes inbound
// frames into the bus's queues and drains the outbox onto fresh
// outbound connections.
package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mvelasco/redrouter/internal/bus"
	"github.com/mvelasco/redrouter/internal/message"
)

const (
	acceptPollTimeout  = time.Second
	outboxPollInterval = 100 * time.Millisecond
	dialTimeout        = 5 * time.Second
	sendRetries        = 3
	retryBackoff       = 500 * time.Millisecond
)

// Worker is the transport worker from spec §4.1.
type Worker struct {
	host string
	port int
	bus  *bus.Bus
	log  *logrus.Logger

	running atomic.Bool
	ln      *net.TCPListener
	ready   chan struct{}
}

// New builds a transport worker bound to host:port. A port of 0 lets the
// OS assign an ephemeral port, discoverable via Port() after Ready()
// closes.
func New(host string, port int, b *bus.Bus, log *logrus.Logger) *Worker {
	return &Worker{host: host, port: port, bus: b, log: log, ready: make(chan struct{})}
}

// Port returns the worker's bound listening port. Only valid after
// Ready() has closed.
func (w *Worker) Port() int {
	return w.port
}

// Ready closes once the worker's listening socket is bound.
func (w *Worker) Ready() <-chan struct{} {
	return w.ready
}

// Run listens on host:port and services the outbox until ctx is
// cancelled. It returns once both the accept loop and the outbox
// drainer have stopped.
func (w *Worker) Run(ctx context.Context) error {
	addr := &net.TCPAddr{IP: net.ParseIP(resolveHost(w.host)), Port: w.port}
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return fmt.Errorf("transport: listen %s:%d: %w", w.host, w.port, err)
	}
	w.ln = ln
	w.port = ln.Addr().(*net.TCPAddr).Port
	w.running.Store(true)
	close(w.ready)

	done := make(chan struct{})
	go func() {
		w.acceptLoop(ctx)
		close(done)
	}()
	go w.drainOutbox(ctx)

	<-ctx.Done()
	w.Stop()
	<-done
	return nil
}

// Stop cooperatively shuts the worker down: the running flag is
// observed by the accept loop within its next 1s poll tick (spec §5).
func (w *Worker) Stop() {
	w.running.Store(false)
	if w.ln != nil {
		_ = w.ln.Close()
	}
}

func (w *Worker) acceptLoop(ctx context.Context) {
	for w.running.Load() {
		_ = w.ln.SetDeadline(time.Now().Add(acceptPollTimeout))
		conn, err := w.ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if !w.running.Load() {
				return
			}
			w.log.WithError(err).Warn("transport: accept failed")
			continue
		}
		go w.handleConn(conn)
	}
}

// handleConn reads exactly one frame from conn, since the transport
// carries one frame per stream connection (spec §5's ordering
// guarantee), then classifies and dual-enqueues it.
func (w *Worker) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	host, portStr, _ := net.SplitHostPort(conn.RemoteAddr().String())
	peerPort, _ := strconv.Atoi(portStr)

	r := bufio.NewReader(conn)
	m, err := message.Decode(r)
	if err != nil {
		w.log.WithError(err).Warn("transport: dropping malformed frame")
		return
	}

	env := bus.Envelope{Msg: m, PeerHost: host, PeerPort: peerPort}
	w.bus.Inbox <- env
	if bus.IsControlType(m.Type) {
		w.bus.RoutingInfo <- env
	}
	if m.Type == message.TypeLSP && m.Proto == message.ProtoLSR {
		w.bus.LSPQueue <- env
	}
}

func (w *Worker) drainOutbox(ctx context.Context) {
	ticker := time.NewTicker(outboxPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-w.bus.Outbox:
			if err := w.Send(frame.Host, frame.Port, frame.Msg); err != nil {
				w.log.WithError(err).WithFields(logrus.Fields{
					"host": frame.Host, "port": frame.Port, "msg_id": frame.Msg.MsgID,
				}).Warn("transport: send failed")
			}
		case <-ticker.C:
		}
	}
}

// Send opens a fresh outbound connection, serializes msg, writes it in
// one shot, and closes. It retries up to three times with a 500ms
// backoff on connection refusal before reporting failure (spec §4.1).
func (w *Worker) Send(host string, port int, m *message.Message) error {
	dialID := uuid.NewString()
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var lastErr error
	for attempt := 1; attempt <= sendRetries; attempt++ {
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err == nil {
			defer conn.Close()
			_ = conn.SetWriteDeadline(time.Now().Add(dialTimeout))
			if werr := message.Encode(conn, m); werr != nil {
				return fmt.Errorf("transport: write %s: %w", addr, werr)
			}
			return nil
		}
		lastErr = err
		if !isConnRefused(err) {
			break
		}
		w.log.WithFields(logrus.Fields{
			"dial_id": dialID, "addr": addr, "attempt": attempt,
		}).Debug("transport: connection refused, retrying")
		time.Sleep(retryBackoff)
	}
	return fmt.Errorf("transport: dial %s after %d attempts: %w", addr, sendRetries, lastErr)
}

func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

func resolveHost(host string) string {
	if host == "" || host == "localhost" {
		return "127.0.0.1"
	}
	return host
}
