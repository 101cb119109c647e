// Package observer exposes a running simulation over WebSocket. Clients
// receive snapshot, event and summary messages and may send controls, which
// are schema-checked before they reach the runner.
package observer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pthm-cable/equilibrium/game"
	"github.com/pthm-cable/equilibrium/telemetry"
)

//go:embed control.schema.json
var controlSchema string

// Message types sent to clients.
const (
	TypeSnapshot = "snapshot"
	TypeEvents   = "events"
	TypeSummary  = "summary"
	TypeError    = "error"
)

// Message is the envelope of every outbound frame.
type Message struct {
	Type     string            `json:"type"`
	Snapshot *game.Snapshot    `json:"snapshot,omitempty"`
	Events   []telemetry.Event `json:"events,omitempty"`
	Summary  *game.Summary     `json:"summary,omitempty"`
	Error    string            `json:"error,omitempty"`
}

const (
	clientQueue  = 64
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
)

// ErrControlsFull is reported to a client when the runner is not keeping up.
var ErrControlsFull = errors.New("control queue full")

// Server fans runner output out to WebSocket clients and forwards their
// controls to the runner. It implements game.Publisher.
type Server struct {
	upgrader websocket.Upgrader
	schema   *jsonschema.Schema
	controls chan<- game.Control

	nextID atomic.Uint64

	mu       sync.Mutex
	clients  map[uint64]chan []byte
	snapshot []byte // latest snapshot frame, sent to new clients
	closed   bool
}

// NewServer creates a server that forwards controls to controls.
func NewServer(controls chan<- game.Control) (*Server, error) {
	schema, err := jsonschema.CompileString("control.schema.json", controlSchema)
	if err != nil {
		return nil, fmt.Errorf("compile control schema: %w", err)
	}
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // local tool
		},
		schema:   schema,
		controls: controls,
		clients:  make(map[uint64]chan []byte),
	}, nil
}

// Handler upgrades requests to WebSocket sessions.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out, ok := s.join()
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		}
		defer s.leave(id)
		slog.Info("observer connected", "id", id, "remote", r.RemoteAddr)

		done := make(chan struct{})
		defer close(done)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-done:
					return
				case b, ok := <-out:
					if !ok {
						_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if err := s.handleControl(msg); err != nil {
				s.send(id, Message{Type: TypeError, Error: err.Error()})
			}
		}
		slog.Info("observer disconnected", "id", id)
	}
}

// handleControl validates one inbound frame and queues it for the runner.
func (s *Server) handleControl(msg []byte) error {
	c, err := s.DecodeControl(msg)
	if err != nil {
		return err
	}
	select {
	case s.controls <- c:
		return nil
	default:
		return ErrControlsFull
	}
}

// DecodeControl checks msg against the control schema and decodes it.
func (s *Server) DecodeControl(msg []byte) (game.Control, error) {
	var c game.Control
	var doc any
	if err := json.Unmarshal(msg, &doc); err != nil {
		return c, fmt.Errorf("decode control: %w", err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return c, fmt.Errorf("invalid control: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("decode control: %w", err)
	}
	return c, nil
}

func (s *Server) join() (uint64, chan []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, nil, false
	}
	id := s.nextID.Add(1)
	out := make(chan []byte, clientQueue)
	if s.snapshot != nil {
		out <- s.snapshot
	}
	s.clients[id] = out
	return id, out, true
}

func (s *Server) leave(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if out, ok := s.clients[id]; ok {
		delete(s.clients, id)
		close(out)
	}
}

func (s *Server) send(id uint64, m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		slog.Error("failed to encode observer message", "type", m.Type, "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if out, ok := s.clients[id]; ok {
		select {
		case out <- b:
		default:
		}
	}
}

// broadcast queues m for every client. Slow clients miss frames rather
// than stall the runner.
func (s *Server) broadcast(m Message) []byte {
	b, err := json.Marshal(m)
	if err != nil {
		slog.Error("failed to encode observer message", "type", m.Type, "error", err)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, out := range s.clients {
		select {
		case out <- b:
		default:
		}
	}
	return b
}

// PublishSnapshot implements game.Publisher.
func (s *Server) PublishSnapshot(snap game.Snapshot) {
	b := s.broadcast(Message{Type: TypeSnapshot, Snapshot: &snap})
	if b == nil {
		return
	}
	s.mu.Lock()
	s.snapshot = b
	s.mu.Unlock()
}

// PublishEvents implements game.Publisher.
func (s *Server) PublishEvents(events []telemetry.Event) {
	if len(events) == 0 {
		return
	}
	s.broadcast(Message{Type: TypeEvents, Events: events})
}

// PublishSummary implements game.Publisher.
func (s *Server) PublishSummary(sum game.Summary) {
	s.broadcast(Message{Type: TypeSummary, Summary: &sum})
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client and refuses new ones.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, out := range s.clients {
		delete(s.clients, id)
		close(out)
	}
}
