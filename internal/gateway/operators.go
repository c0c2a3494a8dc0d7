package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/logging"
)

// ErrOperatorClosed is returned when sending on a closed operator connection.
var ErrOperatorClosed = errors.New("operator connection closed")

// OperatorEvent is one frame pushed to operator consoles.
type OperatorEvent struct {
	Event          string                    `json:"event"`
	Seq            int64                     `json:"seq"`
	Timestamp      time.Time                 `json:"ts"`
	ConversationID string                    `json:"conversationId,omitempty"`
	CustomerID     string                    `json:"customerId,omitempty"`
	Reason         string                    `json:"reason,omitempty"`
	Escalations    []domain.EscalationRecord `json:"escalations,omitempty"`
}

// operatorConn is one connected operator console.
type operatorConn struct {
	id     string
	socket *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func (c *operatorConn) send(ev OperatorEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrOperatorClosed
	}
	return c.socket.WriteJSON(ev)
}

func (c *operatorConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.socket.Close()
}

// OperatorHub fans escalation events out to every connected operator
// console. It implements the engine's escalation Notifier.
type OperatorHub struct {
	mu    sync.RWMutex
	conns map[string]*operatorConn
	seq   atomic.Int64
	log   *logging.Logger
}

// NewOperatorHub creates an empty hub.
func NewOperatorHub(log *logging.Logger) *OperatorHub {
	return &OperatorHub{
		conns: make(map[string]*operatorConn),
		log:   log,
	}
}

// Count returns the number of connected consoles.
func (h *OperatorHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Run registers a connection and blocks reading it until it drops. Inbound
// frames from consoles are ignored; the stream is push-only.
func (h *OperatorHub) Run(conn *websocket.Conn) {
	oc := &operatorConn{id: uuid.New().String(), socket: conn}

	h.mu.Lock()
	h.conns[oc.id] = oc
	h.mu.Unlock()
	h.log.Info().Str("conn", oc.id).Msg("operator console connected")

	oc.send(OperatorEvent{
		Event:     "hello",
		Seq:       h.seq.Add(1),
		Timestamp: time.Now(),
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.conns, oc.id)
	h.mu.Unlock()
	oc.close()
	h.log.Info().Str("conn", oc.id).Msg("operator console disconnected")
}

// Notify broadcasts an escalation to every connected console.
func (h *OperatorHub) Notify(ctx context.Context, conversationID, reason string, conv *domain.ConversationContext) {
	ev := OperatorEvent{
		Event:          "escalation",
		Seq:            h.seq.Add(1),
		Timestamp:      time.Now(),
		ConversationID: conversationID,
		Reason:         reason,
	}
	if conv != nil {
		ev.CustomerID = conv.CustomerID
		ev.Escalations = conv.Escalations
	}

	h.mu.RLock()
	conns := make([]*operatorConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.send(ev); err != nil {
			h.log.Warn().Err(err).Str("conn", c.id).Msg("failed to push escalation")
		}
	}
}

// CloseAll closes every console connection.
func (h *OperatorHub) CloseAll() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[string]*operatorConn)
	h.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}
