package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/rxflow/internal/domain"
)

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /webhook/message", s.handleWebhookMessage)
	mux.HandleFunc("GET /conversations/{id}", s.handleConversationGet)
	mux.HandleFunc("POST /conversations/{id}/resolve", s.handleConversationResolve)
	mux.HandleFunc("POST /conversations/{id}/close", s.handleConversationClose)
	mux.HandleFunc("GET /ws/operators", s.handleOperatorSocket)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Operators int    `json:"operators"`
	UptimeSec int64  `json:"uptimeSec"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   s.version,
		Operators: s.operators.Count(),
		UptimeSec: int64(time.Since(s.startedAt).Seconds()),
	})
}

// webhookRequest is the inbound shape posted by the messaging provider.
type webhookRequest struct {
	MessageID      string            `json:"messageId"`
	ConversationID string            `json:"conversationId"`
	CustomerID     string            `json:"customerId"`
	PharmacyID     string            `json:"pharmacyId"`
	Body           string            `json:"body"`
	Metadata       map[string]string `json:"metadata"`
}

// handleWebhookMessage runs one engine turn for an inbound customer message.
// Turns for the same conversation are serialized; different conversations
// proceed concurrently.
func (s *Server) handleWebhookMessage(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "customerId is required")
		return
	}
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, "body is required")
		return
	}
	if req.MessageID == "" {
		req.MessageID = uuid.New().String()
	}

	msg := domain.InboundMessage{
		ID:             req.MessageID,
		ConversationID: req.ConversationID,
		CustomerID:     req.CustomerID,
		PharmacyID:     req.PharmacyID,
		Body:           req.Body,
		Timestamp:      time.Now(),
		Metadata:       req.Metadata,
	}

	// Serialize on the customer as well as the conversation: a message
	// that omits the conversation id still lands on the customer's open
	// conversation, so a concurrent request keyed only on that id must
	// not interleave with it.
	keys := []string{customerKey(req.CustomerID)}
	if req.ConversationID != "" {
		keys = append(keys, req.ConversationID)
	}

	var result domain.DispatchResult
	s.turns.doKeys(keys, func() {
		result = s.engine.ProcessMessage(r.Context(), msg)
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleConversationGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, ok := s.engine.ConversationState(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleConversationResolve marks an escalated conversation as handled by a
// human operator, returning it to the active state.
func (s *Server) handleConversationResolve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.turns.doKeys(s.lifecycleKeys(r.Context(), id), func() {
		if err := s.engine.Resolve(r.Context(), id); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "resolved", "conversationId": id})
	})
}

func (s *Server) handleConversationClose(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.turns.doKeys(s.lifecycleKeys(r.Context(), id), func() {
		if err := s.engine.Close(r.Context(), id); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "closed", "conversationId": id})
	})
}

// lifecycleKeys returns the serialization keys for an operation addressing
// one conversation: the conversation id plus its customer key, so the
// operation excludes webhook turns that arrived without a conversation id.
// The customer id is immutable per conversation, so reading it before
// locking is safe.
func (s *Server) lifecycleKeys(ctx context.Context, id string) []string {
	keys := []string{id}
	if state, ok := s.engine.ConversationState(ctx, id); ok && state.Context != nil {
		keys = append(keys, customerKey(state.Context.CustomerID))
	}
	return keys
}

func customerKey(customerID string) string {
	return "customer:" + customerID
}

// handleOperatorSocket upgrades to WebSocket and registers the connection
// with the operator hub.
func (s *Server) handleOperatorSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	s.operators.Run(conn)
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// turnSerializer hands out a mutex per serialization key so concurrent
// requests touching the same conversation run one at a time.
type turnSerializer struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newTurnSerializer() *turnSerializer {
	return &turnSerializer{locks: make(map[string]*keyLock)}
}

// doKeys runs fn holding the mutex for every key, so two calls sharing any
// key cannot overlap. Keys are sorted before locking to keep the acquisition
// order consistent across callers.
func (t *turnSerializer) doKeys(keys []string, fn func()) {
	ks := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" && !slices.Contains(ks, k) {
			ks = append(ks, k)
		}
	}
	slices.Sort(ks)

	t.mu.Lock()
	kls := make([]*keyLock, len(ks))
	for i, k := range ks {
		kl, ok := t.locks[k]
		if !ok {
			kl = &keyLock{}
			t.locks[k] = kl
		}
		kl.refs++
		kls[i] = kl
	}
	t.mu.Unlock()

	for _, kl := range kls {
		kl.mu.Lock()
	}
	fn()
	for i := len(kls) - 1; i >= 0; i-- {
		kls[i].mu.Unlock()
	}

	t.mu.Lock()
	for i, kl := range kls {
		kl.refs--
		if kl.refs == 0 {
			delete(t.locks, ks[i])
		}
	}
	t.mu.Unlock()
}
