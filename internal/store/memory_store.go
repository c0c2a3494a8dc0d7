package store

import (
	"context"
	"sort"
	"sync"

	"github.com/soyeahso/rxflow/internal/domain"
)

// MemoryConversationStore is an in-memory conversation.Repository, used in
// tests and in deployments with no durable store configured.
type MemoryConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*domain.ConversationContext
}

// NewMemoryConversationStore creates an empty in-memory store.
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{
		conversations: make(map[string]*domain.ConversationContext),
	}
}

func (s *MemoryConversationStore) Get(_ context.Context, id string) (*domain.ConversationContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	return conv.Clone(), nil
}

func (s *MemoryConversationStore) FindOpenByCustomer(_ context.Context, customerID string) (*domain.ConversationContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []*domain.ConversationContext
	for _, conv := range s.conversations {
		if conv.CustomerID == customerID && conv.Status != domain.StatusClosed {
			candidates = append(candidates, conv)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastActivityAt.After(candidates[j].LastActivityAt)
	})
	return candidates[0].Clone(), nil
}

func (s *MemoryConversationStore) Create(_ context.Context, conv *domain.ConversationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = conv.Clone()
	return nil
}

func (s *MemoryConversationStore) Update(_ context.Context, conv *domain.ConversationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.conversations[conv.ID]
	if !ok {
		s.conversations[conv.ID] = conv.Clone()
		return nil
	}
	// Escalation history is append-only and owned by AppendEscalation.
	escalations := existing.Escalations
	copied := conv.Clone()
	copied.Escalations = escalations
	s.conversations[conv.ID] = copied
	return nil
}

func (s *MemoryConversationStore) AppendEscalation(_ context.Context, conversationID string, rec domain.EscalationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[conversationID]; ok {
		conv.Escalations = append(conv.Escalations, rec)
	}
	return nil
}

func (s *MemoryConversationStore) ResolveEscalations(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[conversationID]; ok {
		for i := range conv.Escalations {
			conv.Escalations[i].Resolved = true
		}
	}
	return nil
}

func (s *MemoryConversationStore) AppendMessage(_ context.Context, _, _, _, _ string) error {
	return nil
}
