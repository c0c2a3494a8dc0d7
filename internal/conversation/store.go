// Package conversation holds the per-conversation context lifecycle.
package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/logging"
)

// Repository is the persistence boundary for conversation contexts.
// Implementations return (nil, nil) from lookups that find nothing.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.ConversationContext, error)
	FindOpenByCustomer(ctx context.Context, customerID string) (*domain.ConversationContext, error)
	Create(ctx context.Context, conv *domain.ConversationContext) error
	Update(ctx context.Context, conv *domain.ConversationContext) error
	AppendEscalation(ctx context.Context, conversationID string, rec domain.EscalationRecord) error
	ResolveEscalations(ctx context.Context, conversationID string) error
	AppendMessage(ctx context.Context, conversationID, role, content, intent string) error
}

// ContextStore wraps a Repository with the engine's failure semantics:
// an unavailable repository reads as "no prior context" and writes are
// best-effort, so a storage fault never aborts a customer-visible reply.
//
// Updates are last-write-wins. The store does no optimistic locking; the
// caller must read-modify-write within a single logical turn and must not
// interleave two concurrent turns for the same conversation id.
type ContextStore struct {
	repo Repository
	log  *logging.Logger
}

// NewContextStore creates a context store over the given repository.
func NewContextStore(repo Repository, log *logging.Logger) *ContextStore {
	return &ContextStore{repo: repo, log: log.Sub("conversation")}
}

// Get returns the context for a conversation id. Not-found and repository
// errors both report ok=false; the caller starts fresh either way.
func (s *ContextStore) Get(ctx context.Context, id string) (*domain.ConversationContext, bool) {
	conv, err := s.repo.Get(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("conversation", id).Msg("context read failed, starting fresh")
		return nil, false
	}
	return conv, conv != nil
}

// Resolve finds the conversation context for a turn: by explicit id first,
// then the customer's most recent open conversation, else a fresh context.
func (s *ContextStore) Resolve(ctx context.Context, conversationID, customerID, pharmacyID string) *domain.ConversationContext {
	if conversationID != "" {
		if conv, ok := s.Get(ctx, conversationID); ok {
			return conv
		}
	}

	if conv, err := s.repo.FindOpenByCustomer(ctx, customerID); err == nil && conv != nil {
		return conv
	} else if err != nil {
		s.log.Warn().Err(err).Str("customer", customerID).Msg("context lookup failed, starting fresh")
	}

	return s.Create(ctx, customerID, pharmacyID)
}

// Create makes a new active context with an immutable uuid and persists it
// best-effort.
func (s *ContextStore) Create(ctx context.Context, customerID, pharmacyID string) *domain.ConversationContext {
	now := time.Now()
	conv := &domain.ConversationContext{
		ID:             uuid.New().String(),
		CustomerID:     customerID,
		PharmacyID:     pharmacyID,
		Status:         domain.StatusActive,
		SessionData:    make(map[string]string),
		CreatedAt:      now,
		LastActivityAt: now,
	}

	if err := s.repo.Create(ctx, conv); err != nil {
		s.log.Warn().Err(err).Str("conversation", conv.ID).Msg("context create failed, continuing in-memory")
	}
	s.log.Info().Str("conversation", conv.ID).Str("customer", customerID).Msg("conversation created")
	return conv
}

// Update persists the context after a turn. Failures are logged and
// swallowed.
func (s *ContextStore) Update(ctx context.Context, conv *domain.ConversationContext) {
	conv.LastActivityAt = time.Now()
	if err := s.repo.Update(ctx, conv); err != nil {
		s.log.Warn().Err(err).Str("conversation", conv.ID).Msg("context write failed")
	}
}

// AppendEscalation appends to the conversation's escalation history.
func (s *ContextStore) AppendEscalation(ctx context.Context, conversationID string, rec domain.EscalationRecord) {
	if err := s.repo.AppendEscalation(ctx, conversationID, rec); err != nil {
		s.log.Warn().Err(err).Str("conversation", conversationID).Msg("escalation write failed")
	}
}

// ResolveEscalation marks a conversation's open escalations resolved and
// returns it to the active state.
func (s *ContextStore) ResolveEscalation(ctx context.Context, conv *domain.ConversationContext) {
	if err := s.repo.ResolveEscalations(ctx, conv.ID); err != nil {
		s.log.Warn().Err(err).Str("conversation", conv.ID).Msg("escalation resolve failed")
	}
	for i := range conv.Escalations {
		conv.Escalations[i].Resolved = true
	}
	conv.Status = domain.StatusActive
	s.Update(ctx, conv)
}

// RecordTurn appends one transcript entry best-effort.
func (s *ContextStore) RecordTurn(ctx context.Context, conversationID, role, content, intent string) {
	if err := s.repo.AppendMessage(ctx, conversationID, role, content, intent); err != nil {
		s.log.Debug().Err(err).Str("conversation", conversationID).Msg("transcript write failed")
	}
}
