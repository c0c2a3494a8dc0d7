package orchestrator

import (
	"context"
	"time"

	"github.com/soyeahso/rxflow/internal/conversation"
	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/logging"
)

// Notifier delivers an escalation to the human-operator channel. Calls are
// fire-and-forget from the engine's perspective.
type Notifier interface {
	Notify(ctx context.Context, conversationID, reason string, conv *domain.ConversationContext)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, conversationID, reason string, conv *domain.ConversationContext)

func (f NotifierFunc) Notify(ctx context.Context, conversationID, reason string, conv *domain.ConversationContext) {
	f(ctx, conversationID, reason, conv)
}

// EscalationManager transitions conversations to the escalated state and
// notifies human operators. It does not deduplicate across turns; the
// orchestrator guarantees at most one Escalate call per turn.
type EscalationManager struct {
	contexts  *conversation.ContextStore
	notifiers []Notifier
	log       *logging.Logger
}

// NewEscalationManager creates an escalation manager. Notifiers may be empty,
// in which case escalations are only recorded and logged.
func NewEscalationManager(contexts *conversation.ContextStore, notifiers []Notifier, log *logging.Logger) *EscalationManager {
	return &EscalationManager{
		contexts:  contexts,
		notifiers: notifiers,
		log:       log.Sub("escalation"),
	}
}

// Escalate appends an escalation record to the conversation's history,
// transitions it to the escalated state, and notifies operators. The
// conversation id is always the concrete id of a resolved context.
func (m *EscalationManager) Escalate(ctx context.Context, conv *domain.ConversationContext, reason string) {
	rec := domain.EscalationRecord{
		Timestamp: time.Now(),
		Reason:    reason,
	}
	conv.Escalations = append(conv.Escalations, rec)
	conv.Status = domain.StatusEscalated
	m.contexts.AppendEscalation(ctx, conv.ID, rec)

	m.log.Info().
		Str("conversation", conv.ID).
		Str("customer", conv.CustomerID).
		Str("reason", reason).
		Msg("conversation escalated")

	// Notifiers outlive the turn, so they get a snapshot; the live
	// context keeps mutating under subsequent turns.
	snapshot := conv.Clone()
	for _, n := range m.notifiers {
		go func(n Notifier) {
			// Detached from the turn: operator notification must not
			// delay or fail the customer-visible reply.
			nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			n.Notify(nctx, snapshot.ID, reason, snapshot)
		}(n)
	}
}
