// Package handler contains the business-capability handlers the
// orchestrator dispatches classified messages to.
package handler

import (
	"context"

	"github.com/soyeahso/rxflow/internal/domain"
)

// Metadata keys handlers use to signal the orchestrator.
const (
	// MetaCloseConversation asks the orchestrator to close the
	// conversation after this turn.
	MetaCloseConversation = "closeConversation"
)

// Handler is the single shape every domain handler implements, so the
// orchestrator's dispatch table stays uniform.
type Handler interface {
	// Name identifies the handler in results and logs.
	Name() string

	// Handle consumes one classified message against its conversation
	// context and produces a structured result. Returned errors are
	// caught at the orchestrator boundary and become escalations.
	Handle(ctx context.Context, msg domain.InboundMessage, conv *domain.ConversationContext, intent domain.IntentClassification) (domain.DispatchResult, error)
}

// Searcher is the slice of the knowledge index handlers consume.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, filters *domain.SearchFilters) ([]domain.SearchResult, error)
}

// reply builds a successful non-escalating result.
func reply(handlerName, response string) domain.DispatchResult {
	return domain.DispatchResult{
		Success:  true,
		Response: response,
		Handler:  handlerName,
	}
}

// escalate builds a successful result that still requires a human.
func escalate(handlerName, response, reason string) domain.DispatchResult {
	return domain.DispatchResult{
		Success:             true,
		Response:            response,
		Handler:             handlerName,
		RequiresHumanReview: true,
		EscalationReason:    reason,
	}
}
