// Package orchestrator is the central state machine of the conversation
// engine: it classifies each inbound message, maintains the conversation
// context across turns, dispatches to the matching domain handler, and
// decides when to hand off to a human.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/rxflow/internal/conversation"
	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/handler"
	"github.com/soyeahso/rxflow/internal/intent"
	"github.com/soyeahso/rxflow/internal/logging"
)

// failureResponse is what the customer sees when a turn fails internally.
const failureResponse = "I apologize — something went wrong on our side. A human agent will assist you shortly."

// MetaConversationID carries the resolved conversation id back to the
// transport, so a caller whose message auto-created the conversation can
// address it on later turns and state queries.
const MetaConversationID = "conversationId"

// ReasonInternalError is the escalation reason attached to turns that
// failed inside the engine.
const ReasonInternalError = "Internal error during message processing"

// Orchestrator routes classified messages to domain handlers and applies
// the conversation state machine (active → escalated → active, any →
// closed, closed reopens on a new message).
type Orchestrator struct {
	classifier *intent.Classifier
	contexts   *conversation.ContextStore
	dispatch   map[string]handler.Handler
	clarify    handler.Handler
	escalation *EscalationManager
	log        *logging.Logger
}

// New creates an orchestrator wired to explicit collaborators; nothing is
// reached through ambient globals, so tests can substitute fakes freely.
func New(
	classifier *intent.Classifier,
	contexts *conversation.ContextStore,
	handlers Handlers,
	escalation *EscalationManager,
	log *logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		contexts:   contexts,
		dispatch:   buildDispatchTable(handlers),
		clarify:    handlers.Clarify,
		escalation: escalation,
		log:        log.Sub("orchestrator"),
	}
}

// Handlers bundles the domain handlers the dispatch table is built from.
type Handlers struct {
	Conversational handler.Handler
	Catalog        handler.Handler
	Ordering       handler.Handler
	Compliance     handler.Handler
	Fulfillment    handler.Handler
	Payment        handler.Handler
	General        handler.Handler
	Clarify        handler.Handler
}

// buildDispatchTable maps every intent label to exactly one handler.
// Several labels share a handler; unknown labels fall through to clarify.
func buildDispatchTable(h Handlers) map[string]handler.Handler {
	return map[string]handler.Handler{
		domain.IntentGreeting: h.Conversational,
		domain.IntentGoodbye:  h.Conversational,

		domain.IntentProductSearch: h.Catalog,
		domain.IntentCatalogQuery:  h.Catalog,
		domain.IntentStockCheck:    h.Catalog,
		domain.IntentPriceInquiry:  h.Catalog,

		domain.IntentPlaceOrder:  h.Ordering,
		domain.IntentCancelOrder: h.Ordering,

		domain.IntentPrescriptionInquiry: h.Compliance,

		domain.IntentDeliveryInquiry: h.Fulfillment,
		domain.IntentOrderStatus:     h.Fulfillment,

		domain.IntentPaymentInquiry: h.Payment,

		domain.IntentGeneralInquiry: h.General,
		domain.IntentHelpRequest:    h.General,
		domain.IntentComplaint:      h.General,
	}
}

// ProcessMessage runs one turn: resolve context, classify, dispatch,
// escalate if required, persist. It always returns a well-formed result;
// no collaborator error or panic crosses this boundary.
//
// The caller must not run two turns for the same conversation id at once.
func (o *Orchestrator) ProcessMessage(ctx context.Context, msg domain.InboundMessage) domain.DispatchResult {
	start := time.Now()

	conv := o.contexts.Resolve(ctx, msg.ConversationID, msg.CustomerID, msg.PharmacyID)
	log := o.log.With(conv.ID)

	// A closed conversation reopens rather than rejecting the customer.
	if conv.Status == domain.StatusClosed {
		conv.Status = domain.StatusActive
		log.Info().Msg("closed conversation reopened")
	}

	classification := o.classifier.Classify(ctx, msg.Body)
	conv.LastIntent = classification.Intent
	conv.LastConfidence = classification.Confidence
	o.contexts.RecordTurn(ctx, conv.ID, "user", msg.Body, classification.Intent)

	result, err := o.runHandler(ctx, msg, conv, classification)
	if err != nil {
		log.Error().Err(err).Str("intent", classification.Intent).Msg("turn failed")
		result = domain.DispatchResult{
			Success:             false,
			Response:            failureResponse,
			RequiresHumanReview: true,
			EscalationReason:    ReasonInternalError,
			Handler:             result.Handler,
		}
	}
	result.Intent = classification.Intent
	if result.Metadata == nil {
		result.Metadata = make(map[string]string, 1)
	}
	result.Metadata[MetaConversationID] = conv.ID

	// At most one escalation-manager invocation per turn.
	if result.RequiresHumanReview && result.EscalationReason != "" {
		o.escalation.Escalate(ctx, conv, result.EscalationReason)
	} else if result.Metadata[handler.MetaCloseConversation] == "true" {
		conv.Status = domain.StatusClosed
	}

	o.contexts.Update(ctx, conv)
	o.contexts.RecordTurn(ctx, conv.ID, "assistant", result.Response, classification.Intent)

	log.Info().
		Str("intent", classification.Intent).
		Float64("confidence", classification.Confidence).
		Str("handler", result.Handler).
		Bool("escalated", result.RequiresHumanReview).
		Dur("duration", time.Since(start)).
		Msg("turn processed")
	return result
}

// runHandler dispatches to the handler for the classified intent. Panics
// inside a handler surface as errors so the boundary conversion above
// applies uniformly.
func (o *Orchestrator) runHandler(ctx context.Context, msg domain.InboundMessage, conv *domain.ConversationContext, classification domain.IntentClassification) (result domain.DispatchResult, err error) {
	h, ok := o.dispatch[classification.Intent]
	if !ok {
		h = o.clarify
	}
	result.Handler = h.Name()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", h.Name(), r)
		}
	}()

	handled, err := h.Handle(ctx, msg, conv, classification)
	if err != nil {
		return result, err
	}
	return handled, nil
}

// ConversationState returns the read-only view of one conversation for
// dashboards, or ok=false when it does not exist.
func (o *Orchestrator) ConversationState(ctx context.Context, conversationID string) (domain.ConversationState, bool) {
	conv, ok := o.contexts.Get(ctx, conversationID)
	if !ok {
		return domain.ConversationState{}, false
	}
	return domain.ConversationState{
		Status:              conv.Status,
		Context:             conv,
		LastMessageAt:       conv.LastActivityAt,
		RequiresHumanReview: conv.OpenEscalation() != nil,
	}, true
}

// Resolve applies the human-resolution action: the conversation's open
// escalations are marked resolved and it returns to the active state.
func (o *Orchestrator) Resolve(ctx context.Context, conversationID string) error {
	conv, ok := o.contexts.Get(ctx, conversationID)
	if !ok {
		return fmt.Errorf("conversation not found: %s", conversationID)
	}
	o.contexts.ResolveEscalation(ctx, conv)
	o.log.Info().Str("conversation", conversationID).Msg("escalation resolved")
	return nil
}

// Close applies the explicit close action from any state.
func (o *Orchestrator) Close(ctx context.Context, conversationID string) error {
	conv, ok := o.contexts.Get(ctx, conversationID)
	if !ok {
		return fmt.Errorf("conversation not found: %s", conversationID)
	}
	conv.Status = domain.StatusClosed
	o.contexts.Update(ctx, conv)
	return nil
}
