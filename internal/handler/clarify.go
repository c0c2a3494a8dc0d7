package handler

import (
	"context"
	"strings"

	"github.com/soyeahso/rxflow/internal/domain"
)

// helpMenu is the generic fallback when no routing hint exists.
const helpMenu = "I can help you with:\n" +
	"• finding products and prices\n" +
	"• placing and tracking orders\n" +
	"• prescriptions and delivery\n" +
	"What would you like to do?"

// Clarify is the default handler for unrecognized intents. It inspects the
// extracted entities for hints before surfacing the generic help menu.
type Clarify struct {
	catalog  Handler
	ordering Handler
}

// NewClarify creates the clarification handler. catalog and ordering are
// the handlers it delegates to when a hint resolves the ambiguity.
func NewClarify(catalog, ordering Handler) *Clarify {
	return &Clarify{catalog: catalog, ordering: ordering}
}

func (h *Clarify) Name() string { return "clarify" }

func (h *Clarify) Handle(ctx context.Context, msg domain.InboundMessage, conv *domain.ConversationContext, intent domain.IntentClassification) (domain.DispatchResult, error) {
	switch hintTarget(msg, intent) {
	case "catalog":
		return h.catalog.Handle(ctx, msg, conv, intent)
	case "ordering":
		return h.ordering.Handle(ctx, msg, conv, intent)
	}
	return reply(h.Name(), helpMenu), nil
}

// hintTarget decides where an unrecognized message most likely belongs:
// product/medication hints go to the catalog, order/payment hints to
// ordering, anything else nowhere.
func hintTarget(msg domain.InboundMessage, intent domain.IntentClassification) string {
	if intent.Entities["product"] != "" || intent.Entities["medication"] != "" {
		return "catalog"
	}
	switch intent.Entities["topic"] {
	case "product":
		return "catalog"
	case "order", "payment":
		return "ordering"
	}

	lower := strings.ToLower(msg.Body)
	if strings.Contains(lower, "medication") || strings.Contains(lower, "medicine") {
		return "catalog"
	}
	if strings.Contains(lower, "order") || strings.Contains(lower, "payment") {
		return "ordering"
	}
	return ""
}
