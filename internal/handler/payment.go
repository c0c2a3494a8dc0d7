package handler

import (
	"context"
	"strings"

	"github.com/soyeahso/rxflow/internal/domain"
)

// Payment answers payment-method and refund inquiries. Actual gateway
// wire formats live outside this engine; anything touching money movement
// is handed to a human.
type Payment struct{}

// NewPayment creates the payment handler.
func NewPayment() *Payment {
	return &Payment{}
}

func (h *Payment) Name() string { return "payment" }

func (h *Payment) Handle(_ context.Context, msg domain.InboundMessage, _ *domain.ConversationContext, _ domain.IntentClassification) (domain.DispatchResult, error) {
	lower := strings.ToLower(msg.Body)

	if strings.Contains(lower, "refund") || strings.Contains(lower, "charged") || strings.Contains(lower, "double") {
		return escalate(h.Name(),
			"I'm sorry about that. I've forwarded your payment issue to our team; someone will get back to you shortly.",
			"Payment dispute requires human review"), nil
	}

	return reply(h.Name(),
		"We accept card payments, mobile money, and cash on delivery. "+
			"Payment is taken when your order is confirmed."), nil
}
