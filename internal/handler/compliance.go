package handler

import (
	"context"
	"strings"

	"github.com/soyeahso/rxflow/internal/domain"
)

// Compliance answers prescription-policy questions and routes prescription
// submissions to a pharmacist.
type Compliance struct{}

// NewCompliance creates the compliance handler.
func NewCompliance() *Compliance {
	return &Compliance{}
}

func (h *Compliance) Name() string { return "compliance" }

func (h *Compliance) Handle(_ context.Context, msg domain.InboundMessage, conv *domain.ConversationContext, _ domain.IntentClassification) (domain.DispatchResult, error) {
	lower := strings.ToLower(msg.Body)

	// The customer wants to submit a prescription: a pharmacist has to
	// verify it, the bot must not.
	if strings.Contains(lower, "upload") || strings.Contains(lower, "send") || strings.Contains(lower, "attach") || strings.Contains(lower, "here is") {
		return escalate(h.Name(),
			"Thank you. A pharmacist will review your prescription and confirm shortly.",
			"Prescription verification required"), nil
	}

	if cartNeedsPrescription(conv.Cart) {
		return reply(h.Name(),
			"One or more items in your cart require a prescription. You can send a photo of it here and a pharmacist will verify it before dispatch."), nil
	}

	return reply(h.Name(),
		"Prescription medicines require a valid prescription, which a pharmacist verifies before dispatch. "+
			"You can send a photo of your prescription in this chat."), nil
}
