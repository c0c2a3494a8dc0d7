package handler

import (
	"context"
	"time"

	"github.com/soyeahso/rxflow/internal/domain"
)

// Conversational handles greetings and goodbyes.
type Conversational struct {
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewConversational creates the conversational handler.
func NewConversational() *Conversational {
	return &Conversational{Now: time.Now}
}

func (h *Conversational) Name() string { return "conversational" }

func (h *Conversational) Handle(_ context.Context, _ domain.InboundMessage, conv *domain.ConversationContext, intent domain.IntentClassification) (domain.DispatchResult, error) {
	if intent.Intent == domain.IntentGoodbye {
		result := reply(h.Name(), "Thank you for reaching out! Have a great day, and don't hesitate to message us again.")
		result.Metadata = map[string]string{MetaCloseConversation: "true"}
		return result, nil
	}

	greeting := h.timeOfDayGreeting()
	if len(conv.Cart) > 0 {
		return reply(h.Name(), greeting+" Welcome back — you still have items in your cart. How can I help you today?"), nil
	}
	return reply(h.Name(), greeting+" Welcome to the pharmacy. I can help you find products, place orders, and answer delivery questions."), nil
}

func (h *Conversational) timeOfDayGreeting() string {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	switch hour := now().Hour(); {
	case hour < 12:
		return "Good morning!"
	case hour < 18:
		return "Good afternoon!"
	default:
		return "Good evening!"
	}
}
