package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/rxflow/internal/domain"
)

// Fulfillment answers delivery and order-status questions.
type Fulfillment struct{}

// NewFulfillment creates the fulfillment handler.
func NewFulfillment() *Fulfillment {
	return &Fulfillment{}
}

func (h *Fulfillment) Name() string { return "fulfillment" }

func (h *Fulfillment) Handle(_ context.Context, msg domain.InboundMessage, conv *domain.ConversationContext, intent domain.IntentClassification) (domain.DispatchResult, error) {
	if intent.Intent == domain.IntentOrderStatus {
		if ref, ok := conv.SessionData[sessionKeyLastOrder]; ok && ref != "" {
			return reply(h.Name(),
				fmt.Sprintf("Your order %s is being prepared. Deliveries usually arrive within 24–48 hours of confirmation.", ref)), nil
		}
		return reply(h.Name(),
			"I don't see a recent order in this conversation. If you have an order reference, send it to me and I'll check."), nil
	}

	if addr := extractAddress(msg.Body); addr != "" {
		conv.DeliveryAddress = addr
		return reply(h.Name(),
			fmt.Sprintf("Got it — I've set your delivery address to %q. Standard delivery takes 24–48 hours.", addr)), nil
	}

	if conv.DeliveryAddress != "" {
		return reply(h.Name(),
			fmt.Sprintf("We deliver to %s within 24–48 hours. Same-day delivery is available for orders placed before noon.", conv.DeliveryAddress)), nil
	}
	return reply(h.Name(),
		"Standard delivery takes 24–48 hours; same-day is available for orders placed before noon. "+
			"Send me your address and I'll save it for your next order."), nil
}

// extractAddress pulls a delivery address out of phrases like
// "deliver to 12 Main St".
func extractAddress(body string) string {
	lower := strings.ToLower(body)
	for _, marker := range []string{"deliver to ", "address is ", "my address: "} {
		if i := strings.Index(lower, marker); i >= 0 {
			return strings.TrimSpace(body[i+len(marker):])
		}
	}
	return ""
}
