package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/store"
)

// sessionKeyLastOrder holds the reference of the most recently confirmed
// order in the conversation's session data.
const sessionKeyLastOrder = "last_order_id"

// ProductLookup is the slice of the catalog store the ordering handler
// needs to price cart lines.
type ProductLookup interface {
	Get(ctx context.Context, id string) (*store.Product, error)
	List(ctx context.Context) ([]store.Product, error)
}

// Ordering manages the cart: adding items, confirming, and cancelling.
type Ordering struct {
	products ProductLookup
}

// NewOrdering creates the ordering handler.
func NewOrdering(products ProductLookup) *Ordering {
	return &Ordering{products: products}
}

func (h *Ordering) Name() string { return "ordering" }

func (h *Ordering) Handle(ctx context.Context, msg domain.InboundMessage, conv *domain.ConversationContext, intent domain.IntentClassification) (domain.DispatchResult, error) {
	switch intent.Intent {
	case domain.IntentCancelOrder:
		return h.cancel(conv), nil
	default:
		if wantsConfirmation(msg.Body) {
			return h.confirm(conv)
		}
		return h.addToCart(ctx, conv, intent)
	}
}

func (h *Ordering) addToCart(ctx context.Context, conv *domain.ConversationContext, intent domain.IntentClassification) (domain.DispatchResult, error) {
	productHint := intent.Entities["product"]
	if productHint == "" {
		if len(conv.Cart) > 0 {
			return reply(h.Name(), h.cartSummary(conv)+` Say "confirm" to place the order, or tell me what else to add.`), nil
		}
		return reply(h.Name(), "What would you like to order? Tell me the product name and quantity."), nil
	}

	product, err := h.findProduct(ctx, productHint)
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("looking up product %q: %w", productHint, err)
	}
	if product == nil {
		return reply(h.Name(), fmt.Sprintf("I couldn't find %q in our catalog. Could you check the product name?", productHint)), nil
	}
	if !product.InStock {
		return reply(h.Name(), fmt.Sprintf("%s is currently out of stock. Would you like something else?", product.Name)), nil
	}

	quantity := 1
	if q, err := strconv.Atoi(intent.Entities["quantity"]); err == nil && q > 0 {
		quantity = q
	}

	conv.Cart = append(conv.Cart, domain.CartItem{
		ProductID:            product.ID,
		Name:                 product.Name,
		Quantity:             quantity,
		UnitPrice:            product.Price,
		RequiresPrescription: product.RequiresPrescription,
	})

	response := fmt.Sprintf("Added %d × %s (%.2f each). %s", quantity, product.Name, product.Price, h.cartSummary(conv))
	if product.RequiresPrescription {
		response += " This item needs a prescription, which we will verify at checkout."
	}
	return reply(h.Name(), response+` Say "confirm" to place the order.`), nil
}

func (h *Ordering) confirm(conv *domain.ConversationContext) (domain.DispatchResult, error) {
	if len(conv.Cart) == 0 {
		return reply(h.Name(), "Your cart is empty. Tell me what you'd like to order first."), nil
	}

	orderRef := "ORD-" + uuid.New().String()[:8]
	total := conv.CartTotal()
	needsRx := cartNeedsPrescription(conv.Cart)

	if conv.SessionData == nil {
		conv.SessionData = make(map[string]string)
	}
	conv.SessionData[sessionKeyLastOrder] = orderRef
	conv.Cart = nil

	response := fmt.Sprintf("Order %s confirmed, total %.2f. We'll message you when it ships.", orderRef, total)
	if needsRx {
		return escalate(h.Name(),
			response+" A pharmacist will verify your prescription before we dispatch it.",
			"Prescription verification required"), nil
	}
	return reply(h.Name(), response), nil
}

func (h *Ordering) cancel(conv *domain.ConversationContext) domain.DispatchResult {
	if ref, ok := conv.SessionData[sessionKeyLastOrder]; ok && ref != "" {
		delete(conv.SessionData, sessionKeyLastOrder)
		return escalate(h.Name(),
			fmt.Sprintf("I've flagged order %s for cancellation. A colleague will confirm shortly.", ref),
			"Order cancellation requested")
	}
	if len(conv.Cart) > 0 {
		conv.Cart = nil
		return reply(h.Name(), "Done — I've emptied your cart.")
	}
	return reply(h.Name(), "There's no open order or cart to cancel.")
}

// findProduct resolves a free-text product hint to a catalog row: exact id
// first, then case-insensitive name containment.
func (h *Ordering) findProduct(ctx context.Context, hint string) (*store.Product, error) {
	if h.products == nil {
		return nil, nil
	}
	if product, err := h.products.Get(ctx, hint); err != nil || product != nil {
		return product, err
	}

	products, err := h.products.List(ctx)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(hint)
	for i := range products {
		name := strings.ToLower(products[i].Name)
		if strings.Contains(name, lower) || strings.Contains(lower, name) {
			return &products[i], nil
		}
	}
	return nil, nil
}

func (h *Ordering) cartSummary(conv *domain.ConversationContext) string {
	return fmt.Sprintf("Your cart has %d item(s), total %.2f.", len(conv.Cart), conv.CartTotal())
}

func wantsConfirmation(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "confirm") || strings.Contains(lower, "checkout") || strings.Contains(lower, "place the order")
}

func cartNeedsPrescription(cart []domain.CartItem) bool {
	for _, item := range cart {
		if item.RequiresPrescription {
			return true
		}
	}
	return false
}
