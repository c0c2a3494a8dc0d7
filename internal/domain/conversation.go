package domain

import "time"

// Status is the lifecycle state of a conversation.
type Status string

const (
	StatusActive    Status = "active"
	StatusEscalated Status = "escalated"
	StatusClosed    Status = "closed"
)

// CartItem is one line in a conversation's shopping cart.
type CartItem struct {
	ProductID            string  `json:"productId"`
	Name                 string  `json:"name,omitempty"`
	Quantity             int     `json:"quantity"`
	UnitPrice            float64 `json:"unitPrice"`
	RequiresPrescription bool    `json:"requiresPrescription,omitempty"`
}

// Total returns the line total (quantity × unit price).
func (c CartItem) Total() float64 {
	return float64(c.Quantity) * c.UnitPrice
}

// EscalationRecord is one entry in a conversation's escalation history.
// The history is append-only; records are never rewritten, only marked resolved.
type EscalationRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason"`
	Resolved  bool      `json:"resolved"`
}

// ConversationContext is the mutable state remembered across turns of one
// conversation. The ID is immutable once created; the orchestrator mutates
// the rest after every turn.
type ConversationContext struct {
	ID              string             `json:"id"`
	CustomerID      string             `json:"customerId"`
	PharmacyID      string             `json:"pharmacyId,omitempty"`
	Status          Status             `json:"status"`
	LastIntent      string             `json:"lastIntent,omitempty"`
	LastConfidence  float64            `json:"lastConfidence,omitempty"`
	SessionData     map[string]string  `json:"sessionData,omitempty"`
	Cart            []CartItem         `json:"cart,omitempty"`
	DeliveryAddress string             `json:"deliveryAddress,omitempty"`
	Escalations     []EscalationRecord `json:"escalations,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	LastActivityAt  time.Time          `json:"lastActivityAt"`
}

// Clone returns a copy sharing no mutable state with the receiver, so a
// detached consumer can read it while later turns mutate the original.
func (c *ConversationContext) Clone() *ConversationContext {
	if c == nil {
		return nil
	}
	copied := *c
	if c.SessionData != nil {
		copied.SessionData = make(map[string]string, len(c.SessionData))
		for k, v := range c.SessionData {
			copied.SessionData[k] = v
		}
	}
	copied.Cart = append([]CartItem(nil), c.Cart...)
	copied.Escalations = append([]EscalationRecord(nil), c.Escalations...)
	return &copied
}

// CartTotal returns the sum of all cart line totals.
func (c *ConversationContext) CartTotal() float64 {
	var total float64
	for _, item := range c.Cart {
		total += item.Total()
	}
	return total
}

// OpenEscalation returns the most recent unresolved escalation, or nil.
func (c *ConversationContext) OpenEscalation() *EscalationRecord {
	for i := len(c.Escalations) - 1; i >= 0; i-- {
		if !c.Escalations[i].Resolved {
			return &c.Escalations[i]
		}
	}
	return nil
}

// ConversationState is the read-only view exposed to dashboards.
type ConversationState struct {
	Status              Status               `json:"status"`
	Context             *ConversationContext `json:"context"`
	LastMessageAt       time.Time            `json:"lastMessageAt"`
	RequiresHumanReview bool                 `json:"requiresHumanReview"`
}
