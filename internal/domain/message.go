package domain

import "time"

// InboundMessage is one customer message entering the engine, already parsed
// out of whatever transport delivered it.
type InboundMessage struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversationId,omitempty"`
	CustomerID     string            `json:"customerId"`
	PharmacyID     string            `json:"pharmacyId,omitempty"`
	Body           string            `json:"body"`
	Timestamp      time.Time         `json:"timestamp"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// DispatchResult is the orchestrator's per-turn output. Every turn yields a
// well-formed result; the customer always receives Response, even on total
// internal failure.
type DispatchResult struct {
	Success             bool              `json:"success"`
	Response            string            `json:"response"`
	RequiresHumanReview bool              `json:"requiresHumanReview"`
	EscalationReason    string            `json:"escalationReason,omitempty"`
	Handler             string            `json:"handler,omitempty"`
	Intent              string            `json:"intent,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}
