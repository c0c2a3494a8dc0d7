package domain

// Intent labels form a fixed vocabulary. IntentUnknown is returned when a
// message cannot be classified at all and always carries confidence 0.
const (
	IntentGreeting            = "greeting"
	IntentGoodbye             = "goodbye"
	IntentPlaceOrder          = "place_order"
	IntentOrderStatus         = "order_status"
	IntentCancelOrder         = "cancel_order"
	IntentProductSearch       = "product_search"
	IntentCatalogQuery        = "catalog_query"
	IntentStockCheck          = "stock_check"
	IntentPriceInquiry        = "price_inquiry"
	IntentDeliveryInquiry     = "delivery_inquiry"
	IntentPrescriptionInquiry = "prescription_inquiry"
	IntentPaymentInquiry      = "payment_inquiry"
	IntentComplaint           = "complaint"
	IntentHelpRequest         = "help_request"
	IntentGeneralInquiry      = "general_inquiry"
	IntentUnknown             = "unknown"
)

// KnownIntents lists every valid intent label, excluding IntentUnknown.
var KnownIntents = []string{
	IntentGreeting,
	IntentGoodbye,
	IntentPlaceOrder,
	IntentOrderStatus,
	IntentCancelOrder,
	IntentProductSearch,
	IntentCatalogQuery,
	IntentStockCheck,
	IntentPriceInquiry,
	IntentDeliveryInquiry,
	IntentPrescriptionInquiry,
	IntentPaymentInquiry,
	IntentComplaint,
	IntentHelpRequest,
	IntentGeneralInquiry,
}

// IsKnownIntent reports whether label belongs to the fixed intent set.
func IsKnownIntent(label string) bool {
	for _, l := range KnownIntents {
		if l == label {
			return true
		}
	}
	return false
}

// RankedIntent is one alternative classification in descending likelihood.
type RankedIntent struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// IntentClassification is the result of classifying one message. It is
// created fresh per inbound message and folded into the conversation
// context, never persisted on its own.
type IntentClassification struct {
	Intent       string            `json:"intent"`
	Confidence   float64           `json:"confidence"`
	Entities     map[string]string `json:"entities,omitempty"`
	Alternatives []RankedIntent    `json:"alternatives,omitempty"`
}

// Unclassified returns the degraded classification used for empty or
// malformed input.
func Unclassified() IntentClassification {
	return IntentClassification{Intent: IntentUnknown, Confidence: 0}
}
