package intent

import (
	"strings"

	"github.com/soyeahso/rxflow/internal/domain"
)

// rule is one keyword classification rule. Substrings match anywhere in the
// lower-cased text; words must match a whole whitespace-delimited token.
type rule struct {
	intent     string
	confidence float64
	substrings []string
	words      []string
}

// rules are tested in order and the first match wins. Mixed-signal text
// resolves by this priority order, not by longest or most-specific match;
// that is a deliberate simplicity trade-off.
var rules = []rule{
	{intent: domain.IntentCancelOrder, confidence: 0.8, substrings: []string{"cancel"}},
	{intent: domain.IntentOrderStatus, confidence: 0.7, substrings: []string{"order status", "track my order", "where is my order"}},
	{intent: domain.IntentPlaceOrder, confidence: 0.8, substrings: []string{"order", "buy", "purchase"}},
	{intent: domain.IntentPriceInquiry, confidence: 0.7, substrings: []string{"price", "cost", "how much"}},
	{intent: domain.IntentStockCheck, confidence: 0.7, substrings: []string{"in stock", "stock", "available"}},
	{intent: domain.IntentDeliveryInquiry, confidence: 0.6, substrings: []string{"delivery", "shipping", "when"}},
	{intent: domain.IntentPrescriptionInquiry, confidence: 0.7, substrings: []string{"prescription", "recipe"}, words: []string{"rx"}},
	{intent: domain.IntentPaymentInquiry, confidence: 0.7, substrings: []string{"payment", "refund", "invoice"}, words: []string{"pay", "paid"}},
	{intent: domain.IntentComplaint, confidence: 0.6, substrings: []string{"complaint", "complain", "wrong product", "damaged"}},
	{intent: domain.IntentGreeting, confidence: 0.8, substrings: []string{"hello", "good morning", "good afternoon", "good evening"}, words: []string{"hi", "hey"}},
	{intent: domain.IntentGoodbye, confidence: 0.8, substrings: []string{"goodbye", "thank"}, words: []string{"bye", "thanks"}},
	{intent: domain.IntentHelpRequest, confidence: 0.6, substrings: []string{"help", "what can you do"}},
}

// matches reports whether the rule applies to the lower-cased text.
func (r rule) matches(lower string, tokens []string) bool {
	for _, sub := range r.substrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	for _, w := range r.words {
		for _, tok := range tokens {
			if strings.Trim(tok, ".,!?;:") == w {
				return true
			}
		}
	}
	return false
}

// classifyByRules applies the ordered keyword rules. Text that matches no
// rule classifies as general_inquiry at 0.5; empty text is unclassifiable.
func classifyByRules(text string) domain.IntentClassification {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return domain.Unclassified()
	}
	tokens := strings.Fields(lower)

	for _, r := range rules {
		if r.matches(lower, tokens) {
			return domain.IntentClassification{
				Intent:     r.intent,
				Confidence: r.confidence,
				Entities:   extractEntities(lower, tokens),
			}
		}
	}

	return domain.IntentClassification{
		Intent:     domain.IntentGeneralInquiry,
		Confidence: 0.5,
		Entities:   extractEntities(lower, tokens),
	}
}
