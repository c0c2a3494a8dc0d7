package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soyeahso/rxflow/internal/domain"
)

func TestClassifyByRules_KnownPhrases(t *testing.T) {
	tests := []struct {
		text       string
		intent     string
		confidence float64
	}{
		{"I want to order some aspirin", domain.IntentPlaceOrder, 0.8},
		{"buy paracetamol", domain.IntentPlaceOrder, 0.8},
		{"please cancel my order", domain.IntentCancelOrder, 0.8},
		{"what is the order status", domain.IntentOrderStatus, 0.7},
		{"where is my order?", domain.IntentOrderStatus, 0.7},
		{"how much does ibuprofen cost", domain.IntentPriceInquiry, 0.7},
		{"price of vitamin c", domain.IntentPriceInquiry, 0.7},
		{"is ibuprofen in stock", domain.IntentStockCheck, 0.7},
		{"when will it arrive", domain.IntentDeliveryInquiry, 0.6},
		{"do you do delivery", domain.IntentDeliveryInquiry, 0.6},
		{"I need a prescription refill", domain.IntentPrescriptionInquiry, 0.7},
		{"can I pay by card", domain.IntentPaymentInquiry, 0.7},
		{"I want a refund", domain.IntentPaymentInquiry, 0.7},
		{"I have a complaint", domain.IntentComplaint, 0.6},
		{"you sent the wrong product", domain.IntentComplaint, 0.6},
		{"hello there", domain.IntentGreeting, 0.8},
		{"Hi", domain.IntentGreeting, 0.8},
		{"good morning", domain.IntentGreeting, 0.8},
		{"bye", domain.IntentGoodbye, 0.8},
		{"thanks!", domain.IntentGoodbye, 0.8},
		{"help", domain.IntentHelpRequest, 0.6},
	}

	for _, tt := range tests {
		result := classifyByRules(tt.text)
		assert.Equal(t, tt.intent, result.Intent, "text: %q", tt.text)
		assert.Equal(t, tt.confidence, result.Confidence, "text: %q", tt.text)
	}
}

func TestClassifyByRules_FirstMatchWins(t *testing.T) {
	// "cancel" outranks "order" even though both appear.
	result := classifyByRules("cancel my order please")
	assert.Equal(t, domain.IntentCancelOrder, result.Intent)
}

func TestClassifyByRules_NoMatch(t *testing.T) {
	result := classifyByRules("do you open on sundays")
	assert.Equal(t, domain.IntentGeneralInquiry, result.Intent)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestClassifyByRules_Empty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		result := classifyByRules(text)
		assert.Equal(t, domain.IntentUnknown, result.Intent)
		assert.Zero(t, result.Confidence)
	}
}

func TestClassifyByRules_CaseInsensitive(t *testing.T) {
	result := classifyByRules("CANCEL MY ORDER")
	assert.Equal(t, domain.IntentCancelOrder, result.Intent)
}

func TestClassifyByRules_WordBoundary(t *testing.T) {
	// "hi" must be a whole token: "this" should not greet.
	result := classifyByRules("this product broke, damaged on arrival")
	assert.Equal(t, domain.IntentComplaint, result.Intent)
}

func TestExtractEntities_Quantity(t *testing.T) {
	result := classifyByRules("I want to order 3 boxes of aspirin")
	assert.Equal(t, "3", result.Entities["quantity"])
	assert.Equal(t, "aspirin", result.Entities["product"])
}

func TestExtractEntities_NoneIsNil(t *testing.T) {
	lower := "hmm"
	assert.Nil(t, extractEntities(lower, []string{"hmm"}))
}
