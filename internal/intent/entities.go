package intent

import (
	"regexp"
	"strings"
)

// quantityRe matches a standalone number, optionally followed by a pack word.
var quantityRe = regexp.MustCompile(`\b(\d+)\s*(?:x|units?|boxes?|packs?|tablets?)?\b`)

// productPreps introduce a product phrase: "price of paracetamol",
// "do you have ibuprofen". The phrase after the last one wins.
var productPreps = map[string]bool{
	"of":   true,
	"for":  true,
	"have": true,
	"need": true,
	"want": true,
}

// skipWords are dropped from the front of a product phrase.
var skipWords = map[string]bool{
	"a":    true,
	"an":   true,
	"the":  true,
	"some": true,
	"my":   true,
}

// topicHints map keywords to a coarse topic entity the clarification
// handler uses when the intent itself is unknown.
var topicHints = map[string]string{
	"medication": "product",
	"medicine":   "product",
	"pill":       "product",
	"tablet":     "product",
	"order":      "order",
	"payment":    "payment",
	"pay":        "payment",
}

// extractEntities pulls coarse entities out of lower-cased text. It is
// intentionally shallow: the LLM path supplies richer entities when
// available, and these only need to be good enough for routing hints.
func extractEntities(lower string, tokens []string) map[string]string {
	entities := make(map[string]string)

	if m := quantityRe.FindStringSubmatch(lower); m != nil {
		entities["quantity"] = m[1]
	}
	if product := extractProduct(tokens); product != "" {
		entities["product"] = product
	}
	for _, tok := range tokens {
		if topic, ok := topicHints[strings.Trim(tok, ".,!?;:")]; ok {
			entities["topic"] = topic
			break
		}
	}

	if len(entities) == 0 {
		return nil
	}
	return entities
}

// extractProduct takes the words after the last product-introducing
// preposition, e.g. "aspirin" from "2 boxes of aspirin". Articles and
// filler words are dropped.
func extractProduct(tokens []string) string {
	last := -1
	for i, tok := range tokens {
		if productPreps[strings.Trim(tok, ".,!?;:")] {
			last = i
		}
	}
	if last < 0 {
		return ""
	}

	var words []string
	for _, tok := range tokens[last+1:] {
		tok = strings.Trim(tok, ".,!?;:\"'")
		if tok == "" || skipWords[tok] {
			continue
		}
		words = append(words, tok)
	}
	product := strings.Join(words, " ")
	if len(product) < 3 || len(product) > 40 {
		return ""
	}
	return product
}
