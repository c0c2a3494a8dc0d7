// Package intent classifies inbound customer messages into a fixed
// vocabulary of intent labels.
package intent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/llm"
	"github.com/soyeahso/rxflow/internal/logging"
)

// defaultTimeout bounds the LLM classification call when the caller's
// context carries no deadline of its own.
const defaultTimeout = 10 * time.Second

// Classifier turns message text into an IntentClassification. It is
// LLM-backed with a deterministic keyword-rule fallback and never returns
// an error: every degradation path ends in a rule-based or unknown result.
type Classifier struct {
	generator llm.Generator
	timeout   time.Duration
	log       *logging.Logger
}

// NewClassifier creates a classifier. generator may be nil, in which case
// classification is purely rule-based. timeout <= 0 selects the default.
func NewClassifier(generator llm.Generator, timeout time.Duration, log *logging.Logger) *Classifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Classifier{
		generator: generator,
		timeout:   timeout,
		log:       log.Sub("intent"),
	}
}

// Classify classifies one message. Empty or whitespace-only input degrades
// to the unknown classification with confidence 0.
func (c *Classifier) Classify(ctx context.Context, text string) domain.IntentClassification {
	if strings.TrimSpace(text) == "" {
		return domain.Unclassified()
	}

	if c.generator != nil {
		if result, ok := c.classifyLLM(ctx, text); ok {
			return result
		}
	}

	return classifyByRules(text)
}

// classifyLLM asks the generator for an intent label. Any provider fault,
// timeout, unparsable reply, or out-of-set label reports ok=false so the
// caller falls through to rules; provider errors never propagate.
func (c *Classifier) classifyLLM(ctx context.Context, text string) (domain.IntentClassification, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.generator.Generate(ctx, buildPrompt(text), classifierSystemPrompt)
	if err != nil {
		c.log.Warn().Err(err).Str("provider", c.generator.Name()).Msg("LLM classification failed, using rules")
		return domain.IntentClassification{}, false
	}

	result, ok := parseReply(reply)
	if !ok {
		c.log.Debug().Str("reply", reply).Msg("unusable LLM classification, using rules")
		return domain.IntentClassification{}, false
	}

	// Merge rule-extracted entities under any the model supplied.
	lower := strings.ToLower(text)
	for k, v := range extractEntities(lower, strings.Fields(lower)) {
		if _, exists := result.Entities[k]; !exists {
			if result.Entities == nil {
				result.Entities = make(map[string]string)
			}
			result.Entities[k] = v
		}
	}
	return result, true
}

const classifierSystemPrompt = "You are an intent classifier for a pharmacy customer-service line. " +
	"Answer only in the exact format requested."

// buildPrompt enumerates the fixed intent set and asks for a two-line
// answer the tolerant parser can scan.
func buildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Classify the customer message into exactly one of these intents:\n")
	for _, label := range domain.KnownIntents {
		b.WriteString("- ")
		b.WriteString(label)
		b.WriteString("\n")
	}
	b.WriteString("\nReply with two lines:\nIntent: <label>\nConfidence: <0..1>\n")
	b.WriteString("Optionally add: Entities: key=value, key=value\n\n")
	fmt.Fprintf(&b, "Message: %s\n", text)
	return b.String()
}

// parseReply scans the model output line by line. Key matching is
// case-insensitive and unparsable lines are ignored. A reply without a
// known intent label is discarded entirely.
func parseReply(reply string) (domain.IntentClassification, bool) {
	var result domain.IntentClassification
	result.Confidence = -1

	for _, line := range strings.Split(reply, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "intent":
			result.Intent = strings.ToLower(strings.Trim(value, "`\"' ."))
		case "confidence":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				result.Confidence = clamp01(f)
			}
		case "entities":
			result.Entities = parseEntityList(value)
		}
	}

	if !domain.IsKnownIntent(result.Intent) {
		return domain.IntentClassification{}, false
	}
	if result.Confidence < 0 {
		result.Confidence = 0.5
	}
	return result, true
}

func parseEntityList(s string) map[string]string {
	entities := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k != "" && v != "" {
			entities[k] = v
		}
	}
	if len(entities) == 0 {
		return nil
	}
	return entities
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
