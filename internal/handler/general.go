package handler

import (
	"context"
	"fmt"

	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/logging"
)

// ReasonNoKnowledge is the fixed escalation reason used when the knowledge
// index cannot answer an open-ended question.
const ReasonNoKnowledge = "General inquiry requiring human expertise"

// generalSearchLimit is the small result window used for open-ended
// questions.
const generalSearchLimit = 3

// General answers open-ended questions, help requests, and complaints via
// the knowledge index, escalating whenever retrieval comes up empty.
type General struct {
	index Searcher
	log   *logging.Logger
}

// NewGeneral creates the general-inquiry handler.
func NewGeneral(index Searcher, log *logging.Logger) *General {
	return &General{index: index, log: log.Sub("handler.general")}
}

func (h *General) Name() string { return "general" }

func (h *General) Handle(ctx context.Context, msg domain.InboundMessage, _ *domain.ConversationContext, intent domain.IntentClassification) (domain.DispatchResult, error) {
	results, err := h.index.Search(ctx, msg.Body, generalSearchLimit, nil)
	if err != nil {
		// Retrieval faults read as "no knowledge found".
		h.log.Warn().Err(err).Msg("knowledge search failed")
		results = nil
	}

	if len(results) == 0 {
		return escalate(h.Name(),
			"That's a question I'd rather have a colleague answer properly. I've asked one of our team to get back to you.",
			ReasonNoKnowledge), nil
	}

	response := synthesize(results)
	if intent.Intent == domain.IntentComplaint {
		response = "I'm sorry to hear that. " + response
	}
	return reply(h.Name(), response), nil
}

// synthesize builds a reply from the top hit and mentions how many more
// are available.
func synthesize(results []domain.SearchResult) string {
	response := results[0].Content
	if len(results) > 1 {
		response += fmt.Sprintf(" (I have %d more related answers — just ask.)", len(results)-1)
	}
	return response
}
