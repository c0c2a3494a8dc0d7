package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/rxflow/internal/domain"
)

// catalogSearchLimit caps how many products one catalog reply mentions.
const catalogSearchLimit = 3

// Catalog answers product, price, and stock questions from the knowledge
// index's product entries.
type Catalog struct {
	index Searcher
}

// NewCatalog creates the catalog handler.
func NewCatalog(index Searcher) *Catalog {
	return &Catalog{index: index}
}

func (h *Catalog) Name() string { return "catalog" }

func (h *Catalog) Handle(ctx context.Context, msg domain.InboundMessage, _ *domain.ConversationContext, intent domain.IntentClassification) (domain.DispatchResult, error) {
	query := intent.Entities["product"]
	if query == "" {
		query = msg.Body
	}

	filters := &domain.SearchFilters{}
	if intent.Intent == domain.IntentStockCheck {
		inStock := true
		filters.InStock = &inStock
	}

	results, err := h.index.Search(ctx, query, catalogSearchLimit, filters)
	if err != nil || len(results) == 0 {
		return reply(h.Name(), "I couldn't find a matching product. Could you tell me the exact product name?"), nil
	}

	top := results[0]
	var b strings.Builder
	switch intent.Intent {
	case domain.IntentPriceInquiry:
		fmt.Fprintf(&b, "%s costs %.2f.", firstLine(top.Content), top.Metadata.Price)
	case domain.IntentStockCheck:
		if top.Metadata.InStock {
			fmt.Fprintf(&b, "%s is in stock.", firstLine(top.Content))
		} else {
			fmt.Fprintf(&b, "%s is currently out of stock.", firstLine(top.Content))
		}
	default:
		fmt.Fprintf(&b, "%s (%.2f)", firstLine(top.Content), top.Metadata.Price)
		if !top.Metadata.InStock {
			b.WriteString(" — currently out of stock")
		}
		b.WriteString(".")
	}

	if top.Metadata.RequiresPrescription {
		b.WriteString(" Note: this product requires a prescription.")
	}
	if len(results) > 1 {
		fmt.Fprintf(&b, " I found %d more related products — ask me for details.", len(results)-1)
	}

	return reply(h.Name(), b.String()), nil
}

// firstLine trims a product description to its leading line so replies
// stay short.
func firstLine(content string) string {
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		content = content[:i]
	}
	return strings.TrimSpace(content)
}
