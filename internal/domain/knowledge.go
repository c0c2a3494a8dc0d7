package domain

// EntryType classifies what a knowledge entry describes.
type EntryType string

const (
	EntryTypeProduct  EntryType = "product"
	EntryTypeDocument EntryType = "document"
)

// EntryMetadata carries the filterable attributes of a knowledge entry.
type EntryMetadata struct {
	Category             string    `json:"category,omitempty"`
	InStock              bool      `json:"inStock"`
	RequiresPrescription bool      `json:"requiresPrescription"`
	Price                float64   `json:"price,omitempty"`
	Source               string    `json:"source,omitempty"`
	Type                 EntryType `json:"type,omitempty"`
}

// KnowledgeEntry is one indexed item: a product description or a free-text
// document, with its embedding vector. Vector dimensionality is constant
// across all entries in one index instance.
type KnowledgeEntry struct {
	ID       string        `json:"id"`
	Content  string        `json:"content"`
	Metadata EntryMetadata `json:"metadata"`
	Vector   []float32     `json:"-"`
}

// SearchFilters narrows a knowledge search. Nil pointer fields are ignored.
type SearchFilters struct {
	Category             string   `json:"category,omitempty"`
	RequiresPrescription *bool    `json:"requiresPrescription,omitempty"`
	InStock              *bool    `json:"inStock,omitempty"`
	MinPrice             *float64 `json:"minPrice,omitempty"`
	MaxPrice             *float64 `json:"maxPrice,omitempty"`
}

// Match reports whether the metadata passes every set filter.
func (f *SearchFilters) Match(m EntryMetadata) bool {
	if f == nil {
		return true
	}
	if f.Category != "" && f.Category != m.Category {
		return false
	}
	if f.RequiresPrescription != nil && *f.RequiresPrescription != m.RequiresPrescription {
		return false
	}
	if f.InStock != nil && *f.InStock != m.InStock {
		return false
	}
	if f.MinPrice != nil && m.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && m.Price > *f.MaxPrice {
		return false
	}
	return true
}

// SearchResult is one scored hit from a knowledge search.
type SearchResult struct {
	ID       string        `json:"id"`
	Content  string        `json:"content"`
	Metadata EntryMetadata `json:"metadata"`
	Score    float64       `json:"score"`
}
