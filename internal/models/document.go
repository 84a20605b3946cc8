// Package models defines core data structures for documents, queries, and pipeline results.
package models

import "time"

// SourceKind identifies which corpus a document comes from.
type SourceKind string

const (
	// SourceExternal marks documents sourced from the external publication.
	// Only these may carry a URL and only these are served by the link index.
	SourceExternal SourceKind = "external"
	// SourceStructured marks internally structured recipes. They never carry a URL.
	SourceStructured SourceKind = "structured"
)

// Document is a unit of retrievable content in the unified corpus.
// Documents are created once at load time and immutable thereafter.
type Document struct {
	ID         string     `json:"id"`
	Source     SourceKind `json:"source"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Tags       []string   `json:"tags,omitempty"`
	// Ingredients holds plain ingredient names for retrieval and match-ratio
	// scoring. Structured recipes always have them; external articles only
	// when the source exposes them.
	Ingredients []string `json:"ingredients,omitempty"`
	Chef        string   `json:"chef,omitempty"`
	URL         string   `json:"url,omitempty"` // external documents only
	Popularity  float64  `json:"popularity"`
}

// Article is an externally published recipe article (the link-eligible corpus).
type Article struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	NormalizedTitle string     `json:"normalized_title"`
	Slug            string     `json:"slug"`
	URL             string     `json:"url"`
	Chef            string     `json:"chef,omitempty"`
	Author          string     `json:"author,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	ModifiedAt      *time.Time `json:"modified_at,omitempty"`
	// Popularity is approximated from recency at load time. Soft ranking signal only.
	Popularity  float64 `json:"popularity"`
	Description string  `json:"description,omitempty"`
	Anecdote    string  `json:"anecdote,omitempty"`
}

// RecencyTime returns the best available timestamp for ordering by recency.
func (a *Article) RecencyTime() time.Time {
	if a.ModifiedAt != nil {
		return *a.ModifiedAt
	}
	if a.PublishedAt != nil {
		return *a.PublishedAt
	}
	return time.Time{}
}

// Ingredient is a structured recipe ingredient with an optional quantity.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity,omitempty"`
	Unit     string  `json:"unit,omitempty"`
}

// Recipe is an internally structured recipe (full content may be shown to the user).
type Recipe struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category,omitempty"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps,omitempty"`
	Servings    int          `json:"servings,omitempty"`
	PrepTime    string       `json:"prep_time,omitempty"`
	CookTime    string       `json:"cook_time,omitempty"`
	Difficulty  string       `json:"difficulty,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
}

// IngredientNames returns the plain names of all ingredients.
func (r *Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}
