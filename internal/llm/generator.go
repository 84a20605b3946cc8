// Package llm abstracts the prose-generation capability. The pipeline treats
// generated text as decoration only: facts, links, and structure always come
// from the indexes, so a generator failure degrades to templates, never to
// an error surfaced to the user.
package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"
)

// PromptContext is everything a generator may use to phrase a response.
type PromptContext struct {
	ScenarioName string
	Query        string
	DishName     string
	FactsHTML    string
	Language     string
}

// Generator produces prose for a scenario. Implementations must respect the
// context deadline; callers always bound the call with a timeout.
type Generator interface {
	Generate(ctx context.Context, prompt PromptContext) (string, error)
	Name() string
}

// MockGenerator returns deterministic canned phrasing and never fails.
// It doubles as the template fallback when a real provider times out.
type MockGenerator struct{}

// NewMockGenerator creates the deterministic generator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Name returns the provider name.
func (g *MockGenerator) Name() string { return "mock" }

// phrasings per scenario; the pick is a stable hash of the dish so the same
// query always reads the same.
var mockPhrasings = map[string][]string{
	"oljRecipeAvailable": {
		"Une belle histoire de cuisine vous attend.",
		"Voici un article qui raconte ce plat comme à la maison.",
	},
	"base2PlusOljSuggestion": {
		"Voici la recette complète, pas à pas.",
		"Tout ce qu'il faut pour réussir ce plat.",
	},
	"ingredientSuggestions": {
		"Avec ces ingrédients, plusieurs plats s'offrent à vous.",
		"Voici quelques idées qui mettront vos ingrédients en valeur.",
	},
}

// Generate returns a canned phrase for the scenario, or "" when the scenario
// carries a fully templated body.
func (g *MockGenerator) Generate(_ context.Context, prompt PromptContext) (string, error) {
	phrases, ok := mockPhrasings[prompt.ScenarioName]
	if !ok || len(phrases) == 0 {
		return "", nil
	}
	h := fnv.New32a()
	h.Write([]byte(prompt.ScenarioName))
	h.Write([]byte(prompt.DishName))
	return phrases[h.Sum32()%uint32(len(phrases))], nil
}

// WithTimeout wraps a generator so every call is bounded. On timeout or
// provider error the zero value is returned with the error; the composer then
// falls back to its deterministic template.
type WithTimeout struct {
	inner   Generator
	timeout time.Duration
}

// NewWithTimeout bounds every Generate call on inner by timeout.
func NewWithTimeout(inner Generator, timeout time.Duration) *WithTimeout {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &WithTimeout{inner: inner, timeout: timeout}
}

// Name returns the wrapped provider name.
func (g *WithTimeout) Name() string { return g.inner.Name() }

// Generate calls the wrapped generator with a deadline.
func (g *WithTimeout) Generate(ctx context.Context, prompt PromptContext) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := g.inner.Generate(ctx, prompt)
		ch <- result{text, err}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("generation timed out after %s: %w", g.timeout, ctx.Err())
	}
}
