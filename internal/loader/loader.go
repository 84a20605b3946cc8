// Package loader reads the two corpus files (external articles and structured
// recipes) and prepares them for indexing: normalized titles, slugs, recency
// based popularity, and the unified retrieval documents.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
)

const (
	// popularityWindow is the recency horizon: articles older than this score zero.
	popularityWindow = 365 * 24 * time.Hour
	// freshBonus is added when the article was modified within freshWindow.
	freshBonus  = 0.2
	freshWindow = 30 * 24 * time.Hour
	// structuredPopularity is the neutral score for recipes, which have no dates.
	structuredPopularity = 0.5
)

// Corpus holds everything loaded from disk, ready for indexing.
type Corpus struct {
	Articles []*models.Article
	Recipes  []*models.Recipe
	// Documents is the unified retrieval corpus, articles then recipes.
	Documents []*models.Document
	// RecipesByDocID resolves a structured document back to its full recipe.
	RecipesByDocID map[string]*models.Recipe
}

// Load reads both corpus files and builds the unified document set.
func Load(articlesPath, recipesPath string, logger *zap.Logger) (*Corpus, error) {
	articles, err := LoadArticles(articlesPath)
	if err != nil {
		return nil, err
	}
	recipes, err := LoadRecipes(recipesPath)
	if err != nil {
		return nil, err
	}

	corpus := &Corpus{
		Articles:       articles,
		Recipes:        recipes,
		RecipesByDocID: make(map[string]*models.Recipe, len(recipes)),
	}
	for _, a := range articles {
		corpus.Documents = append(corpus.Documents, ArticleDocument(a))
	}
	for _, r := range recipes {
		corpus.Documents = append(corpus.Documents, RecipeDocument(r))
		corpus.RecipesByDocID[r.ID] = r
	}

	logger.Info("corpus loaded",
		zap.Int("articles", len(articles)),
		zap.Int("recipes", len(recipes)),
		zap.String("articles_path", articlesPath),
		zap.String("recipes_path", recipesPath))
	return corpus, nil
}

// LoadArticles reads the external article corpus and fills in the derived
// fields: normalized title, slug, and popularity.
func LoadArticles(path string) ([]*models.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read articles corpus: %w", err)
	}

	var articles []*models.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("failed to parse articles corpus: %w", err)
	}

	now := time.Now()
	for _, a := range articles {
		if a.NormalizedTitle == "" {
			a.NormalizedTitle = normalize.RecipeName(a.Title)
		}
		if a.Slug == "" && a.URL != "" {
			a.Slug = normalize.SlugFromURL(a.URL)
		}
		a.Popularity = articlePopularity(a, now)
	}
	return articles, nil
}

// LoadRecipes reads the structured recipe corpus.
func LoadRecipes(path string) ([]*models.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipes corpus: %w", err)
	}

	var recipes []*models.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("failed to parse recipes corpus: %w", err)
	}
	return recipes, nil
}

// ArticleDocument converts an article into a retrieval document. The body is
// title plus description plus anecdote; the recipe itself lives behind the URL.
func ArticleDocument(a *models.Article) *models.Document {
	var parts []string
	for _, p := range []string{a.Title, a.Description, a.Anecdote} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return &models.Document{
		ID:         a.ID,
		Source:     models.SourceExternal,
		Title:      a.Title,
		Content:    strings.Join(parts, " "),
		Tags:       a.Tags,
		Chef:       a.Chef,
		URL:        a.URL,
		Popularity: a.Popularity,
	}
}

// RecipeDocument converts a structured recipe into a retrieval document.
// Ingredient names go into both the content and the dedicated field so
// ingredient queries match either way.
func RecipeDocument(r *models.Recipe) *models.Document {
	names := r.IngredientNames()
	parts := []string{r.Name}
	if r.Category != "" {
		parts = append(parts, r.Category)
	}
	parts = append(parts, names...)
	return &models.Document{
		ID:          r.ID,
		Source:      models.SourceStructured,
		Title:       r.Name,
		Content:     strings.Join(parts, " "),
		Tags:        r.Tags,
		Ingredients: names,
		Popularity:  structuredPopularity,
	}
}

// articlePopularity approximates popularity from recency: linear decay over
// the window, plus a bonus for recently modified articles, capped at 1.
func articlePopularity(a *models.Article, now time.Time) float64 {
	t := a.RecencyTime()
	if t.IsZero() {
		return 0
	}
	age := now.Sub(t)
	if age < 0 {
		age = 0
	}
	pop := 1 - float64(age)/float64(popularityWindow)
	if pop < 0 {
		pop = 0
	}
	if a.ModifiedAt != nil && now.Sub(*a.ModifiedAt) <= freshWindow {
		pop += freshBonus
	}
	if pop > 1 {
		pop = 1
	}
	return pop
}
