package ranking

import (
	"strings"

	"github.com/sahtein/sahtein/internal/config"
	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
)

// lebaneseIndicators mark a document as Levantine/Mediterranean relevant.
var lebaneseIndicators = []string{
	"liban", "libanais", "beyrouth", "mediterraneen",
	"mezze", "tahini", "zaatar", "sumac", "grenade",
	"arak", "laban", "kishk",
}

// RegionalMultiplier boosts documents that read as Lebanese cuisine.
type RegionalMultiplier struct {
	boost float64
}

// NewRegionalMultiplier creates a regional relevance multiplier.
func NewRegionalMultiplier(cfg *config.RankingConfig) *RegionalMultiplier {
	return &RegionalMultiplier{boost: cfg.RegionalBoost}
}

// Name returns the multiplier name.
func (m *RegionalMultiplier) Name() string { return "regional" }

// Multiply applies the regional boost when any indicator appears in the document.
func (m *RegionalMultiplier) Multiply(ctx *ScoringContext, baseScore float64) float64 {
	if baseScore == 0 {
		return 0
	}
	doc := ctx.Candidate.Document
	haystack := normalize.Searchable(doc.Title, doc.Content) + " " + normalize.Searchable(doc.Tags...)
	for _, indicator := range lebaneseIndicators {
		if strings.Contains(haystack, indicator) {
			return baseScore * m.boost
		}
	}
	return baseScore
}

// IngredientMatchMultiplier boosts by the fraction of query ingredients the
// document covers. Only active for ingredient-driven plans.
type IngredientMatchMultiplier struct {
	weight float64
}

// NewIngredientMatchMultiplier creates an ingredient coverage multiplier.
func NewIngredientMatchMultiplier(cfg *config.RankingConfig) *IngredientMatchMultiplier {
	return &IngredientMatchMultiplier{weight: cfg.IngredientWeight}
}

// Name returns the multiplier name.
func (m *IngredientMatchMultiplier) Name() string { return "ingredient_match" }

// Multiply scales the score by 1 + ratio*weight where ratio is the covered
// fraction of query ingredients.
func (m *IngredientMatchMultiplier) Multiply(ctx *ScoringContext, baseScore float64) float64 {
	if baseScore == 0 {
		return 0
	}
	plan := ctx.Plan
	if plan.NeedType != models.NeedRecipeByIngredients || len(plan.Ingredients) == 0 {
		return baseScore
	}
	doc := ctx.Candidate.Document
	docIngredients := doc.Ingredients
	if len(docIngredients) == 0 {
		docIngredients = strings.Fields(normalize.Text(doc.Content))
	}
	_, ratio := ctx.Table.MatchRatio(plan.Ingredients, docIngredients)
	return baseScore * (1.0 + ratio*m.weight)
}

// DishMatchMultiplier boosts documents that mention the plan's primary dish.
type DishMatchMultiplier struct {
	boost float64
}

// NewDishMatchMultiplier creates a primary dish multiplier.
func NewDishMatchMultiplier(cfg *config.RankingConfig) *DishMatchMultiplier {
	return &DishMatchMultiplier{boost: cfg.DishMatchBoost}
}

// Name returns the multiplier name.
func (m *DishMatchMultiplier) Name() string { return "dish_match" }

// Multiply applies the dish boost when the canonical dish name appears in the
// document title or content.
func (m *DishMatchMultiplier) Multiply(ctx *ScoringContext, baseScore float64) float64 {
	if baseScore == 0 || ctx.Plan.PrimaryDish == "" {
		return baseScore
	}
	dish := normalize.RecipeName(ctx.Plan.PrimaryDish)
	doc := ctx.Candidate.Document
	haystack := normalize.RecipeName(doc.Title) + " " + normalize.RecipeName(doc.Content)
	if strings.Contains(haystack, dish) {
		return baseScore * m.boost
	}
	return baseScore
}

// ConstraintMultiplier boosts by the fraction of plan constraints the
// document satisfies.
type ConstraintMultiplier struct {
	weight float64
}

// NewConstraintMultiplier creates a constraint satisfaction multiplier.
func NewConstraintMultiplier(cfg *config.RankingConfig) *ConstraintMultiplier {
	return &ConstraintMultiplier{weight: cfg.ConstraintWeight}
}

// Name returns the multiplier name.
func (m *ConstraintMultiplier) Name() string { return "constraints" }

// Multiply scales the score by 1 + ratio*weight where ratio is the satisfied
// fraction of constraints.
func (m *ConstraintMultiplier) Multiply(ctx *ScoringContext, baseScore float64) float64 {
	if baseScore == 0 || len(ctx.Plan.Constraints) == 0 {
		return baseScore
	}
	doc := ctx.Candidate.Document
	haystack := normalize.Searchable(doc.Title, doc.Content) + " " + normalize.Searchable(doc.Tags...)
	satisfied := 0
	for _, constraint := range ctx.Plan.Constraints {
		if strings.Contains(haystack, normalize.Text(constraint)) {
			satisfied++
		}
	}
	ratio := float64(satisfied) / float64(len(ctx.Plan.Constraints))
	return baseScore * (1.0 + ratio*m.weight)
}

// SourcePriorityMultiplier encodes the corpus preference per need type:
// name queries favor external storytelling articles, ingredient queries favor
// structured recipes. The boosted source always lands above 1.0 and the
// other below 1.0.
type SourcePriorityMultiplier struct {
	cfg *config.RankingConfig
}

// NewSourcePriorityMultiplier creates a source priority multiplier.
func NewSourcePriorityMultiplier(cfg *config.RankingConfig) *SourcePriorityMultiplier {
	return &SourcePriorityMultiplier{cfg: cfg}
}

// Name returns the multiplier name.
func (m *SourcePriorityMultiplier) Name() string { return "source_priority" }

// Multiply applies the per-source weight for the plan's need type.
func (m *SourcePriorityMultiplier) Multiply(ctx *ScoringContext, baseScore float64) float64 {
	if baseScore == 0 {
		return 0
	}
	source := ctx.Candidate.Document.Source
	switch ctx.Plan.NeedType {
	case models.NeedRecipeByName:
		if source == models.SourceExternal {
			return baseScore * m.cfg.NameExternalBoost
		}
		return baseScore * m.cfg.NameStructuredPenalty
	case models.NeedRecipeByIngredients:
		if source == models.SourceStructured {
			return baseScore * m.cfg.IngredientStructuredBoost
		}
		return baseScore * m.cfg.IngredientExternalPenalty
	}
	return baseScore
}

// PopularityMultiplier gives a mild edge to popular external articles.
// Popularity is a soft signal only: it can reorder near-equal scores but
// never overturn a strong relevance gap.
type PopularityMultiplier struct {
	weight float64
}

// NewPopularityMultiplier creates a popularity multiplier.
func NewPopularityMultiplier(cfg *config.RankingConfig) *PopularityMultiplier {
	return &PopularityMultiplier{weight: cfg.PopularityWeight}
}

// Name returns the multiplier name.
func (m *PopularityMultiplier) Name() string { return "popularity" }

// Multiply scales the score by 1 + popularity*weight.
func (m *PopularityMultiplier) Multiply(ctx *ScoringContext, baseScore float64) float64 {
	if baseScore == 0 {
		return 0
	}
	pop := ctx.Candidate.Document.Popularity
	if pop <= 0 {
		return baseScore
	}
	if pop > 1.0 {
		pop = 1.0
	}
	return baseScore * (1.0 + pop*m.weight)
}

// DefaultMultipliers returns the full chain in its fixed application order.
func DefaultMultipliers(cfg *config.RankingConfig) []Multiplier {
	return []Multiplier{
		NewRegionalMultiplier(cfg),
		NewIngredientMatchMultiplier(cfg),
		NewDishMatchMultiplier(cfg),
		NewConstraintMultiplier(cfg),
		NewSourcePriorityMultiplier(cfg),
		NewPopularityMultiplier(cfg),
	}
}
