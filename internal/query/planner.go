package query

import (
	"strings"

	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
)

// Planner converts a classification into a structured retrieval plan.
type Planner struct {
	graph *normalize.CulinaryGraph
}

// NewPlanner returns a planner backed by the culinary graph.
func NewPlanner(graph *normalize.CulinaryGraph) *Planner {
	return &Planner{graph: graph}
}

// Plan builds the retrieval plan for a classified message. Dish slots take
// precedence over ingredient slots when determining the need type.
func (p *Planner) Plan(classification *models.Classification, original string) *models.QueryPlan {
	slots := classification.Slots
	needType := determineNeedType(classification.Intent, slots)

	primaryDish := ""
	if len(slots.Dishes) > 0 {
		primaryDish = slots.Dishes[0]
	}

	constraints := make([]string, 0, len(slots.Methods)+len(slots.Occasions))
	constraints = append(constraints, slots.Methods...)
	constraints = append(constraints, slots.Occasions...)

	return &models.QueryPlan{
		NeedType:       needType,
		PrimaryDish:    primaryDish,
		Ingredients:    slots.Ingredients,
		Constraints:    constraints,
		Language:       classification.Language,
		RetrievalQuery: p.buildRetrievalQuery(original, slots),
		LinkQuery:      p.buildLinkQuery(needType, primaryDish, slots.Ingredients),
		Original:       original,
	}
}

func determineNeedType(intent models.Intent, slots models.Slots) models.NeedType {
	switch intent {
	case models.IntentGreeting, models.IntentFarewell:
		return models.NeedGreeting
	case models.IntentAboutBot:
		return models.NeedAboutBot
	case models.IntentOffTopic, models.IntentInjection:
		return models.NeedOffTopic
	}
	if len(slots.Dishes) > 0 {
		return models.NeedRecipeByName
	}
	if len(slots.Ingredients) > 0 {
		return models.NeedRecipeByIngredients
	}
	return models.NeedSuggestions
}

// buildRetrievalQuery joins extracted slots into a search query, falling back
// to the normalized original message when nothing was extracted.
func (p *Planner) buildRetrievalQuery(original string, slots models.Slots) string {
	parts := make([]string, 0, 4)
	parts = append(parts, slots.Dishes...)
	parts = append(parts, slots.Ingredients...)
	parts = append(parts, slots.Methods...)
	parts = append(parts, slots.Occasions...)
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return normalize.Text(original)
}

// buildLinkQuery returns the query used against the link index, or "" when the
// need type never produces a link.
func (p *Planner) buildLinkQuery(needType models.NeedType, primaryDish string, ingredients []string) string {
	switch needType {
	case models.NeedGreeting, models.NeedAboutBot, models.NeedOffTopic:
		return ""
	case models.NeedRecipeByName:
		if primaryDish != "" {
			return primaryDish
		}
	case models.NeedRecipeByIngredients:
		for _, ing := range ingredients {
			if dishes := p.graph.DishesByIngredient(ing); len(dishes) > 0 {
				return dishes[0]
			}
		}
		if len(ingredients) > 0 {
			return strings.Join(ingredients, " ")
		}
	case models.NeedSuggestions:
		return "recettes libanaises"
	}
	return "recettes"
}
