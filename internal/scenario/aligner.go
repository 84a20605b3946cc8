// Package scenario maps query understanding onto the closed set of eight
// editorial scenarios. The table is static; alignment is a pure, total
// function of its inputs.
package scenario

import (
	"github.com/sahtein/sahtein/internal/models"
)

// table is the fixed scenario catalogue. Scenario 7 is the only one without a
// mandatory link and the only one answered outside French.
var table = map[models.ScenarioID]models.Scenario{
	models.ScenarioExternalRecipe: {
		ID: models.ScenarioExternalRecipe, Name: "oljRecipeAvailable",
		LinkRequired: true, ShowFullRecipe: false, UseSource: "external",
	},
	models.ScenarioStructuredRecipe: {
		ID: models.ScenarioStructuredRecipe, Name: "base2PlusOljSuggestion",
		LinkRequired: true, ShowFullRecipe: true, UseSource: "structured",
	},
	models.ScenarioNoMatchFallback: {
		ID: models.ScenarioNoMatchFallback, Name: "noMatchFallback",
		LinkRequired: true, ShowFullRecipe: false, UseSource: "none",
	},
	models.ScenarioGreeting: {
		ID: models.ScenarioGreeting, Name: "greeting",
		LinkRequired: true, ShowFullRecipe: false, UseSource: "none",
	},
	models.ScenarioAboutBot: {
		ID: models.ScenarioAboutBot, Name: "aboutBot",
		LinkRequired: true, ShowFullRecipe: false, UseSource: "none",
	},
	models.ScenarioOffTopicRedirect: {
		ID: models.ScenarioOffTopicRedirect, Name: "offTopicRedirect",
		LinkRequired: true, ShowFullRecipe: false, UseSource: "none",
	},
	models.ScenarioNonFrench: {
		ID: models.ScenarioNonFrench, Name: "nonFrench",
		LinkRequired: false, ShowFullRecipe: false, UseSource: "none",
	},
	models.ScenarioIngredientSuggests: {
		ID: models.ScenarioIngredientSuggests, Name: "ingredientSuggestions",
		LinkRequired: true, ShowFullRecipe: false, UseSource: "mixed",
	},
}

// Get returns the scenario definition for id. Unknown ids resolve to the
// no-match fallback so callers always receive a valid scenario.
func Get(id models.ScenarioID) models.Scenario {
	if s, ok := table[id]; ok {
		return s
	}
	return table[models.ScenarioNoMatchFallback]
}

// Aligner picks the scenario for a classified, planned, link-resolved query.
type Aligner struct {
	// structuredScoreFloor is the minimum top structured-recipe score that
	// justifies showing a full recipe (scenario 2).
	structuredScoreFloor float64
	// linkConfidenceFloor is the minimum link confidence that justifies
	// serving the external article as the answer (scenario 1).
	linkConfidenceFloor float64
}

// NewAligner returns an aligner with the editorial thresholds.
func NewAligner() *Aligner {
	return &Aligner{structuredScoreFloor: 0.4, linkConfidenceFloor: 0.6}
}

// Align is total: every input combination maps to exactly one scenario, with
// the no-match fallback as the default branch.
func (a *Aligner) Align(
	classification *models.Classification,
	plan *models.QueryPlan,
	link *models.LinkDecision,
	candidates []*models.RankedCandidate,
) models.Scenario {
	if classification.Language == models.LangNonFrench {
		return Get(models.ScenarioNonFrench)
	}

	switch classification.Intent {
	case models.IntentGreeting, models.IntentFarewell:
		return Get(models.ScenarioGreeting)
	case models.IntentAboutBot:
		return Get(models.ScenarioAboutBot)
	case models.IntentOffTopic, models.IntentInjection:
		return Get(models.ScenarioOffTopicRedirect)
	}

	// Food request from here on.
	if link.HasLink() && link.Confidence > a.linkConfidenceFloor &&
		link.Strategy != models.StrategyFallback {
		return Get(models.ScenarioExternalRecipe)
	}

	if top := topStructured(candidates); top != nil && top.Score > a.structuredScoreFloor {
		return Get(models.ScenarioStructuredRecipe)
	}

	if plan.NeedType == models.NeedRecipeByIngredients && len(plan.Ingredients) > 1 {
		return Get(models.ScenarioIngredientSuggests)
	}

	return Get(models.ScenarioNoMatchFallback)
}

func topStructured(candidates []*models.RankedCandidate) *models.RankedCandidate {
	for _, c := range candidates {
		if c.Document.Source == models.SourceStructured {
			return c
		}
	}
	return nil
}
