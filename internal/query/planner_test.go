package query

import (
	"testing"

	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
)

func newTestPlanner() *Planner {
	return NewPlanner(normalize.NewCulinaryGraph())
}

func TestPlan_needTypePrecedence(t *testing.T) {
	p := newTestPlanner()

	tests := []struct {
		name           string
		classification *models.Classification
		want           models.NeedType
	}{
		{
			name: "dish beats ingredients",
			classification: &models.Classification{
				Intent:   models.IntentFood,
				Language: models.LangFrench,
				Slots: models.Slots{
					Dishes:      []string{"hummus"},
					Ingredients: []string{"pois chiche"},
				},
			},
			want: models.NeedRecipeByName,
		},
		{
			name: "ingredients only",
			classification: &models.Classification{
				Intent:   models.IntentFood,
				Language: models.LangFrench,
				Slots:    models.Slots{Ingredients: []string{"pois chiche", "tahini"}},
			},
			want: models.NeedRecipeByIngredients,
		},
		{
			name: "no slots means suggestions",
			classification: &models.Classification{
				Intent:   models.IntentFood,
				Language: models.LangFrench,
			},
			want: models.NeedSuggestions,
		},
		{
			name:           "greeting",
			classification: &models.Classification{Intent: models.IntentGreeting, Language: models.LangFrench},
			want:           models.NeedGreeting,
		},
		{
			name:           "farewell maps to greeting",
			classification: &models.Classification{Intent: models.IntentFarewell, Language: models.LangFrench},
			want:           models.NeedGreeting,
		},
		{
			name:           "injection maps to off topic",
			classification: &models.Classification{Intent: models.IntentInjection, Language: models.LangFrench},
			want:           models.NeedOffTopic,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := p.Plan(tt.classification, "message")
			if plan.NeedType != tt.want {
				t.Errorf("NeedType = %s, want %s", plan.NeedType, tt.want)
			}
		})
	}
}

func TestPlan_queries(t *testing.T) {
	p := newTestPlanner()

	plan := p.Plan(&models.Classification{
		Intent:   models.IntentFood,
		Language: models.LangFrench,
		Slots: models.Slots{
			Dishes:      []string{"tabbouleh"},
			Ingredients: []string{"persil"},
			Occasions:   []string{"mezze"},
		},
	}, "Je cherche un taboulé pour un mezze")

	if plan.PrimaryDish != "tabbouleh" {
		t.Errorf("PrimaryDish = %s", plan.PrimaryDish)
	}
	if plan.RetrievalQuery != "tabbouleh persil mezze" {
		t.Errorf("RetrievalQuery = %q", plan.RetrievalQuery)
	}
	if plan.LinkQuery != "tabbouleh" {
		t.Errorf("LinkQuery = %q", plan.LinkQuery)
	}
	if len(plan.Constraints) != 1 || plan.Constraints[0] != "mezze" {
		t.Errorf("Constraints = %v", plan.Constraints)
	}
}

func TestPlan_linkQueryFromIngredients(t *testing.T) {
	p := newTestPlanner()

	plan := p.Plan(&models.Classification{
		Intent:   models.IntentFood,
		Language: models.LangFrench,
		Slots:    models.Slots{Ingredients: []string{"pois chiche"}},
	}, "J'ai des pois chiches")

	// The graph turns the ingredient into a known dish for the link lookup.
	if plan.LinkQuery == "" || plan.LinkQuery == "pois chiche" {
		t.Errorf("LinkQuery should come from the culinary graph, got %q", plan.LinkQuery)
	}
}

func TestPlan_noLinkQueryForNonFood(t *testing.T) {
	p := newTestPlanner()

	for _, intent := range []models.Intent{models.IntentGreeting, models.IntentAboutBot, models.IntentOffTopic} {
		plan := p.Plan(&models.Classification{Intent: intent, Language: models.LangFrench}, "msg")
		if plan.LinkQuery != "" {
			t.Errorf("intent %s: LinkQuery = %q, want empty", intent, plan.LinkQuery)
		}
		if plan.NeedsRetrieval() {
			t.Errorf("intent %s: NeedsRetrieval should be false", intent)
		}
	}
}

func TestPlan_retrievalQueryFallsBackToNormalizedMessage(t *testing.T) {
	p := newTestPlanner()

	plan := p.Plan(&models.Classification{
		Intent:   models.IntentFood,
		Language: models.LangFrench,
	}, "Une idée de dîner Libanais ?")

	if plan.RetrievalQuery != "une idee de diner libanais" {
		t.Errorf("RetrievalQuery = %q", plan.RetrievalQuery)
	}
	if plan.LinkQuery != "recettes libanaises" {
		t.Errorf("suggestions LinkQuery = %q", plan.LinkQuery)
	}
}
