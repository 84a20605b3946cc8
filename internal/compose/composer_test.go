package compose

import (
	"context"
	"strings"
	"testing"

	"github.com/sahtein/sahtein/internal/llm"
	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
	"github.com/sahtein/sahtein/pkg/utils"
)

func newTestComposer(recipes map[string]*models.Recipe) *Composer {
	logger, _ := utils.NewLogger(false)
	return NewComposer(llm.NewMockGenerator(), normalize.NewCulinaryGraph(), recipes, logger)
}

func frPlan(need models.NeedType, dish string) *models.QueryPlan {
	return &models.QueryPlan{
		NeedType:    need,
		PrimaryDish: dish,
		Language:    models.LangFrench,
		Original:    "recette de " + dish,
	}
}

func exactLink() *models.LinkDecision {
	return &models.LinkDecision{
		Primary: &models.Article{
			ID:          "a1",
			Title:       "Le taboulé de ma grand-mère",
			URL:         "https://www.lorientlejour.com/article/1/taboule.html",
			Chef:        "Karim Haïdar",
			Description: "Un taboulé comme à Beyrouth, tout en fraîcheur.",
		},
		Suggested: []*models.Article{
			{ID: "a2", Title: "Houmous onctueux", URL: "https://www.lorientlejour.com/article/2/houmous.html"},
		},
		Strategy:   models.StrategyExact,
		Confidence: 1.0,
	}
}

func TestCompose_externalRecipeIsStorytellingOnly(t *testing.T) {
	c := newTestComposer(nil)
	link := exactLink()

	draft := c.Compose(context.Background(),
		models.Scenario{ID: models.ScenarioExternalRecipe, Name: "oljRecipeAvailable", LinkRequired: true},
		frPlan(models.NeedRecipeByName, "tabbouleh"), link, nil)

	if !strings.Contains(draft.HTML, link.Primary.URL) {
		t.Error("draft must carry the resolved article URL")
	}
	if !strings.Contains(draft.HTML, link.Primary.Title) {
		t.Error("draft must carry the article title")
	}
	if !strings.Contains(draft.HTML, "Karim Haïdar") {
		t.Error("chef attribution missing")
	}
	if strings.Contains(draft.HTML, "Ingrédients") || strings.Contains(draft.HTML, "Préparation :") {
		t.Error("external recipe scenario must not render recipe content")
	}
	if !strings.Contains(draft.HTML, link.Suggested[0].URL) {
		t.Error("first suggested article should appear")
	}
}

func TestCompose_structuredRecipeRendersFullContent(t *testing.T) {
	recipe := &models.Recipe{
		ID:   "r1",
		Name: "Moudardara",
		Ingredients: []models.Ingredient{
			{Name: "lentilles", Quantity: 250, Unit: "g"},
			{Name: "riz", Quantity: 200, Unit: "g"},
			{Name: "oignons", Quantity: 3},
			{Name: "huile d'olive"},
		},
		Steps: []string{
			"Rincer les lentilles et les cuire 15 minutes.",
			"Ajouter le riz et couvrir d'eau.",
			strings.Repeat("Faire caraméliser les oignons doucement. ", 5),
		},
		Servings:   4,
		PrepTime:   "40 min",
		Difficulty: "facile",
	}
	c := newTestComposer(map[string]*models.Recipe{"r1": recipe})
	candidates := []*models.RankedCandidate{
		{Document: &models.Document{ID: "r1", Source: models.SourceStructured, Title: "Moudardara"}, Score: 0.8},
	}

	draft := c.Compose(context.Background(),
		models.Scenario{ID: models.ScenarioStructuredRecipe, Name: "base2PlusOljSuggestion", LinkRequired: true, ShowFullRecipe: true},
		frPlan(models.NeedRecipeByName, "moudardara"), exactLink(), candidates)

	for _, want := range []string{
		"Moudardara",
		"4 personnes | Préparation : 40 min | Difficulté : facile",
		"• 250 g de lentilles",
		"• 3 oignons",
		"• huile d'olive",
		"1. Rincer les lentilles",
		"non des archives",
	} {
		if !strings.Contains(draft.HTML, want) {
			t.Errorf("draft missing %q", want)
		}
	}
	// Long steps truncated.
	if !strings.Contains(draft.HTML, "...") {
		t.Error("long preparation step should be truncated")
	}
	if !strings.Contains(draft.HTML, "https://www.lorientlejour.com/article/1/taboule.html") {
		t.Error("external suggestion link missing")
	}
}

func TestCompose_structuredRecipeWithoutRecipeFallsBack(t *testing.T) {
	c := newTestComposer(nil)
	draft := c.Compose(context.Background(),
		models.Scenario{ID: models.ScenarioStructuredRecipe, Name: "base2PlusOljSuggestion"},
		frPlan(models.NeedRecipeByName, "moudardara"), exactLink(), nil)

	if !strings.Contains(draft.HTML, "pas trouvé exactement") {
		t.Error("missing recipe should degrade to the no-match template")
	}
}

func TestCompose_nonFrenchHasNoLink(t *testing.T) {
	c := newTestComposer(nil)
	draft := c.Compose(context.Background(),
		models.Scenario{ID: models.ScenarioNonFrench, Name: "nonFrench"},
		&models.QueryPlan{NeedType: models.NeedOffTopic, Language: models.LangNonFrench, Original: "give me a recipe"},
		&models.LinkDecision{Strategy: models.StrategyNone}, nil)

	if !strings.Contains(draft.HTML, "uniquement en français") {
		t.Error("non-French redirect text missing")
	}
	if strings.Contains(draft.HTML, "<a href") {
		t.Error("non-French scenario must not carry a link")
	}
}

func TestCompose_ingredientSuggestionsNumbersTopThree(t *testing.T) {
	c := newTestComposer(nil)
	candidates := []*models.RankedCandidate{
		{Document: &models.Document{ID: "r1", Source: models.SourceStructured, Title: "Falafel"}, Score: 0.7},
		{Document: &models.Document{ID: "a9", Source: models.SourceExternal, Title: "Houmous maison", URL: "https://www.lorientlejour.com/article/9/houmous.html"}, Score: 0.6},
		{Document: &models.Document{ID: "r2", Source: models.SourceStructured, Title: "Balila"}, Score: 0.5},
		{Document: &models.Document{ID: "r3", Source: models.SourceStructured, Title: "Moussaka"}, Score: 0.4},
	}
	plan := &models.QueryPlan{
		NeedType:    models.NeedRecipeByIngredients,
		Ingredients: []string{"pois chiches", "tahini"},
		Language:    models.LangFrench,
		Original:    "j'ai des pois chiches et du tahine",
	}

	draft := c.Compose(context.Background(),
		models.Scenario{ID: models.ScenarioIngredientSuggests, Name: "ingredientSuggestions", LinkRequired: true},
		plan, exactLink(), candidates)

	for _, want := range []string{"1. Falafel", "3. Balila", "Sur L'Orient-Le Jour"} {
		if !strings.Contains(draft.HTML, want) {
			t.Errorf("draft missing %q", want)
		}
	}
	if strings.Contains(draft.HTML, "Moussaka") {
		t.Error("only the top three candidates should be listed")
	}
	if !strings.Contains(draft.HTML, `<a href="https://www.lorientlejour.com/article/9/houmous.html">Houmous maison</a>`) {
		t.Error("external candidate should render as a link")
	}
	if strings.Contains(draft.HTML, `<a href="">Falafel`) || strings.Contains(draft.HTML, ">Falafel</a>") {
		t.Error("structured candidate must render as plain text")
	}
}

func TestCompose_deterministic(t *testing.T) {
	c := newTestComposer(nil)
	link := exactLink()
	plan := frPlan(models.NeedRecipeByName, "tabbouleh")
	scenario := models.Scenario{ID: models.ScenarioExternalRecipe, Name: "oljRecipeAvailable", LinkRequired: true}

	first := c.Compose(context.Background(), scenario, plan, link, nil)
	for i := 0; i < 5; i++ {
		again := c.Compose(context.Background(), scenario, plan, link, nil)
		if again.HTML != first.HTML {
			t.Fatalf("composition not deterministic:\n%s\nvs\n%s", again.HTML, first.HTML)
		}
	}
}

func TestCompose_neverFabricatesURL(t *testing.T) {
	c := newTestComposer(nil)
	link := exactLink()
	scenarios := []models.Scenario{
		{ID: models.ScenarioExternalRecipe, Name: "oljRecipeAvailable"},
		{ID: models.ScenarioNoMatchFallback, Name: "noMatchFallback"},
		{ID: models.ScenarioGreeting, Name: "greeting"},
		{ID: models.ScenarioAboutBot, Name: "aboutBot"},
		{ID: models.ScenarioOffTopicRedirect, Name: "offTopicRedirect"},
	}
	known := map[string]bool{link.Primary.URL: true}
	for _, s := range link.Suggested {
		known[s.URL] = true
	}

	for _, s := range scenarios {
		draft := c.Compose(context.Background(), s, frPlan(models.NeedSuggestions, ""), link, nil)
		for _, part := range strings.Split(draft.HTML, `href="`)[1:] {
			url := part[:strings.Index(part, `"`)]
			if !known[url] {
				t.Errorf("scenario %s: fabricated URL %q", s.Name, url)
			}
		}
	}
}

func TestPickEmoji_stableAndAllowed(t *testing.T) {
	allowed := make(map[string]bool, len(allowedEmojis))
	for _, e := range allowedEmojis {
		allowed[e] = true
	}

	first := pickEmoji("oljRecipeAvailable", normalize.CategorySalad)
	if !allowed[first] {
		t.Fatalf("emoji %q not in the allowed list", first)
	}
	for i := 0; i < 10; i++ {
		if got := pickEmoji("oljRecipeAvailable", normalize.CategorySalad); got != first {
			t.Fatalf("emoji selection not stable: %q vs %q", got, first)
		}
	}
}
