// Package compose turns an aligned scenario plus supporting facts into a
// French HTML draft. The composer owns template choice, link placement, and
// emoji selection; prose generation only ever decorates, never adds facts.
package compose

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"go.uber.org/zap"

	"github.com/sahtein/sahtein/internal/llm"
	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
)

// allowedEmojis are food and warmth emojis. No flags.
var allowedEmojis = []string{
	"🍽️", "🥗", "🍴", "👨‍🍳", "👩‍🍳", "🌿", "🥙", "🥘", "🍲",
	"😋", "😊", "👌", "✨", "💚", "🌟", "🎉",
}

// Composer builds response drafts per scenario.
type Composer struct {
	generator llm.Generator
	graph     *normalize.CulinaryGraph
	recipes   map[string]*models.Recipe
	logger    *zap.Logger
}

// NewComposer creates a composer. recipes maps structured document IDs to
// their full recipes for the full-recipe scenario.
func NewComposer(generator llm.Generator, graph *normalize.CulinaryGraph, recipes map[string]*models.Recipe, logger *zap.Logger) *Composer {
	return &Composer{generator: generator, graph: graph, recipes: recipes, logger: logger}
}

// Compose builds the draft for a scenario. It never fails: a generation error
// degrades to the pure template, and a scenario missing its expected facts
// degrades to the no-match template.
func (c *Composer) Compose(
	ctx context.Context,
	scenario models.Scenario,
	plan *models.QueryPlan,
	link *models.LinkDecision,
	candidates []*models.RankedCandidate,
) *models.Draft {
	var html string
	switch scenario.ID {
	case models.ScenarioExternalRecipe:
		html = c.composeExternalRecipe(ctx, plan, link)
	case models.ScenarioStructuredRecipe:
		html = c.composeStructuredRecipe(plan, link, candidates)
	case models.ScenarioNoMatchFallback:
		html = c.composeNoMatch(plan, link)
	case models.ScenarioGreeting:
		html = c.composeGreeting(link)
	case models.ScenarioAboutBot:
		html = c.composeAboutBot(link)
	case models.ScenarioOffTopicRedirect:
		html = c.composeOffTopic(plan, link)
	case models.ScenarioNonFrench:
		html = c.composeNonFrench()
	case models.ScenarioIngredientSuggests:
		html = c.composeIngredientSuggestions(ctx, plan, link, candidates)
	default:
		html = c.composeNoMatch(plan, link)
	}

	return &models.Draft{Scenario: scenario, HTML: html, Link: link}
}

// pickEmoji selects from the allowed list by a stable hash of scenario name
// and food category, so identical queries always carry the same emoji.
func pickEmoji(scenarioName string, category normalize.DishCategory) string {
	h := fnv.New32a()
	h.Write([]byte(scenarioName))
	h.Write([]byte(category))
	return allowedEmojis[h.Sum32()%uint32(len(allowedEmojis))]
}

// pickVariant deterministically selects one of several phrasings.
func pickVariant(variants []string, key string) string {
	h := fnv.New32a()
	h.Write([]byte(key))
	return variants[h.Sum32()%uint32(len(variants))]
}

func (c *Composer) category(plan *models.QueryPlan) normalize.DishCategory {
	if plan == nil || plan.PrimaryDish == "" {
		return ""
	}
	return c.graph.Category(plan.PrimaryDish)
}

// generate asks the prose generator for an optional intro sentence. Errors
// and timeouts fall back to the empty string; templates stand on their own.
func (c *Composer) generate(ctx context.Context, scenarioName string, plan *models.QueryPlan) string {
	prompt := llm.PromptContext{
		ScenarioName: scenarioName,
		Query:        plan.Original,
		DishName:     plan.PrimaryDish,
		Language:     string(plan.Language),
	}
	text, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		c.logger.Warn("prose generation failed, using template",
			zap.String("scenario", scenarioName), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(text)
}

// Scenario 1: external article exists. Storytelling only, never the recipe
// content itself; the link is the answer.
func (c *Composer) composeExternalRecipe(ctx context.Context, plan *models.QueryPlan, link *models.LinkDecision) string {
	if !link.HasLink() {
		return c.composeNoMatch(plan, link)
	}
	article := link.Primary
	emoji := pickEmoji("oljRecipeAvailable", c.category(plan))

	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>%s <strong>%s</strong></p>\n", emoji, article.Title)

	if intro := c.generate(ctx, "oljRecipeAvailable", plan); intro != "" {
		fmt.Fprintf(&sb, "<p>%s</p>\n", intro)
	}
	if article.Description != "" {
		fmt.Fprintf(&sb, "<p>%s</p>\n", truncateRunes(article.Description, 180))
	} else if article.Anecdote != "" {
		fmt.Fprintf(&sb, "<p>%s</p>\n", truncateRunes(article.Anecdote, 180))
	}
	if article.Chef != "" {
		fmt.Fprintf(&sb, "<p>Une recette de %s.</p>\n", article.Chef)
	}
	fmt.Fprintf(&sb, "<p><a href=\"%s\">Découvrez la recette complète ici</a></p>", article.URL)

	if len(link.Suggested) > 0 {
		s := link.Suggested[0]
		fmt.Fprintf(&sb, "\n<p>Vous aimerez aussi : <a href=\"%s\">%s</a></p>", s.URL, s.Title)
	}
	return sb.String()
}

// Scenario 2: structured recipe. Full content permitted, with a note that it
// is not publication content, plus the external suggestion.
func (c *Composer) composeStructuredRecipe(plan *models.QueryPlan, link *models.LinkDecision, candidates []*models.RankedCandidate) string {
	recipe := c.topRecipe(candidates)
	if recipe == nil {
		return c.composeNoMatch(plan, link)
	}
	emoji := pickEmoji("base2PlusOljSuggestion", c.category(plan))

	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>%s <strong>%s</strong></p>\n", emoji, recipe.Name)

	var meta []string
	if recipe.Servings > 0 {
		meta = append(meta, fmt.Sprintf("%d personnes", recipe.Servings))
	}
	if recipe.PrepTime != "" {
		meta = append(meta, "Préparation : "+recipe.PrepTime)
	}
	if recipe.Difficulty != "" {
		meta = append(meta, "Difficulté : "+recipe.Difficulty)
	}
	if len(meta) > 0 {
		fmt.Fprintf(&sb, "<p><em>%s</em></p>\n", strings.Join(meta, " | "))
	}

	sb.WriteString("<p><strong>Ingrédients :</strong><br>\n")
	for i, ing := range recipe.Ingredients {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&sb, "• %s<br>\n", ingredientText(ing))
	}
	sb.WriteString("</p>\n")

	sb.WriteString("<p><strong>Préparation :</strong><br>\n")
	for i, step := range recipe.Steps {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&sb, "%d. %s<br>\n", i+1, truncateRunes(step, 100))
	}
	sb.WriteString("</p>\n")

	sb.WriteString("<p><em>Recette issue de notre base culinaire, et non des archives de L'Orient-Le Jour.</em></p>")

	if link.HasLink() {
		fmt.Fprintf(&sb, "\n<p>Découvrez aussi sur L'Orient-Le Jour : <a href=\"%s\">%s</a></p>",
			link.Primary.URL, link.Primary.Title)
	}
	return sb.String()
}

func (c *Composer) composeNoMatch(plan *models.QueryPlan, link *models.LinkDecision) string {
	emoji := pickEmoji("noMatchFallback", c.category(plan))

	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>%s Je n'ai pas trouvé exactement ce que vous cherchez, mais voici une suggestion !</p>", emoji)
	if link.HasLink() {
		fmt.Fprintf(&sb, "\n<p><a href=\"%s\"><strong>%s</strong></a></p>", link.Primary.URL, link.Primary.Title)
		if link.Primary.Description != "" {
			fmt.Fprintf(&sb, "\n<p>%s</p>", truncateRunes(link.Primary.Description, 120))
		}
	}
	return sb.String()
}

func (c *Composer) composeGreeting(link *models.LinkDecision) string {
	greetings := []string{
		"Bonjour ! 😊 Je suis Sahtein, votre assistant culinaire libanais.",
		"Salut ! 🍽️ Ravie de vous rencontrer. Je suis Sahtein, spécialiste de la cuisine libanaise.",
		"Bonjour ! 👨‍🍳 Bienvenue chez Sahtein, votre guide de la gastronomie libanaise.",
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>%s</p>\n", pickVariant(greetings, "greeting"))
	sb.WriteString("<p>Demandez-moi une recette, des suggestions avec vos ingrédients, ou des idées de mezze ! 🌿</p>")
	if link.HasLink() {
		fmt.Fprintf(&sb, "\n<p>Pour commencer : <a href=\"%s\">%s</a></p>", link.Primary.URL, link.Primary.Title)
	}
	return sb.String()
}

func (c *Composer) composeAboutBot(link *models.LinkDecision) string {
	emoji := pickEmoji("aboutBot", "")

	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>%s Je suis Sahtein, votre assistant culinaire pour la cuisine libanaise et méditerranéenne orientale.</p>\n", emoji)
	sb.WriteString("<p>Je vous aide à découvrir les recettes de L'Orient-Le Jour, et je peux vous suggérer des plats selon vos envies ou vos ingrédients.</p>")
	if link.HasLink() {
		fmt.Fprintf(&sb, "\n<p>Par exemple : <a href=\"%s\">%s</a></p>", link.Primary.URL, link.Primary.Title)
	}
	return sb.String()
}

func (c *Composer) composeOffTopic(plan *models.QueryPlan, link *models.LinkDecision) string {
	emoji := pickEmoji("offTopicRedirect", c.category(plan))
	redirects := []string{
		"Je suis spécialisé dans la cuisine libanaise et méditerranéenne. Puis-je vous suggérer une recette ?",
		"Ma spécialité, c'est la gastronomie libanaise ! Que diriez-vous de découvrir un délicieux mezze ?",
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>%s %s</p>", emoji, pickVariant(redirects, "offTopicRedirect"))
	if link.HasLink() {
		fmt.Fprintf(&sb, "\n<p>Voici une suggestion : <a href=\"%s\">%s</a></p>", link.Primary.URL, link.Primary.Title)
	}
	return sb.String()
}

// Scenario 7 is the single exception to French-only output.
func (c *Composer) composeNonFrench() string {
	return "<p>😊 Bonjour ! Je réponds uniquement en français.</p>\n" +
		"<p>Pour découvrir nos recettes libanaises, posez-moi votre question en français ! " +
		"Please ask me in French to discover our Lebanese recipes.</p>"
}

func (c *Composer) composeIngredientSuggestions(ctx context.Context, plan *models.QueryPlan, link *models.LinkDecision, candidates []*models.RankedCandidate) string {
	emoji := pickEmoji("ingredientSuggestions", c.category(plan))

	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>%s Avec ces ingrédients, vous pouvez préparer plusieurs plats !</p>", emoji)

	if intro := c.generate(ctx, "ingredientSuggestions", plan); intro != "" {
		fmt.Fprintf(&sb, "\n<p>%s</p>", intro)
	}

	shown := 0
	for _, candidate := range candidates {
		if shown >= 3 {
			break
		}
		doc := candidate.Document
		shown++
		if doc.Source == models.SourceExternal && doc.URL != "" {
			fmt.Fprintf(&sb, "\n<p>%d. <a href=\"%s\">%s</a></p>", shown, doc.URL, doc.Title)
		} else {
			fmt.Fprintf(&sb, "\n<p>%d. %s</p>", shown, doc.Title)
		}
	}

	if link.HasLink() {
		fmt.Fprintf(&sb, "\n<p>Sur L'Orient-Le Jour : <a href=\"%s\">%s</a></p>", link.Primary.URL, link.Primary.Title)
	}
	return sb.String()
}

// topRecipe finds the best structured candidate with a known full recipe.
func (c *Composer) topRecipe(candidates []*models.RankedCandidate) *models.Recipe {
	for _, candidate := range candidates {
		if candidate.Document.Source != models.SourceStructured {
			continue
		}
		if recipe, ok := c.recipes[candidate.Document.ID]; ok {
			return recipe
		}
	}
	return nil
}

func ingredientText(ing models.Ingredient) string {
	switch {
	case ing.Quantity > 0 && ing.Unit != "":
		return fmt.Sprintf("%s %s de %s", formatQuantity(ing.Quantity), ing.Unit, ing.Name)
	case ing.Quantity > 0:
		return fmt.Sprintf("%s %s", formatQuantity(ing.Quantity), ing.Name)
	default:
		return ing.Name
	}
}

func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return strings.TrimRight(fmt.Sprintf("%.2f", q), "0")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
