package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sahtein/sahtein/internal/compose"
	"github.com/sahtein/sahtein/internal/config"
	"github.com/sahtein/sahtein/internal/guard"
	"github.com/sahtein/sahtein/internal/index"
	"github.com/sahtein/sahtein/internal/linkresolve"
	"github.com/sahtein/sahtein/internal/llm"
	"github.com/sahtein/sahtein/internal/loader"
	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
	"github.com/sahtein/sahtein/internal/query"
	"github.com/sahtein/sahtein/internal/ranking"
	"github.com/sahtein/sahtein/internal/retrieval"
	"github.com/sahtein/sahtein/internal/storage"
)

const tabbouleURL = "https://www.lorientlejour.com/article/1111111/taboule.html"

func daysAgo(n int) *time.Time {
	t := time.Now().Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func fixtureArticles() []*models.Article {
	return []*models.Article{
		{
			ID:          "a1",
			Title:       "Taboulé",
			URL:         tabbouleURL,
			Chef:        "Karim Haïdar",
			Tags:        []string{"taboulé", "mezze"},
			PublishedAt: daysAgo(30),
			Description: "Le taboulé libanais tout en fraîcheur, au persil et au boulgour.",
		},
		{
			ID:          "a2",
			Title:       "Houmous onctueux",
			URL:         "https://www.lorientlejour.com/article/2222222/houmous-onctueux.html",
			Tags:        []string{"mezze"},
			PublishedAt: daysAgo(10),
			Description: "Le secret d'un houmous crémeux.",
		},
	}
}

func fixtureRecipes() []*models.Recipe {
	return []*models.Recipe{
		{
			ID:   "r1",
			Name: "Falafel",
			Ingredients: []models.Ingredient{
				{Name: "pois chiches", Quantity: 400, Unit: "g"},
				{Name: "coriandre"},
				{Name: "oignons", Quantity: 2},
			},
			Steps:      []string{"Mixer les pois chiches.", "Former des boulettes.", "Frire."},
			Servings:   4,
			PrepTime:   "30 min",
			Difficulty: "moyen",
		},
		{
			ID:   "r2",
			Name: "Houmous",
			Ingredients: []models.Ingredient{
				{Name: "pois chiches", Quantity: 250, Unit: "g"},
				{Name: "tahini", Quantity: 3, Unit: "c. à soupe"},
				{Name: "citron"},
			},
			Steps:    []string{"Mixer le tout.", "Servir avec un filet d'huile d'olive."},
			Servings: 4,
			PrepTime: "15 min",
		},
	}
}

type captureAuditor struct {
	entries []storage.Entry
}

func (c *captureAuditor) Record(_ context.Context, e storage.Entry) error {
	c.entries = append(c.entries, e)
	return nil
}

func newTestPipeline(t *testing.T, audit Auditor) *Pipeline {
	t.Helper()
	logger := zap.NewNop()

	articles := fixtureArticles()
	recipes := fixtureRecipes()
	docs := make([]*models.Document, 0, len(articles)+len(recipes))
	recipesByDoc := make(map[string]*models.Recipe)
	for _, a := range articles {
		docs = append(docs, loader.ArticleDocument(a))
	}
	for _, r := range recipes {
		docs = append(docs, loader.RecipeDocument(r))
		recipesByDoc[r.ID] = r
	}

	content, err := index.NewContentIndex(docs)
	require.NoError(t, err)
	t.Cleanup(func() { content.Close() })
	links := index.NewLinkIndex(articles)

	graph := normalize.NewCulinaryGraph()
	table := normalize.NewIngredientTable()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	return New(Options{
		Classifier:    query.NewClassifier(graph),
		Planner:       query.NewPlanner(graph),
		Retriever:     retrieval.NewRetriever(content, table, cfg.Retrieval.TopK, logger),
		Reranker:      ranking.NewReranker(cfg, table, logger),
		Resolver:      linkresolve.NewResolver(links, cfg.Link.SimilarityThreshold, cfg.Link.SuggestedCount, logger),
		Composer:      compose.NewComposer(llm.NewMockGenerator(), graph, recipesByDoc, logger),
		Guard:         guard.NewGuard(cfg.Link.AllowedDomain, cfg.Guard.MaxEmojis, cfg.Guard.MaxWords, cfg.Guard.MaxWordsRecipe, logger),
		Audit:         audit,
		Logger:        logger,
		MaxMessageLen: cfg.Retrieval.MaxMessageLen,
	})
}

func TestProcess_knownDishLinksTheArticle(t *testing.T) {
	p := newTestPipeline(t, nil)

	resp := p.Process(context.Background(), &models.ChatRequest{Message: "Recette du taboulé libanais"})

	require.Equal(t, int(models.ScenarioExternalRecipe), resp.ScenarioID)
	require.Equal(t, tabbouleURL, resp.PrimaryURL)
	require.Contains(t, resp.HTML, tabbouleURL)
	require.Contains(t, resp.HTML, "Karim Haïdar")
	require.NotContains(t, resp.HTML, "Ingrédients", "article scenario must not leak recipe content")
}

func TestProcess_ingredientQueryServesRecipeContent(t *testing.T) {
	p := newTestPipeline(t, nil)

	resp := p.Process(context.Background(), &models.ChatRequest{Message: "J'ai des pois chiches et du tahine"})

	got := models.ScenarioID(resp.ScenarioID)
	require.Contains(t,
		[]models.ScenarioID{models.ScenarioStructuredRecipe, models.ScenarioIngredientSuggests}, got,
		"ingredient query must serve structured content or suggestions, got scenario %d", resp.ScenarioID)
	if resp.PrimaryURL != "" {
		require.True(t, strings.HasPrefix(resp.PrimaryURL, "https://www.lorientlejour.com"))
	}
}

func TestProcess_greetingCarriesFallbackLink(t *testing.T) {
	p := newTestPipeline(t, nil)

	resp := p.Process(context.Background(), &models.ChatRequest{Message: "Bonjour", Debug: true})

	require.Equal(t, int(models.ScenarioGreeting), resp.ScenarioID)
	require.NotEmpty(t, resp.PrimaryURL)
	require.NotNil(t, resp.Debug)
	require.Equal(t, models.StrategyFallback, resp.Debug.LinkStrategy)
	require.InDelta(t, 0.5, resp.Debug.LinkConfidence, 1e-9)
}

func TestProcess_nonFrenchRedirectsWithoutLink(t *testing.T) {
	p := newTestPipeline(t, nil)

	resp := p.Process(context.Background(), &models.ChatRequest{Message: "Give me a recipe please"})

	require.Equal(t, int(models.ScenarioNonFrench), resp.ScenarioID)
	require.Empty(t, resp.PrimaryURL)
	require.Contains(t, resp.HTML, "uniquement en français")
	require.NotContains(t, resp.HTML, "<a href")
}

func TestProcess_emptyAndOversizedInput(t *testing.T) {
	p := newTestPipeline(t, nil)

	for _, message := range []string{"", "   ", strings.Repeat("a", 600)} {
		resp := p.Process(context.Background(), &models.ChatRequest{Message: message})
		require.Equal(t, int(models.ScenarioOffTopicRedirect), resp.ScenarioID)
		require.NotEmpty(t, resp.HTML)
	}
}

func TestProcess_idempotent(t *testing.T) {
	p := newTestPipeline(t, nil)
	req := &models.ChatRequest{Message: "Recette du taboulé libanais"}

	first := p.Process(context.Background(), req)
	for i := 0; i < 3; i++ {
		again := p.Process(context.Background(), req)
		require.Equal(t, first.ScenarioID, again.ScenarioID)
		require.Equal(t, first.PrimaryURL, again.PrimaryURL)
		require.Equal(t, first.HTML, again.HTML)
	}
}

func TestProcess_debugTraceOnlyOnRequest(t *testing.T) {
	p := newTestPipeline(t, nil)

	plain := p.Process(context.Background(), &models.ChatRequest{Message: "Recette du taboulé libanais"})
	require.Nil(t, plain.Debug)

	traced := p.Process(context.Background(), &models.ChatRequest{Message: "Recette du taboulé libanais", Debug: true})
	require.NotNil(t, traced.Debug)
	require.NotEmpty(t, traced.Debug.RequestID)
	require.Equal(t, "oljRecipeAvailable", traced.Debug.ScenarioName)
	require.Equal(t, models.StrategyExact, traced.Debug.LinkStrategy)
	require.Equal(t, models.IntentFood, traced.Debug.Classification.Intent)
}

func TestProcess_recordsAudit(t *testing.T) {
	audit := &captureAuditor{}
	p := newTestPipeline(t, audit)

	p.Process(context.Background(), &models.ChatRequest{Message: "Recette du taboulé libanais"})
	p.Process(context.Background(), &models.ChatRequest{Message: "Bonjour"})

	require.Len(t, audit.entries, 2)
	require.Equal(t, "food_request", audit.entries[0].Intent)
	require.Equal(t, tabbouleURL, audit.entries[0].LinkURL)
	require.Equal(t, int(models.ScenarioGreeting), audit.entries[1].ScenarioID)
}

func TestProcess_recoversFromStagePanic(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.retriever = nil // food queries now panic inside retrieval

	resp := p.Process(context.Background(), &models.ChatRequest{Message: "Recette du taboulé libanais"})

	require.Equal(t, int(models.ScenarioNoMatchFallback), resp.ScenarioID)
	require.NotEmpty(t, resp.HTML)
}

// Every URL in every response must exist in the link index verbatim.
func TestProcess_neverFabricatesURLs(t *testing.T) {
	p := newTestPipeline(t, nil)
	known := map[string]bool{}
	for _, a := range fixtureArticles() {
		known[a.URL] = true
	}

	queries := []string{
		"Recette du taboulé libanais",
		"J'ai des pois chiches et du tahine",
		"Bonjour",
		"Une recette de kafta grillée",
		"Qu'est-ce que Sahtein ?",
		"Parle-moi de la bourse de Tokyo",
	}
	for _, q := range queries {
		resp := p.Process(context.Background(), &models.ChatRequest{Message: q})
		for _, part := range strings.Split(resp.HTML, `href="`)[1:] {
			url := part[:strings.Index(part, `"`)]
			require.True(t, known[url], "query %q produced unknown URL %q", q, url)
		}
		if resp.PrimaryURL != "" {
			require.True(t, known[resp.PrimaryURL], "query %q primary URL %q not in index", q, resp.PrimaryURL)
		}
	}
}
