package ranking

import (
	"testing"

	"go.uber.org/zap"

	"github.com/sahtein/sahtein/internal/config"
	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
)

func newTestReranker() *Reranker {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return NewReranker(cfg, normalize.NewIngredientTable(), zap.NewNop())
}

func candidate(id string, source models.SourceKind, title, content string, score float64) *models.RankedCandidate {
	return &models.RankedCandidate{
		Document: &models.Document{
			ID:      id,
			Source:  source,
			Title:   title,
			Content: content,
		},
		Score:    score,
		RawScore: score,
	}
}

func TestRerank_sourcePriorityByName(t *testing.T) {
	r := newTestReranker()
	plan := &models.QueryPlan{
		NeedType:    models.NeedRecipeByName,
		PrimaryDish: "tabbouleh",
		Language:    models.LangFrench,
	}

	// Equal base scores and both mention the dish: the external article must
	// come out ahead on source priority alone.
	candidates := []*models.RankedCandidate{
		candidate("rec-1", models.SourceStructured, "Taboulé", "taboulé au persil", 1.0),
		candidate("ext-1", models.SourceExternal, "Le vrai taboulé", "taboulé libanais au persil", 1.0),
	}

	got := r.Rerank(candidates, plan)
	if got[0].Document.ID != "ext-1" {
		t.Errorf("top candidate = %s, want ext-1", got[0].Document.ID)
	}
	if got[0].Factors["source_priority"] <= 1.0 {
		t.Errorf("external source_priority factor = %f, want > 1.0", got[0].Factors["source_priority"])
	}
	if got[1].Factors["source_priority"] >= 1.0 {
		t.Errorf("structured source_priority factor = %f, want < 1.0", got[1].Factors["source_priority"])
	}
}

func TestRerank_sourcePriorityByIngredients(t *testing.T) {
	r := newTestReranker()
	plan := &models.QueryPlan{
		NeedType:    models.NeedRecipeByIngredients,
		Ingredients: []string{"pois chiches"},
		Language:    models.LangFrench,
	}

	ext := candidate("ext-1", models.SourceExternal, "Houmous", "pois chiches et tahini", 1.0)
	rec := candidate("rec-1", models.SourceStructured, "Houmous maison", "pois chiches et tahini", 1.0)
	rec.Document.Ingredients = []string{"pois chiches", "tahini"}

	got := r.Rerank([]*models.RankedCandidate{ext, rec}, plan)
	if got[0].Document.ID != "rec-1" {
		t.Errorf("top candidate = %s, want rec-1 (structured wins ingredient queries)", got[0].Document.ID)
	}
}

func TestRerank_dishMatchBoost(t *testing.T) {
	r := newTestReranker()
	plan := &models.QueryPlan{
		NeedType:    models.NeedRecipeByName,
		PrimaryDish: "kibbeh",
		Language:    models.LangFrench,
	}

	with := candidate("ext-1", models.SourceExternal, "Kebbé de potiron", "kebbé traditionnel", 1.0)
	without := candidate("ext-2", models.SourceExternal, "Salade d'hiver", "salade fraîche", 1.0)

	got := r.Rerank([]*models.RankedCandidate{without, with}, plan)
	if got[0].Document.ID != "ext-1" {
		t.Errorf("top candidate = %s, want ext-1 (dish mention boosted)", got[0].Document.ID)
	}
	if f := got[0].Factors["dish_match"]; f < 1.29 || f > 1.31 {
		t.Errorf("dish_match factor = %f, want ~1.3", f)
	}
}

func TestRerank_ingredientCoverage(t *testing.T) {
	r := newTestReranker()
	plan := &models.QueryPlan{
		NeedType:    models.NeedRecipeByIngredients,
		Ingredients: []string{"pois chiches", "tahini"},
		Language:    models.LangFrench,
	}

	full := candidate("rec-1", models.SourceStructured, "Houmous", "", 1.0)
	full.Document.Ingredients = []string{"chickpeas", "tahine", "citron"}
	partial := candidate("rec-2", models.SourceStructured, "Falafel", "", 1.0)
	partial.Document.Ingredients = []string{"pois chiches", "persil"}

	got := r.Rerank([]*models.RankedCandidate{partial, full}, plan)
	if got[0].Document.ID != "rec-1" {
		t.Errorf("top candidate = %s, want rec-1 (full ingredient coverage)", got[0].Document.ID)
	}
	if got[0].Factors["ingredient_match"] <= got[1].Factors["ingredient_match"] {
		t.Errorf("coverage factors not ordered: %f vs %f",
			got[0].Factors["ingredient_match"], got[1].Factors["ingredient_match"])
	}
}

func TestRerank_stableOnTies(t *testing.T) {
	r := newTestReranker()
	plan := &models.QueryPlan{NeedType: models.NeedSuggestions, Language: models.LangFrench}

	// Equal scores keep the retrieval order untouched.
	got := r.Rerank([]*models.RankedCandidate{
		candidate("b", models.SourceExternal, "Plat B", "", 1.0),
		candidate("a", models.SourceExternal, "Plat A", "", 1.0),
		candidate("c", models.SourceExternal, "Plat C", "", 1.0),
	}, plan)
	for i, want := range []string{"b", "a", "c"} {
		if got[i].Document.ID != want {
			t.Errorf("position %d = %s, want %s (ties must preserve incoming order)",
				i, got[i].Document.ID, want)
		}
	}
}

func TestRerank_topKTrim(t *testing.T) {
	cfg := &config.Config{Retrieval: config.RetrievalConfig{RerankTopK: 2}}
	config.ApplyDefaults(cfg)
	r := NewReranker(cfg, normalize.NewIngredientTable(), zap.NewNop())
	plan := &models.QueryPlan{NeedType: models.NeedSuggestions, Language: models.LangFrench}

	got := r.Rerank([]*models.RankedCandidate{
		candidate("a", models.SourceExternal, "A", "", 3.0),
		candidate("b", models.SourceExternal, "B", "", 2.0),
		candidate("c", models.SourceExternal, "C", "", 1.0),
	}, plan)
	if len(got) != 2 {
		t.Fatalf("kept %d candidates, want 2", len(got))
	}
	if got[0].Document.ID != "a" || got[1].Document.ID != "b" {
		t.Errorf("order wrong: %s, %s", got[0].Document.ID, got[1].Document.ID)
	}
}

func TestRerank_empty(t *testing.T) {
	r := newTestReranker()
	if got := r.Rerank(nil, &models.QueryPlan{NeedType: models.NeedSuggestions}); got != nil {
		t.Errorf("empty input should return nil, got %v", got)
	}
}
