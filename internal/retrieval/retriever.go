// Package retrieval runs plan-directed lookups against the content index.
package retrieval

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sahtein/sahtein/internal/index"
	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
)

// Retriever fetches candidates from the content index according to the plan's
// need type. It applies only coarse per-source weighting; fine-grained scoring
// belongs to the reranker.
type Retriever struct {
	content *index.ContentIndex
	table   *normalize.IngredientTable
	topK    int
	logger  *zap.Logger
}

// NewRetriever creates a retriever over the given content index.
func NewRetriever(content *index.ContentIndex, table *normalize.IngredientTable, topK int, logger *zap.Logger) *Retriever {
	if topK <= 0 {
		topK = 20
	}
	return &Retriever{content: content, table: table, topK: topK, logger: logger}
}

// Retrieve returns up to topK candidates for the plan, best first. Plans whose
// need type requires no retrieval return an empty slice.
func (r *Retriever) Retrieve(ctx context.Context, plan *models.QueryPlan) ([]*models.RankedCandidate, error) {
	if !plan.NeedsRetrieval() {
		return nil, nil
	}

	var (
		candidates []*models.RankedCandidate
		err        error
	)
	switch plan.NeedType {
	case models.NeedRecipeByIngredients:
		candidates, err = r.retrieveByIngredients(ctx, plan)
	case models.NeedRecipeByName:
		candidates, err = r.retrieveByName(ctx, plan)
	default:
		candidates, err = r.retrieveGeneral(ctx, plan)
	}
	if err != nil {
		return nil, err
	}

	// Typo tolerance: only when the exact query found nothing.
	if len(candidates) == 0 {
		hits, fuzzErr := r.content.SearchFuzzy(ctx, plan.RetrievalQuery, r.topK, 1)
		if fuzzErr != nil {
			return nil, fuzzErr
		}
		for _, h := range hits {
			candidates = append(candidates, newCandidate(h, 1.0, "fuzzy"))
		}
		if len(candidates) > 0 {
			r.logger.Debug("fuzzy fallback used",
				zap.String("query", plan.RetrievalQuery),
				zap.Int("hits", len(candidates)))
		}
	}

	sortCandidates(candidates)
	if len(candidates) > r.topK {
		candidates = candidates[:r.topK]
	}
	return candidates, nil
}

// retrieveByIngredients expands the ingredient slots through the equivalence
// table so French and English spellings both hit, and tilts scores toward
// structured recipes.
func (r *Retriever) retrieveByIngredients(ctx context.Context, plan *models.QueryPlan) ([]*models.RankedCandidate, error) {
	query := plan.RetrievalQuery
	if len(plan.Ingredients) > 0 {
		query = strings.Join(r.table.Expand(plan.Ingredients), " ")
	}

	hits, err := r.content.Search(ctx, query, r.topK*2)
	if err != nil {
		return nil, err
	}

	candidates := make([]*models.RankedCandidate, 0, len(hits))
	for _, h := range hits {
		weight := 0.8
		if h.Doc.Source == models.SourceStructured {
			weight = 1.2
		}
		candidates = append(candidates, newCandidate(h, weight, "source_weight"))
	}
	return candidates, nil
}

// retrieveByName searches both corpora and boosts documents that mention the
// primary dish by its canonical name.
func (r *Retriever) retrieveByName(ctx context.Context, plan *models.QueryPlan) ([]*models.RankedCandidate, error) {
	hits, err := r.content.Search(ctx, plan.RetrievalQuery, r.topK*2)
	if err != nil {
		return nil, err
	}

	primary := normalize.RecipeName(plan.PrimaryDish)
	candidates := make([]*models.RankedCandidate, 0, len(hits))
	for _, h := range hits {
		weight := 1.0
		if primary != "" {
			haystack := normalize.RecipeName(h.Doc.Title) + " " + normalize.RecipeName(h.Doc.Content)
			if strings.Contains(haystack, primary) {
				weight = 1.3
			}
		}
		candidates = append(candidates, newCandidate(h, weight, "dish_mention"))
	}
	return candidates, nil
}

func (r *Retriever) retrieveGeneral(ctx context.Context, plan *models.QueryPlan) ([]*models.RankedCandidate, error) {
	hits, err := r.content.Search(ctx, plan.RetrievalQuery, r.topK)
	if err != nil {
		return nil, err
	}
	candidates := make([]*models.RankedCandidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, newCandidate(h, 1.0, ""))
	}
	return candidates, nil
}

func newCandidate(h *index.Hit, weight float64, factor string) *models.RankedCandidate {
	c := &models.RankedCandidate{
		Document: h.Doc,
		Score:    h.Score * weight,
		RawScore: h.Score,
	}
	if factor != "" && weight != 1.0 {
		c.Factors = map[string]float64{factor: weight}
	}
	return c
}

// sortCandidates orders by score descending, breaking ties by document ID so
// equal-scored candidates come back in the same order on every run.
func sortCandidates(candidates []*models.RankedCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Document.ID < candidates[j].Document.ID
	})
}
