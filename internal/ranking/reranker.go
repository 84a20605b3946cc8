package ranking

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sahtein/sahtein/internal/config"
	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
)

// Reranker applies the multiplier chain to retrieval candidates and keeps the
// top K. Rescoring is deterministic: equal scores preserve retrieval order.
type Reranker struct {
	multipliers []Multiplier
	table       *normalize.IngredientTable
	topK        int
	logger      *zap.Logger
}

// NewReranker builds a reranker with the default multiplier chain.
func NewReranker(cfg *config.Config, table *normalize.IngredientTable, logger *zap.Logger) *Reranker {
	topK := cfg.Retrieval.RerankTopK
	if topK <= 0 {
		topK = 5
	}
	return &Reranker{
		multipliers: DefaultMultipliers(&cfg.Ranking),
		table:       table,
		topK:        topK,
		logger:      logger,
	}
}

// Rerank rescores candidates in place and returns the top K, best first.
// Each candidate's Factors map records every multiplier's contribution.
func (r *Reranker) Rerank(candidates []*models.RankedCandidate, plan *models.QueryPlan) []*models.RankedCandidate {
	if len(candidates) == 0 {
		return nil
	}

	for _, candidate := range candidates {
		ctx := &ScoringContext{Plan: plan, Candidate: candidate, Table: r.table}

		if candidate.Factors == nil {
			candidate.Factors = make(map[string]float64, len(r.multipliers))
		}
		score := candidate.Score
		for _, m := range r.multipliers {
			prev := score
			score = m.Multiply(ctx, score)
			if prev != 0 {
				candidate.Factors[m.Name()] = score / prev
			} else {
				candidate.Factors[m.Name()] = 1.0
			}
		}
		candidate.Score = score
	}

	// Ties keep their incoming order, which the retriever already fixed by
	// document ID.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > r.topK {
		candidates = candidates[:r.topK]
	}

	if r.logger != nil && len(candidates) > 0 {
		r.logger.Debug("reranked candidates",
			zap.Int("kept", len(candidates)),
			zap.String("top_id", candidates[0].Document.ID),
			zap.Float64("top_score", candidates[0].Score))
	}
	return candidates
}
