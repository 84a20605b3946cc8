// Package linkresolve decides which publication article, if any, backs a
// response. Resolution is tiered: exact title match, then fuzzy title
// similarity, then most-recent fallback. A URL is only ever taken from the
// link index, never assembled.
package linkresolve

import (
	"go.uber.org/zap"

	"github.com/sahtein/sahtein/internal/index"
	"github.com/sahtein/sahtein/internal/models"
)

// Resolver resolves a plan's link query against the link index.
type Resolver struct {
	links          *index.LinkIndex
	threshold      float64
	suggestedCount int
	logger         *zap.Logger
}

// NewResolver creates a link resolver. threshold bounds the similarity tier;
// suggestedCount caps the companion suggestions.
func NewResolver(links *index.LinkIndex, threshold float64, suggestedCount int, logger *zap.Logger) *Resolver {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.75
	}
	if suggestedCount <= 0 {
		suggestedCount = 3
	}
	return &Resolver{links: links, threshold: threshold, suggestedCount: suggestedCount, logger: logger}
}

// Resolve returns the link decision for a plan. It never fails and never
// returns a fabricated URL: when no tier matches and the index is empty, the
// decision simply carries no link.
func (r *Resolver) Resolve(plan *models.QueryPlan) *models.LinkDecision {
	if plan.LinkQuery == "" {
		// Greetings and redirects still carry a companion link, taken from
		// the most recent article.
		return r.fallback()
	}

	if article := r.links.FindExact(plan.LinkQuery); article != nil {
		return &models.LinkDecision{
			Primary:    article,
			Suggested:  r.suggestions(article),
			Strategy:   models.StrategyExact,
			Confidence: 1.0,
		}
	}

	if article, similarity := r.links.FindSimilar(plan.LinkQuery, r.threshold); article != nil {
		// Similarity confidence stays strictly below the exact tier.
		confidence := similarity
		if confidence >= 1.0 {
			confidence = 0.99
		}
		r.logger.Debug("link resolved by similarity",
			zap.String("query", plan.LinkQuery),
			zap.String("article_id", article.ID),
			zap.Float64("similarity", similarity))
		return &models.LinkDecision{
			Primary:    article,
			Suggested:  r.suggestions(article),
			Strategy:   models.StrategySimilar,
			Confidence: confidence,
		}
	}

	return r.fallback()
}

// fallback returns the most recent article at the fixed fallback confidence,
// or no link at all when the index is empty.
func (r *Resolver) fallback() *models.LinkDecision {
	if recent := r.links.FindRecent(1); len(recent) > 0 {
		return &models.LinkDecision{
			Primary:    recent[0],
			Suggested:  r.suggestions(recent[0]),
			Strategy:   models.StrategyFallback,
			Confidence: 0.5,
		}
	}
	return &models.LinkDecision{Strategy: models.StrategyNone}
}

// suggestions returns companion articles near the primary: same tag first,
// then same chef, then recency, skipping the primary itself.
func (r *Resolver) suggestions(primary *models.Article) []*models.Article {
	seen := map[string]struct{}{primary.ID: {}}
	out := make([]*models.Article, 0, r.suggestedCount)

	appendFrom := func(pool []*models.Article) {
		for _, a := range pool {
			if len(out) >= r.suggestedCount {
				return
			}
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}
			out = append(out, a)
		}
	}

	for _, tag := range primary.Tags {
		appendFrom(r.links.FindByTag(tag))
	}
	if primary.Chef != "" {
		appendFrom(r.links.FindByChef(primary.Chef))
	}
	appendFrom(r.links.FindRecent(r.suggestedCount + 1))

	return out
}
