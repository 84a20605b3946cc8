// Package ranking rescores retrieval candidates with domain signals: regional
// relevance, ingredient coverage, dish mention, constraint satisfaction, and
// per-source priority. All signals are multiplicative on the base score.
package ranking

import (
	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
)

// ScoringContext carries everything a multiplier may inspect for one candidate.
type ScoringContext struct {
	Plan      *models.QueryPlan
	Candidate *models.RankedCandidate
	Table     *normalize.IngredientTable
}

// Multiplier adjusts a base score by one signal. Implementations must be pure:
// the same context and score always produce the same result.
type Multiplier interface {
	Name() string
	Multiply(ctx *ScoringContext, baseScore float64) float64
}
