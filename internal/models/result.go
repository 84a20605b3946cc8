package models

// RankedCandidate is a document plus its composite score and the factor
// breakdown that produced it. Created by the retriever, rescored by the reranker.
type RankedCandidate struct {
	Document *Document          `json:"document"`
	Score    float64            `json:"score"`
	RawScore float64            `json:"raw_score"`
	Factors  map[string]float64 `json:"factors,omitempty"`
}

// LinkStrategy names the resolution tier that produced a link decision.
type LinkStrategy string

const (
	StrategyExact    LinkStrategy = "exact"
	StrategySimilar  LinkStrategy = "similarity"
	StrategyFallback LinkStrategy = "fallback_recent"
	StrategyNone     LinkStrategy = "none"
)

// LinkDecision is the outcome of link resolution. The URL, when present,
// always exists verbatim in the link index; it is never constructed.
type LinkDecision struct {
	Primary    *Article     `json:"primary,omitempty"`
	Suggested  []*Article   `json:"suggested,omitempty"`
	Strategy   LinkStrategy `json:"strategy"`
	Confidence float64      `json:"confidence"`
}

// HasLink reports whether a primary article was resolved.
func (d *LinkDecision) HasLink() bool {
	return d != nil && d.Primary != nil && d.Primary.URL != ""
}

// URL returns the primary article URL, or "" when no link was resolved.
func (d *LinkDecision) URL() string {
	if !d.HasLink() {
		return ""
	}
	return d.Primary.URL
}

// Draft is a composed response before validation.
type Draft struct {
	Scenario Scenario      `json:"scenario"`
	HTML     string        `json:"html"`
	Link     *LinkDecision `json:"link,omitempty"`
}

// ChatRequest is the pipeline entry contract.
type ChatRequest struct {
	Message string `json:"message"`
	Debug   bool   `json:"debug,omitempty"`
}

// ChatResponse is the validated pipeline output.
type ChatResponse struct {
	HTML       string      `json:"html"`
	ScenarioID int         `json:"scenario_id"`
	PrimaryURL string      `json:"primary_url,omitempty"`
	Debug      *DebugTrace `json:"debug,omitempty"`
}

// DebugTrace records per-stage outcomes, returned only when debug was requested.
type DebugTrace struct {
	RequestID      string          `json:"request_id"`
	Classification *Classification `json:"classification,omitempty"`
	Plan           *QueryPlan      `json:"plan,omitempty"`
	CandidateCount int             `json:"candidate_count"`
	TopSources     []SourceKind    `json:"top_sources,omitempty"`
	TopScores      []float64       `json:"top_scores,omitempty"`
	LinkStrategy   LinkStrategy    `json:"link_strategy"`
	LinkConfidence float64         `json:"link_confidence"`
	ScenarioName   string          `json:"scenario_name"`
	GuardRepaired  bool            `json:"guard_repaired"`
	GuardErrors    []string        `json:"guard_errors,omitempty"`
}
