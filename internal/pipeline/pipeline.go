// Package pipeline orchestrates the full query-to-response flow: classify,
// plan, retrieve, rerank, resolve the link, align the scenario, compose, and
// guard. Process never fails: every input, including a panicking stage, ends
// in a valid French response.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sahtein/sahtein/internal/compose"
	"github.com/sahtein/sahtein/internal/guard"
	"github.com/sahtein/sahtein/internal/linkresolve"
	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/query"
	"github.com/sahtein/sahtein/internal/ranking"
	"github.com/sahtein/sahtein/internal/retrieval"
	"github.com/sahtein/sahtein/internal/scenario"
	"github.com/sahtein/sahtein/internal/storage"
)

// safeFallbackHTML is served when even the no-match composition fails the
// guard. It is static and pre-vetted, so it bypasses validation.
const safeFallbackHTML = `<p>Désolé, je n'ai pas pu traiter votre demande. 😊</p>
<p>Essayez de me demander une recette libanaise, par exemple un taboulé ou un houmous !</p>`

// Auditor records served responses. The audit store satisfies it; a nil
// auditor disables the trail.
type Auditor interface {
	Record(ctx context.Context, e storage.Entry) error
}

// Pipeline wires the stages together.
type Pipeline struct {
	classifier    *query.Classifier
	planner       *query.Planner
	retriever     *retrieval.Retriever
	reranker      *ranking.Reranker
	resolver      *linkresolve.Resolver
	aligner       *scenario.Aligner
	composer      *compose.Composer
	guard         *guard.Guard
	audit         Auditor
	logger        *zap.Logger
	maxMessageLen int
}

// Options groups the pipeline's constructor dependencies.
type Options struct {
	Classifier    *query.Classifier
	Planner       *query.Planner
	Retriever     *retrieval.Retriever
	Reranker      *ranking.Reranker
	Resolver      *linkresolve.Resolver
	Composer      *compose.Composer
	Guard         *guard.Guard
	Audit         Auditor // optional
	Logger        *zap.Logger
	MaxMessageLen int
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	if opts.MaxMessageLen <= 0 {
		opts.MaxMessageLen = 500
	}
	return &Pipeline{
		classifier:    opts.Classifier,
		planner:       opts.Planner,
		retriever:     opts.Retriever,
		reranker:      opts.Reranker,
		resolver:      opts.Resolver,
		aligner:       scenario.NewAligner(),
		composer:      opts.Composer,
		guard:         opts.Guard,
		audit:         opts.Audit,
		logger:        opts.Logger,
		maxMessageLen: opts.MaxMessageLen,
	}
}

// Process runs one query through the whole pipeline. It always returns a
// servable response; stage failures degrade toward the no-match fallback.
func (p *Pipeline) Process(ctx context.Context, req *models.ChatRequest) (resp *models.ChatResponse) {
	start := time.Now()
	requestID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic recovered",
				zap.String("request_id", requestID), zap.Any("panic", r))
			resp = p.safeResponse()
		}
	}()

	message := strings.TrimSpace(req.Message)
	rejected := message == "" || len([]rune(message)) > p.maxMessageLen
	if rejected {
		// Rejected input still flows through the pipeline, as an off-topic
		// query, so the user gets the normal redirect with a suggestion.
		message = ""
	}

	var classification *models.Classification
	if rejected {
		classification = &models.Classification{
			Intent: models.IntentOffTopic, Language: models.LangFrench, Confidence: 1.0,
		}
	} else {
		classification = p.classifier.Classify(message)
	}
	plan := p.planner.Plan(classification, message)

	var candidates []*models.RankedCandidate
	if plan.NeedsRetrieval() {
		retrieved, err := p.retriever.Retrieve(ctx, plan)
		if err != nil {
			p.logger.Warn("retrieval failed, continuing without candidates",
				zap.String("request_id", requestID), zap.Error(err))
		} else {
			candidates = p.reranker.Rerank(retrieved, plan)
		}
	}

	link := p.resolver.Resolve(plan)
	scn := p.aligner.Align(classification, plan, link, candidates)

	draft := p.composer.Compose(ctx, scn, plan, link, candidates)
	verdict, err := p.guard.Validate(draft)
	if err != nil {
		p.logger.Warn("draft rejected by guard, degrading to no-match",
			zap.String("request_id", requestID),
			zap.String("scenario", scn.Name), zap.Error(err))
		scn = scenario.Get(models.ScenarioNoMatchFallback)
		draft = p.composer.Compose(ctx, scn, plan, link, candidates)
		verdict, err = p.guard.Validate(draft)
		if err != nil {
			p.logger.Error("no-match composition rejected, serving static fallback",
				zap.String("request_id", requestID), zap.Error(err))
			return p.safeResponse()
		}
	}

	resp = &models.ChatResponse{
		HTML:       verdict.HTML,
		ScenarioID: int(scn.ID),
	}
	if scn.ID != models.ScenarioNonFrench && link.HasLink() {
		resp.PrimaryURL = link.URL()
	}
	if req.Debug {
		resp.Debug = p.buildTrace(requestID, classification, plan, candidates, link, scn, verdict)
	}

	p.logger.Info("query processed",
		zap.String("request_id", requestID),
		zap.String("intent", string(classification.Intent)),
		zap.Int("scenario", int(scn.ID)),
		zap.String("link_strategy", string(link.Strategy)),
		zap.Duration("elapsed", time.Since(start)))

	p.recordAudit(ctx, requestID, message, classification, link, scn, verdict, time.Since(start))
	return resp
}

// safeResponse is the last-resort reply, built without composer or guard.
func (p *Pipeline) safeResponse() *models.ChatResponse {
	return &models.ChatResponse{
		HTML:       safeFallbackHTML,
		ScenarioID: int(models.ScenarioNoMatchFallback),
	}
}

func (p *Pipeline) buildTrace(
	requestID string,
	classification *models.Classification,
	plan *models.QueryPlan,
	candidates []*models.RankedCandidate,
	link *models.LinkDecision,
	scn models.Scenario,
	verdict *guard.Verdict,
) *models.DebugTrace {
	trace := &models.DebugTrace{
		RequestID:      requestID,
		Classification: classification,
		Plan:           plan,
		CandidateCount: len(candidates),
		LinkStrategy:   link.Strategy,
		LinkConfidence: link.Confidence,
		ScenarioName:   scn.Name,
		GuardRepaired:  verdict.Repaired,
		GuardErrors:    verdict.Issues,
	}
	for i, c := range candidates {
		if i >= 3 {
			break
		}
		trace.TopSources = append(trace.TopSources, c.Document.Source)
		trace.TopScores = append(trace.TopScores, c.Score)
	}
	return trace
}

func (p *Pipeline) recordAudit(
	ctx context.Context,
	requestID, message string,
	classification *models.Classification,
	link *models.LinkDecision,
	scn models.Scenario,
	verdict *guard.Verdict,
	elapsed time.Duration,
) {
	if p.audit == nil {
		return
	}
	entry := storage.Entry{
		RequestID:      requestID,
		Query:          message,
		Intent:         string(classification.Intent),
		Language:       string(classification.Language),
		ScenarioID:     int(scn.ID),
		ScenarioName:   scn.Name,
		LinkStrategy:   string(link.Strategy),
		LinkURL:        link.URL(),
		LinkConfidence: link.Confidence,
		GuardRepaired:  verdict.Repaired,
		DurationMS:     elapsed.Milliseconds(),
	}
	if err := p.audit.Record(ctx, entry); err != nil {
		p.logger.Warn("audit write failed",
			zap.String("request_id", requestID), zap.Error(err))
	}
}
