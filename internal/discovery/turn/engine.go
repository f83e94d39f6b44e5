// Package turn runs one conversational turn end to end: extract, decide,
// fetch, normalize, score, rank and assemble.
package turn

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/metrics"
	"product-discovery/internal/common/observability"
	"product-discovery/internal/discovery/clarify"
	"product-discovery/internal/discovery/compare"
	"product-discovery/internal/discovery/normalize"
	"product-discovery/internal/discovery/ranking"
	"product-discovery/internal/discovery/respond"
	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/discovery/scoring"
	"product-discovery/internal/models"
)

type Options struct {
	ExtractorTimeout time.Duration
	CatalogTimeout   time.Duration
	// ScoringWorkers bounds the normalize/score fan-out. Zero means one
	// goroutine per candidate.
	ScoringWorkers int
}

type Engine struct {
	rules      rules.Rules
	extractor  Extractor
	catalog    Catalog
	opts       Options
	policy     *clarify.Policy
	normalizer *normalize.Normalizer
	scorer     *scoring.Engine
	ranker     *ranking.Ranker
	logger     logger.Logger
	obs        *observability.Observability
	newID      func() string
}

// NewEngine wires the core. A nil extractor makes every turn take the
// raw-utterance fallback.
func NewEngine(r rules.Rules, extractor Extractor, catalog Catalog, opts Options, log logger.Logger, obs *observability.Observability) *Engine {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Engine{
		rules:      r,
		extractor:  extractor,
		catalog:    catalog,
		opts:       opts,
		policy:     clarify.NewPolicy(r),
		normalizer: normalize.NewNormalizer(r),
		scorer:     scoring.NewEngine(r),
		ranker:     ranking.NewRanker(r),
		logger:     log.With(map[string]interface{}{"component": "turn-engine"}),
		obs:        obs,
		newID:      uuid.NewString,
	}
}

// ProcessTurn never panics and always returns a well-formed Response. The
// caller's state is never modified.
func (e *Engine) ProcessTurn(ctx context.Context, utterance string, history []models.TurnRecord, state models.IntentState) (resp models.Response) {
	start := time.Now()
	turnID := e.newID()
	log := e.logger.With(map[string]interface{}{"turnId": turnID})

	ctx, span := e.obs.StartSpan(ctx, "discovery.process_turn",
		attribute.String("turn.id", turnID),
		attribute.Int("turn.history_length", len(history)),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Error("turn panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			span.SetStatus(codes.Error, "panic")
			resp = respond.Fail(turnID, state, respond.MsgInternal, respond.ErrInternal)
		}

		elapsed := time.Since(start)
		mode := string(resp.Mode)
		metrics.DiscoveryTurns.WithLabelValues(mode).Inc()
		metrics.DiscoveryTurnDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
		e.obs.RecordTurn(ctx, mode, elapsed)
		span.SetAttributes(attribute.String("turn.mode", mode))

		log.Info("turn processed", map[string]interface{}{
			"mode":       mode,
			"durationMs": elapsed.Milliseconds(),
			"errors":     resp.Errors,
		})
	}()

	proposal := e.extract(ctx, log, utterance, history, state)

	d := e.policy.Decide(clarify.Input{
		Utterance: utterance,
		History:   history,
		State:     state,
		Proposal:  proposal,
	})
	span.SetAttributes(
		attribute.String("turn.action", string(d.Action)),
		attribute.Float64("turn.confidence", d.Confidence),
	)
	log.Debug("policy decided", map[string]interface{}{
		"action":     string(d.Action),
		"stage":      string(d.Stage),
		"confidence": d.Confidence,
		"forced":     d.Forced,
		"fallback":   d.Fallback,
	})

	if d.Forced {
		metrics.DiscoveryClarifyDowngrades.Inc()
	}

	switch d.Action {
	case clarify.ActionAsk:
		return respond.Clarify(turnID, d.State, *d.Question)
	case clarify.ActionInsufficient:
		log.WithError(apperrors.NewInsufficientIntentError(d.Confidence)).
			Warn("clarifying cap reached below minimum confidence", map[string]interface{}{
				"errorCode":  string(apperrors.ErrCodeInsufficientIntent),
				"confidence": d.Confidence,
			})
		return respond.Fail(turnID, d.State, respond.MsgInsufficientIntent, respond.ErrInsufficientIntent)
	case clarify.ActionCompare:
		return e.compare(ctx, log, turnID, d)
	default:
		return e.recommend(ctx, log, turnID, d)
	}
}

func (e *Engine) extract(ctx context.Context, log logger.Logger, utterance string, history []models.TurnRecord, state models.IntentState) *models.IntentProposal {
	if e.extractor == nil {
		metrics.DiscoveryExtractorFallbacks.WithLabelValues("disabled").Inc()
		return nil
	}

	ctx, span := e.obs.StartSpan(ctx, "discovery.extract_intent")
	defer span.End()

	proposal, err := callWithTimeout(ctx, e.opts.ExtractorTimeout, func(ctx context.Context) (*models.IntentProposal, error) {
		return e.extractor.Extract(ctx, utterance, history, state.Clone())
	})
	if err == nil && proposal == nil {
		err = apperrors.NewExtractorMalformedOutputError("empty proposal")
	}
	if err == nil && (math.IsNaN(proposal.Confidence) || math.IsInf(proposal.Confidence, 0)) {
		err = apperrors.NewExtractorMalformedOutputError("non-finite confidence")
	}
	if err != nil {
		reason := failureReason(err)
		var stdErr *apperrors.StandardError
		if !errors.As(err, &stdErr) {
			stdErr = apperrors.NewExtractorFailedError(err)
			if reason == "timeout" {
				stdErr = apperrors.NewExtractorTimeoutError()
			}
		}
		metrics.DiscoveryExtractorFallbacks.WithLabelValues(reason).Inc()
		span.SetStatus(codes.Error, reason)
		log.Warn("intent extraction failed, falling back to raw query", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"reason":    reason,
			"error":     err.Error(),
		})
		return nil
	}
	return proposal
}

func (e *Engine) fetch(ctx context.Context, log logger.Logger, q models.QueryDescriptor) ([]models.Candidate, error) {
	ctx, span := e.obs.StartSpan(ctx, "discovery.fetch_candidates",
		attribute.String("query.text", q.Text),
		attribute.Int("query.ids", len(q.IDs)),
	)
	defer span.End()

	candidates, err := callWithTimeout(ctx, e.opts.CatalogTimeout, func(ctx context.Context) ([]models.Candidate, error) {
		return e.catalog.FetchCandidates(ctx, q, e.rules.CandidateLimit)
	})
	if err != nil {
		reason := failureReason(err)
		stdErr := apperrors.NewCatalogUnavailableError(err)
		if reason == "timeout" {
			stdErr = apperrors.NewCatalogTimeoutError("catalog")
		}
		metrics.DiscoveryCatalogFailures.WithLabelValues(reason).Inc()
		span.SetStatus(codes.Error, reason)
		log.Error("catalog fetch failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"reason":    reason,
			"error":     err.Error(),
		})
		return nil, err
	}
	metrics.DiscoveryCandidates.Observe(float64(len(candidates)))
	return candidates, nil
}

func (e *Engine) recommend(ctx context.Context, log logger.Logger, turnID string, d clarify.Decision) models.Response {
	candidates, err := e.fetch(ctx, log, queryFor(d.State, d.Query))
	if err != nil {
		return respond.Fail(turnID, d.State, respond.MsgCatalogUnavailable, respond.ErrCatalogUnavailable)
	}

	result, err := e.RankCandidates(ctx, d.State, candidates)
	if errors.Is(err, ranking.ErrNoCandidates) {
		log.Info("no candidates after filtering", map[string]interface{}{"query": d.Query})
		return respond.Fail(turnID, d.State, respond.MsgNoResults, respond.ErrNoResults)
	}
	if err != nil {
		log.Warn("ranking abandoned", map[string]interface{}{"error": err.Error()})
		return respond.Fail(turnID, d.State, respond.MsgInternal, respond.ErrInternal)
	}

	msg := d.Acknowledgment
	if msg == "" {
		msg = respond.MsgRecommend
	}
	return respond.Recommend(turnID, d.State, msg, result.Recommendations, result.Confidence)
}

// RankCandidates dedupes and budget-filters candidates, then normalizes,
// scores and ranks them for intent. It returns ranking.ErrNoCandidates when
// nothing survives the filter.
func (e *Engine) RankCandidates(ctx context.Context, intent models.IntentState, candidates []models.Candidate) (ranking.Result, error) {
	candidates = filterCandidates(candidates, intent.Budget)
	if len(candidates) == 0 {
		return ranking.Result{}, ranking.ErrNoCandidates
	}

	scored, err := e.scoreAll(ctx, intent, candidates)
	if err != nil {
		return ranking.Result{}, err
	}
	return e.ranker.Rank(intent, scored)
}

// scoreAll normalizes and scores every candidate concurrently. The result
// keeps input order so ranking stays deterministic.
func (e *Engine) scoreAll(ctx context.Context, intent models.IntentState, candidates []models.Candidate) ([]models.ScoredCandidate, error) {
	out := make([]models.ScoredCandidate, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	if e.opts.ScoringWorkers > 0 {
		g.SetLimit(e.opts.ScoringWorkers)
	}

	for i, c := range candidates {
		i, c := i, c
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.scorer.Score(intent, e.normalizer.Normalize(c))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) compare(ctx context.Context, log logger.Logger, turnID string, d clarify.Decision) models.Response {
	req := d.State.ComparisonRequest
	q := queryFor(d.State, d.Query)
	q.IDs = []string{req.A, req.B}
	q.MinPrice, q.MaxPrice = nil, nil

	candidates, err := e.fetch(ctx, log, q)
	if err != nil {
		return respond.Fail(turnID, d.State, respond.MsgCatalogUnavailable, respond.ErrCatalogUnavailable)
	}

	var missing []string
	found := make([]models.Candidate, 0, 2)
	for _, id := range q.IDs {
		c, ok := findByID(candidates, id)
		if !ok {
			log.WithError(apperrors.NewComparisonTargetMissingError(id)).
				Info("comparison target missing", map[string]interface{}{
					"errorCode": string(apperrors.ErrCodeComparisonTargetMissing),
					"productId": id,
				})
			missing = append(missing, respond.ComparisonMissing(id))
			continue
		}
		found = append(found, c)
	}
	if len(missing) > 0 {
		return respond.Fail(turnID, d.State, respond.MsgComparisonMissing, missing...)
	}

	profiles := e.normalizer.NormalizeAll(found)
	c := compare.Compare(profiles[0], profiles[1], d.State, e.rules)
	return respond.Compare(turnID, d.State, respond.CompareMessage(profiles[0].Title, profiles[1].Title), c)
}
