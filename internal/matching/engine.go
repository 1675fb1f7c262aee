// internal/matching/engine.go
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"company-matching/internal/common/logger"
	"company-matching/internal/common/metrics"
	"company-matching/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const ActivityMatchingCompleted = "matching.run.completed"

type MatchRequest struct {
	RequesterCompanyID string `json:"requesterCompanyId" validate:"required"`
	Limit              int    `json:"limit" validate:"gte=0"`
	ExcludeExisting    bool   `json:"excludeExisting"`
	Layout             Layout `json:"layout" validate:"omitempty,oneof=detailed compact"`
}

type Config struct {
	DefaultLimit     int
	MaxLimit         int
	PoolCap          int
	ScoringWorkers   int
	SlowRunThreshold time.Duration
}

func DefaultConfig() Config {
	return Config{
		DefaultLimit:     10,
		MaxLimit:         50,
		PoolCap:          200,
		ScoringWorkers:   8,
		SlowRunThreshold: 500 * time.Millisecond,
	}
}

type Engine struct {
	config     Config
	repo       CompanyRepository
	resolver   *Resolver
	activity   ActivityRecorder
	calculator *Calculator
	validate   *validator.Validate
	now        func() time.Time
	logger     logger.Logger
}

type EngineOption func(*Engine)

func WithCalculator(c *Calculator) EngineOption {
	return func(e *Engine) { e.calculator = c }
}

func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(cfg Config, repo CompanyRepository, lookup RelationshipLookup, activity ActivityRecorder, log logger.Logger, opts ...EngineOption) *Engine {
	def := DefaultConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = def.MaxLimit
	}
	if cfg.PoolCap <= 0 {
		cfg.PoolCap = def.PoolCap
	}
	if cfg.ScoringWorkers <= 0 {
		cfg.ScoringWorkers = def.ScoringWorkers
	}
	if cfg.SlowRunThreshold <= 0 {
		cfg.SlowRunThreshold = def.SlowRunThreshold
	}

	e := &Engine{
		config:     cfg,
		repo:       repo,
		resolver:   NewResolver(lookup, log),
		activity:   activity,
		calculator: NewCalculator(),
		validate:   validator.New(),
		now:        time.Now,
		logger:     log.WithFields(map[string]interface{}{"component": "matching-engine"}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindMatches runs one matching pass for the requester. Errors wrap
// ErrInvalidRequest, ErrCompanyNotFound or ErrMatchingFailed; repository
// failures also keep the repository error in the chain.
func (e *Engine) FindMatches(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	ctx, span := otel.Tracer("company-matching/matching").Start(ctx, "FindMatches")
	defer span.End()

	start := time.Now()
	resp, err := e.findMatches(ctx, req)
	elapsed := time.Since(start)
	metrics.MatchingRunDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.MatchingRuns.WithLabelValues(outcomeLabel(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	metrics.MatchingRuns.WithLabelValues("success").Inc()
	span.SetAttributes(
		attribute.String("matching.requester_id", req.RequesterCompanyID),
		attribute.Int("matching.candidates", resp.Metadata.TotalCandidates),
		attribute.Int("matching.returned", resp.Metadata.Returned),
	)

	if elapsed > e.config.SlowRunThreshold {
		e.logger.Warn("matching run exceeded threshold", map[string]interface{}{
			"requesterId": req.RequesterCompanyID,
			"durationMs":  elapsed.Milliseconds(),
			"candidates":  resp.Metadata.TotalCandidates,
		})
	}
	return resp, nil
}

func (e *Engine) findMatches(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	if err := e.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req = e.normalize(req)

	start := time.Now()
	runID := uuid.NewString()
	log := e.logger.WithFields(map[string]interface{}{
		"runId":       runID,
		"requesterId": req.RequesterCompanyID,
	})

	requester, err := e.repo.GetCompanyProfile(ctx, req.RequesterCompanyID)
	if err != nil {
		if errors.Is(err, ErrCompanyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, req.RequesterCompanyID)
		}
		return nil, fmt.Errorf("%w: load requester: %w", ErrMatchingFailed, err)
	}

	prefs, err := e.repo.GetMatchingPreferences(ctx, requester.OwnerUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: load preferences: %w", ErrMatchingFailed, err)
	}

	filter := buildFilter(requester.ID, prefs, req.ExcludeExisting)
	candidates, err := e.repo.ListCandidateCompanies(ctx, filter, e.config.PoolCap)
	if err != nil {
		return nil, fmt.Errorf("%w: list candidates: %w", ErrMatchingFailed, err)
	}
	metrics.CandidatesScored.Observe(float64(len(candidates)))

	scored := e.scoreAll(requester, candidates, log)
	ranked := RankAndSelect(scored, req.Limit)
	e.resolver.Annotate(ctx, requester.ID, ranked)

	meta := Metadata{
		RunID:           runID,
		TotalCandidates: len(candidates),
		SearchCriteria:  searchCriteria(req, filter, prefs),
		Timestamp:       e.now().UTC(),
		DurationMs:      time.Since(start).Milliseconds(),
	}
	resp := Format(req.Layout, ranked, meta)

	log.Info("matching run completed", map[string]interface{}{
		"candidates": len(candidates),
		"scored":     len(scored),
		"returned":   len(ranked),
		"durationMs": meta.DurationMs,
	})

	e.recordRun(ctx, req, resp, ranked)
	return resp, nil
}

func (e *Engine) normalize(req MatchRequest) MatchRequest {
	if req.Limit == 0 {
		req.Limit = e.config.DefaultLimit
	}
	if req.Limit > e.config.MaxLimit {
		req.Limit = e.config.MaxLimit
	}
	if req.Layout == "" {
		req.Layout = LayoutDetailed
	}
	return req
}

func buildFilter(requesterID string, prefs *models.MatchingPreferences, excludeExisting bool) CandidateFilter {
	f := CandidateFilter{
		ExcludeID:        requesterID,
		ExcludeConnected: excludeExisting,
	}
	if prefs != nil {
		f.Districts = prefs.PreferredDistricts
		f.Sizes = prefs.PreferredSizes
		f.CustomerTypes = prefs.PreferredCustomerTypes
	}
	return f
}

func searchCriteria(req MatchRequest, f CandidateFilter, prefs *models.MatchingPreferences) SearchCriteria {
	return SearchCriteria{
		RequesterCompanyID: req.RequesterCompanyID,
		Limit:              req.Limit,
		ExcludeExisting:    req.ExcludeExisting,
		Layout:             req.Layout,
		PreferencesApplied: prefs != nil,
		Districts:          f.Districts,
		Sizes:              f.Sizes,
		CustomerTypes:      f.CustomerTypes,
	}
}

// scoreAll scores every candidate on a bounded worker pool. Results keep the
// pool order; candidates whose scoring panics are skipped.
func (e *Engine) scoreAll(requester *models.CompanyProfile, candidates []*models.CompanyProfile, log logger.Logger) []models.ScoredCandidate {
	results := make([]*models.ScoredCandidate, len(candidates))

	var g errgroup.Group
	g.SetLimit(e.config.ScoringWorkers)
	for i, cand := range candidates {
		g.Go(func() error {
			results[i] = e.scoreOne(requester, cand, log)
			return nil
		})
	}
	_ = g.Wait()

	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for _, r := range results {
		if r != nil {
			scored = append(scored, *r)
		}
	}
	return scored
}

func (e *Engine) scoreOne(requester, cand *models.CompanyProfile, log logger.Logger) (out *models.ScoredCandidate) {
	if cand == nil || cand.ID == "" {
		metrics.CandidateScoringFailures.Inc()
		log.Warn("skipping candidate without identifier", nil)
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			metrics.CandidateScoringFailures.Inc()
			log.Warn("candidate scoring failed, skipping", map[string]interface{}{
				"candidateId": cand.ID,
				"panic":       fmt.Sprint(r),
			})
			out = nil
		}
	}()
	s := e.calculator.Score(requester, cand)
	return &s
}

func (e *Engine) recordRun(ctx context.Context, req MatchRequest, resp *MatchResponse, ranked []models.ScoredCandidate) {
	byType := make(map[string]int)
	topScore := 0
	for _, s := range ranked {
		byType[string(s.MatchType)]++
		metrics.MatchTypesSelected.WithLabelValues(string(s.MatchType)).Inc()
		if sc := s.Score(); sc > topScore {
			topScore = sc
		}
	}

	if e.activity == nil {
		return
	}
	e.activity.RecordActivityEvent(context.WithoutCancel(ctx), ActivityMatchingCompleted, map[string]interface{}{
		"runId":              resp.Metadata.RunID,
		"requesterCompanyId": req.RequesterCompanyID,
		"totalCandidates":    resp.Metadata.TotalCandidates,
		"returned":           resp.Metadata.Returned,
		"matchTypes":         byType,
		"topScore":           topScore,
		"layout":             string(req.Layout),
		"excludeExisting":    req.ExcludeExisting,
		"timestamp":          resp.Metadata.Timestamp.Format(time.RFC3339),
	})
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrCompanyNotFound):
		return "not_found"
	default:
		return "error"
	}
}
