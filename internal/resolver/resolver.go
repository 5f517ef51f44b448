package resolver

import (
	"context"
	"strings"

	"copper-intel-workers/internal/common/logger"
	"copper-intel-workers/internal/common/metrics"
	"copper-intel-workers/internal/fuzzy"
	"copper-intel-workers/internal/models"
)

// Policy holds the ambiguity settings applied after fan-out.
type Policy struct {
	AmbiguityDelta float64
	MaxCandidates  int
}

func DefaultPolicy() Policy {
	return Policy{AmbiguityDelta: fuzzy.DefaultAmbiguityDelta, MaxCandidates: fuzzy.DefaultMaxCandidates}
}

// Outcome is the result of resolving one analysed query.
type Outcome struct {
	Kind       models.Outcome
	Entity     *models.MatchCandidate
	Related    models.RelatedData
	Candidates []models.MatchCandidate
	Searched   int
	Failed     []models.Collection
}

// Resolver runs fan-out, applies the ambiguity policy and gathers intelligence for
// an unambiguous winner.
type Resolver struct {
	aggregator   *Aggregator
	intelligence *Intelligence
	policy       Policy
	logger       logger.Logger
}

func New(aggregator *Aggregator, intelligence *Intelligence, policy Policy, log logger.Logger) *Resolver {
	return &Resolver{aggregator: aggregator, intelligence: intelligence, policy: policy, logger: log}
}

// Rank runs fan-out and the policy without gathering related data.
func (r *Resolver) Rank(ctx context.Context, analysis models.QueryAnalysis) *Outcome {
	name := strings.TrimSpace(analysis.EntityName)
	if name == "" {
		metrics.ResolutionOutcomes.WithLabelValues(string(models.OutcomeNoMatch)).Inc()
		return &Outcome{Kind: models.OutcomeNoMatch}
	}

	res := r.aggregator.Search(ctx, analysis.EntityType, name, analysis.Filters)
	decision := fuzzy.Decide(res.Candidates, r.policy.AmbiguityDelta, r.policy.MaxCandidates)
	metrics.ResolutionOutcomes.WithLabelValues(string(decision.Outcome)).Inc()

	r.logger.Info("entity resolution ranked", map[string]interface{}{
		"query":      name,
		"hint":       string(analysis.EntityType),
		"outcome":    string(decision.Outcome),
		"candidates": len(res.Candidates),
		"searched":   res.Searched,
	})

	return &Outcome{
		Kind:       decision.Outcome,
		Entity:     decision.Top,
		Candidates: decision.Candidates,
		Searched:   res.Searched,
		Failed:     res.FailedCollections,
	}
}

// Resolve ranks and, on an unambiguous match, gathers the requested related data.
func (r *Resolver) Resolve(ctx context.Context, analysis models.QueryAnalysis) *Outcome {
	out := r.Rank(ctx, analysis)
	if out.Kind == models.OutcomeResolved {
		out.Related = r.Gather(ctx, *out.Entity, analysis.Include)
	}
	return out
}

// Gather fetches related data for a chosen candidate using the include set, falling
// back to the default relations when none were requested.
func (r *Resolver) Gather(ctx context.Context, candidate models.MatchCandidate, include []models.Relation) models.RelatedData {
	if len(include) == 0 {
		include = models.DefaultInclude
	}
	return r.intelligence.Gather(ctx, candidate, include)
}
