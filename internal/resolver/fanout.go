// Package resolver turns a query analysis into a resolved CRM record, an ambiguous
// candidate set, or no match, and gathers related data for resolved records.
package resolver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"copper-intel-workers/internal/common/copper"
	"copper-intel-workers/internal/common/logger"
	"copper-intel-workers/internal/common/metrics"
	"copper-intel-workers/internal/fuzzy"
	"copper-intel-workers/internal/models"

	"golang.org/x/sync/errgroup"
)

// CRMReader is the read side of the CRM used for fan-out and related-data lookups.
type CRMReader interface {
	Search(ctx context.Context, collection models.Collection, filter copper.Filter) ([]models.Record, error)
	Get(ctx context.Context, collection models.Collection, id string) (models.Record, error)
}

const (
	DefaultNativeBoost  = 5.0
	DefaultFetchTimeout = 30 * time.Second
)

// PlanFor returns the collections searched for a hint, native collection first.
func PlanFor(hint models.EntityType) []models.Collection {
	switch hint {
	case models.EntityCompany:
		return []models.Collection{models.CollectionCompanies, models.CollectionLeads, models.CollectionOpportunities}
	case models.EntityPerson:
		return []models.Collection{models.CollectionPeople, models.CollectionLeads, models.CollectionOpportunities}
	case models.EntityOpportunity:
		return []models.Collection{models.CollectionOpportunities, models.CollectionCompanies, models.CollectionLeads}
	case models.EntityLead:
		return []models.Collection{models.CollectionLeads, models.CollectionCompanies, models.CollectionPeople}
	case models.EntityTask:
		return []models.Collection{models.CollectionTasks}
	case models.EntityUnknown:
		return []models.Collection{models.CollectionCompanies, models.CollectionPeople, models.CollectionOpportunities, models.CollectionLeads}
	}
	return PlanFor(models.EntityUnknown)
}

// SearchResult is the merged, ranked output of one fan-out.
type SearchResult struct {
	Candidates        []models.MatchCandidate
	Searched          int
	FailedCollections []models.Collection
}

// Aggregator fans a query out over the collections planned for a hint.
type Aggregator struct {
	crm          CRMReader
	matcher      *fuzzy.Matcher
	nativeBoost  float64
	fetchTimeout time.Duration
	logger       logger.Logger
}

func NewAggregator(crm CRMReader, matcher *fuzzy.Matcher, nativeBoost float64, fetchTimeout time.Duration, log logger.Logger) *Aggregator {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Aggregator{
		crm:          crm,
		matcher:      matcher,
		nativeBoost:  nativeBoost,
		fetchTimeout: fetchTimeout,
		logger:       log,
	}
}

type collectionResult struct {
	matches []fuzzy.Match
	scanned int
	err     error
}

// Search fetches every planned collection concurrently and ranks the merged matches.
// A collection that fails to load contributes no candidates.
func (a *Aggregator) Search(ctx context.Context, hint models.EntityType, query string, filters map[string]string) *SearchResult {
	plan := PlanFor(hint)
	native, hasNative := hint.NativeCollection()
	results := make([]collectionResult, len(plan))

	var g errgroup.Group
	for i, c := range plan {
		i, c := i, c
		g.Go(func() error {
			results[i] = a.scan(ctx, c, query, filters)
			return nil
		})
	}
	_ = g.Wait()

	out := &SearchResult{}
	for i, c := range plan {
		res := results[i]
		if res.err != nil {
			metrics.CollectionFetchFailures.WithLabelValues(c.String()).Inc()
			a.logger.Warn("collection fetch failed, continuing without it", map[string]interface{}{
				"collection": c.String(),
				"error":      res.err.Error(),
			})
			out.FailedCollections = append(out.FailedCollections, c)
			continue
		}
		out.Searched += res.scanned
		for _, m := range res.matches {
			score := m.Score
			if hasNative && c == native {
				score += a.nativeBoost
				if score > 100 {
					score = 100
				}
			}
			out.Candidates = append(out.Candidates, models.MatchCandidate{Record: m.Record, Source: c, Score: score})
		}
	}

	sort.SliceStable(out.Candidates, func(i, j int) bool {
		return out.Candidates[i].Score > out.Candidates[j].Score
	})
	return out
}

func (a *Aggregator) scan(ctx context.Context, c models.Collection, query string, filters map[string]string) (res collectionResult) {
	defer func() {
		if r := recover(); r != nil {
			res = collectionResult{err: &panicError{value: r}}
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	records, err := a.crm.Search(fetchCtx, c, copper.Filter{})
	if err != nil {
		return collectionResult{err: err}
	}
	return collectionResult{
		matches: a.matcher.MatchCollection(query, c, records, filters),
		scanned: len(records),
	}
}

type panicError struct {
	value interface{}
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic during collection scan: %v", p.value)
}
