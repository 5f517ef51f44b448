package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"copper-intel-workers/internal/common/copper"
	"copper-intel-workers/internal/common/logger"
	"copper-intel-workers/internal/models"

	"golang.org/x/sync/errgroup"
)

var errUnsupportedRelation = errors.New("relation not available for this collection")

// Intelligence gathers related records for a resolved candidate. Each relation is
// fetched independently; a failure leaves that relation empty.
type Intelligence struct {
	crm     CRMReader
	timeout time.Duration
	logger  logger.Logger
}

func NewIntelligence(crm CRMReader, timeout time.Duration, log logger.Logger) *Intelligence {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Intelligence{crm: crm, timeout: timeout, logger: log}
}

// Gather returns one entry per requested relation, empty when the lookup failed or
// does not apply to the candidate's source collection.
func (in *Intelligence) Gather(ctx context.Context, candidate models.MatchCandidate, include []models.Relation) models.RelatedData {
	related := make(models.RelatedData, len(include))
	var mu sync.Mutex
	var g errgroup.Group

	for _, rel := range include {
		rel := rel
		mu.Lock()
		if _, dup := related[rel]; dup {
			mu.Unlock()
			continue
		}
		related[rel] = []models.Record{}
		mu.Unlock()

		g.Go(func() error {
			records, err := in.lookup(ctx, candidate, rel)
			if err != nil {
				if !errors.Is(err, errUnsupportedRelation) {
					in.logger.Warn("related data lookup failed", map[string]interface{}{
						"relation":   string(rel),
						"collection": candidate.Source.String(),
						"recordId":   candidate.Record.ID(),
						"error":      err.Error(),
					})
				}
				return nil
			}
			if records == nil {
				records = []models.Record{}
			}
			mu.Lock()
			related[rel] = records
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return related
}

func (in *Intelligence) lookup(ctx context.Context, candidate models.MatchCandidate, rel models.Relation) (records []models.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during %s lookup: %v", rel, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, in.timeout)
	defer cancel()

	rec := candidate.Record
	id := rec.ID()
	if id == "" {
		return nil, fmt.Errorf("record has no id")
	}

	switch rel {
	case models.RelationContacts:
		switch candidate.Source {
		case models.CollectionCompanies:
			return in.crm.Search(ctx, models.CollectionPeople, copper.Filter{"company_id": idValue(id)})
		case models.CollectionOpportunities:
			return in.getOne(ctx, models.CollectionPeople, rec.PrimaryContactID())
		}

	case models.RelationCompanies:
		switch candidate.Source {
		case models.CollectionPeople, models.CollectionOpportunities:
			return in.getOne(ctx, models.CollectionCompanies, rec.CompanyID())
		}

	case models.RelationOpportunities:
		switch candidate.Source {
		case models.CollectionCompanies:
			return in.crm.Search(ctx, models.CollectionOpportunities, copper.Filter{"company_ids": []interface{}{idValue(id)}})
		case models.CollectionPeople:
			return in.crm.Search(ctx, models.CollectionOpportunities, copper.Filter{"primary_contact_ids": []interface{}{idValue(id)}})
		}

	case models.RelationLeads:
		switch candidate.Source {
		case models.CollectionCompanies:
			return in.crm.Search(ctx, models.CollectionLeads, copper.Filter{"company_id": idValue(id)})
		case models.CollectionPeople:
			emails := rec.Emails()
			if len(emails) == 0 {
				return []models.Record{}, nil
			}
			return in.crm.Search(ctx, models.CollectionLeads, copper.Filter{"email": emails[0]})
		}

	case models.RelationTasks:
		if candidate.Source == models.CollectionTasks {
			break
		}
		return in.crm.Search(ctx, models.CollectionTasks, copper.Filter{
			"related_resource": map[string]interface{}{
				"id":   idValue(id),
				"type": candidate.Source.ResourceType(),
			},
		})
	}
	return nil, errUnsupportedRelation
}

// getOne fetches a single linked record. A missing link or a not-found record is an empty result.
func (in *Intelligence) getOne(ctx context.Context, c models.Collection, id string) ([]models.Record, error) {
	if id == "" {
		return []models.Record{}, nil
	}
	rec, err := in.crm.Get(ctx, c, id)
	if errors.Is(err, copper.ErrNotFound) {
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []models.Record{rec}, nil
}

// idValue sends numeric ids as numbers, which is how the CRM stores them.
func idValue(id string) interface{} {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
