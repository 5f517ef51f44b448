package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"copper-intel-workers/internal/common/logger"
	"copper-intel-workers/internal/fuzzy"
	"copper-intel-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregator(t *testing.T, crm CRMReader) *Aggregator {
	return NewAggregator(crm, fuzzy.NewMatcher(fuzzy.NewScorer()), DefaultNativeBoost, time.Second, logger.NewTestLogger(t))
}

func TestPlanFor(t *testing.T) {
	tests := []struct {
		hint models.EntityType
		want []models.Collection
	}{
		{models.EntityCompany, []models.Collection{models.CollectionCompanies, models.CollectionLeads, models.CollectionOpportunities}},
		{models.EntityPerson, []models.Collection{models.CollectionPeople, models.CollectionLeads, models.CollectionOpportunities}},
		{models.EntityOpportunity, []models.Collection{models.CollectionOpportunities, models.CollectionCompanies, models.CollectionLeads}},
		{models.EntityLead, []models.Collection{models.CollectionLeads, models.CollectionCompanies, models.CollectionPeople}},
		{models.EntityTask, []models.Collection{models.CollectionTasks}},
		{models.EntityUnknown, []models.Collection{models.CollectionCompanies, models.CollectionPeople, models.CollectionOpportunities, models.CollectionLeads}},
	}
	for _, tt := range tests {
		t.Run(string(tt.hint), func(t *testing.T) {
			plan := PlanFor(tt.hint)
			assert.Equal(t, tt.want, plan)
			if native, ok := tt.hint.NativeCollection(); ok {
				assert.Equal(t, native, plan[0])
			}
		})
	}
}

func TestAggregator_FailedCollectionDoesNotBlockOthers(t *testing.T) {
	crm := newFakeCRM()
	crm.all[models.CollectionCompanies] = []models.Record{rec(1, map[string]interface{}{"name": "Acme Corp"})}
	crm.fail[models.CollectionLeads] = errors.New("connection reset")

	res := newTestAggregator(t, crm).Search(context.Background(), models.EntityCompany, "acme corp", nil)

	require.NotEmpty(t, res.Candidates)
	assert.Equal(t, "1", res.Candidates[0].Record.ID())
	assert.Equal(t, models.CollectionCompanies, res.Candidates[0].Source)
	assert.Equal(t, 100.0, res.Candidates[0].Score)
	assert.Equal(t, []models.Collection{models.CollectionLeads}, res.FailedCollections)
	assert.Equal(t, 1, res.Searched)
}

func TestAggregator_NativeBoost(t *testing.T) {
	crm := newFakeCRM()
	crm.all[models.CollectionOpportunities] = []models.Record{rec(2, map[string]interface{}{"name": "Acme Crop"})}
	crm.all[models.CollectionCompanies] = []models.Record{rec(1, map[string]interface{}{"name": "Acme Crop"})}

	res := newTestAggregator(t, crm).Search(context.Background(), models.EntityCompany, "acme corp", nil)

	require.Len(t, res.Candidates, 2)
	company, opp := res.Candidates[0], res.Candidates[1]
	assert.Equal(t, models.CollectionCompanies, company.Source)
	assert.Equal(t, models.CollectionOpportunities, opp.Source)
	assert.Less(t, opp.Score, 100.0)
	assert.Equal(t, minf(100, opp.Score+DefaultNativeBoost), company.Score)
}

func TestAggregator_UnknownHintSkipsBoostAndKeepsScanOrder(t *testing.T) {
	crm := newFakeCRM()
	crm.all[models.CollectionPeople] = []models.Record{rec(2, map[string]interface{}{"name": "Acme Crop"})}
	crm.all[models.CollectionCompanies] = []models.Record{rec(1, map[string]interface{}{"name": "Acme Crop"})}

	res := newTestAggregator(t, crm).Search(context.Background(), models.EntityUnknown, "acme corp", nil)

	require.Len(t, res.Candidates, 2)
	assert.Equal(t, res.Candidates[0].Score, res.Candidates[1].Score)
	assert.Equal(t, models.CollectionCompanies, res.Candidates[0].Source)
	assert.Equal(t, models.CollectionPeople, res.Candidates[1].Source)
}

func TestAggregator_SortedDescending(t *testing.T) {
	crm := newFakeCRM()
	crm.all[models.CollectionCompanies] = []models.Record{
		rec(1, map[string]interface{}{"name": "Acme Crop"}),
		rec(2, map[string]interface{}{"name": "Zebra"}),
		rec(3, map[string]interface{}{"name": "Acme Corp"}),
	}
	crm.all[models.CollectionLeads] = []models.Record{rec(4, map[string]interface{}{"company_name": "Acme Corp"})}

	res := newTestAggregator(t, crm).Search(context.Background(), models.EntityCompany, "Acme Corp", nil)

	require.Len(t, res.Candidates, 3)
	for i := 1; i < len(res.Candidates); i++ {
		assert.GreaterOrEqual(t, res.Candidates[i-1].Score, res.Candidates[i].Score)
	}
	assert.Equal(t, "3", res.Candidates[0].Record.ID())
	assert.Equal(t, 4, res.Searched)
}

func TestAggregator_EveryFetchFails(t *testing.T) {
	crm := newFakeCRM()
	for _, c := range models.AllCollections {
		crm.fail[c] = errors.New("down")
	}

	res := newTestAggregator(t, crm).Search(context.Background(), models.EntityUnknown, "acme", nil)

	assert.Empty(t, res.Candidates)
	assert.Len(t, res.FailedCollections, 4)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
