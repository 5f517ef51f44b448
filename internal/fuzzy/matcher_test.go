package fuzzy

import (
	"testing"

	"copper-intel-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func company(id float64, name string) models.Record {
	return models.Record{"id": id, "name": name}
}

func TestExtract(t *testing.T) {
	person := models.Record{
		"name":          "Jane Doe",
		"first_name":    "Jane",
		"last_name":     "Doe",
		"emails":        []interface{}{map[string]interface{}{"email": "jane@acme.com"}},
		"phone_numbers": []interface{}{map[string]interface{}{"number": "555-0100"}},
		"company_name":  "Acme Corp",
	}
	assert.Equal(t,
		[]string{"Jane Doe", "Jane Doe", "jane@acme.com", "555-0100", "Acme Corp"},
		Extract(models.CollectionPeople, person))

	companyRec := models.Record{
		"name":    "Acme Corp",
		"address": map[string]interface{}{"city": "Austin", "state": "TX"},
	}
	assert.Equal(t, []string{"Acme Corp", "Austin", "TX"}, Extract(models.CollectionCompanies, companyRec))

	task := models.Record{
		"name":             "Call back",
		"assignee":         map[string]interface{}{"name": "Bob"},
		"related_resource": map[string]interface{}{"id": 1.0, "type": "company", "name": "Acme"},
	}
	assert.Equal(t, []string{"Call back", "Bob", "Acme"}, Extract(models.CollectionTasks, task))

	assert.Empty(t, Extract(models.CollectionOpportunities, models.Record{}))
}

func TestMatcher_MatchCollection(t *testing.T) {
	m := NewMatcher(NewScorer())
	records := []models.Record{
		company(1, "Zebra Logistics"),
		company(2, "Acme Corp"),
		company(3, "Acme Corporation"),
	}

	matches := m.MatchCollection("acme corp", models.CollectionCompanies, records, nil)

	require.Len(t, matches, 2)
	assert.Equal(t, "2", matches[0].Record.ID())
	assert.Equal(t, 100.0, matches[0].Score)
	assert.Equal(t, "3", matches[1].Record.ID())
	for _, mt := range matches {
		assert.GreaterOrEqual(t, mt.Score, DefaultThreshold)
	}
}

func TestMatcher_Threshold(t *testing.T) {
	m := NewMatcher(NewScorer())
	m.Threshold = 101
	assert.Empty(t, m.MatchCollection("acme corp", models.CollectionCompanies,
		[]models.Record{company(1, "Acme Corp")}, nil))
}

func TestMatcher_Filters(t *testing.T) {
	m := NewMatcher(NewScorer())
	people := []models.Record{
		{"id": 1.0, "name": "Jane Doe", "company_name": "Acme Corp"},
		{"id": 2.0, "name": "Jane Doe", "company_name": "Globex"},
		{"id": 3.0, "name": "Jane Doe"},
	}

	tests := []struct {
		name    string
		filters map[string]string
		wantIDs []string
	}{
		{"no filter keeps all", nil, []string{"1", "2", "3"}},
		{"company filter", map[string]string{FilterCompany: "acme corp"}, []string{"1"}},
		{"blank filter ignored", map[string]string{FilterCompany: " "}, []string{"1", "2", "3"}},
		{"inapplicable filter ignored", map[string]string{FilterIndustry: "software"}, []string{"1", "2", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := m.MatchCollection("jane doe", models.CollectionPeople, people, tt.filters)
			var ids []string
			for _, mt := range matches {
				ids = append(ids, mt.Record.ID())
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestMatcher_Compare(t *testing.T) {
	m := NewMatcher(NewScorer())
	assert.True(t, m.Compare("Acme", "acme corp"))
	assert.False(t, m.Compare("acme", ""))
	assert.False(t, m.Compare("", "acme"))
	assert.False(t, m.Compare("acme", "globex"))
}
