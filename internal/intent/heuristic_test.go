package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"copper-intel-workers/internal/models"
)

func TestHeuristic(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		intent     string
		entityType models.EntityType
		entityName string
	}{
		{
			name:       "status of company",
			text:       "What's the status of PubX?",
			intent:     "status",
			entityType: models.EntityCompany,
			entityName: "PubX",
		},
		{
			name:       "who is person",
			text:       "Who is John Doe?",
			intent:     "contacts",
			entityType: models.EntityPerson,
			entityName: "John Doe",
		},
		{
			name:       "deals for company",
			text:       "show me deals for Acme",
			intent:     "deals",
			entityType: models.EntityCompany,
			entityName: "Acme",
		},
		{
			name:       "single deal",
			text:       "tell me about the deal Website Redesign",
			intent:     "deals",
			entityType: models.EntityOpportunity,
			entityName: "Website Redesign",
		},
		{
			name:       "lead",
			text:       "lead Jane Roe",
			intent:     "all",
			entityType: models.EntityLead,
			entityName: "Jane Roe",
		},
		{
			name:       "task",
			text:       "task renewal call",
			intent:     "all",
			entityType: models.EntityTask,
			entityName: "renewal call",
		},
		{
			name:       "quoted name wins",
			text:       `tell me about "The Acme Company"`,
			intent:     "all",
			entityType: models.EntityCompany,
			entityName: "The Acme Company",
		},
		{
			name:       "only stop words",
			text:       "what is the status?",
			intent:     "status",
			entityType: models.EntityCompany,
			entityName: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Heuristic(tt.text)
			assert.Equal(t, tt.intent, got.Intent)
			assert.Equal(t, tt.entityType, got.EntityType)
			assert.Equal(t, tt.entityName, got.EntityName)
			assert.Equal(t, models.DefaultInclude, got.Include)
			assert.Equal(t, models.AnalysisSourceHeuristic, got.Source)
		})
	}
}

func TestHeuristic_IncludeIsCopy(t *testing.T) {
	got := Heuristic("Acme")
	got.Include[0] = models.RelationCompanies
	assert.Equal(t, models.RelationContacts, models.DefaultInclude[0])
}
