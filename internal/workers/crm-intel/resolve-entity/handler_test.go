package resolveentity

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"copper-intel-workers/internal/common/errors"
	"copper-intel-workers/internal/common/logger"
	"copper-intel-workers/internal/common/validation"
	"copper-intel-workers/internal/models"
	"copper-intel-workers/internal/resolver"
)

type MockRanker struct {
	mock.Mock
}

func (m *MockRanker) Rank(ctx context.Context, analysis models.QueryAnalysis) *resolver.Outcome {
	args := m.Called(ctx, analysis)
	return args.Get(0).(*resolver.Outcome)
}

func newTestHandler(t *testing.T, ranker Ranker) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: DefaultConfig(),
		Ranker:       ranker,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

func candidate(id float64, name string, c models.Collection, score float64) models.MatchCandidate {
	return models.MatchCandidate{Record: models.Record{"id": id, "name": name}, Source: c, Score: score}
}

func analysisFor(query string, hint models.EntityType, filters map[string]string) models.QueryAnalysis {
	return models.QueryAnalysis{Intent: "all", EntityType: hint, EntityName: query, Filters: filters}
}

func TestExecute(t *testing.T) {
	top := candidate(1, "Acme Corp", models.CollectionCompanies, 95)
	ambiguous := []models.MatchCandidate{
		top,
		candidate(2, "Acme Inc", models.CollectionLeads, 90),
	}

	tests := []struct {
		name           string
		input          *Input
		analysis       models.QueryAnalysis
		outcome        *resolver.Outcome
		wantOutcome    string
		wantAmbiguous  bool
		wantCandidates []Candidate
		wantFailed     []string
	}{
		{
			name:           "resolved",
			input:          &Input{Query: " acme ", EntityType: "company"},
			analysis:       analysisFor("acme", models.EntityCompany, nil),
			outcome:        &resolver.Outcome{Kind: models.OutcomeResolved, Entity: &top, Searched: 40},
			wantOutcome:    "resolved",
			wantCandidates: []Candidate{{ID: "1", Name: "Acme Corp", Collection: "companies", Score: 95}},
		},
		{
			name:          "ambiguous",
			input:         &Input{Query: "acme", EntityType: "general", Filters: map[string]string{"status": "open"}},
			analysis:      analysisFor("acme", models.EntityUnknown, map[string]string{"status": "open"}),
			outcome:       &resolver.Outcome{Kind: models.OutcomeAmbiguous, Entity: &top, Candidates: ambiguous},
			wantOutcome:   "ambiguous",
			wantAmbiguous: true,
			wantCandidates: []Candidate{
				{ID: "1", Name: "Acme Corp", Collection: "companies", Score: 95},
				{ID: "2", Name: "Acme Inc", Collection: "leads", Score: 90},
			},
		},
		{
			name:           "no match with partial failure",
			input:          &Input{Query: "zyx", EntityType: "person"},
			analysis:       analysisFor("zyx", models.EntityPerson, nil),
			outcome:        &resolver.Outcome{Kind: models.OutcomeNoMatch, Failed: []models.Collection{models.CollectionLeads}},
			wantOutcome:    "no_match",
			wantCandidates: []Candidate{},
			wantFailed:     []string{"leads"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranker := &MockRanker{}
			ranker.On("Rank", mock.Anything, tt.analysis).Return(tt.outcome)

			out, err := newTestHandler(t, ranker).Execute(context.Background(), tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.wantOutcome, out.Outcome)
			assert.Equal(t, tt.wantAmbiguous, out.Ambiguous)
			assert.Equal(t, tt.wantCandidates, out.Candidates)
			assert.Equal(t, tt.wantFailed, out.FailedCollections)
			ranker.AssertExpectations(t)
		})
	}
}

func TestExecute_AllCollectionsFailed(t *testing.T) {
	plan := resolver.PlanFor(models.EntityCompany)
	ranker := &MockRanker{}
	ranker.On("Rank", mock.Anything, mock.Anything).Return(&resolver.Outcome{Kind: models.OutcomeNoMatch, Failed: plan})

	_, err := newTestHandler(t, ranker).Execute(context.Background(), &Input{Query: "acme", EntityType: "company"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUpstreamUnavailable))
	stdErr, _ := errors.AsStandardError(err)
	assert.True(t, stdErr.Retryable)
}

func TestExecute_EmptyQuery(t *testing.T) {
	ranker := &MockRanker{}
	_, err := newTestHandler(t, ranker).Execute(context.Background(), &Input{Query: "   "})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
	ranker.AssertNotCalled(t, "Rank", mock.Anything, mock.Anything)
}

func TestParseInput(t *testing.T) {
	v, err := validation.NewValidatorFromSchemas(map[string]map[string]interface{}{TaskType: InputSchema()})
	require.NoError(t, err)
	h := newTestHandler(t, &MockRanker{})
	h.validator = v

	job := func(vars map[string]interface{}) entities.Job {
		raw, _ := json.Marshal(vars)
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Type: TaskType, Variables: string(raw)}}
	}

	input, err := h.parseInput(job(map[string]interface{}{
		"query": "acme", "entityType": "company", "filters": map[string]interface{}{"industry": "Software"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "Software", input.Filters["industry"])

	_, err = h.parseInput(job(map[string]interface{}{"query": "acme", "entityType": "planet"}))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))

	_, err = h.parseInput(job(map[string]interface{}{"query": "acme", "filters": map[string]interface{}{"status": 3}}))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func TestNewHandler_RequiresRanker(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Logger: logger.NewTestLogger(t)})
	assert.Error(t, err)
}
