package fuzzy

import (
	"testing"

	"copper-intel-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranked(scores ...float64) []models.MatchCandidate {
	out := make([]models.MatchCandidate, len(scores))
	for i, s := range scores {
		out[i] = models.MatchCandidate{
			Record: models.Record{"id": float64(i + 1)},
			Source: models.CollectionCompanies,
			Score:  s,
		}
	}
	return out
}

func TestIsAmbiguousScores(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   bool
	}{
		{"two within delta", []float64{90, 85, 40}, true},
		{"second too far", []float64{90, 70}, false},
		{"gap equal to delta", []float64{90, 80}, true},
		{"single", []float64{90}, false},
		{"empty", nil, false},
		{"tie", []float64{100, 100}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAmbiguousScores(tt.scores, DefaultAmbiguityDelta))
		})
	}
}

func TestDecide(t *testing.T) {
	t.Run("no candidates", func(t *testing.T) {
		d := Decide(nil, DefaultAmbiguityDelta, DefaultMaxCandidates)
		assert.Equal(t, models.OutcomeNoMatch, d.Outcome)
		assert.Nil(t, d.Top)
	})

	t.Run("clear winner resolves", func(t *testing.T) {
		d := Decide(ranked(90, 70), DefaultAmbiguityDelta, DefaultMaxCandidates)
		require.Equal(t, models.OutcomeResolved, d.Outcome)
		assert.Equal(t, 90.0, d.Top.Score)
		assert.Empty(t, d.Candidates)
	})

	t.Run("single candidate resolves", func(t *testing.T) {
		d := Decide(ranked(66), DefaultAmbiguityDelta, DefaultMaxCandidates)
		assert.Equal(t, models.OutcomeResolved, d.Outcome)
	})

	t.Run("ambiguous keeps top five", func(t *testing.T) {
		d := Decide(ranked(95, 94, 93, 92, 91, 90, 89), DefaultAmbiguityDelta, DefaultMaxCandidates)
		require.Equal(t, models.OutcomeAmbiguous, d.Outcome)
		require.Len(t, d.Candidates, 5)
		assert.Equal(t, 95.0, d.Candidates[0].Score)
		assert.Equal(t, 91.0, d.Candidates[4].Score)
	})
}
