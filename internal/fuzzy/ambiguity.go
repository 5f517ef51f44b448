package fuzzy

import "copper-intel-workers/internal/models"

// IsAmbiguousScores reports whether at least two scores, the top one included, lie
// within delta of the top score. scores must be sorted descending.
func IsAmbiguousScores(scores []float64, delta float64) bool {
	if len(scores) < 2 {
		return false
	}
	top := scores[0]
	near := 0
	for _, s := range scores {
		if top-s <= delta {
			near++
		}
	}
	return near >= 2
}

// IsAmbiguous applies IsAmbiguousScores to ranked candidates.
func IsAmbiguous(ranked []models.MatchCandidate, delta float64) bool {
	scores := make([]float64, len(ranked))
	for i, c := range ranked {
		scores[i] = c.Score
	}
	return IsAmbiguousScores(scores, delta)
}

// Decision is the policy outcome for a ranked candidate list.
type Decision struct {
	Outcome    models.Outcome
	Top        *models.MatchCandidate
	Candidates []models.MatchCandidate
}

// Decide maps ranked candidates to no match, a single resolution, or an ambiguous
// set truncated to maxCandidates.
func Decide(ranked []models.MatchCandidate, delta float64, maxCandidates int) Decision {
	if len(ranked) == 0 {
		return Decision{Outcome: models.OutcomeNoMatch}
	}
	top := ranked[0]
	if !IsAmbiguous(ranked, delta) {
		return Decision{Outcome: models.OutcomeResolved, Top: &top}
	}
	n := len(ranked)
	if maxCandidates > 0 && n > maxCandidates {
		n = maxCandidates
	}
	candidates := make([]models.MatchCandidate, n)
	copy(candidates, ranked[:n])
	return Decision{Outcome: models.OutcomeAmbiguous, Top: &top, Candidates: candidates}
}
