package fuzzy

import (
	"strings"

	"copper-intel-workers/internal/models"
)

// Attribute filter keys understood by the matcher.
const (
	FilterCompany  = "company"
	FilterIndustry = "industry"
	FilterStatus   = "status"
	FilterAssignee = "assignee"
)

// Match is one record that cleared the threshold within a single collection.
type Match struct {
	Record models.Record
	Score  float64
}

// Matcher scores a collection's records against a query and keeps those at or above Threshold.
type Matcher struct {
	Scorer          *Scorer
	Threshold       float64
	FilterThreshold float64
}

func NewMatcher(scorer *Scorer) *Matcher {
	return &Matcher{
		Scorer:          scorer,
		Threshold:       DefaultThreshold,
		FilterThreshold: DefaultFilterThreshold,
	}
}

// MatchCollection returns the retained records in scan order, unsorted. Records that
// fail an applicable attribute filter are skipped before scoring.
func (m *Matcher) MatchCollection(query string, c models.Collection, records []models.Record, filters map[string]string) []Match {
	var out []Match
	for _, r := range records {
		if !m.passesFilters(c, r, filters) {
			continue
		}
		score := m.Scorer.BestScore(query, Extract(c, r))
		if score >= m.Threshold {
			out = append(out, Match{Record: r, Score: score})
		}
	}
	return out
}

// Compare is the loose comparison used for attribute filters.
func (m *Matcher) Compare(want, have string) bool {
	if strings.TrimSpace(want) == "" || strings.TrimSpace(have) == "" {
		return false
	}
	return TokenSetRatio(want, have) >= m.FilterThreshold
}

func (m *Matcher) passesFilters(c models.Collection, r models.Record, filters map[string]string) bool {
	for key, want := range filters {
		if strings.TrimSpace(want) == "" {
			continue
		}
		values, applies := filterValues(c, r, key)
		if !applies {
			continue
		}
		ok := false
		for _, have := range values {
			if m.Compare(want, have) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// filterValues returns the record values a filter key is compared against, and false
// when the key does not apply to the collection.
func filterValues(c models.Collection, r models.Record, key string) ([]string, bool) {
	switch strings.ToLower(key) {
	case FilterCompany:
		switch c {
		case models.CollectionPeople, models.CollectionLeads, models.CollectionOpportunities:
			return []string{r.CompanyName()}, true
		}
	case FilterIndustry:
		if c == models.CollectionCompanies {
			return []string{r.Industry()}, true
		}
	case FilterStatus:
		switch c {
		case models.CollectionOpportunities:
			return []string{r.Status(), r.Stage()}, true
		case models.CollectionTasks, models.CollectionLeads:
			return []string{r.Status()}, true
		}
	case FilterAssignee:
		if c == models.CollectionTasks {
			return []string{r.AssigneeName()}, true
		}
	}
	return nil, false
}
