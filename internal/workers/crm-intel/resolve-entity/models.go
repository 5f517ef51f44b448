package resolveentity

type Input struct {
	Query      string            `json:"query"`
	EntityType string            `json:"entityType"`
	Filters    map[string]string `json:"filters,omitempty"`
}

type Candidate struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Collection string  `json:"collection"`
	Score      float64 `json:"score"`
}

type Output struct {
	Outcome           string      `json:"outcome"`
	Candidates        []Candidate `json:"candidates"`
	Ambiguous         bool        `json:"ambiguous"`
	RecordsSearched   int         `json:"recordsSearched"`
	FailedCollections []string    `json:"failedCollections,omitempty"`
}
