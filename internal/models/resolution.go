package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QueryAnalysis is the structured reading of a free-text request.
type QueryAnalysis struct {
	Intent     string            `json:"intent"`
	EntityType EntityType        `json:"entity_type"`
	EntityName string            `json:"entity_name"`
	Include    []Relation        `json:"include"`
	Filters    map[string]string `json:"filters,omitempty"`
	Source     string            `json:"source,omitempty"`
}

const (
	AnalysisSourceModel     = "model"
	AnalysisSourceHeuristic = "heuristic"
)

// Outcome is the result class of resolving a query.
type Outcome string

const (
	OutcomeNoMatch   Outcome = "no_match"
	OutcomeResolved  Outcome = "resolved"
	OutcomeAmbiguous Outcome = "ambiguous"
)

// RelatedData holds one list per requested relation. Relations absent from the map were not requested.
type RelatedData map[Relation][]Record

// ConfirmationKey identifies a conversation.
type ConfirmationKey struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
}

// String renders the key as "<len(user)>:<user>:<channel>". The length prefix keeps
// IDs that contain ':' from colliding.
func (k ConfirmationKey) String() string {
	return fmt.Sprintf("%d:%s:%s", len(k.UserID), k.UserID, k.ChannelID)
}

// PendingConfirmation is a ranked candidate list awaiting a numbered reply.
type PendingConfirmation struct {
	ID         uuid.UUID        `json:"id"`
	Key        ConfirmationKey  `json:"key"`
	Candidates []MatchCandidate `json:"candidates"`
	Analysis   QueryAnalysis    `json:"analysis"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Expired reports whether the confirmation is older than ttl. A non-positive ttl never expires.
func (p *PendingConfirmation) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(p.CreatedAt) > ttl
}
