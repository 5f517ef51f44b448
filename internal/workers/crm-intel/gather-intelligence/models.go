package gatherintelligence

import "copper-intel-workers/internal/models"

type Input struct {
	EntityID   string   `json:"entityId"`
	Collection string   `json:"collection"`
	Include    []string `json:"include,omitempty"`
}

type Output struct {
	Entity     models.Record              `json:"entity"`
	EntityName string                     `json:"entityName"`
	Collection string                     `json:"collection"`
	Related    map[string][]models.Record `json:"related"`
	Counts     map[string]int             `json:"counts"`
	Summary    string                     `json:"summary"`
}
