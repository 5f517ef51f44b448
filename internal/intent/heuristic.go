package intent

import (
	"regexp"
	"strings"

	"copper-intel-workers/internal/models"
)

var (
	quoted = regexp.MustCompile(`["“”]([^"“”]+)["“”]`)

	stopWords = map[string]bool{
		"what": true, "what's": true, "whats": true, "tell": true, "me": true, "about": true,
		"can": true, "you": true, "show": true, "the": true, "status": true, "of": true,
		"information": true, "info": true, "on": true, "for": true, "is": true, "are": true,
		"who": true, "where": true, "when": true, "how": true, "with": true, "at": true,
		"in": true, "a": true, "an": true, "we": true, "our": true, "to": true, "talking": true,
		"everything": true, "latest": true, "any": true, "give": true, "please": true,
		"update": true, "find": true, "lookup": true, "look": true, "up": true, "get": true,
	}

	typeWords = map[string]bool{
		"company": true, "person": true, "contact": true, "contacts": true, "deal": true,
		"deals": true, "opportunity": true, "lead": true, "task": true, "tasks": true,
	}

	punctuation = "?!.,;:()[]{}"
)

// Heuristic derives an analysis from keywords alone. Entity type defaults to company
// and the entity name is what remains after dropping question and stop words;
// quoted text, when present, is taken as the name verbatim.
func Heuristic(text string) models.QueryAnalysis {
	lower := strings.ToLower(text)
	words := wordSet(lower)

	intent := "all"
	switch {
	case words["status"] || words["update"]:
		intent = "status"
	case words["contact"] || words["contacts"] || words["who"] || words["people"]:
		intent = "contacts"
	case words["deal"] || words["deals"] || words["opportunity"] || words["opportunities"] || words["pipeline"]:
		intent = "deals"
	}

	entityType := models.EntityCompany
	switch {
	case words["person"] || words["contact"] || words["someone"] || strings.Contains(lower, "who is"):
		entityType = models.EntityPerson
	case words["deal"] || words["opportunity"]:
		entityType = models.EntityOpportunity
	case words["lead"] || words["prospect"]:
		entityType = models.EntityLead
	case words["task"] || words["todo"]:
		entityType = models.EntityTask
	}

	return models.QueryAnalysis{
		Intent:     intent,
		EntityType: entityType,
		EntityName: extractName(text),
		Include:    append([]models.Relation(nil), models.DefaultInclude...),
		Source:     models.AnalysisSourceHeuristic,
	}
}

func extractName(text string) string {
	if m := quoted.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	var kept []string
	for _, w := range strings.Fields(text) {
		clean := strings.Trim(w, punctuation)
		lw := strings.ToLower(clean)
		if clean == "" || stopWords[lw] || typeWords[lw] {
			continue
		}
		kept = append(kept, clean)
	}
	return strings.Join(kept, " ")
}

func wordSet(lower string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(lower) {
		set[strings.Trim(w, punctuation)] = true
	}
	return set
}
