package models

import (
	"fmt"
	"strings"
)

// Collection is one of the CRM record collections that can be searched.
type Collection string

const (
	CollectionCompanies     Collection = "companies"
	CollectionPeople        Collection = "people"
	CollectionOpportunities Collection = "opportunities"
	CollectionLeads         Collection = "leads"
	CollectionTasks         Collection = "tasks"
)

// AllCollections lists every collection in canonical order.
var AllCollections = []Collection{
	CollectionCompanies,
	CollectionPeople,
	CollectionOpportunities,
	CollectionLeads,
	CollectionTasks,
}

func (c Collection) String() string { return string(c) }

// ResourceType is the singular name the CRM uses in related_resource references.
func (c Collection) ResourceType() string {
	switch c {
	case CollectionCompanies:
		return "company"
	case CollectionPeople:
		return "person"
	case CollectionOpportunities:
		return "opportunity"
	case CollectionLeads:
		return "lead"
	case CollectionTasks:
		return "task"
	}
	return ""
}

func ParseCollection(s string) (Collection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "companies", "company":
		return CollectionCompanies, nil
	case "people", "person", "contacts", "contact":
		return CollectionPeople, nil
	case "opportunities", "opportunity", "deals", "deal":
		return CollectionOpportunities, nil
	case "leads", "lead":
		return CollectionLeads, nil
	case "tasks", "task":
		return CollectionTasks, nil
	}
	return "", fmt.Errorf("unknown collection %q", s)
}

// EntityType is the hint about which kind of record a query refers to.
type EntityType string

const (
	EntityCompany     EntityType = "company"
	EntityPerson      EntityType = "person"
	EntityOpportunity EntityType = "opportunity"
	EntityLead        EntityType = "lead"
	EntityTask        EntityType = "task"
	EntityUnknown     EntityType = "unknown"
)

// ParseEntityType maps free-form hints onto the closed set; anything unrecognised is EntityUnknown.
func ParseEntityType(s string) EntityType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "company", "companies", "account", "organization":
		return EntityCompany
	case "person", "people", "contact", "contacts":
		return EntityPerson
	case "opportunity", "opportunities", "deal", "deals":
		return EntityOpportunity
	case "lead", "leads", "prospect":
		return EntityLead
	case "task", "tasks", "todo":
		return EntityTask
	}
	return EntityUnknown
}

// NativeCollection returns the collection a hint natively refers to. The second
// result is false for EntityUnknown.
func (e EntityType) NativeCollection() (Collection, bool) {
	switch e {
	case EntityCompany:
		return CollectionCompanies, true
	case EntityPerson:
		return CollectionPeople, true
	case EntityOpportunity:
		return CollectionOpportunities, true
	case EntityLead:
		return CollectionLeads, true
	case EntityTask:
		return CollectionTasks, true
	case EntityUnknown:
		return "", false
	}
	return "", false
}

// Relation is a kind of related data the intelligence step can gather.
type Relation string

const (
	RelationContacts      Relation = "contacts"
	RelationCompanies     Relation = "companies"
	RelationOpportunities Relation = "opportunities"
	RelationLeads         Relation = "leads"
	RelationTasks         Relation = "tasks"
)

var AllRelations = []Relation{
	RelationContacts,
	RelationCompanies,
	RelationOpportunities,
	RelationLeads,
	RelationTasks,
}

// DefaultInclude is used when a query does not say what related data it wants.
var DefaultInclude = []Relation{
	RelationContacts,
	RelationOpportunities,
	RelationLeads,
	RelationTasks,
}

// ParseInclude normalises an include list. "deals" is an alias for opportunities and
// "all" expands to every relation. Unknown names are dropped and duplicates removed.
func ParseInclude(names []string) []Relation {
	seen := make(map[Relation]bool)
	var out []Relation
	add := func(r Relation) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "contacts", "contact", "people":
			add(RelationContacts)
		case "companies", "company":
			add(RelationCompanies)
		case "opportunities", "opportunity", "deals", "deal":
			add(RelationOpportunities)
		case "leads", "lead":
			add(RelationLeads)
		case "tasks", "task":
			add(RelationTasks)
		case "all":
			for _, r := range AllRelations {
				add(r)
			}
		}
	}
	return out
}
