// Package reply renders resolution results as plain display strings.
package reply

import (
	"fmt"
	"strings"

	"copper-intel-workers/internal/models"
)

const (
	contactLimit     = 5
	companyLimit     = 5
	opportunityLimit = 5
	leadLimit        = 3
	taskLimit        = 3
)

// Help lists what the assistant understands.
func Help() string {
	return strings.Join([]string{
		"Copper CRM assistant",
		"",
		"Ask in plain English about a company, person, deal, lead or task. For example:",
		"  - What's the status of Acme?",
		"  - Who are we talking to at Globex?",
		"  - Show me deals for Initech",
		"  - Tell me about \"Jane Doe\"",
		"",
		"When several records match, reply with the number of the one you meant or 'cancel'.",
	}, "\n")
}

// NoMatch is returned when nothing scored above threshold.
func NoMatch(analysis models.QueryAnalysis) string {
	name := strings.TrimSpace(analysis.EntityName)
	if name == "" {
		return "I couldn't tell which company, person or deal you meant. Try including a name, for example \"status of Acme\"."
	}
	return fmt.Sprintf("I couldn't find any CRM records matching %q.", name)
}

// Cancelled acknowledges a cancelled confirmation.
func Cancelled() string {
	return "Okay, cancelled. Ask me about another company, person or deal whenever you like."
}

// Failure is the generic message shown after an unexpected error.
func Failure() string {
	return "Sorry, something went wrong while looking that up. Please try again."
}

// Confirmation asks the user to pick one of the candidates.
func Confirmation(query string, candidates []models.MatchCandidate) string {
	lines := []string{fmt.Sprintf("Multiple matches found for %q. Which one did you mean?", query), ""}
	lines = append(lines, candidateLines(candidates)...)
	lines = append(lines, "", selectionHint(len(candidates)))
	return strings.Join(lines, "\n")
}

// Reprompt repeats the choices after a reply that was not a valid selection.
func Reprompt(candidates []models.MatchCandidate) string {
	lines := []string{"That isn't one of the options.", ""}
	lines = append(lines, candidateLines(candidates)...)
	lines = append(lines, "", selectionHint(len(candidates)))
	return strings.Join(lines, "\n")
}

func selectionHint(n int) string {
	return fmt.Sprintf("Reply with the number (1-%d) to confirm your choice, or 'cancel' to abort.", n)
}

func candidateLines(candidates []models.MatchCandidate) []string {
	lines := make([]string, 0, len(candidates))
	for i, c := range candidates {
		lines = append(lines, fmt.Sprintf("%d. %s%s [%s, match %.0f%%]",
			i+1, displayName(c.Record), candidateContext(c), c.Source, c.Score))
	}
	return lines
}

func candidateContext(c models.MatchCandidate) string {
	r := c.Record
	var parts []string
	switch c.Source {
	case models.CollectionCompanies:
		if w := r.Website(); w != "" {
			parts = append(parts, w)
		}
		if city := r.City(); city != "" {
			parts = append(parts, city)
		}
	case models.CollectionPeople, models.CollectionLeads:
		role := r.Title()
		if co := r.CompanyName(); co != "" {
			if role != "" {
				role += " @ " + co
			} else {
				role = co
			}
		}
		if role != "" {
			parts = append(parts, role)
		}
		if emails := r.Emails(); len(emails) > 0 {
			parts = append(parts, emails[0])
		}
	case models.CollectionOpportunities:
		if v := r.MonetaryValue(); v != "" {
			parts = append(parts, "$"+v)
		}
		if s := r.Status(); s != "" {
			parts = append(parts, s)
		}
	case models.CollectionTasks:
		if d := r.DueDate(); d != "" {
			parts = append(parts, "due "+d)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " - " + strings.Join(parts, ", ")
}

func displayName(r models.Record) string {
	if n := r.Name(); n != "" {
		return n
	}
	return "Unknown"
}

// Intelligence renders the chosen record followed by one section per requested relation.
func Intelligence(entity models.MatchCandidate, include []models.Relation, related models.RelatedData) string {
	r := entity.Record
	sections := []string{"Business Intelligence: " + displayName(r), ""}
	sections = append(sections, details(entity)...)

	for _, rel := range include {
		records := related[rel]
		if len(records) == 0 {
			continue
		}
		sections = append(sections, "")
		sections = append(sections, relationSection(rel, records)...)
	}
	return strings.Join(sections, "\n")
}

func details(c models.MatchCandidate) []string {
	r := c.Record
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}

	switch c.Source {
	case models.CollectionCompanies:
		lines = append(lines, "Company Details")
		add("Website", r.Website())
		add("Industry", r.Industry())
		add("Phone", first(r.PhoneNumbers()))
		add("Location", location(r))
	case models.CollectionPeople:
		lines = append(lines, "Contact Details")
		add("Title", r.Title())
		add("Company", r.CompanyName())
		add("Email", first(r.Emails()))
		add("Phone", first(r.PhoneNumbers()))
	case models.CollectionOpportunities:
		lines = append(lines, "Opportunity Details")
		add("Value", dollars(r.MonetaryValue()))
		add("Status", r.Status())
		add("Stage", r.Stage())
		add("Company", r.CompanyName())
		add("Owner", r.AssigneeName())
	case models.CollectionLeads:
		lines = append(lines, "Lead Details")
		add("Company", r.CompanyName())
		add("Status", r.Status())
		add("Email", first(r.Emails()))
		add("Value", dollars(r.MonetaryValue()))
	case models.CollectionTasks:
		lines = append(lines, "Task Details")
		add("Status", r.Status())
		add("Priority", r.Priority())
		add("Due", r.DueDate())
		add("Assignee", r.AssigneeName())
		if rr := r.RelatedResource(); rr.Name != "" {
			add("Related to", rr.Name)
		}
	}
	add("Notes", truncate(r.Details(), 200))
	return lines
}

func relationSection(rel models.Relation, records []models.Record) []string {
	var (
		title string
		limit int
		line  func(models.Record) string
	)
	switch rel {
	case models.RelationContacts:
		title, limit = "Contacts", contactLimit
		line = func(r models.Record) string { return joinNonEmpty(displayName(r), first(r.Emails())) }
	case models.RelationCompanies:
		title, limit = "Companies", companyLimit
		line = func(r models.Record) string { return joinNonEmpty(displayName(r), r.Website()) }
	case models.RelationOpportunities:
		title, limit = "Opportunities", opportunityLimit
		line = func(r models.Record) string {
			return joinNonEmpty(displayName(r), dollars(r.MonetaryValue()), parens(r.Status()))
		}
	case models.RelationLeads:
		title, limit = "Leads", leadLimit
		line = func(r models.Record) string { return joinNonEmpty(displayName(r), parens(r.Status())) }
	case models.RelationTasks:
		title, limit = "Tasks", taskLimit
		line = func(r models.Record) string {
			due := r.DueDate()
			if due == "" {
				due = "no due date"
			} else {
				due = "due " + due
			}
			return joinNonEmpty(displayName(r), due)
		}
	default:
		title, limit = string(rel), contactLimit
		line = displayName
	}

	out := []string{fmt.Sprintf("%s (%d)", title, len(records))}
	for i, r := range records {
		if i == limit {
			out = append(out, fmt.Sprintf("  ... and %d more", len(records)-limit))
			break
		}
		out = append(out, "  - "+line(r))
	}
	return out
}

func location(r models.Record) string {
	city, state := r.City(), r.State()
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	}
	return state
}

func dollars(v string) string {
	if v == "" || v == "0" {
		return ""
	}
	return "$" + v
}

func parens(s string) string {
	if s == "" {
		return ""
	}
	return "(" + s + ")"
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " - ")
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
