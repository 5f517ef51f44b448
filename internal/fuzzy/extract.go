package fuzzy

import "copper-intel-workers/internal/models"

type extractor func(models.Record) []string

func one(f func(models.Record) string) extractor {
	return func(r models.Record) []string {
		if v := f(r); v != "" {
			return []string{v}
		}
		return nil
	}
}

func relatedName(r models.Record) string { return r.RelatedResource().Name }

var (
	companyExtractors = []extractor{
		one(models.Record.Name),
		one(models.Record.Website),
		one(models.Record.Industry),
		one(models.Record.City),
		one(models.Record.State),
	}

	personExtractors = []extractor{
		one(models.Record.Name),
		one(models.Record.FullName),
		models.Record.Emails,
		models.Record.PhoneNumbers,
		one(models.Record.CompanyName),
		one(models.Record.Title),
	}

	leadExtractors = []extractor{
		one(models.Record.Name),
		one(models.Record.FullName),
		models.Record.Emails,
		models.Record.PhoneNumbers,
		one(models.Record.CompanyName),
		one(models.Record.Title),
		one(models.Record.City),
		one(models.Record.State),
	}

	opportunityExtractors = []extractor{
		one(models.Record.Name),
		one(models.Record.CompanyName),
		one(models.Record.ContactName),
		one(models.Record.Status),
		one(models.Record.Stage),
	}

	taskExtractors = []extractor{
		one(models.Record.Name),
		one(models.Record.Details),
		one(models.Record.AssigneeName),
		one(relatedName),
		one(models.Record.Status),
		one(models.Record.Priority),
	}
)

func extractorsFor(c models.Collection) []extractor {
	switch c {
	case models.CollectionCompanies:
		return companyExtractors
	case models.CollectionPeople:
		return personExtractors
	case models.CollectionLeads:
		return leadExtractors
	case models.CollectionOpportunities:
		return opportunityExtractors
	case models.CollectionTasks:
		return taskExtractors
	}
	return nil
}

// Extract returns the searchable strings of a record for its collection. Missing
// fields contribute nothing; the result never contains empty strings.
func Extract(c models.Collection, r models.Record) []string {
	var out []string
	for _, ex := range extractorsFor(c) {
		for _, v := range ex(r) {
			if v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
