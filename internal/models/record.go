package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is a CRM record as an attribute bag. Accessors never fail: an absent or
// wrongly typed field reads as the zero value.
type Record map[string]interface{}

func (r Record) str(key string) string {
	return toString(r[key])
}

func (r Record) nested(key string) Record {
	if m, ok := r[key].(map[string]interface{}); ok {
		return Record(m)
	}
	if m, ok := r[key].(Record); ok {
		return m
	}
	return nil
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	}
	return ""
}

func (r Record) ID() string    { return r.str("id") }
func (r Record) Title() string { return r.str("title") }

// Name falls back to "first last" when the record has no name field.
func (r Record) Name() string {
	if n := r.str("name"); n != "" {
		return n
	}
	return r.FullName()
}

func (r Record) FirstName() string { return r.str("first_name") }
func (r Record) LastName() string  { return r.str("last_name") }

// FullName joins first and last name, or is empty unless both are present.
func (r Record) FullName() string {
	first, last := r.FirstName(), r.LastName()
	if first == "" || last == "" {
		return ""
	}
	return first + " " + last
}

// Emails returns addresses from the emails list and the single lead email object.
func (r Record) Emails() []string {
	var out []string
	if list, ok := r["emails"].([]interface{}); ok {
		for _, item := range list {
			if m, ok := item.(map[string]interface{}); ok {
				if e := toString(m["email"]); e != "" {
					out = append(out, e)
				}
			}
		}
	}
	if e := r.nested("email").str("email"); e != "" {
		out = append(out, e)
	}
	return out
}

func (r Record) PhoneNumbers() []string {
	var out []string
	if list, ok := r["phone_numbers"].([]interface{}); ok {
		for _, item := range list {
			if m, ok := item.(map[string]interface{}); ok {
				if n := toString(m["number"]); n != "" {
					out = append(out, n)
				}
			}
		}
	}
	return out
}

func (r Record) CompanyName() string      { return r.str("company_name") }
func (r Record) CompanyID() string        { return r.str("company_id") }
func (r Record) PrimaryContactID() string { return r.str("primary_contact_id") }
func (r Record) ContactName() string      { return r.str("contact_name") }
func (r Record) Industry() string         { return r.str("industry") }
func (r Record) Website() string          { return r.str("website") }
func (r Record) City() string             { return r.nested("address").str("city") }
func (r Record) State() string            { return r.nested("address").str("state") }
func (r Record) Status() string           { return r.str("status") }
func (r Record) Stage() string            { return r.str("stage") }
func (r Record) Details() string          { return r.str("details") }
func (r Record) Priority() string         { return r.str("priority") }
func (r Record) MonetaryValue() string    { return r.str("monetary_value") }
func (r Record) DueDate() string          { return r.str("due_date") }

// AssigneeName reads assignee_name, falling back to assignee.name.
func (r Record) AssigneeName() string {
	if n := r.str("assignee_name"); n != "" {
		return n
	}
	return r.nested("assignee").str("name")
}

// RelatedResource is a task's reference to the record it belongs to.
type RelatedResource struct {
	ID   string
	Type string
	Name string
}

func (r Record) RelatedResource() RelatedResource {
	rr := r.nested("related_resource")
	return RelatedResource{ID: rr.str("id"), Type: rr.str("type"), Name: rr.str("name")}
}

// MatchCandidate is a record that scored at or above threshold.
type MatchCandidate struct {
	Record Record     `json:"record"`
	Source Collection `json:"source"`
	Score  float64    `json:"score"`
}
