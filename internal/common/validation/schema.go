// Package validation checks job variables against the JSON schemas declared in the activity registry.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"copper-intel-workers/pkg/registry"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator holds compiled input schemas keyed by task type.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles the input schema of every registry activity that declares one.
func NewValidator(reg *registry.ActivityRegistry) (*Validator, error) {
	schemas := make(map[string]map[string]interface{}, len(reg.Activities))
	for _, a := range reg.Activities {
		if len(a.InputSchema) > 0 {
			schemas[a.TaskType] = a.InputSchema
		}
	}
	return NewValidatorFromSchemas(schemas)
}

// NewValidatorFromSchemas compiles schemas given directly by task type.
func NewValidatorFromSchemas(schemas map[string]map[string]interface{}) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(schemas))}
	for taskType, doc := range schemas {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
		if err != nil {
			return nil, fmt.Errorf("compile input schema for %s: %w", taskType, err)
		}
		v.schemas[taskType] = compiled
	}
	return v, nil
}

// HasSchema reports whether an input schema is registered for taskType.
func (v *Validator) HasSchema(taskType string) bool {
	if v == nil {
		return false
	}
	_, ok := v.schemas[taskType]
	return ok
}

// ValidateInput validates variables against the schema for taskType. A nil validator or a
// task type without a schema accepts everything.
func (v *Validator) ValidateInput(taskType string, variables map[string]interface{}) *ValidationResult {
	if v == nil {
		return &ValidationResult{Valid: true}
	}
	schema, ok := v.schemas[taskType]
	if !ok {
		return &ValidationResult{Valid: true}
	}
	if variables == nil {
		variables = map[string]interface{}{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(variables))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "UNREADABLE_DOCUMENT",
			}},
		}
	}
	return fromResult(result)
}

// ValidateDocument validates doc against an ad-hoc schema.
func ValidateDocument(schema, doc map[string]interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return fromResult(result), nil
}

func fromResult(result *gojsonschema.Result) *ValidationResult {
	if result.Valid() {
		return &ValidationResult{Valid: true}
	}
	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok && field != prop && !strings.HasSuffix(field, "."+prop) {
				if field == "(root)" {
					field = prop
				} else {
					field = field + "." + prop
				}
			}
		}
		errs = append(errs, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return &ValidationResult{Valid: false, Errors: errs}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			return true
		}
	}
	return false
}
