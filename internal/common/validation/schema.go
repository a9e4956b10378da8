// Package validation checks inbound payloads against JSON schemas before they
// reach the engine.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/budget"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

const (
	MaxMessageLength  = 5000
	MaxPortfolioLinks = 20
	MaxBulkSelection  = 500
)

const proposalSchema = `{
	"type": "object",
	"required": ["message"],
	"properties": {
		"message":          {"type": "string", "minLength": 1, "maxLength": 5000},
		"proposedBudget":   {"type": "string", "maxLength": 100},
		"proposedTimeline": {"type": "string", "maxLength": 200},
		"portfolioLinks": {
			"type": "array",
			"maxItems": 20,
			"items": {"type": "string", "pattern": "^https?://[^\\s/$.?#][^\\s]*$"}
		}
	}
}`

const actorProperties = `
		"actorId":   {"type": "string", "minLength": 1},
		"actorRole": {"type": "string", "enum": ["brand", "creator"]}`

const statusEnum = `["pending", "approved", "rejected", "in_discussion", "withdrawn", "submitted", "accepted"]`

// Schema is a compiled request schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

func (s Schema) Name() string { return s.name }

var (
	ProposalSchema = mustCompile("proposal", proposalSchema)

	TransitionSchema = mustCompile("transition", `{
	"type": "object",
	"required": ["applicationId", "targetStatus", "actorId", "actorRole"],
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"targetStatus":  {"type": "string", "enum": `+statusEnum+`},`+actorProperties+`
	}
}`)

	BulkTransitionSchema = mustCompile("bulk-transition", `{
	"type": "object",
	"required": ["applicationIds", "targetStatus", "actorId", "actorRole"],
	"properties": {
		"applicationIds": {
			"type": "array",
			"maxItems": 500,
			"items": {"type": "string", "minLength": 1}
		},
		"targetStatus": {"type": "string", "enum": `+statusEnum+`},`+actorProperties+`
	}
}`)

	SubmissionSchema = mustCompile("submission", `{
	"type": "object",
	"required": ["campaignId", "proposal", "actorId", "actorRole"],
	"properties": {
		"campaignId": {"type": "string", "minLength": 1},
		"proposal":   `+proposalSchema+`,`+actorProperties+`
	}
}`)

	ListingSchema = mustCompile("listing", `{
	"type": "object",
	"properties": {
		"search":     {"type": "string", "maxLength": 200},
		"categories": {"type": "array", "items": {"type": "string"}},
		"statuses":   {"type": "array", "items": {"type": "string"}},
		"minBudget":  {"type": "integer", "minimum": 0},
		"maxBudget":  {"type": "integer", "minimum": 0},
		"sortBy":     {"type": "string", "enum": ["relevance", "newest", "budget", "deadline"]},
		"page":       {"type": "integer", "minimum": 1},
		"pageSize":   {"type": "integer", "minimum": 1}
	}
}`)
)

func mustCompile(name, raw string) Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("validation: schema %s: %v", name, err))
	}
	return Schema{name: name, schema: s}
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validate checks doc, any JSON-marshalable value, against schema.
func Validate(schema Schema, doc interface{}) *ValidationResult {
	result, err := schema.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "INVALID_DOCUMENT",
		}}}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldOf(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}

// fieldOf reports the offending property. Missing required properties are
// attributed to the property itself rather than its parent.
func fieldOf(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if desc.Type() != "required" {
		return field
	}
	prop, ok := desc.Details()["property"].(string)
	if !ok {
		return field
	}
	if field == gojsonschema.STRING_CONTEXT_ROOT || field == "" {
		return prop
	}
	return field + "." + prop
}

// Check validates doc and converts failures into a VALIDATION_FAILED error.
func Check(schema Schema, doc interface{}) error {
	res := Validate(schema, doc)
	if res.Valid {
		return nil
	}
	return apperrors.NewValidationError(strings.Join(res.GetErrorMessages(), "; ")).
		WithMetadata("schema", schema.name).
		WithMetadata("fields", res.fields())
}

// ValidateProposal enforces the proposal schema plus the rules JSON schema
// cannot express: a non-blank message and a parseable budget.
func ValidateProposal(p models.Proposal) error {
	if err := Check(ProposalSchema, p); err != nil {
		return err
	}
	if strings.TrimSpace(p.Message) == "" {
		return apperrors.NewValidationError("message: must not be blank")
	}
	if p.ProposedBudget != "" {
		if _, ok := budget.Parse(p.ProposedBudget); !ok {
			return apperrors.NewValidationError(fmt.Sprintf("proposedBudget: %q is not a budget", p.ProposedBudget))
		}
	}
	return nil
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
	return len(vr.GetErrorsForField(field)) > 0
}

// GetErrorsForField returns errors for a field and its nested children.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}

func (vr *ValidationResult) fields() []string {
	seen := make(map[string]struct{}, len(vr.Errors))
	var out []string
	for _, err := range vr.Errors {
		if _, ok := seen[err.Field]; ok {
			continue
		}
		seen[err.Field] = struct{}{}
		out = append(out, err.Field)
	}
	return out
}
