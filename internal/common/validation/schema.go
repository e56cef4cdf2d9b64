// Package validation checks operator input against JSON schemas before it
// reaches the workflow.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/models"

	"github.com/xeipuuv/gojsonschema"
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

const leadSchemaJSON = `{
  "type": "object",
  "properties": {
    "mobile": {"type": "string", "pattern": "^[0-9]{10}$"},
    "pan":    {"type": "string", "pattern": "^[A-Z]{5}[0-9]{4}[A-Z]$"},
    "email":  {"type": "string", "pattern": "^.+@.+\\..+$"}
  },
  "required": ["mobile", "pan"]
}`

const incomePlanSchemaJSON = `{
  "type": "object",
  "properties": {
    "earnAmount":    {"type": "number", "minimum": 0},
    "earnPeriod":    {"type": "string", "enum": ["MONTHLY", "QUARTERLY", "ANNUAL"]},
    "ats":           {"type": "number", "minimum": 0},
    "conversionPct": {"type": "number", "minimum": 0, "maximum": 100}
  },
  "required": ["earnPeriod"]
}`

var (
	leadSchema       = mustSchema(leadSchemaJSON)
	incomePlanSchema = mustSchema(incomePlanSchemaJSON)
)

var fieldMessages = map[string]string{
	"mobile":        "Enter a valid 10-digit mobile number",
	"pan":           "Enter a valid PAN (e.g. ABCDE1234F)",
	"email":         "Enter a valid email address",
	"earnPeriod":    "Choose a monthly, quarterly or annual period",
	"conversionPct": "Conversion must be between 0 and 100",
}

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("validation: invalid schema: %v", err))
	}
	return s
}

var mobileNoise = regexp.MustCompile(`[\s-]`)

// NormalizeMobile strips a +91 prefix, spaces and dashes.
func NormalizeMobile(mobile string) string {
	m := strings.TrimSpace(mobile)
	m = strings.TrimPrefix(m, "+91")
	return mobileNoise.ReplaceAllString(m, "")
}

// NormalizeLead returns lead in the form it is validated and stored in.
func NormalizeLead(lead models.Lead) models.Lead {
	return models.Lead{
		Mobile: NormalizeMobile(lead.Mobile),
		PAN:    strings.ToUpper(strings.TrimSpace(lead.PAN)),
		Email:  strings.TrimSpace(lead.Email),
	}
}

// ValidateLead normalizes lead and validates it. The normalized lead is
// returned even when invalid.
func ValidateLead(lead models.Lead) (models.Lead, *ValidationResult, error) {
	n := NormalizeLead(lead)
	doc := map[string]interface{}{
		"mobile": n.Mobile,
		"pan":    n.PAN,
	}
	if n.Email != "" {
		doc["email"] = n.Email
	}
	res, err := validate(leadSchema, doc)
	return n, res, err
}

// ValidateIncomePlan checks the operator-entered income plan inputs.
func ValidateIncomePlan(plan models.IncomePlan) (*ValidationResult, error) {
	return validate(incomePlanSchema, map[string]interface{}{
		"earnAmount":    plan.EarnAmount,
		"earnPeriod":    plan.EarnPeriod,
		"ats":           plan.ATS,
		"conversionPct": plan.ConversionPct,
	})
}

func validate(schema *gojsonschema.Schema, doc map[string]interface{}) (*ValidationResult, error) {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	seen := map[string]bool{}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if p, ok := desc.Details()["property"].(string); ok {
				field = p
			}
		}
		if seen[field] {
			continue
		}
		seen[field] = true

		msg, ok := fieldMessages[field]
		if !ok {
			msg = desc.Description()
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: msg,
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.Slice(out.Errors, func(i, j int) bool { return out.Errors[i].Field < out.Errors[j].Field })
	return out, nil
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
		if err.Field == field {
			return true
		}
	}
	return false
}

// FieldMessages maps each failing field to its message.
func (vr *ValidationResult) FieldMessages() map[string]string {
	out := make(map[string]string, len(vr.Errors))
	for _, err := range vr.Errors {
		out[err.Field] = err.Message
	}
	return out
}

// Err converts an invalid result into a local validation error, or nil.
func (vr *ValidationResult) Err() error {
	if vr == nil || vr.Valid {
		return nil
	}
	fields := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		fields = append(fields, e.Field)
	}
	return errors.NewValidationError(strings.Join(fields, ","), strings.Join(vr.GetErrorMessages(), "; ")).
		WithMetadata("fields", vr.FieldMessages())
}
