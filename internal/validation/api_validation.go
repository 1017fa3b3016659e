package validation

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError is one field-level violation, kept structured for the API.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// ValidationResult collects violations. The gateway stops at the first one
// (fail fast), so in practice Errors holds a single entry there.
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Errors []*ValidationError `json:"errors,omitempty"`
}

func NewResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

func (vr *ValidationResult) AddError(field, value, message, code string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Code:    code,
	})
}

// First returns the first violation, or nil.
func (vr *ValidationResult) First() *ValidationError {
	if len(vr.Errors) == 0 {
		return nil
	}
	return vr.Errors[0]
}

// APIValidator validates request parameters at the HTTP boundary.
type APIValidator struct{}

func NewAPIValidator() *APIValidator {
	return &APIValidator{}
}

// ValidateUUIDParam parses a path or header UUID.
func (v *APIValidator) ValidateUUIDParam(field, raw string) (uuid.UUID, *ValidationResult) {
	result := NewResult()

	if raw == "" {
		result.AddError(field, raw, "is required", "REQUIRED")
		return uuid.Nil, result
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		result.AddError(field, raw, "must be a valid UUID", "INVALID_UUID")
		return uuid.Nil, result
	}

	return id, result
}

// ValidateListParams checks paging and state filter values.
func (v *APIValidator) ValidateListParams(state string, limit, offset int) *ValidationResult {
	result := NewResult()

	switch state {
	case "", "created", "queued", "running", "succeeded", "failed":
	default:
		result.AddError("state", state, "unknown job state", "INVALID_STATE")
	}

	if limit < 0 || limit > 500 {
		result.AddError("limit", fmt.Sprintf("%d", limit), "must be between 0 and 500", "INVALID_LIMIT")
	}

	if offset < 0 {
		result.AddError("offset", fmt.Sprintf("%d", offset), "must not be negative", "INVALID_OFFSET")
	}

	return result
}
