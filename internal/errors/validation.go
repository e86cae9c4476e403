package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationBuilder accumulates field-level validation errors and builds a
// single InvalidArgument error, or nil when no errors were recorded. Used by
// Config.Validate implementations across the module.
type ValidationBuilder struct {
	fields map[string][]string
}

// NewValidationBuilder creates a new validation builder
func NewValidationBuilder() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make(map[string][]string),
	}
}

// Field adds a validation error for a field
func (vb *ValidationBuilder) Field(field, message string) *ValidationBuilder {
	vb.fields[field] = append(vb.fields[field], message)
	return vb
}

// Fieldf adds a formatted validation error for a field
func (vb *ValidationBuilder) Fieldf(field, format string, args ...interface{}) *ValidationBuilder {
	return vb.Field(field, fmt.Sprintf(format, args...))
}

// RequiredField adds a required field error
func (vb *ValidationBuilder) RequiredField(field string) *ValidationBuilder {
	return vb.Field(field, "is required")
}

// PositiveField adds an error for a numeric field that must be positive
func (vb *ValidationBuilder) PositiveField(field string) *ValidationBuilder {
	return vb.Field(field, "must be positive")
}

// HasErrors returns true if any validation errors were recorded
func (vb *ValidationBuilder) HasErrors() bool {
	return len(vb.fields) > 0
}

// Build returns an InvalidArgument error describing every recorded field
// error, or nil when validation passed.
func (vb *ValidationBuilder) Build() error {
	if !vb.HasErrors() {
		return nil
	}

	names := make([]string, 0, len(vb.fields))
	for field := range vb.fields {
		names = append(names, field)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, field := range names {
		parts[i] = fmt.Sprintf("%s: %s", field, strings.Join(vb.fields[field], ", "))
	}

	err := InvalidArgumentf("validation failed: %s", strings.Join(parts, "; "))
	return err.WithMeta("validation_errors", vb.fields)
}
