package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// WarningPrefix marks advisory messages in a combined message list.
const WarningPrefix = "WARNING: "

// Severity separates blocking problems from advisory ones.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// ValidationError represents one finding against a field.
type ValidationError struct {
	Field    string
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	if e.Severity == SeverityWarning {
		return WarningPrefix + e.Message
	}
	return e.Message
}

// Validator collects findings in the order they are raised.
type Validator struct {
	issues []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		issues: make([]ValidationError, 0),
	}
}

// Errorf records a blocking finding.
func (v *Validator) Errorf(field, format string, args ...any) *Validator {
	v.issues = append(v.issues, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	return v
}

// Warnf records an advisory finding.
func (v *Validator) Warnf(field, format string, args ...any) *Validator {
	v.issues = append(v.issues, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
	return v
}

// Required records message as an error when value is missing and reports whether it was present.
func (v *Validator) Required(field string, value any, message string) bool {
	if IsBlank(value) {
		v.Errorf(field, "%s", message)
		return false
	}
	return true
}

// HasErrors returns true if there are blocking findings
func (v *Validator) HasErrors() bool {
	for _, is := range v.issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns blocking messages.
func (v *Validator) Errors() []string { return v.messages(SeverityError) }

// Warnings returns advisory messages without the prefix.
func (v *Validator) Warnings() []string { return v.messages(SeverityWarning) }

// Messages returns errors first, then prefixed warnings.
func (v *Validator) Messages() []string {
	out := v.Errors()
	for _, w := range v.Warnings() {
		out = append(out, WarningPrefix+w)
	}
	return out
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	return strings.Join(v.Errors(), "; ")
}

func (v *Validator) messages(s Severity) []string {
	out := make([]string, 0, len(v.issues))
	for _, is := range v.issues {
		if is.Severity == s {
			out = append(out, is.Message)
		}
	}
	return out
}

// IsBlank reports whether a field value counts as absent.
func IsBlank(value any) bool {
	switch x := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case *string:
		return x == nil || strings.TrimSpace(*x) == ""
	case decimal.NullDecimal:
		return !x.Valid
	case *decimal.Decimal:
		return x == nil
	default:
		return false
	}
}
