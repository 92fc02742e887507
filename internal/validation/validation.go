// Package validation holds the field and record rules applied to customer
// forms before anything is sent to the record store.
package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/go-playground/validator/v10"
)

// ErrorSet maps a field to its current message; a missing key means valid
type ErrorSet = domain.ValidationErrors

// Rule identifiers reported by the validator
const (
	RuleRequired      = "required"
	RuleNonBlank      = "nonblank"
	RuleInvalidFormat = "contact_email"
	RuleTooShort      = "min"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// messages per field and failed rule
var messages = map[string]map[string]string{
	domain.FieldName: {
		RuleNonBlank: "Name is required",
		RuleRequired: "Name is required",
	},
	domain.FieldEmail: {
		RuleRequired:      "Email is required",
		RuleInvalidFormat: "Invalid email format",
	},
	domain.FieldPhone: {
		RuleRequired: "Phone is required",
		RuleTooShort: "Min 10 digits",
	},
}

// Engine validates customer records. It is safe for concurrent use.
type Engine struct {
	validate *validator.Validate
	tags     map[string]string
}

// New creates a validation engine with the customer rules registered
func New() *Engine {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Both custom rules are pure string checks and never fail to register
	_ = v.RegisterValidation(RuleNonBlank, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation(RuleInvalidFormat, func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})

	return &Engine{
		validate: v,
		tags: map[string]string{
			domain.FieldName:  RuleNonBlank,
			domain.FieldEmail: RuleRequired + "," + RuleInvalidFormat,
			domain.FieldPhone: RuleRequired + "," + RuleTooShort + "=10",
		},
	}
}

// ValidateCustomer runs every field rule and returns the full error set.
// The record is submittable iff the set is empty.
func (e *Engine) ValidateCustomer(c domain.Customer) ErrorSet {
	set := ErrorSet{}
	for _, field := range domain.CustomerFields {
		if msg := e.FieldError(field, c.Field(field)); msg != "" {
			set[field] = msg
		}
	}
	return set
}

// FieldError returns the message for a single field value, or "" when valid.
// Fields without rules are always valid.
func (e *Engine) FieldError(field, value string) string {
	tag, ok := e.tags[field]
	if !ok {
		return ""
	}

	err := e.validate.Var(value, tag)
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if msg, ok := messages[field][fieldErrs[0].Tag()]; ok {
			return msg
		}
	}
	return "Invalid value"
}

// ValidateField recomputes one field and merges the result into a copy of set.
// Other fields' messages are left as they were.
func (e *Engine) ValidateField(set ErrorSet, field, value string) ErrorSet {
	merged := make(ErrorSet, len(set)+1)
	for k, v := range set {
		merged[k] = v
	}

	if msg := e.FieldError(field, value); msg != "" {
		merged[field] = msg
	} else {
		delete(merged, field)
	}
	return merged
}

// Submittable reports whether the record passes every rule
func (e *Engine) Submittable(c domain.Customer) bool {
	return !e.ValidateCustomer(c).HasErrors()
}
