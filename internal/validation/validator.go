// Package validation wraps a shared go-playground validator.  Services tag
// their input structs and translate the reported field errors into their
// own sentinel errors, so no validator types leak past the service layer.
package validation

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	Field string // struct field name
	Tag   string // failed rule, e.g. "required" or "max"
	Param string // rule parameter, e.g. "15" for max=15
}

// Errors is the list of failed rules in struct field order.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+" failed "+fe.Tag)
	}
	return strings.Join(parts, "; ")
}

// Has reports whether any field failed the given rule.
func (e Errors) Has(tag string) bool {
	for _, fe := range e {
		if fe.Tag == tag {
			return true
		}
	}
	return false
}

// Field returns the first failure for a field.
func (e Errors) Field(name string) (FieldError, bool) {
	for _, fe := range e {
		if fe.Field == name {
			return fe, true
		}
	}
	return FieldError{}, false
}

// Get returns the singleton validator.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Struct validates s and returns nil or Errors.  A non-validation failure,
// such as passing a non-struct, is returned unchanged.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.StructField(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}
