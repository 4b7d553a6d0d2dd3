package meta

import (
	"fmt"
	"strings"
)

// Validation error codes (E100-E199)
const (
	ErrNoColumns          = "E101" // entity declares no columns
	ErrNoIdentity         = "E102" // entity has no identity column
	ErrUnknownType        = "E103" // column type is neither scalar nor an entity
	ErrUnknownReference   = "E104" // foreign key references an unknown entity or member
	ErrInvalidNavigation  = "E105" // navigation via is missing or not a foreign key
	ErrNavigationMismatch = "E106" // navigation type differs from the foreign key's target
	ErrDuplicateColumn    = "E107" // two members map to the same column name
)

// ScalarTypes lists the column types that are not entity references.
var ScalarTypes = []string{"string", "int", "float", "bool", "decimal", "time", "bytes", "uuid"}

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors collects every problem found in a schema.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks referential consistency of a schema.
// Returns all errors found (does not fail-fast).
func Validate(s *Schema) ValidationErrors {
	var errs ValidationErrors

	for _, e := range s.Entities() {
		if len(e.Columns) == 0 {
			errs = append(errs, ValidationError{
				Field:   e.Name,
				Message: "entity must declare at least one column",
				Code:    ErrNoColumns,
			})
			continue
		}
		if len(e.Identity()) == 0 {
			errs = append(errs, ValidationError{
				Field:   e.Name,
				Message: "entity must declare an identity column",
				Code:    ErrNoIdentity,
			})
		}

		names := make(map[string]string)
		for _, c := range e.Columns {
			errs = append(errs, validateColumn(s, e, c)...)
			if c.IsNavigation() {
				continue
			}
			if other, dup := names[strings.ToLower(c.Name)]; dup {
				errs = append(errs, ValidationError{
					Field:   e.Name + "." + c.Member,
					Message: fmt.Sprintf("column %q is also mapped by %s", c.Name, other),
					Code:    ErrDuplicateColumn,
				})
			}
			names[strings.ToLower(c.Name)] = c.Member
		}
	}

	return errs
}

func validateColumn(s *Schema, e *Entity, c *Column) ValidationErrors {
	field := e.Name + "." + c.Member

	if c.IsNavigation() {
		if _, ok := s.Entity(c.Type); !ok {
			return ValidationErrors{{
				Field:   field,
				Message: fmt.Sprintf("navigation type %q is not an entity", c.Type),
				Code:    ErrUnknownType,
			}}
		}
		fk, ok := e.Column(c.Via)
		if !ok || fk.Ref == nil {
			return ValidationErrors{{
				Field:   field,
				Message: fmt.Sprintf("via %q must name a foreign-key column of %s", c.Via, e.Name),
				Code:    ErrInvalidNavigation,
			}}
		}
		if fk.Ref.Entity != c.Type {
			return ValidationErrors{{
				Field:   field,
				Message: fmt.Sprintf("navigation type %s does not match %s references %s", c.Type, fk.Member, fk.Ref),
				Code:    ErrNavigationMismatch,
			}}
		}
		return nil
	}

	if !isScalar(c.Type) {
		return ValidationErrors{{
			Field:   field,
			Message: fmt.Sprintf("unknown column type %q (navigation properties need via)", c.Type),
			Code:    ErrUnknownType,
		}}
	}

	if c.Ref != nil {
		target, ok := s.Entity(c.Ref.Entity)
		if !ok {
			return ValidationErrors{{
				Field:   field,
				Message: fmt.Sprintf("references unknown entity %s", c.Ref.Entity),
				Code:    ErrUnknownReference,
			}}
		}
		if pk, ok := target.Column(c.Ref.Member); !ok || pk.IsNavigation() {
			return ValidationErrors{{
				Field:   field,
				Message: fmt.Sprintf("references unknown column %s", c.Ref),
				Code:    ErrUnknownReference,
			}}
		}
	}
	return nil
}

func isScalar(t string) bool {
	for _, s := range ScalarTypes {
		if s == t {
			return true
		}
	}
	return false
}
