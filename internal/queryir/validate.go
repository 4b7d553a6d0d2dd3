package queryir

import (
	"fmt"
)

// ValidationResult describes whether an expression stays within the
// grammar the SQL compiler translates.
type ValidationResult struct {
	// Supported is true when every node is translatable.
	Supported bool

	// Issues lists each untranslatable node, in traversal order.
	// Empty when Supported is true.
	Issues []string
}

// Validate checks an expression against the compilable grammar:
//
//  1. Predicates combine only with && and ||
//  2. Comparisons are ==, !=, >, >=, < and <=
//  3. Operands are parameters, constants or member chains over them
//  4. A Lambda is accepted at the root only and validates its body
//
// Validate does not consult a schema; member names are checked later
// during compilation. It is a pure function with no side effects.
func Validate(e Expr) ValidationResult {
	v := &validator{
		issues: []string{},
	}
	if l, ok := e.(*Lambda); ok {
		e = l.Body
	}
	v.validatePredicate(e)

	return ValidationResult{
		Supported: len(v.issues) == 0,
		Issues:    v.issues,
	}
}

// validator accumulates issues during traversal.
type validator struct {
	issues []string
}

// addIssue appends an issue message.
func (v *validator) addIssue(format string, args ...any) {
	v.issues = append(v.issues, fmt.Sprintf(format, args...))
}

func (v *validator) validatePredicate(e Expr) {
	if e == nil {
		v.addIssue("nil predicate")
		return
	}

	switch x := e.(type) {
	case *Binary:
		switch {
		case x.Op.IsLogical():
			v.validatePredicate(x.Left)
			v.validatePredicate(x.Right)
		case x.Op.IsComparison():
			v.validateOperand(x.Left)
			v.validateOperand(x.Right)
		default:
			v.addIssue("unsupported expression kind %s: %s", x.Op, Format(x))
		}
	case *Member, *Parameter, *Constant:
		// A bare boolean value is not a predicate the compiler can lift
		// or place in WHERE.
		v.addIssue("unsupported expression kind %s: %s is not a comparison", e.Kind(), Format(e))
	default:
		v.addIssue("unsupported expression kind %s: %s", e.Kind(), Format(e))
	}
}

func (v *validator) validateOperand(e Expr) {
	if e == nil {
		v.addIssue("nil operand")
		return
	}

	switch x := e.(type) {
	case *Parameter, *Constant:
		return
	case *Member:
		v.validateOperand(x.Expr)
	default:
		v.addIssue("unsupported expression kind %s: %s", e.Kind(), Format(e))
	}
}
