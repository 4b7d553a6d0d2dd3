package querysql

import (
	"errors"
	"fmt"

	"github.com/roach88/liftsql/internal/sqlast"
)

// CompileError is a build-time failure of a query definition.
//
// Compile errors are fatal to the definition being compiled:
//   - Unsupported expression: a node outside the closed grammar
//   - Invalid usage: an unregistered parameter or a missing argument
//   - Mapping: a member or navigation the metadata cannot resolve
//   - Invalid operation: an illegal compiler state transition
//   - Invalid expression: a join rendered without an ON-expression
type CompileError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Kind names the offending expression node kind, if any.
	Kind string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeUnsupported indicates an expression kind outside the grammar.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_EXPRESSION"

	// ErrCodeInvalidUsage indicates an argument error, such as a parameter
	// that was never registered.
	ErrCodeInvalidUsage ErrorCode = "INVALID_USAGE"

	// ErrCodeMapping indicates a member or navigation with no resolvable
	// column or dependency.
	ErrCodeMapping ErrorCode = "MAPPING"

	// ErrCodeInvalidOperation indicates an illegal state transition.
	ErrCodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// ErrCodeInvalidExpression indicates a malformed compiled expression.
	ErrCodeInvalidExpression ErrorCode = "INVALID_EXPRESSION"
)

// Error implements the error interface.
func (e *CompileError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func unsupported(kind fmt.Stringer, source string) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnsupported,
		Message: fmt.Sprintf("unsupported expression kind %s: %s", kind, source),
		Kind:    kind.String(),
	}
}

func mappingError(err error) *CompileError {
	return &CompileError{Code: ErrCodeMapping, Message: "cannot resolve member", Err: err}
}

func hasCode(err error, code ErrorCode) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsUnsupported returns true if the error names an unsupported expression.
// Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool {
	return hasCode(err, ErrCodeUnsupported)
}

// IsInvalidUsage returns true if the error is an argument error.
func IsInvalidUsage(err error) bool {
	return hasCode(err, ErrCodeInvalidUsage)
}

// IsMappingError returns true if the error is a metadata resolution error.
func IsMappingError(err error) bool {
	return hasCode(err, ErrCodeMapping)
}

// IsInvalidOperation returns true if the error is an illegal state transition.
func IsInvalidOperation(err error) bool {
	return hasCode(err, ErrCodeInvalidOperation)
}

// IsInvalidExpression returns true if the error is an invalid-expression
// error, including a bare sqlast.JoinError.
func IsInvalidExpression(err error) bool {
	if hasCode(err, ErrCodeInvalidExpression) {
		return true
	}
	var je *sqlast.JoinError
	return errors.As(err, &je)
}

// Code returns the error code of err, or "" if err is not a CompileError.
func Code(err error) ErrorCode {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
