package harness

import (
	"github.com/roach88/liftsql/internal/querysql"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates every expectation held.
	Pass bool `json:"pass"`

	// Compiled is the compiled query, nil when compilation failed.
	Compiled *querysql.Compiled `json:"compiled,omitempty"`

	// Rows holds the identity values the statement returned, in order.
	// Nil unless the scenario has setup SQL.
	Rows []int64 `json:"rows,omitempty"`

	// ErrorCode is the compile error code, if compilation failed.
	ErrorCode string `json:"error_code,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
