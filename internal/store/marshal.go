package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/roach88/liftsql/internal/ir"
)

// namedArgs converts argument values to sql.Named values, sorted by name
// for deterministic binding. Values go through the IR value model, so
// NaN, Inf and unsupported types are rejected before reaching the driver.
func namedArgs(args map[string]any) ([]any, error) {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]any, 0, len(names))
	for _, name := range names {
		v, err := ir.FromGo(args[name])
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		out = append(out, sql.Named(name, ir.ToGo(v)))
	}
	return out, nil
}

// scanValue converts a driver value to the IR value model.
func scanValue(v any) (ir.IRValue, error) {
	switch x := v.(type) {
	case []byte:
		return ir.IRString(string(x)), nil
	default:
		return ir.FromGo(x)
	}
}
