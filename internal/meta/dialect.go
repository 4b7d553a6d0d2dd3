package meta

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/liftsql/internal/ir"
)

// Operator is a comparison operator in its provider-neutral form.
type Operator int

const (
	Equal Operator = iota
	NotEqual
	GreaterThan
	GreaterThanOrEqual
	LessThan
	LessThanOrEqual
)

// String returns the ANSI spelling of the operator.
func (op Operator) String() string {
	switch op {
	case Equal:
		return "="
	case NotEqual:
		return "<>"
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	default:
		return fmt.Sprintf("Operator(%d)", int(op))
	}
}

// Mirror returns the operator that gives the same result with the operands swapped.
func (op Operator) Mirror() Operator {
	switch op {
	case GreaterThan:
		return LessThan
	case GreaterThanOrEqual:
		return LessThanOrEqual
	case LessThan:
		return GreaterThan
	case LessThanOrEqual:
		return GreaterThanOrEqual
	default:
		return op
	}
}

// Dialect is the provider-specific formatting collaborator.
type Dialect interface {
	// Name identifies the dialect ("sqlite", "postgres", ...).
	Name() string

	// QuoteName quotes a possibly dotted object name ("sales.Orders").
	QuoteName(name string) string

	// QuoteString renders a string literal.
	QuoteString(s string) string

	// FormatBool renders a boolean literal.
	FormatBool(b bool) string

	// FormatOperator spells a comparison operator. nullOperand is true when the
	// right-hand side is the NULL literal, so "=" can become "IS".
	FormatOperator(op Operator, nullOperand bool) string

	// ParameterName maps a logical parameter name and its 1-based position
	// to the placeholder spelling the provider expects.
	ParameterName(name string, ordinal int) string
}

// StandardDialect is a table-driven Dialect covering the supported providers.
type StandardDialect struct {
	DialectName     string
	QuoteOpen       string // Empty disables quoting
	QuoteClose      string
	ParameterPrefix string // "@", ":", "$"
	Positional      bool   // Placeholders use the ordinal instead of the name
	EscapeBackslash bool   // String literals also escape '\'
	TrueLiteral     string
	FalseLiteral    string
}

// Preset dialects.
var (
	Plain = &StandardDialect{
		DialectName:     "plain",
		ParameterPrefix: "@",
		TrueLiteral:     "1",
		FalseLiteral:    "0",
	}
	SQLite = &StandardDialect{
		DialectName:     "sqlite",
		QuoteOpen:       `"`,
		QuoteClose:      `"`,
		ParameterPrefix: "@",
		TrueLiteral:     "1",
		FalseLiteral:    "0",
	}
	Postgres = &StandardDialect{
		DialectName:     "postgres",
		QuoteOpen:       `"`,
		QuoteClose:      `"`,
		ParameterPrefix: "$",
		Positional:      true,
		TrueLiteral:     "TRUE",
		FalseLiteral:    "FALSE",
	}
	MySQL = &StandardDialect{
		DialectName:     "mysql",
		QuoteOpen:       "`",
		QuoteClose:      "`",
		ParameterPrefix: ":",
		EscapeBackslash: true,
		TrueLiteral:     "1",
		FalseLiteral:    "0",
	}
)

var dialects = map[string]Dialect{
	Plain.DialectName:    Plain,
	SQLite.DialectName:   SQLite,
	Postgres.DialectName: Postgres,
	MySQL.DialectName:    MySQL,
}

// LookupDialect returns a preset dialect by name.
func LookupDialect(name string) (Dialect, error) {
	if d, ok := dialects[strings.ToLower(name)]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unknown dialect %q: must be one of %v", name, DialectNames())
}

// DialectNames lists the preset dialect names, sorted.
func DialectNames() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Name implements Dialect.
func (d *StandardDialect) Name() string {
	return d.DialectName
}

// QuoteName implements Dialect. Each dot-separated part is quoted separately
// and embedded close-quote characters are doubled.
func (d *StandardDialect) QuoteName(name string) string {
	if d.QuoteOpen == "" {
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteOpen + strings.ReplaceAll(p, d.QuoteClose, d.QuoteClose+d.QuoteClose) + d.QuoteClose
	}
	return strings.Join(parts, ".")
}

// QuoteString implements Dialect.
func (d *StandardDialect) QuoteString(s string) string {
	s = ir.Normalize(s)
	if d.EscapeBackslash {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// FormatBool implements Dialect.
func (d *StandardDialect) FormatBool(b bool) string {
	if b {
		return d.TrueLiteral
	}
	return d.FalseLiteral
}

// FormatOperator implements Dialect.
func (d *StandardDialect) FormatOperator(op Operator, nullOperand bool) string {
	if nullOperand {
		switch op {
		case Equal:
			return "IS"
		case NotEqual:
			return "IS NOT"
		}
	}
	return op.String()
}

// ParameterName implements Dialect.
func (d *StandardDialect) ParameterName(name string, ordinal int) string {
	if d.Positional {
		return d.ParameterPrefix + strconv.Itoa(ordinal)
	}
	return d.ParameterPrefix + name
}
