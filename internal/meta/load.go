package meta

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/jinzhu/inflection"
)

// SchemaError represents a schema loading error with source position.
type SchemaError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Source is one named CUE document.
type Source struct {
	Filename string
	Data     []byte
}

// CompileSchema parses CUE source into a validated Schema.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
func CompileSchema(src []byte, filename string) (*Schema, error) {
	return CompileSchemaSources(Source{Filename: filename, Data: src})
}

// CompileSchemaSources unifies several CUE documents into one validated
// Schema. Entities may be split across files and navigate to each other.
func CompileSchemaSources(srcs ...Source) (*Schema, error) {
	if len(srcs) == 0 {
		return nil, &SchemaError{Field: "schema", Message: "no CUE sources"}
	}

	ctx := cuecontext.New()
	var v cue.Value
	for i, src := range srcs {
		sv := ctx.CompileBytes(src.Data, cue.Filename(src.Filename))
		if err := sv.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		if i == 0 {
			v = sv
			continue
		}
		v = v.Unify(sv)
	}
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	s, err := compileSchemaValue(v)
	if err != nil {
		return nil, err
	}

	if errs := Validate(s); len(errs) > 0 {
		return nil, errs
	}
	return s, nil
}

func compileSchemaValue(v cue.Value) (*Schema, error) {
	s := NewSchema()

	// dialect is optional; callers fall back to their own default
	if dv := v.LookupPath(cue.ParsePath("dialect")); dv.Exists() {
		name, err := dv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if _, err := LookupDialect(name); err != nil {
			return nil, &SchemaError{Field: "dialect", Message: err.Error(), Pos: dv.Pos()}
		}
		s.dialect = strings.ToLower(name)
	}

	entVal := v.LookupPath(cue.ParsePath("entity"))
	if !entVal.Exists() {
		return nil, &SchemaError{
			Field:   "entity",
			Message: "at least one entity is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := entVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		e, err := compileEntity(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		if err := s.Add(e); err != nil {
			return nil, &SchemaError{Field: "entity." + e.Name, Message: err.Error(), Pos: iter.Value().Pos()}
		}
	}
	return s, nil
}

// compileEntity parses one entity struct.
func compileEntity(name string, v cue.Value) (*Entity, error) {
	table := inflection.Plural(name)
	if tv := v.LookupPath(cue.ParsePath("table")); tv.Exists() {
		t, err := tv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		table = t
	}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return nil, &SchemaError{
			Field:   "entity." + name + ".columns",
			Message: "columns are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := colsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var columns []*Column
	for iter.Next() {
		col, err := compileColumn(name, iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	return NewEntity(name, table, columns...), nil
}

// compileColumn parses one column struct.
func compileColumn(entity, member string, v cue.Value) (*Column, error) {
	field := "entity." + entity + ".columns." + member
	col := &Column{Member: member}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return nil, &SchemaError{Field: field + ".type", Message: "type is required", Pos: v.Pos()}
	}
	t, err := typeVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	col.Type = t

	if col.Name, err = optionalString(v, "name"); err != nil {
		return nil, err
	}
	if col.Via, err = optionalString(v, "via"); err != nil {
		return nil, err
	}
	if col.Identity, err = optionalBool(v, "identity"); err != nil {
		return nil, err
	}
	if col.Nullable, err = optionalBool(v, "nullable"); err != nil {
		return nil, err
	}

	ref, err := optionalString(v, "references")
	if err != nil {
		return nil, err
	}
	if ref != "" {
		target, member, ok := strings.Cut(ref, ".")
		if !ok || target == "" || member == "" {
			return nil, &SchemaError{
				Field:   field + ".references",
				Message: fmt.Sprintf("reference %q must have the form Entity.Member", ref),
				Pos:     v.LookupPath(cue.ParsePath("references")).Pos(),
			}
		}
		col.Ref = &Reference{Entity: target, Member: member}
	}

	return col, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, path string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &SchemaError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
