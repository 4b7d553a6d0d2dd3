package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue/token"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/roach88/liftsql/internal/meta"
	"github.com/roach88/liftsql/internal/querysql"
)

// LoadError represents an error that occurred while loading CLI inputs.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Error code constants for loader failures. Schema validation failures
// keep their meta.Err* codes and compile failures their querysql codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No input files found
	ErrCodeLoadFailed  = "E004" // Input could not be parsed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeNoQueries   = "E008" // Query file declares no queries
	ErrCodeBadQuery    = "E009" // Query definition is malformed
)

// QueryFile is the YAML document holding query definitions.
type QueryFile struct {
	Queries []querysql.Definition `yaml:"queries"`
}

// LoadSchema compiles a CUE schema from a single file or from every .cue
// file under a directory.
func LoadSchema(fsys afero.Fs, path string) (*meta.Schema, error) {
	info, err := fsys.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema not found: %s", path), Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema: %v", err), Err: err}
	}

	files := []string{path}
	if info.IsDir() {
		files, err = FindCUEFiles(fsys, path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Err: err}
		}
		if len(files) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
	}

	srcs := make([]meta.Source, 0, len(files))
	for _, f := range files {
		data, err := afero.ReadFile(fsys, f)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", f, err), Err: err}
		}
		srcs = append(srcs, meta.Source{Filename: f, Data: data})
	}

	schema, err := meta.CompileSchemaSources(srcs...)
	if err != nil {
		return nil, convertSchemaError(err)
	}
	return schema, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths, sorted.
func FindCUEFiles(fsys afero.Fs, dir string) ([]string, error) {
	var files []string
	err := afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// LoadQueries reads query definitions from a YAML file. Unknown fields,
// unnamed queries and duplicate names are rejected.
func LoadQueries(fsys afero.Fs, path string) ([]querysql.Definition, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("queries not found: %s", path), Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err), Err: err}
	}

	var qf QueryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&qf); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing %s: %v", path, err), Err: err}
	}
	if len(qf.Queries) == 0 {
		return nil, &LoadError{Code: ErrCodeNoQueries, Message: fmt.Sprintf("no queries in %s", path)}
	}

	seen := make(map[string]bool, len(qf.Queries))
	for i, q := range qf.Queries {
		if q.Name == "" {
			return nil, &LoadError{Code: ErrCodeBadQuery, Message: fmt.Sprintf("queries[%d]: name is required", i)}
		}
		if q.Entity == "" {
			return nil, &LoadError{Code: ErrCodeBadQuery, Message: fmt.Sprintf("query %s: entity is required", q.Name)}
		}
		if seen[q.Name] {
			return nil, &LoadError{Code: ErrCodeBadQuery, Message: fmt.Sprintf("duplicate query %s", q.Name)}
		}
		seen[q.Name] = true
	}
	return qf.Queries, nil
}

// SelectQueries narrows defs to the one named name. An empty name keeps all.
func SelectQueries(defs []querysql.Definition, name string) ([]querysql.Definition, error) {
	if name == "" {
		return defs, nil
	}
	for _, d := range defs {
		if d.Name == name {
			return []querysql.Definition{d}, nil
		}
	}
	return nil, &LoadError{Code: ErrCodeBadQuery, Message: fmt.Sprintf("no query named %s", name)}
}

// ResolveDialect picks the flag's dialect, else the schema's, else plain.
func ResolveDialect(flag string, schema *meta.Schema) (meta.Dialect, error) {
	name := flag
	if name == "" {
		name = schema.Dialect()
	}
	if name == "" {
		name = meta.Plain.Name()
	}
	return meta.LookupDialect(name)
}

// convertSchemaError converts a schema error to a LoadError with position
// info. Validation errors are returned unchanged so callers keep every code.
func convertSchemaError(err error) error {
	var verrs meta.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}
	var schemaErr *meta.SchemaError
	if errors.As(err, &schemaErr) {
		return &LoadError{
			Code:    ErrCodeBuildFailed,
			Message: fmt.Sprintf("%s: %s", schemaErr.Field, schemaErr.Message),
			Pos:     schemaErr.Pos,
			Err:     err,
		}
	}
	return &LoadError{Code: ErrCodeBuildFailed, Message: err.Error(), Err: err}
}
