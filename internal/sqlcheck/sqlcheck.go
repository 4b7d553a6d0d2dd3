// Package sqlcheck validates compiled statements against a real SQL grammar.
//
// Postgres statements are parsed with libpg_query, MySQL statements with the
// vitess-derived sqlparser, and SQLite (and plain) statements are prepared
// against a live database so that table and column names are checked too.
package sqlcheck

import (
	"context"
	"errors"
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/xwb1989/sqlparser"

	"github.com/roach88/liftsql/internal/meta"
	"github.com/roach88/liftsql/internal/store"
)

// Checker validates one SQL statement.
type Checker interface {
	Check(ctx context.Context, statement string) error
}

// ErrNeedsDatabase is returned by ForDialect when the dialect can only be
// checked by preparing against a database and none was given.
var ErrNeedsDatabase = errors.New("sqlcheck: dialect requires a database")

// SyntaxError reports a statement the dialect's grammar rejects.
type SyntaxError struct {
	Dialect   string
	Statement string
	Err       error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %v", e.Dialect, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// ForDialect returns the checker for d. db is used by the sqlite and plain
// dialects and ignored otherwise.
func ForDialect(d meta.Dialect, db *store.Store) (Checker, error) {
	if d == nil {
		d = meta.Plain
	}
	switch d.Name() {
	case meta.Postgres.Name():
		return postgres{}, nil
	case meta.MySQL.Name():
		return mysql{}, nil
	case meta.SQLite.Name(), meta.Plain.Name():
		if db == nil {
			return nil, fmt.Errorf("%w: %s", ErrNeedsDatabase, d.Name())
		}
		return &sqlite{name: d.Name(), db: db}, nil
	default:
		return nil, fmt.Errorf("sqlcheck: no checker for dialect %q", d.Name())
	}
}

type postgres struct{}

func (postgres) Check(_ context.Context, statement string) error {
	tree, err := pg_query.Parse(statement)
	if err != nil {
		return &SyntaxError{Dialect: "postgres", Statement: statement, Err: err}
	}
	stmts := tree.GetStmts()
	if len(stmts) != 1 {
		return &SyntaxError{Dialect: "postgres", Statement: statement,
			Err: fmt.Errorf("expected one statement, got %d", len(stmts))}
	}
	if stmts[0].GetStmt().GetSelectStmt() == nil {
		return &SyntaxError{Dialect: "postgres", Statement: statement, Err: errors.New("not a SELECT")}
	}
	return nil
}

type mysql struct{}

func (mysql) Check(_ context.Context, statement string) error {
	stmt, err := sqlparser.Parse(statement)
	if err != nil {
		return &SyntaxError{Dialect: "mysql", Statement: statement, Err: err}
	}
	if _, ok := stmt.(*sqlparser.Select); !ok {
		return &SyntaxError{Dialect: "mysql", Statement: statement, Err: errors.New("not a SELECT")}
	}
	return nil
}

type sqlite struct {
	name string
	db   *store.Store
}

func (s *sqlite) Check(ctx context.Context, statement string) error {
	if err := s.db.Prepare(ctx, statement); err != nil {
		return &SyntaxError{Dialect: s.name, Statement: statement, Err: err}
	}
	return nil
}
