package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/liftsql/internal/ir"
)

// Row is one result row keyed by column name.
type Row map[string]ir.IRValue

// Int returns the named column as an int64, or false if it is not an int.
func (r Row) Int(column string) (int64, bool) {
	v, ok := r[column].(ir.IRInt)
	return int64(v), ok
}

// Select runs statement with named arguments and returns every row in
// result order.
//
// Returns an empty slice (not nil) if no rows match.
func (s *Store) Select(ctx context.Context, statement string, args map[string]any) ([]Row, error) {
	named, err := namedArgs(args)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, statement, named...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	result := []Row{}
	for rows.Next() {
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}

// SelectInts runs statement and returns the named integer column of every
// row, typically the identity column.
func (s *Store) SelectInts(ctx context.Context, statement string, args map[string]any, column string) ([]int64, error) {
	rows, err := s.Select(ctx, statement, args)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for i, row := range rows {
		id, ok := row.Int(column)
		if !ok {
			return nil, fmt.Errorf("row %d: column %q is %s, not int", i, column, ir.TypeName(row[column]))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// scanRow reads the current row into a Row.
func scanRow(rows *sql.Rows, columns []string) (Row, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	row := make(Row, len(columns))
	for i, col := range columns {
		v, err := scanValue(values[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		row[col] = v
	}
	return row, nil
}
