package querysql

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/liftsql/internal/ir"
	"github.com/roach88/liftsql/internal/meta"
	"github.com/roach88/liftsql/internal/queryir"
	"github.com/roach88/liftsql/internal/sqlast"
)

// DefaultSelf is the self parameter name used when a definition omits it.
const DefaultSelf = "self"

// Definition is a declarative query: an entity, the parameters its
// predicate may use, a predicate and an optional ordering. Expressions use
// queryir.Parse syntax.
type Definition struct {
	Name       string         `yaml:"name" json:"name"`
	Entity     string         `yaml:"entity" json:"entity"`
	Self       string         `yaml:"self,omitempty" json:"self,omitempty"`
	Joins      []JoinDef      `yaml:"joins,omitempty" json:"joins,omitempty"`
	Parameters []ParameterDef `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Where      string         `yaml:"where,omitempty" json:"where,omitempty"`
	OrderBy    []OrderDef     `yaml:"order_by,omitempty" json:"order_by,omitempty"`
}

// JoinDef declares an explicit join parameter.
type JoinDef struct {
	Name     string `yaml:"name" json:"name"`
	Entity   string `yaml:"entity" json:"entity"`
	Inferred bool   `yaml:"inferred,omitempty" json:"inferred,omitempty"`
}

// ParameterDef declares a bound value parameter.
type ParameterDef struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// OrderDef is one ordering term.
type OrderDef struct {
	Expr       string `yaml:"expr" json:"expr"`
	Descending bool   `yaml:"desc,omitempty" json:"desc,omitempty"`
}

// Compiled is the output of Build. Downstream layers cache Compiled
// values by Key, not the compiler.
type Compiled struct {
	Name      string     `json:"name"`
	Dialect   string     `json:"dialect"`
	Fragment  string     `json:"fragment"`
	OrderBy   string     `json:"order_by"`
	Statement string     `json:"statement"`
	Arguments []Argument `json:"arguments"`
	Key       uuid.UUID  `json:"key"`
}

// BuildOptions adjusts Build.
type BuildOptions struct {
	// Reverse flips the ordering for backward paging.
	Reverse bool
}

// revisioner is implemented by catalogs that can identify their revision.
type revisioner interface {
	Revision() (string, error)
}

// Build compiles def against catalog. Every unsupported node in the
// predicate is reported at once, before compilation starts.
func Build(catalog meta.Catalog, dialect meta.Dialect, def Definition, opts BuildOptions) (*Compiled, error) {
	if dialect == nil {
		dialect = meta.Plain
	}
	c, err := New(catalog, def.Entity, dialect)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", def.Name, err)
	}

	self := def.Self
	if self == "" {
		self = DefaultSelf
	}
	if err := c.RegisterSelfParameter(self); err != nil {
		return nil, fmt.Errorf("query %s: %w", def.Name, err)
	}
	for _, j := range def.Joins {
		if err := c.RegisterJoinParameter(j.Name, j.Entity, j.Inferred); err != nil {
			return nil, fmt.Errorf("query %s: %w", def.Name, err)
		}
	}
	for _, p := range def.Parameters {
		if err := c.RegisterParameter(p.Name, p.Type); err != nil {
			return nil, fmt.Errorf("query %s: %w", def.Name, err)
		}
	}
	params := c.Parameters()

	if strings.TrimSpace(def.Where) != "" {
		pred, err := queryir.Parse(def.Where, params...)
		if err != nil {
			return nil, fmt.Errorf("query %s: where: %w", def.Name, err)
		}
		if result := queryir.Validate(pred); !result.Supported {
			return nil, fmt.Errorf("query %s: where: %w", def.Name, &CompileError{
				Code:    ErrCodeUnsupported,
				Message: strings.Join(result.Issues, "; "),
			})
		}
		if err := c.Ingest(pred); err != nil {
			return nil, fmt.Errorf("query %s: where: %w", def.Name, err)
		}
	}

	if len(def.OrderBy) > 0 {
		exprs := make([]queryir.Expr, len(def.OrderBy))
		for i, o := range def.OrderBy {
			e, err := queryir.Parse(o.Expr, params...)
			if err != nil {
				return nil, fmt.Errorf("query %s: order_by: %w", def.Name, err)
			}
			exprs[i] = e
		}
		err := c.SetOrdering(nil, func(b *OrderBuilder) {
			for i, o := range def.OrderBy {
				if o.Descending {
					b.Descending(exprs[i])
				} else {
					b.Ascending(exprs[i])
				}
			}
		})
		if err != nil {
			return nil, fmt.Errorf("query %s: order_by: %w", def.Name, err)
		}
	}

	fragment, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", def.Name, err)
	}
	orderBy, err := c.OrderByStatement(opts.Reverse)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", def.Name, err)
	}

	out := &Compiled{
		Name:      def.Name,
		Dialect:   dialect.Name(),
		Fragment:  fragment,
		OrderBy:   orderBy,
		Statement: statement(c, fragment, orderBy),
		Arguments: c.Arguments(),
	}

	var revision string
	if r, ok := catalog.(revisioner); ok {
		if revision, err = r.Revision(); err != nil {
			return nil, fmt.Errorf("query %s: schema revision: %w", def.Name, err)
		}
	}
	names := make([]string, len(out.Arguments))
	for i, a := range out.Arguments {
		names[i] = a.Name
	}
	if out.Key, err = ir.QueryKey(revision, out.Statement, names); err != nil {
		return nil, fmt.Errorf("query %s: key: %w", def.Name, err)
	}

	slog.Debug("compiled query",
		"name", def.Name,
		"dialect", out.Dialect,
		"joins", len(c.Joins()),
		"key", out.Key)
	return out, nil
}

// statement assembles SELECT <columns> FROM <table> AS <self>, the
// JOIN/WHERE fragment and ORDER BY, one clause per line.
func statement(c *Compiler, fragment, orderBy string) string {
	d := c.Dialect()
	w := sqlast.NewWriter(d)
	w.Append("SELECT ")
	for i, col := range c.Entity().Stored() {
		if i > 0 {
			w.Append(", ")
		}
		// Rendering a MemberAccess over Self cannot fail.
		_ = (&sqlast.MemberAccess{Column: col, Inner: c.Self()}).Write(w)
	}
	w.NewLineAppend("FROM ").
		Append(d.QuoteName(c.Entity().Table)).
		Append(" AS ").
		Append(d.QuoteName(c.Self().Alias))
	if fragment != "" {
		w.NewLineAppend(fragment)
	}
	if orderBy != "" {
		w.NewLineAppend(orderBy)
	}
	return w.String()
}
