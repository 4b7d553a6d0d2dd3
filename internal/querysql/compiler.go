package querysql

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/liftsql/internal/meta"
	"github.com/roach88/liftsql/internal/queryir"
	"github.com/roach88/liftsql/internal/sqlast"
)

type state int

const (
	stateUninitialized state = iota
	stateSelfBound
	stateIngesting
	stateCompiled
)

func (s state) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateSelfBound:
		return "self-bound"
	case stateIngesting:
		return "ingesting"
	default:
		return "compiled"
	}
}

// Argument describes a bound parameter in registration order.
type Argument struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Ordinal     int    `json:"ordinal"`
	Placeholder string `json:"placeholder"`
}

// Constraints is the query-build unit: explicit joins and bound parameters
// by name, the accumulated WHERE condition and the argument list.
type Constraints struct {
	Joins      map[string]*sqlast.Join
	Parameters map[string]*sqlast.Parameter
	Where      *Condition
	Arguments  []Argument
}

// Compiler translates one query definition's predicate and ordering into
// JOIN, WHERE and ORDER BY text.
//
// A Compiler is mutated only while parameters are registered and
// expressions ingested, by a single goroutine. The first Text or Write call
// runs the lift pass and freezes it; after that Text and Write are safe for
// concurrent use.
type Compiler struct {
	catalog meta.Catalog
	dialect meta.Dialect
	entity  *meta.Entity

	state       state
	self        *sqlast.Self
	constraints Constraints

	joins    []*sqlast.Join          // Arena indexed by ordinal-1
	inferred map[string]*sqlast.Join // By navigation path
	resolved map[string]operand      // By member path

	ordering *Ordering

	once sync.Once
	text string
	err  error // Sticky
}

// New creates a compiler for queries about the named entity.
func New(catalog meta.Catalog, entity string, dialect meta.Dialect) (*Compiler, error) {
	if catalog == nil {
		return nil, newError(ErrCodeInvalidUsage, "catalog is nil")
	}
	e, ok := catalog.Entity(entity)
	if !ok {
		return nil, newError(ErrCodeMapping, "unknown entity %q", entity)
	}
	if dialect == nil {
		dialect = meta.Plain
	}
	return &Compiler{
		catalog: catalog,
		dialect: dialect,
		entity:  e,
		constraints: Constraints{
			Joins:      make(map[string]*sqlast.Join),
			Parameters: make(map[string]*sqlast.Parameter),
		},
		inferred: make(map[string]*sqlast.Join),
		resolved: make(map[string]operand),
	}, nil
}

// Entity returns the entity the compiler was created for.
func (c *Compiler) Entity() *meta.Entity {
	return c.entity
}

// Dialect returns the dialect used by Text.
func (c *Compiler) Dialect() meta.Dialect {
	return c.dialect
}

// Self returns the self node, or nil before RegisterSelfParameter.
func (c *Compiler) Self() *sqlast.Self {
	return c.self
}

// Joins returns every join, explicit and inferred, in ordinal order.
func (c *Compiler) Joins() []*sqlast.Join {
	return append([]*sqlast.Join(nil), c.joins...)
}

// Arguments returns the bound parameters in registration order.
func (c *Compiler) Arguments() []Argument {
	return append([]Argument(nil), c.constraints.Arguments...)
}

// Err returns the sticky error, if any.
func (c *Compiler) Err() error {
	return c.err
}

func (c *Compiler) fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return c.err
}

// mutable checks that the compiler still accepts changes.
func (c *Compiler) mutable(op string) error {
	if c.err != nil {
		return c.err
	}
	if c.state == stateCompiled {
		return newError(ErrCodeInvalidOperation, "%s: compiler is read-only after Text or Write", op)
	}
	return nil
}

// nameTaken reports whether name is already a self, join or parameter name.
func (c *Compiler) nameTaken(name string) bool {
	if c.self != nil && c.self.Alias == name {
		return true
	}
	if _, ok := c.constraints.Joins[name]; ok {
		return true
	}
	_, ok := c.constraints.Parameters[name]
	return ok
}

// RegisterSelfParameter binds name to the entity the query is about.
func (c *Compiler) RegisterSelfParameter(name string) error {
	if err := c.mutable("register self parameter"); err != nil {
		return err
	}
	if name == "" {
		return newError(ErrCodeInvalidUsage, "self parameter name is empty")
	}
	if c.self != nil {
		return newError(ErrCodeInvalidOperation, "self parameter already registered as %q", c.self.Alias)
	}
	if c.nameTaken(name) {
		return newError(ErrCodeInvalidOperation, "name %q is already registered", name)
	}
	c.self = &sqlast.Self{Alias: name, Entity: c.entity}
	c.state = stateSelfBound
	return nil
}

// RegisterJoinParameter declares an explicit join named name over entity.
// Its alias is the parameter name.
//
// With inferred set, the ON-expression is seeded from self's navigation to
// entity, which must be unique. Otherwise the ON-expression is built
// entirely from predicate conditions lifted into the join, and a join that
// receives none fails at Text/Write.
//
// Registering the same name and entity again is a no-op.
func (c *Compiler) RegisterJoinParameter(name, entity string, inferred bool) error {
	if err := c.mutable("register join parameter"); err != nil {
		return err
	}
	if c.self == nil {
		return newError(ErrCodeInvalidOperation, "register join parameter %q: self parameter is not registered", name)
	}
	if c.state != stateSelfBound {
		return newError(ErrCodeInvalidOperation, "register join parameter %q: joins must be registered before ingestion", name)
	}
	if name == "" {
		return newError(ErrCodeInvalidUsage, "join parameter name is empty")
	}

	target, ok := c.catalog.Entity(entity)
	if !ok {
		return newError(ErrCodeMapping, "join parameter %q: unknown entity %q", name, entity)
	}
	if j, ok := c.constraints.Joins[name]; ok {
		if j.Entity == target {
			return nil
		}
		return newError(ErrCodeInvalidOperation, "join parameter %q already registered as %s", name, j.Entity.Name)
	}
	if c.nameTaken(name) {
		return newError(ErrCodeInvalidOperation, "name %q is already registered", name)
	}

	j := &sqlast.Join{
		Ordinal: len(c.joins) + 1,
		Entity:  target,
		Alias:   name,
	}
	if inferred {
		dep, err := c.navigationTo(target)
		if err != nil {
			return err
		}
		j.Inferred = true
		j.Path = c.self.Alias + "." + dep.Member
		j.AddCondition(correlate(dep, c.self, j.Reference()))
		c.inferred[j.Path] = j
	}

	c.joins = append(c.joins, j)
	c.constraints.Joins[name] = j

	slog.Debug("registered join parameter",
		"name", name,
		"entity", target.Name,
		"ordinal", j.Ordinal,
		"inferred", inferred)
	return nil
}

// navigationTo finds self's single navigation property targeting entity.
func (c *Compiler) navigationTo(target *meta.Entity) (*meta.Dependency, error) {
	var found *meta.Dependency
	for _, col := range c.entity.Columns {
		if !col.IsNavigation() || col.Type != target.Name {
			continue
		}
		if found != nil {
			return nil, newError(ErrCodeMapping, "ambiguous navigation from %s to %s: %s and %s",
				c.entity.Name, target.Name, found.Member, col.Member)
		}
		dep, err := c.catalog.Dependency(c.entity, col.Member)
		if err != nil {
			return nil, mappingError(err)
		}
		found = dep
	}
	if found == nil {
		return nil, newError(ErrCodeMapping, "no navigation from %s to %s", c.entity.Name, target.Name)
	}
	return found, nil
}

// RegisterParameter declares a bound value parameter. Placeholders are
// numbered in registration order.
func (c *Compiler) RegisterParameter(name, typ string) error {
	if err := c.mutable("register parameter"); err != nil {
		return err
	}
	if name == "" {
		return newError(ErrCodeInvalidUsage, "parameter name is empty")
	}
	if p, ok := c.constraints.Parameters[name]; ok {
		if p.TypeName == typ {
			return nil
		}
		return newError(ErrCodeInvalidOperation, "parameter %q already registered as %s", name, p.TypeName)
	}
	if c.nameTaken(name) {
		return newError(ErrCodeInvalidOperation, "name %q is already registered", name)
	}

	p := &sqlast.Parameter{
		Name:     name,
		Ordinal:  len(c.constraints.Arguments) + 1,
		TypeName: typ,
	}
	c.constraints.Parameters[name] = p
	c.constraints.Arguments = append(c.constraints.Arguments, Argument{
		Name:        name,
		Type:        typ,
		Ordinal:     p.Ordinal,
		Placeholder: c.dialect.ParameterName(name, p.Ordinal),
	})
	return nil
}

// Parameters returns the queryir parameters matching every registered
// name, for use with queryir.Parse.
func (c *Compiler) Parameters() []*queryir.Parameter {
	var params []*queryir.Parameter
	if c.self != nil {
		params = append(params, queryir.Param(c.self.Alias, c.entity.Name))
	}
	for _, j := range c.joins {
		if c.constraints.Joins[j.Alias] == j {
			params = append(params, queryir.Param(j.Alias, j.Entity.Name))
		}
	}
	for _, a := range c.constraints.Arguments {
		params = append(params, queryir.Param(a.Name, a.Type))
	}
	return params
}

// Ingest adds a predicate to the WHERE condition. Repeated calls are
// AND-combined. A Lambda is accepted and its body ingested.
func (c *Compiler) Ingest(e queryir.Expr) error {
	if err := c.mutable("ingest"); err != nil {
		return err
	}
	if c.self == nil {
		return newError(ErrCodeInvalidOperation, "ingest: self parameter is not registered")
	}
	if l, ok := e.(*queryir.Lambda); ok {
		e = l.Body
	}

	cond, err := c.predicate(e)
	if err != nil {
		return c.fail(err)
	}
	c.constraints.Where = andCondition(c.constraints.Where, cond)
	c.state = stateIngesting
	return nil
}

// predicate translates the boolean skeleton of e into a Condition tree.
func (c *Compiler) predicate(e queryir.Expr) (*Condition, error) {
	if e == nil {
		return nil, newError(ErrCodeInvalidUsage, "predicate is nil")
	}
	b, ok := e.(*queryir.Binary)
	if !ok {
		return nil, unsupported(e.Kind(), queryir.Format(e))
	}

	switch {
	case b.Op == queryir.KindAndAlso || b.Op == queryir.KindOrElse:
		left, err := c.predicate(b.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.predicate(b.Right)
		if err != nil {
			return nil, err
		}
		if b.Op == queryir.KindAndAlso {
			return andCondition(left, right), nil
		}
		return orCondition(left, right), nil

	case b.Op.IsComparison():
		cmp, err := c.comparison(b)
		if err != nil {
			return nil, err
		}
		return comparisonCondition(cmp), nil

	default:
		return nil, unsupported(b.Op, queryir.Format(b))
	}
}

var operators = map[queryir.Kind]meta.Operator{
	queryir.KindEqual:              meta.Equal,
	queryir.KindNotEqual:           meta.NotEqual,
	queryir.KindGreaterThan:        meta.GreaterThan,
	queryir.KindGreaterThanOrEqual: meta.GreaterThanOrEqual,
	queryir.KindLessThan:           meta.LessThan,
	queryir.KindLessThanOrEqual:    meta.LessThanOrEqual,
}

func (c *Compiler) comparison(b *queryir.Binary) (*sqlast.Comparison, error) {
	op := operators[b.Op]
	left, err := c.value(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.value(b.Right)
	if err != nil {
		return nil, err
	}

	if left.entity == nil && right.entity == nil {
		return sqlast.NewComparison(op, left.node, right.node), nil
	}

	// Entity-valued operands compare by identity key.
	if op != meta.Equal && op != meta.NotEqual {
		return nil, newError(ErrCodeUnsupported, "entity comparison %s supports only == and !=", queryir.Format(b))
	}
	if left.entity != nil && right.entity != nil && left.entity != right.entity {
		return nil, newError(ErrCodeMapping, "cannot compare %s with %s in %s",
			left.entity.Name, right.entity.Name, queryir.Format(b))
	}
	l, err := c.key(left)
	if err != nil {
		return nil, err
	}
	r, err := c.key(right)
	if err != nil {
		return nil, err
	}
	return sqlast.NewComparison(op, l, r), nil
}

// Text runs the lift pass once and returns the JOIN and WHERE clauses.
func (c *Compiler) Text() (string, error) {
	if err := c.compile(); err != nil {
		return "", err
	}
	return c.text, nil
}

// Write emits the JOIN and WHERE clauses into w, formatting through w's
// dialect. It may be called repeatedly and concurrently once compiled.
func (c *Compiler) Write(w *sqlast.Writer) error {
	if err := c.compile(); err != nil {
		return err
	}
	return c.render(w)
}

func (c *Compiler) compile() error {
	if c.self == nil {
		return newError(ErrCodeInvalidOperation, "write: self parameter is not registered")
	}
	c.once.Do(func() {
		c.state = stateCompiled
		if c.err != nil {
			return
		}
		c.lift()
		for _, j := range c.joins {
			if j.On == nil {
				c.err = &CompileError{
					Code:    ErrCodeInvalidExpression,
					Message: fmt.Sprintf("join %q over %s is unconstrained", j.Alias, j.Entity.Name),
					Err:     &sqlast.JoinError{Table: j.Entity.Table, Alias: j.Alias},
				}
				return
			}
		}
		w := sqlast.NewWriter(c.dialect)
		if err := c.render(w); err != nil {
			c.err = err
			return
		}
		c.text = w.String()
	})
	return c.err
}

// lift moves WHERE conditions into join ON-expressions, joins in ordinal
// order.
func (c *Compiler) lift() {
	where := c.constraints.Where
	if where == nil {
		return
	}
	for _, j := range c.joins {
		if where.liftInto(j) {
			slog.Debug("lifted condition into join",
				"alias", j.Alias,
				"ordinal", j.Ordinal)
		}
		if where.Lifted() {
			return
		}
	}
}

// render writes every join once, in ordinal order, then WHERE. Clauses are
// separated by newlines.
func (c *Compiler) render(w *sqlast.Writer) error {
	joined := make(map[int]bool, len(c.joins))
	first := true
	for _, j := range c.joins {
		if joined[j.Ordinal] {
			continue
		}
		if !first {
			w.NewLine()
		}
		if err := j.Write(w); err != nil {
			return &CompileError{Code: ErrCodeInvalidExpression, Message: "write join", Err: err}
		}
		joined[j.Ordinal] = true
		first = false
	}

	if where := c.constraints.Where.Node(); where != nil {
		if !first {
			w.NewLine()
		}
		w.Append("WHERE ")
		if err := where.Write(w); err != nil {
			return err
		}
	}
	return nil
}
