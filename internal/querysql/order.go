package querysql

import (
	"github.com/roach88/liftsql/internal/meta"
	"github.com/roach88/liftsql/internal/queryir"
	"github.com/roach88/liftsql/internal/sqlast"
)

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// OrderTerm is one ORDER BY column.
type OrderTerm struct {
	Expr      sqlast.Node
	Direction Direction
}

// Ordering is an ordered list of ORDER BY terms.
type Ordering []OrderTerm

// Reverse flips every direction and keeps the column order. It is used to
// run the same paging query backward.
func (o Ordering) Reverse() Ordering {
	if o == nil {
		return nil
	}
	out := make(Ordering, len(o))
	for i, t := range o {
		out[i] = OrderTerm{Expr: t.Expr, Direction: t.Direction.Reverse()}
	}
	return out
}

// Write renders "ORDER BY a ASC, b DESC". An empty ordering writes nothing.
func (o Ordering) Write(w *sqlast.Writer) error {
	if len(o) == 0 {
		return nil
	}
	w.Append("ORDER BY ")
	for i, t := range o {
		if i > 0 {
			w.Append(", ")
		}
		if err := t.Expr.Write(w); err != nil {
			return err
		}
		w.AppendRune(' ').Append(t.Direction.String())
	}
	return nil
}

// OrderBuilder collects ordering terms, resolving each expression with the
// same member resolution as the WHERE predicate so both share join aliases.
type OrderBuilder struct {
	compiler *Compiler
	terms    Ordering
	err      error
}

// OrderBuilderFactory creates the builder an ordering action runs against.
type OrderBuilderFactory func(*Compiler) *OrderBuilder

// NewOrderBuilder is the default OrderBuilderFactory.
func NewOrderBuilder(c *Compiler) *OrderBuilder {
	return &OrderBuilder{compiler: c}
}

// Ascending appends e in ascending order.
func (b *OrderBuilder) Ascending(e queryir.Expr) *OrderBuilder {
	return b.Then(e, Ascending)
}

// Descending appends e in descending order.
func (b *OrderBuilder) Descending(e queryir.Expr) *OrderBuilder {
	return b.Then(e, Descending)
}

// Then appends e with direction d. After the first error further terms
// are ignored.
func (b *OrderBuilder) Then(e queryir.Expr, d Direction) *OrderBuilder {
	if b.err != nil {
		return b
	}
	if l, ok := e.(*queryir.Lambda); ok {
		e = l.Body
	}
	op, err := b.compiler.value(e)
	if err != nil {
		b.err = err
		return b
	}
	if op.node.Kind() == sqlast.KindNull {
		b.err = newError(ErrCodeInvalidUsage, "cannot order by null")
		return b
	}
	node, err := b.compiler.key(op)
	if err != nil {
		b.err = err
		return b
	}
	b.terms = append(b.terms, OrderTerm{Expr: node, Direction: d})
	return b
}

// Err returns the first error recorded by the builder.
func (b *OrderBuilder) Err() error {
	return b.err
}

// Ordering returns the terms collected so far.
func (b *OrderBuilder) Ordering() Ordering {
	return append(Ordering(nil), b.terms...)
}

// SetOrdering runs action against a builder from factory and records the
// result as the query's ordering. A nil factory selects NewOrderBuilder.
// The ordering can be set once.
func (c *Compiler) SetOrdering(factory OrderBuilderFactory, action func(*OrderBuilder)) error {
	if err := c.mutable("set ordering"); err != nil {
		return err
	}
	if c.self == nil {
		return newError(ErrCodeInvalidOperation, "set ordering: self parameter is not registered")
	}
	if action == nil {
		return newError(ErrCodeInvalidUsage, "set ordering: action is nil")
	}
	if c.ordering != nil {
		return newError(ErrCodeInvalidOperation, "set ordering: ordering is already set")
	}
	if factory == nil {
		factory = NewOrderBuilder
	}

	b := factory(c)
	if b == nil {
		return newError(ErrCodeInvalidUsage, "set ordering: factory returned nil")
	}
	action(b)
	if b.err != nil {
		return c.fail(b.err)
	}
	if len(b.terms) == 0 {
		return newError(ErrCodeInvalidUsage, "set ordering: action added no terms")
	}
	o := b.Ordering()
	c.ordering = &o
	return nil
}

// OrderBy returns the effective ordering: the explicit one, or self's
// identity columns ascending. reverse flips every direction.
func (c *Compiler) OrderBy(reverse bool) (Ordering, error) {
	if c.self == nil {
		return nil, newError(ErrCodeInvalidOperation, "order by: self parameter is not registered")
	}
	var o Ordering
	if c.ordering != nil {
		o = append(o, (*c.ordering)...)
	} else {
		for _, id := range c.entity.Identity() {
			o = append(o, OrderTerm{Expr: &sqlast.MemberAccess{Column: id, Inner: c.self}})
		}
	}
	if reverse {
		o = o.Reverse()
	}
	return o, nil
}

// OrderByStatement renders OrderBy(reverse) with the compiler's dialect.
// It returns "" when there is nothing to order by.
func (c *Compiler) OrderByStatement(reverse bool) (string, error) {
	return c.OrderByStatementFor(c.dialect, reverse)
}

// OrderByStatementFor is OrderByStatement with an explicit dialect.
func (c *Compiler) OrderByStatementFor(d meta.Dialect, reverse bool) (string, error) {
	o, err := c.OrderBy(reverse)
	if err != nil {
		return "", err
	}
	w := sqlast.NewWriter(d)
	if err := o.Write(w); err != nil {
		return "", err
	}
	return w.String(), nil
}
