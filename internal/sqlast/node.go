package sqlast

import (
	"fmt"
	"strconv"

	"github.com/roach88/liftsql/internal/ir"
	"github.com/roach88/liftsql/internal/meta"
)

// NodeKind tags the variant of a Node.
type NodeKind int

const (
	KindSelf NodeKind = iota
	KindJoin
	KindJoinReference
	KindParameter
	KindConstant
	KindNull
	KindMemberAccess
	KindComparison
	KindAndAlso
	KindOrElse
)

var nodeKindNames = [...]string{
	KindSelf:          "Self",
	KindJoin:          "Join",
	KindJoinReference: "JoinReference",
	KindParameter:     "Parameter",
	KindConstant:      "Constant",
	KindNull:          "Null",
	KindMemberAccess:  "MemberAccess",
	KindComparison:    "Comparison",
	KindAndAlso:       "AndAlso",
	KindOrElse:        "OrElse",
}

func (k NodeKind) String() string {
	if k >= 0 && int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// NoOrdinal is the ordinal of nodes not bound to any join.
const NoOrdinal = -1

// TypeBool is the runtime type of predicates.
const TypeBool = "bool"

// Node is an element of the SQL AST.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	Kind() NodeKind

	// Type returns the runtime type: an entity name for entity-valued
	// nodes, a scalar type name otherwise.
	Type() string

	// Write renders the node into w.
	Write(w *Writer) error

	sqlNode() // Marker method - seals interface to this package
}

// Self is the entity instance the query is about.
type Self struct {
	Alias  string
	Entity *meta.Entity
}

func (*Self) Kind() NodeKind   { return KindSelf }
func (s *Self) Type() string   { return s.Entity.Name }
func (*Self) sqlNode()         {}
func (s *Self) Write(w *Writer) error {
	w.Append(w.Dialect().QuoteName(s.Alias))
	return nil
}

// JoinReference is the alias of a join used as the root of a member access.
type JoinReference struct {
	Ordinal int
	Alias   string
	Entity  *meta.Entity
}

func (*JoinReference) Kind() NodeKind { return KindJoinReference }
func (r *JoinReference) Type() string { return r.Entity.Name }
func (*JoinReference) sqlNode()       {}
func (r *JoinReference) Write(w *Writer) error {
	w.Append(w.Dialect().QuoteName(r.Alias))
	return nil
}

// Parameter is a bound placeholder. Ordinal is its 1-based registration
// position, used by positional dialects.
type Parameter struct {
	Name     string
	Ordinal  int
	TypeName string
}

func (*Parameter) Kind() NodeKind { return KindParameter }
func (p *Parameter) Type() string { return p.TypeName }
func (*Parameter) sqlNode()       {}
func (p *Parameter) Write(w *Writer) error {
	w.Append(w.Dialect().ParameterName(p.Name, p.Ordinal))
	return nil
}

// Constant is a non-null literal.
type Constant struct {
	Value ir.IRValue
}

func (*Constant) Kind() NodeKind { return KindConstant }
func (c *Constant) Type() string { return ir.TypeName(c.Value) }
func (*Constant) sqlNode()       {}
func (c *Constant) Write(w *Writer) error {
	d := w.Dialect()
	switch v := c.Value.(type) {
	case ir.IRString:
		w.Append(d.QuoteString(string(v)))
	case ir.IRInt:
		w.Append(strconv.FormatInt(int64(v), 10))
	case ir.IRFloat:
		w.Append(strconv.FormatFloat(float64(v), 'g', -1, 64))
	case ir.IRBool:
		w.Append(d.FormatBool(bool(v)))
	case ir.IRNull, nil:
		w.Append("NULL")
	default:
		return fmt.Errorf("unsupported constant type %T", c.Value)
	}
	return nil
}

// Null is the NULL literal.
type Null struct{}

func (*Null) Kind() NodeKind { return KindNull }
func (*Null) Type() string   { return ir.TypeNull }
func (*Null) sqlNode()       {}
func (*Null) Write(w *Writer) error {
	w.Append("NULL")
	return nil
}

// MemberAccess reads Column from Inner, which is a Self or JoinReference.
type MemberAccess struct {
	Column *meta.Column
	Inner  Node
}

func (*MemberAccess) Kind() NodeKind { return KindMemberAccess }
func (m *MemberAccess) Type() string { return m.Column.Type }
func (*MemberAccess) sqlNode()       {}
func (m *MemberAccess) Write(w *Writer) error {
	if err := m.Inner.Write(w); err != nil {
		return err
	}
	w.AppendRune('.').Append(w.Dialect().QuoteName(m.Column.Name))
	return nil
}

// Comparison is Left Op Right. A null operand is always on the right.
type Comparison struct {
	Op    meta.Operator
	Left  Node
	Right Node
}

// NewComparison builds a comparison, moving a null left operand to the
// right so the dialect can render IS / IS NOT.
func NewComparison(op meta.Operator, left, right Node) *Comparison {
	if left.Kind() == KindNull && right.Kind() != KindNull {
		return &Comparison{Op: op.Mirror(), Left: right, Right: left}
	}
	return &Comparison{Op: op, Left: left, Right: right}
}

func (*Comparison) Kind() NodeKind { return KindComparison }
func (*Comparison) Type() string   { return TypeBool }
func (*Comparison) sqlNode()       {}
func (c *Comparison) Write(w *Writer) error {
	if err := c.Left.Write(w); err != nil {
		return err
	}
	w.AppendRune(' ').
		Append(w.Dialect().FormatOperator(c.Op, c.Right.Kind() == KindNull)).
		AppendRune(' ')
	return c.Right.Write(w)
}

// AndAlso is the conjunction of two predicates.
type AndAlso struct {
	Left  Node
	Right Node
}

func (*AndAlso) Kind() NodeKind { return KindAndAlso }
func (*AndAlso) Type() string   { return TypeBool }
func (*AndAlso) sqlNode()       {}
func (a *AndAlso) Write(w *Writer) error {
	if err := a.Left.Write(w); err != nil {
		return err
	}
	w.Append(" AND ")
	return a.Right.Write(w)
}

// OrElse is the disjunction of two predicates. It is always parenthesized.
type OrElse struct {
	Left  Node
	Right Node
}

func (*OrElse) Kind() NodeKind { return KindOrElse }
func (*OrElse) Type() string   { return TypeBool }
func (*OrElse) sqlNode()       {}
func (o *OrElse) Write(w *Writer) error {
	w.AppendRune('(')
	if err := o.Left.Write(w); err != nil {
		return err
	}
	w.Append(" OR ")
	if err := o.Right.Write(w); err != nil {
		return err
	}
	w.AppendRune(')')
	return nil
}

// And combines predicates with AndAlso, skipping nil operands.
func And(left, right Node) Node {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	}
	return &AndAlso{Left: left, Right: right}
}

// Ordinal returns the highest join ordinal n references, or NoOrdinal.
func Ordinal(n Node) int {
	switch x := n.(type) {
	case *JoinReference:
		return x.Ordinal
	case *Join:
		return x.Ordinal
	case *MemberAccess:
		return Ordinal(x.Inner)
	case *Comparison:
		return max(Ordinal(x.Left), Ordinal(x.Right))
	case *AndAlso:
		return max(Ordinal(x.Left), Ordinal(x.Right))
	case *OrElse:
		return max(Ordinal(x.Left), Ordinal(x.Right))
	default:
		return NoOrdinal
	}
}

// Render writes n with a fresh writer and returns the text.
func Render(n Node, d meta.Dialect, opts ...Option) (string, error) {
	w := NewWriter(d, opts...)
	if err := n.Write(w); err != nil {
		return "", err
	}
	return w.String(), nil
}
