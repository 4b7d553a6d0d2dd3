package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/liftsql/internal/ir"
)

// Kind identifies the node kind of an expression.
type Kind int

const (
	KindParameter Kind = iota
	KindConstant
	KindMember
	KindEqual
	KindNotEqual
	KindGreaterThan
	KindGreaterThanOrEqual
	KindLessThan
	KindLessThanOrEqual
	KindAndAlso
	KindOrElse
	KindNot
	KindNegate
	KindAdd
	KindSubtract
	KindMultiply
	KindDivide
	KindMatch
	KindNotMatch
	KindIndex
	KindCall
	KindLambda
)

var kindNames = [...]string{
	KindParameter:          "Parameter",
	KindConstant:           "Constant",
	KindMember:             "MemberAccess",
	KindEqual:              "Equal",
	KindNotEqual:           "NotEqual",
	KindGreaterThan:        "GreaterThan",
	KindGreaterThanOrEqual: "GreaterThanOrEqual",
	KindLessThan:           "LessThan",
	KindLessThanOrEqual:    "LessThanOrEqual",
	KindAndAlso:            "AndAlso",
	KindOrElse:             "OrElse",
	KindNot:                "Not",
	KindNegate:             "Negate",
	KindAdd:                "Add",
	KindSubtract:           "Subtract",
	KindMultiply:           "Multiply",
	KindDivide:             "Divide",
	KindMatch:              "Match",
	KindNotMatch:           "NotMatch",
	KindIndex:              "Index",
	KindCall:               "Call",
	KindLambda:             "Lambda",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsComparison reports whether k is one of the six comparison kinds.
func (k Kind) IsComparison() bool {
	return k >= KindEqual && k <= KindLessThanOrEqual
}

// IsLogical reports whether k is AndAlso or OrElse.
func (k Kind) IsLogical() bool {
	return k == KindAndAlso || k == KindOrElse
}

// Expr is a node of a typed expression tree.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	Kind() Kind
	exprNode() // Marker method - seals interface to this package
}

// Parameter is a named input of a predicate: the self entity, a join
// entity, or a bound value. Type is an entity name or a scalar type name.
type Parameter struct {
	Name string
	Type string
}

func (*Parameter) Kind() Kind { return KindParameter }
func (*Parameter) exprNode()  {}

// Constant is a literal value. A nil Value means null.
type Constant struct {
	Value ir.IRValue
}

func (*Constant) Kind() Kind { return KindConstant }
func (*Constant) exprNode()  {}

// Type returns the scalar type name of the constant.
func (c *Constant) Type() string { return ir.TypeName(c.Value) }

// IsNull reports whether the constant is the null literal.
func (c *Constant) IsNull() bool { return ir.IsNull(c.Value) }

// Member is a property access: Expr.Name.
type Member struct {
	Expr Expr
	Name string
}

func (*Member) Kind() Kind { return KindMember }
func (*Member) exprNode()  {}

// Binary is a two-operand node. Op is a comparison, logical or arithmetic kind.
type Binary struct {
	Op    Kind
	Left  Expr
	Right Expr
}

func (b *Binary) Kind() Kind { return b.Op }
func (*Binary) exprNode()    {}

// Unary is a one-operand node (Not, Negate).
type Unary struct {
	Op      Kind
	Operand Expr
}

func (u *Unary) Kind() Kind { return u.Op }
func (*Unary) exprNode()    {}

// Call is a function or method invocation.
type Call struct {
	Func string
	Args []Expr
}

func (*Call) Kind() Kind { return KindCall }
func (*Call) exprNode()  {}

// Lambda pairs a body with the parameters it was declared over.
type Lambda struct {
	Params []*Parameter
	Body   Expr
}

func (*Lambda) Kind() Kind { return KindLambda }
func (*Lambda) exprNode()  {}

// Param creates a parameter.
func Param(name, typ string) *Parameter {
	return &Parameter{Name: name, Type: typ}
}

// Const creates a constant from a Go value. It panics if the value has no
// constant representation; use ir.FromGo to handle the error.
func Const(v any) *Constant {
	iv, err := ir.FromGo(v)
	if err != nil {
		panic(err)
	}
	return &Constant{Value: iv}
}

// Null creates the null constant.
func Null() *Constant {
	return &Constant{Value: ir.IRNull{}}
}

// Path builds root.m1.m2... as nested Member nodes.
func Path(root Expr, members ...string) Expr {
	e := root
	for _, m := range members {
		e = &Member{Expr: e, Name: m}
	}
	return e
}

func Eq(l, r Expr) *Binary  { return &Binary{Op: KindEqual, Left: l, Right: r} }
func Ne(l, r Expr) *Binary  { return &Binary{Op: KindNotEqual, Left: l, Right: r} }
func Gt(l, r Expr) *Binary  { return &Binary{Op: KindGreaterThan, Left: l, Right: r} }
func Ge(l, r Expr) *Binary  { return &Binary{Op: KindGreaterThanOrEqual, Left: l, Right: r} }
func Lt(l, r Expr) *Binary  { return &Binary{Op: KindLessThan, Left: l, Right: r} }
func Le(l, r Expr) *Binary  { return &Binary{Op: KindLessThanOrEqual, Left: l, Right: r} }
func And(l, r Expr) *Binary { return &Binary{Op: KindAndAlso, Left: l, Right: r} }
func Or(l, r Expr) *Binary  { return &Binary{Op: KindOrElse, Left: l, Right: r} }
func Not(e Expr) *Unary     { return &Unary{Op: KindNot, Operand: e} }

var operatorText = map[Kind]string{
	KindEqual:              "==",
	KindNotEqual:           "!=",
	KindGreaterThan:        ">",
	KindGreaterThanOrEqual: ">=",
	KindLessThan:           "<",
	KindLessThanOrEqual:    "<=",
	KindAndAlso:            "&&",
	KindOrElse:             "||",
	KindAdd:                "+",
	KindSubtract:           "-",
	KindMultiply:           "*",
	KindDivide:             "/",
	KindMatch:              "=~",
	KindNotMatch:           "!~",
}

// Format renders an expression in source form for diagnostics.
func Format(e Expr) string {
	var sb strings.Builder
	format(&sb, e)
	return sb.String()
}

func format(sb *strings.Builder, e Expr) {
	switch x := e.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *Parameter:
		sb.WriteString(x.Name)
	case *Constant:
		sb.WriteString(ir.String(x.Value))
	case *Member:
		format(sb, x.Expr)
		sb.WriteByte('.')
		sb.WriteString(x.Name)
	case *Binary:
		if x.Op == KindIndex {
			format(sb, x.Left)
			sb.WriteByte('[')
			format(sb, x.Right)
			sb.WriteByte(']')
			return
		}
		sb.WriteByte('(')
		format(sb, x.Left)
		sb.WriteString(" " + operatorText[x.Op] + " ")
		format(sb, x.Right)
		sb.WriteByte(')')
	case *Unary:
		if x.Op == KindNot {
			sb.WriteByte('!')
		} else {
			sb.WriteByte('-')
		}
		format(sb, x.Operand)
	case *Call:
		sb.WriteString(x.Func)
		sb.WriteByte('(')
		for i, a := range x.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, a)
		}
		sb.WriteByte(')')
	case *Lambda:
		sb.WriteByte('(')
		for i, p := range x.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.Name)
		}
		sb.WriteString(") => ")
		format(sb, x.Body)
	}
}
