package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/literal"
	"cuelang.org/go/cue/parser"
	"cuelang.org/go/cue/token"

	"github.com/roach88/liftsql/internal/ir"
)

// ParseError reports a predicate that could not be turned into a tree.
type ParseError struct {
	Source  string
	Message string
	Pos     token.Pos
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("parse %q: %d:%d: %s", e.Source, e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("parse %q: %s", e.Source, e.Message)
}

var binaryOps = map[token.Token]Kind{
	token.LAND: KindAndAlso,
	token.LOR:  KindOrElse,
	token.EQL:  KindEqual,
	token.NEQ:  KindNotEqual,
	token.GTR:  KindGreaterThan,
	token.GEQ:  KindGreaterThanOrEqual,
	token.LSS:  KindLessThan,
	token.LEQ:  KindLessThanOrEqual,
	token.ADD:  KindAdd,
	token.SUB:  KindSubtract,
	token.MUL:  KindMultiply,
	token.QUO:  KindDivide,
	token.MAT:  KindMatch,
	token.NMAT: KindNotMatch,
}

// Parse converts predicate or ordering source text into an expression tree.
// Identifiers resolve against params; any other identifier is an error.
func Parse(src string, params ...*Parameter) (Expr, error) {
	node, err := parser.ParseExpr("predicate", src)
	if err != nil {
		return nil, &ParseError{Source: src, Message: err.Error()}
	}

	p := &exprParser{src: src, params: make(map[string]*Parameter, len(params))}
	for _, param := range params {
		if _, dup := p.params[param.Name]; dup {
			return nil, &ParseError{Source: src, Message: fmt.Sprintf("duplicate parameter %q", param.Name)}
		}
		p.params[param.Name] = param
	}
	return p.convert(node)
}

// ParseLambda is like Parse but keeps the parameter list with the body.
func ParseLambda(src string, params ...*Parameter) (*Lambda, error) {
	body, err := Parse(src, params...)
	if err != nil {
		return nil, err
	}
	return &Lambda{Params: params, Body: body}, nil
}

type exprParser struct {
	src    string
	params map[string]*Parameter
}

func (p *exprParser) errorf(pos token.Pos, format string, args ...any) error {
	return &ParseError{Source: p.src, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func (p *exprParser) convert(n ast.Expr) (Expr, error) {
	switch x := n.(type) {
	case *ast.ParenExpr:
		return p.convert(x.X)

	case *ast.BinaryExpr:
		op, ok := binaryOps[x.Op]
		if !ok {
			return nil, p.errorf(x.OpPos, "unsupported operator %s", x.Op)
		}
		left, err := p.convert(x.X)
		if err != nil {
			return nil, err
		}
		right, err := p.convert(x.Y)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, Left: left, Right: right}, nil

	case *ast.UnaryExpr:
		return p.convertUnary(x)

	case *ast.SelectorExpr:
		name, ok := x.Sel.(*ast.Ident)
		if !ok {
			return nil, p.errorf(x.Pos(), "unsupported selector %T", x.Sel)
		}
		inner, err := p.convert(x.X)
		if err != nil {
			return nil, err
		}
		return &Member{Expr: inner, Name: name.Name}, nil

	case *ast.Ident:
		if param, ok := p.params[x.Name]; ok {
			return param, nil
		}
		switch x.Name {
		case "null":
			return Null(), nil
		case "true":
			return &Constant{Value: ir.IRBool(true)}, nil
		case "false":
			return &Constant{Value: ir.IRBool(false)}, nil
		}
		return nil, p.errorf(x.Pos(), "undeclared identifier %q", x.Name)

	case *ast.BasicLit:
		return p.convertLiteral(x, false)

	case *ast.IndexExpr:
		target, err := p.convert(x.X)
		if err != nil {
			return nil, err
		}
		index, err := p.convert(x.Index)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: KindIndex, Left: target, Right: index}, nil

	case *ast.CallExpr:
		call := &Call{Func: funcName(x.Fun)}
		for _, a := range x.Args {
			arg, err := p.convert(a)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil

	default:
		return nil, p.errorf(n.Pos(), "unsupported syntax %T", n)
	}
}

func (p *exprParser) convertUnary(x *ast.UnaryExpr) (Expr, error) {
	switch x.Op {
	case token.SUB:
		if lit, ok := x.X.(*ast.BasicLit); ok && (lit.Kind == token.INT || lit.Kind == token.FLOAT) {
			return p.convertLiteral(lit, true)
		}
		operand, err := p.convert(x.X)
		if err != nil {
			return nil, err
		}
		return &Unary{Op: KindNegate, Operand: operand}, nil
	case token.NOT:
		operand, err := p.convert(x.X)
		if err != nil {
			return nil, err
		}
		return &Unary{Op: KindNot, Operand: operand}, nil
	case token.ADD:
		return p.convert(x.X)
	default:
		return nil, p.errorf(x.OpPos, "unsupported unary operator %s", x.Op)
	}
}

func (p *exprParser) convertLiteral(lit *ast.BasicLit, negate bool) (Expr, error) {
	switch lit.Kind {
	case token.STRING:
		s, err := literal.Unquote(lit.Value)
		if err != nil {
			return nil, p.errorf(lit.ValuePos, "invalid string literal: %v", err)
		}
		return &Constant{Value: ir.IRString(s)}, nil

	case token.INT:
		text := strings.ReplaceAll(lit.Value, "_", "")
		if negate {
			text = "-" + text
		}
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, p.errorf(lit.ValuePos, "invalid integer literal %s", lit.Value)
		}
		return &Constant{Value: ir.IRInt(n)}, nil

	case token.FLOAT:
		f, err := strconv.ParseFloat(strings.ReplaceAll(lit.Value, "_", ""), 64)
		if err != nil {
			return nil, p.errorf(lit.ValuePos, "invalid float literal %s", lit.Value)
		}
		if negate {
			f = -f
		}
		return &Constant{Value: ir.IRFloat(f)}, nil

	case token.NULL:
		return Null(), nil
	case token.TRUE:
		return &Constant{Value: ir.IRBool(true)}, nil
	case token.FALSE:
		return &Constant{Value: ir.IRBool(false)}, nil

	default:
		return nil, p.errorf(lit.ValuePos, "unsupported literal %s", lit.Value)
	}
}

// funcName renders the callee of a call for error messages.
func funcName(fun ast.Expr) string {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		if sel, ok := f.Sel.(*ast.Ident); ok {
			return funcName(f.X) + "." + sel.Name
		}
	}
	return fmt.Sprintf("%T", fun)
}
