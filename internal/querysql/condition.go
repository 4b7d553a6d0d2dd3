package querysql

import (
	"github.com/roach88/liftsql/internal/sqlast"
)

type conditionOp int

const (
	condComparison conditionOp = iota
	condAnd
	condOr
)

// Condition mirrors the boolean shape of the WHERE predicate and records
// which parts have been lifted into a join's ON-expression.
type Condition struct {
	op          conditionOp
	comparison  *sqlast.Comparison
	left, right *Condition
	ordinal     int  // Highest join ordinal referenced
	lifted      bool // Set once, when absorbed by a join
}

func comparisonCondition(c *sqlast.Comparison) *Condition {
	return &Condition{op: condComparison, comparison: c, ordinal: sqlast.Ordinal(c)}
}

func andCondition(left, right *Condition) *Condition {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	}
	return &Condition{op: condAnd, left: left, right: right, ordinal: max(left.ordinal, right.ordinal)}
}

func orCondition(left, right *Condition) *Condition {
	return &Condition{op: condOr, left: left, right: right, ordinal: max(left.ordinal, right.ordinal)}
}

// Lifted reports whether the whole condition was absorbed by a join.
func (c *Condition) Lifted() bool {
	return c.lifted
}

// IsLiftCandidateFor reports whether the not-yet-lifted parts of c can move
// into the ON-expression of the join with the given ordinal.
//
// A comparison qualifies when the highest ordinal it references is exactly
// the join's. Comparisons over self and earlier joins only stay with an
// earlier join or in WHERE. AND and OR qualify when both children do.
func (c *Condition) IsLiftCandidateFor(ordinal int) bool {
	if c.lifted {
		return false
	}
	switch c.op {
	case condComparison:
		return c.ordinal == ordinal
	default:
		return c.left.absorbs(ordinal) && c.right.absorbs(ordinal)
	}
}

func (c *Condition) absorbs(ordinal int) bool {
	return c.lifted || c.IsLiftCandidateFor(ordinal)
}

// liftInto moves every liftable part of c into j and reports whether
// anything moved. Only AND is split; a comparison or an OR moves whole.
func (c *Condition) liftInto(j *sqlast.Join) bool {
	if c.lifted {
		return false
	}
	if c.IsLiftCandidateFor(j.Ordinal) {
		j.AddCondition(c.Node())
		c.markLifted()
		return true
	}
	if c.op != condAnd {
		return false
	}
	l := c.left.liftInto(j)
	r := c.right.liftInto(j)
	if c.left.lifted && c.right.lifted {
		c.lifted = true
	}
	return l || r
}

func (c *Condition) markLifted() {
	c.lifted = true
	if c.left != nil {
		c.left.markLifted()
		c.right.markLifted()
	}
}

// Node rebuilds the SQL predicate from the parts of c that were not lifted.
// It returns nil when everything was lifted.
func (c *Condition) Node() sqlast.Node {
	if c == nil || c.lifted {
		return nil
	}
	switch c.op {
	case condComparison:
		return c.comparison
	case condAnd:
		return sqlast.And(c.left.Node(), c.right.Node())
	default:
		return &sqlast.OrElse{Left: c.left.Node(), Right: c.right.Node()}
	}
}
