package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/liftsql/internal/ir"
	"github.com/roach88/liftsql/internal/meta"
	"github.com/roach88/liftsql/internal/sqlast"
)

// liftFixture builds comparisons over self and two joins c (1) and r (2).
type liftFixture struct {
	self   *sqlast.Self
	c, r   *sqlast.Join
	selfEq *sqlast.Comparison // self only
	cEq    *sqlast.Comparison // self and c
	rEq    *sqlast.Comparison // c and r
}

func newLiftFixture() *liftFixture {
	id := &meta.Column{Member: "Id", Name: "Id", Type: "int", Identity: true}
	fk := &meta.Column{Member: "ParentId", Name: "ParentId", Type: "int"}
	e := meta.NewEntity("Node", "Node", id, fk)

	f := &liftFixture{
		self: &sqlast.Self{Alias: "self", Entity: e},
		c:    &sqlast.Join{Ordinal: 1, Entity: e, Alias: "c"},
		r:    &sqlast.Join{Ordinal: 2, Entity: e, Alias: "r"},
	}
	f.selfEq = sqlast.NewComparison(meta.Equal, &sqlast.MemberAccess{Column: id, Inner: f.self}, &sqlast.Constant{Value: ir.IRInt(1)})
	f.cEq = sqlast.NewComparison(meta.Equal, &sqlast.MemberAccess{Column: fk, Inner: f.self}, &sqlast.MemberAccess{Column: id, Inner: f.c.Reference()})
	f.rEq = sqlast.NewComparison(meta.Equal, &sqlast.MemberAccess{Column: fk, Inner: f.c.Reference()}, &sqlast.MemberAccess{Column: id, Inner: f.r.Reference()})
	return f
}

func renderNode(t *testing.T, n sqlast.Node) string {
	t.Helper()
	if n == nil {
		return ""
	}
	s, err := sqlast.Render(n, meta.Plain)
	require.NoError(t, err)
	return s
}

func TestCondition_LeafCandidacy(t *testing.T) {
	f := newLiftFixture()

	self := comparisonCondition(f.selfEq)
	c := comparisonCondition(f.cEq)
	r := comparisonCondition(f.rEq)

	assert.False(t, self.IsLiftCandidateFor(1), "self-only comparisons stay in WHERE")
	assert.True(t, c.IsLiftCandidateFor(1))
	assert.False(t, c.IsLiftCandidateFor(2), "belongs to the earlier join")
	assert.False(t, r.IsLiftCandidateFor(1), "references a later join")
	assert.True(t, r.IsLiftCandidateFor(2))
}

func TestCondition_CompositeCandidacy(t *testing.T) {
	f := newLiftFixture()

	and := andCondition(comparisonCondition(f.cEq), comparisonCondition(f.cEq))
	assert.True(t, and.IsLiftCandidateFor(1))

	mixed := andCondition(comparisonCondition(f.cEq), comparisonCondition(f.selfEq))
	assert.False(t, mixed.IsLiftCandidateFor(1))

	or := orCondition(comparisonCondition(f.cEq), comparisonCondition(f.rEq))
	assert.False(t, or.IsLiftCandidateFor(1))
	assert.False(t, or.IsLiftCandidateFor(2))
}

func TestCondition_AndIsSplit(t *testing.T) {
	f := newLiftFixture()
	where := andCondition(andCondition(comparisonCondition(f.selfEq), comparisonCondition(f.cEq)), comparisonCondition(f.rEq))

	assert.True(t, where.liftInto(f.c))
	assert.Equal(t, "self.ParentId = c.Id", renderNode(t, f.c.On))
	assert.Equal(t, "self.Id = 1 AND c.ParentId = r.Id", renderNode(t, where.Node()))

	assert.True(t, where.liftInto(f.r))
	assert.Equal(t, "c.ParentId = r.Id", renderNode(t, f.r.On))
	assert.Equal(t, "self.Id = 1", renderNode(t, where.Node()))
	assert.False(t, where.Lifted())
}

func TestCondition_OrIsNeverSplit(t *testing.T) {
	f := newLiftFixture()
	where := andCondition(
		comparisonCondition(f.cEq),
		orCondition(comparisonCondition(f.cEq), comparisonCondition(f.selfEq)),
	)

	assert.True(t, where.liftInto(f.c))
	assert.False(t, where.liftInto(f.r))
	assert.Equal(t, "self.ParentId = c.Id", renderNode(t, f.c.On))
	assert.Nil(t, f.r.On)
	assert.Equal(t, "(self.ParentId = c.Id OR self.Id = 1)", renderNode(t, where.Node()))
}

func TestCondition_WholeTreeLifted(t *testing.T) {
	f := newLiftFixture()
	where := andCondition(comparisonCondition(f.cEq), orCondition(comparisonCondition(f.cEq), comparisonCondition(f.cEq)))

	assert.True(t, where.liftInto(f.c))
	assert.True(t, where.Lifted())
	assert.Nil(t, where.Node())
	assert.False(t, where.liftInto(f.c), "a lifted condition is never lifted again")
	assert.Equal(t, "self.ParentId = c.Id AND (self.ParentId = c.Id OR self.ParentId = c.Id)", renderNode(t, f.c.On))
}

func TestCondition_PartiallyLiftedAndMovesRemainder(t *testing.T) {
	f := newLiftFixture()
	// c's part moves first; the AND then qualifies for r with only r's part.
	where := andCondition(comparisonCondition(f.cEq), comparisonCondition(f.rEq))

	where.liftInto(f.c)
	require.False(t, where.Lifted())
	assert.True(t, where.IsLiftCandidateFor(2))

	where.liftInto(f.r)
	assert.True(t, where.Lifted())
	assert.Equal(t, "c.ParentId = r.Id", renderNode(t, f.r.On))
}

func TestCondition_NilHelpers(t *testing.T) {
	f := newLiftFixture()
	leaf := comparisonCondition(f.selfEq)

	assert.Same(t, leaf, andCondition(nil, leaf))
	assert.Same(t, leaf, andCondition(leaf, nil))

	var none *Condition
	assert.Nil(t, none.Node())
}
