package sqlast

import (
	"fmt"

	"github.com/roach88/liftsql/internal/meta"
)

// Join is a JOIN clause. Ordinal is 1-based discovery order; Parent is the
// ordinal of the join this one was reached through, or 0.
type Join struct {
	Ordinal  int
	Entity   *meta.Entity
	Alias    string
	On       Node
	Parent   int
	Inferred bool
	Path     string // Navigation path for inferred joins ("self.Customer")
}

func (*Join) Kind() NodeKind { return KindJoin }
func (j *Join) Type() string { return j.Entity.Name }
func (*Join) sqlNode()       {}

// Reference returns a node addressing the join's alias.
func (j *Join) Reference() *JoinReference {
	return &JoinReference{Ordinal: j.Ordinal, Alias: j.Alias, Entity: j.Entity}
}

// AddCondition AND-appends n to the ON-expression.
func (j *Join) AddCondition(n Node) {
	j.On = And(j.On, n)
}

// Write renders
//
//	JOIN <table> AS <alias>
//		ON <expr>
//
// It fails with a JoinError when no ON-expression was accumulated.
func (j *Join) Write(w *Writer) error {
	if j.On == nil {
		return &JoinError{Table: j.Entity.Table, Alias: j.Alias}
	}
	d := w.Dialect()
	w.Append("JOIN ").
		Append(d.QuoteName(j.Entity.Table)).
		Append(" AS ").
		Append(d.QuoteName(j.Alias)).
		Indent().
		NewLineAppend("ON ")
	err := j.On.Write(w)
	w.Outdent()
	return err
}

// JoinError reports a join that would render without an ON-expression.
type JoinError struct {
	Table string
	Alias string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("join %s AS %s has no ON expression", e.Table, e.Alias)
}
