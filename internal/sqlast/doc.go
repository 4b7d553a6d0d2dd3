// Package sqlast holds the SQL-side AST produced by the query compiler and
// the text sink every node writes itself into.
//
// NODE KINDS:
//
// The node set is closed:
//
//	Self            the entity the query is about ("self")
//	Join            a JOIN clause with its accumulated ON-expression
//	JoinReference   the alias of a join, used as a member-access root
//	Parameter       a bound placeholder (@name, :name, $n)
//	Constant        a literal value
//	Null            the NULL literal
//	MemberAccess    <root>.<column>
//	Comparison      <value> <op> <value>
//	AndAlso         <predicate> AND <predicate>
//	OrElse          (<predicate> OR <predicate>)
//
// Nodes are immutable once built, except Join, whose ON-expression grows
// while the compiler ingests and lifts conditions. Node is a sealed
// interface so switches over it stay exhaustive.
//
// ORDINALS:
//
// Every join has a 1-based ordinal in discovery order. Ordinal reports the
// highest join ordinal a node references; Self, constants and parameters
// report NoOrdinal. A join's ON-expression may only reference ordinals up to
// its own.
//
// WRITER:
//
// Writer is a fluent, indentation-aware text sink bound to a meta.Dialect.
// Indent depth is the caller's responsibility: Outdent below zero is not
// clamped, and a negative depth simply writes no indentation.
package sqlast
