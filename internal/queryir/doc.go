// Package queryir provides the typed expression trees that the query
// compiler ingests.
//
// A predicate such as
//
//	self.CustomerId == c.Id && c.Name == "Acme"
//
// is a tree of Binary nodes over Member chains rooted at Parameters, with
// Constants as leaves. The compiler accepts a closed grammar:
//
//	predicate := predicate && predicate
//	           | predicate || predicate
//	           | value (== | != | > | >= | < | <=) value
//	value     := parameter | constant | value.member
//
// Every other node kind (Not, Add, Call, ...) is representable so that it
// can be reported by name, but it is rejected rather than translated.
//
// SEALED INTERFACES:
//
// Expr is a sealed interface using the marker method pattern. Only types in
// this package implement it, which keeps type switches in the compiler
// exhaustive:
//
//	switch e := expr.(type) {
//	case *Binary:
//	    // comparison or boolean combinator
//	case *Member:
//	    // member-access chain
//	default:
//	    // rejected by name via e.Kind()
//	}
//
// TEXTUAL FORM:
//
// Parse reads predicates written in CUE expression syntax (which shares
// Go's operators) using the CUE parser. Identifiers must name one of the
// declared parameters; `null`, `true`, `false`, numbers and strings become
// constants.
package queryir
