// Package querysql compiles predicate and ordering expressions over an
// entity model into SQL JOIN, WHERE and ORDER BY clauses.
//
// LIFECYCLE:
//
// A Compiler is created per query definition and moves through
//
//	Uninitialized -> SelfBound -> Ingesting -> Compiled
//
// RegisterSelfParameter binds the entity the query is about. Explicit join
// parameters are registered next, then one or more predicates are ingested
// and an ordering may be set. The first Text or Write call runs the lift
// pass under a sync.Once and freezes the compiler; from then on Text and
// Write are read-only and safe for concurrent use. The first error is
// sticky.
//
// MEMBER RESOLUTION:
//
// A member chain such as self.Customer.Region.Name is resolved inner to
// outer. A navigation property (a member typed as another entity) infers a
// join the first time its path is used; the join is memoized by path, so
// every later use of "self.Customer" reuses the same alias. A navigation
// followed by the identity member it references (self.Customer.Id) reads
// the foreign key instead and infers no join. Entity-valued operands
// compare by identity key.
//
// LIFT:
//
// After ingestion, WHERE conditions move into join ON-expressions where
// that keeps query results unchanged. Joins are visited in ordinal order.
// A comparison moves into the join whose ordinal is the highest it
// references. AND is split into its parts; an OR moves only as a whole.
// An explicit join that receives no condition has no ON-expression and
// fails compilation.
//
//	self.CustomerId == c.Id && c.Name == "Acme"
//
// compiles to
//
//	JOIN Customer AS c
//		ON self.CustomerId = c.Id AND c.Name = 'Acme'
//
// with an empty WHERE clause.
package querysql
