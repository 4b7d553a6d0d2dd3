// Package store provides a SQLite database for executing compiled queries.
//
// The compiler itself performs no I/O. The store exists so compiled
// statements can be checked against a real engine: Prepare resolves every
// table and column a statement names, and Select runs it with named
// arguments (@name) so lifted and unlifted forms of the same predicate can
// be compared row for row.
//
// # Database Configuration
//
//   - WAL mode for file databases: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Result values are converted to the ir value model (ir.IRString, ir.IRInt,
// ir.IRFloat, ir.IRBool, ir.IRNull); TEXT columns read as []byte by the
// driver become strings.
package store
