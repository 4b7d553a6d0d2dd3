// Package harness runs query compilation scenarios.
//
// A scenario pairs an inline CUE schema with one query definition and
// states what compiling it must produce: a WHERE/JOIN fragment, the rows
// the compiled statement returns against seeded SQLite tables, or the code
// of the error compilation must fail with.
//
// # Scenario Format
//
//	name: acme_orders
//	description: "Correlation and filter both move into the join"
//	dialect: sqlite
//	schema: |
//	  entity: Customer: columns: { ... }
//	query:
//	  entity: Order
//	  joins:
//	    - {name: c, entity: Customer}
//	  where: self.CustomerId == c.Id && c.Name == "Acme"
//	setup: |
//	  CREATE TABLE ...; INSERT INTO ...;
//	args: {status: Open}
//	expect:
//	  fragment: "JOIN ..."
//	  rows: [1, 2]
//
// expect.error names a compile error code (MAPPING, UNSUPPORTED_EXPRESSION,
// ...) and excludes the other expectations.
//
// # Golden Files
//
// RunWithGolden snapshots the statement, arguments and rows as canonical
// JSON under testdata/golden/{name}.golden. Regenerate with
//
//	go test ./internal/harness -update
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/acme_orders.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
