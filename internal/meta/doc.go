// Package meta describes the entity model the query compiler resolves
// member-access paths against.
//
// The compiler never reaches into global state for metadata. It receives a
// Catalog (entities, columns, dependencies between entities) and a Dialect
// (name quoting, comparison operator spelling, parameter placeholders) and
// treats both as read-only collaborators.
//
// SCHEMA FILES:
//
// A Schema can be built programmatically or loaded from CUE:
//
//	dialect: "sqlite"
//	entity: Customer: {
//	    table: "Customers"
//	    columns: {
//	        Id:   {type: "int", identity: true}
//	        Name: {type: "string"}
//	    }
//	}
//	entity: Order: {
//	    columns: {
//	        Id:         {type: "int", identity: true}
//	        CustomerId: {type: "int", references: "Customer.Id"}
//	        Customer:   {type: "Customer", via: "CustomerId"}
//	        Status:     {type: "string"}
//	    }
//	}
//
// A column with `via` is a navigation property: it has no storage of its own
// and is reached through the named foreign-key column. A missing `table`
// defaults to the pluralised entity name ("Order" -> "Orders").
package meta
