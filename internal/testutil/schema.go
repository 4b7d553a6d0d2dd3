package testutil

import (
	"github.com/roach88/liftsql/internal/meta"
)

// ShopCUE is the shared fixture schema: orders placed by customers that
// live in regions. Order has two navigations to Customer (Customer and
// Referrer), so a join to Customer cannot be inferred from the entity
// type alone.
const ShopCUE = `
entity: Region: {
	table: "Region"
	columns: {
		Id:   {type: "int", identity: true}
		Name: {type: "string"}
	}
}
entity: Customer: {
	table: "Customer"
	columns: {
		Id:       {type: "int", identity: true}
		Name:     {type: "string"}
		RegionId: {type: "int", references: "Region.Id", nullable: true}
		Region:   {type: "Region", via: "RegionId"}
	}
}
entity: Order: {
	table: "Orders"
	columns: {
		Id:         {type: "int", identity: true}
		CustomerId: {type: "int", references: "Customer.Id"}
		Customer:   {type: "Customer", via: "CustomerId"}
		ReferrerId: {type: "int", references: "Customer.Id", nullable: true}
		Referrer:   {type: "Customer", via: "ReferrerId"}
		Status:     {type: "string"}
		Total:      {type: "float"}
		ShippedAt:  {type: "string", name: "shipped_at", nullable: true}
	}
}
`

// ShopDDL creates the fixture tables in SQLite.
const ShopDDL = `
CREATE TABLE Region (
	Id   INTEGER PRIMARY KEY,
	Name TEXT NOT NULL
);
CREATE TABLE Customer (
	Id       INTEGER PRIMARY KEY,
	Name     TEXT NOT NULL,
	RegionId INTEGER REFERENCES Region(Id)
);
CREATE TABLE Orders (
	Id         INTEGER PRIMARY KEY,
	CustomerId INTEGER NOT NULL REFERENCES Customer(Id),
	ReferrerId INTEGER REFERENCES Customer(Id),
	Status     TEXT NOT NULL,
	Total      REAL NOT NULL,
	shipped_at TEXT
);
`

// ShopRows seeds the fixture tables.
const ShopRows = `
INSERT INTO Region (Id, Name) VALUES (1, 'North'), (2, 'South');
INSERT INTO Customer (Id, Name, RegionId) VALUES
	(1, 'Acme', 1),
	(2, 'Globex', 2),
	(3, 'Initech', NULL);
INSERT INTO Orders (Id, CustomerId, ReferrerId, Status, Total, shipped_at) VALUES
	(1, 1, NULL, 'Open', 10.0, NULL),
	(2, 1, 2, 'Closed', 250.0, '2024-01-02'),
	(3, 2, 1, 'Open', 75.5, NULL),
	(4, 3, NULL, 'Cancelled', 5.0, NULL),
	(5, 2, NULL, 'Closed', 120.0, '2024-02-03');
`

// Shop compiles ShopCUE. It panics on error; the fixture is known valid.
func Shop() *meta.Schema {
	s, err := meta.CompileSchema([]byte(ShopCUE), "shop.cue")
	if err != nil {
		panic(err)
	}
	return s
}
