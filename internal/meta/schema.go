package meta

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/liftsql/internal/ir"
)

// Catalog is the read-only metadata collaborator consumed by the compiler.
type Catalog interface {
	// Entity looks up an entity by name.
	Entity(name string) (*Entity, bool)

	// Dependency resolves the navigation property member of from into the
	// foreign-key / primary-key column pair that correlates the two entities.
	Dependency(from *Entity, member string) (*Dependency, error)
}

// Entity describes one mapped type.
type Entity struct {
	Name    string    // Type name used in expressions (e.g. "Order")
	Table   string    // Table reference (e.g. "Orders" or "sales.Orders")
	Columns []*Column // Declaration order

	byMember map[string]*Column
}

// Column describes one member of an entity.
type Column struct {
	Member   string     // Member name used in expressions
	Name     string     // Target column name; empty for navigation properties
	Type     string     // Scalar type name or, for navigations, the target entity name
	Identity bool       // Part of the primary key
	Nullable bool       // Column admits NULL
	Via      string     // Navigation only: the foreign-key member that reaches Type
	Ref      *Reference // Foreign key only: the member this column references
}

// Reference names the member a foreign-key column points at.
type Reference struct {
	Entity string
	Member string
}

func (r *Reference) String() string {
	return r.Entity + "." + r.Member
}

// Dependency is a resolved navigation: From.ForeignKey references To.PrimaryKey.
type Dependency struct {
	From       *Entity
	To         *Entity
	Member     string
	ForeignKey *Column
	PrimaryKey *Column
}

// IsNavigation reports whether the column is a navigation property.
func (c *Column) IsNavigation() bool {
	return c.Via != ""
}

// References reports whether c is a foreign key pointing at member of entity.
func (c *Column) References(entity, member string) bool {
	return c.Ref != nil && c.Ref.Entity == entity && c.Ref.Member == member
}

// NewEntity creates an entity. Column names default to member names.
func NewEntity(name, table string, columns ...*Column) *Entity {
	e := &Entity{
		Name:     name,
		Table:    table,
		byMember: make(map[string]*Column, len(columns)),
	}
	for _, c := range columns {
		if c.Name == "" && !c.IsNavigation() {
			c.Name = c.Member
		}
		e.Columns = append(e.Columns, c)
		e.byMember[c.Member] = c
	}
	return e
}

// Column looks up a member by name.
func (e *Entity) Column(member string) (*Column, bool) {
	c, ok := e.byMember[member]
	return c, ok
}

// Identity returns the primary-key columns in declaration order.
func (e *Entity) Identity() []*Column {
	var ids []*Column
	for _, c := range e.Columns {
		if c.Identity {
			ids = append(ids, c)
		}
	}
	return ids
}

// Stored returns every column that has storage (everything but navigations).
func (e *Entity) Stored() []*Column {
	var cols []*Column
	for _, c := range e.Columns {
		if !c.IsNavigation() {
			cols = append(cols, c)
		}
	}
	return cols
}

// Schema is an in-memory Catalog.
type Schema struct {
	dialect  string
	entities map[string]*Entity
	order    []string
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{entities: make(map[string]*Entity)}
}

// Add registers an entity. Entity names must be unique.
func (s *Schema) Add(e *Entity) error {
	if _, exists := s.entities[e.Name]; exists {
		return fmt.Errorf("duplicate entity %q", e.Name)
	}
	s.entities[e.Name] = e
	s.order = append(s.order, e.Name)
	return nil
}

// MustAdd is like Add but panics on error.
// Use only in tests or when inputs are known to be valid.
func (s *Schema) MustAdd(entities ...*Entity) *Schema {
	for _, e := range entities {
		if err := s.Add(e); err != nil {
			panic(err)
		}
	}
	return s
}

// Dialect returns the dialect name declared by the schema file, if any.
func (s *Schema) Dialect() string {
	return s.dialect
}

// Entity implements Catalog.
func (s *Schema) Entity(name string) (*Entity, bool) {
	e, ok := s.entities[name]
	return e, ok
}

// Entities returns all entities in registration order.
func (s *Schema) Entities() []*Entity {
	out := make([]*Entity, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.entities[name])
	}
	return out
}

// Dependency implements Catalog.
func (s *Schema) Dependency(from *Entity, member string) (*Dependency, error) {
	nav, ok := from.Column(member)
	if !ok {
		return nil, fmt.Errorf("entity %s has no member %s", from.Name, member)
	}
	if !nav.IsNavigation() {
		return nil, fmt.Errorf("%s.%s is not a navigation property", from.Name, member)
	}

	to, ok := s.entities[nav.Type]
	if !ok {
		return nil, fmt.Errorf("no dependency from %s to %s via %s: unknown entity %s",
			from.Name, nav.Type, member, nav.Type)
	}

	fk, ok := from.Column(nav.Via)
	if !ok || fk.Ref == nil {
		return nil, fmt.Errorf("no dependency from %s to %s via %s: %s is not a foreign key",
			from.Name, to.Name, member, nav.Via)
	}
	if fk.Ref.Entity != to.Name {
		return nil, fmt.Errorf("no dependency from %s to %s via %s: %s references %s",
			from.Name, to.Name, member, nav.Via, fk.Ref)
	}

	pk, ok := to.Column(fk.Ref.Member)
	if !ok || pk.IsNavigation() {
		return nil, fmt.Errorf("no dependency from %s to %s via %s: %s has no column %s",
			from.Name, to.Name, member, to.Name, fk.Ref.Member)
	}

	return &Dependency{
		From:       from,
		To:         to,
		Member:     member,
		ForeignKey: fk,
		PrimaryKey: pk,
	}, nil
}

// Revision hashes the schema so compiled output can be cached per revision.
func (s *Schema) Revision() (string, error) {
	entities := make([]any, 0, len(s.order))
	for _, e := range s.Entities() {
		cols := make([]any, 0, len(e.Columns))
		for _, c := range e.Columns {
			col := map[string]any{
				"member":   c.Member,
				"name":     c.Name,
				"type":     c.Type,
				"identity": c.Identity,
				"nullable": c.Nullable,
				"via":      c.Via,
			}
			if c.Ref != nil {
				col["ref"] = c.Ref.String()
			}
			cols = append(cols, col)
		}
		entities = append(entities, map[string]any{
			"name":    e.Name,
			"table":   e.Table,
			"columns": cols,
		})
	}
	return ir.SchemaRevision(map[string]any{
		"dialect":  s.dialect,
		"entities": entities,
	})
}

// String lists the entities for diagnostics.
func (s *Schema) String() string {
	names := append([]string(nil), s.order...)
	sort.Strings(names)
	return "schema(" + strings.Join(names, ", ") + ")"
}
