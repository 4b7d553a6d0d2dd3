package querysql

import (
	"fmt"
	"log/slog"

	"github.com/roach88/liftsql/internal/meta"
	"github.com/roach88/liftsql/internal/queryir"
	"github.com/roach88/liftsql/internal/sqlast"
)

// operand is a resolved comparison or ordering operand.
//
// entity is set when the operand denotes an entity rather than a scalar.
// node then addresses the entity (self or a join alias) or, when dep is set,
// the foreign-key column of a navigation whose join has not been
// materialized yet.
type operand struct {
	node   sqlast.Node
	entity *meta.Entity
	dep    *meta.Dependency
	path   string
}

// value resolves a comparison operand.
func (c *Compiler) value(e queryir.Expr) (operand, error) {
	switch x := e.(type) {
	case *queryir.Constant:
		if x.IsNull() {
			return operand{node: &sqlast.Null{}}, nil
		}
		return operand{node: &sqlast.Constant{Value: x.Value}}, nil
	case *queryir.Parameter, *queryir.Member:
		return c.resolve(x)
	case nil:
		return operand{}, newError(ErrCodeInvalidUsage, "operand is nil")
	default:
		return operand{}, unsupported(e.Kind(), queryir.Format(e))
	}
}

// resolve walks a member chain outer-to-inner onto a stack, then resolves
// it inner-to-outer against the metadata. Every prefix is memoized by its
// textual path, so the same navigation reuses the same join.
func (c *Compiler) resolve(e queryir.Expr) (operand, error) {
	var stack []string
	cur := e
	for {
		m, ok := cur.(*queryir.Member)
		if !ok {
			break
		}
		stack = append(stack, m.Name)
		cur = m.Expr
	}

	p, ok := cur.(*queryir.Parameter)
	if !ok {
		if cur == nil {
			return operand{}, newError(ErrCodeInvalidUsage, "member access on nil expression")
		}
		return operand{}, unsupported(cur.Kind(), queryir.Format(e))
	}

	result, err := c.root(p)
	if err != nil {
		return operand{}, err
	}

	for i := len(stack) - 1; i >= 0; i-- {
		path := result.path + "." + stack[i]
		if cached, ok := c.resolved[path]; ok {
			result = cached
			continue
		}
		next, err := c.step(result, stack[i], path)
		if err != nil {
			return operand{}, err
		}
		c.resolved[path] = next
		result = next
	}
	return result, nil
}

// root resolves the parameter a member chain starts from.
func (c *Compiler) root(p *queryir.Parameter) (operand, error) {
	if c.self != nil && p.Name == c.self.Alias {
		if p.Type != "" && p.Type != c.entity.Name {
			return operand{}, newError(ErrCodeInvalidUsage, "parameter %q is declared as %s but self is %s", p.Name, p.Type, c.entity.Name)
		}
		return operand{node: c.self, entity: c.entity, path: p.Name}, nil
	}
	if j, ok := c.constraints.Joins[p.Name]; ok {
		if p.Type != "" && p.Type != j.Entity.Name {
			return operand{}, newError(ErrCodeInvalidUsage, "parameter %q is declared as %s but joins %s", p.Name, p.Type, j.Entity.Name)
		}
		return operand{node: j.Reference(), entity: j.Entity, path: p.Name}, nil
	}
	if bound, ok := c.constraints.Parameters[p.Name]; ok {
		return operand{node: bound, path: p.Name}, nil
	}
	return operand{}, newError(ErrCodeInvalidUsage, "parameter %q is not registered", p.Name)
}

// step resolves member name on cur.
func (c *Compiler) step(cur operand, name, path string) (operand, error) {
	if cur.dep != nil {
		if name == cur.dep.PrimaryKey.Member {
			// The foreign key already holds the referenced identity.
			return operand{node: cur.node, path: path}, nil
		}
		j := c.joinFor(cur)
		cur = operand{node: j.Reference(), entity: j.Entity, path: cur.path}
	}

	if cur.entity == nil {
		return operand{}, mappingError(fmt.Errorf("%s is a %s value and has no member %s", cur.path, cur.node.Type(), name))
	}
	col, ok := cur.entity.Column(name)
	if !ok {
		return operand{}, mappingError(fmt.Errorf("entity %s has no member %s", cur.entity.Name, name))
	}

	if !col.IsNavigation() {
		return operand{node: &sqlast.MemberAccess{Column: col, Inner: cur.node}, path: path}, nil
	}

	dep, err := c.catalog.Dependency(cur.entity, name)
	if err != nil {
		return operand{}, mappingError(err)
	}
	return operand{
		node:   &sqlast.MemberAccess{Column: dep.ForeignKey, Inner: cur.node},
		entity: dep.To,
		dep:    dep,
		path:   path,
	}, nil
}

// joinFor returns the join reached through the pending navigation nav,
// inferring it on first use.
func (c *Compiler) joinFor(nav operand) *sqlast.Join {
	if j, ok := c.inferred[nav.path]; ok {
		return j
	}

	inner := nav.node.(*sqlast.MemberAccess).Inner
	ordinal := len(c.joins) + 1
	j := &sqlast.Join{
		Ordinal:  ordinal,
		Entity:   nav.dep.To,
		Alias:    c.aliasFor(ordinal),
		Parent:   max(0, sqlast.Ordinal(inner)),
		Inferred: true,
		Path:     nav.path,
	}
	j.AddCondition(correlate(nav.dep, inner, j.Reference()))

	c.joins = append(c.joins, j)
	c.inferred[nav.path] = j

	slog.Debug("inferred join",
		"path", nav.path,
		"entity", j.Entity.Name,
		"alias", j.Alias,
		"ordinal", j.Ordinal)
	return j
}

// aliasFor names an inferred join "t<ordinal>", avoiding registered names.
func (c *Compiler) aliasFor(ordinal int) string {
	alias := fmt.Sprintf("t%d", ordinal)
	for c.aliasTaken(alias) {
		alias += "_"
	}
	return alias
}

func (c *Compiler) aliasTaken(alias string) bool {
	if c.nameTaken(alias) {
		return true
	}
	for _, j := range c.joins {
		if j.Alias == alias {
			return true
		}
	}
	return false
}

// correlate builds from.FK = to.PK for a dependency.
func correlate(dep *meta.Dependency, from sqlast.Node, to *sqlast.JoinReference) *sqlast.Comparison {
	return sqlast.NewComparison(meta.Equal,
		&sqlast.MemberAccess{Column: dep.ForeignKey, Inner: from},
		&sqlast.MemberAccess{Column: dep.PrimaryKey, Inner: to})
}

// key reduces an operand to the scalar node it compares or orders by.
// Entities compare by their single identity column.
func (c *Compiler) key(op operand) (sqlast.Node, error) {
	if op.entity == nil || op.dep != nil {
		return op.node, nil
	}
	ids := op.entity.Identity()
	if len(ids) != 1 {
		return nil, newError(ErrCodeMapping, "entity %s has %d identity columns; entity comparison needs exactly one",
			op.entity.Name, len(ids))
	}
	return &sqlast.MemberAccess{Column: ids[0], Inner: op.node}, nil
}
