// Package resolvec builds the alias->columns scope a parsed SELECT is
// matched and validated against (spec §4.4): CTEs, then the FROM table,
// then each JOIN's table source, each layer shadowing the previous.
//
// Grounded on the teacher's pkg/pg_lineage/resolver.go — the same
// buildScope/addRangeVar/addRangeSubselect walk over a FROM clause,
// generalized from resolver.go's bool-only demoSchema membership test to a
// real schema.DatabaseSchema lookup that carries a host type per column,
// and from a single flat scope map to one that also tracks CTE
// declarations and supports correlated-subquery nesting.
package resolvec

import (
	"fmt"

	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
	sqlerrors "github.com/kalidasa/sqlshape/pkg/sqlshape/errors"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/hosttype"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/schema"
)

// Context is the alias -> (column -> type) scope built for one SELECT body.
type Context struct {
	// localOrder holds aliases declared by this SELECT's own FROM/JOIN
	// clauses, in declaration order. outerOrder holds aliases inherited
	// from an enclosing correlated query. Aliases searches local before
	// outer, so a correlated subquery's own tables shadow the outer
	// query's same-named alias without losing the outer one entirely.
	localOrder []string
	outerOrder []string
	tables     map[string]map[string]hosttype.Tag
}

// NewContext returns an empty scope.
func NewContext() *Context {
	return &Context{tables: map[string]map[string]hosttype.Tag{}}
}

// Clone seeds a fresh scope for a correlated subquery: the subquery's own
// FROM/JOIN aliases are added afterward via addOrReplace and take lookup
// precedence over these inherited ones (spec §4.4 — "outer correlation is
// supported: outer aliases remain visible, inner aliases shadow").
func (c *Context) Clone() *Context {
	n := NewContext()
	n.outerOrder = append(append([]string{}, c.localOrder...), c.outerOrder...)
	for alias, cols := range c.tables {
		n.tables[alias] = cols
	}
	return n
}

func (c *Context) addOrReplace(alias string, cols map[string]hosttype.Tag) {
	found := false
	for _, a := range c.localOrder {
		if a == alias {
			found = true
			break
		}
	}
	if !found {
		c.localOrder = append(c.localOrder, alias)
	}
	c.tables[alias] = cols
}

// Table looks up one alias's column map.
func (c *Context) Table(alias string) (map[string]hosttype.Tag, bool) {
	cols, ok := c.tables[alias]
	return cols, ok
}

// Aliases returns every alias in this scope's lookup-precedence order:
// locally declared FROM/JOIN aliases first, then any inherited ones.
func (c *Context) Aliases() []string {
	return append(append([]string{}, c.localOrder...), c.outerOrder...)
}

// cteShapes maps a CTE (or, during a single WITH list's resolution, only
// the CTEs declared earlier in that same list) to its extracted column
// shape (spec §4.4 step 1).
type cteShapes map[string]map[string]hosttype.Tag

// Build resolves sel's CTE/FROM/JOIN layers into a Context. parent, when
// non-nil, seeds the result with the enclosing query's aliases so a
// correlated subquery can see them; sel's own aliases are added afterward
// and take lookup precedence.
func Build(sel *ast.SelectClause, db *schema.DatabaseSchema, parent *Context) (*Context, error) {
	return buildScope(sel, db, parent, nil)
}

func buildScope(sel *ast.SelectClause, db *schema.DatabaseSchema, parent *Context, outerCTEs cteShapes) (*Context, error) {
	ctx := NewContext()
	if parent != nil {
		ctx = parent.Clone()
	}

	ctes := cteShapes{}
	for name, shape := range outerCTEs {
		ctes[name] = shape
	}
	for _, def := range sel.CTEs {
		shape, err := shapeOf(def.Query, db, ctes)
		if err != nil {
			return nil, err
		}
		ctes[def.Name] = shape
	}

	if sel.From != nil {
		alias, cols, err := resolveTableSource(sel.From, db, ctes)
		if err != nil {
			return nil, err
		}
		ctx.addOrReplace(alias, cols)
	}

	for _, j := range sel.Joins {
		alias, cols, err := resolveTableSource(j.Table, db, ctes)
		if err != nil {
			return nil, err
		}
		ctx.addOrReplace(alias, cols)
	}

	return ctx, nil
}

// resolveTableSource resolves one FROM/JOIN table source to its alias and
// column shape (spec §4.4 steps 2-3).
func resolveTableSource(ts ast.TableSource, db *schema.DatabaseSchema, ctes cteShapes) (string, map[string]hosttype.Tag, error) {
	switch t := ts.(type) {
	case *ast.TableRef:
		alias := t.Alias
		if alias == "" {
			alias = t.Table
		}
		if t.Schema == "" {
			if shape, ok := ctes[t.Table]; ok {
				return alias, shape, nil
			}
		}
		cols, err := lookupTableColumns(db, t.Schema, t.Table)
		if err != nil {
			return "", nil, err
		}
		return alias, cols, nil
	case *ast.DerivedTableRef:
		shape, err := shapeOf(t.Query, db, ctes)
		if err != nil {
			return "", nil, err
		}
		return t.Alias, shape, nil
	default:
		return "", nil, sqlerrors.NewResolution(fmt.Sprintf("unsupported table source %T", ts))
	}
}

func lookupTableColumns(db *schema.DatabaseSchema, schemaName, table string) (map[string]hosttype.Tag, error) {
	sn := schemaName
	if sn == "" {
		sn = db.DefaultSchema
	}
	s, ok := db.Schema(sn)
	if !ok {
		return nil, sqlerrors.NewResolution(sqlerrors.SchemaNotFound(sn))
	}
	tbl, ok := s.Table(table)
	if !ok {
		if schemaName == "" {
			return nil, sqlerrors.NewResolution(sqlerrors.TableNotFoundInDefaultSchema(table, sn))
		}
		return nil, sqlerrors.NewResolution(sqlerrors.TableNotFoundInSchema(table, sn))
	}
	cols := make(map[string]hosttype.Tag, len(tbl.Columns))
	for _, c := range tbl.Columns {
		cols[c.Name] = c.Type
	}
	return cols, nil
}

// leftmostSelect follows a UNION chain down to its first SELECT (spec
// §4.4's "union's row shape is the left SELECT's row shape").
func leftmostSelect(query ast.SelectOrUnion) *ast.SelectClause {
	switch q := query.(type) {
	case *ast.SelectClause:
		return q
	case *ast.UnionClause:
		return q.Selects()[0]
	}
	return nil
}

// LeftmostSelect is leftmostSelect, exported so the matcher and validator
// packages (which both need "which SELECT carries the row shape" for a
// union chain) share this rule instead of re-deriving it.
func LeftmostSelect(query ast.SelectOrUnion) *ast.SelectClause {
	return leftmostSelect(query)
}

// shapeOf extracts a CTE's or derived table's exposed column shape (spec
// §4.4's "extracting a shape from a SELECT list").
func shapeOf(query ast.SelectOrUnion, db *schema.DatabaseSchema, outerCTEs cteShapes) (map[string]hosttype.Tag, error) {
	sel := leftmostSelect(query)
	innerCtx, err := buildScope(sel, db, nil, outerCTEs)
	if err != nil {
		return nil, err
	}
	return BuildShape(sel.Columns, innerCtx, db)
}

// BuildShape computes the column-name -> type map a ColumnList exposes,
// following spec §4.4's per-item rules. Used to extract a CTE's or derived
// table's shape; the matcher and validator walk the outer query's items
// themselves with ResolveColumnType rather than calling BuildShape.
func BuildShape(cols ast.ColumnList, ctx *Context, db *schema.DatabaseSchema) (map[string]hosttype.Tag, error) {
	shape := map[string]hosttype.Tag{}
	if cols.All {
		for _, alias := range ctx.Aliases() {
			for col, tag := range ctx.tables[alias] {
				shape[col] = tag
			}
		}
		return shape, nil
	}
	for _, item := range cols.Items {
		if w, ok := item.Expr.(*ast.TableWildcard); ok {
			tblCols, err := lookupWildcardSource(w, ctx)
			if err != nil {
				return nil, err
			}
			for col, tag := range tblCols {
				shape[col] = tag
			}
			continue
		}
		tag, err := ResolveColumnType(item.Expr, ctx, db)
		if err != nil {
			return nil, err
		}
		shape[item.Alias] = tag
	}
	return shape, nil
}

func lookupWildcardSource(w *ast.TableWildcard, ctx *Context) (map[string]hosttype.Tag, error) {
	cols, ok := ctx.Table(w.Table)
	if !ok {
		return nil, sqlerrors.NewResolution(sqlerrors.TableOrAliasNotFound(w.Table))
	}
	return cols, nil
}

// ResolveColumnType resolves one column-list item's host type against ctx,
// per spec §4.4's matcher rules. It is the single resolution rule the
// matcher and validator packages both call, each applying its own
// error-propagation policy (inline marker vs first-error) around it.
func ResolveColumnType(ref ast.ColumnRef, ctx *Context, db *schema.DatabaseSchema) (hosttype.Tag, error) {
	switch r := ref.(type) {
	case *ast.TableColumnRef:
		cols, ok := ctx.Table(r.Table)
		if !ok {
			return hosttype.Unknown, sqlerrors.NewResolution(sqlerrors.TableOrAliasNotFound(r.Table))
		}
		tag, ok := cols[r.Column]
		if !ok {
			return hosttype.Unknown, sqlerrors.NewResolution(sqlerrors.ColumnNotFoundInAlias(r.Column, r.Table))
		}
		return tag, nil

	case *ast.UnboundColumnRef:
		for _, alias := range ctx.Aliases() {
			if tag, ok := ctx.tables[alias][r.Name]; ok {
				return tag, nil
			}
		}
		return hosttype.Unknown, sqlerrors.NewResolution(sqlerrors.ColumnNotFoundAnywhere(r.Name))

	case *ast.TableWildcard:
		// Only valid as a whole SelectItem (handled by BuildShape), never
		// as an operand nested inside another expression.
		return hosttype.Unknown, sqlerrors.NewResolution(sqlerrors.TableOrAliasNotFound(r.Table))

	case *ast.ComplexExpr:
		for _, inner := range r.ColumnRefs {
			if _, err := ResolveColumnType(inner, ctx, db); err != nil {
				return hosttype.Unknown, err
			}
		}
		if r.CastType != "" {
			return hosttype.FromCast(r.CastType), nil
		}
		return hosttype.Unknown, nil

	case *ast.SubqueryExpr:
		inner := leftmostSelect(r.Query)
		innerCtx, err := buildScope(inner, db, ctx, nil)
		if err != nil {
			return hosttype.Unknown, err
		}
		tag := hosttype.Unknown
		if !inner.Columns.All && len(inner.Columns.Items) > 0 {
			first := inner.Columns.Items[0]
			if _, ok := first.Expr.(*ast.TableWildcard); !ok {
				t, err := ResolveColumnType(first.Expr, innerCtx, db)
				if err != nil {
					return hosttype.Unknown, err
				}
				tag = t
			}
		}
		if r.CastType != "" {
			return hosttype.FromCast(r.CastType), nil
		}
		return tag, nil

	case *ast.AggregateExpr:
		return resolveAggregate(r, ctx, db)

	case *ast.LiteralExpr:
		return hosttype.LiteralType(r.Value), nil

	case *ast.SQLConstantExpr:
		return hosttype.SQLConstantType(r.Name), nil

	case *ast.ExistsExpr:
		return hosttype.Boolean, nil

	case *ast.IntervalExpr:
		return hosttype.String, nil

	default:
		return hosttype.Unknown, sqlerrors.NewResolution(fmt.Sprintf("unsupported column reference %T", ref))
	}
}

func resolveAggregate(a *ast.AggregateExpr, ctx *Context, db *schema.DatabaseSchema) (hosttype.Tag, error) {
	switch a.Func {
	case ast.AggCount:
		if a.Arg != nil {
			if _, err := ResolveColumnType(a.Arg, ctx, db); err != nil {
				return hosttype.Unknown, err
			}
		}
		return hosttype.Number, nil

	case ast.AggSum, ast.AggAvg:
		if a.Arg == nil {
			return hosttype.Unknown, sqlerrors.NewCapability(sqlerrors.SumAvgRequiresNumeric)
		}
		tag, err := ResolveColumnType(a.Arg, ctx, db)
		if err != nil {
			return hosttype.Unknown, err
		}
		if tag != hosttype.Number {
			return hosttype.Unknown, sqlerrors.NewCapability(sqlerrors.SumAvgRequiresNumeric)
		}
		return hosttype.Number, nil

	case ast.AggMin, ast.AggMax:
		if a.Arg == nil {
			return hosttype.Unknown, nil
		}
		return ResolveColumnType(a.Arg, ctx, db)

	default:
		return hosttype.Unknown, sqlerrors.NewResolution(fmt.Sprintf("unknown aggregate function %q", a.Func))
	}
}
