// Package validator walks the same structure matcher does but returns a
// first-error verdict instead of a partial, error-annotated shape (spec
// §4.4, §7): `true` on full success, or the first error message
// encountered. Traversal order is fixed so the "first" error is
// deterministic: FROM-table checks, then JOIN-table checks, then the
// SELECT list, then (when enabled) WHERE/HAVING/JOIN-ON/ORDER BY/GROUP BY.
//
// Grounded on the same teacher target-list walk as matcher
// (pg_lineage/resolver.go's ResolveProvenance), given a stricter
// early-return propagation policy instead of matcher's inline-marker one.
package validator

import (
	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
	sqlerrors "github.com/kalidasa/sqlshape/pkg/sqlshape/errors"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/resolvec"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/schema"
)

// Options configures Validate's depth (spec §4.4).
type Options struct {
	// ValidateAllFields, when true (the default — see Validate), also
	// checks WHERE/HAVING/JOIN-ON/ORDER BY/GROUP BY column references;
	// when false, only the SELECT list and the FROM/JOIN tables are
	// checked.
	ValidateAllFields bool
}

// Validate returns (true, "") when query fully resolves against db, or
// (false, message) with the first error encountered. opts is variadic so a
// bare call defaults to ValidateAllFields: true (spec §4.4's default);
// passing an explicit Options value overrides it, including to false.
func Validate(query ast.SelectOrUnion, db *schema.DatabaseSchema, opts ...Options) (bool, string) {
	validateAll := true
	if len(opts) > 0 {
		validateAll = opts[0].ValidateAllFields
	}
	for _, sel := range flattenSelects(query) {
		if ok, msg := validateSelect(sel, db, validateAll); !ok {
			return false, msg
		}
	}
	return true, ""
}

func flattenSelects(query ast.SelectOrUnion) []*ast.SelectClause {
	switch q := query.(type) {
	case *ast.SelectClause:
		return []*ast.SelectClause{q}
	case *ast.UnionClause:
		return q.Selects()
	}
	return nil
}

func validateSelect(sel *ast.SelectClause, db *schema.DatabaseSchema, validateAll bool) (bool, string) {
	// FROM-table checks before JOIN-table checks: resolvec.Build resolves
	// sel.From before sel.Joins and returns on the first failure, which is
	// exactly this ordering.
	ctx, err := resolvec.Build(sel, db, nil)
	if err != nil {
		return false, err.Error()
	}

	if ok, msg := validateColumnList(sel.Columns, ctx, db); !ok {
		return false, msg
	}

	if !validateAll {
		return true, ""
	}

	if sel.Where != nil {
		if ok, msg := validateRefs(sel.Where.ColumnRefs, ctx, db); !ok {
			return false, msg
		}
	}
	if sel.Having != nil {
		if ok, msg := validateRefs(sel.Having.ColumnRefs, ctx, db); !ok {
			return false, msg
		}
	}
	for _, j := range sel.Joins {
		if j.On != nil {
			if ok, msg := validateRefs(j.On.ColumnRefs, ctx, db); !ok {
				return false, msg
			}
		}
	}
	for _, o := range sel.OrderBy {
		if _, err := resolvec.ResolveColumnType(o.Expr, ctx, db); err != nil {
			return false, err.Error()
		}
	}
	for _, g := range sel.GroupBy {
		if _, err := resolvec.ResolveColumnType(g, ctx, db); err != nil {
			return false, err.Error()
		}
	}

	return true, ""
}

func validateColumnList(cols ast.ColumnList, ctx *resolvec.Context, db *schema.DatabaseSchema) (bool, string) {
	if cols.All {
		return true, ""
	}
	for _, item := range cols.Items {
		if w, ok := item.Expr.(*ast.TableWildcard); ok {
			if _, found := ctx.Table(w.Table); !found {
				return false, sqlerrors.TableOrAliasNotFound(w.Table)
			}
			continue
		}
		if _, err := resolvec.ResolveColumnType(item.Expr, ctx, db); err != nil {
			return false, err.Error()
		}
	}
	return true, ""
}

func validateRefs(refs []ast.ColumnRef, ctx *resolvec.Context, db *schema.DatabaseSchema) (bool, string) {
	for _, r := range refs {
		if _, err := resolvec.ResolveColumnType(r, ctx, db); err != nil {
			return false, err.Error()
		}
	}
	return true, ""
}
