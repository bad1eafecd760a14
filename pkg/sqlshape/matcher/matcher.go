// Package matcher walks a parsed SELECT's column list against a built
// resolvec.Context and produces the query's row shape (spec §4.4, §6).
// Resolution and capability failures are embedded inline as per-field error
// markers so the rest of the shape stays inspectable (spec §7's
// partial-result-preserving policy); only an unresolvable FROM/JOIN table
// is fatal to the whole call.
//
// Grounded on the teacher's pg_lineage.ResolveProvenance target-list walk
// (resolver.go): the same per-item switch over ColumnRef/wildcard/
// expression shapes, adapted from accumulating `output -> []source` lineage
// strings to accumulating `output -> (hostType, error)` row-shape fields.
package matcher

import (
	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
	sqlerrors "github.com/kalidasa/sqlshape/pkg/sqlshape/errors"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/hosttype"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/resolvec"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/schema"
)

// Field is one output column's matched result: either a resolved host type
// or an inline error marker (Err non-empty), never both.
type Field struct {
	Type hosttype.Tag
	Err  string
}

// RowShape is spec §6's "dictionary whose keys are the query's output
// aliases and whose values are host types" — here a Field instead of a bare
// type, to also carry an inline error marker per key.
type RowShape map[string]Field

// HasErrors reports whether any field in shape carries an error marker
// (spec §8 testable property 1 compares this against Validate's verdict).
func HasErrors(shape RowShape) bool {
	for _, f := range shape {
		if f.Err != "" {
			return true
		}
	}
	return false
}

// Match builds the row shape for query's leftmost SELECT (spec §4.4's
// union-shape rule) against db. A non-nil error means the FROM/JOIN tables
// themselves couldn't be resolved — spec §7's "a missing FROM table is
// fatal for both [matcher and validator]" — so callers should present that
// as a standalone error marker rather than a partial shape.
func Match(query ast.SelectOrUnion, db *schema.DatabaseSchema) (RowShape, error) {
	sel := resolvec.LeftmostSelect(query)
	ctx, err := resolvec.Build(sel, db, nil)
	if err != nil {
		return nil, err
	}
	return matchSelect(sel, ctx, db), nil
}

func matchSelect(sel *ast.SelectClause, ctx *resolvec.Context, db *schema.DatabaseSchema) RowShape {
	shape := RowShape{}

	if sel.Columns.All {
		for _, alias := range ctx.Aliases() {
			cols, _ := ctx.Table(alias)
			for name, tag := range cols {
				shape[name] = Field{Type: tag}
			}
		}
		return shape
	}

	for _, item := range sel.Columns.Items {
		if w, ok := item.Expr.(*ast.TableWildcard); ok {
			cols, found := ctx.Table(w.Table)
			if !found {
				shape[w.Table+".*"] = Field{Err: sqlerrors.TableOrAliasNotFound(w.Table)}
				continue
			}
			for name, tag := range cols {
				shape[name] = Field{Type: tag}
			}
			continue
		}

		tag, err := resolvec.ResolveColumnType(item.Expr, ctx, db)
		if err != nil {
			shape[item.Alias] = Field{Err: err.Error()}
			continue
		}
		shape[item.Alias] = Field{Type: tag}
	}

	return shape
}
