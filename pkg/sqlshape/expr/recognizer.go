// Package expr implements the expression recognizer (spec §4.2): given the
// token sequence of one SelectItem or operand, it classifies the
// expression and extracts the column references a later stage needs for
// validation, without building a full expression tree (spec §9's
// "scan, don't parse" design note).
//
// Grounded on the recursive inner-node inspection of the teacher's
// collectExprSources/renderExprKey walk in pg_lineage/resolver.go, adapted
// from walking a pre-parsed JSON tree to scanning a raw token slice.
package expr

import (
	"errors"

	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/token"
)

var errEmptyExpr = errors.New("empty expression")

// SubParser parses a full SELECT/WITH body from the tokens found inside a
// matched pair of parentheses. The parser package supplies this hook so
// expr can recognize scalar subqueries and EXISTS(...) without importing
// parser (which itself imports expr for column-position recognition).
type SubParser func(inner []token.Token) (ast.SelectOrUnion, error)

// Recognize classifies tokens into one ColumnRef alternative and computes
// its spec §3 default alias. tokens must represent exactly one SelectItem
// or operand body (an explicit `AS alias` suffix, if present, must already
// be stripped by the caller — the SELECT parser handles that, since `AS`
// also terminates plain column references without one).
func Recognize(tokens []token.Token, parseSub SubParser) (ast.ColumnRef, string, error) {
	tokens = trimOuterParens(tokens)
	if len(tokens) == 0 {
		return nil, "", errEmptyExpr
	}

	// 1. table-wildcard: `t.*` / `s.t.*`.
	if ref, alias, ok := recognizeWildcard(tokens); ok {
		return ref, alias, nil
	}

	// 2. scalar subquery: `( SELECT ... ) [::type]`.
	if tokens[0].Kind == token.KindPunct && tokens[0].Text == "(" {
		inner, after, err := splitParen(tokens)
		if err == nil && startsSelectOrWith(inner) {
			query, err := parseSub(inner)
			if err != nil {
				return nil, "", err
			}
			castType := ""
			if rest, ct, ok := trailingCast(after); ok && len(rest) == 0 {
				castType = ct
			}
			return &ast.SubqueryExpr{Query: query, CastType: castType}, "subquery", nil
		}
	}

	// 2b. EXISTS (SELECT ...) / NOT EXISTS (...)
	if ref, alias, ok, err := recognizeExists(tokens, parseSub); ok || err != nil {
		return ref, alias, err
	}

	// 2c. INTERVAL '...'
	if tokens[0].Is("INTERVAL") && len(tokens) >= 2 {
		return &ast.IntervalExpr{Value: tokens[1].Text}, "interval", nil
	}

	// 2d. fixed SQL constants.
	if len(tokens) == 1 && isSQLConstant(tokens[0]) {
		return &ast.SQLConstantExpr{Name: tokens[0].Upper()}, defaultConstantAlias(tokens[0].Upper()), nil
	}

	// 2e. aggregate function call.
	if ref, alias, ok, err := recognizeAggregate(tokens); ok || err != nil {
		return ref, alias, err
	}

	// 2f. literal.
	if len(tokens) == 1 && isLiteralToken(tokens[0]) {
		return &ast.LiteralExpr{Value: literalValue(tokens[0])}, "expr", nil
	}

	// 3. CAST ( expr AS type )
	if tokens[0].Is("CAST") && len(tokens) >= 2 && tokens[1].Kind == token.KindPunct && tokens[1].Text == "(" {
		return recognizeCastFunc(tokens)
	}

	// 4. complex expression: JSON operators, `||`, a function call/grouping
	// paren, or a `::` cast anywhere in the token stream.
	if containsComplexMarker(tokens) {
		return recognizeComplex(tokens)
	}

	// 6. simple column reference (schema.table.col / table.col / col),
	// with an optional trailing `::type`.
	return recognizeSimpleColumn(tokens)
}

