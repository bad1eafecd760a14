package parser

import (
	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
	sqlerrors "github.com/kalidasa/sqlshape/pkg/sqlshape/errors"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/token"
)

// parseTableSourceSpan parses a table source (a plain name or a derived
// table) from a token slice that is exactly that source's span — no
// trailing JOIN/WHERE/etc tokens remain after it. Used for the
// comma-separated lists in UPDATE ... FROM and DELETE ... USING, where
// token.SplitByComma has already isolated each source.
func parseTableSourceSpan(tokens []token.Token, ctx *parseCtx) (ast.TableSource, error) {
	if len(tokens) == 0 {
		return nil, sqlerrors.NewParse("expected a table reference")
	}
	if isPunct(tokens[0], "(") {
		inner, after, err := matchParen(tokens)
		if err != nil {
			return nil, err
		}
		query, leftover, err := parseTopSelect(inner, ctx)
		if err != nil {
			return nil, err
		}
		if len(leftover) != 0 {
			return nil, sqlerrors.NewParse("unexpected token inside derived table: %s", tokenDisplay(token.Peek(leftover)))
		}
		alias, tail, ok := maybeAlias(after)
		if !ok {
			return nil, sqlerrors.NewParse(sqlerrors.DerivedTableRequiresAlias)
		}
		if len(tail) != 0 {
			return nil, sqlerrors.NewParse("unexpected token after table alias: %s", tokenDisplay(token.Peek(tail)))
		}
		return &ast.DerivedTableRef{Query: query, Alias: alias}, nil
	}
	schema, table, consumed := parseDottedName(tokens)
	if consumed == 0 {
		return nil, sqlerrors.NewParse("expected a table reference, got: %s", tokenDisplay(tokens[0]))
	}
	rest := tokens[consumed:]
	alias := table
	if a, tail, ok := maybeAlias(rest); ok {
		alias = a
		rest = tail
	}
	if len(rest) != 0 {
		return nil, sqlerrors.NewParse("unexpected token after table reference: %s", tokenDisplay(token.Peek(rest)))
	}
	return &ast.TableRef{Schema: schema, Table: table, Alias: alias}, nil
}

// parseGenericTableSource parses one table source out of a token stream
// that continues past it (more joins, WHERE, etc), stopping at the first
// token (at paren depth 0) found in terminators — except for a derived
// table, where the alias immediately follows the matched closing paren
// regardless of what terminators says.
func parseGenericTableSource(rest []token.Token, terminators map[string]struct{}, ctx *parseCtx) (ast.TableSource, []token.Token, error) {
	if len(rest) > 0 && isPunct(rest[0], "(") {
		inner, after, err := matchParen(rest)
		if err != nil {
			return nil, nil, err
		}
		query, leftover, err := parseTopSelect(inner, ctx)
		if err != nil {
			return nil, nil, err
		}
		if len(leftover) != 0 {
			return nil, nil, sqlerrors.NewParse("unexpected token inside derived table: %s", tokenDisplay(token.Peek(leftover)))
		}
		alias, tail, ok := maybeAlias(after)
		if !ok {
			return nil, nil, sqlerrors.NewParse(sqlerrors.DerivedTableRequiresAlias)
		}
		return &ast.DerivedTableRef{Query: query, Alias: alias}, tail, nil
	}
	span, tail := token.ExtractUntil(rest, terminators)
	ts, err := parseTableSourceSpan(span, ctx)
	if err != nil {
		return nil, nil, err
	}
	return ts, tail, nil
}

// parseJoins greedily consumes a run of JOIN clauses.
func parseJoins(rest []token.Token, ctx *parseCtx) ([]ast.JoinClause, []token.Token, error) {
	var joins []ast.JoinClause
	for {
		jt, ok, next := tryParseJoinType(rest)
		if !ok {
			return joins, rest, nil
		}
		rest = next
		table, rest2, err := parseGenericTableSource(rest, token.JoinTableTerminators, ctx)
		if err != nil {
			return nil, nil, err
		}
		rest = rest2
		var on *ast.ParsedCondition
		if token.Peek(rest).Is("ON") {
			if jt == ast.JoinCross {
				return nil, nil, sqlerrors.NewParse("CROSS JOIN does not take an ON condition")
			}
			_, rest = token.NextToken(rest)
			condTokens, tail := token.ExtractUntil(rest, token.JoinTerminators)
			if len(condTokens) == 0 {
				return nil, nil, sqlerrors.NewParse("expected a join condition after ON")
			}
			on = &ast.ParsedCondition{ColumnRefs: scanRefs(condTokens)}
			rest = tail
		}
		joins = append(joins, ast.JoinClause{Type: jt, Table: table, On: on})
	}
}

func tryParseJoinType(rest []token.Token) (ast.JoinType, bool, []token.Token) {
	p := token.Peek(rest)
	switch {
	case p.Is("JOIN"):
		_, r := token.NextToken(rest)
		return ast.JoinInner, true, r
	case p.Is("INNER"):
		_, r := token.NextToken(rest)
		r, err := expectKeyword(r, "JOIN")
		if err != nil {
			return "", false, rest
		}
		return ast.JoinInner, true, r
	case p.Is("CROSS"):
		_, r := token.NextToken(rest)
		r, err := expectKeyword(r, "JOIN")
		if err != nil {
			return "", false, rest
		}
		return ast.JoinCross, true, r
	case p.Is("LEFT"):
		return parseOuterQualifiedJoin(rest, ast.JoinLeft, ast.JoinLeftOuter)
	case p.Is("RIGHT"):
		return parseOuterQualifiedJoin(rest, ast.JoinRight, ast.JoinRightOuter)
	case p.Is("FULL"):
		return parseOuterQualifiedJoin(rest, ast.JoinFull, ast.JoinFullOuter)
	default:
		return "", false, rest
	}
}

func parseOuterQualifiedJoin(rest []token.Token, plain, outer ast.JoinType) (ast.JoinType, bool, []token.Token) {
	_, r := token.NextToken(rest)
	jt := plain
	if token.Peek(r).Is("OUTER") {
		_, r = token.NextToken(r)
		jt = outer
	}
	r, err := expectKeyword(r, "JOIN")
	if err != nil {
		return "", false, rest
	}
	return jt, true, r
}
