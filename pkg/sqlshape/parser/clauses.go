package parser

import (
	"strings"

	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
	sqlerrors "github.com/kalidasa/sqlshape/pkg/sqlshape/errors"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/expr"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/token"
)

func scanRefs(tokens []token.Token) []ast.ColumnRef {
	return expr.ScanColumnRefs(tokens)
}

// parseColumnList parses a SELECT/RETURNING projection list: either the
// bare "*" wildcard or a non-empty comma-separated list of items, each an
// expression with an optional `AS alias` suffix (spec invariant I4: an
// empty, non-wildcard list never reaches the caller as a success).
func parseColumnList(tokens []token.Token, ctx *parseCtx) (ast.ColumnList, error) {
	if len(strings.TrimSpace(expr.Render(tokens))) == 0 {
		return ast.ColumnList{}, sqlerrors.NewParse(sqlerrors.InvalidSelectClause)
	}
	if len(tokens) == 1 && isPunct(tokens[0], "*") {
		return ast.ColumnList{All: true}, nil
	}
	groups := token.SplitByComma(tokens)
	items := make([]ast.SelectItem, 0, len(groups))
	for _, g := range groups {
		if len(g) == 0 {
			return ast.ColumnList{}, sqlerrors.NewParse(sqlerrors.InvalidSelectClause)
		}
		exprTokens := g
		alias := ""
		if idx := expr.FindTopLevelKeyword(g, "AS"); idx >= 0 {
			exprTokens = g[:idx]
			aliasTokens := g[idx+1:]
			if len(aliasTokens) != 1 || (aliasTokens[0].Kind != token.KindWord && aliasTokens[0].Kind != token.KindQuotedIdent) {
				return ast.ColumnList{}, sqlerrors.NewParse("expected a single alias after AS")
			}
			alias = aliasTokens[0].Unquote()
		}
		ref, defaultAlias, err := expr.Recognize(exprTokens, subParserFor(ctx))
		if err != nil {
			return ast.ColumnList{}, err
		}
		if alias == "" {
			alias = defaultAlias
		}
		items = append(items, ast.SelectItem{Expr: ref, Alias: alias})
	}
	return ast.ColumnList{Items: items}, nil
}

func parseWhere(rest []token.Token, ctx *parseCtx) (*ast.ParsedCondition, []token.Token, error) {
	if !token.Peek(rest).Is("WHERE") {
		return nil, rest, nil
	}
	_, r := token.NextToken(rest)
	body, tail := token.ExtractUntil(r, token.WhereTerminators)
	if len(body) == 0 {
		return nil, nil, sqlerrors.NewParse("expected a condition after WHERE")
	}
	return &ast.ParsedCondition{ColumnRefs: scanRefs(body)}, tail, nil
}

func parseHaving(rest []token.Token, ctx *parseCtx) (*ast.ParsedCondition, []token.Token, error) {
	if !token.Peek(rest).Is("HAVING") {
		return nil, rest, nil
	}
	_, r := token.NextToken(rest)
	body, tail := token.ExtractUntil(r, token.HavingTerminators)
	if len(body) == 0 {
		return nil, nil, sqlerrors.NewParse("expected a condition after HAVING")
	}
	return &ast.ParsedCondition{ColumnRefs: scanRefs(body)}, tail, nil
}

func parseGroupBy(rest []token.Token, ctx *parseCtx) ([]ast.ColumnRef, []token.Token, error) {
	if !token.Peek(rest).Is("GROUP") {
		return nil, rest, nil
	}
	_, r := token.NextToken(rest)
	r, err := expectKeyword(r, "BY")
	if err != nil {
		return nil, nil, err
	}
	body, tail := token.ExtractUntil(r, token.GroupByTerminators)
	groups := token.SplitByComma(body)
	if len(groups) == 0 {
		return nil, nil, sqlerrors.NewParse("expected a column list after GROUP BY")
	}
	refs := make([]ast.ColumnRef, 0, len(groups))
	for _, g := range groups {
		ref, _, err := expr.Recognize(g, subParserFor(ctx))
		if err != nil {
			return nil, nil, err
		}
		refs = append(refs, ref)
	}
	return refs, tail, nil
}

func parseOrderBy(rest []token.Token, ctx *parseCtx) ([]ast.OrderItem, []token.Token, error) {
	if !token.Peek(rest).Is("ORDER") {
		return nil, rest, nil
	}
	_, r := token.NextToken(rest)
	r, err := expectKeyword(r, "BY")
	if err != nil {
		return nil, nil, err
	}
	body, tail := token.ExtractUntil(r, token.OrderByTerminators)
	groups := token.SplitByComma(body)
	if len(groups) == 0 {
		return nil, nil, sqlerrors.NewParse("expected a column list after ORDER BY")
	}
	items := make([]ast.OrderItem, 0, len(groups))
	for _, g := range groups {
		if len(g) == 0 {
			return nil, nil, sqlerrors.NewParse("empty ORDER BY item")
		}
		direction := ast.OrderAsc
		if last := g[len(g)-1]; last.Is("DESC") {
			direction = ast.OrderDesc
			g = g[:len(g)-1]
		} else if last.Is("ASC") {
			g = g[:len(g)-1]
		}
		ref, _, err := expr.Recognize(g, subParserFor(ctx))
		if err != nil {
			return nil, nil, err
		}
		items = append(items, ast.OrderItem{Expr: ref, Direction: direction})
	}
	return items, tail, nil
}

func parseLimitOffset(rest []token.Token) (*int64, *int64, []token.Token, error) {
	var limit, offset *int64
	for {
		switch {
		case token.Peek(rest).Is("LIMIT"):
			if limit != nil {
				return nil, nil, nil, sqlerrors.NewParse("duplicate LIMIT clause")
			}
			_, r := token.NextToken(rest)
			numTok, r2 := token.NextToken(r)
			n, err := parseInt(numTok)
			if err != nil {
				return nil, nil, nil, err
			}
			limit = &n
			rest = r2
		case token.Peek(rest).Is("OFFSET"):
			if offset != nil {
				return nil, nil, nil, sqlerrors.NewParse("duplicate OFFSET clause")
			}
			_, r := token.NextToken(rest)
			numTok, r2 := token.NextToken(r)
			n, err := parseInt(numTok)
			if err != nil {
				return nil, nil, nil, err
			}
			offset = &n
			rest = r2
		default:
			return limit, offset, rest, nil
		}
	}
}
