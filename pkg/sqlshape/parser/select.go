// Package parser implements the recursive-descent SELECT/DML parser
// (spec §4.3): it turns a token stream from the token package into the ast
// tree, recognizing column positions via expr.Recognize and guarding
// recursion depth the way spec §5 suggests (a ceiling of 64 nested
// SELECTs/subqueries).
//
// Grounded on the teacher's resolver.go CTE/FROM/JOIN walk for the overall
// shape of "resolve this clause, then the next", adapted from walking a
// pre-parsed JSON tree to driving a hand-rolled recursive descent over a
// flat token stream the way other_examples/freeeve-machparse's parser does.
package parser

import (
	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
	sqlerrors "github.com/kalidasa/sqlshape/pkg/sqlshape/errors"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/token"
)

// ParseSelect is the SELECT entry point (spec §6): the first token must be
// SELECT or WITH, or parsing fails with the fixed "Expected SELECT or
// WITH" message.
func ParseSelect(query string) (ast.SelectOrUnion, error) {
	tokens, err := token.Tokenize(query)
	if err != nil {
		return nil, sqlerrors.NewParse("%v", err)
	}
	return parseSelectEntry(tokens)
}

func parseSelectEntry(tokens []token.Token) (ast.SelectOrUnion, error) {
	if len(tokens) == 0 {
		return nil, sqlerrors.NewParse(sqlerrors.EmptyQuery)
	}
	ctx := &parseCtx{}
	node, rest, err := parseTopSelect(tokens, ctx)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, sqlerrors.NewParse("unexpected token: %s", tokenDisplay(token.Peek(rest)))
	}
	return node, nil
}

// parseTopSelect parses one optional WITH list, a SELECT body, and any
// following UNION/INTERSECT/EXCEPT chain, returning whatever tokens remain
// unconsumed (a caller isolating an exact span, like a derived table or a
// CTE body, checks that this is empty).
func parseTopSelect(tokens []token.Token, ctx *parseCtx) (ast.SelectOrUnion, []token.Token, error) {
	if err := ctx.enter(); err != nil {
		return nil, nil, err
	}
	defer ctx.leave()

	var ctes []ast.CTEDefinition
	rest := tokens
	if token.Peek(rest).Is("WITH") {
		_, rest = token.NextToken(rest)
		var err error
		ctes, rest, err = parseCTEList(rest, ctx)
		if err != nil {
			return nil, nil, err
		}
	}
	if !token.Peek(rest).Is("SELECT") {
		return nil, nil, sqlerrors.NewParse("%s", sqlerrors.ExpectedSelectOrWith(tokenDisplay(token.Peek(rest))))
	}
	sel, rest, err := parseSelectBody(rest, ctx)
	if err != nil {
		return nil, nil, err
	}
	sel.CTEs = ctes

	if op, ok := peekUnionOperator(rest); ok {
		rest = consumeUnionOperator(rest)
		right, rest2, err := parseTopSelect(rest, ctx)
		if err != nil {
			return nil, nil, err
		}
		return &ast.UnionClause{Left: sel, Operator: op, Right: right}, rest2, nil
	}
	return sel, rest, nil
}

func peekUnionOperator(rest []token.Token) (ast.UnionOperator, bool) {
	p := token.Peek(rest)
	var base ast.UnionOperator
	switch {
	case p.Is("UNION"):
		base = ast.UnionPlain
	case p.Is("INTERSECT"):
		base = ast.IntersectPlain
	case p.Is("EXCEPT"):
		base = ast.ExceptPlain
	default:
		return "", false
	}
	if len(rest) > 1 && rest[1].Is("ALL") {
		switch base {
		case ast.UnionPlain:
			return ast.UnionAll, true
		case ast.IntersectPlain:
			return ast.IntersectAll, true
		case ast.ExceptPlain:
			return ast.ExceptAll, true
		}
	}
	return base, true
}

func consumeUnionOperator(rest []token.Token) []token.Token {
	_, rest = token.NextToken(rest)
	if token.Peek(rest).Is("ALL") {
		_, rest = token.NextToken(rest)
	}
	return rest
}

// parseSelectBody parses one SELECT body, from the leading SELECT keyword
// through any LIMIT/OFFSET, NOT including a following UNION chain (that's
// parseTopSelect's job, since the chain binds across SELECT bodies).
func parseSelectBody(tokens []token.Token, ctx *parseCtx) (*ast.SelectClause, []token.Token, error) {
	_, rest := token.NextToken(tokens) // consume SELECT
	distinct := false
	if token.Peek(rest).Is("DISTINCT") {
		_, rest = token.NextToken(rest)
		distinct = true
	}
	colTokens, rest := token.ExtractUntil(rest, token.FromTerminator)
	if !token.Peek(rest).Is("FROM") {
		return nil, nil, sqlerrors.NewParse("expected FROM, got: %s", tokenDisplay(token.Peek(rest)))
	}
	_, rest = token.NextToken(rest)

	columns, err := parseColumnList(colTokens, ctx)
	if err != nil {
		return nil, nil, err
	}
	from, rest, err := parseGenericTableSource(rest, token.JoinTerminators, ctx)
	if err != nil {
		return nil, nil, err
	}
	joins, rest, err := parseJoins(rest, ctx)
	if err != nil {
		return nil, nil, err
	}
	where, rest, err := parseWhere(rest, ctx)
	if err != nil {
		return nil, nil, err
	}
	groupBy, rest, err := parseGroupBy(rest, ctx)
	if err != nil {
		return nil, nil, err
	}
	having, rest, err := parseHaving(rest, ctx)
	if err != nil {
		return nil, nil, err
	}
	orderBy, rest, err := parseOrderBy(rest, ctx)
	if err != nil {
		return nil, nil, err
	}
	limit, offset, rest, err := parseLimitOffset(rest)
	if err != nil {
		return nil, nil, err
	}
	return &ast.SelectClause{
		Distinct: distinct,
		Columns:  columns,
		From:     from,
		Joins:    joins,
		Where:    where,
		GroupBy:  groupBy,
		Having:   having,
		OrderBy:  orderBy,
		Limit:    limit,
		Offset:   offset,
	}, rest, nil
}

// parseCTEList parses the comma-separated `name AS ( query )` bindings
// following WITH. CTE names must be unique within the list (spec's data
// model); later CTEs may reference earlier ones via the context builder,
// not the parser, since that requires the full list to exist first.
func parseCTEList(rest []token.Token, ctx *parseCtx) ([]ast.CTEDefinition, []token.Token, error) {
	var ctes []ast.CTEDefinition
	seen := map[string]bool{}
	for {
		nameTok := token.Peek(rest)
		if nameTok.Kind != token.KindWord && nameTok.Kind != token.KindQuotedIdent {
			return nil, nil, sqlerrors.NewParse("expected a CTE name, got: %s", tokenDisplay(nameTok))
		}
		name := nameTok.Unquote()
		if seen[name] {
			return nil, nil, sqlerrors.NewParse("duplicate CTE name: %s", name)
		}
		seen[name] = true
		_, rest = token.NextToken(rest)
		var err error
		rest, err = expectKeyword(rest, "AS")
		if err != nil {
			return nil, nil, err
		}
		if !isPunct(token.Peek(rest), "(") {
			return nil, nil, sqlerrors.NewParse("expected ( after CTE AS, got: %s", tokenDisplay(token.Peek(rest)))
		}
		inner, after, err := matchParen(rest)
		if err != nil {
			return nil, nil, err
		}
		query, leftover, err := parseTopSelect(inner, ctx)
		if err != nil {
			return nil, nil, err
		}
		if len(leftover) != 0 {
			return nil, nil, sqlerrors.NewParse("unexpected token inside CTE: %s", tokenDisplay(token.Peek(leftover)))
		}
		ctes = append(ctes, ast.CTEDefinition{Name: name, Query: query})
		rest = after
		if isPunct(token.Peek(rest), ",") {
			_, rest = token.NextToken(rest)
			continue
		}
		break
	}
	return ctes, rest, nil
}
