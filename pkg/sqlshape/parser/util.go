package parser

import (
	"strconv"
	"strings"

	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
	sqlerrors "github.com/kalidasa/sqlshape/pkg/sqlshape/errors"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/expr"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/token"
)

// parseCtx threads the recursion-depth guard (spec §5 suggests a ceiling of
// 64) through every recursive descent into a nested SELECT — subqueries,
// derived tables, CTE bodies, EXISTS clauses.
type parseCtx struct {
	depth int
}

const maxRecursionDepth = 64

func (c *parseCtx) enter() error {
	c.depth++
	if c.depth > maxRecursionDepth {
		return sqlerrors.NewParse("maximum query nesting depth exceeded (%d)", maxRecursionDepth)
	}
	return nil
}

func (c *parseCtx) leave() {
	c.depth--
}

// subParserFor adapts parseTopSelect into the expr.SubParser hook so the
// expression recognizer can parse scalar subqueries and EXISTS(...) bodies
// while sharing this call's depth counter.
func subParserFor(ctx *parseCtx) expr.SubParser {
	return func(inner []token.Token) (ast.SelectOrUnion, error) {
		query, leftover, err := parseTopSelect(inner, ctx)
		if err != nil {
			return nil, err
		}
		if len(leftover) != 0 {
			return nil, sqlerrors.NewParse("unexpected token inside subquery: %s", tokenDisplay(token.Peek(leftover)))
		}
		return query, nil
	}
}

func tokenDisplay(t token.Token) string {
	if t.Kind == token.KindEOF {
		return "EOF"
	}
	return t.Text
}

func expectKeyword(rest []token.Token, kw string) ([]token.Token, error) {
	if !token.Peek(rest).Is(kw) {
		return nil, sqlerrors.NewParse("expected %s, got: %s", kw, tokenDisplay(token.Peek(rest)))
	}
	_, r := token.NextToken(rest)
	return r, nil
}

func isPunct(t token.Token, text string) bool {
	return t.Kind == token.KindPunct && t.Text == text
}

// matchParen requires tokens[0] to be "(" and returns the tokens strictly
// inside the matching close paren, plus whatever follows it. Mirrors
// expr's unexported splitParen — duplicated here because that helper isn't
// exported and the two packages' paren-matching needs are identical but
// independent (parser matches around table sources and DML lists, not
// expression operands).
func matchParen(tokens []token.Token) (inner, after []token.Token, err error) {
	if len(tokens) == 0 || !isPunct(tokens[0], "(") {
		return nil, nil, sqlerrors.NewParse("expected (, got: %s", tokenDisplay(token.Peek(tokens)))
	}
	depth := 0
	for i, t := range tokens {
		if t.Kind != token.KindPunct {
			continue
		}
		switch t.Text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return tokens[1:i], tokens[i+1:], nil
			}
		}
	}
	return nil, nil, sqlerrors.NewParse("unterminated (")
}

// maybeAlias consumes an optional `AS name` or bare `name` alias at the
// front of rest, returning ok=false (and rest unchanged) when neither is
// present. A bare word is only treated as an implicit alias when it is not
// itself SQL vocabulary, so e.g. `UPDATE t SET ...` never mistakes SET for
// an alias.
func maybeAlias(rest []token.Token) (alias string, tail []token.Token, ok bool) {
	if token.Peek(rest).Is("AS") {
		_, r := token.NextToken(rest)
		tok := token.Peek(r)
		if tok.Kind == token.KindWord || tok.Kind == token.KindQuotedIdent {
			_, r2 := token.NextToken(r)
			return tok.Unquote(), r2, true
		}
		return "", rest, false
	}
	tok := token.Peek(rest)
	if tok.Kind == token.KindQuotedIdent || (tok.Kind == token.KindWord && !token.IsKeyword(tok.Upper())) {
		_, r := token.NextToken(rest)
		return tok.Unquote(), r, true
	}
	return "", rest, false
}

// parseDottedName reads a `schema.table` or `table` reference starting at
// tokens[0], returning how many tokens it consumed (0 means tokens[0]
// wasn't a name at all). Quoted identifiers are taken as a single
// unqualified segment — multi-part quoted table references are a scope
// limitation this grammar shares with expr's qualified-name handling.
func parseDottedName(tokens []token.Token) (schema, table string, consumed int) {
	if len(tokens) == 0 {
		return "", "", 0
	}
	t := tokens[0]
	switch t.Kind {
	case token.KindQuotedIdent:
		return "", t.Unquote(), 1
	case token.KindWord:
		trimmed := strings.Trim(t.Text, ".")
		if trimmed == "" {
			return "", "", 0
		}
		parts := strings.Split(trimmed, ".")
		if len(parts) == 1 {
			return "", parts[0], 1
		}
		return strings.Join(parts[:len(parts)-1], "."), parts[len(parts)-1], 1
	default:
		return "", "", 0
	}
}

// parseInt parses a LIMIT/OFFSET operand, which must be a bare integer
// literal.
func parseInt(t token.Token) (int64, error) {
	if t.Kind != token.KindNumber {
		return 0, sqlerrors.NewParse("expected integer literal, got: %s", tokenDisplay(t))
	}
	if strings.Contains(t.Text, ".") {
		return 0, sqlerrors.NewParse("expected integer literal, got: %s", t.Text)
	}
	n, err := strconv.ParseInt(t.Text, 10, 64)
	if err != nil {
		return 0, sqlerrors.NewParse("expected integer literal, got: %s", t.Text)
	}
	return n, nil
}

// parseValueExpr recognizes one VALUES/SET operand: DEFAULT, a bind
// parameter placeholder, or a literal. Anything else (a function call, an
// arithmetic expression) is stored verbatim as its rendered text — this
// grammar models DML values, it doesn't evaluate them (SPEC_FULL §4.5-4.7).
func parseValueExpr(tokens []token.Token) (ast.ValueExpr, error) {
	if len(tokens) == 0 {
		return ast.ValueExpr{}, sqlerrors.NewParse("empty value expression")
	}
	if len(tokens) == 1 {
		t := tokens[0]
		if t.Is("DEFAULT") {
			return ast.ValueExpr{IsDefault: true}, nil
		}
		if t.Kind == token.KindWord && expr.IsPlaceholder(t.Text) {
			return ast.ValueExpr{Placeholder: t.Text}, nil
		}
		if expr.IsLiteralToken(t) {
			return ast.ValueExpr{Literal: &ast.LiteralExpr{Value: expr.LiteralValue(t)}}, nil
		}
	}
	return ast.ValueExpr{Literal: &ast.LiteralExpr{Value: expr.Render(tokens)}}, nil
}

// parseAssignments parses a comma-separated `col = value` list shared by
// UPDATE's SET clause and ON CONFLICT DO UPDATE SET.
func parseAssignments(tokens []token.Token) ([]ast.Assignment, error) {
	groups := token.SplitByComma(tokens)
	if len(groups) == 0 {
		return nil, sqlerrors.NewParse("empty SET list")
	}
	out := make([]ast.Assignment, 0, len(groups))
	for _, g := range groups {
		idx := -1
		for i, t := range g {
			if isPunct(t, "=") {
				idx = i
				break
			}
		}
		if idx <= 0 {
			return nil, sqlerrors.NewParse("expected column = value in SET list")
		}
		colToks := g[:idx]
		if len(colToks) != 1 || (colToks[0].Kind != token.KindWord && colToks[0].Kind != token.KindQuotedIdent) {
			return nil, sqlerrors.NewParse("expected a single column name before '=' in SET list")
		}
		val, err := parseValueExpr(g[idx+1:])
		if err != nil {
			return nil, err
		}
		out = append(out, ast.Assignment{Column: colToks[0].Unquote(), Value: val})
	}
	return out, nil
}
