package parser

import (
	"strings"

	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
	sqlerrors "github.com/kalidasa/sqlshape/pkg/sqlshape/errors"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/token"
)

// Parse is the general entry point (spec §6 / SPEC_FULL §4.5-4.7):
// dispatches on the first token to the SELECT/WITH, INSERT, UPDATE, or
// DELETE grammar, or fails with the fixed "Invalid query type" message for
// anything else.
func Parse(query string) (ast.Node, error) {
	tokens, err := token.Tokenize(query)
	if err != nil {
		return nil, sqlerrors.NewParse("%v", err)
	}
	if len(tokens) == 0 {
		return nil, sqlerrors.NewParse(sqlerrors.EmptyQuery)
	}
	switch {
	case token.Peek(tokens).Is("SELECT", "WITH"):
		return parseSelectEntry(tokens)
	case token.Peek(tokens).Is("INSERT"):
		return parseInsertEntry(tokens)
	case token.Peek(tokens).Is("UPDATE"):
		return parseUpdateEntry(tokens)
	case token.Peek(tokens).Is("DELETE"):
		return parseDeleteEntry(tokens)
	default:
		return nil, sqlerrors.NewParse(sqlerrors.InvalidQueryType)
	}
}

func parseInsertEntry(tokens []token.Token) (*ast.InsertClause, error) {
	ctx := &parseCtx{}
	clause, rest, err := parseInsert(tokens, ctx)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, sqlerrors.NewParse("unexpected token: %s", tokenDisplay(token.Peek(rest)))
	}
	return clause, nil
}

func parseUpdateEntry(tokens []token.Token) (*ast.UpdateClause, error) {
	ctx := &parseCtx{}
	clause, rest, err := parseUpdate(tokens, ctx)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, sqlerrors.NewParse("unexpected token: %s", tokenDisplay(token.Peek(rest)))
	}
	return clause, nil
}

func parseDeleteEntry(tokens []token.Token) (*ast.DeleteClause, error) {
	ctx := &parseCtx{}
	clause, rest, err := parseDelete(tokens, ctx)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, sqlerrors.NewParse("unexpected token: %s", tokenDisplay(token.Peek(rest)))
	}
	return clause, nil
}

// parseInsert implements SPEC_FULL §4.5: INSERT INTO table [(cols)]
// (VALUES (...)[, (...)]* | select) [ON CONFLICT ...] [RETURNING ...].
func parseInsert(tokens []token.Token, ctx *parseCtx) (*ast.InsertClause, []token.Token, error) {
	_, rest := token.NextToken(tokens) // INSERT
	rest, err := expectKeyword(rest, "INTO")
	if err != nil {
		return nil, nil, err
	}
	schema, table, consumed := parseDottedName(rest)
	if consumed == 0 {
		return nil, nil, sqlerrors.NewParse("expected a table reference after INSERT INTO")
	}
	rest = rest[consumed:]
	tableRef := &ast.TableRef{Schema: schema, Table: table, Alias: table}
	if alias, tail, ok := maybeAlias(rest); ok {
		tableRef.Alias = alias
		rest = tail
	}

	var columns []string
	if isPunct(token.Peek(rest), "(") {
		inner, after, err := matchParen(rest)
		if err != nil {
			return nil, nil, err
		}
		for _, g := range token.SplitByComma(inner) {
			if len(g) != 1 || (g[0].Kind != token.KindWord && g[0].Kind != token.KindQuotedIdent) {
				return nil, nil, sqlerrors.NewParse("expected a column name in INSERT column list")
			}
			columns = append(columns, g[0].Unquote())
		}
		rest = after
	}

	var rows [][]ast.ValueExpr
	var query ast.SelectOrUnion
	switch {
	case token.Peek(rest).Is("VALUES"):
		_, rest = token.NextToken(rest)
		for {
			if !isPunct(token.Peek(rest), "(") {
				return nil, nil, sqlerrors.NewParse("expected ( after VALUES")
			}
			inner, after, err := matchParen(rest)
			if err != nil {
				return nil, nil, err
			}
			groups := token.SplitByComma(inner)
			row := make([]ast.ValueExpr, 0, len(groups))
			for _, g := range groups {
				v, err := parseValueExpr(g)
				if err != nil {
					return nil, nil, err
				}
				row = append(row, v)
			}
			rows = append(rows, row)
			rest = after
			if isPunct(token.Peek(rest), ",") {
				_, rest = token.NextToken(rest)
				continue
			}
			break
		}
	case token.Peek(rest).Is("SELECT", "WITH"):
		q, leftover, err := parseTopSelect(rest, ctx)
		if err != nil {
			return nil, nil, err
		}
		query = q
		rest = leftover
	default:
		return nil, nil, sqlerrors.NewParse("expected VALUES or SELECT, got: %s", tokenDisplay(token.Peek(rest)))
	}

	var onConflict *ast.OnConflictClause
	if token.Peek(rest).Is("ON") {
		_, rest = token.NextToken(rest)
		rest, err = expectKeyword(rest, "CONFLICT")
		if err != nil {
			return nil, nil, err
		}
		oc := &ast.OnConflictClause{}
		if isPunct(token.Peek(rest), "(") {
			inner, after, err := matchParen(rest)
			if err != nil {
				return nil, nil, err
			}
			for _, g := range token.SplitByComma(inner) {
				if len(g) != 1 || (g[0].Kind != token.KindWord && g[0].Kind != token.KindQuotedIdent) {
					return nil, nil, sqlerrors.NewParse("expected a column name in ON CONFLICT target")
				}
				oc.Target = append(oc.Target, g[0].Unquote())
			}
			rest = after
		}
		if token.Peek(rest).Is("DO") {
			_, rest = token.NextToken(rest)
			switch {
			case token.Peek(rest).Is("NOTHING"):
				_, rest = token.NextToken(rest)
				oc.DoNothing = true
			case token.Peek(rest).Is("UPDATE"):
				_, rest = token.NextToken(rest)
				rest, err = expectKeyword(rest, "SET")
				if err != nil {
					return nil, nil, err
				}
				setTokens, tail := token.ExtractUntil(rest, token.SetClauseTerminators)
				assigns, err := parseAssignments(setTokens)
				if err != nil {
					return nil, nil, err
				}
				oc.DoUpdate = assigns
				rest = tail
			default:
				return nil, nil, sqlerrors.NewParse("expected NOTHING or UPDATE after DO")
			}
		}
		onConflict = oc
	}

	var returning ast.ColumnList
	if token.Peek(rest).Is("RETURNING") {
		_, r := token.NextToken(rest)
		returning, err = parseColumnList(r, ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, item := range returning.Items {
			var table string
			switch ref := item.Expr.(type) {
			case *ast.TableColumnRef:
				table = ref.Table
			case *ast.TableWildcard:
				table = ref.Table
			}
			if strings.EqualFold(table, "OLD") {
				return nil, nil, sqlerrors.NewParse("unexpected token in INSERT RETURNING: %s", table)
			}
		}
		rest = nil
	}

	return &ast.InsertClause{
		Table:      tableRef,
		Columns:    columns,
		Rows:       rows,
		Query:      query,
		OnConflict: onConflict,
		Returning:  returning,
	}, rest, nil
}

// parseUpdate implements SPEC_FULL §4.6: UPDATE table SET col = val, ...
// [FROM source, ...] [WHERE condition] [RETURNING ...].
func parseUpdate(tokens []token.Token, ctx *parseCtx) (*ast.UpdateClause, []token.Token, error) {
	_, rest := token.NextToken(tokens) // UPDATE
	schema, table, consumed := parseDottedName(rest)
	if consumed == 0 {
		return nil, nil, sqlerrors.NewParse("expected a table reference after UPDATE")
	}
	rest = rest[consumed:]
	tableRef := &ast.TableRef{Schema: schema, Table: table, Alias: table}
	if alias, tail, ok := maybeAlias(rest); ok && !token.Peek(rest).Is("SET") {
		tableRef.Alias = alias
		rest = tail
	}

	rest, err := expectKeyword(rest, "SET")
	if err != nil {
		return nil, nil, err
	}
	setTokens, rest := token.ExtractUntil(rest, token.SetClauseTerminators)
	assigns, err := parseAssignments(setTokens)
	if err != nil {
		return nil, nil, err
	}

	var from []ast.TableSource
	if token.Peek(rest).Is("FROM") {
		_, rest = token.NextToken(rest)
		fromTokens, tail := token.ExtractUntil(rest, token.FromListTerminators)
		for _, g := range token.SplitByComma(fromTokens) {
			ts, err := parseTableSourceSpan(g, ctx)
			if err != nil {
				return nil, nil, err
			}
			from = append(from, ts)
		}
		rest = tail
	}

	where, rest, err := parseWhere(rest, ctx)
	if err != nil {
		return nil, nil, err
	}

	var returning ast.ColumnList
	if token.Peek(rest).Is("RETURNING") {
		_, r := token.NextToken(rest)
		returning, err = parseColumnList(r, ctx)
		if err != nil {
			return nil, nil, err
		}
		rest = nil
	}

	return &ast.UpdateClause{Table: tableRef, Set: assigns, From: from, Where: where, Returning: returning}, rest, nil
}

// parseDelete implements SPEC_FULL §4.7: DELETE FROM table [USING
// source, ...] [WHERE condition] [RETURNING ...].
func parseDelete(tokens []token.Token, ctx *parseCtx) (*ast.DeleteClause, []token.Token, error) {
	_, rest := token.NextToken(tokens) // DELETE
	rest, err := expectKeyword(rest, "FROM")
	if err != nil {
		return nil, nil, err
	}
	schema, table, consumed := parseDottedName(rest)
	if consumed == 0 {
		return nil, nil, sqlerrors.NewParse("expected a table reference after DELETE FROM")
	}
	rest = rest[consumed:]
	tableRef := &ast.TableRef{Schema: schema, Table: table, Alias: table}
	if alias, tail, ok := maybeAlias(rest); ok && !token.Peek(rest).Is("USING") {
		tableRef.Alias = alias
		rest = tail
	}

	var using []ast.TableSource
	if token.Peek(rest).Is("USING") {
		_, rest = token.NextToken(rest)
		usingTokens, tail := token.ExtractUntil(rest, token.FromListTerminators)
		for _, g := range token.SplitByComma(usingTokens) {
			ts, err := parseTableSourceSpan(g, ctx)
			if err != nil {
				return nil, nil, err
			}
			using = append(using, ts)
		}
		rest = tail
	}

	where, rest, err := parseWhere(rest, ctx)
	if err != nil {
		return nil, nil, err
	}

	var returning ast.ColumnList
	if token.Peek(rest).Is("RETURNING") {
		_, r := token.NextToken(rest)
		returning, err = parseColumnList(r, ctx)
		if err != nil {
			return nil, nil, err
		}
		rest = nil
	}

	return &ast.DeleteClause{Table: tableRef, Using: using, Where: where, Returning: returning}, rest, nil
}
