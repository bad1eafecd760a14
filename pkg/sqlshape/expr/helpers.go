package expr

import (
	"strconv"
	"strings"

	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/hosttype"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/token"
)

// splitParen requires tokens[0] to be "(" and returns the tokens strictly
// inside the matching close paren, plus whatever follows it.
func splitParen(tokens []token.Token) (inner, after []token.Token, err error) {
	if len(tokens) == 0 || !(tokens[0].Kind == token.KindPunct && tokens[0].Text == "(") {
		return nil, nil, errEmptyExpr
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
	return nil, nil, errEmptyExpr
}

// trimOuterParens strips a redundant enclosing `( ... )` pair that wraps
// the entire token list, e.g. a plain grouping `(a.b)` with no trailing
// tokens — but NOT `(SELECT ...)`, which Recognize's scalar-subquery step
// handles after this trim, since trimming would discard the subquery's own
// parens.
func trimOuterParens(tokens []token.Token) []token.Token {
	for len(tokens) >= 2 && tokens[0].Kind == token.KindPunct && tokens[0].Text == "(" {
		inner, after, err := splitParen(tokens)
		if err != nil || len(after) != 0 || startsSelectOrWith(inner) {
			break
		}
		tokens = inner
	}
	return tokens
}

func startsSelectOrWith(tokens []token.Token) bool {
	return len(tokens) > 0 && tokens[0].Is("SELECT", "WITH")
}

// --- wildcard ---

func recognizeWildcard(tokens []token.Token) (ast.ColumnRef, string, bool) {
	if len(tokens) == 1 && tokens[0].Kind == token.KindPunct && tokens[0].Text == "*" {
		return nil, "", false // bare "*" is handled by the SELECT parser, not here.
	}
	if len(tokens) < 2 {
		return nil, "", false
	}
	last := tokens[len(tokens)-1]
	if !(last.Kind == token.KindPunct && last.Text == "*") {
		return nil, "", false
	}
	name := tokens[:len(tokens)-1]
	if len(name) != 1 || name[0].Kind != token.KindWord || !strings.HasSuffix(name[0].Text, ".") {
		return nil, "", false
	}
	parts := strings.Split(strings.TrimSuffix(name[0].Text, "."), ".")
	switch len(parts) {
	case 1:
		// default alias derived from the source alias itself — matcher and
		// validator never read it (a wildcard expands into many real
		// columns), but every SelectItem still needs a non-empty alias
		// (invariant I1).
		return &ast.TableWildcard{Table: parts[0]}, parts[0], true
	case 2:
		return &ast.TableWildcard{Schema: parts[0], Table: parts[1]}, parts[1], true
	}
	return nil, "", false
}

// --- EXISTS ---

func recognizeExists(tokens []token.Token, parseSub SubParser) (ast.ColumnRef, string, bool, error) {
	negated := false
	rest := tokens
	if rest[0].Is("NOT") && len(rest) > 1 && rest[1].Is("EXISTS") {
		negated = true
		rest = rest[1:]
	}
	if !rest[0].Is("EXISTS") {
		return nil, "", false, nil
	}
	rest = rest[1:]
	if len(rest) == 0 || !(rest[0].Kind == token.KindPunct && rest[0].Text == "(") {
		return nil, "", true, errEmptyExpr
	}
	inner, after, err := splitParen(rest)
	if err != nil {
		return nil, "", true, err
	}
	if len(after) != 0 {
		return nil, "", true, errEmptyExpr
	}
	query, err := parseSub(inner)
	if err != nil {
		return nil, "", true, err
	}
	return &ast.ExistsExpr{Query: query, Negated: negated}, "exists", true, nil
}

// --- SQL constants ---

func isSQLConstant(t token.Token) bool {
	if t.Kind != token.KindWord {
		return false
	}
	_, ok := token.SQLConstants[t.Upper()]
	return ok
}

func defaultConstantAlias(name string) string {
	return strings.ToLower(name)
}

// --- aggregates ---

func recognizeAggregate(tokens []token.Token) (ast.ColumnRef, string, bool, error) {
	if len(tokens) < 3 || tokens[0].Kind != token.KindWord {
		return nil, "", false, nil
	}
	fn := tokens[0].Upper()
	if _, ok := token.AggregateFuncs[fn]; !ok {
		return nil, "", false, nil
	}
	if !(tokens[1].Kind == token.KindPunct && tokens[1].Text == "(") {
		return nil, "", false, nil
	}
	inner, after, err := splitParen(tokens[1:])
	if err != nil {
		return nil, "", true, err
	}
	if len(after) != 0 {
		return nil, "", true, errEmptyExpr
	}
	alias := strings.ToUpper(fn) + "_result"
	if len(inner) == 1 && inner[0].Kind == token.KindPunct && inner[0].Text == "*" {
		return &ast.AggregateExpr{Func: ast.AggregateFunc(fn), Arg: nil}, alias, true, nil
	}
	arg, _, err := recognizeSimpleOrComplexArg(inner)
	if err != nil {
		return nil, "", true, err
	}
	return &ast.AggregateExpr{Func: ast.AggregateFunc(fn), Arg: arg}, alias, true, nil
}

// recognizeSimpleOrComplexArg recognizes an aggregate argument, which may
// itself be a simple column ref or a nested complex expression, but never a
// wildcard/subquery/EXISTS — aggregate arguments are scalar column-ish
// expressions (spec §4.4: MIN/MAX over a column, SUM/AVG over a column).
func recognizeSimpleOrComplexArg(tokens []token.Token) (ast.ColumnRef, string, error) {
	if containsComplexMarker(tokens) {
		return recognizeComplex(tokens)
	}
	return recognizeSimpleColumn(tokens)
}

// --- CAST(expr AS type) ---

func recognizeCastFunc(tokens []token.Token) (ast.ColumnRef, string, error) {
	inner, after, err := splitParen(tokens[1:])
	if err != nil {
		return nil, "", err
	}
	if len(after) != 0 {
		return nil, "", errEmptyExpr
	}
	asIdx := findTopLevelKeyword(inner, "AS")
	if asIdx < 0 {
		return nil, "", errEmptyExpr
	}
	exprTokens := inner[:asIdx]
	typeTokens := inner[asIdx+1:]
	castType := renderTypeName(typeTokens)
	refs := scanColumnRefs(exprTokens)
	return &ast.ComplexExpr{
		Source:     render(tokens),
		ColumnRefs: refs,
		CastType:   hostTypeString(castType),
	}, "expr", nil
}

func hostTypeString(sqlType string) string {
	// Preserve the raw SQL type name on the node (the matcher maps it to a
	// host type via hosttype.FromCast); stripping precision here keeps the
	// stored CastType normalized the same way a plain `::type` suffix is.
	return hosttype.StripPrecision(strings.ToLower(sqlType))
}

func findTopLevelKeyword(tokens []token.Token, kw string) int {
	depth := 0
	for i, t := range tokens {
		if t.Kind == token.KindPunct {
			switch t.Text {
			case "(":
				depth++
			case ")":
				depth--
			}
			continue
		}
		if depth == 0 && t.Is(kw) {
			return i
		}
	}
	return -1
}

func renderTypeName(tokens []token.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}

// --- complex expressions ---

func containsComplexMarker(tokens []token.Token) bool {
	for _, t := range tokens {
		if t.Kind != token.KindPunct {
			continue
		}
		switch t.Text {
		case "->", "->>", "#>", "#>>", "||", "(", "::":
			return true
		}
	}
	return false
}

func recognizeComplex(tokens []token.Token) (ast.ColumnRef, string, error) {
	exprTokens, castType, hasCast := trailingCast(tokens)
	refs := scanColumnRefs(exprTokens)
	alias := "expr"
	if a, ok := jsonOperatorAlias(exprTokens); ok {
		alias = a
	} else if len(refs) == 1 {
		if last := lastSegmentOf(refs[0]); last != "" {
			alias = last
		}
	}
	ce := &ast.ComplexExpr{Source: render(tokens), ColumnRefs: refs}
	if hasCast {
		ce.CastType = hostTypeString(castType)
	}
	return ce, alias, nil
}

func lastSegmentOf(ref ast.ColumnRef) string {
	switch r := ref.(type) {
	case *ast.UnboundColumnRef:
		return r.Name
	case *ast.TableColumnRef:
		return r.Column
	}
	return ""
}

// trailingCast looks for the last top-level "::" token and, if found,
// returns the tokens before it, the type text after it, and true. If no
// top-level "::" exists it returns the input unchanged and false.
func trailingCast(tokens []token.Token) (exprTokens []token.Token, castType string, hasCast bool) {
	depth := 0
	lastIdx := -1
	for i, t := range tokens {
		if t.Kind != token.KindPunct {
			continue
		}
		switch t.Text {
		case "(":
			depth++
		case ")":
			depth--
		case "::":
			if depth == 0 {
				lastIdx = i
			}
		}
	}
	if lastIdx < 0 || lastIdx == len(tokens)-1 {
		return tokens, "", false
	}
	return tokens[:lastIdx], renderTypeName(tokens[lastIdx+1:]), true
}

// jsonOperatorAlias implements spec §4.2's JSON-operator aliasing rule: the
// default alias is the final key of the last top-level ->, ->>, #>, or #>>
// operator's right operand, quotes stripped; falls back to false ("expr")
// if the key can't be parsed as an identifier.
func jsonOperatorAlias(tokens []token.Token) (string, bool) {
	depth := 0
	opIdx := -1
	for i, t := range tokens {
		if t.Kind != token.KindPunct {
			continue
		}
		switch t.Text {
		case "(":
			depth++
		case ")":
			depth--
		case "->", "->>", "#>", "#>>":
			if depth == 0 {
				opIdx = i
			}
		}
	}
	if opIdx < 0 || opIdx+1 >= len(tokens) {
		return "", false
	}
	operand := tokens[opIdx+1]
	if operand.Kind != token.KindString {
		return "", false
	}
	raw := unquoteString(operand.Text)
	op := tokens[opIdx].Text
	var key string
	if op == "#>" || op == "#>>" {
		raw = strings.TrimPrefix(raw, "{")
		raw = strings.TrimSuffix(raw, "}")
		segs := strings.Split(raw, ",")
		key = strings.TrimSpace(segs[len(segs)-1])
	} else {
		key = raw
	}
	key = strings.Trim(key, `"`)
	if isValidIdent(key) {
		return key, true
	}
	return "", false
}

func unquoteString(raw string) string {
	s := raw
	if len(s) >= 2 && (s[0] == 'E' || s[0] == 'e' || s[0] == 'N' || s[0] == 'n') && s[1] == '\'' {
		s = s[1:]
	}
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, "''", "'")
}

func isValidIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// --- column-ref scanning (deny-list driven, spec §9) ---

// scanColumnRefs walks tokens and retains everything that looks like a
// column reference, skipping SQL keywords/operators, numeric and string
// literals, bind-parameter placeholders ($N, :name, @name), and any
// identifier immediately followed by "(" (a function name).
func scanColumnRefs(tokens []token.Token) []ast.ColumnRef {
	var refs []ast.ColumnRef
	i := 0
	for i < len(tokens) {
		t := tokens[i]
		switch {
		case t.Kind == token.KindPunct, t.Kind == token.KindString, t.Kind == token.KindNumber:
			i++
		case t.Kind == token.KindWord && isPlaceholder(t.Text):
			i++
		case t.Kind == token.KindWord && strings.ContainsRune("+-*/%^~!&|<>=#@?", rune(t.Text[0])):
			i++ // operator spelled as a word token (e.g. +, -, /)
		case t.Kind == token.KindWord && token.IsKeyword(t.Upper()):
			i++
		case t.Kind == token.KindWord && i+1 < len(tokens) && tokens[i+1].Kind == token.KindPunct && tokens[i+1].Text == "(":
			i++ // function name — skip; its args are scanned on later iterations
		case t.Kind == token.KindWord || t.Kind == token.KindQuotedIdent:
			parts, consumed := parseQualifiedName(tokens, i)
			if consumed == 0 {
				i++
				continue
			}
			refs = append(refs, buildColumnRef(parts))
			i += consumed
		default:
			i++
		}
	}
	return refs
}

func isPlaceholder(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '$':
		_, err := strconv.Atoi(s[1:])
		return err == nil && len(s) > 1
	case ':', '@':
		return len(s) > 1
	}
	return false
}

// parseQualifiedName consumes a (possibly dotted, possibly quote-mixed)
// qualified identifier starting at tokens[i], returning its dot-separated
// parts and how many tokens it consumed. Plain dotted names normally arrive
// as a single WORD token (the normalizer never pads "." with spaces);
// quoted segments are merged with an adjoining leading/trailing "." on a
// neighboring WORD token.
func parseQualifiedName(tokens []token.Token, i int) ([]string, int) {
	if i >= len(tokens) {
		return nil, 0
	}
	t := tokens[i]
	switch t.Kind {
	case token.KindQuotedIdent:
		parts := []string{t.Unquote()}
		consumed := 1
		for i+consumed < len(tokens) {
			nt := tokens[i+consumed]
			if nt.Kind == token.KindWord && strings.HasPrefix(nt.Text, ".") {
				rest := strings.TrimSuffix(strings.TrimPrefix(nt.Text, "."), ".")
				consumed++
				if rest != "" {
					parts = append(parts, strings.Split(rest, ".")...)
				}
				if strings.HasSuffix(nt.Text, ".") && i+consumed < len(tokens) && tokens[i+consumed].Kind == token.KindQuotedIdent {
					parts = append(parts, tokens[i+consumed].Unquote())
					consumed++
				}
				continue
			}
			break
		}
		return parts, consumed
	case token.KindWord:
		raw := t.Text
		trimmed := strings.Trim(raw, ".")
		if trimmed == "" {
			return nil, 0
		}
		parts := strings.Split(trimmed, ".")
		consumed := 1
		if strings.HasSuffix(raw, ".") && i+consumed < len(tokens) && tokens[i+consumed].Kind == token.KindQuotedIdent {
			parts = append(parts, tokens[i+consumed].Unquote())
			consumed++
		}
		return parts, consumed
	default:
		return nil, 0
	}
}

func buildColumnRef(parts []string) ast.ColumnRef {
	switch len(parts) {
	case 1:
		return &ast.UnboundColumnRef{Name: parts[0]}
	case 2:
		return &ast.TableColumnRef{Table: parts[0], Column: parts[1]}
	default:
		return &ast.TableColumnRef{
			Schema: strings.Join(parts[:len(parts)-2], "."),
			Table:  parts[len(parts)-2],
			Column: parts[len(parts)-1],
		}
	}
}

// --- simple column reference (recognition step 6) ---

func recognizeSimpleColumn(tokens []token.Token) (ast.ColumnRef, string, error) {
	exprTokens, castType, hasCast := trailingCast(tokens)
	if len(exprTokens) == 0 {
		return nil, "", errEmptyExpr
	}
	parts, consumed := parseQualifiedName(exprTokens, 0)
	if consumed == 0 || consumed != len(exprTokens) {
		// Couldn't reduce to a single qualified name: treat as a complex
		// expression so the recognizer degrades gracefully instead of
		// erroring on syntax this subset doesn't model in depth.
		refs := scanColumnRefs(exprTokens)
		alias := "expr"
		if len(refs) == 1 {
			if last := lastSegmentOf(refs[0]); last != "" {
				alias = last
			}
		}
		ce := &ast.ComplexExpr{Source: render(tokens), ColumnRefs: refs}
		if hasCast {
			ce.CastType = hostTypeString(castType)
		}
		return ce, alias, nil
	}
	ref := buildColumnRef(parts)
	alias := parts[len(parts)-1]
	if hasCast {
		ce := &ast.ComplexExpr{Source: render(tokens), ColumnRefs: []ast.ColumnRef{ref}, CastType: hostTypeString(castType)}
		return ce, alias, nil
	}
	return ref, alias, nil
}

// --- literals ---

func isLiteralToken(t token.Token) bool {
	if t.Kind == token.KindString || t.Kind == token.KindNumber {
		return true
	}
	return t.Is("TRUE", "FALSE", "NULL")
}

func literalValue(t token.Token) any {
	switch {
	case t.Kind == token.KindString:
		return unquoteString(t.Text)
	case t.Kind == token.KindNumber:
		if n, err := strconv.ParseFloat(t.Text, 64); err == nil {
			return n
		}
		return t.Text
	case t.Is("TRUE"):
		return true
	case t.Is("FALSE"):
		return false
	default:
		return nil
	}
}

func render(tokens []token.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}
