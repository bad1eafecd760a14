package expr

import "github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
import "github.com/kalidasa/sqlshape/pkg/sqlshape/token"

// ScanColumnRefs exposes the deny-list column-reference scan (spec §9) for
// callers that only need the references inside an opaque boolean expression
// — the parser's WHERE/HAVING/ON/USING condition handling — without going
// through the full SelectItem recognition path.
func ScanColumnRefs(tokens []token.Token) []ast.ColumnRef {
	return scanColumnRefs(tokens)
}

// FindTopLevelKeyword exposes the paren-depth-aware keyword search the
// recognizer uses for CAST's inner AS, so the parser's column-list AS-alias
// split uses the exact same notion of "top level" as expression recognition
// does.
func FindTopLevelKeyword(tokens []token.Token, kw string) int {
	return findTopLevelKeyword(tokens, kw)
}

// Render renders a token slice back to a single space-joined string, used
// for diagnostic text and for ValueExpr's literal-fallback storage.
func Render(tokens []token.Token) string {
	return render(tokens)
}

// LiteralValue extracts the Go value a single literal token represents.
func LiteralValue(t token.Token) any {
	return literalValue(t)
}

// IsLiteralToken reports whether t is a string/number/boolean/null literal.
func IsLiteralToken(t token.Token) bool {
	return isLiteralToken(t)
}

// IsPlaceholder reports whether s is a bind-parameter placeholder ($N,
// :name, @name).
func IsPlaceholder(s string) bool {
	return isPlaceholder(s)
}
