package token

// Keywords is the recognition set the parser and expression recognizer
// consult when deciding whether a bare word is SQL vocabulary rather than
// an identifier. Membership is checked via the uppercased token text, so
// identifier casing is never affected by this set.
//
// This is deliberately not exhaustive of PostgreSQL's full reserved-word
// list (spec.md only requires the subset this module's grammar touches);
// extending it is additive, not a grammar change, per spec §9.
var Keywords = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "WHERE": {}, "GROUP": {}, "BY": {}, "HAVING": {},
	"ORDER": {}, "LIMIT": {}, "OFFSET": {}, "DISTINCT": {}, "AS": {}, "WITH": {},
	"JOIN": {}, "INNER": {}, "LEFT": {}, "RIGHT": {}, "FULL": {}, "CROSS": {},
	"OUTER": {}, "ON": {}, "UNION": {}, "INTERSECT": {}, "EXCEPT": {}, "ALL": {},
	"ASC": {}, "DESC": {}, "AND": {}, "OR": {}, "NOT": {}, "NULL": {}, "TRUE": {},
	"FALSE": {}, "IN": {}, "LIKE": {}, "ILIKE": {}, "BETWEEN": {}, "IS": {},
	"EXISTS": {}, "CAST": {}, "INTERVAL": {}, "INSERT": {}, "INTO": {}, "VALUES": {},
	"UPDATE": {}, "SET": {}, "DELETE": {}, "USING": {}, "RETURNING": {}, "CONFLICT": {},
	"DO": {}, "NOTHING": {}, "DEFAULT": {}, "OLD": {}, "NEW": {},
	"CURRENT_DATE": {}, "CURRENT_TIMESTAMP": {}, "CURRENT_TIME": {}, "LOCALTIME": {},
	"LOCALTIMESTAMP": {}, "CURRENT_USER": {}, "SESSION_USER": {}, "CURRENT_SCHEMA": {},
	"CURRENT_CATALOG": {}, "CURRENT_ROLE": {},
	"COUNT": {}, "SUM": {}, "AVG": {}, "MIN": {}, "MAX": {},
}

// IsKeyword reports whether raw is in the recognition set. The lookup is
// exact, so callers pass the uppercased text (Token.Upper()).
func IsKeyword(raw string) bool {
	_, ok := Keywords[raw]
	return ok
}

// SQLConstants are the zero-argument SQL constant tokens spec §3 lists as
// SQLConstantExpr names.
var SQLConstants = map[string]struct{}{
	"CURRENT_DATE": {}, "CURRENT_TIMESTAMP": {}, "CURRENT_TIME": {}, "LOCALTIME": {},
	"LOCALTIMESTAMP": {}, "CURRENT_USER": {}, "SESSION_USER": {}, "CURRENT_SCHEMA": {},
	"CURRENT_CATALOG": {}, "CURRENT_ROLE": {},
}

// AggregateFuncs is the closed set of aggregate function names spec §3
// recognizes.
var AggregateFuncs = map[string]struct{}{
	"COUNT": {}, "SUM": {}, "AVG": {}, "MIN": {}, "MAX": {},
}

// The terminator sets below are the tokens ExtractUntil callers most
// commonly stop at; kept here as named sets so parser code reads as intent, not magic strings.
var (
	FromTerminator    = set("FROM")
	JoinTerminators   = set("JOIN", "INNER", "LEFT", "RIGHT", "FULL", "CROSS",
		"WHERE", "GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET",
		"UNION", "INTERSECT", "EXCEPT")
	WhereTerminators  = set("GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET",
		"UNION", "INTERSECT", "EXCEPT", "RETURNING")
	GroupByTerminators = set("HAVING", "ORDER", "LIMIT", "OFFSET",
		"UNION", "INTERSECT", "EXCEPT")
	HavingTerminators = set("ORDER", "LIMIT", "OFFSET", "UNION", "INTERSECT", "EXCEPT")
	OrderByTerminators = set("LIMIT", "OFFSET", "UNION", "INTERSECT", "EXCEPT")
	SetClauseTerminators = set("FROM", "WHERE", "RETURNING")

	// JoinTableTerminators additionally stops at ON, since a join's table
	// source is immediately followed by an optional ON condition rather than
	// another clause keyword.
	JoinTableTerminators = set("JOIN", "INNER", "LEFT", "RIGHT", "FULL", "CROSS",
		"ON", "WHERE", "GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET",
		"UNION", "INTERSECT", "EXCEPT")

	// FromListTerminators bounds UPDATE ... FROM and DELETE ... USING lists.
	FromListTerminators = set("WHERE", "RETURNING")
)

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
