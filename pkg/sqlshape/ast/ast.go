// Package ast defines the closed set of node shapes every later stage of
// the pipeline (expr, parser, resolvec, matcher, validator) consumes or
// produces (spec §3). Node identity is structural — there are no
// back-pointers, and nothing mutates a node after construction; the parser
// always emits a fully formed tree bottom-up.
//
// Grounded on the tagged-variant AST shape of
// other_examples/omniql-engine-omniql's engine/ast package (sealed
// interfaces with unexported marker methods per node family), adapted to
// this spec's column-reference vocabulary.
package ast

// Node is the root of any parse result: a SelectClause, a UnionClause, one
// of the DML clauses, or a DynamicQuery marker.
type Node interface {
	node()
}

// ColumnRef is the one alternative every later stage enumerates (spec §3).
type ColumnRef interface {
	columnRef()
}

// TableSource is anything that can appear where a FROM/JOIN/USING table is
// expected: a named table, a derived (parenthesized) SELECT, or — by name
// lookup through the context builder — a CTE.
type TableSource interface {
	tableSource()
}

// SelectOrUnion is the node a UNION/INTERSECT/EXCEPT chain's right-hand
// side holds: either a plain SelectClause or a nested UnionClause.
type SelectOrUnion interface {
	Node
	selectOrUnion()
}

// --- Column references (spec §3) ---

// UnboundColumnRef is a bare `col` reference resolved by linear search over
// the context's tables (spec §4.4).
type UnboundColumnRef struct {
	Name string
}

func (*UnboundColumnRef) columnRef() {}

// TableColumnRef is `t.c` or `s.t.c`. Table may be a real table name or an
// alias declared in the same query; Schema is empty unless explicitly
// qualified.
type TableColumnRef struct {
	Schema string
	Table  string
	Column string
}

func (*TableColumnRef) columnRef() {}

// TableWildcard is `t.*` or `s.t.*`.
type TableWildcard struct {
	Schema string
	Table  string
}

func (*TableWildcard) columnRef() {}

// ComplexExpr is any expression the recognizer couldn't simplify: cast
// chains, JSON operators, function calls, arithmetic, parenthesized groups.
// ColumnRefs is the set of inner references the recognizer found by
// scanning (not parsing) the expression text; CastType, if non-empty,
// overrides the result type for the matcher.
type ComplexExpr struct {
	Source     string
	ColumnRefs []ColumnRef
	CastType   string
}

func (*ComplexExpr) columnRef() {}

// SubqueryExpr is a parenthesized SELECT used as a scalar column.
type SubqueryExpr struct {
	Query    SelectOrUnion
	CastType string
}

func (*SubqueryExpr) columnRef() {}

// AggregateFunc is the closed set spec §3 recognizes.
type AggregateFunc string

const (
	AggCount AggregateFunc = "COUNT"
	AggSum   AggregateFunc = "SUM"
	AggAvg   AggregateFunc = "AVG"
	AggMin   AggregateFunc = "MIN"
	AggMax   AggregateFunc = "MAX"
)

// AggregateExpr is `FUNC(arg)` or `FUNC(*)`. Arg is nil exactly when the
// call was written as `FUNC(*)`.
type AggregateExpr struct {
	Func AggregateFunc
	Arg  ColumnRef // nil means "*"
}

func (*AggregateExpr) columnRef() {}

// LiteralExpr wraps a parsed literal value: string, float64/int64, bool, or
// nil (SQL NULL).
type LiteralExpr struct {
	Value any
}

func (*LiteralExpr) columnRef() {}

// SQLConstantExpr is a zero-argument SQL constant such as CURRENT_DATE.
type SQLConstantExpr struct {
	Name string
}

func (*SQLConstantExpr) columnRef() {}

// ExistsExpr is `[NOT] EXISTS (SELECT ...)`.
type ExistsExpr struct {
	Query    SelectOrUnion
	Negated  bool
}

func (*ExistsExpr) columnRef() {}

// IntervalExpr is `INTERVAL '...'`. Value is the raw literal text following
// the keyword, quotes included.
type IntervalExpr struct {
	Value string
}

func (*IntervalExpr) columnRef() {}

// --- Select items ---

// SelectItem wraps a column-ref-like node with a mandatory alias (spec
// invariant I1 — every SelectItem's Alias is non-empty after parsing).
type SelectItem struct {
	Expr  ColumnRef
	Alias string
}

// ColumnList is either the literal "*" (All) or a non-empty ordered list of
// SelectItems (spec invariant I4 — an empty, non-All list is a parse
// error and is never constructed by the parser).
type ColumnList struct {
	All   bool
	Items []SelectItem
}

// --- Table sources ---

// TableRef is a plain `schema.table [[AS] alias]` reference. Alias defaults
// to Table when the query omits one (spec §3).
type TableRef struct {
	Schema string
	Table  string
	Alias  string
}

func (*TableRef) tableSource() {}

// DerivedTableRef is `( SELECT ... ) alias`. Alias is required — the parser
// never constructs one with an empty Alias (spec invariant I6).
type DerivedTableRef struct {
	Query SelectOrUnion
	Alias string
}

func (*DerivedTableRef) tableSource() {}

// CTEDefinition is one `name AS ( SELECT ... )` binding from a WITH list.
type CTEDefinition struct {
	Name  string
	Query SelectOrUnion
}

// --- Joins, conditions, ordering ---

type JoinType string

const (
	JoinInner      JoinType = "INNER"
	JoinLeft       JoinType = "LEFT"
	JoinRight      JoinType = "RIGHT"
	JoinFull       JoinType = "FULL"
	JoinCross      JoinType = "CROSS"
	JoinLeftOuter  JoinType = "LEFT OUTER"
	JoinRightOuter JoinType = "RIGHT OUTER"
	JoinFullOuter  JoinType = "FULL OUTER"
)

// ParsedCondition retains only the column references found inside an
// opaque WHERE/HAVING/ON/USING boolean expression; the full boolean tree is
// intentionally discarded (spec §3, §9) because no downstream stage needs
// it.
type ParsedCondition struct {
	ColumnRefs []ColumnRef
}

// JoinClause is one `[type] JOIN table-source [ON condition]` clause. On is
// nil for a plain CROSS JOIN (which forbids an ON per spec §3).
type JoinClause struct {
	Type  JoinType
	Table TableSource
	On    *ParsedCondition
}

type OrderDirection string

const (
	OrderAsc  OrderDirection = "ASC"
	OrderDesc OrderDirection = "DESC"
)

// OrderItem is one ORDER BY element.
type OrderItem struct {
	Expr      ColumnRef
	Direction OrderDirection
}

// --- SELECT / UNION ---

// SelectClause is the full shape of one SELECT body (spec §3).
type SelectClause struct {
	CTEs     []CTEDefinition
	Distinct bool
	Columns  ColumnList
	From     TableSource
	Joins    []JoinClause
	Where    *ParsedCondition
	GroupBy  []ColumnRef
	Having   *ParsedCondition
	OrderBy  []OrderItem
	Limit    *int64
	Offset   *int64
}

func (*SelectClause) node()          {}
func (*SelectClause) selectOrUnion() {}

type UnionOperator string

const (
	UnionPlain       UnionOperator = "UNION"
	UnionAll         UnionOperator = "UNION ALL"
	IntersectPlain   UnionOperator = "INTERSECT"
	IntersectAll     UnionOperator = "INTERSECT ALL"
	ExceptPlain      UnionOperator = "EXCEPT"
	ExceptAll        UnionOperator = "EXCEPT ALL"
)

// UnionClause is a right-associative chain: `left OP right`, where right
// may itself be another UnionClause (spec §3, testable property 7).
type UnionClause struct {
	Left     *SelectClause
	Operator UnionOperator
	Right    SelectOrUnion
}

func (*UnionClause) node()          {}
func (*UnionClause) selectOrUnion() {}

// Selects flattens a (possibly nested) UnionClause into its left-to-right
// SELECT sequence, e.g. `A UNION B UNION C` -> [A, B, C] (testable
// property 7).
func (u *UnionClause) Selects() []*SelectClause {
	out := []*SelectClause{u.Left}
	switch r := u.Right.(type) {
	case *SelectClause:
		out = append(out, r)
	case *UnionClause:
		out = append(out, r.Selects()...)
	}
	return out
}

// --- DML (spec.md's "mechanical extension", made concrete by SPEC_FULL §3) ---

// ValueExpr is one VALUES/SET element: a literal, a bind-parameter
// placeholder (carried verbatim, e.g. "$1", ":name", "@name"), or the
// DEFAULT keyword.
type ValueExpr struct {
	Literal     *LiteralExpr
	Placeholder string
	IsDefault   bool
}

// Assignment is one `column = value` pair, used by UPDATE's SET list and by
// ON CONFLICT DO UPDATE SET.
type Assignment struct {
	Column string
	Value  ValueExpr
}

type OnConflictClause struct {
	Target    []string
	DoUpdate  []Assignment
	DoNothing bool
}

type InsertClause struct {
	Table       *TableRef
	Columns     []string
	Rows        [][]ValueExpr // nil when Query is set
	Query       SelectOrUnion // nil when Rows is set
	OnConflict  *OnConflictClause
	Returning   ColumnList
}

func (*InsertClause) node() {}

type UpdateClause struct {
	Table     *TableRef
	Set       []Assignment
	From      []TableSource
	Where     *ParsedCondition
	Returning ColumnList
}

func (*UpdateClause) node() {}

type DeleteClause struct {
	Table     *TableRef
	Using     []TableSource
	Where     *ParsedCondition
	Returning ColumnList
}

func (*DeleteClause) node() {}

// DynamicQuery is spec §6's short-circuit marker: returned by Parse when
// the caller explicitly opts a non-statically-known query string out of
// structural parsing.
type DynamicQuery struct{}

func (*DynamicQuery) node() {}
