// Package errors holds the three error kinds spec §7 distinguishes —
// parse, resolution, and capability errors — plus the fixed message
// templates spec §6 requires implementations reproduce verbatim.
package errors

import "fmt"

// ParseError wraps a syntactic error. Fatal to the whole operation: callers
// never see a partial AST alongside a ParseError.
type ParseError struct {
	msg string
}

func (e *ParseError) Error() string { return e.msg }

// NewParse builds a ParseError with a formatted message.
func NewParse(format string, args ...any) *ParseError {
	return &ParseError{msg: fmt.Sprintf(format, args...)}
}

// ResolutionError wraps a named table/alias/schema/column lookup failure.
// The matcher embeds these inline in its row shape; the validator returns
// the first one it hits.
type ResolutionError struct {
	msg string
}

func (e *ResolutionError) Error() string { return e.msg }

func NewResolution(msg string) *ResolutionError {
	return &ResolutionError{msg: msg}
}

// CapabilityError wraps a structurally-valid reference used in a way the
// system can't type (e.g. SUM over a non-numeric column). Same
// inline-marker propagation policy as ResolutionError (spec §7).
type CapabilityError struct {
	msg string
}

func (e *CapabilityError) Error() string { return e.msg }

func NewCapability(msg string) *CapabilityError {
	return &CapabilityError{msg: msg}
}

// --- Fixed message templates (spec §6) ---
//
// These builders exist so every call site reproduces the exact wording the
// spec's tests compare against, instead of re-typing format strings.

func TableNotFoundInDefaultSchema(table, schema string) string {
	return fmt.Sprintf("Table '%s' not found in default schema '%s'", table, schema)
}

func TableNotFoundInSchema(table, schema string) string {
	return fmt.Sprintf("Table '%s' not found in schema '%s'", table, schema)
}

func SchemaNotFound(schema string) string {
	return fmt.Sprintf("Schema '%s' not found", schema)
}

func TableOrAliasNotFound(alias string) string {
	return fmt.Sprintf("Table or alias '%s' not found", alias)
}

func ColumnNotFoundInAlias(column, alias string) string {
	return fmt.Sprintf("Column '%s' not found in '%s'", column, alias)
}

func ColumnNotFoundInSchemaTable(column, schema, table string) string {
	return fmt.Sprintf("Column '%s' not found in '%s.%s'", column, schema, table)
}

func ColumnNotFoundAnywhere(column string) string {
	return fmt.Sprintf("Column '%s' not found in any table", column)
}

const (
	SumAvgRequiresNumeric = "SUM/AVG requires numeric column"
	DerivedTableRequiresAlias = "Derived table requires an alias"
	InvalidQueryType      = "Invalid query type"
	InvalidSelectClause   = "Invalid SELECT clause"
	EmptyQuery            = "Empty query"
)

func ExpectedSelectOrWith(tok string) string {
	return fmt.Sprintf("Expected SELECT or WITH, got: %s", tok)
}

func ValueCountMismatch(n, m int) string {
	return fmt.Sprintf("Value count (%d) does not match column count (%d)", n, m)
}
