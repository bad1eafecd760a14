// Package sqlshape is the thin public glue spec §6 describes: three entry
// points — Parse, Match, Validate — plus the DynamicQuery opt-out
// constructor and a structured-logging option, wired over the
// token/ast/expr/parser/resolvec/matcher/validator pipeline packages.
//
// Grounded on spec §6's external-interface list; the logging option follows
// the teacher's pattern of an always-safe no-op default logger
// (zap.NewNop()) with an explicit opt-in for a real one.
package sqlshape

import (
	"time"

	"go.uber.org/zap"

	"github.com/kalidasa/sqlshape/internal/logutil"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
	sqlerrors "github.com/kalidasa/sqlshape/pkg/sqlshape/errors"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/matcher"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/parser"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/resolvec"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/schema"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/validator"
)

// RowShape and Field re-export the matcher package's result types so
// callers of this façade don't need to import pkg/sqlshape/matcher
// themselves for the common case.
type RowShape = matcher.RowShape
type Field = matcher.Field

// ValidateOptions re-exports the validator package's options record.
type ValidateOptions = validator.Options

// Option configures a Match/Validate call (spec §6 "ADDED" logging option).
type Option func(*callOptions)

type callOptions struct {
	logger *zap.Logger
}

// WithLogger attaches a zap.Logger that receives one structured entry per
// Match/Validate call (query length, elapsed time, outcome), via the
// teacher's logutil.Values field-grouping helper. Omitted, logging is a
// no-op.
func WithLogger(logger *zap.Logger) Option {
	return func(o *callOptions) { o.logger = logger }
}

func resolveOptions(opts []Option) *callOptions {
	o := &callOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Parse parses queryString into an AST (spec §6: "parse(queryString) ->
// AST | ParseError"). It accepts SELECT, WITH, INSERT, UPDATE, and DELETE
// statements; anything else is a ParseError.
func Parse(queryString string) (ast.Node, error) {
	return parser.Parse(queryString)
}

// ParseSelectOnly parses queryString, requiring a SELECT or WITH statement
// (the entry point the matcher/validator pipeline below actually consumes,
// since spec §4.4's context/row-shape rules are defined over SELECT).
func ParseSelectOnly(queryString string) (ast.SelectOrUnion, error) {
	return parser.ParseSelect(queryString)
}

// ParseDynamic is spec §6's explicit opt-in constructor for callers that
// build SQL at runtime and knowingly forgo static validation.
func ParseDynamic() ast.Node {
	return &ast.DynamicQuery{}
}

// MatchDynamic is the dynamic-query counterpart to Match (spec §6): for a
// query string not known statically, match returns an open-ended record
// instead of attempting to resolve one. Always succeeds.
func MatchDynamic() RowShape {
	return RowShape{}
}

// ValidateDynamic is the dynamic-query counterpart to Validate (spec §6):
// a query the caller has explicitly opted out of static validation for
// always validates successfully.
func ValidateDynamic() (bool, string) {
	return true, ""
}

// Match parses queryString and builds its row shape against db (spec §6:
// "match(queryString, schema) -> RowShape | ErrorAnnotatedShape"). A parse
// failure or an unresolvable FROM/JOIN table is returned as a top-level
// error; resolution/capability failures on individual columns are embedded
// as inline markers in the shape instead. Callers that built their query
// via ParseDynamic should call MatchDynamic instead of this function.
func Match(queryString string, db *schema.DatabaseSchema, opts ...Option) (RowShape, error) {
	o := resolveOptions(opts)
	start := time.Now()

	query, err := parser.ParseSelect(queryString)
	if err != nil {
		logOutcome(o.logger, "match", queryString, start, err)
		return nil, err
	}

	shape, err := matcher.Match(query, db)
	logOutcome(o.logger, "match", queryString, start, err)
	return shape, err
}

// Validate parses queryString and checks it against db, returning the
// first error message or success (spec §6: "validate(queryString, schema,
// options?) -> true | errorMessage").
func Validate(queryString string, db *schema.DatabaseSchema, opts ...Option) (bool, string) {
	return ValidateWithOptions(queryString, db, ValidateOptions{ValidateAllFields: true}, opts...)
}

// ValidateWithOptions is Validate with an explicit validator.Options,
// letting a caller narrow the check to the SELECT list and FROM/JOIN
// tables only (spec §4.4's ValidateAllFields: false).
func ValidateWithOptions(queryString string, db *schema.DatabaseSchema, vopts ValidateOptions, opts ...Option) (bool, string) {
	o := resolveOptions(opts)
	start := time.Now()

	query, err := parser.ParseSelect(queryString)
	if err != nil {
		logOutcome(o.logger, "validate", queryString, start, err)
		return false, err.Error()
	}

	ok, msg := validator.Validate(query, db, vopts)
	var logErr error
	if !ok {
		logErr = sqlerrors.NewResolution(msg)
	}
	logOutcome(o.logger, "validate", queryString, start, logErr)
	return ok, msg
}

// Context exposes the resolvec context builder for callers that want the
// alias->columns scope without a full match/validate pass (e.g. tooling
// that offers column autocompletion against a known schema).
func Context(queryString string, db *schema.DatabaseSchema) (*resolvec.Context, error) {
	query, err := parser.ParseSelect(queryString)
	if err != nil {
		return nil, err
	}
	return resolvec.Build(resolvec.LeftmostSelect(query), db, nil)
}

func logOutcome(logger *zap.Logger, op, query string, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("query_length", len(query)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		fields = append(fields, zap.String("outcome", "error"), zap.Error(err))
		logger.Info("sqlshape call", logutil.Values(fields...))
		return
	}
	fields = append(fields, zap.String("outcome", "ok"))
	logger.Info("sqlshape call", logutil.Values(fields...))
}
