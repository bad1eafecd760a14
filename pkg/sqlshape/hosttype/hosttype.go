// Package hosttype defines the handful of host-type tags this system
// manufactures itself: the SQL→host-type map used for `::type` casts
// (spec §4.2), the literal-type mapping, and the Unknown sentinel callers
// treat as "any/opaque" (spec §3, §6). Schema catalog columns carry a Tag
// as well (schema.Column.Type), either as the caller wrote it or as the
// live loader mapped it from the database type name.
package hosttype

// Tag is a host type. It is the type of every schema column
// (schema.Column.Type) and of casts, literals, and the fixed
// SQL-constant/aggregate outputs spec §4.4 defines; resolution passes a
// column's Tag through and compares it directly where a rule needs to (e.g.
// SUM/AVG checking for Number).
type Tag string

const (
	String     Tag = "string"
	Number     Tag = "number"
	Boolean    Tag = "boolean"
	Object     Tag = "object"
	ByteBuffer Tag = "byte-buffer"
	Unknown    Tag = "unknown"
)

// castTargets is spec §4.2's SQL type → host type table. Precision suffixes
// like "(255)" are stripped by the caller (see StripPrecision) before
// lookup; lookups are case-insensitive.
var castTargets = map[string]Tag{
	"text": String, "varchar": String, "char": String,
	"character varying": String, "character": String,

	"int": Number, "integer": Number, "int4": Number, "int8": Number,
	"bigint": Number, "smallint": Number, "serial": Number, "bigserial": Number,

	"float": Number, "float4": Number, "float8": Number, "real": Number,
	"double precision": Number, "numeric": Number, "decimal": Number,

	"bool": Boolean, "boolean": Boolean,

	"json": Object, "jsonb": Object,

	"date": String, "timestamp": String, "timestamptz": String,
	"time": String, "timetz": String,

	"uuid": String,

	"bytea": ByteBuffer,
}

// FromCast maps a `::type` target (as written by the user, e.g. "varchar",
// "varchar(255)", "TIMESTAMPTZ") to its host type, returning Unknown for
// anything not in spec §4.2's table.
func FromCast(sqlType string) Tag {
	normalized := StripPrecision(lower(sqlType))
	if tag, ok := castTargets[normalized]; ok {
		return tag
	}
	return Unknown
}

// StripPrecision drops a trailing "(N)" or "(N,M)" precision/scale suffix,
// so "varchar(255)" maps the same as "varchar" (spec §4.2).
func StripPrecision(sqlType string) string {
	i := indexByte(sqlType, '(')
	if i < 0 {
		return sqlType
	}
	return trimRight(sqlType[:i])
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

func trimRight(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	return s[:end]
}

// LiteralType classifies a parsed LiteralExpr's Go value into a Tag.
func LiteralType(value any) Tag {
	switch value.(type) {
	case string:
		return String
	case float64, int64, int:
		return Number
	case bool:
		return Boolean
	case nil:
		return Unknown
	default:
		return Unknown
	}
}

// sqlConstantTypes is spec §4.4's fixed map for SQLConstantExpr results —
// every recognized constant resolves to the string host type.
var sqlConstantTypes = map[string]Tag{
	"CURRENT_DATE": String, "CURRENT_TIMESTAMP": String, "CURRENT_TIME": String,
	"LOCALTIME": String, "LOCALTIMESTAMP": String,
	"CURRENT_USER": String, "SESSION_USER": String, "CURRENT_SCHEMA": String,
	"CURRENT_CATALOG": String, "CURRENT_ROLE": String,
}

// SQLConstantType returns the fixed host type for a SQLConstantExpr name.
func SQLConstantType(name string) Tag {
	if tag, ok := sqlConstantTypes[name]; ok {
		return tag
	}
	return Unknown
}
