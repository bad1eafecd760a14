// Package schema holds the catalog model the resolution stages match a
// parsed query against (spec §3/§6): schemas containing tables, tables
// containing typed columns, with one schema designated default for
// unqualified table references.
//
// Grounded on the teacher's pg_lineage.DBSchemaCatalog (catalog.go):
// the same "schema.table -> ordered columns" shape, generalized to carry a
// hosttype.Tag per column (richcatalog.go's column-type tracking) instead of
// bare names, and to expose multiple named schemas rather than a single
// flat map.
package schema

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/hosttype"
)

// Column is one typed column in a Table.
type Column struct {
	Name string       `json:"name"`
	Type hosttype.Tag `json:"type"`
	Raw  string       `json:"raw_type,omitempty"` // original DB type name, kept for diagnostics
}

// Table is an ordered set of columns plus, when known, its primary key.
type Table struct {
	Name       string   `json:"name"`
	Columns    []Column `json:"columns"`
	PrimaryKey []string `json:"primary_key,omitempty"`
}

// Column looks up a column by exact, case-sensitive name. No case folding
// is applied: quoted identifiers preserve case and unquoted ones arrive as
// written, per spec §4.1's documented simplification.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Schema is a named collection of tables (a PostgreSQL schema, e.g. "public").
type Schema struct {
	Name   string            `json:"name"`
	Tables map[string]*Table `json:"tables"`
}

// Table looks up a table by exact name within this schema.
func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.Tables[name]
	return t, ok
}

// DatabaseSchema is the full catalog a query is matched/validated against.
// DefaultSchema names the schema searched when a table reference carries no
// explicit schema qualifier (spec §6 — typically "public").
type DatabaseSchema struct {
	DefaultSchema string             `json:"default_schema"`
	Schemas       map[string]*Schema `json:"schemas"`
}

// New builds an empty catalog with the given default schema already present.
func New(defaultSchema string) *DatabaseSchema {
	d := &DatabaseSchema{
		DefaultSchema: defaultSchema,
		Schemas:       map[string]*Schema{},
	}
	d.schema(defaultSchema)
	return d
}

func (d *DatabaseSchema) schema(name string) *Schema {
	s, ok := d.Schemas[name]
	if !ok {
		s = &Schema{Name: name, Tables: map[string]*Table{}}
		d.Schemas[name] = s
	}
	return s
}

// AddTable registers t under schemaName, creating the schema if needed.
func (d *DatabaseSchema) AddTable(schemaName string, t *Table) {
	d.schema(schemaName).Tables[t.Name] = t
}

// Schema looks up a named schema.
func (d *DatabaseSchema) Schema(name string) (*Schema, bool) {
	s, ok := d.Schemas[name]
	return s, ok
}

// ID returns a content-derived identity for this catalog: the same schema
// contents always produce the same UUID, so a caller can key cached
// resolution work by catalog identity without maintaining its own version
// stamp. Nothing in this module caches by it; the live loader logs it.
func (d *DatabaseSchema) ID() uuid.UUID {
	b, _ := json.Marshal(d.canonical())
	return uuid.NewSHA1(uuid.NameSpaceOID, b)
}

// canonical produces a deterministically ordered view of the catalog so ID
// doesn't depend on Go's randomized map iteration order.
func (d *DatabaseSchema) canonical() any {
	type col struct {
		Name string       `json:"name"`
		Type hosttype.Tag `json:"type"`
	}
	type tbl struct {
		Name    string `json:"name"`
		Columns []col  `json:"columns"`
	}
	type sch struct {
		Name   string `json:"name"`
		Tables []tbl  `json:"tables"`
	}
	schemaNames := make([]string, 0, len(d.Schemas))
	for n := range d.Schemas {
		schemaNames = append(schemaNames, n)
	}
	sort.Strings(schemaNames)

	schemas := make([]sch, 0, len(schemaNames))
	for _, sn := range schemaNames {
		s := d.Schemas[sn]
		tableNames := make([]string, 0, len(s.Tables))
		for n := range s.Tables {
			tableNames = append(tableNames, n)
		}
		sort.Strings(tableNames)
		tables := make([]tbl, 0, len(tableNames))
		for _, tn := range tableNames {
			t := s.Tables[tn]
			cols := make([]col, 0, len(t.Columns))
			for _, c := range t.Columns {
				cols = append(cols, col{Name: c.Name, Type: c.Type})
			}
			tables = append(tables, tbl{Name: tn, Columns: cols})
		}
		schemas = append(schemas, sch{Name: sn, Tables: tables})
	}
	return struct {
		DefaultSchema string `json:"default_schema"`
		Schemas       []sch  `json:"schemas"`
	}{DefaultSchema: d.DefaultSchema, Schemas: schemas}
}

// ExportJSON writes the catalog to w, mirroring the shape LoadFromJSON reads
// back (spec §6's "host schema is just JSON" contract).
func ExportJSON(w io.Writer, d *DatabaseSchema) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// LoadFromJSON reads a catalog previously written by ExportJSON.
func LoadFromJSON(r io.Reader) (*DatabaseSchema, error) {
	var d DatabaseSchema
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, err
	}
	if d.Schemas == nil {
		d.Schemas = map[string]*Schema{}
	}
	return &d, nil
}
