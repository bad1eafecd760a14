package schema

import (
	"bytes"
	"testing"

	"github.com/kalidasa/sqlshape/pkg/sqlshape/hosttype"
)

func sample() *DatabaseSchema {
	d := New("public")
	d.AddTable("public", &Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", Type: hosttype.Number},
			{Name: "name", Type: hosttype.String},
		},
		PrimaryKey: []string{"id"},
	})
	return d
}

func TestTableColumnLookup(t *testing.T) {
	d := sample()
	s, ok := d.Schema("public")
	if !ok {
		t.Fatal("expected public schema")
	}
	tbl, ok := s.Table("users")
	if !ok {
		t.Fatal("expected users table")
	}
	col, ok := tbl.Column("name")
	if !ok || col.Type != hosttype.String {
		t.Fatalf("got col=%#v ok=%v", col, ok)
	}
	if _, ok := tbl.Column("missing"); ok {
		t.Fatal("expected missing column to not be found")
	}
}

func TestExportAndLoadJSONRoundTrip(t *testing.T) {
	d := sample()
	var buf bytes.Buffer
	if err := ExportJSON(&buf, d); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadFromJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.DefaultSchema != "public" {
		t.Fatalf("got default schema %q", loaded.DefaultSchema)
	}
	tbl, ok := loaded.Schemas["public"].Table("users")
	if !ok || len(tbl.Columns) != 2 || tbl.PrimaryKey[0] != "id" {
		t.Fatalf("got tbl=%#v ok=%v", tbl, ok)
	}
}

func TestIDIsDeterministicAcrossMapOrder(t *testing.T) {
	a := New("public")
	a.AddTable("public", &Table{Name: "t1", Columns: []Column{{Name: "a", Type: hosttype.Number}}})
	a.AddTable("public", &Table{Name: "t2", Columns: []Column{{Name: "b", Type: hosttype.String}}})

	b := New("public")
	b.AddTable("public", &Table{Name: "t2", Columns: []Column{{Name: "b", Type: hosttype.String}}})
	b.AddTable("public", &Table{Name: "t1", Columns: []Column{{Name: "a", Type: hosttype.Number}}})

	if a.ID() != b.ID() {
		t.Fatalf("expected matching IDs regardless of insertion order, got %s vs %s", a.ID(), b.ID())
	}
}

func TestIDChangesWithContent(t *testing.T) {
	a := sample()
	b := sample()
	b.AddTable("public", &Table{Name: "posts", Columns: []Column{{Name: "id", Type: hosttype.Number}}})
	if a.ID() == b.ID() {
		t.Fatal("expected differing content to produce differing IDs")
	}
}
