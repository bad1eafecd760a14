package validator

import (
	"testing"

	"github.com/kalidasa/sqlshape/pkg/sqlshape/hosttype"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/matcher"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/parser"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/schema"
)

func testSchema() *schema.DatabaseSchema {
	d := schema.New("public")
	d.AddTable("public", &schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: hosttype.Number},
			{Name: "name", Type: hosttype.String},
			{Name: "is_active", Type: hosttype.Boolean},
		},
	})
	d.AddTable("public", &schema.Table{
		Name: "posts",
		Columns: []schema.Column{
			{Name: "id", Type: hosttype.Number},
			{Name: "author_id", Type: hosttype.Number},
			{Name: "title", Type: hosttype.String},
			{Name: "views", Type: hosttype.Number},
		},
	})
	return d
}

func TestValidateSuccess(t *testing.T) {
	node, err := parser.ParseSelect("SELECT id, name FROM users WHERE is_active = TRUE")
	if err != nil {
		t.Fatal(err)
	}
	ok, msg := Validate(node, testSchema())
	if !ok {
		t.Fatalf("expected success, got %q", msg)
	}
}

func TestValidateUnknownTableFails(t *testing.T) {
	node, err := parser.ParseSelect("SELECT id FROM ghosts")
	if err != nil {
		t.Fatal(err)
	}
	ok, msg := Validate(node, testSchema())
	if ok {
		t.Fatal("expected failure")
	}
	if msg != "Table 'ghosts' not found in default schema 'public'" {
		t.Fatalf("got %q", msg)
	}
}

func TestValidateUnknownSelectColumnFails(t *testing.T) {
	node, err := parser.ParseSelect("SELECT ghost_col FROM users")
	if err != nil {
		t.Fatal(err)
	}
	ok, msg := Validate(node, testSchema())
	if ok || msg != "Column 'ghost_col' not found in any table" {
		t.Fatalf("got ok=%v msg=%q", ok, msg)
	}
}

func TestValidateDefaultChecksWhereClause(t *testing.T) {
	node, err := parser.ParseSelect("SELECT id FROM users WHERE ghost_col = 1")
	if err != nil {
		t.Fatal(err)
	}
	ok, msg := Validate(node, testSchema())
	if ok || msg != "Column 'ghost_col' not found in any table" {
		t.Fatalf("got ok=%v msg=%q", ok, msg)
	}
}

func TestValidateAllFieldsFalseSkipsWhereClause(t *testing.T) {
	node, err := parser.ParseSelect("SELECT id FROM users WHERE ghost_col = 1")
	if err != nil {
		t.Fatal(err)
	}
	ok, msg := Validate(node, testSchema(), Options{ValidateAllFields: false})
	if !ok {
		t.Fatalf("expected success with ValidateAllFields=false, got %q", msg)
	}
}

func TestValidateChecksOrderByColumn(t *testing.T) {
	node, err := parser.ParseSelect(
		"SELECT p.author_id, COUNT(*) AS total FROM posts AS p GROUP BY p.author_id ORDER BY p.ghost_col")
	if err != nil {
		t.Fatal(err)
	}
	ok, msg := Validate(node, testSchema())
	if ok || msg != "Column 'ghost_col' not found in 'p'" {
		t.Fatalf("got ok=%v msg=%q", ok, msg)
	}
}

func TestValidateSumOnNonNumericFails(t *testing.T) {
	node, err := parser.ParseSelect("SELECT SUM(title) AS bad FROM posts")
	if err != nil {
		t.Fatal(err)
	}
	ok, msg := Validate(node, testSchema())
	if ok || msg != "SUM/AVG requires numeric column" {
		t.Fatalf("got ok=%v msg=%q", ok, msg)
	}
}

// TestValidateAgreesWithMatcher exercises spec §8 testable property 1:
// validate(Q, S) == true iff match(Q, S) has no embedded error markers.
func TestValidateAgreesWithMatcher(t *testing.T) {
	queries := []string{
		"SELECT id, name FROM users",
		"SELECT ghost_col FROM users",
		"SELECT SUM(title) AS bad FROM posts",
	}
	db := testSchema()
	for _, q := range queries {
		node, err := parser.ParseSelect(q)
		if err != nil {
			t.Fatalf("parse %q: %v", q, err)
		}
		ok, _ := Validate(node, db)
		shape, err := matcher.Match(node, db)
		if err != nil {
			t.Fatalf("match %q: %v", q, err)
		}
		if ok == matcher.HasErrors(shape) {
			t.Fatalf("query %q: validate ok=%v but matcher hasErrors=%v", q, ok, matcher.HasErrors(shape))
		}
	}
}
