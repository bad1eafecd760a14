package matcher

import (
	"testing"

	"github.com/kalidasa/sqlshape/pkg/sqlshape/hosttype"
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
			{Name: "email", Type: hosttype.String},
			{Name: "role", Type: hosttype.String},
			{Name: "is_active", Type: hosttype.Boolean},
			{Name: "deleted_at", Type: hosttype.String},
		},
	})
	d.AddTable("public", &schema.Table{
		Name: "posts",
		Columns: []schema.Column{
			{Name: "id", Type: hosttype.Number},
			{Name: "author_id", Type: hosttype.Number},
			{Name: "title", Type: hosttype.String},
			{Name: "views", Type: hosttype.Number},
			{Name: "status", Type: hosttype.String},
		},
	})
	return d
}

func TestMatchSimpleColumns(t *testing.T) {
	node, err := parser.ParseSelect("SELECT id, name FROM users")
	if err != nil {
		t.Fatal(err)
	}
	shape, err := Match(node, testSchema())
	if err != nil {
		t.Fatal(err)
	}
	if shape["id"].Type != hosttype.Number || shape["name"].Type != hosttype.String {
		t.Fatalf("got shape=%#v", shape)
	}
	if HasErrors(shape) {
		t.Fatal("expected no errors")
	}
}

func TestMatchAliasedColumns(t *testing.T) {
	node, err := parser.ParseSelect("SELECT id AS user_id, name AS display FROM users")
	if err != nil {
		t.Fatal(err)
	}
	shape, err := Match(node, testSchema())
	if err != nil {
		t.Fatal(err)
	}
	if shape["user_id"].Type != hosttype.Number || shape["display"].Type != hosttype.String {
		t.Fatalf("got shape=%#v", shape)
	}
}

func TestMatchJoin(t *testing.T) {
	node, err := parser.ParseSelect("SELECT u.name, p.title FROM users AS u INNER JOIN posts AS p ON u.id = p.author_id")
	if err != nil {
		t.Fatal(err)
	}
	shape, err := Match(node, testSchema())
	if err != nil {
		t.Fatal(err)
	}
	if shape["name"].Type != hosttype.String || shape["title"].Type != hosttype.String {
		t.Fatalf("got shape=%#v", shape)
	}
}

func TestMatchAggregates(t *testing.T) {
	node, err := parser.ParseSelect("SELECT COUNT(*) AS total, AVG(views) AS avg_views FROM posts")
	if err != nil {
		t.Fatal(err)
	}
	shape, err := Match(node, testSchema())
	if err != nil {
		t.Fatal(err)
	}
	if shape["total"].Type != hosttype.Number || shape["avg_views"].Type != hosttype.Number {
		t.Fatalf("got shape=%#v", shape)
	}
}

func TestMatchCTEWildcard(t *testing.T) {
	node, err := parser.ParseSelect("WITH active AS (SELECT id, name FROM users WHERE is_active = TRUE) SELECT * FROM active")
	if err != nil {
		t.Fatal(err)
	}
	shape, err := Match(node, testSchema())
	if err != nil {
		t.Fatal(err)
	}
	if shape["id"].Type != hosttype.Number || shape["name"].Type != hosttype.String {
		t.Fatalf("got shape=%#v", shape)
	}
}

func TestMatchCastOverridesType(t *testing.T) {
	node, err := parser.ParseSelect("SELECT id::text AS s FROM users")
	if err != nil {
		t.Fatal(err)
	}
	shape, err := Match(node, testSchema())
	if err != nil {
		t.Fatal(err)
	}
	if shape["s"].Type != hosttype.String {
		t.Fatalf("got shape=%#v", shape)
	}
}

func TestMatchUnresolvableFromTableIsFatal(t *testing.T) {
	node, err := parser.ParseSelect("SELECT id FROM ghosts")
	if err != nil {
		t.Fatal(err)
	}
	_, err = Match(node, testSchema())
	if err == nil {
		t.Fatal("expected fatal error for unresolvable FROM table")
	}
}

func TestMatchUnknownColumnEmbedsMarker(t *testing.T) {
	node, err := parser.ParseSelect("SELECT id, ghost_column FROM users")
	if err != nil {
		t.Fatal(err)
	}
	shape, err := Match(node, testSchema())
	if err != nil {
		t.Fatal(err)
	}
	if shape["id"].Err != "" {
		t.Fatalf("expected id to resolve cleanly, got %#v", shape["id"])
	}
	if shape["ghost_column"].Err != "Column 'ghost_column' not found in any table" {
		t.Fatalf("got %#v", shape["ghost_column"])
	}
	if !HasErrors(shape) {
		t.Fatal("expected HasErrors to report the embedded marker")
	}
}

func TestMatchSumOnNonNumericEmbedsCapabilityMarker(t *testing.T) {
	node, err := parser.ParseSelect("SELECT SUM(title) AS bad FROM posts")
	if err != nil {
		t.Fatal(err)
	}
	shape, err := Match(node, testSchema())
	if err != nil {
		t.Fatal(err)
	}
	if shape["bad"].Err != "SUM/AVG requires numeric column" {
		t.Fatalf("got %#v", shape["bad"])
	}
}

func TestMatchUnionUsesLeftShape(t *testing.T) {
	node, err := parser.ParseSelect("SELECT id, name FROM users UNION SELECT id, title FROM posts")
	if err != nil {
		t.Fatal(err)
	}
	shape, err := Match(node, testSchema())
	if err != nil {
		t.Fatal(err)
	}
	if shape["id"].Type != hosttype.Number || shape["name"].Type != hosttype.String {
		t.Fatalf("got shape=%#v", shape)
	}
	if _, ok := shape["title"]; ok {
		t.Fatal("expected union shape to come from left SELECT only")
	}
}
