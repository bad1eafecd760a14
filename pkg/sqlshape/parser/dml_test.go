package parser

import (
	"testing"

	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
)

func TestParseInsertValues(t *testing.T) {
	node, err := Parse("INSERT INTO users (id, name) VALUES (1, 'alice'), (2, 'bob') RETURNING id")
	if err != nil {
		t.Fatal(err)
	}
	ins, ok := node.(*ast.InsertClause)
	if !ok {
		t.Fatalf("expected *ast.InsertClause, got %#v", node)
	}
	if ins.Table.Table != "users" || len(ins.Columns) != 2 {
		t.Fatalf("got table=%#v columns=%v", ins.Table, ins.Columns)
	}
	if len(ins.Rows) != 2 || len(ins.Rows[0]) != 2 {
		t.Fatalf("got rows=%#v", ins.Rows)
	}
	if len(ins.Returning.Items) != 1 {
		t.Fatalf("expected RETURNING id, got %#v", ins.Returning)
	}
}

func TestParseInsertFromSelect(t *testing.T) {
	node, err := Parse("INSERT INTO active_users (id) SELECT id FROM users WHERE active = true")
	if err != nil {
		t.Fatal(err)
	}
	ins := node.(*ast.InsertClause)
	if ins.Query == nil || ins.Rows != nil {
		t.Fatalf("expected Query set and Rows nil, got %#v", ins)
	}
}

func TestParseInsertOnConflictDoUpdate(t *testing.T) {
	node, err := Parse("INSERT INTO users (id, name) VALUES (1, 'alice') ON CONFLICT (id) DO UPDATE SET name = 'alice2'")
	if err != nil {
		t.Fatal(err)
	}
	ins := node.(*ast.InsertClause)
	if ins.OnConflict == nil || len(ins.OnConflict.Target) != 1 || ins.OnConflict.Target[0] != "id" {
		t.Fatalf("got onconflict=%#v", ins.OnConflict)
	}
	if len(ins.OnConflict.DoUpdate) != 1 || ins.OnConflict.DoUpdate[0].Column != "name" {
		t.Fatalf("got doupdate=%#v", ins.OnConflict.DoUpdate)
	}
}

func TestParseInsertOnConflictDoNothing(t *testing.T) {
	node, err := Parse("INSERT INTO users (id) VALUES (1) ON CONFLICT (id) DO NOTHING")
	if err != nil {
		t.Fatal(err)
	}
	ins := node.(*ast.InsertClause)
	if ins.OnConflict == nil || !ins.OnConflict.DoNothing {
		t.Fatalf("got onconflict=%#v", ins.OnConflict)
	}
}

func TestParseUpdateBasic(t *testing.T) {
	node, err := Parse("UPDATE users SET name = 'alice', active = false WHERE id = 1 RETURNING id, name")
	if err != nil {
		t.Fatal(err)
	}
	upd, ok := node.(*ast.UpdateClause)
	if !ok {
		t.Fatalf("expected *ast.UpdateClause, got %#v", node)
	}
	if len(upd.Set) != 2 {
		t.Fatalf("got set=%#v", upd.Set)
	}
	if upd.Where == nil {
		t.Fatal("expected where clause")
	}
	if len(upd.Returning.Items) != 2 {
		t.Fatalf("got returning=%#v", upd.Returning)
	}
}

func TestParseUpdateWithOldNewReturning(t *testing.T) {
	node, err := Parse("UPDATE users SET name = 'alice' WHERE id = 1 RETURNING OLD.name AS old_name, NEW.name AS new_name")
	if err != nil {
		t.Fatal(err)
	}
	upd := node.(*ast.UpdateClause)
	first, ok := upd.Returning.Items[0].Expr.(*ast.TableColumnRef)
	if !ok || first.Table != "OLD" || first.Column != "name" {
		t.Fatalf("got %#v", upd.Returning.Items[0].Expr)
	}
}

func TestParseUpdateFrom(t *testing.T) {
	node, err := Parse("UPDATE orders SET status = 'shipped' FROM shipments WHERE orders.id = shipments.order_id")
	if err != nil {
		t.Fatal(err)
	}
	upd := node.(*ast.UpdateClause)
	if len(upd.From) != 1 {
		t.Fatalf("got from=%#v", upd.From)
	}
}

func TestParseDeleteBasic(t *testing.T) {
	node, err := Parse("DELETE FROM users WHERE active = false")
	if err != nil {
		t.Fatal(err)
	}
	del, ok := node.(*ast.DeleteClause)
	if !ok {
		t.Fatalf("expected *ast.DeleteClause, got %#v", node)
	}
	if del.Table.Table != "users" || del.Where == nil {
		t.Fatalf("got %#v", del)
	}
}

func TestParseDeleteUsing(t *testing.T) {
	node, err := Parse("DELETE FROM orders USING customers WHERE orders.customer_id = customers.id AND customers.banned = true")
	if err != nil {
		t.Fatal(err)
	}
	del := node.(*ast.DeleteClause)
	if len(del.Using) != 1 {
		t.Fatalf("got using=%#v", del.Using)
	}
}

func TestParseInvalidQueryType(t *testing.T) {
	_, err := Parse("DROP TABLE users")
	if err == nil {
		t.Fatal("expected invalid-query-type error")
	}
	if got := err.Error(); got != "Invalid query type" {
		t.Fatalf("got error message %q", got)
	}
}

func TestParseDispatchesSelect(t *testing.T) {
	node, err := Parse("SELECT id FROM users")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := node.(*ast.SelectClause); !ok {
		t.Fatalf("expected *ast.SelectClause, got %#v", node)
	}
}
