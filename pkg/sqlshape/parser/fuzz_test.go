package parser

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	faker "github.com/go-faker/faker/v4"

	"github.com/kalidasa/sqlshape/pkg/sqlshape/ast"
)

// fakeWord wraps a single faker-tagged field so FakeData has a struct to
// populate; go-faker generates values by walking struct tags, not by
// exposing bare top-level word generators.
type fakeWord struct {
	Word string `faker:"word"`
}

// randIdent fabricates a schema-safe identifier: a faker-generated word,
// stripped to letters, with a numbered suffix so repeated calls in the same
// query never collide on a degenerate (empty or duplicate) word.
func randIdent(t *testing.T, prefix string, n int) string {
	t.Helper()
	var w fakeWord
	if err := faker.FakeData(&w); err != nil {
		t.Fatalf("faker.FakeData: %v", err)
	}
	letters := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		default:
			return -1
		}
	}, w.Word)
	return fmt.Sprintf("%s_%s_%d", prefix, strings.ToLower(letters), n)
}

// TestFuzzParseIsDeterministic generates a batch of random but well-formed
// SELECT queries over faker-sourced table/column names and checks spec §8's
// testable property 2: parsing the same query string twice yields identical
// ASTs.
func TestFuzzParseIsDeterministic(t *testing.T) {
	for i := 0; i < 25; i++ {
		table := randIdent(t, "t", i)
		col1 := randIdent(t, "c", i*3)
		col2 := randIdent(t, "c", i*3+1)
		q := fmt.Sprintf("SELECT %s, %s AS renamed FROM %s", col1, col2, table)

		first, err := ParseSelect(q)
		if err != nil {
			t.Fatalf("query %q: %v", q, err)
		}
		second, err := ParseSelect(q)
		if err != nil {
			t.Fatalf("query %q: %v", q, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("query %q: parse is not deterministic:\n%#v\nvs\n%#v", q, first, second)
		}
	}
}

// TestFuzzEveryColumnGetsAnAlias checks spec §8's testable property 3: every
// SelectItem in a parsed query carries a non-empty alias, including plain
// unaliased column references, across a batch of randomly-named queries.
func TestFuzzEveryColumnGetsAnAlias(t *testing.T) {
	for i := 0; i < 25; i++ {
		table := randIdent(t, "t", 100+i)
		col := randIdent(t, "c", 200+i)
		q := fmt.Sprintf("SELECT %s FROM %s", col, table)

		node, err := ParseSelect(q)
		if err != nil {
			t.Fatalf("query %q: %v", q, err)
		}
		sel, ok := node.(*ast.SelectClause)
		if !ok {
			t.Fatalf("query %q: expected *ast.SelectClause, got %#v", q, node)
		}
		for _, item := range sel.Columns.Items {
			if item.Alias == "" {
				t.Fatalf("query %q: item %#v has empty alias", q, item)
			}
		}
	}
}

// TestFuzzComplexExprColumnRefsCoverSourceIdentifiers generates arithmetic
// expressions over random identifiers and confirms the recognizer's
// best-effort column-ref scan finds every identifier the expression
// actually references — the ComplexExpr fallback spec §4.2/§9 describes.
func TestFuzzComplexExprColumnRefsCoverSourceIdentifiers(t *testing.T) {
	for i := 0; i < 15; i++ {
		table := randIdent(t, "t", 300+i)
		a := randIdent(t, "a", 400+i)
		b := randIdent(t, "b", 500+i)
		q := fmt.Sprintf("SELECT %s + %s AS total FROM %s", a, b, table)

		node, err := ParseSelect(q)
		if err != nil {
			t.Fatalf("query %q: %v", q, err)
		}
		sel := node.(*ast.SelectClause)
		ce, ok := sel.Columns.Items[0].Expr.(*ast.ComplexExpr)
		if !ok {
			t.Fatalf("query %q: expected *ast.ComplexExpr, got %#v", q, sel.Columns.Items[0].Expr)
		}
		found := map[string]bool{}
		for _, ref := range ce.ColumnRefs {
			if u, ok := ref.(*ast.UnboundColumnRef); ok {
				found[u.Name] = true
			}
		}
		if !found[a] || !found[b] {
			t.Fatalf("query %q: expected column refs to cover %q and %q, got %#v", q, a, b, ce.ColumnRefs)
		}
	}
}

// TestFuzzWhitespaceInsensitivity confirms spec §8's whitespace-insensitivity
// property over randomly-named queries: collapsing or expanding run of
// spaces around tokens doesn't change the parsed shape.
func TestFuzzWhitespaceInsensitivity(t *testing.T) {
	for i := 0; i < 15; i++ {
		table := randIdent(t, "t", 600+i)
		col := randIdent(t, "c", 700+i)

		tight := fmt.Sprintf("SELECT %s FROM %s", col, table)
		loose := fmt.Sprintf("SELECT    %s   FROM    %s   ", col, table)

		tightNode, err := ParseSelect(tight)
		if err != nil {
			t.Fatalf("query %q: %v", tight, err)
		}
		looseNode, err := ParseSelect(loose)
		if err != nil {
			t.Fatalf("query %q: %v", loose, err)
		}
		if !reflect.DeepEqual(tightNode, looseNode) {
			t.Fatalf("whitespace changed parse result:\n%#v\nvs\n%#v", tightNode, looseNode)
		}
	}
}
