package parser

import (
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// TestDiffParseAcceptsRealPostgresGrammar feeds a handful of golden queries
// through both our hand-rolled parser and pg_query_go's libpq-backed parser.
// It isn't a semantic equivalence check (the two ASTs have nothing in
// common) — it's a sanity oracle that anything we accept is also accepted
// by a real Postgres parser, so our grammar subset never drifts into
// accepting something that isn't valid SQL.
func TestDiffParseAcceptsRealPostgresGrammar(t *testing.T) {
	queries := []string{
		"SELECT id, name FROM users",
		"SELECT id AS user_id, name AS display FROM users",
		"SELECT u.name, p.title FROM users AS u INNER JOIN posts AS p ON u.id = p.author_id",
		"SELECT COUNT(*) AS total, AVG(views) AS avg_views FROM posts GROUP BY author_id",
		"WITH active AS (SELECT id, name FROM users WHERE is_active = TRUE) SELECT * FROM active",
		"SELECT id::text AS s FROM users WHERE deleted_at IS NULL ORDER BY id DESC",
		"SELECT id FROM users WHERE id IN (SELECT author_id FROM posts)",
		"DELETE FROM users WHERE id = 1",
		"UPDATE users SET name = 'x' WHERE id = 1",
		"INSERT INTO users (id, name) VALUES (1, 'x')",
	}

	for _, q := range queries {
		if _, err := pg_query.ParseToJSON(q); err != nil {
			t.Fatalf("query %q: pg_query_go rejected a query our fixtures assume is valid: %v", q, err)
		}
		if _, err := Parse(q); err != nil {
			t.Fatalf("query %q: our parser rejected a query pg_query_go accepts: %v", q, err)
		}
	}
}

// TestDiffParseRejectsInvalidSQL confirms both parsers agree a clearly
// malformed statement is not valid SQL — this is the oracle's other half,
// guarding against our parser silently accepting garbage.
func TestDiffParseRejectsInvalidSQL(t *testing.T) {
	bad := "SELECT FROM WHERE"
	if _, err := pg_query.ParseToJSON(bad); err == nil {
		t.Fatalf("query %q: expected pg_query_go to reject malformed SQL", bad)
	}
	if _, err := Parse(bad); err == nil {
		t.Fatalf("query %q: expected our parser to reject malformed SQL", bad)
	}
}
