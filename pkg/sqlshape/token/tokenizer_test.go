package token

import "testing"

func mustTokenize(t *testing.T, q string) []Token {
	t.Helper()
	toks, err := Tokenize(q)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", q, err)
	}
	return toks
}

func texts(toks []Token) []string {
	out := make([]string, len(toks))
	for i, tk := range toks {
		out[i] = tk.Text
	}
	return out
}

func TestTokenizeBasicSelect(t *testing.T) {
	toks := mustTokenize(t, "SELECT id, name FROM users")
	got := texts(toks)
	want := []string{"SELECT", "id", ",", "name", "FROM", "users"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %q want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestTokenizeStripsComments(t *testing.T) {
	toks := mustTokenize(t, "SELECT id -- trailing comment\nFROM /* block\ncomment */ users")
	got := texts(toks)
	want := []string{"SELECT", "id", "FROM", "users"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestTokenizePreservesQuotedIdentifierCasing(t *testing.T) {
	toks := mustTokenize(t, `SELECT "Weird Col" FROM "MyTable"`)
	if len(toks) != 5 {
		t.Fatalf("expected 5 tokens (the quoted ident with an embedded space splits in two per the documented limitation), got %v", texts(toks))
	}
	if toks[4].Text != `"MyTable"` {
		t.Fatalf("expected quoted identifier casing preserved, got %q", toks[4].Text)
	}
}

func TestTokenizePunctuatorsAreSpaced(t *testing.T) {
	toks := mustTokenize(t, "col->>'k'::text")
	got := texts(toks)
	want := []string{"col", "->>", "'k'", "::", "text"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestKeywordCaseFoldingPreservesIdentifiers(t *testing.T) {
	toks := mustTokenize(t, "select Id from Users")
	if toks[0].Upper() != "SELECT" {
		t.Fatalf("expected keyword upper match, got %q", toks[0].Upper())
	}
	if toks[1].Text != "Id" {
		t.Fatalf("expected identifier casing preserved, got %q", toks[1].Text)
	}
}

func TestEPrefixedStringLiteral(t *testing.T) {
	toks := mustTokenize(t, `SELECT E'line1\nline2' FROM t`)
	if toks[1].Kind != KindString || toks[1].Text[0] != 'E' {
		t.Fatalf("expected E-prefixed string token, got %+v", toks[1])
	}
}

func TestUnterminatedStringIsError(t *testing.T) {
	_, err := Tokenize("SELECT 'unterminated FROM t")
	if err == nil {
		t.Fatal("expected error for unterminated string literal")
	}
}

func TestUnterminatedQuotedIdentIsError(t *testing.T) {
	_, err := Tokenize(`SELECT "unterminated FROM t`)
	if err == nil {
		t.Fatal("expected error for unterminated quoted identifier")
	}
}

func TestExtractUntilRespectsParenDepth(t *testing.T) {
	toks := mustTokenize(t, "id, COUNT(a, b) FROM t")
	prefix, rest := ExtractUntil(toks, FromTerminator)
	if len(prefix) == 0 || Peek(rest).Upper() != "FROM" {
		t.Fatalf("ExtractUntil mismatch: prefix=%v rest=%v", texts(prefix), texts(rest))
	}
	groups := SplitByComma(prefix)
	if len(groups) != 2 {
		t.Fatalf("expected 2 comma groups despite nested comma in COUNT(a, b), got %d: %v", len(groups), groups)
	}
}

func TestSplitByCommaTopLevelOnly(t *testing.T) {
	toks := mustTokenize(t, "a, f(b, c), d")
	groups := SplitByComma(toks)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
}

func TestNormalizationIdempotent(t *testing.T) {
	q := "SELECT   id,\n\tname\nFROM  users"
	n1, err := Normalize(q)
	if err != nil {
		t.Fatal(err)
	}
	n2, err := Normalize(n1)
	if err != nil {
		t.Fatal(err)
	}
	if n1 != n2 {
		t.Fatalf("normalize not idempotent: %q vs %q", n1, n2)
	}
}

func TestWhitespaceInsensitivity(t *testing.T) {
	a, _ := Tokenize("SELECT id,name FROM users")
	b, _ := Tokenize("SELECT   id,\n\n  name\tFROM\tusers")
	if len(a) != len(b) {
		t.Fatalf("token count differs under whitespace variation: %v vs %v", texts(a), texts(b))
	}
	for i := range a {
		if a[i].Text != b[i].Text {
			t.Fatalf("token %d differs: %q vs %q", i, a[i].Text, b[i].Text)
		}
	}
}
