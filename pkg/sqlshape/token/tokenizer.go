package token

import (
	"fmt"
	"strings"
)

// Normalize applies spec §4.1's normalization pipeline: strip `--` and
// `/* */` comments, pad every structural punctuator with spaces, and
// collapse whitespace runs to single spaces — all while treating
// single-quoted string literals and double-quoted identifiers as atomic
// spans that are never split or rewritten internally.
//
// Per spec §4.1's documented limitation, whitespace collapse is applied
// uniformly (including inside quoted spans): a quoted identifier containing
// an internal space is not representable by this tokenizer. That is not a
// bug to fix here — it is the contract.
func Normalize(query string) (string, error) {
	r := []rune(query)
	n := len(r)
	var b strings.Builder
	b.Grow(len(query) + 16)

	for i := 0; i < n; {
		c := r[i]
		switch {
		case c == '-' && i+1 < n && r[i+1] == '-':
			for i < n && r[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && r[i+1] == '*':
			start := i
			i += 2
			closed := false
			for i+1 < n {
				if r[i] == '*' && r[i+1] == '/' {
					i += 2
					closed = true
					break
				}
				i++
			}
			if !closed {
				return "", fmt.Errorf("unterminated block comment starting at position %d", start)
			}
		case c == '\'':
			start := i
			prefix := popTrailingPrefix(&b)
			i++
			closed := false
			for i < n {
				if r[i] == '\'' {
					if i+1 < n && r[i+1] == '\'' {
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				i++
			}
			if !closed {
				return "", fmt.Errorf("unterminated string literal starting at position %d", start)
			}
			b.WriteString(" ")
			b.WriteString(prefix)
			b.WriteString(string(r[start:i]))
			b.WriteString(" ")
		case c == '"':
			start := i
			i++
			closed := false
			for i < n {
				if r[i] == '"' {
					if i+1 < n && r[i+1] == '"' {
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				i++
			}
			if !closed {
				return "", fmt.Errorf("unterminated quoted identifier starting at position %d", start)
			}
			b.WriteString(" ")
			b.WriteString(string(r[start:i]))
			b.WriteString(" ")
		case isSpace(c):
			b.WriteByte(' ')
			i++
			continue
		default:
			if three := peek(r, i, 3); three == "->>" || three == "#>>" {
				b.WriteString(" ")
				b.WriteString(three)
				b.WriteString(" ")
				i += 3
				continue
			}
			if two := peek(r, i, 2); two == "::" || two == "->" || two == "#>" || two == "||" ||
				two == "!=" || two == "<>" || two == "<=" || two == ">=" {
				b.WriteString(" ")
				b.WriteString(two)
				b.WriteString(" ")
				i += 2
				continue
			}
			if strings.ContainsRune("(),*=<>", c) {
				b.WriteString(" ")
				b.WriteRune(c)
				b.WriteString(" ")
				i++
				continue
			}
			b.WriteRune(c)
			i++
			continue
		}
	}

	fields := strings.Fields(b.String())
	return strings.Join(fields, " "), nil
}

// popTrailingPrefix removes a bare trailing E/N letter at a word boundary
// from b and returns it, so the caller can fold it into the upcoming string
// literal instead of padding a space between them — preserving PostgreSQL's
// E'...'/N'...' prefixes as part of the same token.
func popTrailingPrefix(b *strings.Builder) string {
	cur := b.String()
	if cur == "" {
		return ""
	}
	last := cur[len(cur)-1]
	if last != 'E' && last != 'e' && last != 'N' && last != 'n' {
		return ""
	}
	if len(cur) >= 2 && cur[len(cur)-2] != ' ' {
		return ""
	}
	b.Reset()
	b.WriteString(cur[:len(cur)-1])
	return string(last)
}

func peek(r []rune, i, k int) string {
	if i+k > len(r) {
		return ""
	}
	return string(r[i : i+k])
}

func isSpace(c rune) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// Tokenize normalizes query and splits it on whitespace into a flat token
// sequence. Callers that already hold a normalized string may call Tokens
// directly, but Tokenize is the common entry point.
func Tokenize(query string) ([]Token, error) {
	normalized, err := Normalize(query)
	if err != nil {
		return nil, err
	}
	return Tokens(normalized), nil
}

// Tokens splits an already-normalized string into Tokens by whitespace.
func Tokens(normalized string) []Token {
	fields := strings.Fields(normalized)
	out := make([]Token, 0, len(fields))
	for _, f := range fields {
		out = append(out, classify(f))
	}
	return out
}

// NextToken peels the first token off stream, returning it along with the
// remainder. Calling NextToken on an empty stream returns the EOF token and
// a nil remainder.
func NextToken(stream []Token) (Token, []Token) {
	if len(stream) == 0 {
		return eofToken, nil
	}
	return stream[0], stream[1:]
}

// Peek returns the first token without consuming it (EOF token if stream is
// empty).
func Peek(stream []Token) Token {
	if len(stream) == 0 {
		return eofToken
	}
	return stream[0]
}

// ExtractUntil consumes stream until it finds a token (at paren depth 0)
// whose uppercased text is a member of terminators, returning the consumed
// prefix and the remaining stream starting at the terminator (or at EOF, if
// no terminator was found).
func ExtractUntil(stream []Token, terminators map[string]struct{}) (prefix, rest []Token) {
	depth := 0
	for i, t := range stream {
		switch {
		case t.Kind == KindPunct && t.Text == "(":
			depth++
		case t.Kind == KindPunct && t.Text == ")":
			depth--
		case depth == 0:
			if _, stop := terminators[t.Upper()]; stop {
				return stream[:i], stream[i:]
			}
		}
	}
	return stream, nil
}

// SplitByComma splits stream at top-level commas (respecting parenthesis
// depth), dropping the commas themselves. An empty stream yields no groups;
// a stream with only commas yields empty groups for each position, which
// callers use to detect empty-column-list errors (spec invariant I4).
func SplitByComma(stream []Token) [][]Token {
	if len(stream) == 0 {
		return nil
	}
	var groups [][]Token
	depth := 0
	start := 0
	for i, t := range stream {
		switch {
		case t.Kind == KindPunct && t.Text == "(":
			depth++
		case t.Kind == KindPunct && t.Text == ")":
			depth--
		case depth == 0 && t.Kind == KindPunct && t.Text == ",":
			groups = append(groups, stream[start:i])
			start = i + 1
		}
	}
	groups = append(groups, stream[start:])
	return groups
}
