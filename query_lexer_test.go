package blaze

import (
	"errors"
	"testing"
)

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestQueryLexer_Keywords(t *testing.T) {
	lx := &QueryLexer{FilterStopwords: false}
	tokens, err := lx.Lex("machine learning")
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}

	want := []TokenType{TokenKeyword, TokenKeyword, TokenEOF}
	if got := tokenTypes(tokens); !tokenTypesEqual(got, want) {
		t.Errorf("token types = %v, want %v", got, want)
	}
	if tokens[0].Value != "machine" || tokens[1].Value != "learning" {
		t.Errorf("values = %q, %q, want machine, learning", tokens[0].Value, tokens[1].Value)
	}
}

func TestQueryLexer_Operators(t *testing.T) {
	lx := &QueryLexer{FilterStopwords: false}
	tokens, err := lx.Lex("cat AND dog OR NOT bird")
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}

	want := []TokenType{TokenKeyword, TokenAnd, TokenKeyword, TokenOr, TokenNot, TokenKeyword, TokenEOF}
	if got := tokenTypes(tokens); !tokenTypesEqual(got, want) {
		t.Errorf("token types = %v, want %v", got, want)
	}
}

func TestQueryLexer_OperatorsCaseInsensitive(t *testing.T) {
	lx := &QueryLexer{FilterStopwords: false}
	tokens, err := lx.Lex("cat and dog or not bird")
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}

	want := []TokenType{TokenKeyword, TokenAnd, TokenKeyword, TokenOr, TokenNot, TokenKeyword, TokenEOF}
	if got := tokenTypes(tokens); !tokenTypesEqual(got, want) {
		t.Errorf("token types = %v, want %v", got, want)
	}
}

func TestQueryLexer_Shorthand(t *testing.T) {
	lx := &QueryLexer{FilterStopwords: false}
	tokens, err := lx.Lex("cat +dog -bird")
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}

	want := []TokenType{TokenKeyword, TokenAnd, TokenKeyword, TokenNot, TokenKeyword, TokenEOF}
	if got := tokenTypes(tokens); !tokenTypesEqual(got, want) {
		t.Errorf("token types = %v, want %v", got, want)
	}
}

func TestQueryLexer_Parens(t *testing.T) {
	lx := &QueryLexer{FilterStopwords: false}
	tokens, err := lx.Lex("(cat OR dog)")
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}

	want := []TokenType{TokenLeftParen, TokenKeyword, TokenOr, TokenKeyword, TokenRightParen, TokenEOF}
	if got := tokenTypes(tokens); !tokenTypesEqual(got, want) {
		t.Errorf("token types = %v, want %v", got, want)
	}
}

func TestQueryLexer_Phrase(t *testing.T) {
	lx := &QueryLexer{FilterStopwords: false}
	tokens, err := lx.Lex(`"brown fox"`)
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}

	if len(tokens) != 2 || tokens[0].Type != TokenPhrase {
		t.Fatalf("tokens = %v, want a single Phrase then EOF", tokens)
	}
	if tokens[0].Value != "brown fox" {
		t.Errorf("phrase value = %q, want %q", tokens[0].Value, "brown fox")
	}
}

func TestQueryLexer_UnterminatedPhrase(t *testing.T) {
	lx := &QueryLexer{FilterStopwords: false}
	_, err := lx.Lex(`"brown fox`)
	if err == nil {
		t.Fatal("Lex returned no error for unterminated phrase")
	}

	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("error = %v, want *LexError", err)
	}
	if !errors.Is(err, ErrUnterminatedPhrase) {
		t.Errorf("error does not wrap ErrUnterminatedPhrase: %v", err)
	}
}

func TestQueryLexer_StopwordFiltering(t *testing.T) {
	lx := NewQueryLexer() // FilterStopwords: true
	tokens, err := lx.Lex("the cat and the dog")
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}

	// "the" is a stopword Keyword (filtered); "and" is the AND operator
	// and is never subject to stopword filtering since it isn't a Keyword.
	want := []TokenType{TokenKeyword, TokenAnd, TokenKeyword, TokenEOF}
	if got := tokenTypes(tokens); !tokenTypesEqual(got, want) {
		t.Errorf("token types = %v, want %v", got, want)
	}
}

func TestQueryLexer_EmptyQuery(t *testing.T) {
	lx := NewQueryLexer()
	tokens, err := lx.Lex("")
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Type != TokenEOF {
		t.Errorf("tokens = %v, want just EOF", tokens)
	}
}

func tokenTypesEqual(a, b []TokenType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
