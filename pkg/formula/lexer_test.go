package formula

import (
	"testing"
)

func TestLexer_VariableForms(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		primary   string
		secondary string
		tertiary  string
	}{
		{"hash one part", "#{fbfJHSPpUQD}", "fbfJHSPpUQD", "", ""},
		{"hash two parts", "#{fbfJHSPpUQD.pq2XI5kz2BY}", "fbfJHSPpUQD", "pq2XI5kz2BY", ""},
		{"hash three parts", "#{a.b.c}", "a", "b", "c"},
		{"wildcard combo", "#{a.*.c}", "a", "*", "c"},
		{"empty middle part", "#{a..c}", "a", "", "c"},
		{"data element prefix", "D{a.b}", "a", "b", ""},
		{"indicator prefix", "I{a}", "a", "", ""},
		{"reporting rate prefix", "R{ds.REPORTING_RATE}", "ds", "REPORTING_RATE", ""},
		{"org unit group prefix", "OUG{oug1}", "oug1", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := NewLexer(tt.input).Tokens()
			if len(toks) != 1 {
				t.Fatalf("expected 1 token, got %d: %v", len(toks), toks)
			}
			tok := toks[0]
			if tok.Type != VARIABLE {
				t.Fatalf("expected VARIABLE, got %s", tok.Type)
			}
			if tok.Primary != tt.primary || tok.Secondary != tt.secondary || tok.Tertiary != tt.tertiary {
				t.Errorf("got parts (%q,%q,%q), want (%q,%q,%q)",
					tok.Primary, tok.Secondary, tok.Tertiary,
					tt.primary, tt.secondary, tt.tertiary)
			}
		})
	}
}

func TestLexer_FullFormula(t *testing.T) {
	input := "#{fbfJHSPpUQD.pq2XI5kz2BY}+#{h0xKKjijTdI}*100.0"
	toks := NewLexer(input).Tokens()
	if len(toks) != 5 {
		t.Fatalf("expected 5 tokens, got %d: %v", len(toks), toks)
	}
	wantTypes := []TokenType{VARIABLE, OPERATOR, VARIABLE, OPERATOR, NUMBER}
	for i, want := range wantTypes {
		if toks[i].Type != want {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, want)
		}
	}
	if toks[4].Literal != "100.0" {
		t.Errorf("expected literal 100.0, got %q", toks[4].Literal)
	}
}

func TestLexer_Numbers(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"1", []string{"1"}},
		{"1.5", []string{"1.5"}},
		{"1000", []string{"1000"}},
		{"1.", []string{"1"}},
		{"3.14/2.0", []string{"3.14", "/", "2.0"}},
	}
	for _, tt := range tests {
		toks := NewLexer(tt.input).Tokens()
		var got []string
		for _, tok := range toks {
			got = append(got, tok.Literal)
		}
		if len(got) != len(tt.want) {
			t.Errorf("%q: got %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%q: got %v, want %v", tt.input, got, tt.want)
				break
			}
		}
	}
}

func TestLexer_SkipsUnmatchedCharacters(t *testing.T) {
	// Whitespace, parens, and a malformed variable with four parts all
	// fall through to the skip path; only well-formed terms survive.
	toks := NewLexer("( #{a.b.c.d} + 2.0 )").Tokens()
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %d: %v", len(toks), toks)
	}
	if toks[0].Type != OPERATOR || toks[0].Literal != "+" {
		t.Errorf("expected +, got %v", toks[0])
	}
	if toks[1].Type != NUMBER || toks[1].Literal != "2.0" {
		t.Errorf("expected 2.0, got %v", toks[1])
	}
}

func TestLexer_UnterminatedBrace(t *testing.T) {
	toks := NewLexer("#{abc").Tokens()
	if len(toks) != 0 {
		t.Fatalf("expected no tokens, got %v", toks)
	}
}

func TestLexer_Empty(t *testing.T) {
	if toks := NewLexer("").Tokens(); len(toks) != 0 {
		t.Fatalf("expected no tokens, got %v", toks)
	}
}
