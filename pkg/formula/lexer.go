package formula

// Lexer scans a formula left to right, emitting non-overlapping tokens
// for the three term grammars and silently skipping every character that
// starts none of them.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a Lexer over the given formula text.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token, or an EOF token once the input is
// exhausted. At each position the most specific alternative wins: a
// variable reference, then an operator, then a decimal literal.
func (l *Lexer) Next() Token {
	for l.pos < len(l.input) {
		if tok, ok := l.readVariable(); ok {
			return tok
		}
		ch := l.input[l.pos]
		switch ch {
		case '+', '-', '*', '/':
			l.pos++
			return Token{Type: OPERATOR, Literal: string(ch)}
		}
		if tok, ok := l.readNumber(); ok {
			return tok
		}
		l.pos++
	}
	return Token{Type: EOF}
}

// Tokens consumes the remaining input and returns every token in order.
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		tok := l.Next()
		if tok.Type == EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

// readVariable matches prefix{a.b.c} where prefix is one of # A C D I R
// or the literal OUG. The brace body must be one to three dot-separated
// parts of identifier characters or the wildcard; a body that breaks the
// grammar leaves the position untouched so the characters get skipped
// individually.
func (l *Lexer) readVariable() (Token, bool) {
	start := l.pos
	rest := l.input[start:]

	var bodyStart int
	switch {
	case len(rest) >= 2 && isVariablePrefix(rest[0]) && rest[1] == '{':
		bodyStart = start + 2
	case len(rest) >= 4 && rest[:4] == "OUG{":
		bodyStart = start + 4
	default:
		return Token{}, false
	}

	parts := []string{""}
	for i := bodyStart; i < len(l.input); i++ {
		switch ch := l.input[i]; {
		case ch == '}':
			tok := Token{
				Type:    VARIABLE,
				Literal: l.input[start : i+1],
				Primary: parts[0],
			}
			if len(parts) > 1 {
				tok.Secondary = parts[1]
			}
			if len(parts) > 2 {
				tok.Tertiary = parts[2]
			}
			l.pos = i + 1
			return tok, true
		case ch == '.':
			if len(parts) == 3 {
				return Token{}, false
			}
			parts = append(parts, "")
		case isPartChar(ch):
			parts[len(parts)-1] += string(ch)
		default:
			return Token{}, false
		}
	}
	return Token{}, false
}

// readNumber matches a numeric literal: an integer with an optional
// fractional part. The fractional dot is only consumed when a digit
// follows, so a trailing dot stays in the input for the skip path.
func (l *Lexer) readNumber() (Token, bool) {
	i := l.pos
	for i < len(l.input) && isDigit(l.input[i]) {
		i++
	}
	if i == l.pos {
		return Token{}, false
	}
	if i+1 < len(l.input) && l.input[i] == '.' && isDigit(l.input[i+1]) {
		i += 2
		for i < len(l.input) && isDigit(l.input[i]) {
			i++
		}
	}
	tok := Token{Type: NUMBER, Literal: l.input[l.pos:i]}
	l.pos = i
	return tok, true
}

func isVariablePrefix(ch byte) bool {
	switch ch {
	case '#', 'A', 'C', 'D', 'I', 'R':
		return true
	}
	return false
}

func isPartChar(ch byte) bool {
	return ch == '*' || ch == '_' ||
		('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') ||
		('0' <= ch && ch <= '9')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
