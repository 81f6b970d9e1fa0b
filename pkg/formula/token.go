// Package formula parses the DHIS2 indicator expression mini-language and
// rebuilds human-readable calculation text from registry display names.
//
// A formula is a flat sequence of three term kinds: a variable reference
// such as #{dataElement.categoryOptionCombo.attributeOptionCombo} (prefix
// one of # A C D I R or OUG, one to three dot-separated parts, parts may
// be empty or the wildcard *), an arithmetic operator, or a decimal
// literal. Anything else in the input is skipped.
package formula

// TokenType classifies a formula term.
type TokenType int

const (
	EOF TokenType = iota
	VARIABLE
	OPERATOR
	NUMBER
)

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case VARIABLE:
		return "VARIABLE"
	case OPERATOR:
		return "OPERATOR"
	case NUMBER:
		return "NUMBER"
	}
	return "ILLEGAL"
}

// Token is one term of a formula. For VARIABLE tokens Primary holds the
// first brace part and Secondary/Tertiary the optional category option
// combo and attribute option combo parts (empty when absent).
type Token struct {
	Type      TokenType
	Literal   string
	Primary   string
	Secondary string
	Tertiary  string
}

// Wildcard is the sub-part value that matches every combo and is never
// resolved against the registry.
const Wildcard = "*"
