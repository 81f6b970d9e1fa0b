// Package finding defines the typed validation findings produced while
// checking indicator metadata against its formulas and descriptions.
//
// Each finding kind carries a fixed number of fill-in arguments used to
// render an English message template. The kind names double as the wire
// names used in JSON output, so they follow the registry's historical
// SCREAMING_SNAKE convention rather than Go naming.
package finding

import (
	"fmt"
	"strings"
)

// Code identifies one kind of validation finding.
type Code int

const (
	NoErrors Code = iota
	IndicatorNotInRegistry
	IndicatorNoDisplayName
	NumeratorNoDescription
	DenominatorNoDescription
	NumeratorNoFormula
	DenominatorNoFormula
	DenominatorFormulaDescMismatch
	IndicatorNumberMissing
	FormulaNumberMissing
	VariableNotInRegistry
	VariableNoMetadata
	NumeratorEqualsDenominator
	IndicatorParseFailed
)

// blank is the placeholder substituted by rendered arguments, in order.
const blank = "___"

type template struct {
	name   string
	text   string
	blanks int
}

var templates = map[Code]template{
	NoErrors:                 {"NO_ERRORS", "No errors found in indicator", 0},
	IndicatorNotInRegistry:   {"INDIC_NOT_IN_REG", "Indicator ___ not in registry", 1},
	IndicatorNoDisplayName:   {"INDIC_NO_DISPLAY_NAME", "Indicator ___ has no display name", 1},
	NumeratorNoDescription:   {"NUMER_NO_DESC", "No description of the numerator", 0},
	DenominatorNoDescription: {"DENOM_NO_DESC", "No description of the denominator; we assume it is 1", 0},
	NumeratorNoFormula:       {"NUMER_NO_FORMULA", "Numerator has no formula", 0},
	DenominatorNoFormula:     {"DENOM_NO_FORMULA", "Denominator has no formula", 0},
	DenominatorFormulaDescMismatch: {
		"DENOM_FORMULA_NO_MATCH",
		"Denominator formula does not match description",
		0,
	},
	IndicatorNumberMissing: {
		"INDIC_NUMBER_MISSING",
		"Indicator description has a number in it (___) which does not appear" +
			" in numerator or denominator descriptions or the indicator type",
		1,
	},
	FormulaNumberMissing: {
		"FORMULA_NUMBER_MISSING",
		"___ description contains a number (___) which does not appear in the formula",
		2,
	},
	VariableNotInRegistry: {
		"VBL_NOT_IN_REG",
		"Variable ___ appearing in the formula for ___ is not in the registry",
		2,
	},
	VariableNoMetadata: {
		"VBL_NO_METADATA",
		"Variable ___ of type ___ appearing in the formula for ___ has no valid metadata",
		3,
	},
	NumeratorEqualsDenominator: {
		"NUMER_EQS_DENOM",
		"Numerator and denominator have the same formula",
		0,
	},
	IndicatorParseFailed: {"INDIC_PARSE_FAILED", "Parsing of indicator ___ failed", 1},
}

// Name returns the code's wire name, e.g. "VBL_NOT_IN_REG".
func (c Code) Name() string {
	t, ok := templates[c]
	if !ok {
		return fmt.Sprintf("CODE(%d)", int(c))
	}
	return t.name
}

// Template returns the code's English message template with its blanks
// unfilled.
func (c Code) Template() string {
	return templates[c].text
}

// Blanks returns the number of arguments the code's template expects.
func (c Code) Blanks() int {
	return templates[c].blanks
}

func (c Code) String() string { return c.Name() }

// Finding is one validation diagnostic attached to an indicator. It is
// immutable once created.
type Finding struct {
	Code Code
	Args []string
}

// New builds a Finding, asserting that the argument count matches the
// code's template arity. A mismatch is a programming error in the caller,
// not bad input, so it panics; indicator processing catches the panic at
// the per-indicator boundary.
func New(code Code, args ...string) Finding {
	if len(args) != code.Blanks() {
		panic(fmt.Sprintf("finding: code %s takes %d values, got %d",
			code.Name(), code.Blanks(), len(args)))
	}
	return Finding{Code: code, Args: args}
}

// Render fills the template's blanks with the finding's arguments in
// order and returns the full English message.
func (f Finding) Render() string {
	if len(f.Args) != f.Code.Blanks() {
		panic(fmt.Sprintf("finding: code %s takes %d values, got %d",
			f.Code.Name(), f.Code.Blanks(), len(f.Args)))
	}
	msg := f.Code.Template()
	for _, arg := range f.Args {
		msg = strings.Replace(msg, blank, arg, 1)
	}
	return msg
}

// RenderAll renders each finding and joins the messages with sep.
func RenderAll(findings []Finding, sep string) string {
	msgs := make([]string, len(findings))
	for i, f := range findings {
		msgs[i] = f.Render()
	}
	return strings.Join(msgs, sep)
}

// GroupByName buckets findings by wire name for JSON output: each entry
// maps a code name to the argument lists of every finding with that code.
// An empty input reports the NO_ERRORS sentinel with no argument lists.
func GroupByName(findings []Finding) map[string][][]string {
	if len(findings) == 0 {
		return map[string][][]string{NoErrors.Name(): {}}
	}
	grouped := make(map[string][][]string)
	for _, f := range findings {
		name := f.Code.Name()
		args := f.Args
		if args == nil {
			args = []string{}
		}
		grouped[name] = append(grouped[name], args)
	}
	return grouped
}

// TemplateDict maps every code's wire name to its message template. The
// JSON report embeds it so consumers can render messages themselves.
func TemplateDict() map[string]string {
	dict := make(map[string]string, len(templates))
	for _, t := range templates {
		dict[t.name] = t.text
	}
	return dict
}
