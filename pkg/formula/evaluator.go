package formula

import (
	"context"
	"strconv"
	"strings"

	"github.com/ArnholdInstitute/dhis2ingestion/pkg/finding"
)

// Placeholder stands in for a display name that could not be resolved.
const Placeholder = "??????"

// Outcome classifies one variable lookup.
type Outcome int

const (
	// Resolved means the registry returned a usable display name.
	Resolved Outcome = iota
	// NotInRegistry means the id is unknown to the registry entirely.
	NotInRegistry
	// NoMetadata means a record exists but has no display name.
	NoMetadata
)

// ResolvedVariable is the result of looking one variable id up in the
// registry. DisplayName is non-empty exactly when Outcome is Resolved.
// ElementType is the singularized registry collection the id belongs to,
// when known.
type ResolvedVariable struct {
	DisplayName string
	Outcome     Outcome
	ElementType string
}

// Resolver looks up variable ids. Implementations are expected to
// memoize: the evaluator may resolve the same id several times across
// the formulas of one group scan.
type Resolver interface {
	Resolve(ctx context.Context, id string) (ResolvedVariable, error)
}

// Side names which half of the indicator a formula belongs to. It is
// spliced into finding messages, so the values are lowercase English.
type Side string

const (
	Numerator   Side = "numerator"
	Denominator Side = "denominator"
)

// Evaluator rebuilds readable calculation text from formulas, resolving
// every variable reference through a Resolver.
type Evaluator struct {
	resolver Resolver
}

// NewEvaluator creates an Evaluator backed by the given resolver.
func NewEvaluator(r Resolver) *Evaluator {
	return &Evaluator{resolver: r}
}

// Evaluate tokenizes one formula and assembles its calculation text,
// substituting display names for variable ids. Unresolvable variables
// render as Placeholder and produce one finding per distinct id. When
// expected is non-nil and no literal in the formula carries that integer
// value, a FormulaNumberMissing finding for side is appended. An error
// is returned only for resolver transport failures.
func (e *Evaluator) Evaluate(ctx context.Context, formulaText string, expected *int64, side Side) (string, []finding.Finding, error) {
	var calc strings.Builder
	var findings []finding.Finding
	seen := make(map[string]bool)
	numberSeen := expected == nil

	lexer := NewLexer(formulaText)
	for {
		tok := lexer.Next()
		if tok.Type == EOF {
			break
		}
		switch tok.Type {
		case OPERATOR:
			calc.WriteString(" " + tok.Literal)
		case NUMBER:
			calc.WriteString(" " + tok.Literal)
			if expected != nil && literalEquals(tok.Literal, *expected) {
				numberSeen = true
			}
		case VARIABLE:
			if err := e.appendVariable(ctx, &calc, &findings, seen, tok, side); err != nil {
				return "", nil, err
			}
		}
	}

	if !numberSeen {
		findings = append(findings, finding.New(finding.FormulaNumberMissing,
			string(side), strconv.FormatInt(*expected, 10)))
	}
	return calc.String(), findings, nil
}

// appendVariable resolves the up-to-three parts of one variable token.
func (e *Evaluator) appendVariable(ctx context.Context, calc *strings.Builder, findings *[]finding.Finding, seen map[string]bool, tok Token, side Side) error {
	primary, err := e.appendPart(ctx, calc, findings, seen, tok.Primary, side)
	if err != nil {
		return err
	}

	if tok.Secondary != "" && tok.Secondary != Wildcard {
		// A dataSet reference may carry a metric suffix (e.g.
		// REPORTING_RATE) in the combo slot; splice it in verbatim
		// instead of treating it as a registry id.
		if primary.ElementType == "dataSet" && strings.Contains(tok.Secondary, "_") {
			calc.WriteString(" " + tok.Secondary)
		} else if _, err := e.appendPart(ctx, calc, findings, seen, tok.Secondary, side); err != nil {
			return err
		}
	}

	if tok.Tertiary != "" && tok.Tertiary != Wildcard {
		if _, err := e.appendPart(ctx, calc, findings, seen, tok.Tertiary, side); err != nil {
			return err
		}
	}
	return nil
}

// appendPart resolves a single id, appends its display name (or the
// placeholder) to the calculation, and records a finding the first time
// an unresolvable id shows up in this formula.
func (e *Evaluator) appendPart(ctx context.Context, calc *strings.Builder, findings *[]finding.Finding, seen map[string]bool, id string, side Side) (ResolvedVariable, error) {
	rv, err := e.resolver.Resolve(ctx, id)
	if err != nil {
		return ResolvedVariable{}, err
	}

	if rv.DisplayName != "" {
		calc.WriteString(" " + rv.DisplayName)
	} else {
		calc.WriteString(" " + Placeholder)
	}

	if !seen[id] {
		seen[id] = true
		switch rv.Outcome {
		case NotInRegistry:
			*findings = append(*findings,
				finding.New(finding.VariableNotInRegistry, id, string(side)))
		case NoMetadata:
			*findings = append(*findings,
				finding.New(finding.VariableNoMetadata, id, rv.ElementType, string(side)))
		}
	}
	return rv, nil
}

// literalEquals reports whether the literal's numeric value is exactly
// the integer n, so "1000" and "1000.0" both match 1000.
func literalEquals(literal string, n int64) bool {
	if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return i == n
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return false
	}
	return f == float64(n)
}
