package validate

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/registry"
	"github.com/ArnholdInstitute/dhis2ingestion/pkg/factor"
	"github.com/ArnholdInstitute/dhis2ingestion/pkg/finding"
	"github.com/ArnholdInstitute/dhis2ingestion/pkg/formula"
)

// Record is the validated description of one indicator: the metadata
// pulled from the registry, the reconstructed human-readable calculation,
// and every finding produced along the way. Immutable once returned.
type Record struct {
	ID                     string
	GroupDescription       string
	DisplayName            string
	NumeratorDescription   string
	DenominatorDescription string
	NumeratorFormula       string
	DenominatorFormula     string
	Calculation            string
	Findings               []finding.Finding
}

// Validator assembles one Record per indicator id, turning every
// inconsistency into a finding.
type Validator struct {
	reg       Registry
	evaluator *formula.Evaluator
	factors   map[string]int64
	logger    *slog.Logger
}

// NewValidator creates a Validator. factors maps indicator type ids to
// their scale factor, built once per registry connection.
func NewValidator(reg Registry, resolver formula.Resolver, factors map[string]int64, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		reg:       reg,
		evaluator: formula.NewEvaluator(resolver),
		factors:   factors,
		logger:    logger,
	}
}

// Validate fetches and checks one indicator. It always returns a usable
// Record: registry absence and missing fields become findings, and any
// other failure (transport error, arity panic during finding assembly)
// collapses into a single IndicatorParseFailed finding for this id.
func (v *Validator) Validate(ctx context.Context, id string) (rec *Record) {
	defer func() {
		if p := recover(); p != nil {
			v.logger.Error("indicator validation panicked", "indicator", id, "panic", p)
			rec = parseFailed(id)
		}
	}()

	rec, err := v.validate(ctx, id)
	if err != nil {
		v.logger.Error("indicator validation failed", "indicator", id, "error", err)
		return parseFailed(id)
	}
	return rec
}

func parseFailed(id string) *Record {
	return &Record{
		ID:       id,
		Findings: []finding.Finding{finding.New(finding.IndicatorParseFailed, id)},
	}
}

func (v *Validator) validate(ctx context.Context, id string) (*Record, error) {
	rec := &Record{ID: id}

	ind, err := v.reg.Indicator(ctx, id)
	if errors.Is(err, registry.ErrNotFound) {
		rec.Findings = append(rec.Findings, finding.New(finding.IndicatorNotInRegistry, id))
		return rec, nil
	}
	if err != nil {
		return nil, err
	}

	if ind.DisplayName != nil {
		rec.DisplayName = *ind.DisplayName
	} else {
		rec.Findings = append(rec.Findings, finding.New(finding.IndicatorNoDisplayName, id))
	}

	// A factor of 1 places no constraint on the formulas.
	indicatorNumber := extractNumber(rec.DisplayName)
	if indicatorNumber != nil && *indicatorNumber == 1 {
		indicatorNumber = nil
	}

	rec.NumeratorDescription = formula.Placeholder
	if ind.NumeratorDescription != nil {
		rec.NumeratorDescription = *ind.NumeratorDescription
	} else {
		rec.Findings = append(rec.Findings, finding.New(finding.NumeratorNoDescription))
	}
	numeratorNumber := extractNumber(rec.NumeratorDescription)

	rec.DenominatorDescription = "1"
	if ind.DenominatorDescription != nil && *ind.DenominatorDescription != "" {
		rec.DenominatorDescription = *ind.DenominatorDescription
	} else {
		rec.Findings = append(rec.Findings, finding.New(finding.DenominatorNoDescription))
	}
	denominatorNumber := extractNumber(rec.DenominatorDescription)
	if denominatorNumber != nil && *denominatorNumber == 1 {
		denominatorNumber = nil
	}

	typeFactor := int64(1)
	if ind.IndicatorType != nil {
		if f, ok := v.factors[ind.IndicatorType.ID]; ok {
			typeFactor = f
		}
	}
	if indicatorNumber != nil &&
		!numberMatches(indicatorNumber, denominatorNumber) &&
		!numberMatches(indicatorNumber, numeratorNumber) &&
		*indicatorNumber != typeFactor {
		rec.Findings = append(rec.Findings, finding.New(finding.IndicatorNumberMissing,
			strconv.FormatInt(*indicatorNumber, 10)))
	}

	rec.NumeratorFormula = formula.Placeholder
	if ind.Numerator != nil {
		rec.NumeratorFormula = *ind.Numerator
	} else {
		rec.Findings = append(rec.Findings, finding.New(finding.NumeratorNoFormula))
	}

	rec.DenominatorFormula = formula.Placeholder
	if ind.Denominator != nil {
		rec.DenominatorFormula = *ind.Denominator
	} else {
		rec.Findings = append(rec.Findings, finding.New(finding.DenominatorNoFormula))
	}

	if (rec.DenominatorFormula == "1") != (rec.DenominatorDescription == "1") {
		rec.Findings = append(rec.Findings, finding.New(finding.DenominatorFormulaDescMismatch))
	}

	// TODO: also flag term reorderings, so A+B and B+A compare equal.
	if rec.NumeratorFormula == rec.DenominatorFormula {
		rec.Findings = append(rec.Findings, finding.New(finding.NumeratorEqualsDenominator))
	}

	numCalc, numFindings, err := v.evaluator.Evaluate(ctx,
		rec.NumeratorFormula, numeratorNumber, formula.Numerator)
	if err != nil {
		return nil, err
	}
	denCalc, denFindings, err := v.evaluator.Evaluate(ctx,
		rec.DenominatorFormula, denominatorNumber, formula.Denominator)
	if err != nil {
		return nil, err
	}

	rec.Calculation = "{" + numCalc + " } / {" + denCalc + " }"
	rec.Findings = append(rec.Findings, numFindings...)
	rec.Findings = append(rec.Findings, denFindings...)

	return rec, nil
}

func extractNumber(text string) *int64 {
	if n, ok := factor.Extract(text, true); ok {
		return &n
	}
	return nil
}

func numberMatches(want, got *int64) bool {
	return got != nil && *got == *want
}
