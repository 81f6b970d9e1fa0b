// Package report renders scan results. Three formats: CSV for
// spreadsheet review, JSON for machine consumers, and a go-pretty table
// for the terminal.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/validate"
	"github.com/ArnholdInstitute/dhis2ingestion/pkg/finding"
)

// Options controls rendering. BaseURL, when set, turns indicator names
// into links back to the registry.
type Options struct {
	BaseURL string
}

var csvHeader = []string{
	"Group Description",
	"Indicator id",
	"Indicator name",
	"Numerator description",
	"Denominator description",
	"Calculation",
	"Validation Comments",
}

// WriteCSV writes one row per indicator. With a base URL the name column
// becomes a spreadsheet HYPERLINK cell pointing at the registry record;
// rendered finding messages share one newline-joined cell.
func WriteCSV(w io.Writer, results []*validate.GroupResult, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, res := range results {
		for _, rec := range res.Records {
			name := rec.DisplayName
			if opts.BaseURL != "" {
				name = hyperlinkCell(opts.BaseURL, rec.ID, rec.DisplayName)
			}
			row := []string{
				rec.GroupDescription,
				rec.ID,
				name,
				rec.NumeratorDescription,
				rec.DenominatorDescription,
				rec.Calculation,
				finding.RenderAll(rec.Findings, "\n"),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// hyperlinkCell builds the spreadsheet formula linking back to the
// indicator's registry record.
func hyperlinkCell(baseURL, id, name string) string {
	return fmt.Sprintf("=HYPERLINK(%q;%q)", baseURL+"/api/indicators/"+id, name)
}

type jsonIndicator struct {
	IndicatorID            string                `json:"indicatorId"`
	IndicatorName          string                `json:"indicatorName"`
	IndicatorURL           string                `json:"indicatorUrl,omitempty"`
	NumeratorDescription   string                `json:"numeratorDescription"`
	DenominatorDescription string                `json:"denominatorDescription"`
	Calculation            string                `json:"calculation"`
	ValidationCodes        map[string][][]string `json:"validationCodes"`
}

type jsonGroup struct {
	GroupDescription string          `json:"groupDescription"`
	Indicators       []jsonIndicator `json:"indicators"`
}

type jsonReport struct {
	IndicatorGroups    []jsonGroup       `json:"indicatorGroups"`
	ValidationCodeDict map[string]string `json:"validationCodeDict"`
}

// WriteJSON writes the structured report: indicators grouped per group,
// findings bucketed by code name, plus the code-to-template dictionary
// so consumers can render messages themselves. A record with no findings
// reports a lone NO_ERRORS entry.
func WriteJSON(w io.Writer, results []*validate.GroupResult, opts Options) error {
	out := jsonReport{
		IndicatorGroups:    []jsonGroup{},
		ValidationCodeDict: finding.TemplateDict(),
	}
	for _, res := range results {
		jg := jsonGroup{
			GroupDescription: res.Group.DisplayName,
			Indicators:       []jsonIndicator{},
		}
		for _, rec := range res.Records {
			ji := jsonIndicator{
				IndicatorID:            rec.ID,
				IndicatorName:          rec.DisplayName,
				NumeratorDescription:   rec.NumeratorDescription,
				DenominatorDescription: rec.DenominatorDescription,
				Calculation:            rec.Calculation,
				ValidationCodes:        finding.GroupByName(rec.Findings),
			}
			if opts.BaseURL != "" {
				ji.IndicatorURL = opts.BaseURL + "/api/indicators/" + rec.ID
			}
			jg.Indicators = append(jg.Indicators, ji)
		}
		out.IndicatorGroups = append(out.IndicatorGroups, jg)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(out)
}

// WriteTable renders a terminal summary table, one row per indicator.
func WriteTable(w io.Writer, results []*validate.GroupResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Group", "Indicator", "Name", "Calculation", "Findings"})
	for _, res := range results {
		for _, rec := range res.Records {
			t.AppendRow(table.Row{
				rec.GroupDescription,
				rec.ID,
				rec.DisplayName,
				rec.Calculation,
				summarizeFindings(rec.Findings),
			})
		}
	}
	t.Render()
}

func summarizeFindings(findings []finding.Finding) string {
	if len(findings) == 0 {
		return "ok"
	}
	names := make([]string, len(findings))
	for i, f := range findings {
		names[i] = f.Code.Name()
	}
	return strings.Join(names, ", ")
}
