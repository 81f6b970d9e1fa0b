package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/registry"
	"github.com/ArnholdInstitute/dhis2ingestion/internal/validate"
	"github.com/ArnholdInstitute/dhis2ingestion/pkg/finding"
)

func sampleResults() []*validate.GroupResult {
	return []*validate.GroupResult{
		{
			Group: registry.Group{ID: "g1", DisplayName: "Malaria", ElementType: "indicators"},
			Records: []*validate.Record{
				{
					ID:                     "i1",
					GroupDescription:       "Malaria",
					DisplayName:            "Case count",
					NumeratorDescription:   "cases",
					DenominatorDescription: "1",
					Calculation:            "{ Cases } / { 1 }",
				},
				{
					ID:               "i2",
					GroupDescription: "Malaria",
					Findings: []finding.Finding{
						finding.New(finding.IndicatorNotInRegistry, "i2"),
					},
				},
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, sampleResults(), Options{BaseURL: "https://play.dhis2.org/demo"})
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "Malaria", rows[1][0])
	assert.Equal(t, "i1", rows[1][1])
	assert.Equal(t,
		`=HYPERLINK("https://play.dhis2.org/demo/api/indicators/i1";"Case count")`,
		rows[1][2])
	assert.Equal(t, "{ Cases } / { 1 }", rows[1][5])
	assert.Empty(t, rows[1][6])
	assert.Equal(t, "Indicator i2 not in registry", rows[2][6])
}

func TestWriteCSV_NoBaseURLKeepsPlainName(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResults(), Options{}))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Case count", rows[1][2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSON(&buf, sampleResults(), Options{BaseURL: "https://play.dhis2.org/demo"})
	require.NoError(t, err)

	var out struct {
		IndicatorGroups []struct {
			GroupDescription string `json:"groupDescription"`
			Indicators       []struct {
				IndicatorID     string                `json:"indicatorId"`
				IndicatorURL    string                `json:"indicatorUrl"`
				ValidationCodes map[string][][]string `json:"validationCodes"`
			} `json:"indicators"`
		} `json:"indicatorGroups"`
		ValidationCodeDict map[string]string `json:"validationCodeDict"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	require.Len(t, out.IndicatorGroups, 1)
	g := out.IndicatorGroups[0]
	assert.Equal(t, "Malaria", g.GroupDescription)
	require.Len(t, g.Indicators, 2)

	clean := g.Indicators[0]
	assert.Equal(t, "https://play.dhis2.org/demo/api/indicators/i1", clean.IndicatorURL)
	assert.Equal(t, map[string][][]string{"NO_ERRORS": {}}, clean.ValidationCodes)

	broken := g.Indicators[1]
	assert.Equal(t, map[string][][]string{"INDIC_NOT_IN_REG": {{"i2"}}}, broken.ValidationCodes)

	assert.Len(t, out.ValidationCodeDict, 14)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	WriteTable(&buf, sampleResults())

	out := buf.String()
	assert.Contains(t, out, "i1")
	assert.Contains(t, out, "Case count")
	assert.Contains(t, out, "INDIC_NOT_IN_REG")
	assert.Contains(t, out, "ok")
}
