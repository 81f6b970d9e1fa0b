package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/registry"
	"github.com/ArnholdInstitute/dhis2ingestion/pkg/finding"
)

func TestScanGroup_OrderMatchesGroupDeclaration(t *testing.T) {
	reg := newFakeRegistry()
	reg.groups["g1"] = &registry.Group{
		ID:          "g1",
		DisplayName: "Malaria",
		ElementType: "indicators",
		MemberIDs:   []string{"i1", "i2"},
	}
	reg.addObject("dataElements", "A", "Cases")
	reg.indicators["i1"] = &registry.Indicator{
		ID:                     "i1",
		DisplayName:            strp("Case count"),
		NumeratorDescription:   strp("cases"),
		DenominatorDescription: strp("1"),
		Numerator:              strp("#{A}"),
		Denominator:            strp("1"),
	}
	// i2 is not in the registry at all.

	s := NewScanner(reg, nil, 2, nil)
	result, err := s.ScanGroup(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	assert.Equal(t, "i1", result.Records[0].ID)
	assert.Empty(t, result.Records[0].Findings)
	assert.Equal(t, "Malaria", result.Records[0].GroupDescription)

	assert.Equal(t, "i2", result.Records[1].ID)
	require.Len(t, result.Records[1].Findings, 1)
	assert.Equal(t, finding.IndicatorNotInRegistry, result.Records[1].Findings[0].Code)
}

func TestScanGroup_SharedVariableFetchedOncePerScan(t *testing.T) {
	reg := newFakeRegistry()
	ids := []string{"i1", "i2", "i3", "i4"}
	reg.groups["g1"] = &registry.Group{
		ID: "g1", DisplayName: "G", ElementType: "indicators", MemberIDs: ids,
	}
	reg.addObject("dataElements", "shared", "Population")
	for _, id := range ids {
		reg.indicators[id] = &registry.Indicator{
			ID:                     id,
			DisplayName:            strp("Indicator " + id),
			NumeratorDescription:   strp("cases"),
			DenominatorDescription: strp("population"),
			Numerator:              strp("#{shared}"),
			Denominator:            strp("#{shared}+1.0"),
		}
	}

	// A single worker makes the lookup count deterministic; concurrent
	// first-resolvers are allowed to race and fetch twice.
	s := NewScanner(reg, nil, 1, nil)
	result, err := s.ScanGroup(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, result.Records, 4)

	// Every indicator references the same data element; the memoizing
	// cache keeps it to a single pair of lookups for the whole scan.
	assert.Equal(t, 1, reg.callCount("IdentifiableObject", "shared"))
	assert.Equal(t, 1, reg.callCount("KnownTypeRecord", "shared"))
}

func TestScanGroup_NonIndicatorGroupYieldsNoRecords(t *testing.T) {
	reg := newFakeRegistry()
	reg.groups["g1"] = &registry.Group{
		ID: "g1", DisplayName: "Elements", ElementType: "dataElements",
		MemberIDs: []string{"de1", "de2"},
	}

	s := NewScanner(reg, nil, 0, nil)
	result, err := s.ScanGroup(context.Background(), "g1")
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Equal(t, "dataElements", result.Group.ElementType)
}

func TestScanGroup_UnknownGroupIsAnError(t *testing.T) {
	reg := newFakeRegistry()
	s := NewScanner(reg, nil, 0, nil)

	_, err := s.ScanGroup(context.Background(), "nope")
	assert.Error(t, err)
}

func TestScanGroup_EmptyGroup(t *testing.T) {
	reg := newFakeRegistry()
	reg.groups["g1"] = &registry.Group{
		ID: "g1", DisplayName: "Empty", ElementType: "indicators",
	}

	s := NewScanner(reg, nil, 0, nil)
	result, err := s.ScanGroup(context.Background(), "g1")
	require.NoError(t, err)
	assert.Empty(t, result.Records)
}
