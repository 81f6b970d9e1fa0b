package state

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/registry"
	"github.com/ArnholdInstitute/dhis2ingestion/internal/validate"
	"github.com/ArnholdInstitute/dhis2ingestion/pkg/finding"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func sampleResult() *validate.GroupResult {
	return &validate.GroupResult{
		Group: registry.Group{ID: "g1", DisplayName: "Malaria", ElementType: "indicators"},
		Records: []*validate.Record{
			{
				ID:          "i1",
				DisplayName: "Case count",
				Calculation: "{ Cases } / { 1 }",
			},
			{
				ID: "i2",
				Findings: []finding.Finding{
					finding.New(finding.IndicatorNotInRegistry, "i2"),
				},
			},
		},
	}
}

func TestStore_SaveAndListScans(t *testing.T) {
	s := openTestStore(t)
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	id, err := s.SaveScan(context.Background(), sampleResult(), started)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	scans, err := s.ListScans(context.Background())
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, id, scans[0].ID)
	assert.Equal(t, "g1", scans[0].GroupID)
	assert.Equal(t, "Malaria", scans[0].GroupName)
	assert.Equal(t, started, scans[0].StartedAt)
	assert.Equal(t, 2, scans[0].Indicators)
	assert.Equal(t, 1, scans[0].Findings)
}

func TestStore_ListScansNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	_, err := s.SaveScan(ctx, sampleResult(), older)
	require.NoError(t, err)
	newestID, err := s.SaveScan(ctx, sampleResult(), newer)
	require.NoError(t, err)

	scans, err := s.ListScans(ctx)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, newestID, scans[0].ID)
}

func TestStore_SaveScanRequiresOpen(t *testing.T) {
	s := NewStore()
	_, err := s.SaveScan(context.Background(), sampleResult(), time.Now())
	assert.Error(t, err)
}

func TestStore_SaveScanRollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scans").
		WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	s := NewStoreWithDB(db)
	_, err = s.SaveScan(context.Background(), sampleResult(), time.Now())
	assert.ErrorContains(t, err, "insert scan")
	assert.NoError(t, mock.ExpectationsWereMet())
}
