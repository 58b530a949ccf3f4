package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cohortlens/internal/common"
)

func testReport(id string, at time.Time) *SavedReport {
	return &SavedReport{
		ReportSummary: ReportSummary{
			ID:            id,
			GeneratedAt:   at,
			CurrentLabel:  "Last 30 days",
			PreviousLabel: "Previous 30 days",
			CustomerCount: 42,
		},
		Payload: []byte(`{"id":"` + id + `"}`),
	}
}

func TestSQLiteStorage_SaveAndGetReport(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	at := time.Date(2025, 4, 1, 8, 30, 15, 123, time.FixedZone("EST", -5*60*60))
	require.NoError(t, store.SaveReport(ctx, testReport("r1", at)))

	got, err := store.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.True(t, got.GeneratedAt.Equal(at))
	assert.Equal(t, "Last 30 days", got.CurrentLabel)
	assert.Equal(t, "Previous 30 days", got.PreviousLabel)
	assert.Equal(t, 42, got.CustomerCount)
	assert.JSONEq(t, `{"id":"r1"}`, string(got.Payload))

	_, err = store.GetReport(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_SaveReportReplaces(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReport(ctx, testReport("r1", baseDate)))
	updated := testReport("r1", baseDate)
	updated.CustomerCount = 7
	require.NoError(t, store.SaveReport(ctx, updated))

	reports, err := store.ListReports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 7, reports[0].CustomerCount)
}

func TestSQLiteStorage_SaveReportValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		report  *SavedReport
		wantErr error
		name    string
	}{
		{name: "nil report", report: nil, wantErr: ErrNilParameter},
		{name: "missing id", report: testReport("", baseDate), wantErr: ErrEmptyString},
		{
			name: "empty payload",
			report: func() *SavedReport {
				r := testReport("r1", baseDate)
				r.Payload = nil
				return r
			}(),
			wantErr: ErrEmptySlice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.SaveReport(ctx, tt.report), tt.wantErr)
		})
	}
}

func TestSQLiteStorage_ListReports(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for i, id := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, store.SaveReport(ctx, testReport(id, baseDate.Add(time.Duration(i)*time.Hour))))
	}

	tests := []struct {
		name  string
		want  []string
		limit int
	}{
		{name: "all", limit: 0, want: []string{"newest", "middle", "oldest"}},
		{name: "limited", limit: 2, want: []string{"newest", "middle"}},
		{name: "limit above count", limit: 10, want: []string{"newest", "middle", "oldest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports, err := store.ListReports(ctx, tt.limit)
			require.NoError(t, err)
			ids := make([]string, len(reports))
			for i, r := range reports {
				ids[i] = r.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
