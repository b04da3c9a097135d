package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradcafe-engine/internal/domain"
)

func TestStatusDate(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"Accepted on 01/20/2025", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), true},
		{"Rejected on 2025-02-10", time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"Wait listed on 3/4/2025", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"Accepted", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := statusDate(tt.in)
		require.Equal(t, tt.wantOK, ok, "statusDate(%q)", tt.in)
		if ok {
			assert.True(t, got.Equal(tt.want), "statusDate(%q) = %v", tt.in, got)
		}
	}
}

func TestStatusType(t *testing.T) {
	assert.Equal(t, "Accepted on", statusType("Accepted on 01/20/2025"))
	assert.Equal(t, "Rejected on", statusType("Rejected on 02/10/2025"))
	assert.Equal(t, "", statusType("01/20/2025"))
}

func TestComputeStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	insert := func(a domain.Applicant) {
		t.Helper()
		inserted, err := InsertApplicantIfNew(ctx, db, a)
		require.NoError(t, err)
		require.True(t, inserted)
	}

	// two in-window decisions, one accept
	insert(domain.Applicant{
		URL:         "https://example.com/result/1",
		DateAdded:   time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		Status:      "Accepted on 01/20/2025",
		Citizenship: "American",
		GPA:         fv(3.8),
		GREQuant:    fv(168),
	})
	insert(domain.Applicant{
		URL:         "https://example.com/result/2",
		DateAdded:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:      "Rejected on 02/10/2025",
		Citizenship: "International",
		GPA:         fv(3.4),
		GREQuant:    fv(160),
	})
	// decided outside the window, excluded from the fall metrics
	insert(domain.Applicant{
		URL:         "https://example.com/result/3",
		DateAdded:   time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		Status:      "Accepted on 11/15/2024",
		Citizenship: "American",
		GPA:         fv(2.0),
	})

	st, err := ComputeStats(ctx, db)
	require.NoError(t, err)

	assert.Equal(t, 3, st.TotalRows)
	assert.Equal(t, "2025-02-01", st.LatestDateAdded)
	assert.Equal(t, 2, st.FallEntries)
	assert.InDelta(t, 33.33, st.PctInternational, 0.01)
	require.NotNil(t, st.AvgGPA)
	assert.InDelta(t, 3.07, *st.AvgGPA, 0.01)
	require.NotNil(t, st.AvgGREQuant)
	assert.InDelta(t, 164.0, *st.AvgGREQuant, 0.01)
	assert.Nil(t, st.AvgGREWriting, "no writing scores on file")

	assert.InDelta(t, 50.0, st.PctAcceptFall, 0.01)
	require.NotNil(t, st.AvgGPAAcceptFall)
	assert.InDelta(t, 3.8, *st.AvgGPAAcceptFall, 0.01)
	require.NotNil(t, st.AvgGPAAmericanFall)
	assert.InDelta(t, 3.8, *st.AvgGPAAmericanFall, 0.01,
		"only the in-window American row counts")
}

func TestComputeStats_EmptyTable(t *testing.T) {
	db := openTestDB(t)

	st, err := ComputeStats(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalRows)
	assert.Equal(t, 0, st.FallEntries)
	assert.Zero(t, st.PctInternational)
	assert.Nil(t, st.AvgGPA)
	assert.Nil(t, st.AvgGPAAcceptFall)
}
