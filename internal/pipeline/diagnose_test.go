package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radindex/internal/schema"
)

func TestDiagnose(t *testing.T) {
	path := writeXLSX(t, t.TempDir(), "RAD_2511_v1_19.xlsx", sheetRows{name: "Annex 3A ARR", rows: [][]any{
		{"ARR ID", "ARR AD", "ARR Time\nApplicability", "First PT STAR /\nSTAR ID"},
		{"LF5834", "LFPG", "H24", "ROTOS"},
		{" LF5835 ", "LFPO", "H24", "DIBAG"},
		{nil, "LFPO", "H24", "KONAN"},
	}})

	d, err := Diagnose(path, schema.AerodromeArrival, "", "lf5835")
	require.NoError(t, err)

	assert.Equal(t, "annex3a_arrivals", d.Category)
	assert.Equal(t, "Annex 3A ARR", d.Sheet)
	assert.Equal(t, 3, d.Rows)
	assert.Equal(t, "ARR ID", d.IDHeader)
	assert.Equal(t, 2, d.RowsWithID)
	assert.Equal(t, 1, d.RowsWithoutID)
	assert.Equal(t, []string{"LF5834", "LF5835"}, d.SampleIDs)

	require.Len(t, d.Matches, 1)
	assert.Equal(t, 3, d.Matches[0].Line)
	assert.Equal(t, "LFPO", d.Matches[0].Values["ARR AD"])

	resolved := map[string]string{}
	for _, b := range d.Resolved {
		resolved[b.Field] = b.Header
	}
	assert.Equal(t, "ARR Time Applicability", resolved["time_applicability"])
	assert.Equal(t, "First PT STAR / STAR ID", resolved["first_pt_star"])
	assert.NotEmpty(t, d.Missing)
	assert.Contains(t, d.Summary(), "rows with id: 2, without id: 1")
}

func TestDiagnoseMissingSheet(t *testing.T) {
	path := writeXLSX(t, t.TempDir(), "RAD_2511_v1_19.xlsx", annex2B())

	_, err := Diagnose(path, schema.AerodromeArrival, "", "")
	var serr *SheetError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "Annex 3A ARR", serr.Sheet)
}
