package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radindex/internal/schema"
)

var fixedNow = func() time.Time { return time.Date(2025, 11, 3, 8, 30, 0, 0, time.UTC) }

func annex2B() sheetRows {
	return sheetRows{name: "Annex 2B", rows: [][]any{
		{"Change Ind.", "ID", "Airway", "From", "To", "Valid From", "Remarks", "NAS/FAB"},
		{"NEW", "LF001", "UN852", "ROTOS", "DIBAG", "2025-11-27", "Not available", "France"},
		{nil, nil, "UN853", "KONAN", nil, nil, "orphan row", nil},
	}}
}

func fullWorkbook() []sheetRows {
	sheets := []sheetRows{annex2B()}
	for _, c := range schema.Categories {
		s := c.Schema()
		if c == schema.CapacityRule {
			continue
		}
		sheets = append(sheets, sheetRows{name: s.Sheet, rows: [][]any{{s.IDColumn, "Remarks"}}})
	}
	return sheets
}

func TestTransformEndToEnd(t *testing.T) {
	path := writeXLSX(t, t.TempDir(), "RAD_2511_v1_17.xlsx", annex2B())

	tr := NewTransformer(Options{Now: fixedNow})
	doc, report, err := tr.Transform(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "2511", doc.Metadata.Cycle)
	assert.Equal(t, "1.17", doc.Metadata.Version)
	assert.Equal(t, "RAD_2511_v1_17.xlsx", doc.Metadata.Filename)
	assert.Equal(t, "2025-11-03T08:30:00Z", doc.Metadata.ParsedAt)
	assert.Equal(t, doc.Metadata.ParsedAt, doc.Stats.ParsedAt)

	require.Len(t, doc.Annexes, len(schema.Categories))
	rules := doc.Annexes["annex2b_rules"]
	require.Len(t, rules, 1)
	rec := rules[0]
	assert.Equal(t, "LF001", rec["id"])
	assert.Equal(t, "UN852", rec["airway"])
	assert.Equal(t, "ROTOS", rec["from_point"])
	assert.Equal(t, "DIBAG", rec["to_point"])
	assert.Equal(t, "2025-11-27", rec["valid_from"])
	assert.Equal(t, "", rec["valid_until"])
	assert.Equal(t, "2B", rec["annex"])
	assert.Equal(t, "Capacity & Structural Rule", rec["type"])
	assert.Equal(t, "NEW | LF001 | UN852 | ROTOS | DIBAG | 2025-11-27 | NOT AVAILABLE | FRANCE", rec["searchable_text"])

	for key, list := range doc.Annexes {
		if key != "annex2b_rules" {
			assert.Empty(t, list, key)
			assert.NotNil(t, list, key)
		}
	}

	assert.Equal(t, 1, doc.Stats.TotalEntries)
	assert.Equal(t, 1, doc.Stats.ByAnnex["annex2b_rules"])
	assert.Len(t, doc.Stats.ByAnnex, len(schema.Categories))

	// Eight missing sheets plus the detection warning.
	assert.Len(t, report.Warnings, len(schema.Categories))
	assert.False(t, report.Detect.IsRAD)
	var capacity CategoryReport
	for _, cr := range report.Categories {
		if cr.Key == "annex2b_rules" {
			capacity = cr
		}
	}
	assert.True(t, capacity.Loaded)
	assert.Equal(t, 1, capacity.Records)
	assert.Equal(t, 1, capacity.Skipped)
}

func TestTransformTotalsMatch(t *testing.T) {
	path := writeXLSX(t, t.TempDir(), "RAD_2511_v1_17.xlsx", fullWorkbook()...)

	doc, report, err := NewTransformer(Options{Now: fixedNow}).Transform(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)
	assert.True(t, report.Detect.IsRAD)

	sumByAnnex, sumLists := 0, 0
	for key, n := range doc.Stats.ByAnnex {
		sumByAnnex += n
		sumLists += len(doc.Annexes[key])
	}
	assert.Equal(t, doc.Stats.TotalEntries, sumByAnnex)
	assert.Equal(t, doc.Stats.TotalEntries, sumLists)
	assert.Equal(t, 1, doc.Stats.TotalEntries)
}

func TestTransformZeroRows(t *testing.T) {
	var sheets []sheetRows
	for _, c := range schema.Categories {
		s := c.Schema()
		sheets = append(sheets, sheetRows{name: s.Sheet, rows: [][]any{{s.IDColumn}}})
	}
	path := writeXLSX(t, t.TempDir(), "RAD_2512_v2_0.xlsx", sheets...)

	doc, _, err := NewTransformer(Options{Now: fixedNow}).Transform(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Stats.TotalEntries)
	for _, c := range schema.Categories {
		assert.Equal(t, 0, doc.Stats.ByAnnex[c.String()])
	}

	blob, err := MarshalDocument(doc, 0)
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"annex1_areas":[]`)
}

func TestTransformIdempotent(t *testing.T) {
	path := writeXLSX(t, t.TempDir(), "RAD_2511_v1_17.xlsx", fullWorkbook()...)

	first, _, err := NewTransformer(Options{Now: fixedNow}).Transform(context.Background(), path)
	require.NoError(t, err)
	later := func() time.Time { return fixedNow().Add(time.Hour) }
	second, _, err := NewTransformer(Options{Now: later, Workers: 4}).Transform(context.Background(), path)
	require.NoError(t, err)

	assert.NotEqual(t, first.Metadata.ParsedAt, second.Metadata.ParsedAt)
	second.Metadata.ParsedAt = first.Metadata.ParsedAt
	second.Stats.ParsedAt = first.Stats.ParsedAt

	a, err := MarshalDocument(first, 2)
	require.NoError(t, err)
	b, err := MarshalDocument(second, 2)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b))
}

func TestTransformUnknownFilename(t *testing.T) {
	path := writeXLSX(t, t.TempDir(), "garbage.xlsx", annex2B())

	doc, report, err := NewTransformer(Options{Now: fixedNow}).Transform(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "unknown", doc.Metadata.Cycle)
	assert.Equal(t, "0.0", doc.Metadata.Version)
	assert.Equal(t, 1, doc.Stats.TotalEntries)
	assert.True(t, strings.Contains(strings.Join(report.Warnings, "\n"), "garbage.xlsx"))
}

func TestTransformSheetOverride(t *testing.T) {
	sheet := annex2B()
	sheet.name = "RAD 2B"
	path := writeXLSX(t, t.TempDir(), "RAD_2511_v1_17.xlsx", sheet)

	names, err := schema.DefaultSheetNames().WithOverrides(map[string]string{"annex2b_rules": "RAD 2B"})
	require.NoError(t, err)
	doc, _, err := NewTransformer(Options{SheetNames: names, Now: fixedNow}).Transform(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, doc.Annexes["annex2b_rules"], 1)
}

func TestTransformMissingDocument(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.json")

	doc, _, err := ParseFile(context.Background(), NewTransformer(Options{}), filepath.Join(dir, "RAD_2511_v1_17.xlsx"), out, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDocumentUnavailable))
	assert.Nil(t, doc)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "nothing written")
}

func TestTransformCancelled(t *testing.T) {
	path := writeXLSX(t, t.TempDir(), "RAD_2511_v1_17.xlsx", annex2B())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewTransformer(Options{}).Transform(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFileWritesJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeXLSX(t, dir, "RAD_2511_v1_17.xlsx", annex2B())
	out := filepath.Join(dir, "json", "rad.json")

	_, _, err := ParseFile(context.Background(), NewTransformer(Options{Now: fixedNow}), path, out, 2)
	require.NoError(t, err)

	blob, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(blob), "Capacity & Structural Rule")
	assert.Contains(t, string(blob), "\n  \"annexes\": {")

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file left behind")

	doc, err := ReadDocument(out)
	require.NoError(t, err)
	assert.Equal(t, "LF001", doc.Annexes["annex2b_rules"][0]["id"])
}

func TestTransformTypedCells(t *testing.T) {
	sheet := sheetRows{name: "Annex 2B", rows: [][]any{
		{"Change Ind.", "ID", "From", "To", "Utilization", "Valid From", "Valid Until"},
		{"NEW", 1234, "ROTOS", "DIBAG", 3.5, time.Date(2025, 11, 27, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 22, 14, 30, 0, 0, time.UTC)},
		{nil, "   ", "KONAN", nil, nil, nil, nil},
	}}
	path := writeXLSX(t, t.TempDir(), "RAD_2511_v1_17.xlsx", sheet)

	doc, report, err := NewTransformer(Options{Now: fixedNow}).Transform(context.Background(), path)
	require.NoError(t, err)

	rules := doc.Annexes["annex2b_rules"]
	require.Len(t, rules, 1)
	rec := rules[0]
	assert.Equal(t, "1234", rec["id"])
	assert.Equal(t, "3.5", rec["utilization"])
	assert.Equal(t, "2025-11-27", rec["valid_from"])
	assert.Equal(t, "2026-01-22 14:30:00", rec["valid_until"])
	assert.Equal(t, "NEW | 1234 | ROTOS | DIBAG | 3.5 | 2025-11-27 | 2026-01-22 14:30:00", rec["searchable_text"])

	for _, cr := range report.Categories {
		if cr.Key == "annex2b_rules" {
			assert.Equal(t, 1, cr.Skipped)
		}
	}
}
