package pipeline

import (
	"strings"

	"radindex/internal/schema"
)

type DetectResult struct {
	IsRAD   bool
	Score   float64
	Present []string
	Missing []string
	// Extra lists workbook sheets no category reads from.
	Extra []string
}

// DetectWorkbook scores how well a workbook's sheet list matches the
// configured category sheets. Sheet names are compared case-insensitively
// after trimming.
func DetectWorkbook(sheetList []string, names schema.SheetNames) DetectResult {
	have := make(map[string]bool, len(sheetList))
	for _, s := range sheetList {
		have[foldSheet(s)] = true
	}

	var res DetectResult
	wanted := make(map[string]bool, len(names))
	for _, c := range schema.Categories {
		name := names[c]
		wanted[foldSheet(name)] = true
		if have[foldSheet(name)] {
			res.Present = append(res.Present, name)
		} else {
			res.Missing = append(res.Missing, name)
		}
	}
	for _, s := range sheetList {
		if !wanted[foldSheet(s)] {
			res.Extra = append(res.Extra, s)
		}
	}

	if len(schema.Categories) > 0 {
		res.Score = float64(len(res.Present)) / float64(len(schema.Categories))
	}
	res.IsRAD = res.Score >= 0.45
	return res
}

func foldSheet(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
