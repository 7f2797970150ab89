package schema

import (
	"strings"

	"radindex/internal"
	"radindex/internal/util"
)

const searchSeparator = " | "

// MapResult is the outcome of mapping one sheet.
type MapResult struct {
	Records []internal.Record
	// Skipped counts rows without an identifier.
	Skipped int
	// IDResolved is false when the sheet has no identifier column at all.
	IDResolved bool
	// MissingColumns lists bound columns the sheet does not carry.
	MissingColumns []string
}

// SearchableText joins the non-empty cell values of row in column order with
// " | " and upper-cases the result.
func SearchableText(row []any) string {
	parts := make([]string, 0, len(row))
	for _, cell := range row {
		if v := util.SafeString(cell); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.ToUpper(strings.Join(parts, searchSeparator))
}

// MapSheet turns every identified row of sheet into a record of schema s.
// Rows whose identifier is empty are dropped. Declared fields whose column
// is absent from the sheet are emitted as "".
func MapSheet(s Schema, sheet internal.Sheet) MapResult {
	result := MapResult{Records: []internal.Record{}}

	idIdx := resolveIndex(s.IDColumn, sheet.Headers)
	result.IDResolved = idIdx >= 0

	columns := make([]int, len(s.Bindings))
	for i, b := range s.Bindings {
		columns[i] = resolveIndex(b.Column, sheet.Headers)
		if columns[i] < 0 {
			result.MissingColumns = append(result.MissingColumns, b.Column)
		}
	}

	if idIdx < 0 {
		result.Skipped = len(sheet.Rows)
		return result
	}

	for _, row := range sheet.Rows {
		id := util.SafeString(cellAt(row, idIdx))
		if id == "" {
			result.Skipped++
			continue
		}

		rec := make(internal.Record, len(s.Bindings)+4)
		rec[FieldID] = id
		for i, b := range s.Bindings {
			rec[b.Field] = util.SafeString(cellAt(row, columns[i]))
		}
		rec[FieldAnnex] = s.Annex
		rec[FieldType] = s.Type
		rec[FieldSearchableText] = SearchableText(row)

		result.Records = append(result.Records, rec)
	}

	return result
}

func cellAt(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}
