package pipeline

import (
	"fmt"
	"strings"

	"radindex/internal/schema"
	"radindex/internal/util"
)

type ColumnBinding struct {
	Field  string `json:"field"`
	Column string `json:"column"`
	Header string `json:"header,omitempty"`
}

// RowMatch is a sheet row whose id contains the searched value. Line is the
// spreadsheet line number (header is line 1).
type RowMatch struct {
	Line   int               `json:"line"`
	Values map[string]string `json:"values"`
}

// Diagnosis explains how a category's sheet maps onto its schema.
type Diagnosis struct {
	Category      string          `json:"category"`
	Sheet         string          `json:"sheet"`
	Rows          int             `json:"rows"`
	Headers       []string        `json:"headers"`
	IDHeader      string          `json:"id_header,omitempty"`
	Resolved      []ColumnBinding `json:"resolved"`
	Missing       []ColumnBinding `json:"missing"`
	RowsWithID    int             `json:"rows_with_id"`
	RowsWithoutID int             `json:"rows_without_id"`
	SampleIDs     []string        `json:"sample_ids"`
	Matches       []RowMatch      `json:"matches,omitempty"`
}

// Diagnose loads the sheet of category c from the workbook at path and
// reports column resolution and id coverage. When find is not empty, rows
// whose id contains it are returned in full.
func Diagnose(path string, c schema.Category, sheetName, find string) (Diagnosis, error) {
	s := c.Schema()
	if sheetName == "" {
		sheetName = s.Sheet
	}

	wb, err := OpenWorkbook(path)
	if err != nil {
		return Diagnosis{}, err
	}
	defer wb.Close()

	sheet, err := wb.LoadSheet(sheetName)
	if err != nil {
		return Diagnosis{}, &SheetError{Sheet: sheetName, Category: s.Key, Err: err}
	}

	d := Diagnosis{
		Category:  s.Key,
		Sheet:     sheetName,
		Rows:      len(sheet.Rows),
		Headers:   sheet.Headers,
		Resolved:  []ColumnBinding{},
		Missing:   []ColumnBinding{},
		SampleIDs: []string{},
	}

	for _, b := range s.Bindings {
		if h, ok := schema.ResolveColumn(b.Column, sheet.Headers); ok {
			d.Resolved = append(d.Resolved, ColumnBinding{Field: b.Field, Column: b.Column, Header: h})
		} else {
			d.Missing = append(d.Missing, ColumnBinding{Field: b.Field, Column: b.Column})
		}
	}

	idHeader, ok := schema.ResolveColumn(s.IDColumn, sheet.Headers)
	if !ok {
		d.RowsWithoutID = len(sheet.Rows)
		return d, nil
	}
	d.IDHeader = idHeader
	idIdx := indexOf(sheet.Headers, idHeader)

	needle := strings.ToUpper(strings.TrimSpace(find))
	for i, row := range sheet.Rows {
		var id string
		if idIdx < len(row) {
			id = util.SafeString(row[idIdx])
		}
		if id == "" {
			d.RowsWithoutID++
			continue
		}
		d.RowsWithID++
		if len(d.SampleIDs) < 10 {
			d.SampleIDs = append(d.SampleIDs, id)
		}
		if needle != "" && strings.Contains(strings.ToUpper(id), needle) {
			d.Matches = append(d.Matches, RowMatch{Line: i + 2, Values: rowValues(sheet.Headers, row)})
		}
	}
	return d, nil
}

// Summary is a short human readable form of d.
func (d Diagnosis) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (sheet %q): %d rows, %d columns\n", d.Category, d.Sheet, d.Rows, len(d.Headers))
	if d.IDHeader == "" {
		b.WriteString("  id column: not found\n")
	} else {
		fmt.Fprintf(&b, "  id column: %q\n", d.IDHeader)
	}
	fmt.Fprintf(&b, "  rows with id: %d, without id: %d\n", d.RowsWithID, d.RowsWithoutID)
	for _, m := range d.Missing {
		fmt.Fprintf(&b, "  missing column: %q (%s)\n", m.Column, m.Field)
	}
	return b.String()
}

func rowValues(headers []string, row []any) map[string]string {
	out := make(map[string]string)
	for i, h := range headers {
		if i >= len(row) {
			break
		}
		if v := util.SafeString(row[i]); v != "" {
			key := h
			if key == "" {
				key = fmt.Sprintf("column_%d", i+1)
			}
			out[key] = v
		}
	}
	return out
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
