package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"radindex/internal"
	"radindex/internal/schema"
)

var errSheetMissing = errors.New("sheet not found")

// Workbook is an opened source document.
type Workbook struct {
	Filename string
	file     *excelize.File
}

// OpenWorkbook opens the xlsx at path. Any failure is reported as
// ErrDocumentUnavailable.
func OpenWorkbook(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentUnavailable, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDocumentUnavailable, path, err)
	}
	return &Workbook{Filename: filepath.Base(path), file: f}, nil
}

// OpenWorkbookReader opens an xlsx from r; filename drives metadata
// extraction.
func OpenWorkbookReader(r io.Reader, filename string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrDocumentUnavailable, filename, err)
	}
	return &Workbook{Filename: filepath.Base(filename), file: f}, nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

func (w *Workbook) SheetList() []string {
	return w.file.GetSheetList()
}

// LoadSheet reads a sheet: the first row is the header row, cleaned once
// with schema.CleanHeaders; every data row is padded to the header width.
// Cells past the last header get an empty header so that rows stay aligned.
// Data cells are typed: numbers as float64, date-formatted numbers as
// time.Time, time-of-day formats as "15:04" text, everything else as string.
func (w *Workbook) LoadSheet(name string) (internal.Sheet, error) {
	if idx, err := w.file.GetSheetIndex(name); err != nil || idx < 0 {
		return internal.Sheet{}, errSheetMissing
	}

	rows, err := w.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return internal.Sheet{}, err
	}
	if len(rows) == 0 {
		return internal.Sheet{}, fmt.Errorf("sheet %s is empty", name)
	}

	headers := schema.CleanHeaders(rows[0])
	width := len(headers)
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	for len(headers) < width {
		headers = append(headers, "")
	}

	cr := w.newCellReader(name)
	out := internal.Sheet{
		Name:    name,
		Headers: headers,
		Rows:    make([][]any, 0, len(rows)-1),
	}
	for r, row := range rows[1:] {
		cells := make([]any, width)
		for c, v := range row {
			if v == "" {
				continue
			}
			cells[c] = cr.value(c+1, r+2, v)
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}
