package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"radindex/internal"
	"radindex/internal/schema"
)

// ExportDocumentToXLSX writes one sheet per category, named after the
// category key, with the header row in record field order.
func ExportDocumentToXLSX(doc *internal.Document, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for i, c := range schema.Categories {
		s := c.Schema()
		sheet := s.Key
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}

		fields := s.Fields()
		for col, h := range fields {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			_ = f.SetCellValue(sheet, cell, h)
		}
		for r, rec := range doc.Annexes[s.Key] {
			row := make([]any, len(fields))
			for col, field := range fields {
				row[col] = rec[field]
			}
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
		}
		_ = f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
