package pipeline

import (
	"errors"
	"fmt"
)

// ErrDocumentUnavailable means the source workbook is missing or cannot be
// opened. It is the only failure that aborts a transform.
var ErrDocumentUnavailable = errors.New("document unavailable")

// SheetError reports a sheet that could not be loaded. The transform keeps
// going and emits an empty list for the category.
type SheetError struct {
	Sheet    string
	Category string
	Err      error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("sheet %q (%s): %v", e.Sheet, e.Category, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}
