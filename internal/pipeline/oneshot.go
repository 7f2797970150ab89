package pipeline

import (
	"context"
	"fmt"

	"radindex/internal"
)

// ParseFile transforms input and writes the JSON document to output.
// Nothing is written when the transform fails.
func ParseFile(ctx context.Context, t *Transformer, input, output string, indent int) (*internal.Document, Report, error) {
	doc, report, err := t.Transform(ctx, input)
	if err != nil {
		return nil, report, err
	}
	if err := WriteDocument(doc, output, indent); err != nil {
		return nil, report, fmt.Errorf("write %s: %w", output, err)
	}
	return doc, report, nil
}
