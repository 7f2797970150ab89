package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"radindex/internal"
	"radindex/internal/logging"
	"radindex/internal/schema"
	"radindex/internal/util"
)

type Options struct {
	// Prefix is the literal file-name prefix used for metadata extraction.
	Prefix     string
	SheetNames schema.SheetNames
	// Workers bounds concurrent sheet mapping. 1 maps sequentially.
	Workers int
	Now     func() time.Time
}

// CategoryReport summarizes one category of a transform.
type CategoryReport struct {
	Key            string
	Sheet          string
	Loaded         bool
	Records        int
	Skipped        int
	MissingColumns []string
}

type Report struct {
	Filename   string
	Detect     DetectResult
	Categories []CategoryReport
	Warnings   []string
	Duration   time.Duration
}

// Transformer turns a RAD workbook into an internal.Document.
type Transformer struct {
	opts Options
}

func NewTransformer(opts Options) *Transformer {
	if opts.Prefix == "" {
		opts.Prefix = "RAD"
	}
	if opts.SheetNames == nil {
		opts.SheetNames = schema.DefaultSheetNames()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Transformer{opts: opts}
}

// Transform reads the workbook at path. Only an unavailable document is an
// error; sheet level problems end up in Report.Warnings.
func (t *Transformer) Transform(ctx context.Context, path string) (*internal.Document, Report, error) {
	wb, err := OpenWorkbook(path)
	if err != nil {
		return nil, Report{}, err
	}
	defer wb.Close()
	return t.TransformWorkbook(ctx, wb)
}

func (t *Transformer) TransformWorkbook(ctx context.Context, wb *Workbook) (*internal.Document, Report, error) {
	start := time.Now()
	log := logging.WithFields(ctx, "file", wb.Filename)

	report := Report{
		Filename:   wb.Filename,
		Categories: make([]CategoryReport, len(schema.Categories)),
	}
	warn := func(msg string, args ...any) {
		report.Warnings = append(report.Warnings, fmt.Sprintf(msg, args...))
	}

	parsed := util.ParseFilename(t.opts.Prefix, wb.Filename)
	if !parsed.Matched {
		warn("file name %q does not match %s_<cycle>_v<major>_<minor>", wb.Filename, t.opts.Prefix)
	}

	report.Detect = DetectWorkbook(wb.SheetList(), t.opts.SheetNames)
	if !report.Detect.IsRAD {
		warn("workbook does not look like a RAD document (%d of %d sheets present)",
			len(report.Detect.Present), len(schema.Categories))
	}

	sheets := make([]internal.Sheet, len(schema.Categories))
	loaded := make([]bool, len(schema.Categories))
	for i, c := range schema.Categories {
		name := t.opts.SheetNames[c]
		report.Categories[i] = CategoryReport{Key: c.String(), Sheet: name}

		sheet, err := wb.LoadSheet(name)
		if err != nil {
			serr := &SheetError{Sheet: name, Category: c.String(), Err: err}
			if errors.Is(err, errSheetMissing) {
				log.Warn("sheet missing", "sheet", name, "category", c.String())
			} else {
				log.Warn("sheet unreadable", "sheet", name, "category", c.String(), "err", err)
			}
			warn("%v", serr)
			continue
		}
		sheets[i] = sheet
		loaded[i] = true
	}

	results := make([]schema.MapResult, len(schema.Categories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.Workers)
	for i, c := range schema.Categories {
		if !loaded[i] {
			results[i] = schema.MapResult{Records: []internal.Record{}}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = schema.MapSheet(c.Schema(), sheets[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, report, err
	}

	parsedAt := t.opts.Now().UTC().Format(time.RFC3339)
	doc := &internal.Document{
		Metadata: internal.Metadata{
			Cycle:    parsed.Cycle,
			Version:  parsed.Version,
			Filename: wb.Filename,
			ParsedAt: parsedAt,
		},
		Annexes: make(map[string][]internal.Record, len(schema.Categories)),
		Stats: internal.Stats{
			ParsedAt: parsedAt,
			ByAnnex:  make(map[string]int, len(schema.Categories)),
		},
	}

	for i, c := range schema.Categories {
		res := results[i]
		key := c.String()
		doc.Annexes[key] = res.Records
		doc.Stats.ByAnnex[key] = len(res.Records)
		doc.Stats.TotalEntries += len(res.Records)

		cr := &report.Categories[i]
		cr.Loaded = loaded[i]
		cr.Records = len(res.Records)
		cr.Skipped = res.Skipped
		cr.MissingColumns = res.MissingColumns

		if !loaded[i] {
			continue
		}
		if !res.IDResolved {
			warn("%s: no %q column in sheet %q", key, c.Schema().IDColumn, cr.Sheet)
		}
		if len(res.MissingColumns) > 0 {
			log.Debug("columns not found", "category", key, "columns", res.MissingColumns)
		}
	}

	report.Duration = time.Since(start)
	for _, w := range report.Warnings {
		log.Warn(w)
	}
	log.Info("transform done",
		"cycle", doc.Metadata.Cycle,
		"version", doc.Metadata.Version,
		"total_entries", doc.Stats.TotalEntries,
		"warnings", len(report.Warnings),
		"duration_ms", report.Duration.Milliseconds(),
	)
	for _, cr := range report.Categories {
		log.Debug("category", "key", cr.Key, "sheet", cr.Sheet, "records", cr.Records, "skipped", cr.Skipped)
	}

	return doc, report, nil
}
