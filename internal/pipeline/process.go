package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"radindex/internal"
	"radindex/internal/config"
	"radindex/internal/logging"
	"radindex/internal/schema"
	"radindex/internal/storage"
)

// CurrentOutput is the file name the current revision is published under.
const CurrentOutput = "rad-data.json"

// NewTransformerFromConfig builds a Transformer from env configuration,
// applying the optional sheet-name override file.
func NewTransformerFromConfig(cfg config.Config) (*Transformer, error) {
	overrides, err := config.LoadSheetNames(cfg.SheetsFile)
	if err != nil {
		return nil, err
	}
	names, err := schema.DefaultSheetNames().WithOverrides(overrides)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.SheetsFile, err)
	}
	return NewTransformer(Options{
		Prefix:     cfg.FilePrefix,
		SheetNames: names,
		Workers:    cfg.ParseWorkers,
	}), nil
}

type ProcessingService struct {
	db          *storage.DB
	cfg         config.Config
	transformer *Transformer
}

func NewProcessingService(db *storage.DB, cfg config.Config) (*ProcessingService, error) {
	t, err := NewTransformerFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &ProcessingService{db: db, cfg: cfg, transformer: t}, nil
}

type ProcessResult struct {
	RunID string
	// Kind is the ledger revision kind, empty for ad hoc files.
	Kind     string
	Input    string
	Output   string
	Document *internal.Document
	Report   Report
}

// ProcessFile parses input into output and records the run in the ledger,
// failed runs included.
func (s *ProcessingService) ProcessFile(ctx context.Context, input, output string) (ProcessResult, error) {
	start := time.Now()
	res := ProcessResult{RunID: uuid.NewString(), Input: input, Output: output}

	doc, report, err := ParseFile(ctx, s.transformer, input, output, s.cfg.JSONIndent)
	res.Report = report

	run := internal.RunRow{
		RunID:      res.RunID,
		Filename:   filepath.Base(input),
		OutputPath: output,
		Warnings:   report.Warnings,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		run.Status = internal.RunFailed
		run.Error = err.Error()
		if dbErr := s.db.InsertRun(run); dbErr != nil {
			logging.FromContext(ctx).Error("record failed run", "run_id", run.RunID, "err", dbErr)
		}
		return res, err
	}

	res.Document = doc
	run.Status = internal.RunOK
	run.Cycle = doc.Metadata.Cycle
	run.Version = doc.Metadata.Version
	run.TotalEntries = doc.Stats.TotalEntries
	run.ByAnnex = doc.Stats.ByAnnex
	if err := s.db.InsertRun(run); err != nil {
		return res, fmt.Errorf("record run: %w", err)
	}
	return res, nil
}

// ProcessPending parses every ledger revision without a successful run into
// OUTPUT_DIR/<name>.json. The current revision is also published as
// rad-data.json. A failing revision is logged and the others still run.
func (s *ProcessingService) ProcessPending(ctx context.Context) ([]ProcessResult, error) {
	revs, err := s.db.ListRevisions()
	if err != nil {
		return nil, err
	}

	var out []ProcessResult
	for _, rev := range revs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		last, err := s.db.LastRunForFile(rev.Filename, internal.RunOK)
		if err != nil {
			return out, err
		}
		if last != nil {
			continue
		}

		log := logging.WithFields(ctx, "file", rev.Filename, "kind", rev.Kind)
		output := filepath.Join(s.cfg.OutputDir, strings.TrimSuffix(rev.Filename, filepath.Ext(rev.Filename))+".json")
		res, err := s.ProcessFile(ctx, rev.Path, output)
		if err != nil {
			log.Error("parse failed", "err", err)
			continue
		}
		res.Kind = rev.Kind
		if rev.Kind == string(internal.RevisionCurrent) {
			if err := s.PublishCurrent(res.Document); err != nil {
				return out, err
			}
			log.Info("published current revision", "path", filepath.Join(s.cfg.OutputDir, CurrentOutput))
		}
		out = append(out, res)
	}
	return out, nil
}

// PublishCurrent writes doc as OUTPUT_DIR/rad-data.json.
func (s *ProcessingService) PublishCurrent(doc *internal.Document) error {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return err
	}
	return WriteDocument(doc, filepath.Join(s.cfg.OutputDir, CurrentOutput), s.cfg.JSONIndent)
}
