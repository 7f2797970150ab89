package listener

import (
	"context"
	"time"

	"radindex/internal"
	"radindex/internal/config"
	"radindex/internal/logging"
	"radindex/internal/pipeline"
	"radindex/internal/source"
	"radindex/internal/storage"
)

// Service periodically downloads new RAD revisions and rebuilds their JSON
// documents. OnPublish, when set, receives every newly parsed current
// revision.
type Service struct {
	db         *storage.DB
	cfg        config.Config
	downloader *source.DownloadService
	processor  *pipeline.ProcessingService

	OnPublish func(*internal.Document)
}

func NewService(db *storage.DB, cfg config.Config) (*Service, error) {
	processor, err := pipeline.NewProcessingService(db, cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		db:         db,
		cfg:        cfg,
		downloader: source.NewDownloadService(db, cfg),
		processor:  processor,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.WatchIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}

	for {
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logging.FromContext(ctx).Error("watch cycle error", "err", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// RunCycle downloads, then parses whatever the ledger has not parsed yet.
// A failed download still lets previously downloaded revisions be parsed.
func (s *Service) RunCycle(ctx context.Context) error {
	log := logging.WithFields(ctx, "component", "watcher")

	var downloadErr error
	meta, err := s.downloader.DownloadAll(ctx, false)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		downloadErr = err
		log.Warn("download step failed", "err", err)
	}

	results, err := s.processor.ProcessPending(ctx)
	if err != nil {
		return err
	}

	for _, res := range results {
		if s.OnPublish != nil && res.Kind == string(internal.RevisionCurrent) {
			s.OnPublish(res.Document)
		}
	}

	log.Info("watch cycle done", "parsed", len(results), "last_update", meta.LastUpdate)
	return downloadErr
}
