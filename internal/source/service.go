package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"radindex/internal"
	"radindex/internal/config"
	"radindex/internal/logging"
	"radindex/internal/storage"
)

// MetadataFile is written next to the downloaded workbooks.
const MetadataFile = "rad_downloads_metadata.json"

const lastDownloadKey = "rad.last_download"

var ErrNoRevisions = errors.New("no RAD revision links found on page")

type DownloadedFile struct {
	Path          string  `json:"path"`
	Cycle         string  `json:"cycle"`
	Version       string  `json:"version"`
	EffectiveDate *string `json:"effective_date"`
	DownloadedAt  string  `json:"downloaded_at"`
	SizeMB        float64 `json:"size_mb"`
	// Skipped is set when the file was already in the ledger and on disk.
	Skipped bool `json:"-"`
}

// DownloadsMetadata mirrors the content of MetadataFile. Files holds the
// current and future slots, null when that slot failed or was absent.
type DownloadsMetadata struct {
	LastUpdate string                     `json:"last_update"`
	Files      map[string]*DownloadedFile `json:"files"`
}

type DownloadService struct {
	db     *storage.DB
	client *Client
	cfg    config.Config
}

func NewDownloadService(db *storage.DB, cfg config.Config) *DownloadService {
	return &DownloadService{db: db, client: NewClient(cfg), cfg: cfg}
}

// DownloadAll discovers the published revisions, downloads those not yet in
// the ledger (all of them when force is set), records them and rewrites the
// metadata file. A failed download is logged and leaves its slot empty.
func (s *DownloadService) DownloadAll(ctx context.Context, force bool) (DownloadsMetadata, error) {
	log := logging.WithFields(ctx, "component", "downloader", "dir", s.cfg.RawDir)

	revs, err := s.client.DiscoverRevisions(ctx)
	if err != nil {
		return DownloadsMetadata{}, err
	}
	if len(revs) == 0 {
		return DownloadsMetadata{}, ErrNoRevisions
	}

	meta := DownloadsMetadata{
		Files: map[string]*DownloadedFile{
			string(internal.RevisionCurrent): nil,
			string(internal.RevisionFuture):  nil,
		},
	}

	for _, rev := range revs {
		log.Info("revision found", "kind", rev.Kind, "cycle", rev.Cycle, "version", rev.Version)
		file, err := s.fetch(ctx, log, rev, force)
		if err != nil {
			if ctx.Err() != nil {
				return meta, ctx.Err()
			}
			log.Warn("download failed", "kind", rev.Kind, "file", rev.Filename, "err", err)
			continue
		}
		meta.Files[string(rev.Kind)] = file
	}

	meta.LastUpdate = time.Now().UTC().Format(time.RFC3339)
	if err := writeMetadata(filepath.Join(s.cfg.RawDir, MetadataFile), meta); err != nil {
		return meta, fmt.Errorf("write %s: %w", MetadataFile, err)
	}
	if err := s.db.SetMetadata(lastDownloadKey, meta.LastUpdate); err != nil {
		log.Warn("record last download failed", "err", err)
	}

	return meta, nil
}

func (s *DownloadService) fetch(ctx context.Context, log *slog.Logger, rev internal.Revision, force bool) (*DownloadedFile, error) {
	if !force {
		existing, err := s.db.GetRevisionByFilename(rev.Filename)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if st, err := os.Stat(existing.Path); err == nil && st.Size() == existing.SizeBytes && st.Size() > 0 {
				log.Info("already downloaded", "file", rev.Filename)
				if existing.Kind != string(rev.Kind) {
					existing.Kind = string(rev.Kind)
					if _, err := s.db.UpsertRevision(*existing); err != nil {
						return nil, err
					}
				}
				return &DownloadedFile{
					Path:          existing.Path,
					Cycle:         existing.Cycle,
					Version:       existing.Version,
					EffectiveDate: existing.EffectiveDate,
					DownloadedAt:  existing.DownloadedAt,
					SizeMB:        sizeMB(existing.SizeBytes),
					Skipped:       true,
				}, nil
			}
		}
	}

	path, size, err := s.client.Download(ctx, rev, s.cfg.RawDir, func(p Progress) {
		log.Debug("download progress", "file", p.Filename, "percent", p.Percent, "bytes", p.Bytes, "total", p.Total)
	})
	if err != nil {
		return nil, err
	}

	row, err := s.db.UpsertRevision(internal.RevisionRow{
		Kind:          string(rev.Kind),
		Cycle:         rev.Cycle,
		Version:       rev.Version,
		URL:           rev.URL,
		Filename:      rev.Filename,
		Path:          path,
		EffectiveDate: rev.EffectiveDate,
		SizeBytes:     size,
	})
	if err != nil {
		return nil, err
	}

	log.Info("downloaded", "file", rev.Filename, "size_mb", sizeMB(size))
	return &DownloadedFile{
		Path:          path,
		Cycle:         rev.Cycle,
		Version:       rev.Version,
		EffectiveDate: rev.EffectiveDate,
		DownloadedAt:  row.DownloadedAt,
		SizeMB:        sizeMB(size),
	}, nil
}

func sizeMB(n int64) float64 {
	return math.Round(float64(n)/1024/1024*100) / 100
}

func writeMetadata(path string, meta DownloadsMetadata) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

// ReadDownloadsMetadata loads the metadata file written by DownloadAll.
func ReadDownloadsMetadata(dir string) (DownloadsMetadata, error) {
	var meta DownloadsMetadata
	blob, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(blob, &meta)
	return meta, err
}
