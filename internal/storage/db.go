package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"radindex/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS revisions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  kind TEXT NOT NULL,
  cycle TEXT NOT NULL,
  version TEXT NOT NULL,
  url TEXT NOT NULL,
  filename TEXT NOT NULL UNIQUE,
  path TEXT NOT NULL,
  effectiveDate TEXT,
  sizeBytes INTEGER NOT NULL DEFAULT 0,
  downloadedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_revisions_cycle ON revisions(cycle);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL,
  error TEXT,
  filename TEXT NOT NULL,
  cycle TEXT NOT NULL,
  version TEXT NOT NULL,
  outputPath TEXT NOT NULL,
  totalEntries INTEGER NOT NULL DEFAULT 0,
  byAnnexJson TEXT NOT NULL,
  warningsJson TEXT NOT NULL,
  durationMs INTEGER NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_filename ON runs(filename);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// UpsertRevision records a downloaded revision, keyed by file name.
func (d *DB) UpsertRevision(rev internal.RevisionRow) (internal.RevisionRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO revisions (kind, cycle, version, url, filename, path, effectiveDate, sizeBytes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(filename) DO UPDATE SET
  kind=excluded.kind,
  cycle=excluded.cycle,
  version=excluded.version,
  url=excluded.url,
  path=excluded.path,
  effectiveDate=excluded.effectiveDate,
  sizeBytes=excluded.sizeBytes,
  downloadedAt=CURRENT_TIMESTAMP
`, rev.Kind, rev.Cycle, rev.Version, rev.URL, rev.Filename, rev.Path, rev.EffectiveDate, rev.SizeBytes)
	if err != nil {
		return internal.RevisionRow{}, err
	}

	row, err := d.GetRevisionByFilename(rev.Filename)
	if err != nil {
		return internal.RevisionRow{}, err
	}
	if row == nil {
		return internal.RevisionRow{}, errors.New("failed to upsert revision")
	}
	return *row, nil
}

const revisionColumns = `id, kind, cycle, version, url, filename, path, effectiveDate, sizeBytes, downloadedAt`

func scanRevision(s interface{ Scan(...any) error }) (internal.RevisionRow, error) {
	var row internal.RevisionRow
	var effective sql.NullString
	err := s.Scan(&row.ID, &row.Kind, &row.Cycle, &row.Version, &row.URL, &row.Filename, &row.Path, &effective, &row.SizeBytes, &row.DownloadedAt)
	if effective.Valid {
		row.EffectiveDate = &effective.String
	}
	return row, err
}

func (d *DB) GetRevisionByFilename(filename string) (*internal.RevisionRow, error) {
	row, err := scanRevision(d.conn.QueryRow(`SELECT `+revisionColumns+` FROM revisions WHERE filename = ?`, filename))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListRevisions returns revisions newest cycle first.
func (d *DB) ListRevisions() ([]internal.RevisionRow, error) {
	rows, err := d.conn.Query(`SELECT ` + revisionColumns + ` FROM revisions ORDER BY cycle DESC, version DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RevisionRow
	for rows.Next() {
		row, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(run internal.RunRow) error {
	byAnnexJSON, _ := json.Marshal(run.ByAnnex)
	warningsJSON, _ := json.Marshal(run.Warnings)
	_, err := d.conn.Exec(`
INSERT INTO runs (runId, status, error, filename, cycle, version, outputPath, totalEntries, byAnnexJson, warningsJson, durationMs)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.RunID, run.Status, run.Error, run.Filename, run.Cycle, run.Version, run.OutputPath,
		run.TotalEntries, string(byAnnexJSON), string(warningsJSON), run.DurationMs)
	return err
}

const runColumns = `runId, status, error, filename, cycle, version, outputPath, totalEntries, byAnnexJson, warningsJson, durationMs, createdAt`

func scanRun(s interface{ Scan(...any) error }) (internal.RunRow, error) {
	var run internal.RunRow
	var errText sql.NullString
	var byAnnexJSON, warningsJSON string
	if err := s.Scan(
		&run.RunID, &run.Status, &errText, &run.Filename, &run.Cycle, &run.Version, &run.OutputPath,
		&run.TotalEntries, &byAnnexJSON, &warningsJSON, &run.DurationMs, &run.CreatedAt,
	); err != nil {
		return run, err
	}
	run.Error = errText.String
	_ = json.Unmarshal([]byte(byAnnexJSON), &run.ByAnnex)
	_ = json.Unmarshal([]byte(warningsJSON), &run.Warnings)
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.conn.Query(`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// LastRunForFile returns the latest run for filename with the given status,
// or any status when status is empty.
func (d *DB) LastRunForFile(filename, status string) (*internal.RunRow, error) {
	run, err := scanRun(d.conn.QueryRow(`
SELECT `+runColumns+` FROM runs
WHERE filename = ? AND (? = '' OR status = ?)
ORDER BY id DESC LIMIT 1
`, filename, status, status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
