package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"radindex/internal"
)

// Progress is reported while a workbook is streamed to disk. Percent is -1
// when the server sent no Content-Length.
type Progress struct {
	Filename string
	Percent  int
	Bytes    int64
	Total    int64
}

type progressWriter struct {
	dst      io.Writer
	p        Progress
	last     int
	progress func(Progress)
}

func (w *progressWriter) Write(b []byte) (int, error) {
	n, err := w.dst.Write(b)
	w.p.Bytes += int64(n)
	if w.progress != nil && w.p.Total > 0 {
		pct := int(w.p.Bytes * 100 / w.p.Total)
		if pct > 100 {
			pct = 100
		}
		if pct/10 != w.last/10 {
			w.last = pct
			w.p.Percent = pct
			w.progress(w.p)
		}
	}
	return n, err
}

// Download streams rev into dir under its canonical file name and returns
// the final path and size. The file appears only once fully written.
func (c *Client) Download(ctx context.Context, rev internal.Revision, dir string, progress func(Progress)) (string, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}

	resp, err := c.get(ctx, rev.URL)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(dir, "."+rev.Filename+".*.part")
	if err != nil {
		return "", 0, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := &progressWriter{
		dst:      tmp,
		p:        Progress{Filename: rev.Filename, Percent: -1, Total: resp.ContentLength},
		progress: progress,
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("download %s: %w", rev.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, err
	}
	if w.p.Total > 0 && w.p.Bytes != w.p.Total {
		return "", 0, fmt.Errorf("download %s: got %d of %d bytes", rev.Filename, w.p.Bytes, w.p.Total)
	}
	if progress != nil && w.p.Total <= 0 {
		progress(w.p)
	}

	path := filepath.Join(dir, rev.Filename)
	if err := os.Rename(tmpName, path); err != nil {
		return "", 0, err
	}
	return path, w.p.Bytes, nil
}
