package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"radindex/internal"
	"radindex/internal/util"
)

// DiscoverRevisions fetches the publication page and returns the current
// and next-cycle workbooks it links to.
func (c *Client) DiscoverRevisions(ctx context.Context) ([]internal.Revision, error) {
	page, err := c.FetchPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch rad page: %w", err)
	}
	return ParseRevisions(bytes.NewReader(page), c.cfg.RADBaseURL, c.cfg.FilePrefix)
}

// ParseRevisions extracts revision links from an HTML page. A link is kept
// when its href names a <prefix>_<cycle>_v<major>_<minor>.xlsx file under a
// CURRENT_AIRAC or AIRAC+1 path. When several links share a slot the last
// one wins. Results are ordered current first.
func ParseRevisions(r io.Reader, baseURL, prefix string) ([]internal.Revision, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	pattern := util.FilenamePattern(prefix)
	found := map[internal.RevisionKind]internal.Revision{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := pattern.FindStringSubmatch(href)
		if m == nil || !strings.Contains(href, m[0]+".xlsx") {
			return
		}

		kind, ok := revisionKind(href)
		if !ok {
			return
		}

		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}

		cycle, major, minor := m[1], m[2], m[3]
		rev := internal.Revision{
			Kind:     kind,
			URL:      base.ResolveReference(ref).String(),
			Cycle:    cycle,
			Version:  major + "." + minor,
			Filename: util.CanonicalFilename(prefix, cycle, major, minor),
		}
		if parent := a.Closest("div, section, tr, td"); parent.Length() > 0 {
			rev.EffectiveDate = util.ContextDate(parent.Text())
		}
		if rev.EffectiveDate == nil {
			rev.EffectiveDate = util.CycleDate(cycle)
		}
		found[kind] = rev
	})

	out := make([]internal.Revision, 0, 2)
	for _, kind := range []internal.RevisionKind{internal.RevisionCurrent, internal.RevisionFuture} {
		if rev, ok := found[kind]; ok {
			out = append(out, rev)
		}
	}
	return out, nil
}

func revisionKind(href string) (internal.RevisionKind, bool) {
	switch {
	case strings.Contains(href, "CURRENT_AIRAC"):
		return internal.RevisionCurrent, true
	case strings.Contains(href, "AIRAC+1"), strings.Contains(href, "AIRAC%2B1"):
		return internal.RevisionFuture, true
	default:
		return "", false
	}
}
