package search

import (
	"regexp"
	"strings"
)

var (
	reRefCode = regexp.MustCompile(`REF:\s*\[?([A-Z0-9]+)\]?`)
	reAnnex   = regexp.MustCompile(`ANNEX\s+(\d[A-C]?)`)
	rePoint   = regexp.MustCompile(`\b[A-Z]{5}\b`)
)

var notPoints = map[string]bool{"ANNEX": true, "ROUTE": true, "ERROR": true, "TRAFFIC": true}

// ErrorInfo is what can be read out of a flight plan rejection message.
type ErrorInfo struct {
	RefCode string   `json:"ref_code,omitempty"`
	Annex   string   `json:"annex,omitempty"`
	Points  []string `json:"points"`
	Type    string   `json:"type,omitempty"`
}

// ParseError extracts the rule reference, annex, five-letter points and
// rejection type from msg.
func ParseError(msg string) ErrorInfo {
	info := ErrorInfo{Points: []string{}}
	upper := strings.ToUpper(msg)
	if upper == "" {
		return info
	}

	if m := reRefCode.FindStringSubmatch(upper); m != nil {
		info.RefCode = m[1]
	}
	if m := reAnnex.FindStringSubmatch(upper); m != nil {
		info.Annex = m[1]
	}

	seen := map[string]bool{}
	for _, p := range rePoint.FindAllString(upper, -1) {
		if notPoints[p] || seen[p] {
			continue
		}
		seen[p] = true
		info.Points = append(info.Points, p)
	}

	switch {
	case strings.Contains(upper, "NOT AVAILABLE"):
		info.Type = "NOT_AVAILABLE"
	case strings.Contains(upper, "RESTRICTED"):
		info.Type = "RESTRICTED"
	case strings.Contains(upper, "FORBIDDEN"):
		info.Type = "FORBIDDEN"
	}
	return info
}

// ByError resolves a rejection message: the referenced rule when it exists,
// otherwise a search on the mentioned points (restricted to the annex when
// one is named), otherwise a full text search.
func (idx *Index) ByError(msg string) (ErrorInfo, []Result) {
	info := ParseError(msg)

	if info.RefCode != "" {
		if res := idx.ByReference(info.RefCode); len(res) > 0 {
			return info, res
		}
	}
	if len(info.Points) > 0 {
		return info, idx.Search(strings.Join(info.Points, " "), Options{Annex: info.Annex, Limit: 20})
	}
	return info, idx.Search(msg, Options{Limit: 20})
}
