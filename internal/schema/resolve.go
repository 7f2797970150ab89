package schema

import (
	"strings"

	"radindex/internal/util"
)

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// CleanHeaders replaces embedded newlines with a space and trims each
// header. The loader runs it once per sheet, before any mapping.
func CleanHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = strings.TrimSpace(newlineReplacer.Replace(h))
	}
	return out
}

// ResolveColumn finds the header that carries the logical column target.
// Both sides are compared on util.ColumnKey; a header matches when the
// target key is contained in the header key. An exact key match is tried
// first, so "From" binds to a "From" column even when "Valid From" comes
// earlier in the row; only without one does the first containing header in
// header order win. The boolean is false when no header matches.
func ResolveColumn(target string, headers []string) (string, bool) {
	idx := resolveIndex(target, headers)
	if idx < 0 {
		return "", false
	}
	return headers[idx], true
}

func resolveIndex(target string, headers []string) int {
	want := util.ColumnKey(target)
	if want == "" {
		return -1
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = util.ColumnKey(h)
		if keys[i] == want {
			return i
		}
	}
	for i, k := range keys {
		if strings.Contains(k, want) {
			return i
		}
	}
	return -1
}
