package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"radindex/internal"
	"radindex/internal/schema"
	"radindex/internal/util"
)

const (
	DefaultLimit = 50
	// MinQuality is the lowest per-field match quality that counts as a hit.
	MinQuality = 0.7
)

type Options struct {
	Annex        string
	NasFab       string
	ChangeStatus string
	Limit        int
}

type Result struct {
	Record   internal.Record `json:"record"`
	Category string          `json:"category"`
	Score    float64         `json:"score"`
	Matches  []string        `json:"matches"`
}

// Search ranks records against query. Each weighted field gets a quality in
// [0,1]; a record is a hit when any field reaches MinQuality, and its score
// is the weighted sum of hitting fields over the total weight. Results are
// ordered by score, then id. Queries shorter than two characters return
// nothing.
func (idx *Index) Search(query string, opts Options) []Result {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 2 {
		return nil
	}
	q := util.NormalizeText(query)
	if q == "" {
		return nil
	}
	qTokens := util.Tokenize(q)

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	status := strings.ToUpper(strings.TrimSpace(opts.ChangeStatus))

	var out []Result
	for i := range idx.entries {
		e := &idx.entries[i]
		if !matchesFilters(e.record, opts.Annex, opts.NasFab, status) {
			continue
		}

		score := 0.0
		var matched []string
		for fi, f := range fields {
			quality := fieldQuality(q, qTokens, e.text[fi], e.tokens[fi])
			if quality < MinQuality {
				continue
			}
			score += f.weight * quality
			matched = append(matched, f.name)
		}
		if len(matched) == 0 {
			continue
		}
		out = append(out, Result{
			Record:   e.record,
			Category: e.category,
			Score:    score / totalWeight,
			Matches:  matched,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Record[schema.FieldID] < out[j].Record[schema.FieldID]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ByID returns records whose id equals id, ignoring case and surrounding
// space.
func (idx *Index) ByID(id string) []Result {
	var out []Result
	for _, pos := range idx.byID[idKey(id)] {
		e := idx.entries[pos]
		out = append(out, Result{Record: e.record, Category: e.category, Score: 1, Matches: []string{schema.FieldID}})
	}
	return out
}

// ByReference looks up a flight plan reference such as "[LSLF1139C]".
func (idx *Index) ByReference(ref string) []Result {
	return idx.ByID(util.NormalizeID(ref))
}

// Suggestions returns up to limit distinct ids for a partial query.
func (idx *Index) Suggestions(partial string, limit int) []string {
	if limit <= 0 {
		limit = 5
	}
	results := idx.Search(partial, Options{Limit: limit * 2})

	seen := map[string]bool{}
	out := []string{}
	for _, r := range results {
		id := r.Record[schema.FieldID]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

func matchesFilters(rec internal.Record, annex, nasFab, status string) bool {
	if annex != "" && rec[schema.FieldAnnex] != annex {
		return false
	}
	if nasFab != "" && !strings.Contains(rec["nas_fab"], nasFab) {
		return false
	}
	if status != "" && strings.ToUpper(rec["change_indicator"]) != status {
		return false
	}
	return true
}

func fieldQuality(q string, qTokens []string, text string, tokens []string) float64 {
	if text == "" {
		return 0
	}
	if text == q {
		return 1
	}
	if strings.Contains(text, q) {
		return 0.9
	}
	if len(qTokens) == 0 || len(tokens) == 0 {
		return 0
	}

	sum := 0.0
	for _, qt := range qTokens {
		best := 0.0
		for _, t := range tokens {
			s := tokenQuality(qt, t)
			if s > best {
				best = s
				if best == 1 {
					break
				}
			}
		}
		sum += best
	}
	return sum / float64(len(qTokens))
}

func tokenQuality(q, t string) float64 {
	switch {
	case q == t:
		return 1
	case strings.HasPrefix(t, q):
		return 0.85
	case strings.Contains(t, q):
		return 0.75
	default:
		return util.DiceCoefficient(q, t)
	}
}
