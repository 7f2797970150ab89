// Package search is an in-memory query layer over an emitted document.
package search

import (
	"sort"
	"strings"

	"radindex/internal"
	"radindex/internal/schema"
	"radindex/internal/util"
)

type field struct {
	name   string
	weight float64
}

// Weighted fields in scoring order. A record only carries the fields of its
// own category; absent fields never match.
var fields = []field{
	{"id", 3},
	{"point_or_airspace", 2},
	{"airspace", 2},
	{"airway", 2},
	{"aerodrome", 2},
	{"from_point", 1.5},
	{"to_point", 1.5},
	{"utilization", 1},
	{"nas_fab", 1},
	{"operational_goal", 0.8},
	{"searchable_text", 0.5},
}

var totalWeight = func() float64 {
	w := 0.0
	for _, f := range fields {
		w += f.weight
	}
	return w
}()

type entry struct {
	record   internal.Record
	category string
	// text and tokens are indexed like fields.
	text   []string
	tokens [][]string
}

type Index struct {
	Metadata internal.Metadata

	entries    []entry
	byID       map[string][]int
	byCategory map[string][]internal.Record
}

// BuildIndex flattens every category of doc. Known categories come first in
// their declared order, unknown keys after, sorted.
func BuildIndex(doc *internal.Document) *Index {
	idx := &Index{
		Metadata:   doc.Metadata,
		byID:       map[string][]int{},
		byCategory: map[string][]internal.Record{},
	}

	keys := make([]string, 0, len(doc.Annexes))
	known := map[string]bool{}
	for _, c := range schema.Categories {
		key := c.String()
		known[key] = true
		if _, ok := doc.Annexes[key]; ok {
			keys = append(keys, key)
		}
	}
	var extra []string
	for key := range doc.Annexes {
		if !known[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	for _, key := range keys {
		records := doc.Annexes[key]
		idx.byCategory[key] = records
		for _, rec := range records {
			e := entry{
				record:   rec,
				category: key,
				text:     make([]string, len(fields)),
				tokens:   make([][]string, len(fields)),
			}
			for i, f := range fields {
				norm := util.NormalizeText(rec[f.name])
				e.text[i] = norm
				e.tokens[i] = util.Tokenize(norm)
			}

			pos := len(idx.entries)
			idx.entries = append(idx.entries, e)
			if id := idKey(rec[schema.FieldID]); id != "" {
				idx.byID[id] = append(idx.byID[id], pos)
			}
		}
	}

	return idx
}

func (idx *Index) Len() int {
	return len(idx.entries)
}

// Category returns the records stored under a category key.
func (idx *Index) Category(key string) ([]internal.Record, bool) {
	records, ok := idx.byCategory[key]
	return records, ok
}

// Annex returns every record whose annex equals annex ("2B", "3A").
func (idx *Index) Annex(annex string) []internal.Record {
	annex = strings.ToUpper(strings.TrimSpace(annex))
	var out []internal.Record
	for _, e := range idx.entries {
		if e.record[schema.FieldAnnex] == annex {
			out = append(out, e.record)
		}
	}
	return out
}

func idKey(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
