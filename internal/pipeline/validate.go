package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"radindex/internal/schema"
)

// Check is one validation step. Expected and Actual are filled when the
// check fails.
type Check struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

type ValidationReport struct {
	Valid        bool           `json:"valid"`
	Checks       []Check        `json:"checks"`
	Warnings     []string       `json:"warnings,omitempty"`
	Cycle        string         `json:"cycle,omitempty"`
	TotalEntries int            `json:"total_entries"`
	ByAnnex      map[string]int `json:"by_annex,omitempty"`
	SizeBytes    int            `json:"size_bytes"`
}

// Failed returns the checks that did not pass.
func (r ValidationReport) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

var topLevelKeys = []string{"annexes", "metadata", "stats"}

// Validate checks an emitted document for structural consistency. It never
// modifies blob.
func Validate(blob []byte) ValidationReport {
	rep := ValidationReport{SizeBytes: len(blob), Valid: true}
	pass := func(name string) {
		rep.Checks = append(rep.Checks, Check{Name: name, Passed: true})
	}
	fail := func(name string, expected, actual any) {
		rep.Valid = false
		rep.Checks = append(rep.Checks, Check{
			Name:     name,
			Expected: fmt.Sprint(expected),
			Actual:   fmt.Sprint(actual),
		})
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(blob, &top); err != nil {
		fail("json", "valid JSON object", err.Error())
		return rep
	}
	pass("json")

	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if strings.Join(keys, ",") != strings.Join(topLevelKeys, ",") {
		fail("top_level_keys", strings.Join(topLevelKeys, ","), strings.Join(keys, ","))
		return rep
	}
	pass("top_level_keys")

	var meta map[string]any
	if err := json.Unmarshal(top["metadata"], &meta); err != nil {
		fail("metadata", "object", string(top["metadata"]))
	} else {
		pass("metadata")
		cycle, _ := meta["cycle"].(string)
		if cycle == "" {
			rep.Warnings = append(rep.Warnings, "metadata.cycle is missing")
		}
		rep.Cycle = cycle
	}

	var annexes map[string]json.RawMessage
	if err := json.Unmarshal(top["annexes"], &annexes); err != nil {
		fail("annexes", "object", string(top["annexes"]))
		return rep
	}
	pass("annexes")

	lists := make(map[string][]map[string]any, len(annexes))
	annexKeys := make([]string, 0, len(annexes))
	for k := range annexes {
		annexKeys = append(annexKeys, k)
	}
	sort.Strings(annexKeys)

	listsOK := true
	for _, k := range annexKeys {
		var entries []map[string]any
		raw := bytes.TrimSpace(annexes[k])
		if len(raw) == 0 || raw[0] != '[' {
			fail("annex_is_list:"+k, "array of objects", shortJSON(raw))
			listsOK = false
			continue
		}
		if err := json.Unmarshal(raw, &entries); err != nil {
			fail("annex_is_list:"+k, "array of objects", shortJSON(annexes[k]))
			listsOK = false
			continue
		}
		lists[k] = entries
		rep.TotalEntries += len(entries)
	}
	if !listsOK {
		return rep
	}
	pass("annex_lists")

	for _, k := range annexKeys {
		if _, ok := schema.ByKey(k); !ok {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("unknown annex key %q", k))
		}
	}

	var stats struct {
		TotalEntries *int           `json:"total_entries"`
		ByAnnex      map[string]int `json:"by_annex"`
	}
	if err := json.Unmarshal(top["stats"], &stats); err != nil {
		fail("stats", "object", shortJSON(top["stats"]))
		return rep
	}

	switch {
	case stats.TotalEntries == nil:
		fail("stats_total", rep.TotalEntries, "missing")
	case *stats.TotalEntries != rep.TotalEntries:
		fail("stats_total", rep.TotalEntries, *stats.TotalEntries)
	default:
		pass("stats_total")
	}

	rep.ByAnnex = stats.ByAnnex
	byAnnexOK := len(stats.ByAnnex) == len(lists)
	for k, entries := range lists {
		if n, ok := stats.ByAnnex[k]; !ok || n != len(entries) {
			byAnnexOK = false
		}
	}
	if byAnnexOK {
		pass("stats_by_annex")
	} else {
		fail("stats_by_annex", formatCounts(countsOf(lists)), formatCounts(stats.ByAnnex))
	}

	required := []string{schema.FieldID, schema.FieldAnnex, schema.FieldType}
	for _, k := range annexKeys {
		entries := lists[k]
		if len(entries) == 0 {
			continue
		}
		var missing []string
		for _, f := range required {
			if _, ok := entries[0][f]; !ok {
				missing = append(missing, f)
			}
		}
		name := "first_record_fields:" + k
		if len(missing) > 0 {
			fail(name, strings.Join(required, ","), "missing "+strings.Join(missing, ","))
		} else {
			pass(name)
		}
	}

	return rep
}

func countsOf(lists map[string][]map[string]any) map[string]int {
	out := make(map[string]int, len(lists))
	for k, v := range lists {
		out[k] = len(v)
	}
	return out
}

func formatCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strconv.Itoa(m[k]))
	}
	return strings.Join(parts, " ")
}

func shortJSON(raw json.RawMessage) string {
	s := string(raw)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
