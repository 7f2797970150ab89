package pipeline

import (
	"sort"
	"testing"

	"radindex/internal/schema"
)

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestDetectWorkbook(t *testing.T) {
	names := schema.DefaultSheetNames()

	all := make([]string, 0, len(schema.Categories)+1)
	for _, c := range schema.Categories {
		all = append(all, names[c])
	}
	all = append(all, "Cover")

	res := DetectWorkbook(all, names)
	if !res.IsRAD || res.Score != 1 {
		t.Fatalf("res=%+v", res)
	}
	if len(res.Extra) != 1 || res.Extra[0] != "Cover" {
		t.Fatalf("extra=%v", res.Extra)
	}

	res = DetectWorkbook([]string{" annex 2b ", "Sheet1"}, names)
	if res.IsRAD {
		t.Fatalf("one sheet should not look like a RAD: %+v", res)
	}
	if len(res.Present) != 1 || res.Present[0] != "Annex 2B" {
		t.Fatalf("present=%v", res.Present)
	}
	if len(res.Missing) != len(schema.Categories)-1 {
		t.Fatalf("missing=%v", res.Missing)
	}
}
