package search

import (
	"regexp"
	"strings"

	"radindex/internal/schema"
)

var reCountrySep = regexp.MustCompile(`[,\s]+`)

type Stats struct {
	Total     int            `json:"total"`
	ByAnnex   map[string]int `json:"by_annex"`
	ByCountry map[string]int `json:"by_country"`
	ByStatus  map[string]int `json:"by_status"`
}

// Stats counts records by annex, by NAS/FAB entry and by change indicator.
// Records without a change indicator count as ACTIVE.
func (idx *Index) Stats() Stats {
	st := Stats{
		Total:     len(idx.entries),
		ByAnnex:   map[string]int{},
		ByCountry: map[string]int{},
		ByStatus:  map[string]int{},
	}
	for _, e := range idx.entries {
		annex := e.record[schema.FieldAnnex]
		if annex == "" {
			annex = "unknown"
		}
		st.ByAnnex[annex]++

		for _, c := range reCountrySep.Split(e.record["nas_fab"], -1) {
			if c = strings.TrimSpace(c); c != "" {
				st.ByCountry[c]++
			}
		}

		status := strings.ToUpper(strings.TrimSpace(e.record["change_indicator"]))
		if status == "" {
			status = "ACTIVE"
		}
		st.ByStatus[status]++
	}
	return st
}
