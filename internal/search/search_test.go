package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radindex/internal"
)

func fixture() *internal.Document {
	return &internal.Document{
		Metadata: internal.Metadata{Cycle: "2511", Version: "1.17", Filename: "RAD_2511_v1_17.xlsx"},
		Annexes: map[string][]internal.Record{
			"annex2b_rules": {
				{
					"id": "LF001", "annex": "2B", "airway": "UN852", "from_point": "ROTOS", "to_point": "DIBAG",
					"utilization": "Not available for traffic", "nas_fab": "France", "change_indicator": "NEW",
					"searchable_text": "LF001 | UN852 | ROTOS | DIBAG | FRANCE",
				},
				{
					"id": "EG002", "annex": "2B", "airway": "L9", "from_point": "KONAN", "to_point": "KOK",
					"nas_fab": "UK", "change_indicator": "",
					"searchable_text": "EG002 | L9 | KONAN | KOK | UK",
				},
			},
			"annex3b_dct": {
				{
					"id": "LSLF1139C", "annex": "3B", "from_point": "ROTOS", "to_point": "GIPNO",
					"nas_fab": "France, Switzerland", "change_indicator": "amd",
					"searchable_text": "LSLF1139C | ROTOS | GIPNO",
				},
			},
			"annex1_areas": {},
		},
	}
}

func ids(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Record["id"])
	}
	return out
}

func TestSearch(t *testing.T) {
	idx := BuildIndex(fixture())
	require.Equal(t, 3, idx.Len())

	assert.ElementsMatch(t, []string{"LF001", "LSLF1139C"}, ids(idx.Search("rotos", Options{})))
	assert.ElementsMatch(t, []string{"LF001", "LSLF1139C"}, ids(idx.Search("ROT", Options{})))

	res := idx.Search("LF001", Options{})
	require.NotEmpty(t, res)
	assert.Equal(t, "LF001", res[0].Record["id"])
	assert.Equal(t, "annex2b_rules", res[0].Category)
	assert.Contains(t, res[0].Matches, "id")
	assert.LessOrEqual(t, res[0].Score, 1.0)
}

func TestSearchShortQuery(t *testing.T) {
	idx := BuildIndex(fixture())
	assert.Empty(t, idx.Search("r", Options{}))
	assert.Empty(t, idx.Search("   ", Options{}))
}

func TestSearchFilters(t *testing.T) {
	idx := BuildIndex(fixture())

	assert.Equal(t, []string{"LSLF1139C"}, ids(idx.Search("ROTOS", Options{Annex: "3B"})))
	assert.Equal(t, []string{"LSLF1139C"}, ids(idx.Search("ROTOS", Options{NasFab: "Switzerland"})))
	assert.Equal(t, []string{"LF001"}, ids(idx.Search("ROTOS", Options{ChangeStatus: "new"})))
	assert.Len(t, idx.Search("ROTOS", Options{Limit: 1}), 1)
}

func TestSearchOrderIsStable(t *testing.T) {
	idx := BuildIndex(fixture())
	first := ids(idx.Search("ROTOS", Options{}))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ids(idx.Search("ROTOS", Options{})))
	}
}

func TestByIDAndReference(t *testing.T) {
	idx := BuildIndex(fixture())

	assert.Equal(t, []string{"LF001"}, ids(idx.ByID(" lf001 ")))
	assert.Equal(t, []string{"LSLF1139C"}, ids(idx.ByReference("[LSLF1139C]")))
	assert.Equal(t, []string{"LSLF1139C"}, ids(idx.ByReference("[ LSLF 1139C ]")))
	assert.Empty(t, idx.ByID("XX999"))
}

func TestParseError(t *testing.T) {
	info := ParseError("RS: TRAFFIC VIA ROTOS IS NOT AVAILABLE REF:[LSLF1139C] ANNEX 3B")
	assert.Equal(t, "LSLF1139C", info.RefCode)
	assert.Equal(t, "3B", info.Annex)
	assert.Equal(t, []string{"ROTOS"}, info.Points)
	assert.Equal(t, "NOT_AVAILABLE", info.Type)

	empty := ParseError("")
	assert.Empty(t, empty.Points)
	assert.Empty(t, empty.RefCode)
}

func TestByError(t *testing.T) {
	idx := BuildIndex(fixture())

	info, res := idx.ByError("ROUTE ERROR: via ROTOS is forbidden REF:[LSLF1139C]")
	assert.Equal(t, "FORBIDDEN", info.Type)
	assert.Equal(t, []string{"LSLF1139C"}, ids(res))

	_, res = idx.ByError("ROUTE ERROR ANNEX 2B KONAN")
	assert.Equal(t, []string{"EG002"}, ids(res))

	_, res = idx.ByError("ref:[NOPE1] DIBAG")
	assert.Equal(t, []string{"LF001"}, ids(res), "unknown reference falls back to points")
}

func TestSuggestions(t *testing.T) {
	idx := BuildIndex(fixture())

	assert.ElementsMatch(t, []string{"LF001", "LSLF1139C"}, idx.Suggestions("ROT", 5))
	assert.Len(t, idx.Suggestions("ROT", 1), 1)
	assert.Empty(t, idx.Suggestions("R", 5))
}

func TestStats(t *testing.T) {
	st := BuildIndex(fixture()).Stats()

	assert.Equal(t, 3, st.Total)
	assert.Equal(t, map[string]int{"2B": 2, "3B": 1}, st.ByAnnex)
	assert.Equal(t, map[string]int{"France": 2, "UK": 1, "Switzerland": 1}, st.ByCountry)
	assert.Equal(t, map[string]int{"NEW": 1, "ACTIVE": 1, "AMD": 1}, st.ByStatus)
}

func TestCategoryAndAnnex(t *testing.T) {
	idx := BuildIndex(fixture())

	dct, ok := idx.Category("annex3b_dct")
	require.True(t, ok)
	assert.Len(t, dct, 1)

	empty, ok := idx.Category("annex1_areas")
	assert.True(t, ok)
	assert.Empty(t, empty)

	_, ok = idx.Category("annex9")
	assert.False(t, ok)

	assert.Len(t, idx.Annex("2b"), 2)
}
