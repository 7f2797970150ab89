package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFieldSets(t *testing.T) {
	t.Parallel()

	common := []string{"change_indicator", "valid_from", "valid_until", "nas_fab", "release_date", "special_event"}
	extra := map[Category][]string{
		AreaDefinition:     {"definition", "remarks", "owner"},
		FlightLevelCapping: {"airspace", "utilization", "time_applicability", "operational_goal", "remarks"},
		FUATrafficFlow:     {"airspace", "utilization", "time_applicability", "categorisation", "operational_goal", "remarks", "group_id"},
		CapacityRule: {"airway", "from_point", "to_point", "point_or_airspace", "utilization", "time_applicability",
			"categorisation", "operational_goal", "remarks", "atc_unit"},
		AerodromeArrival:   {"aerodrome", "time_applicability", "operational_goal", "remarks", "first_pt_star", "dct_arr_pt", "arr_fpl_option"},
		AerodromeDeparture: {"aerodrome", "time_applicability", "operational_goal", "remarks", "last_pt_sid", "dct_dep_pt", "dep_fpl_options"},
		AerodromeCondition: {"time_applicability", "condition", "explanation"},
		DirectRouting:      {"from_point", "to_point", "utilization", "time_applicability", "remarks", "atc_unit"},
		FRALimitation:      {"from_point", "to_point", "utilization", "time_applicability", "remarks", "atc_unit"},
	}

	require.Len(t, extra, len(Categories))
	for c, fields := range extra {
		s := c.Schema()
		want := map[string]bool{}
		for _, f := range append(append([]string{}, common...), fields...) {
			want[f] = true
		}
		got := map[string]bool{}
		for _, b := range s.Bindings {
			assert.False(t, got[b.Field], "%s duplicates %s", s.Key, b.Field)
			got[b.Field] = true
		}
		assert.Equal(t, want, got, s.Key)
	}
}

func TestCategoryIDColumns(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ARR ID", AerodromeArrival.Schema().IDColumn)
	assert.Equal(t, "DEP ID", AerodromeDeparture.Schema().IDColumn)
	assert.Equal(t, "RAD Application ID", AerodromeCondition.Schema().IDColumn)
	assert.Equal(t, "RAD Application ID", FRALimitation.Schema().IDColumn)
	assert.Equal(t, "ID", DirectRouting.Schema().IDColumn)
}

func TestByKeyRoundTrip(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, c := range Categories {
		key := c.String()
		assert.False(t, seen[key], key)
		seen[key] = true

		got, ok := ByKey(key)
		assert.True(t, ok)
		assert.Equal(t, c, got)
	}
	_, ok := ByKey("annex9_unknown")
	assert.False(t, ok)
}

func TestSheetNamesWithOverrides(t *testing.T) {
	t.Parallel()

	base := DefaultSheetNames()
	got, err := base.WithOverrides(map[string]string{"annex3b_fra": "Annex 3B FRA"})
	require.NoError(t, err)
	assert.Equal(t, "Annex 3B FRA", got[FRALimitation])
	assert.Equal(t, "Annex 3B FRA LIM", base[FRALimitation])

	_, err = base.WithOverrides(map[string]string{"annex4": "x"})
	assert.Error(t, err)
}
