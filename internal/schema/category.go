// Package schema holds the fixed per-category record layouts of the RAD
// workbook and the generic routine that maps a sheet onto one of them.
package schema

import (
	"fmt"
	"sort"
)

// Category is one of the fixed rule types. The set is closed: every value
// has a descriptor returned by Schema.
type Category int

const (
	AreaDefinition Category = iota
	FlightLevelCapping
	CapacityRule
	FUATrafficFlow
	AerodromeCondition
	AerodromeArrival
	AerodromeDeparture
	DirectRouting
	FRALimitation
)

// Categories lists every category in processing order.
var Categories = []Category{
	AreaDefinition,
	FlightLevelCapping,
	CapacityRule,
	FUATrafficFlow,
	AerodromeCondition,
	AerodromeArrival,
	AerodromeDeparture,
	DirectRouting,
	FRALimitation,
}

// Binding ties an output field to the logical source column it is read from.
type Binding struct {
	Field  string
	Column string
}

// Schema describes one category. Descriptors are package-level values and
// must not be modified.
type Schema struct {
	Category Category
	Key      string
	Sheet    string
	Annex    string
	Type     string
	IDColumn string
	Bindings []Binding
}

const (
	FieldID             = "id"
	FieldAnnex          = "annex"
	FieldType           = "type"
	FieldSearchableText = "searchable_text"
)

var commonBindings = []Binding{
	{Field: "change_indicator", Column: "Change Ind."},
	{Field: "valid_from", Column: "Valid From"},
	{Field: "valid_until", Column: "Valid Until"},
	{Field: "nas_fab", Column: "NAS/FAB"},
	{Field: "release_date", Column: "Release Date"},
	{Field: "special_event", Column: "Special Event and Crisis"},
}

var (
	areaDefinition = Schema{
		Category: AreaDefinition,
		Key:      "annex1_areas",
		Sheet:    "Annex 1",
		Annex:    "1",
		Type:     "Area Definition",
		IDColumn: "ID",
		Bindings: withCommon(
			Binding{Field: "definition", Column: "Definition"},
			Binding{Field: "remarks", Column: "Remarks"},
			Binding{Field: "owner", Column: "Owner"},
		),
	}

	flightLevelCapping = Schema{
		Category: FlightLevelCapping,
		Key:      "annex2a_capping",
		Sheet:    "Annex 2A",
		Annex:    "2A",
		Type:     "Flight Level Capping Rule",
		IDColumn: "ID",
		Bindings: withCommon(
			Binding{Field: "airspace", Column: "Airspace"},
			Binding{Field: "utilization", Column: "Utilization"},
			Binding{Field: "time_applicability", Column: "Time Applicability"},
			Binding{Field: "operational_goal", Column: "Operational Goal"},
			Binding{Field: "remarks", Column: "Remarks"},
		),
	}

	capacityRule = Schema{
		Category: CapacityRule,
		Key:      "annex2b_rules",
		Sheet:    "Annex 2B",
		Annex:    "2B",
		Type:     "Capacity & Structural Rule",
		IDColumn: "ID",
		Bindings: withCommon(
			Binding{Field: "airway", Column: "Airway"},
			Binding{Field: "from_point", Column: "From"},
			Binding{Field: "to_point", Column: "To"},
			Binding{Field: "point_or_airspace", Column: "Point or Airspace"},
			Binding{Field: "utilization", Column: "Utilization"},
			Binding{Field: "time_applicability", Column: "Time Applicability"},
			Binding{Field: "categorisation", Column: "Categorisation"},
			Binding{Field: "operational_goal", Column: "Operational Goal"},
			Binding{Field: "remarks", Column: "Remarks"},
			Binding{Field: "atc_unit", Column: "ATC Unit"},
		),
	}

	fuaTrafficFlow = Schema{
		Category: FUATrafficFlow,
		Key:      "annex2c_fua",
		Sheet:    "Annex 2C",
		Annex:    "2C",
		Type:     "FUA Traffic Flow Rule",
		IDColumn: "ID",
		Bindings: withCommon(
			Binding{Field: "airspace", Column: "Airspace"},
			Binding{Field: "utilization", Column: "Utilization"},
			Binding{Field: "time_applicability", Column: "Time Applicability"},
			Binding{Field: "categorisation", Column: "Categorisation"},
			Binding{Field: "operational_goal", Column: "Operational Goal"},
			Binding{Field: "remarks", Column: "Remarks"},
			Binding{Field: "group_id", Column: "Group ID"},
		),
	}

	aerodromeCondition = Schema{
		Category: AerodromeCondition,
		Key:      "annex3a_conditions",
		Sheet:    "Annex 3A Conditions",
		Annex:    "3A",
		Type:     "Aerodrome Connectivity - Condition",
		IDColumn: "RAD Application ID",
		Bindings: withCommon(
			Binding{Field: "time_applicability", Column: "Time Applicability"},
			Binding{Field: "condition", Column: "Condition"},
			Binding{Field: "explanation", Column: "Explanation"},
		),
	}

	aerodromeArrival = Schema{
		Category: AerodromeArrival,
		Key:      "annex3a_arrivals",
		Sheet:    "Annex 3A ARR",
		Annex:    "3A",
		Type:     "Aerodrome Connectivity - Arrival",
		IDColumn: "ARR ID",
		Bindings: withCommon(
			Binding{Field: "aerodrome", Column: "ARR AD"},
			Binding{Field: "time_applicability", Column: "ARR Time Applicability"},
			Binding{Field: "operational_goal", Column: "ARR Operational Goal"},
			Binding{Field: "remarks", Column: "ARR Remarks"},
			Binding{Field: "first_pt_star", Column: "First PT STAR / STAR ID"},
			Binding{Field: "dct_arr_pt", Column: "DCT ARR PT"},
			Binding{Field: "arr_fpl_option", Column: "ARR FPL Option"},
		),
	}

	aerodromeDeparture = Schema{
		Category: AerodromeDeparture,
		Key:      "annex3a_departures",
		Sheet:    "Annex 3A DEP",
		Annex:    "3A",
		Type:     "Aerodrome Connectivity - Departure",
		IDColumn: "DEP ID",
		Bindings: withCommon(
			Binding{Field: "aerodrome", Column: "DEP AD"},
			Binding{Field: "time_applicability", Column: "DEP Time Applicability"},
			Binding{Field: "operational_goal", Column: "DEP Operational Goal"},
			Binding{Field: "remarks", Column: "DEP Remarks"},
			Binding{Field: "last_pt_sid", Column: "Last PT SID / SID ID"},
			Binding{Field: "dct_dep_pt", Column: "DCT DEP PT"},
			Binding{Field: "dep_fpl_options", Column: "DEP FPL Options"},
		),
	}

	directRouting = Schema{
		Category: DirectRouting,
		Key:      "annex3b_dct",
		Sheet:    "Annex 3B DCT",
		Annex:    "3B",
		Type:     "DCT Option",
		IDColumn: "ID",
		Bindings: withCommon(
			Binding{Field: "from_point", Column: "From"},
			Binding{Field: "to_point", Column: "To"},
			Binding{Field: "utilization", Column: "Utilization"},
			Binding{Field: "time_applicability", Column: "Time Applicability"},
			Binding{Field: "remarks", Column: "Remarks"},
			Binding{Field: "atc_unit", Column: "ATC Unit"},
		),
	}

	fraLimitation = Schema{
		Category: FRALimitation,
		Key:      "annex3b_fra",
		Sheet:    "Annex 3B FRA LIM",
		Annex:    "3B",
		Type:     "FRA Limitation",
		IDColumn: "RAD Application ID",
		Bindings: withCommon(
			Binding{Field: "from_point", Column: "From"},
			Binding{Field: "to_point", Column: "To"},
			Binding{Field: "utilization", Column: "Utilization"},
			Binding{Field: "time_applicability", Column: "Time Applicability"},
			Binding{Field: "remarks", Column: "Remarks"},
			Binding{Field: "atc_unit", Column: "ATC Unit"},
		),
	}
)

// Schema returns the descriptor for c.
func (c Category) Schema() Schema {
	switch c {
	case AreaDefinition:
		return areaDefinition
	case FlightLevelCapping:
		return flightLevelCapping
	case CapacityRule:
		return capacityRule
	case FUATrafficFlow:
		return fuaTrafficFlow
	case AerodromeCondition:
		return aerodromeCondition
	case AerodromeArrival:
		return aerodromeArrival
	case AerodromeDeparture:
		return aerodromeDeparture
	case DirectRouting:
		return directRouting
	case FRALimitation:
		return fraLimitation
	}
	panic(fmt.Sprintf("schema: unknown category %d", int(c)))
}

func (c Category) String() string {
	return c.Schema().Key
}

// Fields returns the output field names of the category in record order:
// id, declared bindings, then annex, type and searchable_text.
func (s Schema) Fields() []string {
	out := make([]string, 0, len(s.Bindings)+4)
	out = append(out, FieldID)
	for _, b := range s.Bindings {
		out = append(out, b.Field)
	}
	return append(out, FieldAnnex, FieldType, FieldSearchableText)
}

// ByKey finds a category from its output key (annex2b_rules, ...).
func ByKey(key string) (Category, bool) {
	for _, c := range Categories {
		if c.Schema().Key == key {
			return c, true
		}
	}
	return 0, false
}

// Keys returns every category key, sorted.
func Keys() []string {
	out := make([]string, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, c.Schema().Key)
	}
	sort.Strings(out)
	return out
}

// SheetNames maps each category to the worksheet it is read from.
type SheetNames map[Category]string

// DefaultSheetNames returns the published sheet name of every category.
func DefaultSheetNames() SheetNames {
	out := make(SheetNames, len(Categories))
	for _, c := range Categories {
		out[c] = c.Schema().Sheet
	}
	return out
}

// WithOverrides returns a copy of n with sheet names replaced for the given
// category keys. Unknown keys are rejected.
func (n SheetNames) WithOverrides(overrides map[string]string) (SheetNames, error) {
	out := make(SheetNames, len(n))
	for c, name := range n {
		out[c] = name
	}
	for key, name := range overrides {
		c, ok := ByKey(key)
		if !ok {
			return nil, fmt.Errorf("unknown category key %q (want one of %v)", key, Keys())
		}
		out[c] = name
	}
	return out, nil
}

func withCommon(extra ...Binding) []Binding {
	out := make([]Binding, 0, len(commonBindings)+len(extra))
	out = append(out, commonBindings[:3]...)
	out = append(out, extra...)
	out = append(out, commonBindings[3:]...)
	return out
}
