package dataset

import (
	"math"
	"strings"
)

// Flag is the O/X marker used for the cathodic-protection and heating-coil columns.
type Flag string

const (
	FlagUnknown Flag = ""
	FlagYes     Flag = "O"
	FlagNo      Flag = "X"
)

// ParseFlag normalises the spellings found in tank registers. Anything that is
// not recognisably O or X is FlagUnknown.
func ParseFlag(s string) Flag {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "O", "○", "Y", "YES":
		return FlagYes
	case "X", "×", "N", "NO":
		return FlagNo
	}
	return FlagUnknown
}

// Column names a field of the tank register.
type Column string

const (
	ColRate        Column = "corrosion_rate"
	ColAge         Column = "age_years"
	ColMaterial    Column = "material"
	ColProduct     Column = "product"
	ColShape       Column = "shape"
	ColCathodic    Column = "cathodic_protection"
	ColHeatingCoil Column = "heating_coil"
	ColRegion      Column = "region"
)

// CategoricalColumns lists the filterable columns in display order.
var CategoricalColumns = []Column{ColMaterial, ColProduct, ColShape, ColCathodic, ColHeatingCoil, ColRegion}

// columnAliases maps each column to the header spellings accepted on load.
// The first alias is the header used by the source registers.
var columnAliases = map[Column][]string{
	ColRate:        {"부식률", "corrosion_rate", "rate", "corrosion rate"},
	ColAge:         {"사용연수", "age_years", "age", "service_years"},
	ColMaterial:    {"재질", "material"},
	ColProduct:     {"품명", "product"},
	ColShape:       {"탱크형상", "shape", "tank_shape"},
	ColCathodic:    {"전기방식", "cathodic_protection", "cathodic"},
	ColHeatingCoil: {"히팅코일", "heating_coil", "heating"},
	ColRegion:      {"지역", "region"},
}

// Observation is one historical tank record. Missing numerics are NaN.
type Observation struct {
	Rate        float64 `json:"corrosion_rate"`
	Age         float64 `json:"age_years"`
	Material    string  `json:"material"`
	Product     string  `json:"product"`
	Shape       string  `json:"shape"`
	Region      string  `json:"region"`
	Cathodic    Flag    `json:"cathodic_protection"`
	HeatingCoil Flag    `json:"heating_coil"`
}

// HasRate reports whether the observation can contribute to rate statistics.
func (o Observation) HasRate() bool {
	return !math.IsNaN(o.Rate) && !math.IsInf(o.Rate, 0)
}

// Attr returns the value of a categorical column.
func (o Observation) Attr(c Column) string {
	switch c {
	case ColMaterial:
		return o.Material
	case ColProduct:
		return o.Product
	case ColShape:
		return o.Shape
	case ColRegion:
		return o.Region
	case ColCathodic:
		return string(o.Cathodic)
	case ColHeatingCoil:
		return string(o.HeatingCoil)
	}
	return ""
}
