// Package dataset loads the tank inspection register and derives one
// Observation per usable row.
package dataset

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"tankscope/internal/stats"
)

// ErrUnknownCategory is returned when a filter names a value that does not
// occur in the loaded dataset.
var ErrUnknownCategory = errors.New("dataset: unknown category value")

// Categories holds the distinct, sorted values observed per categorical column.
type Categories map[Column][]string

// Contains reports whether v was observed in column c.
func (c Categories) Contains(col Column, v string) bool {
	_, found := slices.BinarySearch(c[col], v)
	return found
}

// Dataset is the immutable tank register shared by every computation.
type Dataset struct {
	Observations []Observation `json:"-"`
	Categories   Categories    `json:"categories"`
	Source       string        `json:"source"`
	LoadedAt     time.Time     `json:"loaded_at"`
}

// New builds a dataset and indexes its categorical values.
func New(obs []Observation, source string) *Dataset {
	cats := make(Categories, len(CategoricalColumns))
	for _, col := range CategoricalColumns {
		seen := make(map[string]struct{})
		for _, o := range obs {
			if v := o.Attr(col); v != "" {
				seen[v] = struct{}{}
			}
		}
		vals := make([]string, 0, len(seen))
		for v := range seen {
			vals = append(vals, v)
		}
		slices.Sort(vals)
		cats[col] = vals
	}
	return &Dataset{
		Observations: obs,
		Categories:   cats,
		Source:       source,
		LoadedAt:     time.Now(),
	}
}

// Len returns the number of stored rows, including rows with missing numerics.
func (d *Dataset) Len() int {
	return len(d.Observations)
}

// Validate checks every constrained filter value against the observed categories.
func (d *Dataset) Validate(f Filter) error {
	f = f.Normalize()
	for _, c := range f.constraints() {
		if !d.Categories.Contains(c.col, c.val) {
			return fmt.Errorf("%w: %s=%q", ErrUnknownCategory, c.col, c.val)
		}
	}
	return nil
}

// Select returns the observations matching f. The dataset is not modified.
func (d *Dataset) Select(f Filter) Sample {
	f = f.Normalize()
	s := Sample{Filter: f}
	for _, o := range d.Observations {
		if f.Match(o) {
			s.Observations = append(s.Observations, o)
		}
	}
	return s
}

// All returns the unfiltered dataset as a sample.
func (d *Dataset) All() Sample {
	return Sample{Observations: d.Observations}
}

// Sample is the set of observations produced by one filter.
type Sample struct {
	Filter       Filter
	Observations []Observation
}

// Len returns the number of matching rows.
func (s Sample) Len() int {
	return len(s.Observations)
}

// Rates returns the non-missing corrosion rates of the sample.
func (s Sample) Rates() []float64 {
	out := make([]float64, 0, len(s.Observations))
	for _, o := range s.Observations {
		if o.HasRate() {
			out = append(out, o.Rate)
		}
	}
	return out
}

// Filter is an equality predicate over the categorical columns and,
// optionally, an age bin. Empty fields do not constrain.
type Filter struct {
	Material    string        `json:"material,omitempty"`
	Product     string        `json:"product,omitempty"`
	Shape       string        `json:"shape,omitempty"`
	Cathodic    string        `json:"cathodic_protection,omitempty"`
	HeatingCoil string        `json:"heating_coil,omitempty"`
	Region      string        `json:"region,omitempty"`
	AgeBin      *stats.AgeBin `json:"age_bin,omitempty"`
}

type constraint struct {
	col Column
	val string
}

func (f Filter) constraints() []constraint {
	var out []constraint
	for _, c := range []constraint{
		{ColMaterial, f.Material},
		{ColProduct, f.Product},
		{ColShape, f.Shape},
		{ColCathodic, f.Cathodic},
		{ColHeatingCoil, f.HeatingCoil},
		{ColRegion, f.Region},
	} {
		if c.val != "" {
			out = append(out, c)
		}
	}
	return out
}

// Normalize trims values and canonicalises recognisable O/X flags.
func (f Filter) Normalize() Filter {
	f.Material = strings.TrimSpace(f.Material)
	f.Product = strings.TrimSpace(f.Product)
	f.Shape = strings.TrimSpace(f.Shape)
	f.Region = strings.TrimSpace(f.Region)
	f.Cathodic = normalizeFlag(f.Cathodic)
	f.HeatingCoil = normalizeFlag(f.HeatingCoil)
	return f
}

func normalizeFlag(s string) string {
	s = strings.TrimSpace(s)
	if fl := ParseFlag(s); fl != FlagUnknown {
		return string(fl)
	}
	return s
}

// WithAgeBin returns a copy of f further restricted to bin b.
func (f Filter) WithAgeBin(b stats.AgeBin) Filter {
	f.AgeBin = &b
	return f
}

// Match reports whether o satisfies every constraint of f.
func (f Filter) Match(o Observation) bool {
	for _, c := range f.constraints() {
		if o.Attr(c.col) != c.val {
			return false
		}
	}
	if f.AgeBin != nil {
		b, err := stats.ClassifyAge(o.Age)
		if err != nil || b != *f.AgeBin {
			return false
		}
	}
	return true
}

// Key is the canonical cache key of the filter.
func (f Filter) Key() string {
	f = f.Normalize()
	var sb strings.Builder
	for i, c := range []constraint{
		{ColMaterial, f.Material},
		{ColProduct, f.Product},
		{ColShape, f.Shape},
		{ColCathodic, f.Cathodic},
		{ColHeatingCoil, f.HeatingCoil},
		{ColRegion, f.Region},
	} {
		if i > 0 {
			sb.WriteByte('|')
		}
		fmt.Fprintf(&sb, "%s=%q", c.col, c.val)
	}
	sb.WriteString("|age=")
	if f.AgeBin != nil {
		sb.WriteString(f.AgeBin.String())
	}
	return sb.String()
}

// IsZero reports whether the filter constrains nothing.
func (f Filter) IsZero() bool {
	return len(f.Normalize().constraints()) == 0 && f.AgeBin == nil
}

// String lists the active constraints, e.g. "material=SS400, age=20 and over".
func (f Filter) String() string {
	var parts []string
	for _, c := range f.Normalize().constraints() {
		parts = append(parts, string(c.col)+"="+c.val)
	}
	if f.AgeBin != nil {
		parts = append(parts, "age="+f.AgeBin.String())
	}
	if len(parts) == 0 {
		return "all tanks"
	}
	return strings.Join(parts, ", ")
}
