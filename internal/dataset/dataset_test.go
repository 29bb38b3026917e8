package dataset

import (
	"errors"
	"math"
	"strings"
	"testing"

	"tankscope/internal/stats"
)

const registerCSV = "\uFEFF부식률,사용연수,재질,품명,탱크형상,전기방식,히팅코일,지역\n" +
	"0.020,5,SS400,경유,CRT,O,X,울산\n" +
	"0.030,12,SS400,경유,CRT,O,X,울산\n" +
	"0.010,10,STS304,휘발유,FRT,X,O,여수\n" +
	"0.050,25,SS400,벙커C유,CRT,x,o,여수\n" +
	",31,SS400,경유,CRT,O,X,울산\n" +
	"0.040,abc,SS400,경유,DOME,O,X,울산\n" +
	",,,,,,,\n"

func mustRead(t *testing.T, data string) *Dataset {
	t.Helper()
	ds, err := ReadCSV(strings.NewReader(data), "test.csv")
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	return ds
}

func TestReadCSV_KoreanHeaders(t *testing.T) {
	ds := mustRead(t, registerCSV)

	if ds.Len() != 6 {
		t.Fatalf("expected 6 stored rows (blank row dropped), got %d", ds.Len())
	}
	first := ds.Observations[0]
	if first.Rate != 0.02 || first.Age != 5 || first.Material != "SS400" || first.Region != "울산" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if first.Cathodic != FlagYes || first.HeatingCoil != FlagNo {
		t.Errorf("flags not parsed: %+v", first)
	}
	if ds.Observations[3].Cathodic != FlagNo || ds.Observations[3].HeatingCoil != FlagYes {
		t.Errorf("lower-case flags not normalised: %+v", ds.Observations[3])
	}
	if !math.IsNaN(ds.Observations[4].Rate) {
		t.Errorf("missing rate should be NaN, got %v", ds.Observations[4].Rate)
	}
	if !math.IsNaN(ds.Observations[5].Age) {
		t.Errorf("unparsable age should be NaN, got %v", ds.Observations[5].Age)
	}
}

func TestReadCSV_EnglishHeaders(t *testing.T) {
	data := "Corrosion Rate,age_years,material,product,shape,cathodic_protection,heating_coil,region\n" +
		"0.02,3,A,B,C,O,X,R\n"
	ds := mustRead(t, data)
	if ds.Len() != 1 || ds.Observations[0].Rate != 0.02 {
		t.Errorf("unexpected dataset: %+v", ds.Observations)
	}
}

func TestReadCSV_MissingColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("부식률,재질\n0.1,SS400\n"), "bad.csv")
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "age_years") {
		t.Errorf("error should name the missing column, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	ds := mustRead(t, registerCSV)

	want := []string{"SS400", "STS304"}
	got := ds.Categories[ColMaterial]
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("materials: expected %v, got %v", want, got)
	}
	if got := ds.Categories[ColCathodic]; strings.Join(got, ",") != "O,X" {
		t.Errorf("cathodic flags: expected [O X], got %v", got)
	}
}

func TestValidate(t *testing.T) {
	ds := mustRead(t, registerCSV)

	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{"Empty", Filter{}, false},
		{"Known", Filter{Material: "SS400", Region: "울산"}, false},
		{"FlagSpelling", Filter{Cathodic: "o"}, false},
		{"UnknownMaterial", Filter{Material: "Titanium"}, true},
		{"UnknownFlag", Filter{HeatingCoil: "maybe"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ds.Validate(tt.filter)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnknownCategory) {
				t.Errorf("expected ErrUnknownCategory, got %v", err)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	ds := mustRead(t, registerCSV)

	sample := ds.Select(Filter{Material: "SS400", Product: "경유"})
	if sample.Len() != 4 {
		t.Fatalf("expected 4 rows, got %d", sample.Len())
	}
	for _, o := range sample.Observations {
		if o.Material != "SS400" || o.Product != "경유" {
			t.Errorf("row violates filter: %+v", o)
		}
	}
	if rates := sample.Rates(); len(rates) != 3 {
		t.Errorf("expected 3 non-missing rates, got %v", rates)
	}

	binned := ds.Select(Filter{Material: "SS400"}.WithAgeBin(stats.Age10Plus))
	if binned.Len() != 1 || binned.Observations[0].Age != 12 {
		t.Errorf("age-bin select: unexpected rows %+v", binned.Observations)
	}

	if ds.Select(Filter{}).Len() != ds.Len() {
		t.Error("empty filter should select every row")
	}
}

func TestFilterKey(t *testing.T) {
	a := Filter{Material: "SS400", Cathodic: "o"}
	b := Filter{Material: " SS400 ", Cathodic: "O"}
	if a.Key() != b.Key() {
		t.Errorf("equivalent filters produced different keys:\n%s\n%s", a.Key(), b.Key())
	}
	if a.Key() == a.WithAgeBin(stats.Age20Plus).Key() {
		t.Error("age bin must be part of the key")
	}
	if a.Key() == (Filter{Product: "SS400", Cathodic: "O"}).Key() {
		t.Error("column must be part of the key")
	}
	if !(Filter{Region: "  "}).IsZero() {
		t.Error("whitespace-only filter should be zero")
	}
	if got := a.WithAgeBin(stats.Age20Plus).String(); got != "material=SS400, cathodic_protection=O, age=20 and over" {
		t.Errorf("unexpected description %q", got)
	}
	if got := (Filter{}).String(); got != "all tanks" {
		t.Errorf("empty filter described as %q", got)
	}
}

func TestParseFlag(t *testing.T) {
	tests := map[string]Flag{
		"O": FlagYes, " o ": FlagYes, "○": FlagYes,
		"X": FlagNo, "x": FlagNo,
		"": FlagUnknown, "?": FlagUnknown,
	}
	for in, want := range tests {
		if got := ParseFlag(in); got != want {
			t.Errorf("ParseFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStore(t *testing.T) {
	first := mustRead(t, registerCSV)
	s := NewStore(first)

	ds, gen := s.Current()
	if ds != first || gen != 1 {
		t.Fatalf("expected first dataset at generation 1, got %p/%d", ds, gen)
	}

	second := mustRead(t, registerCSV)
	if got := s.Replace(second); got != 2 {
		t.Errorf("expected generation 2, got %d", got)
	}
	ds, gen = s.Current()
	if ds != second || gen != 2 {
		t.Errorf("expected second dataset at generation 2, got %p/%d", ds, gen)
	}
}
