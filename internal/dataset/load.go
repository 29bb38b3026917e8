package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const utf8BOM = "\uFEFF"

// Load reads a tank register from a .csv or .xlsx file.
func Load(path string) (*Dataset, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open dataset: %w", openErr)
		}
		defer f.Close()
		records, err = readCSV(f)
	case ".xlsx":
		records, err = readXLSX(path, "")
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	obs, err := fromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	ds := New(obs, path)
	log.Info().
		Str("path", path).
		Int("rows", ds.Len()).
		Msg("Dataset loaded")
	return ds, nil
}

// ReadCSV parses a register from r. source is recorded on the dataset.
func ReadCSV(r io.Reader, source string) (*Dataset, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	obs, err := fromRecords(records)
	if err != nil {
		return nil, err
	}
	return New(obs, source), nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
	}
	return records, nil
}

// fromRecords maps a header row plus data rows onto observations. Numeric cells
// that do not parse become NaN; the row itself is kept.
func fromRecords(records [][]string) ([]Observation, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset has no header row")
	}

	idx, err := resolveColumns(records[0])
	if err != nil {
		return nil, err
	}

	cell := func(row []string, c Column) string {
		i := idx[c]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	obs := make([]Observation, 0, len(records)-1)
	var missing int
	for _, row := range records[1:] {
		if blankRow(row) {
			continue
		}
		o := Observation{
			Rate:        parseNumber(cell(row, ColRate)),
			Age:         parseNumber(cell(row, ColAge)),
			Material:    cell(row, ColMaterial),
			Product:     cell(row, ColProduct),
			Shape:       cell(row, ColShape),
			Region:      cell(row, ColRegion),
			Cathodic:    ParseFlag(cell(row, ColCathodic)),
			HeatingCoil: ParseFlag(cell(row, ColHeatingCoil)),
		}
		if !o.HasRate() || math.IsNaN(o.Age) {
			missing++
		}
		obs = append(obs, o)
	}
	if missing > 0 {
		log.Debug().Int("rows", missing).Msg("Rows with missing numerics kept out of statistics")
	}
	return obs, nil
}

func resolveColumns(header []string) (map[Column]int, error) {
	lookup := make(map[string]int, len(header))
	for i, h := range header {
		lookup[normalizeHeader(h)] = i
	}

	idx := make(map[Column]int, len(columnAliases))
	var missing []string
	for _, col := range append([]Column{ColRate, ColAge}, CategoricalColumns...) {
		found := false
		for _, alias := range columnAliases[col] {
			if i, ok := lookup[normalizeHeader(alias)]; ok {
				idx[col] = i
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, fmt.Sprintf("%s (%s)", col, columnAliases[col][0]))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), utf8BOM)
	return strings.ToLower(strings.ReplaceAll(h, " ", "_"))
}

func parseNumber(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
