package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// CSVOptions describes how the columns of a CSV file map onto a schema.
// Columns not named here are inferred: numeric when every known cell parses
// as a float, nominal otherwise.
type CSVOptions struct {
	Targets []string
	Series  map[string]SeriesMeasure
	Strings []string
	// Nominal forces columns to nominal even when their cells look numeric.
	Nominal      []string
	Disabled     []string
	Hierarchical bool
	// MissingTokens lists cell values read as missing. Defaults to "?" and "".
	MissingTokens []string
}

// LoadCSV reads a CSV file with a header row.
func LoadCSV(path string, opts CSVOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

// ReadCSV reads CSV data with a header row into a dataset.
func ReadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(records) < 2 {
		return nil, errors.Wrap(errors.ErrEmptyData, "csv needs a header and at least one row")
	}
	header, body := records[0], records[1:]

	missing := opts.MissingTokens
	if missing == nil {
		missing = []string{"?", ""}
	}
	isMissing := func(cell string) bool {
		cell = strings.TrimSpace(cell)
		for _, m := range missing {
			if cell == m {
				return true
			}
		}
		return false
	}

	attrs := make([]Attribute, len(header))
	for j, name := range header {
		name = strings.TrimSpace(name)
		a := Attribute{Name: name, Role: Descriptive}
		switch {
		case contains(opts.Targets, name):
			a.Role = Target
		case contains(opts.Disabled, name):
			a.Role = Disabled
		}
		if m, ok := opts.Series[name]; ok {
			a.Kind = TimeSeries
			a.Measure = m
		} else if contains(opts.Strings, name) {
			a.Kind = String
		} else {
			a.Kind, a.Values = inferColumn(body, j, isMissing, contains(opts.Nominal, name))
		}
		attrs[j] = a
	}
	for _, t := range opts.Targets {
		if !contains(header, t) {
			return nil, errors.NewValidationError("targets", "target column not in header", t)
		}
	}

	schema, err := NewSchema(attrs, opts.Hierarchical)
	if err != nil {
		return nil, err
	}

	rows := make([][]Value, len(body))
	for i, rec := range body {
		if len(rec) != len(attrs) {
			return nil, errors.NewDimensionError("dataset.ReadCSV", len(attrs), len(rec), 1)
		}
		row := make([]Value, len(attrs))
		for j, cell := range rec {
			cell = strings.TrimSpace(cell)
			if isMissing(cell) {
				row[j] = MissingValue()
				continue
			}
			v, err := parseCell(&attrs[j], cell)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %s", i+1, attrs[j].Name)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return New(schema, rows)
}

func parseCell(a *Attribute, cell string) (Value, error) {
	switch a.Kind {
	case Nominal:
		return NominalValue(a.ValueIndex(cell)), nil
	case Numeric:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return Value{}, err
		}
		return NumericValue(f), nil
	case TimeSeries:
		fields := strings.FieldsFunc(cell, func(r rune) bool { return r == ' ' || r == ';' })
		series := make([]float64, len(fields))
		for k, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return Value{}, err
			}
			series[k] = v
		}
		return SeriesValue(series), nil
	case String:
		return StringValue(cell), nil
	default:
		return Value{}, errors.NewUnknownAttributeKindError("dataset.ReadCSV", a.Name, int(a.Kind))
	}
}

func inferColumn(body [][]string, j int, isMissing func(string) bool, forceNominal bool) (Kind, []string) {
	numeric := !forceNominal
	seen := map[string]struct{}{}
	for _, rec := range body {
		if j >= len(rec) || isMissing(rec[j]) {
			continue
		}
		cell := strings.TrimSpace(rec[j])
		seen[cell] = struct{}{}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			numeric = false
		}
	}
	if numeric {
		return Numeric, nil
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return Nominal, values
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
