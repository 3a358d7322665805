package beamcentre

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
)

// A LoadError means the beam position feed could not be used at all.
// Unlike problems with a single image, this stops the whole run.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load '%s' as a beam position file: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadPositions reads a beam position feed. A .csv file needs an
// `index,fast,slow` header; anything else is read as JSON, an array of
// rows that are either [index, fast, slow] or, as written by
// dials.search_beam_position, [label, index, fast, slow].
func LoadPositions(filename string) (Series, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, &LoadError{Path: filename, Err: err}
	}

	var s Series
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		s, err = parseCSV(contents)
	default:
		s, err = parseJSON(contents)
	}
	if err != nil {
		return nil, &LoadError{Path: filename, Err: err}
	}

	if err := s.Validate(); err != nil {
		return nil, &LoadError{Path: filename, Err: err}
	}

	return s, nil
}

type csvRow struct {
	Index int     `csv:"index"`
	Fast  float64 `csv:"fast"`
	Slow  float64 `csv:"slow"`
}

func parseCSV(b []byte) (Series, error) {
	var rows []csvRow
	if err := csvutil.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}

	s := make(Series, len(rows))
	for i, r := range rows {
		s[i] = Sample{Index: r.Index, Fast: r.Fast, Slow: r.Slow}
	}
	return s, nil
}

func parseJSON(b []byte) (Series, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}

	s := make(Series, 0, len(rows))
	for i, row := range rows {
		if len(row) != 3 && len(row) != 4 {
			return nil, fmt.Errorf("row %d: want 3 or 4 columns, got %d", i, len(row))
		}
		row = row[len(row)-3:] // drop any leading label

		var vals [3]float64
		for j := range vals {
			if err := json.Unmarshal(row[j], &vals[j]); err != nil {
				return nil, fmt.Errorf("row %d, column %d: %w", i, j, err)
			}
		}
		if vals[0] != math.Trunc(vals[0]) {
			return nil, fmt.Errorf("row %d: image number %v is not an integer", i, vals[0])
		}

		s = append(s, Sample{Index: int(vals[0]), Fast: vals[1], Slow: vals[2]})
	}
	return s, nil
}
