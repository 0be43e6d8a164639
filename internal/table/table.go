// Package table holds the tabular I/O shared by the cleaner, the GEO fetcher and the
// exploration reports. Frames are go-gota DataFrames whose columns are all strings, so
// raw values survive a read/write round trip verbatim.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/metaclean-cli/internal/utils"
)

// ErrNoHeader is returned when a file has no header row at all.
var ErrNoHeader = errors.New("no header row")

// ErrNoColumn is returned when a named column is absent from a frame.
var ErrNoColumn = errors.New("column not found")

// ErrBadHeader is returned for empty or duplicate column names.
var ErrBadHeader = errors.New("invalid header")

// Options controls how delimited files are read.
type Options struct {
	// Delimiter for CSV. If 0, '\t' is used for .tsv files and ',' otherwise.
	Delimiter rune
}

// nullTokens are the default NA strings of pandas.read_csv. Matching is exact, so a
// whitespace-only cell is a value.
var nullTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNull reports whether a raw cell counts as a missing value.
func IsNull(v string) bool {
	_, ok := nullTokens[v]
	return ok
}

// ReadCSV loads a delimited file with a header row into a string-typed DataFrame.
// Short rows are padded with empty cells; rows wider than the header are rejected.
func ReadCSV(path string, opt Options) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dataframe.DataFrame{}, fmt.Errorf("read header: %w", ErrNoHeader)
		}
		return dataframe.DataFrame{}, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	ncol := len(header)

	cols := make([][]string, ncol)
	row := 0
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return dataframe.DataFrame{}, fmt.Errorf("read row %d: %w", row+1, err)
		}
		row++
		if len(rec) > ncol {
			return dataframe.DataFrame{}, fmt.Errorf("read row %d: expected %d fields, saw %d", row, ncol, len(rec))
		}
		for j := 0; j < ncol; j++ {
			v := ""
			if j < len(rec) {
				v = rec[j]
			}
			cols[j] = append(cols[j], v)
		}
	}
	return FromColumns(header, cols)
}

// FromColumns builds a string-typed frame from column-major values. Columns may be
// empty, which yields a frame with a header and no rows.
func FromColumns(names []string, cols [][]string) (dataframe.DataFrame, error) {
	if len(names) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("build frame: %w", ErrNoHeader)
	}
	if len(cols) != len(names) {
		return dataframe.DataFrame{}, fmt.Errorf("build frame: %d names for %d columns", len(names), len(cols))
	}
	if err := checkHeader(names); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("build frame: %w", err)
	}
	ss := make([]series.Series, len(names))
	for i, name := range names {
		vals := cols[i]
		if vals == nil {
			vals = []string{}
		}
		ss[i] = series.New(vals, series.String, name)
	}
	df := dataframe.New(ss...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("build frame: %w", df.Err)
	}
	return df, nil
}

// checkHeader rejects names the frame would rename: gota turns an empty name into
// X<i> and suffixes duplicates, which would change the header on write.
func checkHeader(names []string) error {
	seen := make(map[string]int, len(names))
	for i, n := range names {
		if n == "" {
			return fmt.Errorf("%w: column %d has an empty name", ErrBadHeader, i+1)
		}
		if j, ok := seen[n]; ok {
			return fmt.Errorf("%w: columns %d and %d are both named %q", ErrBadHeader, j+1, i+1, n)
		}
		seen[n] = i
	}
	return nil
}

// FromRecords builds a frame from a header row followed by data rows.
func FromRecords(records [][]string) (dataframe.DataFrame, error) {
	if len(records) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("build frame: %w", ErrNoHeader)
	}
	header := records[0]
	cols := make([][]string, len(header))
	for i := range cols {
		cols[i] = make([]string, 0, len(records)-1)
	}
	for n, rec := range records[1:] {
		if len(rec) != len(header) {
			return dataframe.DataFrame{}, fmt.Errorf("build frame: row %d has %d fields, want %d", n+1, len(rec), len(header))
		}
		for j, v := range rec {
			cols[j] = append(cols[j], v)
		}
	}
	return FromColumns(header, cols)
}

// WriteCSV serializes the frame with a header row and atomically replaces path.
func WriteCSV(path string, df dataframe.DataFrame) error {
	if df.Err != nil {
		return fmt.Errorf("write csv: %w", df.Err)
	}
	var buf bytes.Buffer
	if err := df.WriteCSV(&buf); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// HasColumn reports whether the frame has a column with exactly this name.
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the names that the frame lacks, in the order given.
func MissingColumns(df dataframe.DataFrame, names ...string) []string {
	var out []string
	for _, n := range names {
		if !HasColumn(df, n) {
			out = append(out, n)
		}
	}
	return out
}

// Strings returns the raw values of one column.
func Strings(df dataframe.DataFrame, name string) ([]string, error) {
	if !HasColumn(df, name) {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	if df.Nrow() == 0 {
		return []string{}, nil
	}
	return df.Col(name).Records(), nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
