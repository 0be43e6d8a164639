package cleaner

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/KaramelBytes/metaclean-cli/internal/table"
)

// NullString is a string that may be missing.
type NullString struct {
	String string
	Valid  bool
}

// Str returns a present string value.
func Str(s string) NullString { return NullString{String: s, Valid: true} }

// Cell renders the value for CSV output; missing is an empty cell.
func (n NullString) Cell() string {
	if !n.Valid {
		return ""
	}
	return n.String
}

// NullFloat is a float64 that may be missing. NaN is never stored in it.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a present float value.
func Float(f float64) NullFloat { return NullFloat{Float64: f, Valid: true} }

// Cell renders the value the way pandas writes floats: integral values keep a
// trailing ".0" and very large or small magnitudes use exponent notation.
func (n NullFloat) Cell() string {
	if !n.Valid {
		return ""
	}
	v := n.Float64
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	var s string
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		s = strconv.FormatFloat(v, 'e', -1, 64)
	} else {
		s = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// ParseFloat converts text to a number without ever failing: null tokens,
// unparseable text and NaN all come back as a missing value.
func ParseFloat(s string) NullFloat {
	v := strings.TrimSpace(s)
	if table.IsNull(v) || !decimalLiteral(v) {
		return NullFloat{}
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		// overflow saturates to +/-Inf
		if g, perr := strconv.ParseFloat(v, 64); errors.Is(perr, strconv.ErrRange) && math.IsInf(g, 0) {
			return Float(g)
		}
		return NullFloat{}
	}
	if math.IsNaN(f) {
		return NullFloat{}
	}
	return Float(f)
}

// decimalLiteral rejects the Go-only float syntax: digit separators and hex mantissas.
func decimalLiteral(v string) bool {
	if strings.Contains(v, "_") {
		return false
	}
	u := strings.TrimLeft(v, "+-")
	return !strings.HasPrefix(u, "0x") && !strings.HasPrefix(u, "0X")
}
