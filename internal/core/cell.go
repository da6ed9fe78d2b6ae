package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellKind tags the scalar held by a Cell.
type CellKind uint8

const (
	CellNull CellKind = iota
	CellString
	CellNumber
)

func (k CellKind) String() string {
	switch k {
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	default:
		return "null"
	}
}

// Cell is a single row value: null, a string, or a number.
// The zero Cell is null. Numbers are held as a canonical JSON literal so
// values round-trip through every store unchanged.
type Cell struct {
	kind CellKind
	str  string
	num  json.Number
}

// RowData maps a CSV header to its value in one row.
type RowData map[string]Cell

// NullCell returns an absent value.
func NullCell() Cell { return Cell{} }

// StringCell wraps s.
func StringCell(s string) Cell { return Cell{kind: CellString, str: s} }

// NumberCell wraps a JSON number literal in its canonical form. It returns
// an error when n is not a valid number.
func NumberCell(n json.Number) (Cell, error) {
	if !isJSONNumber(n) {
		return Cell{}, fmt.Errorf("invalid number %q", string(n))
	}
	return Cell{kind: CellNumber, num: canonicalNumber(n)}, nil
}

// maxExactFloat bounds the integral floats written without a fraction.
const maxExactFloat = 1 << 53

// canonicalNumber writes integral values without exponent or fraction
// ("1e2" and "100.0" become "100") and others in shortest decimal form
// ("1.50" becomes "1.5"). Filters match this text in every store.
// Literals outside float64 range are kept as written.
func canonicalNumber(n json.Number) json.Number {
	s := string(n)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return json.Number(strconv.FormatInt(i, 10))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return n
	}
	if f == math.Trunc(f) && math.Abs(f) < maxExactFloat {
		return json.Number(strconv.FormatInt(int64(f), 10))
	}
	return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
}

// FloatCell wraps f as a number. NaN and infinities have no JSON form and become null.
func FloatCell(f float64) Cell {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NullCell()
	}
	return Cell{kind: CellNumber, num: canonicalNumber(json.Number(strconv.FormatFloat(f, 'f', -1, 64)))}
}

// Kind reports which scalar the cell holds.
func (c Cell) Kind() CellKind { return c.kind }

// IsNull reports whether the cell is absent.
func (c Cell) IsNull() bool { return c.kind == CellNull }

// Text is the cell as CSV text: null is empty, numbers are their canonical literal.
func (c Cell) Text() string {
	switch c.kind {
	case CellString:
		return c.str
	case CellNumber:
		return string(c.num)
	default:
		return ""
	}
}

func (c Cell) String() string { return c.Text() }

// Equal reports whether two cells hold the same kind and value.
func (c Cell) Equal(o Cell) bool {
	return c.kind == o.kind && c.str == o.str && c.num == o.num
}

// MarshalJSON encodes the cell as the matching JSON scalar.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case CellString:
		return json.Marshal(c.str)
	case CellNumber:
		return []byte(c.num), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, a string or a number. Booleans, arrays
// and objects are rejected.
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty cell value")
	}

	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return fmt.Errorf("invalid cell value %s", data)
		}
		*c = NullCell()
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = StringCell(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		cell, err := NumberCell(json.Number(data))
		if err != nil {
			return err
		}
		*c = cell
		return nil
	default:
		return fmt.Errorf("cell must be a string, number or null, got %s", data)
	}
}

// Clone returns a copy of d.
func (d RowData) Clone() RowData {
	if d == nil {
		return nil
	}
	out := make(RowData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Equal reports whether both rows hold the same keys and values.
func (d RowData) Equal(o RowData) bool {
	if len(d) != len(o) {
		return false
	}
	for k, v := range d {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Contains reports whether any non-null value contains substr. Matching is case-sensitive.
func (d RowData) Contains(substr string) bool {
	for _, v := range d {
		if v.IsNull() {
			continue
		}
		if strings.Contains(v.Text(), substr) {
			return true
		}
	}
	return false
}

// isJSONNumber reports whether n is a JSON number literal.
func isJSONNumber(n json.Number) bool {
	if n == "" {
		return false
	}
	if c := n[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	return json.Valid([]byte(n))
}
