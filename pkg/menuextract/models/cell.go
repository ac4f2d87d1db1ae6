// Package models defines data structures for menu extraction.
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CellKind identifies which scalar a Cell holds.
type CellKind uint8

const (
	// KindNull marks an empty cell.
	KindNull CellKind = iota
	// KindString marks a text cell.
	KindString
	// KindNumber marks a numeric cell.
	KindNumber
)

// Cell is a nullable scalar spreadsheet value.
type Cell struct {
	// Kind is the scalar kind held by the cell.
	Kind CellKind
	// Text is the value of a string cell.
	Text string
	// Number is the value of a numeric cell.
	Number float64
}

// Null returns an empty cell.
func Null() Cell { return Cell{} }

// Text returns a string cell.
func Text(s string) Cell { return Cell{Kind: KindString, Text: s} }

// Number returns a numeric cell.
func Number(n float64) Cell { return Cell{Kind: KindNumber, Number: n} }

// IsNull reports whether the cell holds no value.
func (c Cell) IsNull() bool { return c.Kind == KindNull }

// IsEmpty reports whether the cell is null or whitespace-only text.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(c.Text) == ""
	}
	return false
}

// String renders the cell the way a spreadsheet user reads it.
// Numbers drop trailing zeros; null renders as "".
func (c Cell) String() string {
	switch c.Kind {
	case KindString:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	}
	return ""
}

// Trimmed returns String with surrounding whitespace removed.
func (c Cell) Trimmed() string {
	return strings.TrimSpace(c.String())
}

// MarshalJSON encodes the cell as a JSON string, number or null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindString:
		return json.Marshal(c.Text)
	case KindNumber:
		return json.Marshal(c.Number)
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes a JSON string, number or null into the cell.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*c = Null()
	case string:
		*c = Text(t)
	case float64:
		*c = Number(t)
	default:
		*c = Text(strings.TrimSpace(string(data)))
	}
	return nil
}
