// Package output serializes extraction results as JSON or CSV.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
)

// Shape selects the record layout of JSON output.
type Shape string

const (
	// ShapeFlat emits the flat record list of each sheet.
	ShapeFlat Shape = "flat"
	// ShapeNested emits records grouped by class and checkpoint.
	ShapeNested Shape = "nested"
)

// ParseShape validates a shape name.
func ParseShape(s string) (Shape, error) {
	switch Shape(s) {
	case ShapeFlat, "":
		return ShapeFlat, nil
	case ShapeNested:
		return ShapeNested, nil
	}
	return "", fmt.Errorf("invalid shape: %s (must be flat or nested)", s)
}

type nestedSheet struct {
	Sheet       string              `json:"sheet"`
	Layout      string              `json:"layout,omitempty"`
	Range       string              `json:"range,omitempty"`
	Tables      int                 `json:"tables"`
	Fields      []string            `json:"fields,omitempty"`
	Metadata    map[string]string   `json:"metadata,omitempty"`
	Groups      []models.Group      `json:"groups"`
	Diagnostics []models.Diagnostic `json:"diagnostics,omitempty"`
}

type workbook struct {
	RunID    string        `json:"run_id"`
	BookName string        `json:"book_name"`
	Sheets   []interface{} `json:"sheets"`
}

// ToJSON serializes a workbook result.
func ToJSON(wb *models.WorkbookResult, shape Shape, pretty bool) ([]byte, error) {
	out := workbook{
		RunID:    wb.RunID,
		BookName: wb.BookName,
		Sheets:   make([]interface{}, 0, len(wb.Sheets)),
	}
	for i := range wb.Sheets {
		out.Sheets = append(out.Sheets, sheetView(&wb.Sheets[i], shape))
	}
	return marshal(out, pretty)
}

// SheetToJSON serializes a single sheet result.
func SheetToJSON(s *models.SheetResult, shape Shape, pretty bool) ([]byte, error) {
	return marshal(sheetView(s, shape), pretty)
}

func sheetView(s *models.SheetResult, shape Shape) interface{} {
	if shape == ShapeNested {
		groups := s.Groups
		if groups == nil {
			groups = []models.Group{}
		}
		return nestedSheet{
			Sheet:       s.Sheet,
			Layout:      s.Layout,
			Range:       s.Range,
			Tables:      s.Tables,
			Fields:      s.Fields,
			Metadata:    s.Metadata,
			Groups:      groups,
			Diagnostics: s.Diagnostics,
		}
	}
	flat := *s
	flat.Groups = nil
	if flat.Records == nil {
		flat.Records = []models.Record{}
	}
	return flat
}

// marshal encodes v without HTML escaping so condition text like
// "08:00<ETD<12:00" stays readable.
func marshal(v interface{}, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
