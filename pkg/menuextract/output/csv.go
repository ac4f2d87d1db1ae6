package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
)

// SheetColumn is the leading CSV column naming the source sheet.
const SheetColumn = "sheet"

const utf8BOM = "\ufeff"

// WriteCSV writes every record of wb as one CSV table. Columns are the sheet
// name followed by the union of the sheets' fields in first-seen order;
// missing and null values are empty. bom prefixes a UTF-8 byte order mark
// so spreadsheet programs detect the encoding.
func WriteCSV(w io.Writer, wb *models.WorkbookResult, bom bool) error {
	var columns []string
	seen := make(map[string]bool)
	for _, s := range wb.Sheets {
		for _, f := range s.Fields {
			if !seen[f] {
				seen[f] = true
				columns = append(columns, f)
			}
		}
	}

	cw, err := newWriter(w, bom, append([]string{SheetColumn}, columns...))
	if err != nil {
		return err
	}
	for _, s := range wb.Sheets {
		for _, rec := range s.Records {
			row := append([]string{s.Sheet}, values(rec, columns)...)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSheetCSV writes the records of one sheet, columns in field order.
func WriteSheetCSV(w io.Writer, s *models.SheetResult, bom bool) error {
	cw, err := newWriter(w, bom, s.Fields)
	if err != nil {
		return err
	}
	for _, rec := range s.Records {
		if err := cw.Write(values(rec, s.Fields)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func newWriter(w io.Writer, bom bool, header []string) (*csv.Writer, error) {
	if bom {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return nil, err
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	return cw, nil
}

func values(rec models.Record, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		switch v := rec[c].(type) {
		case nil:
		case string:
			out[i] = v
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
