// Package parser decodes xlsx worksheets into grids for the extraction engine.
package parser

import (
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
)

// ReadOptions controls how a worksheet is decoded.
type ReadOptions struct {
	// PrintAreaOnly blanks every cell outside the sheet's print area.
	// Sheets without a print area are read whole.
	PrintAreaOnly bool
}

// ReadSheet decodes sheetName into a models.Sheet: raw cell values, typed
// as text or number, plus the merged regions of the sheet.
func ReadSheet(f *excelize.File, sheetName string, opts ReadOptions) (models.Sheet, error) {
	rows, err := ExtractCells(f, sheetName)
	if err != nil {
		return models.Sheet{}, err
	}
	merges, err := ExtractMerges(f, sheetName)
	if err != nil {
		return models.Sheet{}, err
	}
	if opts.PrintAreaOnly {
		if area, ok := PrintArea(f, sheetName); ok {
			rows = clip(rows, area)
		}
	}
	return models.Sheet{
		Name:   sheetName,
		Grid:   models.NewGrid(rows),
		Merges: merges,
	}, nil
}

// ExtractCells reads the raw cell values of a sheet.
// Rows are 0-based and keep their position; trailing empty cells are dropped
// by excelize and read back as null.
func ExtractCells(f *excelize.File, sheetName string) ([][]models.Cell, error) {
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	result := make([][]models.Cell, len(rows))
	for rowIdx, row := range rows {
		cells := make([]models.Cell, len(row))
		for colIdx, raw := range row {
			if raw == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheetName, cellName)
			if err != nil {
				return nil, err
			}
			cells[colIdx] = parseValue(raw, typ)
		}
		result[rowIdx] = cells
	}
	return result, nil
}

// parseValue types a raw cell value. Cells stored as strings stay text even
// when they look numeric; untyped and numeric cells become numbers when
// they parse.
func parseValue(s string, typ excelize.CellType) models.Cell {
	if s == "" {
		return models.Null()
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError, excelize.CellTypeDate:
		return models.Text(s)
	case excelize.CellTypeBool:
		if s == "1" {
			return models.Text("TRUE")
		}
		return models.Text("FALSE")
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return models.Number(n)
	}
	return models.Text(s)
}

// clip blanks every cell outside area.
func clip(rows [][]models.Cell, area models.MergedRegion) [][]models.Cell {
	for r, row := range rows {
		for c := range row {
			if !area.Contains(r, c) {
				row[c] = models.Null()
			}
		}
	}
	return rows
}
