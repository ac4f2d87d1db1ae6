package parser

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
)

// ExtractMerges returns the merged regions of a sheet with 0-based
// inclusive coordinates.
func ExtractMerges(f *excelize.File, sheetName string) ([]models.MergedRegion, error) {
	cells, err := f.GetMergeCells(sheetName)
	if err != nil {
		return nil, err
	}
	var out []models.MergedRegion
	for _, mc := range cells {
		ref := mc.GetStartAxis() + ":" + mc.GetEndAxis()
		if area, ok := parseRange(ref); ok {
			out = append(out, area)
		}
	}
	return out, nil
}

// PrintArea returns the first print area defined for sheetName.
func PrintArea(f *excelize.File, sheetName string) (models.MergedRegion, bool) {
	for _, dn := range f.GetDefinedName() {
		if !strings.EqualFold(dn.Name, "_xlnm.Print_Area") {
			continue
		}
		sheet, areas := parsePrintAreaReference(dn.RefersTo)
		if sheet == "" || len(areas) == 0 {
			continue
		}
		if sheet == sheetName || dn.Scope == sheetName {
			return areas[0], true
		}
	}
	return models.MergedRegion{}, false
}

// parsePrintAreaReference parses a print area reference string.
// Format: 'SheetName'!$A$1:$D$10 or SheetName!$A$1:$D$10
func parsePrintAreaReference(ref string) (string, []models.MergedRegion) {
	var areas []models.MergedRegion
	var sheetName string
	for _, part := range strings.Split(ref, ",") {
		part = strings.TrimSpace(part)
		idx := strings.LastIndex(part, "!")
		if idx < 0 {
			continue
		}
		sheet := strings.Trim(part[:idx], "'")
		if sheetName == "" {
			sheetName = sheet
		}
		if area, ok := parseRange(part[idx+1:]); ok {
			areas = append(areas, area)
		}
	}
	return sheetName, areas
}

// parseRange parses a range like $A$1:$D$10 into a 0-based region.
// A single cell reference yields a one-cell region.
func parseRange(ref string) (models.MergedRegion, bool) {
	ref = strings.ReplaceAll(strings.TrimSpace(ref), "$", "")
	start, end, found := strings.Cut(ref, ":")
	if !found {
		end = start
	}
	startCol, startRow, err := excelize.CellNameToCoordinates(start)
	if err != nil {
		return models.MergedRegion{}, false
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(end)
	if err != nil {
		return models.MergedRegion{}, false
	}
	if endRow < startRow {
		startRow, endRow = endRow, startRow
	}
	if endCol < startCol {
		startCol, endCol = endCol, startCol
	}
	return models.MergedRegion{
		StartRow: startRow - 1,
		EndRow:   endRow - 1,
		StartCol: startCol - 1,
		EndCol:   endCol - 1,
	}, true
}
