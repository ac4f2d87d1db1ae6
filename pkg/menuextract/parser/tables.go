package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
)

// UsedRange returns the bounding box of the non-empty cells of g in Excel
// range notation (e.g. "A1:D10"), or "" for an empty grid.
func UsedRange(g models.Grid) string {
	minRow, maxRow, minCol, maxCol := findDataBounds(g)
	if minRow < 0 {
		return ""
	}
	startCell, err := excelize.CoordinatesToCellName(minCol+1, minRow+1)
	if err != nil {
		return ""
	}
	endCell, err := excelize.CoordinatesToCellName(maxCol+1, maxRow+1)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s:%s", startCell, endCell)
}

// findDataBounds finds the bounding box of non-empty cells.
func findDataBounds(g models.Grid) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for r := 0; r < g.NumRows(); r++ {
		for c := 0; c < g.Width(r); c++ {
			if g.At(r, c).IsEmpty() {
				continue
			}
			if minRow < 0 {
				minRow = r
			}
			maxRow = r
			if minCol < 0 || c < minCol {
				minCol = c
			}
			if c > maxCol {
				maxCol = c
			}
		}
	}
	return
}
