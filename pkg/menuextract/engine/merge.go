package engine

import "github.com/tlamngu/MenuExtractor/pkg/menuextract/models"

// ResolveMerges returns a grid of the same dimensions where every cell of
// each merged region holds the region's value: the last non-null cell met in
// row-major order. Regions whose cells are all null are left untouched.
// Regions are clipped to the grid's rows and its widest row; short rows are
// padded with nulls up to the clipped region.
func ResolveMerges(g models.Grid, regions []models.MergedRegion) models.Grid {
	if len(regions) == 0 {
		return g
	}
	rows := g.Rows()
	lastRow, lastCol := g.NumRows()-1, g.MaxWidth()-1
	for _, m := range regions {
		if m.StartRow < 0 || m.StartCol < 0 || m.EndRow < m.StartRow || m.EndCol < m.StartCol {
			continue
		}
		m.EndRow = min(m.EndRow, lastRow)
		m.EndCol = min(m.EndCol, lastCol)
		if m.StartRow > m.EndRow || m.StartCol > m.EndCol {
			continue
		}
		v := models.Null()
		for r := m.StartRow; r <= m.EndRow; r++ {
			for c := m.StartCol; c <= m.EndCol; c++ {
				if cell := g.At(r, c); !cell.IsNull() {
					v = cell
				}
			}
		}
		if v.IsNull() {
			continue
		}
		for r := m.StartRow; r <= m.EndRow; r++ {
			for len(rows[r]) <= m.EndCol {
				rows[r] = append(rows[r], models.Null())
			}
			for c := m.StartCol; c <= m.EndCol; c++ {
				rows[r][c] = v
			}
		}
	}
	return models.NewGrid(rows)
}
